package permission

import (
	"context"
	"strings"
)

// Options is the set of presentation capabilities requested from the user.
type Options uint

const (
	OptionBadge Options = 1 << iota
	OptionSound
	OptionAlert
	OptionProvisional
)

// DefaultOptions is requested at launch.
const DefaultOptions = OptionAlert | OptionBadge | OptionSound | OptionProvisional

var _OptionNames = []struct {
	opt  Options
	name string
}{
	{OptionAlert, "alert"},
	{OptionBadge, "badge"},
	{OptionSound, "sound"},
	{OptionProvisional, "provisional"},
}

func (o Options) Has(opt Options) bool {
	return o&opt == opt
}

func (o Options) String() string {

	names := make([]string, 0, len(_OptionNames))
	for _, item := range _OptionNames {
		if o.Has(item.opt) {
			names = append(names, item.name)
		}
	}

	if len(names) == 0 {
		return "none"
	}

	return strings.Join(names, "|")
}

// Settings is a snapshot of the notification settings the OS reports after
// authorization. Values are the raw OS enumerations.
type Settings struct {
	AuthorizationStatus       int
	AlertSetting              int
	BadgeSetting              int
	SoundSetting              int
	NotificationCenterSetting int
	LockScreenSetting         int
}

// Authorizer asks the user for permission to present notifications. The
// result is delivered asynchronously; fn may run on any goroutine.
type Authorizer interface {
	RequestAuthorization(ctx context.Context, opts Options, fn func(granted bool, err error))
	Settings(ctx context.Context, fn func(*Settings))
}

// Registrar registers the app with the platform push service. The outcome
// arrives later through the device token callbacks of the host.
type Registrar interface {
	RegisterForRemoteNotifications()
}
