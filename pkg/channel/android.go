// Package channel registers the Android notification channel the app posts
// its notifications to.
package channel

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// MinSDK is the first Android API level (Oreo) with notification channels.
const MinSDK = 26

type Importance int

// Values mirror NotificationManager.IMPORTANCE_*.
const (
	ImportanceNone    Importance = 0
	ImportanceMin     Importance = 1
	ImportanceLow     Importance = 2
	ImportanceDefault Importance = 3
	ImportanceHigh    Importance = 4
)

type Channel struct {
	ID         string     `mapstructure:"id"`
	Name       string     `mapstructure:"name"`
	Importance Importance `mapstructure:"importance"`
}

// Manager is implemented by the Android shell on top of NotificationManagerCompat.
type Manager interface {
	CreateNotificationChannel(id, name string, importance int) error
}

func Default() *Channel {
	return &Channel{
		ID:         "flock_channel",
		Name:       "Flock Notifications",
		Importance: ImportanceDefault,
	}
}

func NewConfig(src *viper.Viper) (*Channel, error) {

	c := Default()
	if src == nil {
		return c, nil
	}

	if err := src.Unmarshal(c); err != nil {
		return nil, err
	}

	if len(c.ID) == 0 {
		return nil, errors.New("invalid `id`")
	} else if c.Importance < ImportanceNone || c.Importance > ImportanceHigh {
		return nil, errors.Errorf("invalid `importance`: %d", c.Importance)
	}

	return c, nil
}

// Ensure creates the channel on SDK levels that support channels and reports
// whether it did. Creating an existing channel is a no-op on the OS side.
func Ensure(sdkInt int, c *Channel, m Manager) (bool, error) {

	if sdkInt < MinSDK {
		return false, nil
	}

	if err := m.CreateNotificationChannel(c.ID, c.Name, int(c.Importance)); err != nil {
		return false, errors.Wrap(err, "channel: "+c.ID)
	}

	return true, nil
}
