package service

import (
	"context"
	"sync"

	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
	"github.com/pkg/errors"
)

// simulatedOS stands in for the notification center and the push service
// registration of a device. Outcomes come from HostConfig.
type simulatedOS struct {
	cfg *HostConfig

	mu       sync.Mutex
	onToken  func([]byte)
	onFailed func(error)
}

func (s *simulatedOS) bind(onToken func([]byte), onFailed func(error)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.onToken = onToken
	s.onFailed = onFailed
}

func (s *simulatedOS) RequestAuthorization(_ context.Context, _ permission.Options, fn func(bool, error)) {
	go func() {
		if len(s.cfg.AuthorizeError) > 0 {
			fn(false, errors.New(s.cfg.AuthorizeError))
			return
		}

		fn(s.cfg.Authorize, nil)
	}()
}

func (s *simulatedOS) Settings(_ context.Context, fn func(*permission.Settings)) {
	// authorized(2), enabled(2)
	fn(&permission.Settings{
		AuthorizationStatus:       2,
		AlertSetting:              2,
		BadgeSetting:              2,
		SoundSetting:              2,
		NotificationCenterSetting: 2,
		LockScreenSetting:         2,
	})
}

func (s *simulatedOS) RegisterForRemoteNotifications() {

	s.mu.Lock()
	onToken, onFailed := s.onToken, s.onFailed
	s.mu.Unlock()

	if onToken == nil || onFailed == nil {
		return
	}

	if len(s.cfg.RegistrationError) > 0 {
		go onFailed(errors.New(s.cfg.RegistrationError))
		return
	} else if len(s.cfg.DeviceToken) == 0 {
		// waits for POST /debug/device-token
		return
	}

	token, err := notification.ParseDeviceToken(s.cfg.DeviceToken)
	if err != nil {
		go onFailed(err)
		return
	}

	go onToken(token)
}
