// Package mobile is the gomobile-bound entry point of the push bridge. The
// iOS application delegate and the Android activity create one Bridge per
// process and forward their OS callbacks to it.
package mobile

import (
	"context"
	"strings"

	"github.com/flockbusiness/flock-push-bridge/pkg/channel"
	"github.com/flockbusiness/flock-push-bridge/pkg/metric"
	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
	"github.com/flockbusiness/flock-push-bridge/pkg/queue"
	"github.com/flockbusiness/flock-push-bridge/pkg/registration"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type PresentationCallback interface {
	Present(options int)
}

type CompletionCallback interface {
	Complete()
}

type FetchCallback interface {
	Complete(result int)
}

// ChannelManager is implemented by the Android shell on top of
// NotificationManagerCompat.
type ChannelManager interface {
	CreateNotificationChannel(id, name string, importance int) error
}

type Bridge struct {
	bridge     *registration.Bridge
	queue      *queue.Queue
	authorizer *nativeAuthorizer
	messaging  *nativeMessaging
	channel    *channel.Channel
	logger     *zap.Logger
	ctxCancel  func()
}

// NewBridge builds the bridge from a YAML document with the optional
// sections `registration` and `android-channel`.
func NewBridge(configYAML string, host NativeHost) (*Bridge, error) {

	if host == nil {
		return nil, errors.New("mobile: nil host")
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(configYAML)); err != nil {
		return nil, errors.Wrap(err, "mobile: config")
	}

	cfg, err := registration.NewConfig(v.Sub("registration"))
	if err != nil {
		return nil, errors.Wrap(err, "mobile: registration")
	}

	channelCfg, err := channel.NewConfig(v.Sub("android-channel"))
	if err != nil {
		return nil, errors.Wrap(err, "mobile: android-channel")
	}

	logCfg := zap.NewProductionConfig()
	logCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := logCfg.Build()
	if err != nil {
		return nil, err
	}

	return newBridge(cfg, channelCfg, host, logger)
}

func newBridge(cfg *registration.Config, channelCfg *channel.Channel, host NativeHost, logger *zap.Logger) (*Bridge, error) {

	q := queue.New(nil)
	authorizer := &nativeAuthorizer{host: host}
	nm := newNativeMessaging(host)

	b, err := registration.New(cfg, &registration.Dependencies{
		Queue:      q,
		Messaging:  nm,
		Authorizer: authorizer,
		Registrar:  nativeRegistrar{host: host},
		Surface:    nativeSurface{host: host},
	}, logger, metric.New())
	if err != nil {
		return nil, err
	}

	return &Bridge{
		bridge:     b,
		queue:      q,
		authorizer: authorizer,
		messaging:  nm,
		channel:    channelCfg,
		logger:     logger,
	}, nil
}

// Start runs the main queue and the launch sequence. Call it once from the
// application launch callback.
func (b *Bridge) Start() {

	ctx, ctxCancel := context.WithCancel(context.Background())
	b.ctxCancel = ctxCancel

	go func() {
		if err := b.queue.Run(ctx); err != nil && err != context.Canceled && err != queue.ErrClosed {
			b.logger.Error("main queue stopped", zap.Error(err))
		}
	}()

	b.bridge.Initialize()
}

func (b *Bridge) Stop() {

	if err := b.bridge.Close(); err != nil {
		b.logger.Error("close bridge", zap.Error(err))
	}

	if b.ctxCancel != nil {
		b.ctxCancel()
	}

	_ = b.queue.Close()
	_ = b.logger.Sync()
}

// EnsureNotificationChannel registers the Android notification channel.
func (b *Bridge) EnsureNotificationChannel(sdkInt int, m ChannelManager) (bool, error) {

	created, err := channel.Ensure(sdkInt, b.channel, m)
	if err != nil {
		b.logger.Error("notification channel", zap.Error(err))
		return false, err
	}

	b.logger.Info("notification channel", zap.Bool("created", created), zap.Int("sdk", sdkInt))
	return created, nil
}

func (b *Bridge) AuthorizationResult(granted bool, errMessage string) {

	var err error
	if len(errMessage) > 0 {
		err = errors.New(errMessage)
	}

	b.authorizer.resolve(granted, err)
}

func (b *Bridge) SettingsResult(authorizationStatus, alert, badge, sound, notificationCenter, lockScreen int) {
	b.authorizer.resolveSettings(&permission.Settings{
		AuthorizationStatus:       authorizationStatus,
		AlertSetting:              alert,
		BadgeSetting:              badge,
		SoundSetting:              sound,
		NotificationCenterSetting: notificationCenter,
		LockScreenSetting:         lockScreen,
	})
}

func (b *Bridge) DeviceToken(token []byte) {
	b.bridge.DeviceTokenReceived(token)
}

func (b *Bridge) RegistrationFailed(errMessage string) {
	b.bridge.RegistrationFailed(errors.New(errMessage))
}

// TokenResult answers a FetchToken request of the host.
func (b *Bridge) TokenResult(requestID int, token, errMessage string) {
	if !b.messaging.resolve(requestID, token, errMessage) {
		b.logger.Warn("token result without request", zap.Int("request id", requestID))
	}
}

// CredentialRefreshed forwards a rotation reported by the messaging SDK.
// present is false when the SDK reported no credential.
func (b *Bridge) CredentialRefreshed(token string, present bool) {
	if present {
		b.messaging.refreshed(&token)
	} else {
		b.messaging.refreshed(nil)
	}
}

func (b *Bridge) ForegroundNotification(payloadJSON string, osMajor int, cb PresentationCallback) {
	b.bridge.ForegroundNotification(b.decode(payloadJSON), osMajor, func(p notification.Presentation) {
		if cb != nil {
			cb.Present(int(p))
		}
	})
}

func (b *Bridge) NotificationTapped(payloadJSON string, cb CompletionCallback) {

	payload, err := notification.Decode(payloadJSON)
	if err != nil {
		b.logger.Error("notification tap dropped", zap.Error(err))
		if cb != nil {
			cb.Complete()
		}
		return
	}

	b.bridge.NotificationTapped(payload, func() {
		if cb != nil {
			cb.Complete()
		}
	})
}

func (b *Bridge) SilentNotification(payloadJSON string, cb FetchCallback) {
	b.bridge.SilentNotification(b.decode(payloadJSON), func(r notification.FetchResult) {
		if cb != nil {
			cb.Complete(int(r))
		}
	})
}

func (b *Bridge) decode(payloadJSON string) notification.Payload {

	payload, err := notification.Decode(payloadJSON)
	if err != nil {
		b.logger.Warn("undecodable notification payload", zap.Error(err))
		return nil
	}

	return payload
}
