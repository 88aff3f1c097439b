// Package registration coordinates push registration for the app: it asks
// for notification permission, registers with the platform push service,
// exchanges the device token for a messaging credential and relays
// credentials and notification taps to the cross-platform layer.
//
// Every failure ends at this boundary: it is logged and counted, never
// returned. Public methods may be called from any goroutine; the work runs on
// the main queue.
package registration

import (
	"context"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/messaging"
	"github.com/flockbusiness/flock-push-bridge/pkg/metric"
	"github.com/flockbusiness/flock-push-bridge/pkg/notification"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
	"github.com/flockbusiness/flock-push-bridge/pkg/queue"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Surface is the active UI surface. A nil messenger means there is none.
type Surface interface {
	Messenger() bridge.Messenger
}

type Verifier interface {
	Verify(ctx context.Context, credential string) error
}

type Dependencies struct {
	Queue      *queue.Queue
	Messaging  messaging.Service
	Authorizer permission.Authorizer
	Registrar  permission.Registrar
	Surface    Surface

	// optional
	Verifier Verifier
}

type Bridge struct {
	cfg        *Config
	queue      *queue.Queue
	messaging  messaging.Service
	authorizer permission.Authorizer
	registrar  permission.Registrar
	surface    Surface
	verifier   Verifier
	logger     *zap.Logger
	metric     *metric.Bridge
	ctx        context.Context
	ctxCancel  func()

	// confined to the main queue
	initialized bool
	channel     *bridge.MethodChannel
	cycle       uint64
	cancelRetry func()
}

func New(cfg *Config, deps *Dependencies, logger *zap.Logger, svcMetric *metric.Service) (*Bridge, error) {

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch {
	case deps == nil:
		return nil, errors.New("registration: nil dependencies")
	case deps.Queue == nil:
		return nil, errors.New("registration: nil queue")
	case deps.Messaging == nil:
		return nil, errors.New("registration: nil messaging service")
	case deps.Authorizer == nil:
		return nil, errors.New("registration: nil authorizer")
	case deps.Registrar == nil:
		return nil, errors.New("registration: nil registrar")
	}

	bridgeMetric, err := svcMetric.GetBridgeMetrics(cfg.ChannelName)
	if err != nil {
		return nil, err
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	return &Bridge{
		cfg:        cfg,
		queue:      deps.Queue,
		messaging:  deps.Messaging,
		authorizer: deps.Authorizer,
		registrar:  deps.Registrar,
		surface:    deps.Surface,
		verifier:   deps.Verifier,
		logger:     logger.With(zap.String("channel", cfg.ChannelName)),
		metric:     bridgeMetric,
		ctx:        ctx,
		ctxCancel:  ctxCancel,
	}, nil
}

// Close stops pending retries and in-flight fetches.
func (b *Bridge) Close() error {
	b.ctxCancel()
	b.post("close", func() { b.stopRetry() })
	return nil
}

// Initialize runs the launch sequence. It never blocks on the user's answer
// to the permission prompt.
func (b *Bridge) Initialize() {
	b.post("initialize", b.initialize)
}

// DeviceTokenReceived starts a fresh credential fetch cycle for token.
func (b *Bridge) DeviceTokenReceived(token []byte) {
	token = append([]byte(nil), token...)
	b.post("device token", func() { b.deviceTokenReceived(token) })
}

func (b *Bridge) RegistrationFailed(err error) {
	b.post("registration failure", func() {
		b.logger.Error("failed to register for remote notifications", zap.Error(err))
	})
}

// CredentialRefreshed forwards a rotated credential. A nil credential is not
// forwarded.
func (b *Bridge) CredentialRefreshed(token *string) {
	b.post("credential refresh", func() { b.credentialRefreshed(token) })
}

// ForegroundNotification decides how the OS presents a notification arriving
// while the app is active.
func (b *Bridge) ForegroundNotification(payload notification.Payload, osMajor int, completion func(notification.Presentation)) {
	b.post("foreground notification", func() {
		b.metric.NotificationInc("foreground")
		b.logger.Info("notification in foreground", zap.Any("payload", payload))

		presentation := notification.ForegroundPresentation(osMajor, b.cfg.BannerMinOS)
		if completion != nil {
			completion(presentation)
		}
	})
}

// NotificationTapped forwards the payload of a notification the user
// interacted with. Payloads that do not serialize are dropped.
func (b *Bridge) NotificationTapped(payload notification.Payload, completion func()) {
	b.post("notification tap", func() {
		b.notificationTapped(payload)
		if completion != nil {
			completion()
		}
	})
}

// SilentNotification inspects a data-only notification for diagnostics and
// always reports new data.
func (b *Bridge) SilentNotification(payload notification.Payload, completion func(notification.FetchResult)) {
	b.post("silent notification", func() {
		b.metric.NotificationInc("silent")
		b.logger.Info("silent notification", zap.Any("payload", payload))

		info := notification.InspectSilent(payload)
		if info.HasAPS() {
			b.logger.Info("silent notification: aps", zap.Any("aps", info.APS))
		}
		if len(info.MessageID) > 0 {
			b.logger.Info("silent notification: message", zap.String("message id", info.MessageID))
		}

		if completion != nil {
			completion(notification.FetchResultNewData)
		}
	})
}

func (b *Bridge) post(name string, fn func()) {
	if !b.queue.Async(fn) {
		b.logger.Warn("main queue closed, event dropped", zap.String("event", name))
	}
}

func (b *Bridge) initialize() {

	if b.initialized {
		b.logger.Warn("already initialized")
		return
	}
	b.initialized = true

	if err := b.messaging.Configure(b.ctx); err != nil {
		b.logger.Error("configure messaging", zap.Error(err))
	} else {
		b.logger.Info("messaging configured")
	}

	b.channel = b.newChannel()

	b.messaging.OnTokenRefresh(b.CredentialRefreshed)

	opts := permission.DefaultOptions
	b.logger.Info("request notification authorization", zap.Stringer("options", opts))

	b.authorizer.RequestAuthorization(b.ctx, opts, func(granted bool, err error) {
		b.post("authorization", func() { b.authorizationResult(granted, err) })
	})
}

func (b *Bridge) newChannel() *bridge.MethodChannel {

	if b.surface == nil {
		b.logger.Warn("no UI surface: bridge channel is not established")
		return nil
	}

	messenger := b.surface.Messenger()
	if messenger == nil {
		b.logger.Warn("UI surface without messenger: bridge channel is not established")
		return nil
	}

	ch, err := bridge.NewMethodChannel(b.cfg.ChannelName, messenger)
	if err != nil {
		b.logger.Error("bridge channel", zap.Error(err))
		return nil
	}

	return ch
}

func (b *Bridge) authorizationResult(granted bool, err error) {

	if err != nil {
		b.logger.Error("request authorization", zap.Error(err))
		return
	}

	b.logger.Info("authorization result", zap.Bool("granted", granted))
	if !granted {
		return
	}

	b.registrar.RegisterForRemoteNotifications()

	b.authorizer.Settings(b.ctx, func(s *permission.Settings) {
		if s == nil {
			return
		}

		b.logger.Info("notification settings",
			zap.Int("authorization status", s.AuthorizationStatus),
			zap.Int("alert", s.AlertSetting),
			zap.Int("badge", s.BadgeSetting),
			zap.Int("sound", s.SoundSetting),
			zap.Int("notification center", s.NotificationCenterSetting),
			zap.Int("lock screen", s.LockScreenSetting))
	})
}

func (b *Bridge) deviceTokenReceived(token []byte) {

	b.logger.Info("device token received", zap.String("apns token", notification.DeviceTokenString(token)))

	b.messaging.SetAPNSToken(token)

	b.stopRetry()
	b.cycle++
	b.fetch(RetryState{Cycle: b.cycle})
}

func (b *Bridge) stopRetry() {
	if b.cancelRetry != nil {
		b.cancelRetry()
		b.cancelRetry = nil
	}
}

// fetch asks the messaging service for the credential off the main queue and
// posts the result back onto it.
func (b *Bridge) fetch(state RetryState) {

	b.metric.AttemptInc()
	l := b.logger.With(zap.Uint64("cycle", state.Cycle), zap.Int("attempt", state.Attempt+1))
	l.Debug("fetch credential")

	go func() {
		ctx := b.ctx
		if b.cfg.FetchTimeout > 0 {
			var cancel func()
			ctx, cancel = context.WithTimeout(ctx, b.cfg.FetchTimeout)
			defer cancel()
		}

		timerDone := b.metric.NewIOTimer()
		token, err := b.messaging.Token(ctx)
		timerDone()

		b.post("credential", func() { b.fetched(state, token, err, l) })
	}()
}

func (b *Bridge) fetched(state RetryState, token string, err error, l *zap.Logger) {

	if state.Cycle != b.cycle {
		l.Debug("stale credential result ignored")
		return
	}

	if err == nil && len(token) > 0 {
		b.metric.CredentialInc()
		l.Info("credential retrieved", zap.String("token", token))

		b.invoke(bridge.MethodTokenReceived, map[string]string{bridge.ArgToken: token})
		b.verify(token, l)
		return
	}

	if err != nil {
		b.metric.FailsInc(metric.ReasonError)
		l.Error("fetch credential", zap.Error(err))
	} else {
		b.metric.FailsInc(metric.ReasonEmpty)
		l.Warn("credential is empty")
	}

	if !state.CanRetry(b.cfg.MaxAttempts) {
		b.metric.ExhaustedInc()
		l.Error("credential fetch attempts exhausted", zap.Int("max attempts", b.cfg.MaxAttempts))
		return
	}

	next := state.Next()
	l.Info("retry credential fetch", zap.Int("next attempt", next.Attempt+1), zap.Duration("delay", b.cfg.RetryDelay))

	b.cancelRetry = b.queue.AsyncAfter(b.cfg.RetryDelay, func() {
		if next.Cycle != b.cycle {
			return
		}

		b.cancelRetry = nil
		b.fetch(next)
	})
}

func (b *Bridge) verify(token string, l *zap.Logger) {

	if b.verifier == nil {
		return
	}

	go func() {
		if err := b.verifier.Verify(b.ctx, token); err != nil {
			l.Warn("credential verification", zap.Error(err))
		} else {
			l.Info("credential verified")
		}
	}()
}

func (b *Bridge) credentialRefreshed(token *string) {

	if token == nil {
		b.logger.Info("credential refreshed: nil")
		return
	}

	b.logger.Info("credential refreshed", zap.String("token", *token))
	b.invoke(bridge.MethodTokenRefreshed, map[string]string{bridge.ArgToken: *token})
}

func (b *Bridge) notificationTapped(payload notification.Payload) {

	b.metric.NotificationInc("tapped")
	b.logger.Info("user responded to notification", zap.Any("payload", payload))

	encoded, err := notification.Encode(payload)
	if err != nil {
		b.metric.DroppedInc(bridge.MethodNotificationTapped.String())
		b.logger.Error("notification tap dropped", zap.Error(err))
		return
	}

	b.invoke(bridge.MethodNotificationTapped, map[string]string{bridge.ArgNotification: encoded})
}

func (b *Bridge) invoke(method bridge.Method, args map[string]string) {

	name := method.String()

	if b.channel == nil {
		b.metric.DroppedInc(name)
		b.logger.Debug("no bridge channel, invocation dropped", zap.String("method", name))
		return
	}

	if err := b.channel.Invoke(method, args); err != nil {
		b.metric.DroppedInc(name)
		b.logger.Error("bridge invocation", zap.String("method", name), zap.Error(err))
		return
	}

	b.metric.InvocationInc(name)
}
