package mobile

import (
	"context"
	"sync"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/messaging"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
	"github.com/pkg/errors"
)

// NativeHost is implemented by the native shell (Swift/Kotlin). gomobile
// exposes it as an interface the platform code satisfies, so methods only
// use primitive types, strings and []byte.
type NativeHost interface {
	// RequestAuthorization shows the permission prompt. The answer comes
	// back through Bridge.AuthorizationResult.
	RequestAuthorization(options int)

	// RequestSettings asks for a settings snapshot. The answer comes back
	// through Bridge.SettingsResult.
	RequestSettings()

	RegisterForRemoteNotifications()

	// HasSurface reports whether a UI surface with a binary messenger exists.
	HasSurface() bool
	SendBridgeMessage(channel string, message []byte) error

	ConfigureMessaging() error
	SetAPNSToken(token []byte)

	// FetchToken asks the messaging SDK for the credential. The answer comes
	// back through Bridge.TokenResult with the same request id.
	FetchToken(requestID int)
}

type nativeAuthorizer struct {
	host NativeHost

	mu       sync.Mutex
	pending  []func(bool, error)
	settings []func(*permission.Settings)
}

func (a *nativeAuthorizer) RequestAuthorization(_ context.Context, opts permission.Options, fn func(bool, error)) {
	a.mu.Lock()
	a.pending = append(a.pending, fn)
	a.mu.Unlock()

	a.host.RequestAuthorization(int(opts))
}

func (a *nativeAuthorizer) Settings(_ context.Context, fn func(*permission.Settings)) {
	a.mu.Lock()
	a.settings = append(a.settings, fn)
	a.mu.Unlock()

	a.host.RequestSettings()
}

func (a *nativeAuthorizer) resolve(granted bool, err error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, fn := range pending {
		fn(granted, err)
	}
}

func (a *nativeAuthorizer) resolveSettings(s *permission.Settings) {
	a.mu.Lock()
	pending := a.settings
	a.settings = nil
	a.mu.Unlock()

	for _, fn := range pending {
		fn(s)
	}
}

type nativeRegistrar struct {
	host NativeHost
}

func (r nativeRegistrar) RegisterForRemoteNotifications() {
	r.host.RegisterForRemoteNotifications()
}

type nativeSurface struct {
	host NativeHost
}

func (s nativeSurface) Messenger() bridge.Messenger {
	if !s.host.HasSurface() {
		return nil
	}

	return nativeMessenger{host: s.host}
}

type nativeMessenger struct {
	host NativeHost
}

func (m nativeMessenger) Send(channel string, message []byte) error {
	return m.host.SendBridgeMessage(channel, message)
}

type tokenResult struct {
	token string
	err   error
}

// nativeMessaging turns the callback-based native messaging SDK into a
// messaging.Service.
type nativeMessaging struct {
	host NativeHost

	mu      sync.Mutex
	nextID  int
	waiting map[int]chan tokenResult
	refresh func(*string)
}

var _ messaging.Service = (*nativeMessaging)(nil)

func newNativeMessaging(host NativeHost) *nativeMessaging {
	return &nativeMessaging{
		host:    host,
		waiting: make(map[int]chan tokenResult),
	}
}

func (m *nativeMessaging) Configure(context.Context) error {
	return m.host.ConfigureMessaging()
}

func (m *nativeMessaging) SetAPNSToken(token []byte) {
	m.host.SetAPNSToken(token)
}

func (m *nativeMessaging) Token(ctx context.Context) (string, error) {

	ch := make(chan tokenResult, 1)

	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.waiting[id] = ch
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.waiting, id)
		m.mu.Unlock()
	}()

	m.host.FetchToken(id)

	select {
	case res := <-ch:
		return res.token, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *nativeMessaging) OnTokenRefresh(fn func(*string)) {
	m.mu.Lock()
	m.refresh = fn
	m.mu.Unlock()
}

func (m *nativeMessaging) resolve(id int, token, errMessage string) bool {

	m.mu.Lock()
	ch, ok := m.waiting[id]
	m.mu.Unlock()

	if !ok {
		return false
	}

	res := tokenResult{token: token}
	if len(errMessage) > 0 {
		res.err = errors.New(errMessage)
	}

	select {
	case ch <- res:
		return true
	default:
		return false
	}
}

func (m *nativeMessaging) refreshed(token *string) {
	m.mu.Lock()
	fn := m.refresh
	m.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}
