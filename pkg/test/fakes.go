package test

import (
	"context"
	"sync"

	"github.com/flockbusiness/flock-push-bridge/pkg/bridge"
	"github.com/flockbusiness/flock-push-bridge/pkg/permission"
)

// FetchResult is one scripted answer of Messaging.Token.
type FetchResult struct {
	Token string
	Err   error
}

// Messaging replays scripted credential fetch results. Once the script runs
// out, the last result repeats.
type Messaging struct {
	mu           sync.Mutex
	Script       []FetchResult
	ConfigureErr error
	fetches      int
	apnsTokens   [][]byte
	refresh      func(*string)
	configured   bool
}

func NewMessaging(script ...FetchResult) *Messaging {
	return &Messaging{Script: script}
}

func (m *Messaging) Configure(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configured = true
	return m.ConfigureErr
}

func (m *Messaging) SetAPNSToken(token []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.apnsTokens = append(m.apnsTokens, token)
}

func (m *Messaging) Token(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.fetches++
	if len(m.Script) == 0 {
		return "", nil
	}

	i := m.fetches - 1
	if i >= len(m.Script) {
		i = len(m.Script) - 1
	}

	return m.Script[i].Token, m.Script[i].Err
}

func (m *Messaging) OnTokenRefresh(fn func(*string)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.refresh = fn
}

// Refresh plays the SDK rotating the credential.
func (m *Messaging) Refresh(token *string) {
	m.mu.Lock()
	fn := m.refresh
	m.mu.Unlock()

	if fn != nil {
		fn(token)
	}
}

func (m *Messaging) Fetches() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.fetches
}

func (m *Messaging) APNSTokens() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([][]byte(nil), m.apnsTokens...)
}

func (m *Messaging) Configured() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.configured
}

// Authorizer answers authorization requests with Granted/Err. With Hold set
// the answer waits for Resolve, like a prompt the user has not answered.
type Authorizer struct {
	mu        sync.Mutex
	Granted   bool
	Err       error
	Hold      bool
	Snapshot  *permission.Settings
	requested []permission.Options
	pending   []func(bool, error)
}

func (a *Authorizer) RequestAuthorization(_ context.Context, opts permission.Options, fn func(bool, error)) {
	a.mu.Lock()
	a.requested = append(a.requested, opts)
	if a.Hold {
		a.pending = append(a.pending, fn)
		a.mu.Unlock()
		return
	}
	granted, err := a.Granted, a.Err
	a.mu.Unlock()

	fn(granted, err)
}

func (a *Authorizer) Settings(_ context.Context, fn func(*permission.Settings)) {
	a.mu.Lock()
	s := a.Snapshot
	a.mu.Unlock()

	fn(s)
}

func (a *Authorizer) Resolve(granted bool, err error) {
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	for _, fn := range pending {
		fn(granted, err)
	}
}

func (a *Authorizer) Requested() []permission.Options {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]permission.Options(nil), a.requested...)
}

type Registrar struct {
	mu         sync.Mutex
	count      int
	OnRegister func()
}

func (r *Registrar) RegisterForRemoteNotifications() {
	r.mu.Lock()
	r.count++
	fn := r.OnRegister
	r.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func (r *Registrar) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.count
}

// Surface is a UI surface backed by an in-process loopback that records
// every invocation it receives.
type Surface struct {
	mu          sync.Mutex
	loopback    *bridge.Loopback
	invocations []*bridge.Invocation
}

func NewSurface(channel string) *Surface {
	s := &Surface{loopback: bridge.NewLoopback()}
	s.loopback.Listen(channel, func(inv *bridge.Invocation) {
		s.mu.Lock()
		s.invocations = append(s.invocations, inv)
		s.mu.Unlock()
	})

	return s
}

func (s *Surface) Messenger() bridge.Messenger {
	return s.loopback
}

func (s *Surface) Invocations() []*bridge.Invocation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]*bridge.Invocation(nil), s.invocations...)
}

// Count returns the number of recorded invocations of method.
func (s *Surface) Count(method bridge.Method) int {
	n := 0
	for _, inv := range s.Invocations() {
		if inv.Kind() == method {
			n++
		}
	}

	return n
}
