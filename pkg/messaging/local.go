package messaging

import (
	"context"
	"encoding/hex"
	"sync"

	"github.com/pkg/errors"
)

// Local derives credentials from the APNs token without any network. It is
// used by the development host; FailFirst makes the first fetches of every
// token fail so retries can be observed.
type Local struct {
	FailFirst int

	mu         sync.Mutex
	configured bool
	apnsToken  []byte
	failures   int
	current    string
	refresh    func(*string)
}

func NewLocal(failFirst int) *Local {
	return &Local{FailFirst: failFirst}
}

func (l *Local) Configure(context.Context) error {
	l.mu.Lock()
	l.configured = true
	l.mu.Unlock()

	return nil
}

func (l *Local) SetAPNSToken(token []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.apnsToken = append([]byte(nil), token...)
	l.failures = 0
}

func (l *Local) Token(context.Context) (string, error) {

	l.mu.Lock()

	if !l.configured {
		l.mu.Unlock()
		return "", ErrNotConfigured
	} else if len(l.apnsToken) == 0 {
		l.mu.Unlock()
		return "", ErrNoAPNSToken
	} else if l.failures < l.FailFirst {
		l.failures++
		l.mu.Unlock()
		return "", errors.Errorf("local: simulated failure #%d", l.failures)
	}

	token := "local:" + hex.EncodeToString(l.apnsToken)
	previous := l.current
	l.current = token
	refresh := l.refresh
	l.mu.Unlock()

	if refresh != nil && previous != "" && previous != token {
		refresh(&token)
	}

	return token, nil
}

func (l *Local) OnTokenRefresh(fn func(*string)) {
	l.mu.Lock()
	l.refresh = fn
	l.mu.Unlock()
}

// Rotate replaces the current credential and notifies the refresh listener.
func (l *Local) Rotate(token *string) {

	l.mu.Lock()
	if token != nil {
		l.current = *token
	} else {
		l.current = ""
	}
	refresh := l.refresh
	l.mu.Unlock()

	if refresh != nil {
		refresh(token)
	}
}
