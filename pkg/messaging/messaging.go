// Package messaging describes the messaging service that turns an APNs device
// token into a messaging credential (an FCM registration token).
package messaging

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrNotConfigured = errors.New("messaging: not configured")
	ErrNoAPNSToken   = errors.New("messaging: no APNs token")
)

// Service is the messaging SDK as seen by the registration bridge.
type Service interface {
	Configure(ctx context.Context) error

	// SetAPNSToken supplies the device token a credential is derived from.
	SetAPNSToken(token []byte)

	// Token returns the current credential. An empty credential without an
	// error means the service has nothing yet.
	Token(ctx context.Context) (string, error)

	// OnTokenRefresh registers the listener for rotated credentials. A nil
	// credential means the service dropped it.
	OnTokenRefresh(fn func(token *string))
}
