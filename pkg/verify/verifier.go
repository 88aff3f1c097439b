// Package verify checks a freshly obtained messaging credential with a
// dry-run send, so a broken registration shows up in the logs right away.
package verify

import (
	"context"

	"github.com/edganiukov/fcm"
	"github.com/pkg/errors"
)

var (
	ErrInvalidCredential = errors.New("verify: credential rejected")
	ErrEmptyCredential   = errors.New("verify: empty credential")
)

type Verifier struct {
	client *fcm.Client
}

func New(cfg *Config) (*Verifier, error) {

	opts := make([]fcm.Option, 0, 1)
	if len(cfg.Endpoint) > 0 {
		opts = append(opts, fcm.WithEndpoint(cfg.Endpoint))
	}

	client, err := fcm.NewClient(cfg.ServerKey, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "verify: fcm client")
	}

	return &Verifier{client: client}, nil
}

// Verify sends a dry-run message to the credential. The message is validated
// by the server and never delivered to the device.
func (v *Verifier) Verify(ctx context.Context, credential string) error {

	if len(credential) == 0 {
		return ErrEmptyCredential
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	res, err := v.client.Send(&fcm.Message{
		Token:  credential,
		DryRun: true,
		Data: map[string]interface{}{
			"verify": "1",
		},
	})
	if err != nil {
		return errors.Wrap(err, "verify: send")
	}

	for _, result := range res.Results {
		switch result.Error {
		case nil:
		case fcm.ErrInvalidRegistration, fcm.ErrNotRegistered:
			return errors.Wrap(ErrInvalidCredential, result.Error.Error())
		default:
			return errors.Wrap(result.Error, "verify")
		}
	}

	if res.Failure > 0 {
		return ErrInvalidCredential
	}

	return nil
}
