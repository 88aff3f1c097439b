// Package transport holds the JSON-over-HTTP plumbing of the remote messaging
// clients.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrInternalServerError = errors.New("remote server: internal error")
	ErrServiceUnavailable  = errors.New("remote server: service unavailable")
)

// Do calls send up to attempts times while the remote server answers 500 or
// 503 or the call times out. A cancelled ctx stops the loop.
func Do(ctx context.Context, attempts int, send func() (statusCode int, _ error)) error {

	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		hasAttempts := attempt < attempts-1 && ctx.Err() == nil

		statusCode, err := send()
		switch {
		case err != nil:
			if hasAttempts && errors.Cause(err) == context.DeadlineExceeded {
				continue
			}
			return err

		case statusCode == http.StatusInternalServerError:
			if hasAttempts {
				continue
			}
			return ErrInternalServerError

		case statusCode == http.StatusServiceUnavailable:
			if hasAttempts {
				continue
			}
			return ErrServiceUnavailable
		}

		break
	}

	return nil
}

// DecodeJSONResponse unmarshals a json response. If the server returns
// invalid json, the start of the body becomes the error. An empty body leaves
// retval untouched.
func DecodeJSONResponse(r io.Reader, retval interface{}) error {

	decoder := json.NewDecoder(r)

	err := decoder.Decode(retval)
	if err == nil || err == io.EOF {
		return nil
	}

	if _, ok := err.(*json.SyntaxError); ok {
		errInfo := bytes.NewBuffer(nil)
		if _, errCopy := io.Copy(errInfo, decoder.Buffered()); errCopy != nil {
			return err
		}

		if errInfo.Len() > 2000 {
			errInfo.Truncate(2000)
		}

		return errors.New(errInfo.String())
	}

	return err
}
