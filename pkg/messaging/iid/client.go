package iid

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/flockbusiness/flock-push-bridge/pkg/messaging"
	"github.com/flockbusiness/flock-push-bridge/pkg/transport"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Instance ID server API:
// https://developers.google.com/instance-id/reference/server
//
// Authorization with a service account:
// 1. download service-account.json from https://console.firebase.google.com/project/_/settings/serviceaccounts/adminsdk
// 2. add to request headers: Authorization: Bearer <oauth token>, access_token_auth: true

const DefaultEndpoint = "https://iid.googleapis.com/iid/v1:batchImport"

var (
	ErrEmptyResult = errors.New("iid: empty import result")
)

// Client is a messaging.Service that imports APNs tokens into FCM.
type Client struct {
	client      *http.Client
	endpoint    string
	application string
	sandbox     bool
	retries     int
	tokens      oauth2.TokenSource

	mu         sync.Mutex
	configured bool
	apnsToken  []byte
	current    string
	refresh    func(*string)
}

var _ messaging.Service = (*Client)(nil)

func New(cfg *Config) (*Client, error) {

	serviceAccount, err := ioutil.ReadFile(cfg.ServiceAccount)
	if err != nil {
		return nil, err
	}

	scope := []string{
		"https://www.googleapis.com/auth/firebase.messaging",
	}

	jwtConfig, err := google.JWTConfigFromJSON(serviceAccount, scope...)
	if err != nil {
		return nil, errors.Wrap(err, "jwt config")
	}

	return NewWithTokenSource(cfg, jwtConfig.TokenSource(context.Background())), nil
}

func NewWithTokenSource(cfg *Config, tokens oauth2.TokenSource) *Client {

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Second * 10
	}

	endpoint := cfg.Endpoint
	if len(endpoint) == 0 {
		endpoint = DefaultEndpoint
	}

	return &Client{
		endpoint:    endpoint,
		application: cfg.Application,
		sandbox:     cfg.Sandbox,
		retries:     cfg.Retries,
		tokens:      oauth2.ReuseTokenSource(nil, tokens),
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Configure(context.Context) error {

	if len(c.application) == 0 {
		return errors.New("iid: empty application")
	}

	c.mu.Lock()
	c.configured = true
	c.mu.Unlock()

	return nil
}

func (c *Client) SetAPNSToken(token []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.apnsToken = append([]byte(nil), token...)
}

func (c *Client) OnTokenRefresh(fn func(*string)) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.refresh = fn
}

func (c *Client) Token(ctx context.Context) (string, error) {

	c.mu.Lock()
	configured := c.configured
	apnsToken := hex.EncodeToString(c.apnsToken)
	c.mu.Unlock()

	if !configured {
		return "", messaging.ErrNotConfigured
	} else if len(apnsToken) == 0 {
		return "", messaging.ErrNoAPNSToken
	}

	body := &Request{
		Application: c.application,
		Sandbox:     c.sandbox,
		APNSTokens:  []string{apnsToken},
	}

	var res *Response
	err := transport.Do(ctx, c.retries, func() (int, error) {
		var err error
		res, err = c.send(ctx, body)
		if err != nil {
			return 0, err
		}
		return res.StatusCode, nil
	})
	if err != nil {
		return "", err
	} else if !res.Ok() {
		return "", errors.New("iid: " + strconv.Itoa(res.StatusCode) + " " + res.Error)
	} else if len(res.Results) == 0 {
		return "", ErrEmptyResult
	}

	result := res.Results[0]
	if result.Status != StatusOK {
		return "", errors.New("iid: import status: " + result.Status)
	}

	token := result.RegistrationToken

	c.mu.Lock()
	previous := c.current
	if len(token) > 0 {
		c.current = token
	}
	refresh := c.refresh
	c.mu.Unlock()

	if refresh != nil && previous != "" && token != "" && previous != token {
		refresh(&token)
	}

	return token, nil
}

func (c *Client) send(ctx context.Context, body *Request) (*Response, error) {

	pipe := transport.NewPipe(func(w io.Writer) error {
		return json.NewEncoder(w).Encode(body)
	})
	defer pipe.Close()

	req, err := http.NewRequest(http.MethodPost, c.endpoint, pipe)
	if err != nil {
		return nil, err
	}
	req = req.WithContext(ctx)

	token, err := c.tokens.Token()
	if err != nil {
		return nil, errors.Wrap(err, "jwt token")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", token.Type()+" "+token.AccessToken)
	req.Header.Set("access_token_auth", "true")

	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	retval := &Response{
		StatusCode: res.StatusCode,
	}

	switch retval.StatusCode {
	case http.StatusInternalServerError, http.StatusServiceUnavailable:
		// retried by the caller
		return retval, nil
	}

	if err := transport.DecodeJSONResponse(res.Body, retval); err != nil {
		return nil, errors.Wrap(err, "invalid iid response")
	}

	return retval, nil
}
