package scopesdk

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

const (
	// DefaultPollAttempts bounds how many times SendEmail checks an
	// in-flight notification job before giving up.
	DefaultPollAttempts = 10

	// DefaultPollInterval is the wait between notification job checks.
	DefaultPollInterval = 500 * time.Millisecond
)

// Client is a client for the image data server's administrative API.
// It performs unauthenticated operations and creates authenticated
// AdminSessions via Login.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// PollAttempts and PollInterval bound the wait for asynchronous
	// notification jobs. Zero values fall back to the package defaults.
	PollAttempts int
	PollInterval time.Duration
}

// NewClient creates a client for the server at host:port. When secure is
// true the client speaks HTTPS.
func NewClient(host string, port int, secure bool) *Client {
	scheme := "http"
	if secure {
		scheme = "https"
	}

	return &Client{
		BaseURL: fmt.Sprintf("%s://%s:%d", scheme, host, port),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		PollAttempts: DefaultPollAttempts,
		PollInterval: DefaultPollInterval,
	}
}

// Ping checks that the server's API root is reachable.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/v0", nil, "")
	if err != nil {
		return err
	}
	defer closeBody(resp)

	return checkStatus(resp)
}

// Login opens an authenticated administrative session. The returned session
// performs all privileged operations with the server-issued session key.
func (c *Client) Login(ctx context.Context, username, password string) (*AdminSession, error) {
	req := loginRequest{Username: username, Password: password}

	var body loginResponse
	if err := c.postJSON(ctx, "/api/v0/login", req, &body, ""); err != nil {
		return nil, err
	}
	if body.SessionKey == "" {
		return nil, fmt.Errorf("scopesdk: login response missing session key")
	}

	return &AdminSession{client: c, sessionKey: body.SessionKey}, nil
}

func (c *Client) pollAttempts() int {
	if c.PollAttempts > 0 {
		return c.PollAttempts
	}
	return DefaultPollAttempts
}

func (c *Client) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return DefaultPollInterval
}
