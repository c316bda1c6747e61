package scopesdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// url builds a complete URL by appending the path to the base URL.
func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest performs an HTTP request. A non-empty sessionKey is attached as
// a bearer token for authenticated calls.
func (c *Client) doRequest(
	ctx context.Context,
	method, path string,
	body io.Reader,
	sessionKey string,
) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return nil, fmt.Errorf("scopesdk: failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionKey != "" {
		req.Header.Set("Authorization", "Bearer "+sessionKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("scopesdk: request failed: %w", err)
	}

	return resp, nil
}

// postJSON encodes in as a JSON body, POSTs it, and decodes the response
// into out (which may be nil when the body is irrelevant).
func (c *Client) postJSON(ctx context.Context, path string, in, out any, sessionKey string) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("scopesdk: failed to encode request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, path, bytes.NewReader(payload), sessionKey)
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}

// getJSON GETs path and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, path string, out any, sessionKey string) error {
	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, sessionKey)
	if err != nil {
		return err
	}

	return decodeJSON(resp, out)
}

// decodeJSON checks the response status and decodes a JSON body into out.
// The body is always drained and closed.
func decodeJSON(resp *http.Response, out any) error {
	defer closeBody(resp)

	if err := checkStatus(resp); err != nil {
		return err
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("scopesdk: failed to decode response: %w", err)
	}
	return nil
}

// checkStatus converts non-2xx responses into typed errors. 404 maps to
// ErrNotFound; everything else becomes an *APIError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return parseAPIError(resp.StatusCode, body)
}

func closeBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
