// Package client is the HTTP client the CLI uses to talk to the local
// agent daemon.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Client issues one request to the daemon per call. Exactly one attempt is
// made; there is no retry and no queueing. Callers bound slow requests with
// the context.
type Client interface {
	Request(ctx context.Context, path, method string, body any) (json.RawMessage, error)
}

// RequestError is the failure of a daemon request, covering both transport
// failures and error responses. Data carries the daemon's error body when
// one was returned.
type RequestError struct {
	Message string
	Data    any
	Err     error
}

func (e *RequestError) Error() string { return e.Message }

func (e *RequestError) Unwrap() error { return e.Err }

// Diagnostic returns the service-side error payload in printable form, or
// the empty string when the response carried none. Decoded JSON bodies are
// re-indented; raw bodies pass through.
func (e *RequestError) Diagnostic() string {
	if e.Data == nil {
		return ""
	}
	if s, ok := e.Data.(string); ok {
		return s
	}
	out, err := json.MarshalIndent(e.Data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", e.Data)
	}
	return string(out)
}

// HTTPClient talks to the daemon API over loopback HTTP.
type HTTPClient struct {
	BaseURL string
	Client  *http.Client
}

// New constructs a client for the daemon at baseURL. Agent runs are
// open-ended, so the underlying client carries no timeout of its own;
// short-lived calls such as health probes pass a context deadline instead.
func New(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		Client:  &http.Client{},
	}
}

// Request sends one JSON request and returns the raw response body. A nil
// body sends no payload. Any failure, on the wire or reported by the
// daemon, comes back as a *RequestError.
func (c *HTTPClient) Request(ctx context.Context, path, method string, body any) (json.RawMessage, error) {
	endpoint, err := c.resolve(path)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("resolving %s: %v", path, err), Err: err}
	}

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &RequestError{Message: fmt.Sprintf("encoding request body: %v", err), Err: err}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("building request: %v", err), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("daemon request failed: %v", err), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RequestError{Message: fmt.Sprintf("reading response: %v", err), Err: err}
	}

	if resp.StatusCode >= 400 {
		return nil, errorFromResponse(resp.StatusCode, respBody)
	}
	return json.RawMessage(respBody), nil
}

// errorFromResponse keeps the daemon's own message when the error body has
// one, and carries the decoded body as Data either way.
func errorFromResponse(status int, body []byte) *RequestError {
	reqErr := &RequestError{
		Message: fmt.Sprintf("daemon returned status %d", status),
	}
	if len(body) == 0 {
		return reqErr
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		reqErr.Data = string(body)
		return reqErr
	}
	reqErr.Data = decoded

	if obj, ok := decoded.(map[string]any); ok {
		if msg, ok := obj["error"].(string); ok && msg != "" {
			reqErr.Message = msg
		}
	}
	return reqErr
}

func (c *HTTPClient) resolve(path string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return "", err
	}
	rel, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(rel).String(), nil
}
