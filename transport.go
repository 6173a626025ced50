package smsbroadcast

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Response is the raw outcome of a transport call.
type Response struct {
	StatusCode int
	Body       []byte
}

// Transport issues a GET against endpoint with the given query.
type Transport interface {
	Get(ctx context.Context, endpoint string, params url.Values) (*Response, error)
}

// StatusError is returned by HTTPTransport for non-2xx replies.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("smsbroadcast: http error %d: %s", e.StatusCode, e.Body)
}

// DefaultTimeout bounds a single request made by the default HTTP transport.
const DefaultTimeout = 30 * time.Second

// HTTPTransport sends requests with an *http.Client.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client. A nil client gets DefaultTimeout.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &HTTPTransport{client: client}
}

func (t *HTTPTransport) Get(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("smsbroadcast: parse endpoint: %w", err)
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("smsbroadcast: build request: %w", err)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("smsbroadcast: send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("smsbroadcast: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}
	return &Response{StatusCode: resp.StatusCode, Body: body}, nil
}
