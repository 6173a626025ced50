package smsbroadcast

import (
	"context"
	"log/slog"
	"net/url"
)

// Endpoint is the gateway's advanced HTTP API.
const Endpoint = "https://api.smsbroadcast.com.au/api-adv.php"

// Config holds account credentials and client defaults.
type Config struct {
	Username string
	Password string
	// Sender is the default sender id used when a call does not pass WithSender.
	Sender string
	// Endpoint overrides the gateway URL; empty means Endpoint.
	Endpoint string
	Logger   *slog.Logger
}

// Client talks to the gateway. It holds no mutable state and is safe for
// concurrent use if its Transport is.
type Client struct {
	transport Transport
	username  string
	password  string
	sender    string
	endpoint  string
	logger    *slog.Logger
}

// NewClient creates a Client. A nil transport uses NewHTTPTransport(nil).
func NewClient(transport Transport, cfg Config) *Client {
	if transport == nil {
		transport = NewHTTPTransport(nil)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = Endpoint
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Client{
		transport: transport,
		username:  cfg.Username,
		password:  cfg.Password,
		sender:    cfg.Sender,
		endpoint:  cfg.Endpoint,
		logger:    cfg.Logger,
	}
}

// New creates a Client against the production gateway over HTTP.
func New(username, password, sender string) *Client {
	return NewClient(nil, Config{Username: username, Password: password, Sender: sender})
}

// SendOption customises a single send.
type SendOption func(*sendOptions)

type sendOptions struct {
	sender   *string
	ref      string
	maxSplit int
}

// WithSender overrides the client's default sender id. An empty value is
// rejected by validation.
func WithSender(sender string) SendOption {
	return func(o *sendOptions) { o.sender = &sender }
}

// WithRef attaches a caller reference id that the gateway echoes in delivery receipts.
func WithRef(ref string) SendOption {
	return func(o *sendOptions) { o.ref = ref }
}

// WithMaxSplit bounds how many SMS segments the message may span.
func WithMaxSplit(n int) SendOption {
	return func(o *sendOptions) { o.maxSplit = n }
}

// Request resolves options against the client defaults into a SendRequest.
// It does not validate.
func (c *Client) Request(to []string, message string, opts ...SendOption) *SendRequest {
	o := sendOptions{maxSplit: DefaultMaxSplit}
	for _, opt := range opts {
		opt(&o)
	}
	sender := c.sender
	if o.sender != nil {
		sender = *o.sender
	}
	return &SendRequest{
		To:       to,
		Message:  message,
		Sender:   sender,
		Ref:      o.ref,
		MaxSplit: o.maxSplit,
	}
}

// Send delivers message to a single recipient. A recipient rejected by the
// gateway yields its result together with an ErrSend error.
func (c *Client) Send(ctx context.Context, to, message string, opts ...SendOption) (*SendResult, error) {
	results, err := c.dispatch(ctx, c.Request([]string{to}, message, opts...))
	if err != nil {
		return nil, err
	}
	res := results[0]
	if !res.Success {
		return &res, sendFailed(res.Number, res.Error)
	}
	return &res, nil
}

// SendMany delivers message to every recipient in one request. Results follow
// the gateway's line order and include per-recipient rejections; only an
// account-level error fails the call.
func (c *Client) SendMany(ctx context.Context, to []string, message string, opts ...SendOption) ([]SendResult, error) {
	return c.dispatch(ctx, c.Request(to, message, opts...))
}

// Balance returns the account's remaining credits.
func (c *Client) Balance(ctx context.Context) (int, error) {
	resp, err := c.get(ctx, balanceParams(c.username, c.password))
	if err != nil {
		return 0, err
	}
	balance, err := ParseBalanceResponse(string(resp.Body))
	if err != nil {
		return 0, err
	}
	c.logger.Debug("smsbroadcast: balance", "credits", balance)
	return balance, nil
}

func (c *Client) dispatch(ctx context.Context, req *SendRequest) ([]SendResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c.logger.Debug("smsbroadcast: send",
		"recipients", len(req.To),
		"sender", req.Sender,
		"ref", req.Ref,
		"maxsplit", req.MaxSplit,
	)

	resp, err := c.get(ctx, sendParams(c.username, c.password, req))
	if err != nil {
		return nil, err
	}
	results, err := ParseSendResponse(string(resp.Body))
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if !r.Success {
			c.logger.Warn("smsbroadcast: recipient rejected", "to", r.Number, "error", r.Error)
		}
	}
	return results, nil
}

func (c *Client) get(ctx context.Context, params url.Values) (*Response, error) {
	resp, err := c.transport.Get(ctx, c.endpoint, params)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	return resp, nil
}
