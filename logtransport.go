package smsbroadcast

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// LogTransport logs requests instead of sending them and answers as the
// gateway would for a fully successful call. Useful for dry runs.
type LogTransport struct {
	logger *slog.Logger
}

// NewLogTransport creates a LogTransport. If logger is nil, slog.Default() is used.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogTransport{logger: logger}
}

func (t *LogTransport) Get(_ context.Context, endpoint string, params url.Values) (*Response, error) {
	if params.Get("action") == "balance" {
		t.logger.Info("smsbroadcast.LogTransport", "endpoint", endpoint, "action", "balance")
		return &Response{StatusCode: http.StatusOK, Body: []byte("OK: 0")}, nil
	}

	to := strings.Split(params.Get("to"), ",")
	t.logger.Info("smsbroadcast.LogTransport",
		"endpoint", endpoint,
		"to", to,
		"from", params.Get("from"),
		"message", params.Get("message"),
		"ref", params.Get("ref"),
		"maxsplit", params.Get("maxsplit"),
	)

	var b strings.Builder
	for i, n := range to {
		fmt.Fprintf(&b, "OK: %s:dryrun%d\n", n, i+1)
	}
	return &Response{StatusCode: http.StatusOK, Body: []byte(b.String())}, nil
}
