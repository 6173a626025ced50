package server_test

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/config"
	"github.com/devineonline/smsbroadcast/internal/server"
	"github.com/devineonline/smsbroadcast/internal/testutil"
)

func newTestServer(t *testing.T, cfg *config.Config) (*server.Server, *smsbroadcast.CaptureTransport) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}
	tr := &smsbroadcast.CaptureTransport{}
	client := smsbroadcast.NewClient(tr, smsbroadcast.Config{
		Username: "user",
		Password: "pass",
		Sender:   "0412345678",
		Logger:   testutil.DiscardLogger(),
	})
	return server.New(cfg, testutil.DiscardLogger(), client), tr
}

func doJSON(t *testing.T, srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	testutil.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	w := doJSON(t, srv, http.MethodGet, "/health", "")

	testutil.StatusCode(t, http.StatusOK, w.Code)
	testutil.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	testutil.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	testutil.Equal(t, "ok", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	w := doJSON(t, srv, http.MethodGet, "/api/sms/nope", "")
	testutil.StatusCode(t, http.StatusNotFound, w.Code)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := config.Default()
	cfg.Server.APIKey = "secret"
	srv, tr := newTestServer(t, cfg)
	tr.Reply("OK: 10").Reply("OK: 10")

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic secret", want: http.StatusUnauthorized},
		{name: "wrong key", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "empty bearer", header: "Bearer ", want: http.StatusUnauthorized},
		{name: "valid", header: "Bearer secret", want: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/sms/balance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			srv.Router().ServeHTTP(w, req)
			testutil.StatusCode(t, tt.want, w.Code)
		})
	}
	testutil.SliceLen(t, tr.Calls, 1)
}

func TestAPIKeyNotRequiredForHealthAndReceipts(t *testing.T) {
	cfg := config.Default()
	cfg.Server.APIKey = "secret"
	srv, _ := newTestServer(t, cfg)

	testutil.StatusCode(t, http.StatusOK, doJSON(t, srv, http.MethodGet, "/health", "").Code)
	testutil.StatusCode(t, http.StatusOK,
		doJSON(t, srv, http.MethodGet, "/api/webhooks/sms/status?to=0412345678&ref=r1&smsref=123&status=Delivered", "").Code)
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	srv, _ := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-Id", "abc-123")
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)

	testutil.StatusCode(t, http.StatusOK, w.Code)
}

func TestServeAndShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Server.ShutdownTimeout = 1
	srv, _ := newTestServer(t, cfg)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.NoError(t, err)

	ready := make(chan struct{})
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln, ready) }()
	<-ready

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	testutil.NoError(t, err)
	resp.Body.Close()
	testutil.StatusCode(t, http.StatusOK, resp.StatusCode)

	testutil.NoError(t, srv.Shutdown(context.Background()))
	testutil.NoError(t, <-errc)
}

func TestShutdownBeforeStart(t *testing.T) {
	srv, _ := newTestServer(t, nil)
	testutil.NoError(t, srv.Shutdown(context.Background()))
}
