package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/config"
	"github.com/devineonline/smsbroadcast/internal/httputil"
	"github.com/devineonline/smsbroadcast/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Gateway is the subset of *smsbroadcast.Client the relay needs.
type Gateway interface {
	Send(ctx context.Context, to, message string, opts ...smsbroadcast.SendOption) (*smsbroadcast.SendResult, error)
	SendMany(ctx context.Context, to []string, message string, opts ...smsbroadcast.SendOption) ([]smsbroadcast.SendResult, error)
	Balance(ctx context.Context) (int, error)
}

// Server is the HTTP relay in front of the SMS Broadcast gateway.
type Server struct {
	cfg     *config.Config
	router  *chi.Mux
	http    *http.Server
	logger  *slog.Logger
	gateway Gateway
	metrics *metrics.Metrics
	newRef  func() string
}

// New creates a new Server with middleware and routes configured.
func New(cfg *config.Config, logger *slog.Logger, gw Gateway) *Server {
	r := chi.NewRouter()

	s := &Server{
		cfg:     cfg,
		router:  r,
		logger:  logger,
		gateway: gw,
		newRef:  smsbroadcast.NewRef,
	}
	if cfg.Server.Metrics {
		s.metrics = metrics.New()
	}

	r.Use(middleware.RequestID)
	if s.metrics != nil {
		r.Use(requestMetrics(s.metrics))
	}
	r.Use(requestLogger(logger))
	r.Use(middleware.Recoverer)

	// Preflight requests carry no credentials, so CORS runs ahead of the api key check.
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.Server.CORSAllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"X-Request-Id"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		// Delivery receipts come from the gateway, which cannot send our api key.
		r.Route("/webhooks/sms", func(r chi.Router) {
			r.Get("/status", s.handleDeliveryReceipt)
			r.Post("/status", s.handleDeliveryReceipt)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAPIKey(cfg.Server.APIKey))

			r.Route("/sms", func(r chi.Router) {
				r.Get("/balance", s.handleBalance)

				r.Group(func(r chi.Router) {
					r.Use(middleware.AllowContentType("application/json"))
					r.Post("/send", s.handleSend)
					r.Post("/send-many", s.handleSendMany)
				})
			})
		})
	})

	return s
}

// Router returns the chi router for registering additional routes.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              s.cfg.Address(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", "address", s.cfg.Address())
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// StartWithReady begins listening. It closes the ready channel once the
// listener is bound, then blocks serving requests.
func (s *Server) StartWithReady(ready chan<- struct{}) error {
	ln, err := net.Listen("tcp", s.cfg.Address())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return s.Serve(ln, ready)
}

// Serve serves on an already bound listener. ready, when non-nil, is closed
// before the first request is accepted.
func (s *Server) Serve(ln net.Listener, ready chan<- struct{}) error {
	s.http = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("server starting", "address", ln.Addr().String())
	if ready != nil {
		close(ready)
	}

	if err := s.http.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	timeout := time.Duration(s.cfg.Server.ShutdownTimeout) * time.Second
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.logger.Info("shutting down server", "timeout", timeout)
	return s.http.Shutdown(shutdownCtx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
