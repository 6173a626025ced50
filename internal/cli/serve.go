package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/devineonline/smsbroadcast/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP relay in front of the gateway",
	Long: `Run an HTTP relay that exposes send, send-many and balance as JSON
endpoints and accepts gateway delivery receipts.

Routes:
  GET  /health
  GET  /metrics            (when server.metrics is true)
  POST /api/sms/send
  POST /api/sms/send-many
  GET  /api/sms/balance
  GET|POST /api/webhooks/sms/status

Set server.api_key to require "Authorization: Bearer <key>" on /api/sms.
Set server.cors_allowed_origins to let browser apps call the relay.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("host", "", "Host to bind (default server.host)")
	serveCmd.Flags().Int("port", 0, "Port to listen on (default server.port)")
	serveCmd.Flags().Bool("dry-run", false, "Log sends instead of calling the gateway")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := loadApp(cmd, "host", "port")
	if err != nil {
		return err
	}
	logger := a.logger

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	srv := server.New(a.cfg, logger, a.client)

	ready := make(chan struct{})
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.StartWithReady(ready)
	}()

	select {
	case <-ready:
		fmt.Fprintf(cmd.ErrOrStderr(), "  smsb relay listening on http://%s\n", a.cfg.Address())
	case err := <-errCh:
		return fmt.Errorf("starting relay on %s: %w", a.cfg.Address(), err)
	}

	ctx := cmd.Context()
	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.Info("received signal, shutting down", "signal", sig)
		signal.Stop(sigCh) // Second Ctrl-C triggers Go default (immediate exit).
	case <-ctx.Done():
		logger.Info("context canceled, shutting down")
	}

	if err := srv.Shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Error("shutdown error", "error", err)
		return err
	}
	return <-errCh
}
