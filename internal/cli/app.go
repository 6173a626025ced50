package cli

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/cli/ui"
	"github.com/devineonline/smsbroadcast/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// app is the per-invocation state shared by gateway commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	client *smsbroadcast.Client
}

// loadApp resolves configuration, builds the logger and constructs a client.
// With --dry-run the client logs requests instead of calling the gateway and
// credentials are not required.
func loadApp(cmd *cobra.Command, flagNames ...string) (*app, error) {
	cfg, err := loadConfig(cmd, flagNames...)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())

	var transport smsbroadcast.Transport
	if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
		transport = smsbroadcast.NewLogTransport(logger)
	} else {
		if err := cfg.RequireCredentials(); err != nil {
			return nil, err
		}
		transport = smsbroadcast.NewHTTPTransport(&http.Client{Timeout: cfg.GatewayTimeout()})
	}

	client := smsbroadcast.NewClient(transport, smsbroadcast.Config{
		Username: cfg.Gateway.Username,
		Password: cfg.Gateway.Password,
		Sender:   cfg.Gateway.Sender,
		Endpoint: cfg.Gateway.Endpoint,
		Logger:   logger,
	})
	return &app{cfg: cfg, logger: logger, client: client}, nil
}

func loadConfig(cmd *cobra.Command, flagNames ...string) (*config.Config, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	if err := config.LoadEnvFile(envFile); err != nil {
		return nil, err
	}
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath, changedFlags(cmd.Flags(), append(flagNames, "log-level")...))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// changedFlags returns the values of the named flags the user set explicitly.
func changedFlags(fs *pflag.FlagSet, names ...string) map[string]string {
	out := make(map[string]string)
	for _, name := range names {
		if f := fs.Lookup(name); f != nil && f.Changed {
			out[name] = f.Value.String()
		}
	}
	return out
}

// progress returns a spinner on stderr for table output. JSON and CSV runs
// get a silent spinner.
func (a *app) progress(cmd *cobra.Command) *ui.StepSpinner {
	if outputFormat(cmd) != "table" {
		return ui.NewStepSpinner(nil, true)
	}
	w := cmd.ErrOrStderr()
	f, ok := w.(*os.File)
	return ui.NewStepSpinner(w, !ok || !ui.IsTerminal(f.Fd()))
}

// sendOptions builds client options from the shared send flags. Flags the
// user did not set fall back to the config.
func (a *app) sendOptions(cmd *cobra.Command) []smsbroadcast.SendOption {
	maxSplit := a.cfg.Gateway.MaxSplit
	if f := cmd.Flags().Lookup("max-split"); f != nil && f.Changed {
		maxSplit, _ = cmd.Flags().GetInt("max-split")
	}
	opts := []smsbroadcast.SendOption{smsbroadcast.WithMaxSplit(maxSplit)}
	if f := cmd.Flags().Lookup("sender"); f != nil && f.Changed {
		opts = append(opts, smsbroadcast.WithSender(f.Value.String()))
	}
	return opts
}

// newLogger creates a logger writing to w at the configured level.
func newLogger(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseSlogLevel(level)}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseSlogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// localNumbers converts +61 input to local form. Anything unconvertible is
// kept as typed so validation reports the original text.
func localNumbers(in []string) []string {
	out := make([]string, len(in))
	for i, n := range in {
		if local, err := smsbroadcast.LocalNumber(n); err == nil {
			out[i] = local
		} else {
			out[i] = n
		}
	}
	return out
}
