package cli

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/devineonline/smsbroadcast"
	"github.com/devineonline/smsbroadcast/internal/config"
	"github.com/devineonline/smsbroadcast/internal/testutil"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// syncBuffer is a bytes.Buffer safe for concurrent writers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// resetFlags restores every flag to its default so tests sharing rootCmd
// do not leak state into each other.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	return runCLIContext(t, context.Background(), args...)
}

func runCLIContext(t *testing.T, ctx context.Context, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)
	var stdout, stderr syncBuffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()
	err := rootCmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

// tempConfig returns a config path inside a temp dir so tests never read
// a smsb.toml from the working directory.
func tempConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "smsb.toml")
}

type fakeGateway struct {
	*httptest.Server
	mu     sync.Mutex
	reply  string
	status int
	calls  []url.Values
}

func newFakeGateway(t *testing.T, reply string) *fakeGateway {
	t.Helper()
	g := &fakeGateway{reply: reply, status: http.StatusOK}
	g.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		g.mu.Lock()
		g.calls = append(g.calls, r.URL.Query())
		status, reply := g.status, g.reply
		g.mu.Unlock()
		w.WriteHeader(status)
		io.WriteString(w, reply)
	}))
	t.Cleanup(g.Close)

	t.Setenv("SMSB_USERNAME", "user")
	t.Setenv("SMSB_PASSWORD", "pass")
	t.Setenv("SMSB_SENDER", "0412345678")
	t.Setenv("SMSB_ENDPOINT", g.URL+"/api-adv.php")
	return g
}

func (g *fakeGateway) Calls() []url.Values {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]url.Values(nil), g.calls...)
}

func clearGatewayEnv(t *testing.T) {
	for _, k := range []string{"SMSB_USERNAME", "SMSB_PASSWORD", "SMSB_SENDER", "SMSB_ENDPOINT"} {
		t.Setenv(k, "")
	}
}

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3", "abc123", "2026-01-01")
	defer SetVersion("dev", "none", "unknown")
	testutil.Equal(t, "1.2.3", buildVersion)
	testutil.Equal(t, "abc123", buildCommit)
	testutil.Equal(t, "2026-01-01", buildDate)
}

func TestVersionCommand(t *testing.T) {
	SetVersion("0.1.0", "deadbeef", "2026-02-07")
	defer SetVersion("dev", "none", "unknown")

	out, _, err := runCLI(t, "version")
	testutil.NoError(t, err)
	testutil.Contains(t, out, "smsb 0.1.0")
	testutil.Contains(t, out, "deadbeef")

	out, _, err = runCLI(t, "version", "--json")
	testutil.NoError(t, err)
	var v map[string]string
	testutil.NoError(t, json.Unmarshal([]byte(out), &v))
	testutil.Equal(t, "0.1.0", v["version"])
	testutil.Equal(t, "2026-02-07", v["date"])
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	want := []string{"send", "send-many", "balance", "serve", "config", "version"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		testutil.True(t, registered[name], "missing subcommand %s", name)
	}
}

func TestHelpDoesNotError(t *testing.T) {
	out, _, err := runCLI(t, "--help")
	testutil.NoError(t, err)
	testutil.Contains(t, out, "send-many")
}

func TestSendCommand(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:12345\n")

	out, _, err := runCLI(t, "send", "+61412345678", "hello there", "--config", tempConfig(t))
	testutil.NoError(t, err)
	testutil.Contains(t, out, "0412345678")
	testutil.Contains(t, out, "12345")
	testutil.Contains(t, out, "1 sent, 0 rejected")

	calls := g.Calls()
	testutil.SliceLen(t, calls, 1)
	testutil.Equal(t, "0412345678", calls[0].Get("to"))
	testutil.Equal(t, "hello there", calls[0].Get("message"))
	testutil.Equal(t, "0412345678", calls[0].Get("from"))
	testutil.Equal(t, "user", calls[0].Get("username"))
	testutil.Equal(t, "5", calls[0].Get("maxsplit"))
	testutil.Equal(t, "", calls[0].Get("ref"))
}

func TestSendCommandJSONWithAutoRef(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:12345\n")

	out, _, err := runCLI(t, "send", "0412345678", "hi", "--auto-ref", "--json", "--config", tempConfig(t))
	testutil.NoError(t, err)

	var res struct {
		To      string `json:"to"`
		Success bool   `json:"success"`
		SMSRef  string `json:"smsref"`
		Ref     string `json:"ref"`
	}
	testutil.NoError(t, json.Unmarshal([]byte(out), &res))
	testutil.True(t, res.Success)
	testutil.Equal(t, "12345", res.SMSRef)
	testutil.Equal(t, smsbroadcast.RefLength, len(res.Ref))
	testutil.Equal(t, res.Ref, g.Calls()[0].Get("ref"))
}

func TestSendCommandFlags(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:12345\n")

	_, _, err := runCLI(t, "send", "0412345678", "hi",
		"--sender", "ACME", "--ref", "order42", "--max-split", "2", "--config", tempConfig(t))
	testutil.NoError(t, err)

	call := g.Calls()[0]
	testutil.Equal(t, "ACME", call.Get("from"))
	testutil.Equal(t, "order42", call.Get("ref"))
	testutil.Equal(t, "2", call.Get("maxsplit"))
}

func TestSendCommandConfigMaxSplit(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:12345\n")
	t.Setenv("SMSB_MAX_SPLIT", "3")

	_, _, err := runCLI(t, "send", "0412345678", "hi", "--config", tempConfig(t))
	testutil.NoError(t, err)
	testutil.Equal(t, "3", g.Calls()[0].Get("maxsplit"))
}

func TestSendRefAndAutoRefExclusive(t *testing.T) {
	newFakeGateway(t, "OK: 0412345678:1\n")

	_, _, err := runCLI(t, "send", "0412345678", "hi", "--ref", "a", "--auto-ref", "--config", tempConfig(t))
	testutil.ErrorContains(t, err, "auto-ref")
}

func TestSendCommandRejected(t *testing.T) {
	newFakeGateway(t, "BAD:0412345678:Invalid Number\n")

	out, _, err := runCLI(t, "send", "0412345678", "hi", "--config", tempConfig(t))
	testutil.ErrorIs(t, err, smsbroadcast.ErrSend)
	testutil.Contains(t, out, "rejected")
	testutil.Contains(t, out, "Invalid Number")
}

func TestSendCommandValidationMakesNoRequest(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:1\n")

	_, _, err := runCLI(t, "send", "123", "hi", "--config", tempConfig(t))
	testutil.ErrorIs(t, err, smsbroadcast.ErrInvalidNumber)
	testutil.Equal(t, "Message to number `123` is invalid", err.Error())
	testutil.SliceLen(t, g.Calls(), 0)
}

func TestSendCommandMissingCredentials(t *testing.T) {
	clearGatewayEnv(t)

	_, _, err := runCLI(t, "send", "0412345678", "hi", "--config", tempConfig(t))
	testutil.ErrorIs(t, err, config.ErrMissingCredentials)
	testutil.True(t, len(Hints(err)) > 0)
}

func TestSendCommandEnvFile(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:12345\n")
	t.Setenv("SMSB_PASSWORD", "")
	os.Unsetenv("SMSB_PASSWORD")

	envFile := filepath.Join(t.TempDir(), ".env")
	testutil.NoError(t, os.WriteFile(envFile, []byte("SMSB_PASSWORD=fromdotenv\nSMSB_USERNAME=ignored\n"), 0o600))

	_, _, err := runCLI(t, "send", "0412345678", "hi", "--env-file", envFile, "--config", tempConfig(t))
	testutil.NoError(t, err)

	calls := g.Calls()
	testutil.SliceLen(t, calls, 1)
	testutil.Equal(t, "fromdotenv", calls[0].Get("password"))
	testutil.Equal(t, "user", calls[0].Get("username"))
}

func TestSendCommandDryRun(t *testing.T) {
	clearGatewayEnv(t)

	out, stderr, err := runCLI(t, "send", "0412345678", "hi", "--dry-run", "--sender", "ACME", "--config", tempConfig(t))
	testutil.NoError(t, err)
	testutil.Contains(t, out, "dryrun1")
	testutil.Contains(t, stderr, "smsbroadcast.LogTransport")
	testutil.False(t, strings.Contains(stderr, "password"), "dry run must not log the password")
}

func TestSendCommandGatewayHTTPError(t *testing.T) {
	g := newFakeGateway(t, "maintenance")
	g.mu.Lock()
	g.status = http.StatusServiceUnavailable
	g.mu.Unlock()

	_, _, err := runCLI(t, "send", "0412345678", "hi", "--config", tempConfig(t))
	var statusErr *smsbroadcast.StatusError
	testutil.True(t, errors.As(err, &statusErr), "expected StatusError, got %v", err)
	testutil.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	testutil.True(t, len(Hints(err)) > 0)
}

func TestSendManyCommandCSV(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:111\nBAD:0498765432:Invalid Number\n")

	out, _, err := runCLI(t, "send-many", "+61412345678, 0498765432", "hi", "--output", "csv", "--config", tempConfig(t))
	testutil.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	testutil.NoError(t, err)
	testutil.SliceLen(t, records, 3)
	testutil.Equal(t, "to,success,smsref,error", strings.Join(records[0], ","))
	testutil.Equal(t, "0412345678,true,111,", strings.Join(records[1], ","))
	testutil.Equal(t, "0498765432,false,,Invalid Number", strings.Join(records[2], ","))

	testutil.Equal(t, "0412345678,0498765432", g.Calls()[0].Get("to"))
}

func TestSendManyCommandTable(t *testing.T) {
	newFakeGateway(t, "OK: 0412345678:111\nBAD:0498765432:Invalid Number\n")

	out, _, err := runCLI(t, "send-many", "0412345678,0498765432", "hi", "--config", tempConfig(t))
	testutil.NoError(t, err)
	testutil.Contains(t, out, "SMS Ref")
	testutil.Contains(t, out, "1 sent, 1 rejected")
}

func TestSendManyCommandEmptyEntry(t *testing.T) {
	g := newFakeGateway(t, "OK: 0412345678:111\n")

	_, _, err := runCLI(t, "send-many", "0412345678,,", "hi", "--config", tempConfig(t))
	testutil.ErrorIs(t, err, smsbroadcast.ErrInvalidNumber)
	testutil.SliceLen(t, g.Calls(), 0)
}

func TestBalanceCommand(t *testing.T) {
	newFakeGateway(t, "OK: 99")
	cfgPath := tempConfig(t)

	out, _, err := runCLI(t, "balance", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Equal(t, "99 credits\n", out)

	out, _, err = runCLI(t, "balance", "--json", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Equal(t, "{\"balance\":99}\n", out)

	out, _, err = runCLI(t, "balance", "--output", "csv", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Equal(t, "balance\n99\n", out)
}

func TestBalanceCommandError(t *testing.T) {
	newFakeGateway(t, "ERROR: Username or password is incorrect")

	_, _, err := runCLI(t, "balance", "--config", tempConfig(t))
	testutil.ErrorContains(t, err, "Failed to get balance with error `Username or password is incorrect`")
}

func TestConfigCommandProducesValidTOML(t *testing.T) {
	clearGatewayEnv(t)
	t.Setenv("SMSB_PASSWORD", "hunter2")

	out, _, err := runCLI(t, "config", "--config", tempConfig(t))
	testutil.NoError(t, err)

	var parsed map[string]any
	testutil.NoError(t, toml.Unmarshal([]byte(out), &parsed))
	testutil.NotNil(t, parsed["gateway"])
	testutil.False(t, strings.Contains(out, "hunter2"), "password leaked")
}

func TestConfigCommandJSON(t *testing.T) {
	clearGatewayEnv(t)

	out, _, err := runCLI(t, "config", "--json", "--config", tempConfig(t))
	testutil.NoError(t, err)

	var cfg config.Config
	testutil.NoError(t, json.Unmarshal([]byte(out), &cfg))
	testutil.Equal(t, 8095, cfg.Server.Port)
}

func TestConfigSetAndGet(t *testing.T) {
	clearGatewayEnv(t)
	cfgPath := tempConfig(t)

	out, _, err := runCLI(t, "config", "set", "gateway.sender", "ACME", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Contains(t, out, "gateway.sender = ACME")

	out, _, err = runCLI(t, "config", "set", "gateway.password", "hunter2", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.False(t, strings.Contains(out, "hunter2"), "password echoed")

	out, _, err = runCLI(t, "config", "get", "gateway.sender", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Equal(t, "ACME\n", out)

	out, _, err = runCLI(t, "config", "get", "gateway.password", "--json", "--config", cfgPath)
	testutil.NoError(t, err)
	testutil.Contains(t, out, "********")
}

func TestConfigSetUnknownKey(t *testing.T) {
	_, _, err := runCLI(t, "config", "set", "auth.enabled", "true", "--config", tempConfig(t))
	testutil.ErrorContains(t, err, "unknown configuration key")
}

func TestConfigSetWarnsOnInvalidValue(t *testing.T) {
	clearGatewayEnv(t)

	_, stderr, err := runCLI(t, "config", "set", "gateway.max_split", "40", "--config", tempConfig(t))
	testutil.NoError(t, err)
	testutil.Contains(t, stderr, "Warning:")
}

func TestConfigInit(t *testing.T) {
	cfgPath := tempConfig(t)

	_, _, err := runCLI(t, "config", "init", "--config", cfgPath)
	testutil.NoError(t, err)
	_, err = os.Stat(cfgPath)
	testutil.NoError(t, err)

	_, _, err = runCLI(t, "config", "init", "--config", cfgPath)
	testutil.ErrorContains(t, err, "already exists")

	_, _, err = runCLI(t, "config", "init", "--force", "--config", cfgPath)
	testutil.NoError(t, err)
}

// freePort allocates and returns a free TCP port.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()
	return port
}

func TestServeCommand(t *testing.T) {
	newFakeGateway(t, "OK: 42")
	port := freePort(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		_, _, err := runCLIContext(t, ctx, "serve", "--host", "127.0.0.1", "--port", fmt.Sprint(port),
			"--log-level", "error", "--config", tempConfig(t))
		errCh <- err
	}()

	base := fmt.Sprintf("http://127.0.0.1:%d", port)
	var resp *http.Response
	var err error
	for range 100 {
		resp, err = http.Get(base + "/api/sms/balance")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	testutil.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	testutil.StatusCode(t, http.StatusOK, resp.StatusCode)
	testutil.Equal(t, "{\"balance\":42}\n", string(body))

	cancel()
	select {
	case err := <-errCh:
		testutil.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not shut down")
	}
}

func TestServePortInUse(t *testing.T) {
	newFakeGateway(t, "OK: 42")
	l, err := net.Listen("tcp", "127.0.0.1:0")
	testutil.NoError(t, err)
	defer l.Close()
	port := l.Addr().(*net.TCPAddr).Port

	_, _, err = runCLI(t, "serve", "--host", "127.0.0.1", "--port", fmt.Sprint(port), "--config", tempConfig(t))
	testutil.ErrorContains(t, err, "starting relay")
	testutil.True(t, len(Hints(err)) > 0)
}

func TestCommandGroupsAssigned(t *testing.T) {
	for _, c := range rootCmd.Commands() {
		switch c.Name() {
		case "send", "send-many", "balance":
			testutil.Equal(t, groupMessaging, c.GroupID)
		case "serve":
			testutil.Equal(t, groupRelay, c.GroupID)
		case "config", "version":
			testutil.Equal(t, groupConfig, c.GroupID)
		}
	}
}
