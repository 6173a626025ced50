package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "smsb.toml"

// DefaultEnvFile is the dotenv file read before environment overrides.
const DefaultEnvFile = ".env"

// Config is the top-level smsb configuration.
type Config struct {
	Gateway GatewayConfig `toml:"gateway"`
	Server  ServerConfig  `toml:"server"`
	Logging LoggingConfig `toml:"logging"`
}

// GatewayConfig holds SMS Broadcast account credentials and send defaults.
type GatewayConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Sender   string `toml:"sender"`   // default sender id
	Endpoint string `toml:"endpoint"` // empty means the production API
	Timeout  int    `toml:"timeout"`  // seconds
	MaxSplit int    `toml:"max_split"`
}

type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	APIKey          string `toml:"api_key"` // bearer token required on /api when set
	ShutdownTimeout int    `toml:"shutdown_timeout"`
	Metrics         bool   `toml:"metrics"` // serve /metrics

	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Timeout:  30,
			MaxSplit: 5,
		},
		Server: ServerConfig{
			Host:            "127.0.0.1",
			Port:            8095,
			ShutdownTimeout: 10,
			Metrics:         true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration with priority: defaults → smsb.toml → env vars → CLI flags.
func Load(configPath string, flags map[string]string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		configPath = DefaultPath
	}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	applyFlags(cfg, flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for invalid values. Credentials are not
// required here; commands that talk to the gateway check them with RequireCredentials.
func (c *Config) Validate() error {
	if c.Gateway.Timeout < 1 {
		return fmt.Errorf("gateway.timeout must be at least 1, got %d", c.Gateway.Timeout)
	}
	if c.Gateway.MaxSplit < 1 || c.Gateway.MaxSplit > 10 {
		return fmt.Errorf("gateway.max_split must be between 1 and 10, got %d", c.Gateway.MaxSplit)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("server.shutdown_timeout must be non-negative, got %d", c.Server.ShutdownTimeout)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}
	return nil
}

// LoadEnvFile exports the variables in a dotenv file. Variables already set
// in the environment win. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// ErrMissingCredentials is wrapped by RequireCredentials.
var ErrMissingCredentials = errors.New("missing gateway credentials")

// RequireCredentials reports missing gateway credentials.
func (c *Config) RequireCredentials() error {
	if c.Gateway.Username == "" {
		return fmt.Errorf("%w: gateway.username is required (set it in %s or SMSB_USERNAME)", ErrMissingCredentials, DefaultPath)
	}
	if c.Gateway.Password == "" {
		return fmt.Errorf("%w: gateway.password is required (set it in %s or SMSB_PASSWORD)", ErrMissingCredentials, DefaultPath)
	}
	return nil
}

// Address returns the host:port string for the relay server to listen on.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// GatewayTimeout returns the per-request HTTP timeout.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.Timeout) * time.Second
}

// GenerateDefault writes a commented default smsb.toml to the given path.
func GenerateDefault(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(defaultTOML), 0o600)
}

// ToTOML returns the config serialized as TOML with the password masked.
func (c *Config) ToTOML() (string, error) {
	data, err := toml.Marshal(c.Redacted())
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Redacted returns a copy with secrets replaced by a mask.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Gateway.Password != "" {
		out.Gateway.Password = redactedMask
	}
	if out.Server.APIKey != "" {
		out.Server.APIKey = redactedMask
	}
	return &out
}

const redactedMask = "********"

// envInt reads an integer from the named environment variable.
// Returns an error if the value is set but not a valid integer.
func envInt(name string, dest *int) error {
	v := os.Getenv(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %q is not an integer", name, v)
	}
	*dest = n
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("SMSB_USERNAME"); v != "" {
		cfg.Gateway.Username = v
	}
	if v := os.Getenv("SMSB_PASSWORD"); v != "" {
		cfg.Gateway.Password = v
	}
	if v := os.Getenv("SMSB_SENDER"); v != "" {
		cfg.Gateway.Sender = v
	}
	if v := os.Getenv("SMSB_ENDPOINT"); v != "" {
		cfg.Gateway.Endpoint = v
	}
	if err := envInt("SMSB_TIMEOUT", &cfg.Gateway.Timeout); err != nil {
		return err
	}
	if err := envInt("SMSB_MAX_SPLIT", &cfg.Gateway.MaxSplit); err != nil {
		return err
	}
	if v := os.Getenv("SMSB_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if err := envInt("SMSB_SERVER_PORT", &cfg.Server.Port); err != nil {
		return err
	}
	if v := os.Getenv("SMSB_SERVER_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("SMSB_SERVER_METRICS"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid value for SMSB_SERVER_METRICS: %q is not a boolean", v)
		}
		cfg.Server.Metrics = b
	}
	if v := os.Getenv("SMSB_SERVER_CORS_ORIGINS"); v != "" {
		cfg.Server.CORSAllowedOrigins = splitList(v)
	}
	if v := os.Getenv("SMSB_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SMSB_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	return nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func applyFlags(cfg *Config, flags map[string]string) {
	if flags == nil {
		return
	}
	if v, ok := flags["username"]; ok && v != "" {
		cfg.Gateway.Username = v
	}
	if v, ok := flags["password"]; ok && v != "" {
		cfg.Gateway.Password = v
	}
	if v, ok := flags["sender"]; ok && v != "" {
		cfg.Gateway.Sender = v
	}
	if v, ok := flags["port"]; ok && v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v, ok := flags["host"]; ok && v != "" {
		cfg.Server.Host = v
	}
	if v, ok := flags["log-level"]; ok && v != "" {
		cfg.Logging.Level = v
	}
}

// validKeys is the complete set of dot-separated config keys.
var validKeys = map[string]bool{
	"gateway.username": true, "gateway.password": true, "gateway.sender": true,
	"gateway.endpoint": true, "gateway.timeout": true, "gateway.max_split": true,
	"server.host": true, "server.port": true, "server.api_key": true,
	"server.shutdown_timeout": true, "server.metrics": true, "server.cors_allowed_origins": true,
	"logging.level": true, "logging.format": true,
}

// IsValidKey returns true if the dotted key is a recognized config key.
func IsValidKey(key string) bool {
	return validKeys[key]
}

// GetValue returns the value for a dotted config key (e.g. "server.port").
// Secrets are returned masked.
func GetValue(cfg *Config, key string) (any, error) {
	cfg = cfg.Redacted()
	switch key {
	case "gateway.username":
		return cfg.Gateway.Username, nil
	case "gateway.password":
		return cfg.Gateway.Password, nil
	case "gateway.sender":
		return cfg.Gateway.Sender, nil
	case "gateway.endpoint":
		return cfg.Gateway.Endpoint, nil
	case "gateway.timeout":
		return cfg.Gateway.Timeout, nil
	case "gateway.max_split":
		return cfg.Gateway.MaxSplit, nil
	case "server.host":
		return cfg.Server.Host, nil
	case "server.port":
		return cfg.Server.Port, nil
	case "server.api_key":
		return cfg.Server.APIKey, nil
	case "server.shutdown_timeout":
		return cfg.Server.ShutdownTimeout, nil
	case "server.metrics":
		return cfg.Server.Metrics, nil
	case "server.cors_allowed_origins":
		return cfg.Server.CORSAllowedOrigins, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	default:
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
}

// SetValue reads the existing TOML file, updates a single key, and writes it back.
// Creates the file with just the key if it doesn't exist.
func SetValue(configPath, key, value string) error {
	var data map[string]any
	if raw, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("parsing %s: %w", configPath, err)
		}
	}
	if data == nil {
		data = make(map[string]any)
	}

	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid key format: %s (expected section.field)", key)
	}
	section, field := parts[0], parts[1]

	sectionMap, ok := data[section].(map[string]any)
	if !ok {
		sectionMap = make(map[string]any)
		data[section] = sectionMap
	}
	sectionMap[field] = coerceValue(key, value)

	out, err := toml.Marshal(data)
	if err != nil {
		return fmt.Errorf("serializing config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	// The file holds credentials.
	return os.WriteFile(configPath, out, 0o600)
}

// coerceValue converts a string value to the appropriate Go type for TOML serialization.
func coerceValue(key, value string) any {
	switch key {
	case "gateway.timeout", "gateway.max_split", "server.port", "server.shutdown_timeout":
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	case "server.metrics":
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	case "server.cors_allowed_origins":
		return splitList(value)
	}
	return value
}

const defaultTOML = `# smsb configuration

[gateway]
# SMS Broadcast account credentials. Prefer SMSB_USERNAME / SMSB_PASSWORD
# in shared environments.
# username = ""
# password = ""

# Default sender id: up to 11 letters or digits.
# sender = "MyBrand"

# Override the API endpoint (testing only).
# endpoint = "https://api.smsbroadcast.com.au/api-adv.php"

# Seconds to wait for a gateway reply.
timeout = 30

# Maximum SMS segments a message may span.
max_split = 5

[server]
# Address for 'smsb serve'.
host = "127.0.0.1"
port = 8095

# Bearer token required on /api routes when set.
# api_key = ""

# Seconds to wait for in-flight requests during shutdown.
shutdown_timeout = 10

# Expose Prometheus metrics on /metrics.
metrics = true

# Browser origins allowed to call the relay. Empty disables CORS.
# cors_allowed_origins = ["https://app.example.com"]

[logging]
# Log level: debug, info, warn, error.
level = "info"

# Log format: json or text.
format = "text"
`
