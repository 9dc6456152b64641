package runtimeconfig

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// EnvPrefix is prepended to every environment variable read by LoadEnv.
const EnvPrefix = "EDITORIAL_"

// MinAuthSecretLength is the shortest accepted HS256 signing secret.
const MinAuthSecretLength = 32

var (
	ErrStorageDriverUnknown = errors.New("editorial config: storage driver is invalid")
	ErrStorageDSNRequired   = errors.New("editorial config: storage dsn is required for sql drivers")
	ErrStorageMaxConns      = errors.New("editorial config: storage max open connections must be zero or positive")

	ErrLoggingProviderRequired = errors.New("editorial config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown  = errors.New("editorial config: logging provider is invalid")
	ErrLoggingLevelInvalid     = errors.New("editorial config: logging level is invalid")
	ErrLoggingFormatInvalid    = errors.New("editorial config: logging format is invalid")

	ErrAuthSecretTooShort = errors.New("editorial config: auth secret must be at least 32 bytes")
	ErrHTTPAddrRequired   = errors.New("editorial config: http address is required")

	ErrTelemetryServiceNameRequired = errors.New("editorial config: telemetry service name is required when telemetry is enabled")
	ErrActivityChannelRequired      = errors.New("editorial config: activity channel is required when activity is enabled")
)

// Config aggregates the settings for the editorial module. Every field can be
// overridden through EDITORIAL_* environment variables.
type Config struct {
	Workflow  WorkflowConfig  `envPrefix:"WORKFLOW_"`
	Storage   StorageConfig   `envPrefix:"STORAGE_"`
	Logging   LoggingConfig   `envPrefix:"LOG_"`
	Auth      AuthConfig      `envPrefix:"AUTH_"`
	HTTP      HTTPConfig      `envPrefix:"HTTP_"`
	Telemetry TelemetryConfig `envPrefix:"TELEMETRY_"`
	Activity  ActivityConfig  `envPrefix:"ACTIVITY_"`
	Features  Features        `envPrefix:"FEATURE_"`
}

// WorkflowConfig selects the resolution of the open policy choices in the
// transition pipeline.
type WorkflowConfig struct {
	// AuthorizeFirst checks the permission matrix before legality, hiding the
	// item's state from callers who may not act on it.
	AuthorizeFirst bool `env:"AUTHORIZE_FIRST"`
	// EnforceOwnership restricts Submit by editors to items they own.
	EnforceOwnership bool `env:"ENFORCE_OWNERSHIP"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver       string `env:"DRIVER"`
	DSN          string `env:"DSN"`
	MaxOpenConns int    `env:"MAX_OPEN_CONNS"`
	AutoMigrate  bool   `env:"AUTO_MIGRATE"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `env:"PROVIDER"`
	Level     string   `env:"LEVEL"`
	Format    string   `env:"FORMAT"`
	AddSource bool     `env:"ADD_SOURCE"`
	Focus     []string `env:"FOCUS"`
}

// AuthConfig configures bearer token verification.
type AuthConfig struct {
	Secret   string `env:"SECRET"`
	Issuer   string `env:"ISSUER"`
	Audience string `env:"AUDIENCE"`
}

// HTTPConfig configures the bundled HTTP server.
type HTTPConfig struct {
	Addr              string        `env:"ADDR"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT"`
}

// TelemetryConfig configures the OTLP trace exporter.
type TelemetryConfig struct {
	Endpoint    string `env:"ENDPOINT"`
	ServiceName string `env:"SERVICE_NAME"`
}

// ActivityConfig configures post-commit activity records.
type ActivityConfig struct {
	Channel string `env:"CHANNEL"`
}

// Features toggles optional module functionality.
type Features struct {
	Logger    bool `env:"LOGGER"`
	Commands  bool `env:"COMMANDS"`
	Activity  bool `env:"ACTIVITY"`
	Telemetry bool `env:"TELEMETRY"`
}

// DefaultConfig returns in-memory defaults suitable for tests and local runs.
func DefaultConfig() Config {
	return Config{
		Storage: StorageConfig{
			Driver:      StorageDriverMemory,
			AutoMigrate: true,
		},
		Logging: LoggingConfig{
			Provider: "gologger",
			Level:    "info",
			Format:   "json",
		},
		HTTP: HTTPConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
		},
		Telemetry: TelemetryConfig{
			ServiceName: "editorial",
		},
		Activity: ActivityConfig{
			Channel: "editorial",
		},
	}
}

// LoadEnv overlays EDITORIAL_* environment variables on base. Variables that
// are unset leave the base value untouched.
func LoadEnv(base Config) (Config, error) {
	return loadEnv(base, env.Options{Prefix: EnvPrefix})
}

// LoadEnvFrom behaves like LoadEnv but reads from the provided map instead of
// the process environment.
func LoadEnvFrom(base Config, vars map[string]string) (Config, error) {
	return loadEnv(base, env.Options{Prefix: EnvPrefix, Environment: vars})
}

func loadEnv(base Config, opts env.Options) (Config, error) {
	cfg := base
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return base, fmt.Errorf("editorial config: parse env: %w", err)
	}
	return cfg, nil
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	switch normalize(cfg.Storage.Driver) {
	case StorageDriverMemory:
	case StorageDriverSQLite, StorageDriverPostgres:
		if strings.TrimSpace(cfg.Storage.DSN) == "" {
			return fmt.Errorf("%w: %s", ErrStorageDSNRequired, normalize(cfg.Storage.Driver))
		}
	default:
		return fmt.Errorf("%w: %q", ErrStorageDriverUnknown, cfg.Storage.Driver)
	}
	if cfg.Storage.MaxOpenConns < 0 {
		return ErrStorageMaxConns
	}
	if secret := cfg.Auth.Secret; secret != "" && len(secret) < MinAuthSecretLength {
		return ErrAuthSecretTooShort
	}
	if strings.TrimSpace(cfg.HTTP.Addr) == "" {
		return ErrHTTPAddrRequired
	}
	if cfg.Features.Telemetry && strings.TrimSpace(cfg.Telemetry.ServiceName) == "" {
		return ErrTelemetryServiceNameRequired
	}
	if cfg.Features.Activity && strings.TrimSpace(cfg.Activity.Channel) == "" {
		return ErrActivityChannelRequired
	}
	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// StorageDriver returns the normalised driver name.
func (cfg StorageConfig) StorageDriver() string {
	return normalize(cfg.Driver)
}

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
