package editorial

import "github.com/goliatone/go-editorial/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown         = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired           = runtimeconfig.ErrStorageDSNRequired
	ErrLoggingProviderRequired      = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown       = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid          = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid         = runtimeconfig.ErrLoggingFormatInvalid
	ErrAuthSecretTooShort           = runtimeconfig.ErrAuthSecretTooShort
	ErrHTTPAddrRequired             = runtimeconfig.ErrHTTPAddrRequired
	ErrTelemetryServiceNameRequired = runtimeconfig.ErrTelemetryServiceNameRequired
)

type (
	Config          = runtimeconfig.Config
	WorkflowConfig  = runtimeconfig.WorkflowConfig
	StorageConfig   = runtimeconfig.StorageConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	AuthConfig      = runtimeconfig.AuthConfig
	HTTPConfig      = runtimeconfig.HTTPConfig
	TelemetryConfig = runtimeconfig.TelemetryConfig
	ActivityConfig  = runtimeconfig.ActivityConfig
	Features        = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadEnv overlays EDITORIAL_* environment variables onto base.
func LoadEnv(base Config) (Config, error) {
	return runtimeconfig.LoadEnv(base)
}
