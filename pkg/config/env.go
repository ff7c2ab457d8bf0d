package config

import (
	"os"
	"strconv"
	"strings"
)

// Environment variable names
const (
	EnvAppMode             = "SCHEMAGATE_APP_MODE"
	EnvGatewayMode         = "SCHEMAGATE_GATEWAY_MODE"
	EnvSchemaDir           = "SCHEMAGATE_SCHEMA_DIR"
	EnvCachedFileLimit     = "SCHEMAGATE_CACHED_FILE_LIMIT"
	EnvFailOpen            = "SCHEMAGATE_FAIL_OPEN"
	EnvUseLayer2Config     = "SCHEMAGATE_USE_LAYER2_CONFIG"
	EnvMandateLayer2Config = "SCHEMAGATE_MANDATE_LAYER2_CONFIG"
	EnvHost                = "SCHEMAGATE_HOST"
	EnvPort                = "SCHEMAGATE_PORT"
	EnvLogLevel            = "SCHEMAGATE_LOG_LEVEL"
	EnvLogFormat           = "SCHEMAGATE_LOG_FORMAT"
	EnvLogFile             = "SCHEMAGATE_LOG_FILE"
)

// ApplyEnv overrides cfg with the environment variables that are set.
// Unparsable numbers and booleans are ignored.
func ApplyEnv(cfg *Config) {
	if v := os.Getenv(EnvAppMode); v != "" {
		cfg.App.Mode = v
	}
	if v := os.Getenv(EnvGatewayMode); v != "" {
		cfg.App.Gateway.Mode = v
	}
	if v := os.Getenv(EnvSchemaDir); v != "" {
		cfg.App.SchemaDir = v
	}
	if v := os.Getenv(EnvCachedFileLimit); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.App.OpenAPIValidator.CachedFileLimit = n
		}
	}
	if b, ok := envBool(EnvFailOpen); ok {
		cfg.App.OpenAPIValidator.FailOpen = b
	}
	if b, ok := envBool(EnvUseLayer2Config); ok {
		cfg.App.UseLayer2Config = b
	}
	if b, ok := envBool(EnvMandateLayer2Config); ok {
		cfg.App.MandateLayer2Config = b
	}
	if v := os.Getenv(EnvHost); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		cfg.Log.File = v
	}
}

func envBool(name string) (value, ok bool) {
	switch strings.ToLower(os.Getenv(name)) {
	case "true", "1", "yes":
		return true, true
	case "false", "0", "no":
		return false, true
	default:
		return false, false
	}
}
