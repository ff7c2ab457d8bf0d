package config

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Defaults.
const (
	DefaultSchemaDir       = "schemas"
	DefaultCachedFileLimit = 5
	DefaultPort            = 5001
	DefaultReadTimeout     = 30 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the root gateway configuration.
type Config struct {
	App    AppConfig    `yaml:"app"`
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
}

// AppConfig configures the protocol server and its schema validation.
type AppConfig struct {
	// Mode is the protocol server role, e.g. "bap" or "bpp".
	Mode    string        `yaml:"mode"`
	Gateway GatewayConfig `yaml:"gateway"`

	// SchemaDir is the directory holding the OpenAPI schema documents.
	SchemaDir string `yaml:"schemaDir"`

	OpenAPIValidator OpenAPIValidatorConfig `yaml:"openAPIValidator"`

	// UseLayer2Config enables domain-qualified schema lookup.
	UseLayer2Config bool `yaml:"useLayer2Config"`
	// MandateLayer2Config rejects requests whose domain schema is not installed.
	MandateLayer2Config bool `yaml:"mandateLayer2Config"`
}

// GatewayConfig holds the gateway side of the protocol server level.
type GatewayConfig struct {
	// Mode is e.g. "client" or "network".
	Mode string `yaml:"mode"`
}

// OpenAPIValidatorConfig configures the validator cache.
type OpenAPIValidatorConfig struct {
	// CachedFileLimit bounds the validator cache and the startup preload.
	CachedFileLimit int `yaml:"cachedFileLimit"`

	// FailOpen lets requests through when their schema cannot be compiled.
	// Off by default: such requests are rejected with a 500.
	FailOpen bool `yaml:"failOpen"`

	// CheckSecurity rejects requests that do not send the credentials their
	// operation's security requirements name.
	CheckSecurity bool `yaml:"checkSecurity"`
	// ExcludeRequestBody skips request body validation.
	ExcludeRequestBody bool `yaml:"excludeRequestBody"`
	// SingleStep validates each request in one pass instead of one step
	// per stage.
	SingleStep bool `yaml:"singleStep"`
}

// ServerConfig configures the HTTP listener used by "schemagate serve".
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"readTimeout"`
	WriteTimeout    time.Duration `yaml:"writeTimeout"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	// File, when set, receives a JSON copy of every log record.
	File string `yaml:"file"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills zero values with defaults.
func (c *Config) ApplyDefaults() {
	if c.App.SchemaDir == "" {
		c.App.SchemaDir = DefaultSchemaDir
	}
	// A non-positive limit means "unset", like the historical `|| 5`.
	if c.App.OpenAPIValidator.CachedFileLimit <= 0 {
		c.App.OpenAPIValidator.CachedFileLimit = DefaultCachedFileLimit
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultWriteTimeout
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// ProtocolServerLevel returns the label errors are tagged with,
// e.g. "BAP-CLIENT" for app.mode=bap and app.gateway.mode=client.
func (c *Config) ProtocolServerLevel() string {
	upper := cases.Upper(language.Und)
	return upper.String(strings.TrimSpace(c.App.Mode)) + "-" + upper.String(strings.TrimSpace(c.App.Gateway.Mode))
}
