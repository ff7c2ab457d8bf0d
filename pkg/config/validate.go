package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a single config validation error.
type ValidationError struct {
	Path    string // Config path, e.g., "server.port"
	Message string
}

func (e ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Message)
	}
	return e.Message
}

// ValidationResult contains all validation errors for a Config.
type ValidationResult struct {
	Errors []ValidationError
}

// IsValid returns true if there are no validation errors.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// Error returns a combined error message.
func (r *ValidationResult) Error() string {
	msgs := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "\n")
}

// AddError adds a validation error.
func (r *ValidationResult) AddError(path, message string) {
	r.Errors = append(r.Errors, ValidationError{Path: path, Message: message})
}

// Validate checks a defaulted Config.
func (c *Config) Validate() *ValidationResult {
	result := &ValidationResult{}

	if strings.TrimSpace(c.App.Mode) == "" {
		result.AddError("app.mode", "required")
	}
	if strings.TrimSpace(c.App.Gateway.Mode) == "" {
		result.AddError("app.gateway.mode", "required")
	}
	if c.App.SchemaDir == "" {
		result.AddError("app.schemaDir", "required")
	}
	if c.App.OpenAPIValidator.CachedFileLimit <= 0 {
		result.AddError("app.openAPIValidator.cachedFileLimit", "must be positive")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		result.AddError("server.port", fmt.Sprintf("invalid port %d", c.Server.Port))
	}

	return result
}
