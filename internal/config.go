// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/livamd/liva/internal/models"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

var colorRe = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Config represents the application configuration.
type Config struct {
	App       ApplicationConfig `yaml:"app"`
	Vault     VaultConfig       `yaml:"vault"`
	SQLite    SQLiteConfig      `yaml:"sqlite"`
	Auth      AuthConfig        `yaml:"auth"`
	Variables VariablesConfig   `yaml:"variables"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	return c.Variables.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// VaultConfig holds the path to the Markdown vault directory.
type VaultConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// SQLiteConfig holds the path of the derived property index database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// DelimiterConfig holds the variable delimiter pair used by delimiter
// substitution and codeBlock queries.
type DelimiterConfig struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// Validate validates the delimiter configuration.
func (c *DelimiterConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Start, validation.Required),
		validation.Field(&c.End, validation.Required),
	)
}

// VariablesConfig holds the live-variables rendering settings.
type VariablesConfig struct {
	Delimiters       DelimiterConfig         `yaml:"delimiters"`
	HighlightText    bool                    `yaml:"highlight_text"`
	HighlightDynamic bool                    `yaml:"highlight_dynamic"`
	DynamicColor     string                  `yaml:"dynamic_color"`
	InlineEditing    bool                    `yaml:"inline_editing"`
	CustomFunctions  []models.CustomFunction `yaml:"custom_functions"`
}

// Validate validates the variables configuration.
func (c *VariablesConfig) Validate() error {
	if err := c.Delimiters.Validate(); err != nil {
		return err
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.DynamicColor, validation.Required, validation.Match(colorRe)),
	); err != nil {
		return err
	}
	for _, fn := range c.CustomFunctions {
		if fn.Name == "" {
			return fmt.Errorf("variables: custom function with empty name")
		}
		if !strings.Contains(fn.Code, "=>") {
			return fmt.Errorf("variables: custom function %q is not a lambda", fn.Name)
		}
	}
	return nil
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path: "./vault",
		},
		SQLite: SQLiteConfig{
			Path: "./liva.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Variables: VariablesConfig{
			Delimiters: DelimiterConfig{
				Start: "{{",
				End:   "}}",
			},
			HighlightText:    false,
			HighlightDynamic: true,
			DynamicColor:     "#ff0000",
			InlineEditing:    true,
		},
	}
}
