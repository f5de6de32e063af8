// Package config loads menulink.yaml.
//
// Loading order: built-in defaults, then the YAML file (checked against
// the embedded CUE schema), then environment overrides for secrets and
// paths. Validate runs last and checks rules that span fields.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvDatabase   = "MENULINK_DB"
	EnvAddr       = "MENULINK_ADDR"
	EnvCronSecret = "MENULINK_CRON_SECRET"
	EnvResendKey  = "RESEND_API_KEY"
	EnvBrevoKey   = "BREVO_API_KEY"
)

// Provider names accepted in mail.provider and mail.fallback.
const (
	ProviderResend = "resend"
	ProviderBrevo  = "brevo"
	ProviderLog    = "log"
)

// DefaultYAML is written by `menulink init`.
const DefaultYAML = `# menulink configuration
version: 1

database:
  path: menulink.db

server:
  addr: ":8080"
  # Bearer token for POST /api/cron/dispatch-emails. Prefer MENULINK_CRON_SECRET.
  cron_secret: ""

mail:
  # resend, brevo or log. log only prints messages.
  provider: log
  # Optional second provider used when the first fails transiently.
  fallback: ""
  from_email: no-reply@menulink.app
  from_name: MenuLink
  # API keys are read from RESEND_API_KEY and BREVO_API_KEY when unset here.
  resend:
    api_key: ""
  brevo:
    api_key: ""

dispatch:
  enabled: true
  poll_interval: 1m
  batch_size: 50
  max_attempts: 5
`

// Duration is a time.Duration written as "90s", "5m" in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML writes the duration string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// DatabaseConfig locates the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr         string   `yaml:"addr"`
	CronSecret   string   `yaml:"cron_secret"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
}

// ProviderConfig holds one email provider's credentials.
type ProviderConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// MailConfig selects and configures email providers.
type MailConfig struct {
	Provider  string         `yaml:"provider"`
	Fallback  string         `yaml:"fallback"`
	FromEmail string         `yaml:"from_email"`
	FromName  string         `yaml:"from_name"`
	Resend    ProviderConfig `yaml:"resend"`
	Brevo     ProviderConfig `yaml:"brevo"`
}

// DispatchConfig tunes the email dispatcher.
type DispatchConfig struct {
	Enabled      bool     `yaml:"enabled"`
	PollInterval Duration `yaml:"poll_interval"`
	BatchSize    int      `yaml:"batch_size"`
	MaxAttempts  int      `yaml:"max_attempts"`
}

// Config models menulink.yaml.
type Config struct {
	Version  int            `yaml:"version"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Mail     MailConfig     `yaml:"mail"`
	Dispatch DispatchConfig `yaml:"dispatch"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Version:  1,
		Database: DatabaseConfig{Path: "menulink.db"},
		Server: ServerConfig{
			Addr:         ":8080",
			ReadTimeout:  Duration(10 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
		},
		Mail: MailConfig{
			Provider:  ProviderLog,
			FromEmail: "no-reply@menulink.app",
			FromName:  "MenuLink",
		},
		Dispatch: DispatchConfig{
			Enabled:      true,
			PollInterval: Duration(time.Minute),
			BatchSize:    50,
			MaxAttempts:  5,
		},
	}
}

// Load reads the file at path (skipped when path is empty), applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookupEnv func(string) (string, bool)) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := checkSchema(path, data); err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(&cfg, lookupEnv)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config, lookupEnv func(string) (string, bool)) {
	set := func(dst *string, key string) {
		if v, ok := lookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set(&cfg.Database.Path, EnvDatabase)
	set(&cfg.Server.Addr, EnvAddr)
	set(&cfg.Server.CronSecret, EnvCronSecret)
	set(&cfg.Mail.Resend.APIKey, EnvResendKey)
	set(&cfg.Mail.Brevo.APIKey, EnvBrevoKey)
}

// Validate checks the rules the schema cannot express: the selected
// providers need credentials and the fallback must differ from the
// primary.
func (c Config) Validate() error {
	if c.Database.Path == "" {
		return &Error{Field: "database.path", Message: "is required"}
	}
	if err := c.Mail.checkProvider("mail.provider", c.Mail.Provider); err != nil {
		return err
	}
	if c.Mail.Fallback != "" {
		if c.Mail.Provider == ProviderLog {
			return &Error{Field: "mail.fallback", Message: "requires a real primary provider"}
		}
		if c.Mail.Fallback == c.Mail.Provider {
			return &Error{Field: "mail.fallback", Message: "must differ from mail.provider"}
		}
		if err := c.Mail.checkProvider("mail.fallback", c.Mail.Fallback); err != nil {
			return err
		}
	}
	if c.Mail.FromEmail == "" {
		return &Error{Field: "mail.from_email", Message: "is required"}
	}
	if c.Dispatch.PollInterval.Std() < time.Second {
		return &Error{Field: "dispatch.poll_interval", Message: "must be at least 1s"}
	}
	return nil
}

func (m MailConfig) checkProvider(field, name string) error {
	switch name {
	case ProviderLog:
		return nil
	case ProviderResend:
		if m.Resend.APIKey == "" {
			return &Error{Field: field, Message: "resend needs an API key (mail.resend.api_key or " + EnvResendKey + ")"}
		}
	case ProviderBrevo:
		if m.Brevo.APIKey == "" {
			return &Error{Field: field, Message: "brevo needs an API key (mail.brevo.api_key or " + EnvBrevoKey + ")"}
		}
	default:
		return &Error{Field: field, Message: fmt.Sprintf("unknown provider %q", name)}
	}
	return nil
}

// Error reports an invalid configuration value.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// WriteDefault writes DefaultYAML to path. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("config %s already exists: %w", path, err)
	}
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if _, err := f.WriteString(DefaultYAML); err != nil {
		f.Close()
		return fmt.Errorf("write config: %w", err)
	}
	return f.Close()
}
