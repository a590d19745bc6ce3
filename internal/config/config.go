// Package config defines the typed application configuration and its
// defaults. Values are resolved through viper: flags, USERADMIN_* environment
// variables, the legacy MYSQL_* variables, an optional useradmin.yaml file,
// then the defaults below.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/faucetdb/useradmin/internal/connector"
)

// DefaultSecretKey is the development signing key. Serving with it logs a
// warning.
const DefaultSecretKey = "dev-secret-key-change-in-production"

// EnvPrefix is the prefix for environment overrides, e.g.
// USERADMIN_DATABASE_HOST.
const EnvPrefix = "USERADMIN"

// File is the top-level useradmin configuration.
type File struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`
	Auth     AuthConfig     `yaml:"auth" mapstructure:"auth"`
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
}

// DatabaseConfig selects the store driver and its connection settings. DSN,
// when set, takes precedence over the discrete fields.
type DatabaseConfig struct {
	Driver          string        `yaml:"driver" mapstructure:"driver"`
	DSN             string        `yaml:"dsn" mapstructure:"dsn"`
	Host            string        `yaml:"host" mapstructure:"host"`
	Port            int           `yaml:"port" mapstructure:"port"`
	User            string        `yaml:"user" mapstructure:"user"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Name            string        `yaml:"name" mapstructure:"name"`
	SSLMode         string        `yaml:"sslmode,omitempty" mapstructure:"sslmode"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// AuthConfig controls session signing and login hardening.
type AuthConfig struct {
	SecretKey      string        `yaml:"secret_key" mapstructure:"secret_key"`
	SessionTTL     time.Duration `yaml:"session_ttl" mapstructure:"session_ttl"`
	CookieSecure   bool          `yaml:"cookie_secure" mapstructure:"cookie_secure"`
	LoginRateLimit int           `yaml:"login_rate_limit" mapstructure:"login_rate_limit"`
	CSRFKey        string        `yaml:"csrf_key" mapstructure:"csrf_key"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a File pre-filled with the default values.
func Default() *File {
	return &File{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            5000,
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "mysql",
			Host:            "localhost",
			// Zero lets the selected driver use its standard port.
			Port:            0,
			User:            "root",
			Name:            "user_management",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Auth: AuthConfig{
			SecretKey:  DefaultSecretKey,
			SessionTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// legacyEnv maps config keys to the bare variable names deployments of the
// previous release already export.
var legacyEnv = map[string]string{
	"auth.secret_key":   "FLASK_SECRET_KEY",
	"database.host":     "MYSQL_HOST",
	"database.port":     "MYSQL_PORT",
	"database.user":     "MYSQL_USER",
	"database.password": "MYSQL_PASSWORD",
	"database.name":     "MYSQL_DB",
}

// Setup registers defaults and environment bindings on v.
func Setup(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.dsn", d.Database.DSN)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.sslmode", d.Database.SSLMode)
	v.SetDefault("database.max_open_conns", d.Database.MaxOpenConns)
	v.SetDefault("database.max_idle_conns", d.Database.MaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", d.Database.ConnMaxLifetime)
	v.SetDefault("auth.secret_key", d.Auth.SecretKey)
	v.SetDefault("auth.session_ttl", d.Auth.SessionTTL)
	v.SetDefault("auth.cookie_secure", d.Auth.CookieSecure)
	v.SetDefault("auth.login_rate_limit", d.Auth.LoginRateLimit)
	v.SetDefault("auth.csrf_key", d.Auth.CSRFKey)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		// The prefixed name stays first so it wins over the legacy one.
		_ = v.BindEnv(key, EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), legacy)
	}
}

// Load decodes the effective configuration from v and validates it.
func Load(v *viper.Viper) (*File, error) {
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Validate checks values viper cannot type-check on its own.
func (f *File) Validate() error {
	switch f.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver: unsupported driver %q (use mysql, postgres or sqlite)", f.Database.Driver)
	}
	if f.Server.Port < 0 || f.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", f.Server.Port)
	}
	if f.Database.Port < 0 || f.Database.Port > 65535 {
		return fmt.Errorf("database.port: %d out of range", f.Database.Port)
	}
	if f.Auth.SecretKey == "" {
		return fmt.Errorf("auth.secret_key must not be empty")
	}
	if f.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}
	if f.Auth.CSRFKey != "" && len(f.Auth.CSRFKey) < 32 {
		return fmt.Errorf("auth.csrf_key must be at least 32 bytes")
	}
	switch strings.ToLower(f.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format: %q (use text or json)", f.Logging.Format)
	}
	return nil
}

// Connection converts the database section into connector settings.
func (f *File) Connection() connector.ConnectionConfig {
	db := f.Database
	return connector.ConnectionConfig{
		Driver:          db.Driver,
		DSN:             db.DSN,
		Host:            db.Host,
		Port:            db.Port,
		User:            db.User,
		Password:        db.Password,
		Name:            db.Name,
		SSLMode:         db.SSLMode,
		MaxOpenConns:    db.MaxOpenConns,
		MaxIdleConns:    db.MaxIdleConns,
		ConnMaxLifetime: db.ConnMaxLifetime,
	}
}

// UsesDefaultSecret reports whether sessions are signed with the
// development key.
func (f *File) UsesDefaultSecret() bool {
	return f.Auth.SecretKey == DefaultSecretKey
}

// Redacted returns a copy with secrets masked, for display.
func (f *File) Redacted() *File {
	c := *f
	c.Database.Password = mask(c.Database.Password)
	c.Database.DSN = mask(c.Database.DSN)
	c.Auth.SecretKey = mask(c.Auth.SecretKey)
	c.Auth.CSRFKey = mask(c.Auth.CSRFKey)
	return &c
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}

// Marshal renders f as YAML.
func (f *File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// WriteDefault writes the default configuration to path.
func WriteDefault(path string) error {
	data, err := Default().Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
