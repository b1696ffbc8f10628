// Package config loads the service configuration from an optional YAML file
// and TASKS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides: auth.secret is TASKS_AUTH_SECRET.
const EnvPrefix = "TASKS"

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// minSecretLength mirrors auth.MinSecretLength; checked here so a bad secret
// stops the process before anything is opened.
const minSecretLength = 32

type Config struct {
	Server  ServerConfig
	DB      DBConfig
	Auth    AuthConfig
	Log     LogConfig
	Metrics MetricsConfig
	CORS    CORSConfig
}

type ServerConfig struct {
	Host              string
	Port              string
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
}

type DBConfig struct {
	Driver         string
	Path           string // sqlite file
	DSN            string // postgres connection string
	MaxOpenConns   int
	ConnectRetries int
}

type AuthConfig struct {
	Secret          string
	Algorithm       string
	TokenTTLMinutes int
	BcryptCost      int
}

// TokenTTL returns the configured token lifetime.
func (a AuthConfig) TokenTTL() time.Duration {
	return time.Duration(a.TokenTTLMinutes) * time.Minute
}

type LogConfig struct {
	Level  string
	Format string
}

type MetricsConfig struct {
	Enabled bool
	Path    string
}

type CORSConfig struct {
	AllowedOrigins []string
}

// New returns a viper instance with defaults and env binding applied.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// AutomaticEnv only resolves keys viper already knows about
	_ = v.BindEnv("auth.secret")
	_ = v.BindEnv("db.dsn")
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("db.driver", DriverSQLite)
	v.SetDefault("db.path", "app.db")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.connect_retries", 5)

	v.SetDefault("auth.algorithm", "HS256")
	v.SetDefault("auth.token_ttl_minutes", 30)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("cors.allowed_origins", []string{})
}

// Load reads configFile (or configs/config.yml when empty and present) into v
// and returns the validated configuration.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := FromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromViper copies the known keys out of v without validating them.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:              v.GetString("server.host"),
			Port:              v.GetString("server.port"),
			ReadHeaderTimeout: v.GetDuration("server.read_header_timeout"),
			WriteTimeout:      v.GetDuration("server.write_timeout"),
			IdleTimeout:       v.GetDuration("server.idle_timeout"),
			ShutdownTimeout:   v.GetDuration("server.shutdown_timeout"),
		},
		DB: DBConfig{
			Driver:         strings.ToLower(v.GetString("db.driver")),
			Path:           v.GetString("db.path"),
			DSN:            v.GetString("db.dsn"),
			MaxOpenConns:   v.GetInt("db.max_open_conns"),
			ConnectRetries: v.GetInt("db.connect_retries"),
		},
		Auth: AuthConfig{
			Secret:          v.GetString("auth.secret"),
			Algorithm:       strings.ToUpper(v.GetString("auth.algorithm")),
			TokenTTLMinutes: v.GetInt("auth.token_ttl_minutes"),
			BcryptCost:      v.GetInt("auth.bcrypt_cost"),
		},
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString("log.level")),
			Format: strings.ToLower(v.GetString("log.format")),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
			Path:    v.GetString("metrics.path"),
		},
		CORS: CORSConfig{
			AllowedOrigins: v.GetStringSlice("cors.allowed_origins"),
		},
	}
}

// Validate reports the first setting the service cannot start with.
func (c *Config) Validate() error {
	switch {
	case c.Auth.Secret == "":
		return fmt.Errorf("auth.secret is required (set %s_AUTH_SECRET)", EnvPrefix)
	case len(c.Auth.Secret) < minSecretLength:
		return fmt.Errorf("auth.secret must be at least %d bytes", minSecretLength)
	}
	switch c.Auth.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("auth.algorithm %q is not supported: use HS256, HS384 or HS512", c.Auth.Algorithm)
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return fmt.Errorf("auth.token_ttl_minutes must be positive, got %d", c.Auth.TokenTTLMinutes)
	}

	switch c.DB.Driver {
	case DriverSQLite:
		if c.DB.Path == "" {
			return errors.New("db.path is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DB.DSN == "" {
			return fmt.Errorf("db.dsn is required for the postgres driver (set %s_DB_DSN)", EnvPrefix)
		}
	default:
		return fmt.Errorf("db.driver %q is not supported: use %s or %s", c.DB.Driver, DriverSQLite, DriverPostgres)
	}

	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	return nil
}
