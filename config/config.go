package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Redis    RedisConfig
	Enhancer EnhancerConfig
	Bulk     BulkConfig
	Tracing  TracingConfig
	CORS     CORSConfig
}

type ServerConfig struct {
	Port string
	Mode string
}

type LogConfig struct {
	Level  string
	Format string
}

type DatabaseConfig struct {
	Driver string
	DSN    string
	Path   string
}

type AuthConfig struct {
	JWTSecret string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type EnhancerConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

type BulkConfig struct {
	Concurrency int
}

type TracingConfig struct {
	Enabled     bool
	SampleRatio float64
	Endpoint    string
}

type CORSConfig struct {
	AllowOrigins []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "cards.db")
	v.SetDefault("enhancer.timeout", "60s")
	v.SetDefault("bulk.concurrency", 8)
	v.SetDefault("tracing.sample_ratio", 0.1)
	v.SetDefault("cors.allow_origins", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
}

// Load reads config.toml from the given directories (the working directory
// when none are passed). Every key can be overridden with a PINNLO_ prefixed
// environment variable, e.g. PINNLO_DATABASE_DSN. A missing file is not an error.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetEnvPrefix("pinnlo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: v.GetString("server.port"),
			Mode: v.GetString("server.mode"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(v.GetString("database.driver")),
			DSN:    v.GetString("database.dsn"),
			Path:   v.GetString("database.path"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Enhancer: EnhancerConfig{
			URL:     v.GetString("enhancer.url"),
			APIKey:  v.GetString("enhancer.api_key"),
			Timeout: v.GetDuration("enhancer.timeout"),
		},
		Bulk: BulkConfig{
			Concurrency: v.GetInt("bulk.concurrency"),
		},
		Tracing: TracingConfig{
			Enabled:     v.GetBool("tracing.enabled"),
			SampleRatio: v.GetFloat64("tracing.sample_ratio"),
			Endpoint:    v.GetString("tracing.endpoint"),
		},
		CORS: CORSConfig{
			AllowOrigins: v.GetStringSlice("cors.allow_origins"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case "sqlite":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is not configured")
	}
	if c.Bulk.Concurrency <= 0 {
		c.Bulk.Concurrency = 1
	}
	return nil
}
