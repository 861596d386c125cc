// Package config loads the server configuration.
//
// Sources, lowest precedence first:
//  1. env-default tags below
//  2. the YAML file named by CONFIG_PATH, if set
//  3. a .env file in the working directory, if present
//  4. the process environment
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	Port      int    `yaml:"port"       env:"PORT"       env-default:"8000"`
	StaticDir string `yaml:"static_dir" env:"STATIC_DIR" env-default:"web/static"`
	LogLevel  string `yaml:"log_level"  env:"LOG_LEVEL"  env-default:"info"`
	LogFormat string `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`

	DB      DB      `yaml:"db"`
	Session Session `yaml:"session"`
	Catalog Catalog `yaml:"catalog"`
	GitHub  GitHub  `yaml:"github"`

	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" env-separator:"," env-default:"*"`
}

type DB struct {
	// DSN picks the engine: postgres://... for PostgreSQL, anything else is
	// a SQLite file (or :memory:).
	DSN             string        `yaml:"dsn"               env:"DB_DSN"               env-default:"file:data/gamelog.db"`
	MaxOpenConns    int           `yaml:"max_open_conns"    env:"DB_MAX_OPEN_CONNS"    env-default:"10"`
	MaxIdleConns    int           `yaml:"max_idle_conns"    env:"DB_MAX_IDLE_CONNS"    env-default:"10"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"30m"`
	BusyTimeout     time.Duration `yaml:"busy_timeout"      env:"DB_BUSY_TIMEOUT"      env-default:"5s"`
}

type Session struct {
	Secret       string        `yaml:"secret"        env:"SESSION_SECRET" env-required:"true"`
	TTL          time.Duration `yaml:"ttl"           env:"SESSION_TTL"    env-default:"24h"`
	CookieSecure bool          `yaml:"cookie_secure" env:"COOKIE_SECURE"  env-default:"false"`
}

type Catalog struct {
	APIKey  string        `yaml:"api_key"  env:"RAWG_API_KEY"`
	BaseURL string        `yaml:"base_url" env:"RAWG_BASE_URL"   env-default:"https://api.rawg.io/api"`
	Timeout time.Duration `yaml:"timeout"  env:"CATALOG_TIMEOUT" env-default:"10s"`
}

// GitHub sign-in is enabled only when both the client id and secret are set.
type GitHub struct {
	ClientID     string `yaml:"client_id"     env:"GITHUB_CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"GITHUB_CLIENT_SECRET"`
	CallbackURL  string `yaml:"callback_url"  env:"GITHUB_CALLBACK_URL"`
}

func (g GitHub) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// Load reads the configuration and validates it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}

	var cfg Config
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: reading environment: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT %d is out of range", c.Port))
	}
	if len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("SESSION_SECRET must be at least 16 characters"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.Catalog.Timeout <= 0 {
		errs = append(errs, errors.New("CATALOG_TIMEOUT must be positive"))
	}
	if c.DB.MaxOpenConns <= 0 {
		errs = append(errs, errors.New("DB_MAX_OPEN_CONNS must be positive"))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT %q must be text or json", c.LogFormat))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}

	if c.GitHub.Enabled() && c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Port)
	}
	return nil
}
