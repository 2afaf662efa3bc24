package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// API holds all configuration for the cost API.
type API struct {
	Env      string   `yaml:"env"`
	HTTPAddr string   `yaml:"http_addr"`
	Database Database `yaml:"database"`
	Auth     Auth     `yaml:"auth"`
	CORS     CORS     `yaml:"cors"`
}

// Database holds PostgreSQL connection parameters.
type Database struct {
	URL             string        `yaml:"url"`
	MaxConns        int32         `yaml:"max_conns"`
	MinConns        int32         `yaml:"min_conns"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	RunMigrations   bool          `yaml:"run_migrations"`
}

type Auth struct {
	JWTSecret string `yaml:"jwt_secret"`
	// roles allowed to read recipe costs
	CostRoles []string `yaml:"cost_roles"`
}

type CORS struct {
	AllowOrigins []string      `yaml:"allow_origins"`
	MaxAge       time.Duration `yaml:"max_age"`
}

// DefaultAPI returns API config with sensible defaults.
func DefaultAPI() API {
	return API{
		Env:      "development",
		HTTPAddr: ":8000",
		Database: Database{
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: time.Hour,
			RunMigrations:   true,
		},
		Auth: Auth{
			CostRoles: []string{"OWNER", "MANAGER", "CHEF"},
		},
		CORS: CORS{
			AllowOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
			MaxAge:       12 * time.Hour,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// .env and environment overrides. A missing file yields defaults.
func Load(path string) (API, error) {
	cfg := DefaultAPI()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if os.Getenv("APP_ENV") != "production" {
		_ = godotenv.Load()
	}
	applyEnv(&cfg)

	return cfg, cfg.Validate()
}

func applyEnv(cfg *API) {
	if v := os.Getenv("ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}

// Validate fails fast on settings the API cannot start without.
func (c API) Validate() error {
	required := []struct{ name, value string }{
		{"DATABASE_URL", c.Database.URL},
		{"JWT_SECRET", c.Auth.JWTSecret},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("missing setting: %s", r.name)
		}
	}
	return nil
}
