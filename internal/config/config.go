package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

const (
	StorageFile   = "file"
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Env       string `yaml:"env" env:"SHORTENER_ENV"`
	Log       `yaml:"log"`
	API       `yaml:"api"`
	Storage   `yaml:"storage"`
	DevServer `yaml:"dev_server"`
}

type Log struct {
	Level  string `yaml:"level" env:"SHORTENER_LOG_LEVEL"`
	Format string `yaml:"format" env:"SHORTENER_LOG_FORMAT"`
}

var defaultLog = Log{
	Level:  "info",
	Format: "text",
}

type API struct {
	BaseURL string        `yaml:"base_url" env:"SHORTENER_API_BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"SHORTENER_API_TIMEOUT"`
}

var defaultAPI = API{
	BaseURL: "http://localhost:8080",
}

type Storage struct {
	Driver string `yaml:"driver" env:"SHORTENER_STORAGE_DRIVER"`
	Path   string `yaml:"path" env:"SHORTENER_STORAGE_PATH"`
}

func defaultStorage() Storage {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}

	return Storage{
		Driver: StorageFile,
		Path:   filepath.Join(dir, "url-shortener", "credentials.json"),
	}
}

type DevServer struct {
	Port            int           `yaml:"port" env:"SHORTENER_DEV_PORT"`
	BaseURL         string        `yaml:"base_url" env:"SHORTENER_DEV_BASE_URL"`
	JWTSecret       string        `yaml:"jwt_secret" env:"SHORTENER_DEV_JWT_SECRET"`
	TokenTTL        time.Duration `yaml:"token_ttl" env:"SHORTENER_DEV_TOKEN_TTL"`
	ShortCodeLength int           `yaml:"short_code_length" env:"SHORTENER_DEV_SHORT_CODE_LENGTH"`
	DatabasePath    string        `yaml:"database_path" env:"SHORTENER_DEV_DATABASE_PATH"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
}

var defaultDevServer = DevServer{
	Port:            8080,
	JWTSecret:       "dev-secret",
	TokenTTL:        24 * time.Hour,
	ShortCodeLength: 6,
	DatabasePath:    ":memory:",
	ReadTimeout:     5 * time.Second,
	WriteTimeout:    10 * time.Second,
	IdleTimeout:     time.Minute,
}

func (s *DevServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Load reads the YAML file at path on top of the defaults and then applies
// environment overrides, including those from an optional .env file.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	const op = "config.Load"

	var cfg Config
	setDefaults(&cfg)

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to open config file: %w", op, err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("%s: failed to decode config file: %w", op, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: failed to load .env file: %w", op, err)
	}

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("%s: failed to parse environment: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Driver {
	case StorageFile, StorageSQLite:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage path is required for %q driver", c.Storage.Driver)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.API.BaseURL == "" {
		return errors.New("api base url is required")
	}

	return nil
}

func setDefaults(cfg *Config) {
	cfg.Env = EnvDev
	cfg.Log = defaultLog
	cfg.API = defaultAPI
	cfg.Storage = defaultStorage()
	cfg.DevServer = defaultDevServer
}
