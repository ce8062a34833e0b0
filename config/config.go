package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Auth       AuthConfig       `yaml:"auth"`
	Transform  TransformConfig  `yaml:"transform"`
	Pagination PaginationConfig `yaml:"pagination"`
	Log        LogConfig        `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

type DatabaseConfig struct {
	Path         string `yaml:"path"`
	BusyTimeout  int    `yaml:"busy_timeout_ms"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

type StorageConfig struct {
	// BasePath is the public storage root; uploaded objects live under
	// BasePath/uploads and every served path must resolve inside it.
	BasePath string `yaml:"base_path"`
}

type AuthConfig struct {
	AccessCode  string `yaml:"access_code"`
	JWTSecret   string `yaml:"jwt_secret"`
	ExpireHours int    `yaml:"expire_hours"`
	CookieName  string `yaml:"cookie_name"`
}

type TransformConfig struct {
	MaxDimension   int    `yaml:"max_dimension"`
	DefaultQuality int    `yaml:"default_quality"`
	DefaultFormat  string `yaml:"default_format"`
	DefaultFit     string `yaml:"default_fit"`
}

type PaginationConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/tubed.db"
	}
	if cfg.Database.BusyTimeout == 0 {
		cfg.Database.BusyTimeout = 5000
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 4
	}
	if cfg.Storage.BasePath == "" {
		cfg.Storage.BasePath = "public"
	}
	if cfg.Auth.CookieName == "" {
		cfg.Auth.CookieName = "auth-token"
	}
	if cfg.Auth.ExpireHours == 0 {
		cfg.Auth.ExpireHours = 24
	}
	if cfg.Transform.MaxDimension == 0 {
		cfg.Transform.MaxDimension = 4096
	}
	if cfg.Transform.DefaultQuality == 0 {
		cfg.Transform.DefaultQuality = 80
	}
	if cfg.Transform.DefaultFormat == "" {
		cfg.Transform.DefaultFormat = "webp"
	}
	if cfg.Transform.DefaultFit == "" {
		cfg.Transform.DefaultFit = "cover"
	}
	if cfg.Pagination.DefaultPageSize == 0 {
		cfg.Pagination.DefaultPageSize = 20
	}
	if cfg.Pagination.MaxPageSize == 0 {
		cfg.Pagination.MaxPageSize = 100
	}
}

// Secrets may come from the environment instead of the config file, so a
// checked-in config.yaml never has to carry them.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("AUTH_CODE"); v != "" {
		cfg.Auth.AccessCode = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
}
