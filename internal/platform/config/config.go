// Package config loads server and client settings from an optional YAML file
// and the environment. Environment variables take precedence over the file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageGorm     = "gorm"
)

// Draft backends accepted by INTAKE_DRAFT_BACKEND.
const (
	DraftFile   = "file"
	DraftSQLite = "sqlite"
)

// ServerConfig configures cmd/api.
type ServerConfig struct {
	Port                string        `yaml:"port"`
	StorageBackend      string        `yaml:"storage_backend"`
	DatabaseURL         string        `yaml:"database_url"`
	ResumeRouteTemplate string        `yaml:"resume_route_template"`
	CORSAllowedOrigins  []string      `yaml:"cors_allowed_origins"`
	LogLevel            string        `yaml:"log_level"`
	LogFormat           string        `yaml:"log_format"`
	IdempotencyTTL      time.Duration `yaml:"idempotency_ttl"`
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`
}

// ClientConfig configures the intakectl client commands and the wizard.
type ClientConfig struct {
	APIURL       string        `yaml:"api_url"`
	DraftPath    string        `yaml:"draft_path"`
	DraftBackend string        `yaml:"draft_backend"`
	Timeout      time.Duration `yaml:"timeout"`
}

type fileConfig struct {
	Server ServerConfig `yaml:"server"`
	Client ClientConfig `yaml:"client"`
}

func defaultServer() ServerConfig {
	return ServerConfig{
		Port:                "8080",
		StorageBackend:      StorageMemory,
		ResumeRouteTemplate: "/applications/{id}",
		LogLevel:            "info",
		LogFormat:           "text",
		IdempotencyTTL:      24 * time.Hour,
		ShutdownTimeout:     10 * time.Second,
	}
}

func defaultClient() ClientConfig {
	draftPath := ".intake"
	if home, err := os.UserHomeDir(); err == nil {
		draftPath = home + string(os.PathSeparator) + ".intake"
	}
	return ClientConfig{
		APIURL:       "http://localhost:8080",
		DraftPath:    draftPath,
		DraftBackend: DraftFile,
		Timeout:      10 * time.Second,
	}
}

// LoadServerConfigFromEnv reads INTAKE_CONFIG_PATH (if set) and then the server env vars.
func LoadServerConfigFromEnv() (ServerConfig, error) {
	cfg := defaultServer()
	fc, err := readFile(os.Getenv("INTAKE_CONFIG_PATH"))
	if err != nil {
		return ServerConfig{}, err
	}
	if fc != nil {
		cfg.merge(fc.Server)
	}

	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("STORAGE_BACKEND"); v != "" {
		cfg.StorageBackend = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("RESUME_ROUTE_TEMPLATE"); v != "" {
		cfg.ResumeRouteTemplate = v
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitAndTrim(v)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := os.Getenv("IDEMPOTENCY_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("IDEMPOTENCY_TTL must be a duration (e.g. 24h): %w", err)
		}
		cfg.IdempotencyTTL = d
	}
	if v := os.Getenv("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return ServerConfig{}, fmt.Errorf("SHUTDOWN_TIMEOUT must be a duration (e.g. 10s): %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func (c ServerConfig) Validate() error {
	switch c.StorageBackend {
	case StorageMemory:
	case StoragePostgres, StorageGorm:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_BACKEND=%s", c.StorageBackend)
		}
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q (expected memory|postgres|gorm)", c.StorageBackend)
	}
	if !strings.Contains(c.ResumeRouteTemplate, "{id}") {
		return fmt.Errorf("RESUME_ROUTE_TEMPLATE must contain {id}, got %q", c.ResumeRouteTemplate)
	}
	return nil
}

func (c *ServerConfig) merge(f ServerConfig) {
	if f.Port != "" {
		c.Port = f.Port
	}
	if f.StorageBackend != "" {
		c.StorageBackend = strings.ToLower(f.StorageBackend)
	}
	if f.DatabaseURL != "" {
		c.DatabaseURL = f.DatabaseURL
	}
	if f.ResumeRouteTemplate != "" {
		c.ResumeRouteTemplate = f.ResumeRouteTemplate
	}
	if len(f.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = f.CORSAllowedOrigins
	}
	if f.LogLevel != "" {
		c.LogLevel = f.LogLevel
	}
	if f.LogFormat != "" {
		c.LogFormat = f.LogFormat
	}
	if f.IdempotencyTTL != 0 {
		c.IdempotencyTTL = f.IdempotencyTTL
	}
	if f.ShutdownTimeout != 0 {
		c.ShutdownTimeout = f.ShutdownTimeout
	}
}

// LoadClientConfigFromEnv reads INTAKE_CONFIG_PATH (if set) and then the client env vars.
func LoadClientConfigFromEnv() (ClientConfig, error) {
	cfg := defaultClient()
	fc, err := readFile(os.Getenv("INTAKE_CONFIG_PATH"))
	if err != nil {
		return ClientConfig{}, err
	}
	if fc != nil {
		if fc.Client.APIURL != "" {
			cfg.APIURL = fc.Client.APIURL
		}
		if fc.Client.DraftPath != "" {
			cfg.DraftPath = fc.Client.DraftPath
		}
		if fc.Client.DraftBackend != "" {
			cfg.DraftBackend = fc.Client.DraftBackend
		}
		if fc.Client.Timeout != 0 {
			cfg.Timeout = fc.Client.Timeout
		}
	}

	if v := os.Getenv("INTAKE_API_URL"); v != "" {
		cfg.APIURL = v
	}
	if v := os.Getenv("INTAKE_DRAFT_PATH"); v != "" {
		cfg.DraftPath = v
	}
	if v := os.Getenv("INTAKE_DRAFT_BACKEND"); v != "" {
		cfg.DraftBackend = strings.ToLower(strings.TrimSpace(v))
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	switch cfg.DraftBackend {
	case DraftFile, DraftSQLite:
	default:
		return ClientConfig{}, fmt.Errorf("unknown INTAKE_DRAFT_BACKEND %q (expected file|sqlite)", cfg.DraftBackend)
	}
	return cfg, nil
}

func readFile(path string) (*fileConfig, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &fc, nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
