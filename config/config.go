/*
config.go - Application configuration

PURPOSE:
  Loads settings shared by cmd/server and cmd/overtimectl.

SOURCES (later wins):
  1. Built-in defaults
  2. YAML file (--config, else ./overtime.yaml when present)
  3. .env in the working directory, if any
  4. Environment: OVERTIME_PORT, OVERTIME_DB, OVERTIME_LOG_LEVEL, OVERTIME_FONT_PATH

EXAMPLE (overtime.yaml):
    server:
      port: 8080
      allowed_origins: ["http://localhost:5173"]
    database:
      path: overtime.db
    report:
      company_name: 海灣國際股份有限公司
      max_page_height: 950
      font_path: /usr/share/fonts/NotoSansTC-Regular.ttf
    log_level: info
*/
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/warp/overtime-engine/layout"
)

// DefaultPath is read when no --config path is given.
const DefaultPath = "overtime.yaml"

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Report   ReportConfig   `yaml:"report"`
	LogLevel string         `yaml:"log_level"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	IdleTimeout    time.Duration `yaml:"idle_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

// DatabaseConfig points at the SQLite review store. ":memory:" is allowed.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ReportConfig holds the printed form settings.
type ReportConfig struct {
	CompanyName   string  `yaml:"company_name"`
	Title         string  `yaml:"title"`
	MaxPageHeight float64 `yaml:"max_page_height"`
	FontPath      string  `yaml:"font_path"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxUploadBytes: 10 << 20,
		},
		Database: DatabaseConfig{Path: "overtime.db"},
		Report: ReportConfig{
			CompanyName:   layout.DefaultCompanyName,
			Title:         layout.DefaultFormTitle,
			MaxPageHeight: layout.DefaultMaxPageHeight,
		},
		LogLevel: "info",
	}
}

// Load reads path (or DefaultPath when empty) over the defaults, then
// applies .env and environment overrides. A missing DefaultPath is fine;
// a missing explicit path is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	// .env is optional
	_ = godotenv.Load()

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("OVERTIME_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid OVERTIME_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("OVERTIME_DB"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("OVERTIME_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("OVERTIME_FONT_PATH"); v != "" {
		c.Report.FontPath = v
	}
	return nil
}

// SlogLevel maps LogLevel to a slog level. Validate rejects unknown names.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation error: %s - %s", e.Field, e.Message)
}

// Validate checks the configuration for common issues
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return &ValidationError{Field: "server.port", Message: "port must be between 1 and 65535"}
	}
	if c.Server.MaxUploadBytes <= 0 {
		return &ValidationError{Field: "server.max_upload_bytes", Message: "upload limit must be positive"}
	}
	if strings.TrimSpace(c.Database.Path) == "" {
		return &ValidationError{Field: "database.path", Message: "database path is required"}
	}
	if c.Report.MaxPageHeight <= 0 {
		return &ValidationError{Field: "report.max_page_height", Message: "page height must be positive"}
	}
	if c.Report.FontPath != "" {
		if _, err := os.Stat(c.Report.FontPath); err != nil {
			return &ValidationError{Field: "report.font_path", Message: fmt.Sprintf("font not readable: %v", err)}
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return &ValidationError{Field: "log_level", Message: "log level must be debug, info, warn or error"}
	}
	return nil
}
