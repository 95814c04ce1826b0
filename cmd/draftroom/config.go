package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/draftday/draftroom/internal/room"
)

// Config is the server configuration, loaded from YAML with env overrides.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	NATSURL  string `yaml:"nats_url"`

	TurnSeconds         int `yaml:"turn_seconds"`
	ItemsPerParticipant int `yaml:"items_per_participant"`
	MinParticipants     int `yaml:"min_participants"`
	CleanupGraceMinutes int `yaml:"cleanup_grace_minutes"`
	CodeLength          int `yaml:"code_length"`
	CodeAttempts        int `yaml:"code_attempts"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds Postgres connection settings. An empty host means the
// in-memory room store.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the Postgres connection URL.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

func defaultConfig() Config {
	return Config{
		HTTPAddr:            ":8080",
		TurnSeconds:         10,
		ItemsPerParticipant: 5,
		MinParticipants:     2,
		CleanupGraceMinutes: 10,
		CodeLength:          6,
		CodeAttempts:        8,
		Database: DatabaseConfig{
			Port:     5432,
			User:     "postgres",
			Password: "postgres",
			Name:     "draftroom",
			SSLMode:  "disable",
		},
	}
}

// loadConfig reads the YAML config file if present and then applies env
// overrides on top.
func loadConfig(path string) (Config, error) {
	config := defaultConfig()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	config.HTTPAddr = getEnv("HTTP_ADDR", config.HTTPAddr)
	config.NATSURL = getEnv("NATS_URL", config.NATSURL)
	config.Database.Host = getEnv("DB_HOST", config.Database.Host)
	config.Database.Port = getEnvAsInt("DB_PORT", config.Database.Port)
	config.Database.User = getEnv("DB_USER", config.Database.User)
	config.Database.Password = getEnv("DB_PASSWORD", config.Database.Password)
	config.Database.Name = getEnv("DB_NAME", config.Database.Name)
	config.Database.SSLMode = getEnv("DB_SSLMODE", config.Database.SSLMode)

	return config, nil
}

// EngineConfig converts the loaded settings into the engine's tunables.
func (c Config) EngineConfig() room.Config {
	cfg := room.DefaultConfig()
	cfg.TurnDuration = time.Duration(c.TurnSeconds) * time.Second
	cfg.ItemsPerParticipant = c.ItemsPerParticipant
	cfg.MinParticipants = c.MinParticipants
	cfg.CleanupGrace = time.Duration(c.CleanupGraceMinutes) * time.Minute
	cfg.CodeLength = c.CodeLength
	cfg.CodeAttempts = c.CodeAttempts
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
