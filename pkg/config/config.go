// Package config loads process configuration from an optional YAML file
// overridden by environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values
type Config struct {
	ListenAddr       string   `yaml:"listen_addr"`
	TableName        string   `yaml:"table_name"`
	SessionIndexName string   `yaml:"session_index_name"`
	Region           string   `yaml:"region"`
	DynamoDBEndpoint string   `yaml:"dynamodb_endpoint"` // local development override
	LogLevel         string   `yaml:"log_level"`
	AllowedOrigins   []string `yaml:"allowed_origins"`
}

// Defaults returns the built-in configuration values.
func Defaults() *Config {
	return &Config{
		ListenAddr:       ":8080",
		TableName:        "mindmap",
		SessionIndexName: "SessionIndex",
		Region:           "us-east-1",
		LogLevel:         "info",
		AllowedOrigins:   []string{"*"},
	}
}

// New builds the configuration: defaults, then the YAML file named by
// CONFIG_FILE (if set), then environment variables.
func New() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.TableName = getEnv("TABLE_NAME", cfg.TableName)
	cfg.SessionIndexName = getEnv("SESSION_INDEX_NAME", cfg.SessionIndexName)
	cfg.Region = getEnv("AWS_REGION", cfg.Region)
	cfg.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", cfg.DynamoDBEndpoint)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = splitAndTrim(origins)
	}

	return cfg, nil
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
