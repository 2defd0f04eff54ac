package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/coding-assistant/assistant"

	"github.com/spf13/viper"
)

// Storage backends understood by the factory.
const (
	BackendFile   = "file"
	BackendLibSQL = "libsql"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Assistant AssistantConfig `mapstructure:"assistant"`
	Provider  ProviderConfig  `mapstructure:"provider"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Harness   HarnessConfig   `mapstructure:"harness"`
	Log       LogConfig       `mapstructure:"log"`
}

// AssistantConfig shapes the conversation kept between turns.
type AssistantConfig struct {
	SystemPrompt     string `mapstructure:"system_prompt"`
	MaxHistoryLength int    `mapstructure:"max_history_length"` // messages kept after truncation
	HistoryPath      string `mapstructure:"history_path"`       // JSON history document (file backend)
	CredentialPath   string `mapstructure:"credential_path"`    // file holding the API key
}

// ProviderConfig stores completion endpoint settings.
type ProviderConfig struct {
	BaseURL         string `mapstructure:"base_url"`
	EconomyModel    string `mapstructure:"economy_model"`  // used for low-cost turns
	StandardModel   string `mapstructure:"standard_model"` // used otherwise
	MaxOutputTokens int    `mapstructure:"max_output_tokens"`
}

// StorageConfig selects where the history lives.
type StorageConfig struct {
	Backend      string `mapstructure:"backend"` // "file" or "libsql"
	DatabasePath string `mapstructure:"database_path"`
	SessionKey   string `mapstructure:"session_key"` // row key in the conversations table
}

// HarnessConfig toggles orchestrator telemetry.
type HarnessConfig struct {
	EnableTracing bool `mapstructure:"enable_tracing"` // structured span/event logging
	EnableMetrics bool `mapstructure:"enable_metrics"` // prometheus collectors
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"` // console writer instead of JSON
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("..")
		v.AddConfigPath(filepath.Join("/etc", assistant.DefaultAppName))
		if assistant.DefaultConfigPath != "" {
			v.AddConfigPath(assistant.DefaultConfigPath)
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetDefault("assistant.system_prompt", assistant.DefaultSystemPrompt)
	v.SetDefault("assistant.max_history_length", assistant.DefaultMaxHistoryLength)
	v.SetDefault("assistant.history_path", assistant.DefaultHistoryPath)
	v.SetDefault("assistant.credential_path", assistant.DefaultCredentialPath)

	v.SetDefault("provider.base_url", assistant.DefaultProviderBaseURL)
	v.SetDefault("provider.economy_model", assistant.DefaultEconomyModel)
	v.SetDefault("provider.standard_model", assistant.DefaultStandardModel)
	v.SetDefault("provider.max_output_tokens", assistant.DefaultMaxOutputTokens)

	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.database_path", assistant.DefaultDatabasePath)
	v.SetDefault("storage.session_key", assistant.DefaultSessionKey)

	v.SetDefault("harness.enable_tracing", true)
	v.SetDefault("harness.enable_metrics", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	v.AutomaticEnv()
	// assistant.max_history_length becomes ASSISTANT_MAX_HISTORY_LENGTH
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &cfg, nil
}

// Validate reports the first setting that cannot drive a turn.
func (c *Config) Validate() error {
	switch {
	case c.Assistant.MaxHistoryLength < 2:
		// the window holds the system message plus at least the new prompt
		return fmt.Errorf("assistant.max_history_length must be at least 2, got %d", c.Assistant.MaxHistoryLength)
	case strings.TrimSpace(c.Assistant.SystemPrompt) == "":
		return errors.New("assistant.system_prompt must not be empty")
	case c.Assistant.CredentialPath == "":
		return errors.New("assistant.credential_path is empty (is the home directory set?)")
	case c.Provider.MaxOutputTokens < 1:
		return fmt.Errorf("provider.max_output_tokens must be at least 1, got %d", c.Provider.MaxOutputTokens)
	case strings.TrimSpace(c.Provider.EconomyModel) == "":
		return errors.New("provider.economy_model must not be empty")
	case strings.TrimSpace(c.Provider.StandardModel) == "":
		return errors.New("provider.standard_model must not be empty")
	case strings.TrimSpace(c.Provider.BaseURL) == "":
		return errors.New("provider.base_url must not be empty")
	}

	switch c.Storage.Backend {
	case BackendFile:
		if c.Assistant.HistoryPath == "" {
			return errors.New("assistant.history_path is empty (is the home directory set?)")
		}
	case BackendLibSQL:
		if c.Storage.DatabasePath == "" {
			return errors.New("storage.database_path is empty (is the home directory set?)")
		}
		if strings.TrimSpace(c.Storage.SessionKey) == "" {
			return errors.New("storage.session_key must not be empty")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q (want %q or %q)", c.Storage.Backend, BackendFile, BackendLibSQL)
	}

	return nil
}
