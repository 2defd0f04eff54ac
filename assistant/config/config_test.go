package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZanzyTHEbar/coding-assistant/assistant"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ConfigTestSuite tests the config package functionality
type ConfigTestSuite struct {
	suite.Suite
	tempDir string
	origDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (suite *ConfigTestSuite) SetupTest() {
	var err error
	suite.origDir, err = os.Getwd()
	require.NoError(suite.T(), err)

	suite.tempDir = suite.T().TempDir()
	require.NoError(suite.T(), os.Chdir(suite.tempDir))
}

func (suite *ConfigTestSuite) TearDownTest() {
	if suite.origDir != "" {
		_ = os.Chdir(suite.origDir)
	}
}

func (suite *ConfigTestSuite) TestLoadConfigWithDefaults() {
	cfg, err := LoadConfig("")

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), assistant.DefaultSystemPrompt, cfg.Assistant.SystemPrompt)
	assert.Equal(suite.T(), 12, cfg.Assistant.MaxHistoryLength)
	assert.Equal(suite.T(), assistant.DefaultHistoryPath, cfg.Assistant.HistoryPath)
	assert.Equal(suite.T(), assistant.DefaultCredentialPath, cfg.Assistant.CredentialPath)
	assert.Equal(suite.T(), "https://api.openai.com/v1", cfg.Provider.BaseURL)
	assert.Equal(suite.T(), "gpt-3.5-turbo-1106", cfg.Provider.EconomyModel)
	assert.Equal(suite.T(), "gpt-4-1106-preview", cfg.Provider.StandardModel)
	assert.Equal(suite.T(), 1024, cfg.Provider.MaxOutputTokens)
	assert.Equal(suite.T(), BackendFile, cfg.Storage.Backend)
	assert.Equal(suite.T(), "default", cfg.Storage.SessionKey)
	assert.True(suite.T(), cfg.Harness.EnableTracing)
	assert.False(suite.T(), cfg.Harness.EnableMetrics)
	assert.Equal(suite.T(), "info", cfg.Log.Level)
}

func (suite *ConfigTestSuite) TestLoadConfigWithFile() {
	configContent := `
assistant:
  max_history_length: 4
  history_path: "./history.json"
provider:
  base_url: "http://localhost:8080/v1"
  standard_model: "local-large"
storage:
  backend: "libsql"
  database_path: "./history.db"
  session_key: "work"
`

	configFile := filepath.Join(suite.tempDir, "config.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(configContent), 0o644))

	cfg, err := LoadConfig(configFile)

	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), cfg)

	assert.Equal(suite.T(), 4, cfg.Assistant.MaxHistoryLength)
	assert.Equal(suite.T(), "./history.json", cfg.Assistant.HistoryPath)
	assert.Equal(suite.T(), "http://localhost:8080/v1", cfg.Provider.BaseURL)
	assert.Equal(suite.T(), "local-large", cfg.Provider.StandardModel)
	// untouched keys keep their defaults
	assert.Equal(suite.T(), "gpt-3.5-turbo-1106", cfg.Provider.EconomyModel)
	assert.Equal(suite.T(), BackendLibSQL, cfg.Storage.Backend)
	assert.Equal(suite.T(), "work", cfg.Storage.SessionKey)
}

func (suite *ConfigTestSuite) TestLoadConfigFromEnv() {
	suite.T().Setenv("ASSISTANT_MAX_HISTORY_LENGTH", "6")
	suite.T().Setenv("PROVIDER_ECONOMY_MODEL", "cheap-model")

	cfg, err := LoadConfig("")
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), 6, cfg.Assistant.MaxHistoryLength)
	assert.Equal(suite.T(), "cheap-model", cfg.Provider.EconomyModel)
}

func (suite *ConfigTestSuite) TestLoadConfigInvalidFile() {
	cfg, err := LoadConfig("/nonexistent/path/config.yaml")

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func (suite *ConfigTestSuite) TestLoadConfigMalformedFile() {
	malformedContent := `
assistant:
  max_history_length: 4
  invalid_yaml: [unclosed bracket
`

	configFile := filepath.Join(suite.tempDir, "malformed.yaml")
	require.NoError(suite.T(), os.WriteFile(configFile, []byte(malformedContent), 0o644))

	cfg, err := LoadConfig(configFile)

	assert.Error(suite.T(), err)
	assert.Nil(suite.T(), cfg)
}

func validConfig() Config {
	return Config{
		Assistant: AssistantConfig{
			SystemPrompt:     "be helpful",
			MaxHistoryLength: 12,
			HistoryPath:      "/tmp/history.json",
			CredentialPath:   "/tmp/key",
		},
		Provider: ProviderConfig{
			BaseURL:         "https://api.openai.com/v1",
			EconomyModel:    "small",
			StandardModel:   "large",
			MaxOutputTokens: 1024,
		},
		Storage: StorageConfig{
			Backend:      BackendFile,
			DatabasePath: "/tmp/history.db",
			SessionKey:   "default",
		},
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"valid libsql", func(c *Config) { c.Storage.Backend = BackendLibSQL }, ""},
		{"zero history", func(c *Config) { c.Assistant.MaxHistoryLength = 0 }, "max_history_length"},
		{"history of one", func(c *Config) { c.Assistant.MaxHistoryLength = 1 }, "at least 2"},
		{"history of two", func(c *Config) { c.Assistant.MaxHistoryLength = 2 }, ""},
		{"blank prompt", func(c *Config) { c.Assistant.SystemPrompt = "  " }, "system_prompt"},
		{"no credential path", func(c *Config) { c.Assistant.CredentialPath = "" }, "credential_path"},
		{"zero tokens", func(c *Config) { c.Provider.MaxOutputTokens = 0 }, "max_output_tokens"},
		{"blank economy model", func(c *Config) { c.Provider.EconomyModel = "" }, "economy_model"},
		{"blank standard model", func(c *Config) { c.Provider.StandardModel = "" }, "standard_model"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "redis" }, "unknown storage.backend"},
		{"no history path", func(c *Config) { c.Assistant.HistoryPath = "" }, "history_path"},
		{"no database path", func(c *Config) {
			c.Storage.Backend = BackendLibSQL
			c.Storage.DatabasePath = ""
		}, "database_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// BenchmarkLoadConfig benchmarks config loading performance
func BenchmarkLoadConfig(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := LoadConfig(""); err != nil {
			b.Fatal(err)
		}
	}
}
