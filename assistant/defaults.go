// Package assistant holds application-wide defaults shared by the config,
// storage and command packages.
package assistant

import (
	"os"
	"path/filepath"
)

const (
	DefaultAppName = "coding-assistant"

	DefaultHistoryDirName  = ".coding-assistant-history"
	DefaultHistoryFileName = "history.json"
	DefaultDatabaseName    = "history.db"
	DefaultCredentialFile  = ".openai_api_key"
	DefaultSessionKey      = "default"

	DefaultProviderBaseURL  = "https://api.openai.com/v1"
	DefaultEconomyModel     = "gpt-3.5-turbo-1106"
	DefaultStandardModel    = "gpt-4-1106-preview"
	DefaultMaxOutputTokens  = 1024
	DefaultMaxHistoryLength = 12
)

// DefaultSystemPrompt seeds every fresh conversation.
const DefaultSystemPrompt = `You are a senior software engineer acting as a coding assistant.
Answer concisely and precisely. Prefer working code over prose, use fenced
markdown code blocks with a language tag, and call out assumptions you make
about the user's environment.`

var (
	DefaultHistoryDir     = homePath(DefaultHistoryDirName)
	DefaultHistoryPath    = homePath(DefaultHistoryDirName, DefaultHistoryFileName)
	DefaultDatabasePath   = homePath(DefaultHistoryDirName, DefaultDatabaseName)
	DefaultCredentialPath = homePath(DefaultCredentialFile)
	DefaultConfigPath     = homePath(".config", DefaultAppName)
)

// homePath joins parts onto the user's home directory. It returns "" when
// the home directory cannot be determined so callers can report a setup error.
func homePath(parts ...string) string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(append([]string{home}, parts...)...)
}
