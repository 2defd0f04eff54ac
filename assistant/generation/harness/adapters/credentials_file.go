package adapters

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
)

// ErrEmptyCredential is returned when the credential file holds only whitespace.
var ErrEmptyCredential = errors.New("credential file is empty")

// FileCredentials reads the API key from a file on every turn, so a key
// rotated on disk is picked up without a restart.
type FileCredentials struct {
	path string
}

func NewFileCredentials(path string) *FileCredentials {
	return &FileCredentials{path: path}
}

func (c *FileCredentials) Resolve(ctx context.Context) (string, error) {
	if c.path == "" {
		return "", errors.New("credential path is not set")
	}
	data, err := os.ReadFile(c.path)
	if err != nil {
		return "", fmt.Errorf("read credential %s: %w", c.path, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("%s: %w", c.path, ErrEmptyCredential)
	}
	return key, nil
}

var _ ports.CredentialSource = (*FileCredentials)(nil)
