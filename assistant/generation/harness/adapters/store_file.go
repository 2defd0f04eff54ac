package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/xeipuuv/gojsonschema"
)

// BackupTimeLayout stamps history backups written by Clear.
const BackupTimeLayout = "20060102150405"

const historySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["history"],
  "properties": {
    "id": {"type": "string"},
    "history": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["role", "content"],
        "properties": {
          "role": {"type": "string"},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

var compiledHistorySchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(historySchema))
})

// FileStore keeps the conversation as a single JSON document on disk.
type FileStore struct {
	path   string
	logger zerolog.Logger
	now    func() time.Time
}

func NewFileStore(path string, logger zerolog.Logger) *FileStore {
	return &FileStore{
		path:   path,
		logger: logger.With().Str("store", "file").Str("path", path).Logger(),
		now:    time.Now,
	}
}

// Path returns the history document location.
func (s *FileStore) Path() string { return s.path }

// Load reads and validates the history document. A missing or empty file
// reports ports.ErrNotFound.
func (s *FileStore) Load(ctx context.Context) (*conversation.Conversation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.path == "" {
		return nil, errors.New("history path is not set")
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", s.path, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ports.ErrNotFound
	}

	if err := validateHistory(data); err != nil {
		return nil, fmt.Errorf("history %s: %w", s.path, err)
	}

	var conv conversation.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", s.path, err)
	}
	if conv.ID == "" {
		conv.ID = uuid.NewString()
	}
	return &conv, nil
}

// Save replaces the document atomically, creating the directory if needed.
func (s *FileStore) Save(ctx context.Context, conv *conversation.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.path == "" {
		return errors.New("history path is not set")
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp history: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp history: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace history %s: %w", s.path, err)
	}

	s.logger.Debug().Int("messages", conv.Len()).Msg("history saved")
	return nil
}

// Clear moves the current document to a timestamped backup next to it and
// writes fresh in its place.
func (s *FileStore) Clear(ctx context.Context, fresh *conversation.Conversation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	backup := s.BackupPath(s.now())
	switch err := os.Rename(s.path, backup); {
	case err == nil:
		s.logger.Info().Str("backup", backup).Msg("history backed up")
	case errors.Is(err, fs.ErrNotExist):
	default:
		return fmt.Errorf("back up history to %s: %w", backup, err)
	}

	return s.Save(ctx, fresh)
}

// BackupPath names the backup written by a Clear at t:
// <path>_<YYYYMMDDHHMMSS>.json, e.g. history.json_20240309140507.json.
func (s *FileStore) BackupPath(t time.Time) string {
	return s.path + "_" + t.Format(BackupTimeLayout) + ".json"
}

// Watch calls fn whenever the history document is written, replaced or
// removed, until ctx is done. The directory is watched because saves replace
// the file by rename.
func (s *FileStore) Watch(ctx context.Context, fn func(fsnotify.Event)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create history directory %s: %w", dir, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	target := filepath.Clean(s.path)
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				fn(event)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn().Err(err).Msg("history watcher error")
		}
	}
}

func validateHistory(data []byte) error {
	schema, err := compiledHistorySchema()
	if err != nil {
		return fmt.Errorf("compile history schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return fmt.Errorf("schema validation errors: %s", strings.Join(problems, "; "))
	}
	return nil
}

var _ ports.HistoryStore = (*FileStore)(nil)
