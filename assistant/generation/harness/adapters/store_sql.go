package adapters

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ZanzyTHEbar/coding-assistant/assistant/conversation"
	ports "github.com/ZanzyTHEbar/coding-assistant/assistant/generation/harness/ports"
	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLStore keeps one conversation document per session key in a SQL database.
type SQLStore struct {
	db         *sql.DB
	sessionKey string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewSQLStore applies pending migrations for dialect and returns a store
// scoped to sessionKey.
func NewSQLStore(ctx context.Context, db *sql.DB, dialect goose.Dialect, sessionKey string, logger zerolog.Logger) (*SQLStore, error) {
	if err := Migrate(ctx, db, dialect); err != nil {
		return nil, err
	}
	return &SQLStore{
		db:         db,
		sessionKey: sessionKey,
		logger:     logger.With().Str("store", "sql").Str("session", sessionKey).Logger(),
		now:        time.Now,
	}, nil
}

// Migrate runs the embedded goose migrations.
func Migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect) error {
	migrations, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}
	provider, err := goose.NewProvider(dialect, db, migrations)
	if err != nil {
		return fmt.Errorf("failed to create goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("failed to run goose migrations: %w", err)
	}
	return nil
}

func (s *SQLStore) Load(ctx context.Context) (*conversation.Conversation, error) {
	var document string
	err := s.db.QueryRowContext(ctx,
		`SELECT document FROM conversations WHERE session_key = ?`, s.sessionKey,
	).Scan(&document)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ports.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query conversation: %w", err)
	}

	if err := validateHistory([]byte(document)); err != nil {
		return nil, fmt.Errorf("conversation %s: %w", s.sessionKey, err)
	}
	var conv conversation.Conversation
	if err := json.Unmarshal([]byte(document), &conv); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}
	return &conv, nil
}

func (s *SQLStore) Save(ctx context.Context, conv *conversation.Conversation) error {
	return s.upsert(ctx, s.db, conv)
}

// Clear copies the current document into conversation_backups and replaces
// it with fresh, in one transaction.
func (s *SQLStore) Clear(ctx context.Context, fresh *conversation.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO conversation_backups (session_key, conversation_id, document, backed_up_at)
		SELECT session_key, conversation_id, document, ?
		FROM conversations WHERE session_key = ?
	`, s.now().UTC().Format(time.RFC3339Nano), s.sessionKey)
	if err != nil {
		return fmt.Errorf("failed to back up conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.logger.Info().Msg("conversation backed up")
	}

	if err := s.upsert(ctx, tx, fresh); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}

// Backups returns the number of backups kept for the session.
func (s *SQLStore) Backups(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversation_backups WHERE session_key = ?`, s.sessionKey,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count backups: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *SQLStore) upsert(ctx context.Context, db execer, conv *conversation.Conversation) error {
	document, err := json.Marshal(conv)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation: %w", err)
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO conversations (session_key, conversation_id, document, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			document = excluded.document,
			updated_at = excluded.updated_at
	`, s.sessionKey, conv.ID, string(document), s.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save conversation: %w", err)
	}

	s.logger.Debug().Int("messages", conv.Len()).Msg("conversation saved")
	return nil
}

var _ ports.HistoryStore = (*SQLStore)(nil)
