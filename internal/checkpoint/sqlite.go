package checkpoint

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// keepCheckpoints is how many rows SQLiteStore retains.
const keepCheckpoints = 10

// SQLiteStore appends snapshots to the stage_checkpoints table and prunes
// it to the most recent ones.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// OpenSQLite opens (or creates) the database at path in WAL mode.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS stage_checkpoints (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			saved_at   INTEGER NOT NULL,
			data       TEXT    NOT NULL
		);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log := slog.Default().With(slog.String("component", "checkpoint-sqlite"))
	log.Info("opened checkpoint database", slog.String("path", path))
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Name() string { return "sqlite" }

// DB returns the underlying handle for health checks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Save inserts snap and prunes all but the newest rows. A failed prune is
// logged, not returned.
func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_checkpoints (saved_at, data) VALUES (?, ?)`,
		snap.SavedAt.UnixNano(), string(data)); err != nil {
		return fmt.Errorf("sqlite insert checkpoint: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM stage_checkpoints WHERE id NOT IN (
			SELECT id FROM stage_checkpoints ORDER BY id DESC LIMIT ?
		)`, keepCheckpoints); err != nil {
		s.log.Warn("prune checkpoints failed", slog.Any("error", err))
	}
	return nil
}

// Load returns the newest snapshot, or nil and no error if there is none.
func (s *SQLiteStore) Load(ctx context.Context) (*Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM stage_checkpoints ORDER BY id DESC LIMIT 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite read checkpoint: %w", err)
	}
	return decode([]byte(data))
}

// Count returns the number of stored checkpoints.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stage_checkpoints`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
