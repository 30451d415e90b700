package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-based history store.
// Use ":memory:" for an in-memory database, or a file path for persistence;
// parent directories are created as needed.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create history directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close() // Best effort cleanup on initialization error
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS builds (
		id TEXT PRIMARY KEY,
		base_name TEXT NOT NULL,
		outcome TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		started INTEGER NOT NULL,
		git_commit TEXT
	);
	CREATE TABLE IF NOT EXISTS build_stages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		build_id TEXT NOT NULL,
		stage TEXT NOT NULL,
		result TEXT NOT NULL,
		duration_ms INTEGER NOT NULL,
		at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_builds_started ON builds(started);
	CREATE INDEX IF NOT EXISTS idx_stages_build_id ON build_stages(build_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// RecordBuild persists a completed build summary.
func (s *SQLiteStore) RecordBuild(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO builds (id, base_name, outcome, duration_ms, started, git_commit) VALUES (?, ?, ?, ?, ?, ?)",
		rec.ID, rec.BaseName, rec.Outcome, rec.Duration.Milliseconds(), rec.StartedAt.Unix(), rec.GitCommit,
	)
	if err != nil {
		return fmt.Errorf("insert build: %w", err)
	}
	return nil
}

// AppendStage adds a stage outcome for a build.
func (s *SQLiteStore) AppendStage(ctx context.Context, ev StageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO build_stages (build_id, stage, result, duration_ms, at) VALUES (?, ?, ?, ?, ?)",
		ev.BuildID, ev.Stage, ev.Result, ev.Duration.Milliseconds(), ev.At.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert stage event: %w", err)
	}
	return nil
}

// Recent returns the most recent builds, newest first.
func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, base_name, outcome, duration_ms, started, git_commit FROM builds ORDER BY started DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query builds: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var durationMS, started int64
		var gitCommit sql.NullString
		if err := rows.Scan(&rec.ID, &rec.BaseName, &rec.Outcome, &durationMS, &started, &gitCommit); err != nil {
			return nil, fmt.Errorf("scan build row: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.StartedAt = time.Unix(started, 0)
		rec.GitCommit = gitCommit.String
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stages returns the stage events for a specific build in order.
func (s *SQLiteStore) Stages(ctx context.Context, buildID string) ([]StageEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT build_id, stage, result, duration_ms, at FROM build_stages WHERE build_id = ? ORDER BY id",
		buildID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stage events: %w", err)
	}
	defer rows.Close()

	var events []StageEvent
	for rows.Next() {
		var ev StageEvent
		var durationMS, at int64
		if err := rows.Scan(&ev.BuildID, &ev.Stage, &ev.Result, &durationMS, &at); err != nil {
			return nil, fmt.Errorf("scan stage row: %w", err)
		}
		ev.Duration = time.Duration(durationMS) * time.Millisecond
		ev.At = time.Unix(at, 0)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Close closes the store and releases resources.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
