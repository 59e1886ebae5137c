// Package history persists exported metric snapshots in SQLite so the most
// recent documents survive restarts and are queryable from the admin API.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNoSnapshots is returned by Latest when the store is empty.
var ErrNoSnapshots = errors.New("no snapshots recorded")

// Snapshot is one exported registry snapshot.
type Snapshot struct {
	ID        string
	Registry  string
	CreatedAt time.Time
	Body      string
}

// Store is a SQLite-backed snapshot history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens (or creates) a snapshot store at dbPath. Use ":memory:" for an
// in-memory database.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return store, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS snapshots (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		registry TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		body BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_registry ON snapshots(registry);
	CREATE INDEX IF NOT EXISTS idx_snapshots_created_at ON snapshots(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Append records a snapshot.
func (s *Store) Append(ctx context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO snapshots (id, registry, created_at, body) VALUES (?, ?, ?, ?)",
		snap.ID, snap.Registry, snap.CreatedAt.UnixNano(), []byte(snap.Body),
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Latest returns the most recently appended snapshot.
func (s *Store) Latest(ctx context.Context) (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT id, registry, created_at, body FROM snapshots ORDER BY seq DESC LIMIT 1")
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoSnapshots
	}
	return snap, err
}

// Recent returns up to n snapshots, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, registry, created_at, body FROM snapshots ORDER BY seq DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return snaps, nil
}

// Prune deletes all but the newest keep snapshots. keep <= 0 is a no-op.
func (s *Store) Prune(ctx context.Context, keep int) error {
	if keep <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		"DELETE FROM snapshots WHERE seq NOT IN (SELECT seq FROM snapshots ORDER BY seq DESC LIMIT ?)", keep)
	if err != nil {
		return fmt.Errorf("prune snapshots: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (Snapshot, error) {
	var snap Snapshot
	var createdAt int64
	var body []byte
	if err := row.Scan(&snap.ID, &snap.Registry, &createdAt, &body); err != nil {
		return Snapshot{}, err
	}
	snap.CreatedAt = time.Unix(0, createdAt)
	snap.Body = string(body)
	return snap, nil
}
