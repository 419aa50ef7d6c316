package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tang-isab/swimlane-chart/domain"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS board_snapshots (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	data TEXT NOT NULL,
	saved_at TEXT NOT NULL
);`

// SQLiteStore keeps the snapshot in a single-row SQLite table.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, wrapErr("open", "sqlite", err)
	}
	// one writer; sqlite serialises anyway
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapErr("open", "sqlite", err)
	}
	if err := EnsureSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// EnsureSQLiteSchema creates the snapshot table if missing.
func EnsureSQLiteSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, sqliteSchema)
	return wrapErr("migrate", "sqlite", err)
}

func (s *SQLiteStore) Load(ctx context.Context) (domain.Snapshot, error) {
	var data string
	err := s.db.QueryRowContext(ctx, `SELECT data FROM board_snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Snapshot{}, ErrEmpty
	}
	if err != nil {
		return domain.Snapshot{}, wrapErr("load", "sqlite", err)
	}
	var snap domain.Snapshot
	if err := sonic.UnmarshalString(data, &snap); err != nil {
		return domain.Snapshot{}, wrapErr("decode", "sqlite", err)
	}
	return snap, nil
}

func (s *SQLiteStore) Save(ctx context.Context, snap domain.Snapshot) error {
	data, err := sonic.MarshalString(snap)
	if err != nil {
		return wrapErr("encode", "sqlite", err)
	}
	savedAt := snap.LastSaved
	if savedAt == "" {
		savedAt = domain.FormatTimestamp(time.Now())
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO board_snapshots (id, data, saved_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET data = excluded.data, saved_at = excluded.saved_at`,
		data, savedAt)
	return wrapErr("save", "sqlite", err)
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
