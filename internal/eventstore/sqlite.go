package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

var schema = []string{
	`CREATE TABLE IF NOT EXISTS run_events (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id     TEXT    NOT NULL,
		event_type TEXT    NOT NULL,
		timestamp  INTEGER NOT NULL,
		payload    BLOB    NOT NULL,
		metadata   TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_run_events_run_id ON run_events(run_id)`,
	`CREATE INDEX IF NOT EXISTS idx_run_events_timestamp ON run_events(timestamp)`,
}

const selectEvents = "SELECT id, run_id, event_type, timestamp, payload, metadata FROM run_events"

// SQLiteStore is a Store backed by a SQLite database. Writes are
// serialized; timestamps are kept with millisecond precision.
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens the event log at dbPath, creating the file, its
// directory and the schema as needed. ":memory:" yields a private log.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, storeError("could not create event store directory").WithCause(err).WithContext("path", dbPath).Build()
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, storeError("could not open event store database").WithCause(err).WithContext("path", dbPath).Build()
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, storeError("failed to initialize event store schema").WithCause(err).WithContext("path", dbPath).Build()
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if current > schemaVersion {
		return fmt.Errorf("event store schema version %d is newer than supported version %d", current, schemaVersion)
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Append adds a new event to the store.
func (s *SQLiteStore) Append(ctx context.Context, runID, eventType string, payload []byte, metadata map[string]string) error {
	var meta []byte
	if len(metadata) > 0 {
		var err error
		if meta, err = json.Marshal(metadata); err != nil {
			return fmt.Errorf("marshal metadata: %w", err)
		}
	}
	if payload == nil {
		payload = []byte("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO run_events (run_id, event_type, timestamp, payload, metadata) VALUES (?, ?, ?, ?, ?)",
		runID, eventType, s.now().UnixMilli(), payload, meta)
	if err != nil {
		return storeError("failed to append event to store").WithCause(err).WithContext("run_id", runID).Build()
	}
	return nil
}

// GetByRunID returns the events of one run in append order.
func (s *SQLiteStore) GetByRunID(ctx context.Context, runID string) ([]Event, error) {
	return s.query(ctx, " WHERE run_id = ? ORDER BY id", runID)
}

// GetRange returns the events stamped within [start, end] in append order.
func (s *SQLiteStore) GetRange(ctx context.Context, start, end time.Time) ([]Event, error) {
	return s.query(ctx, " WHERE timestamp >= ? AND timestamp <= ? ORDER BY id", start.UnixMilli(), end.UnixMilli())
}

func (s *SQLiteStore) query(ctx context.Context, clause string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectEvents+clause, args...)
	if err != nil {
		return nil, storeError("failed to query events from store").WithCause(err).Build()
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return events, nil
}

func scanEvent(rows *sql.Rows) (*BaseEvent, error) {
	var (
		e    BaseEvent
		ts   int64
		meta []byte
	)
	if err := rows.Scan(&e.EventID, &e.EventRunID, &e.EventType, &ts, &e.EventPayload, &meta); err != nil {
		return nil, fmt.Errorf("scan event: %w", err)
	}
	e.EventTimestamp = time.UnixMilli(ts)
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &e.EventMetadata); err != nil {
			return nil, fmt.Errorf("unmarshal metadata for event %d: %w", e.EventID, err)
		}
	}
	return &e, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
