// Package store is the sqlite-backed artifact registry publish plugins write
// to and the release verifier reads back from.
package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/releaser/internal/foundation/errors"
	"git.home.luguber.info/inful/releaser/internal/release"
)

// ErrNotFound is returned by Read when no record exists for a name.
var ErrNotFound = errors.New("artifact not found")

// Registry stores published artifact records.
type Registry struct {
	db  *sql.DB
	mu  sync.RWMutex
	now func() time.Time
}

// Open opens (creating if needed) the registry at path. ":memory:" is accepted.
func Open(path string) (*Registry, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, registryError("could not create registry directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, registryError("could not open registry database", err)
	}
	db.SetMaxOpenConns(1)

	r := &Registry{db: db, now: time.Now}
	if err := r.initialize(); err != nil {
		_ = db.Close()
		return nil, registryError("failed to initialize registry schema", err)
	}
	return r, nil
}

func (r *Registry) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		version TEXT NOT NULL,
		bound_commit TEXT NOT NULL,
		channel TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		published_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_artifacts_name ON artifacts(name);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_artifacts_name_version ON artifacts(name, version);
	`
	_, err := r.db.Exec(schema)
	return err
}

// Publish records a new version of an artifact. Publishing a version that
// already exists for the name fails.
func (r *Registry) Publish(ctx context.Context, a release.Artifact) error {
	if a.Name == "" || a.Version == "" {
		return ferrors.NewError(ferrors.KindPublish, "artifact name and version are required").Build()
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx,
		"INSERT INTO artifacts (name, version, bound_commit, channel, notes, published_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.Name, a.Version, a.BoundCommit, a.Channel, a.Notes, r.now().UnixMilli(),
	)
	if err != nil {
		return ferrors.WrapError(err, ferrors.KindPublish, "failed to record artifact").
			WithContext("name", a.Name).
			WithContext("version", a.Version).
			Build()
	}
	return nil
}

// Read returns the most recently published record for name.
func (r *Registry) Read(ctx context.Context, name string) (release.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row := r.db.QueryRowContext(ctx,
		"SELECT name, version, bound_commit, notes, published_at FROM artifacts WHERE name = ? ORDER BY id DESC LIMIT 1",
		name,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return release.Record{}, ErrNotFound
	}
	if err != nil {
		return release.Record{}, registryError("failed to read artifact", err)
	}
	return rec, nil
}

// List returns every record for name, newest first. An empty name lists all.
func (r *Registry) List(ctx context.Context, name string) ([]release.Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	query := "SELECT name, version, bound_commit, notes, published_at FROM artifacts"
	var args []any
	if name != "" {
		query += " WHERE name = ?"
		args = append(args, name)
	}
	query += " ORDER BY id DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, registryError("failed to list artifacts", err)
	}
	defer rows.Close()

	var out []release.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, registryError("failed to scan artifact", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, registryError("failed to iterate artifacts", err)
	}
	return out, nil
}

// Close closes the database connection.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (release.Record, error) {
	var rec release.Record
	var ts int64
	if err := s.Scan(&rec.Name, &rec.Version, &rec.BoundCommit, &rec.Notes, &ts); err != nil {
		return release.Record{}, err
	}
	rec.PublishedAt = time.UnixMilli(ts)
	return rec, nil
}

func registryError(msg string, cause error) error {
	return ferrors.NewError(ferrors.KindInternal, msg).
		WithCause(cause).
		WithContext("component", "store").
		Build()
}
