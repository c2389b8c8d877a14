// Package sqlite stores the document tree in a local SQLite file, one row per
// leaf value keyed by its full path.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/englishmaster/internal/adapters/storage/docpath"
	"github.com/PabloGalante/englishmaster/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS nodes (
	path  TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Get(ctx context.Context, path string) (json.RawMessage, error) {
	parts, err := docpath.Split(path)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}
	base := docpath.Join(parts...)

	rows, err := s.db.QueryContext(ctx,
		"SELECT path, value FROM nodes WHERE path = ? OR substr(path, 1, length(?)) = ?",
		base, base+"/", base+"/")
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}
	defer rows.Close()

	leaves := make(map[string]json.RawMessage)
	for rows.Next() {
		var full, value string
		if err := rows.Scan(&full, &value); err != nil {
			return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
		}
		rel, _ := docpath.Rel(base, full)
		leaves[rel] = json.RawMessage(value)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}

	raw, err := docpath.Unflatten(leaves)
	if err != nil {
		return nil, &domain.StoreError{Op: "get", Path: path, Err: err}
	}
	return raw, nil
}

func (s *Store) Put(ctx context.Context, path string, value any) error {
	if err := s.put(ctx, path, value); err != nil {
		return &domain.StoreError{Op: "put", Path: path, Err: err}
	}
	return nil
}

func (s *Store) put(ctx context.Context, path string, value any) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return err
	}
	base := docpath.Join(parts...)

	v, err := docpath.Normalize(value)
	if err != nil {
		return err
	}
	leaves, err := docpath.Flatten(v)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := deleteSubtree(ctx, tx, base); err != nil {
		return err
	}
	// a scalar stored at an ancestor would shadow the new subtree
	for _, anc := range docpath.Ancestors(parts) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM nodes WHERE path = ?", anc); err != nil {
			return fmt.Errorf("delete ancestor %s: %w", anc, err)
		}
	}

	for rel, raw := range leaves {
		full := base
		if rel != "" {
			full = base + "/" + rel
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO nodes (path, value) VALUES (?, ?)", full, string(raw)); err != nil {
			return fmt.Errorf("insert %s: %w", full, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) Post(ctx context.Context, path string, value any) (string, error) {
	if _, err := docpath.Split(path); err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}

	key := docpath.NewKey()
	if err := s.put(ctx, docpath.Join(path, key), value); err != nil {
		return "", &domain.StoreError{Op: "post", Path: path, Err: err}
	}
	return key, nil
}

func (s *Store) Delete(ctx context.Context, path string) error {
	parts, err := docpath.Split(path)
	if err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}

	if err := deleteSubtree(ctx, s.db, docpath.Join(parts...)); err != nil {
		return &domain.StoreError{Op: "delete", Path: path, Err: err}
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// substr and length count characters, so the prefix is measured in SQL.
func deleteSubtree(ctx context.Context, db execer, base string) error {
	_, err := db.ExecContext(ctx,
		"DELETE FROM nodes WHERE path = ? OR substr(path, 1, length(?)) = ?",
		base, base+"/", base+"/")
	if err != nil {
		return fmt.Errorf("delete %s: %w", base, err)
	}
	return nil
}
