// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package store persists users, fields, and papers in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-tracker/pkg/types"
)

// ErrNotFound reports that a referenced record does not exist, or is not
// visible to the requesting user.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate reports a uniqueness violation: a field name already used
// by the user, or a DOI already registered in the field.
var ErrDuplicate = errors.New("record already exists")

// DefaultUserID is the single pre-provisioned user. Authentication is a
// stub for now; every request is attributed to this user.
const DefaultUserID int64 = 1

// Store manages the paper-tracker SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at dbPath, creating the
// schema and the default user if missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS fields (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			name TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			field_id INTEGER NOT NULL REFERENCES fields(id),
			doi TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			month INTEGER,
			day INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_fields_user_id ON fields(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_field_id ON papers(field_id)`,
		`INSERT INTO users (id, name)
			SELECT 1, 'default'
			WHERE NOT EXISTS (SELECT 1 FROM users WHERE id = 1)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	return nil
}

// EnsureUser creates the user record if it does not already exist.
func (s *Store) EnsureUser(ctx context.Context, id int64, name string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, name)
		 SELECT ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM users WHERE id = ?)`, id, name, id)
	if err != nil {
		return fmt.Errorf("ensuring user %d: %w", id, err)
	}
	return nil
}

// CreateField registers a new research field for the user. A field name
// already used by the same user yields ErrDuplicate.
func (s *Store) CreateField(ctx context.Context, userID int64, name string) (types.Field, error) {
	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM fields WHERE user_id = ? AND name = ?`, userID, name).Scan(&existing)
	switch {
	case err == nil:
		return types.Field{}, fmt.Errorf("%w: field %q", ErrDuplicate, name)
	case !errors.Is(err, sql.ErrNoRows):
		return types.Field{}, fmt.Errorf("checking for existing field: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fields (user_id, name) VALUES (?, ?)`, userID, name)
	if err != nil {
		return types.Field{}, fmt.Errorf("inserting field: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return types.Field{}, fmt.Errorf("reading field id: %w", err)
	}

	return types.Field{ID: id, UserID: userID, Name: name}, nil
}

// ListFields returns the user's fields ordered by id.
func (s *Store) ListFields(ctx context.Context, userID int64) ([]types.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name FROM fields WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing fields: %w", err)
	}
	defer rows.Close()

	var fields []types.Field
	for rows.Next() {
		var f types.Field
		if err := rows.Scan(&f.ID, &f.UserID, &f.Name); err != nil {
			return nil, fmt.Errorf("scanning field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// GetField looks up a field by id, scoped to the owning user. A missing
// or foreign field yields ErrNotFound.
func (s *Store) GetField(ctx context.Context, id, userID int64) (types.Field, error) {
	var f types.Field
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name FROM fields WHERE id = ? AND user_id = ?`, id, userID).
		Scan(&f.ID, &f.UserID, &f.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Field{}, fmt.Errorf("%w: field %d", ErrNotFound, id)
	}
	if err != nil {
		return types.Field{}, fmt.Errorf("looking up field: %w", err)
	}
	return f, nil
}

// CreatePaper registers a paper under a field. The field must exist for
// the user (ErrNotFound otherwise); a DOI already registered in the same
// field yields ErrDuplicate.
func (s *Store) CreatePaper(ctx context.Context, p types.Paper) (types.Paper, error) {
	if _, err := s.GetField(ctx, p.FieldID, p.UserID); err != nil {
		return types.Paper{}, err
	}

	var existing int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM papers WHERE user_id = ? AND field_id = ? AND doi = ?`,
		p.UserID, p.FieldID, p.DOI).Scan(&existing)
	switch {
	case err == nil:
		return types.Paper{}, fmt.Errorf("%w: paper %s in field %d", ErrDuplicate, p.DOI, p.FieldID)
	case !errors.Is(err, sql.ErrNoRows):
		return types.Paper{}, fmt.Errorf("checking for existing paper: %w", err)
	}

	authors, err := encodeAuthors(p.Authors)
	if err != nil {
		return types.Paper{}, err
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO papers (user_id, field_id, doi, title, authors, year, month, day)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.FieldID, p.DOI, p.Title, authors, p.Year, p.Month, p.Day)
	if err != nil {
		return types.Paper{}, fmt.Errorf("inserting paper: %w", err)
	}

	p.ID, err = res.LastInsertId()
	if err != nil {
		return types.Paper{}, fmt.Errorf("reading paper id: %w", err)
	}
	return p, nil
}

// ListPapersByField returns the field's papers in registration order,
// scoped to the owning user.
func (s *Store) ListPapersByField(ctx context.Context, fieldID, userID int64) ([]types.Paper, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, field_id, doi, title, authors, year, month, day
		 FROM papers WHERE field_id = ? AND user_id = ? ORDER BY id`, fieldID, userID)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	var papers []types.Paper
	for rows.Next() {
		var p types.Paper
		var authors sql.NullString
		if err := rows.Scan(&p.ID, &p.UserID, &p.FieldID, &p.DOI, &p.Title, &authors, &p.Year, &p.Month, &p.Day); err != nil {
			return nil, fmt.Errorf("scanning paper: %w", err)
		}
		p.Authors = decodeAuthors(authors.String)
		papers = append(papers, p)
	}
	return papers, rows.Err()
}

// DeletePaper removes a paper by id, scoped to the owning user. A
// missing or foreign paper yields ErrNotFound.
func (s *Store) DeletePaper(ctx context.Context, id, userID int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM papers WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("deleting paper: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: paper %d", ErrNotFound, id)
	}
	return nil
}

// Authors are stored as a JSON array to keep their order.

func encodeAuthors(authors []string) (string, error) {
	if len(authors) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(authors)
	if err != nil {
		return "", fmt.Errorf("encoding authors: %w", err)
	}
	return string(data), nil
}

func decodeAuthors(s string) []string {
	if s == "" {
		return nil
	}
	var authors []string
	if err := json.Unmarshal([]byte(s), &authors); err != nil {
		return nil
	}
	return authors
}
