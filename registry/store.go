// Package registry persists the enrolled subjects in a SQL database.
// SQLite databases are used for local enrollment, PostgreSQL to share the
// registry between several stations.
package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	learnrec "github.com/usr-ein/learn-n-recognize"
)

// Supported drivers.
const (
	SQLite   = "sqlite"
	Postgres = "postgres"
)

var schemas = map[string]string{
	SQLite: `CREATE TABLE IF NOT EXISTS subjects (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	Postgres: `CREATE TABLE IF NOT EXISTS subjects (
		id         SERIAL PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Store is a subject registry backed by a SQL database.
type Store struct {
	db *sqlx.DB
}

// Open connects to the database and creates the schema when missing.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("unsupported registry driver %q", driver)
	}
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to open the registry: %w", err)
	}
	if driver == SQLite {
		// SQLite serializes the writers anyway.
		db.SetMaxOpenConns(1)
	}

	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle.
func New(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the subjects table.
func (s *Store) Migrate(ctx context.Context) error {
	schema, ok := schemas[s.db.DriverName()]
	if !ok {
		return fmt.Errorf("unsupported registry driver %q", s.db.DriverName())
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("unable to create the registry schema: %w", err)
	}
	return nil
}

// Insert enrolls a new subject and returns it with its assigned id.
func (s *Store) Insert(ctx context.Context, name string) (learnrec.Subject, error) {
	subject := learnrec.Subject{Name: name}
	err := s.db.QueryRowxContext(ctx,
		s.db.Rebind(`INSERT INTO subjects (name) VALUES (?) RETURNING id`), name,
	).Scan(&subject.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return learnrec.Subject{}, fmt.Errorf("%w: %q", learnrec.ErrSubjectExists, name)
		}
		return learnrec.Subject{}, fmt.Errorf("unable to insert subject %q: %w", name, err)
	}
	return subject, nil
}

// Name returns the name of the subject with the given id.
func (s *Store) Name(ctx context.Context, id int) (string, error) {
	var name string
	err := s.db.GetContext(ctx, &name, s.db.Rebind(`SELECT name FROM subjects WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: #%d", learnrec.ErrSubjectNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("unable to look up subject #%d: %w", id, err)
	}
	return name, nil
}

// Exists reports whether a subject with the given name is enrolled.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.GetContext(ctx, &n, s.db.Rebind(`SELECT COUNT(*) FROM subjects WHERE name = ?`), name)
	if err != nil {
		return false, fmt.Errorf("unable to look up subject %q: %w", name, err)
	}
	return n > 0, nil
}

// Subjects returns every enrolled subject ordered by id.
func (s *Store) Subjects(ctx context.Context) ([]learnrec.Subject, error) {
	var subjects []learnrec.Subject
	if err := s.db.SelectContext(ctx, &subjects, `SELECT id, name FROM subjects ORDER BY id`); err != nil {
		return nil, fmt.Errorf("unable to list subjects: %w", err)
	}
	return subjects, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
