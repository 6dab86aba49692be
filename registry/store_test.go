package registry

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	learnrec "github.com/usr-ein/learn-n-recognize"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "subjects.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(sqlx.NewDb(db, Postgres)), mock
}

func TestStore_ShouldRejectUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "")
	assert.Error(t, err)
}

func TestStore_SQLiteRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	subjects, err := s.Subjects(ctx)
	require.NoError(t, err)
	assert.Empty(t, subjects)

	ann, err := s.Insert(ctx, "ann")
	require.NoError(t, err)
	bob, err := s.Insert(ctx, "bob")
	require.NoError(t, err)
	assert.NotEqual(t, ann.ID, bob.ID)

	name, err := s.Name(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", name)

	ok, err := s.Exists(ctx, "ann")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "carl")
	require.NoError(t, err)
	assert.False(t, ok)

	subjects, err = s.Subjects(ctx)
	require.NoError(t, err)
	assert.Equal(t, []learnrec.Subject{ann, bob}, subjects)
}

func TestStore_SQLiteDuplicateName(t *testing.T) {
	ctx := context.Background()
	s := openSQLite(t)

	_, err := s.Insert(ctx, "ann")
	require.NoError(t, err)
	_, err = s.Insert(ctx, "ann")
	assert.ErrorIs(t, err, learnrec.ErrSubjectExists)
}

func TestStore_SQLiteUnknownId(t *testing.T) {
	_, err := openSQLite(t).Name(context.Background(), 42)
	assert.ErrorIs(t, err, learnrec.ErrSubjectNotFound)
}

func TestStore_SQLiteShouldKeepSubjectsAcrossSessions(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "subjects.db")

	s, err := Open(ctx, SQLite, path)
	require.NoError(t, err)
	ann, err := s.Insert(ctx, "ann")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(ctx, SQLite, path)
	require.NoError(t, err)
	defer s.Close()
	name, err := s.Name(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, "ann", name)
}

func TestStore_PostgresMigrate(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS subjects")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PostgresInsert(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subjects (name) VALUES ($1) RETURNING id")).
		WithArgs("ann").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	subject, err := s.Insert(context.Background(), "ann")
	require.NoError(t, err)
	assert.Equal(t, learnrec.Subject{ID: 7, Name: "ann"}, subject)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PostgresUniqueViolation(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subjects")).
		WithArgs("ann").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	_, err := s.Insert(context.Background(), "ann")
	assert.ErrorIs(t, err, learnrec.ErrSubjectExists)
}

func TestStore_PostgresInsertFailure(t *testing.T) {
	s, mock := newMock(t)
	failure := errors.New("connection reset by peer")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO subjects")).WillReturnError(failure)

	_, err := s.Insert(context.Background(), "ann")
	assert.ErrorIs(t, err, failure)
	assert.NotErrorIs(t, err, learnrec.ErrSubjectExists)
}

func TestStore_PostgresName(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM subjects WHERE id = $1")).
		WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("carl"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT name FROM subjects WHERE id = $1")).
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	name, err := s.Name(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "carl", name)

	_, err = s.Name(context.Background(), 4)
	assert.ErrorIs(t, err, learnrec.ErrSubjectNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_PostgresSubjects(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name FROM subjects ORDER BY id")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).AddRow(1, "ann").AddRow(2, "bob"))

	subjects, err := s.Subjects(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []learnrec.Subject{{ID: 1, Name: "ann"}, {ID: 2, Name: "bob"}}, subjects)
}

func TestStore_PostgresExistsFailure(t *testing.T) {
	s, mock := newMock(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM subjects WHERE name = $1")).
		WithArgs("ann").
		WillReturnError(errors.New("timeout"))

	_, err := s.Exists(context.Background(), "ann")
	assert.Error(t, err)
}
