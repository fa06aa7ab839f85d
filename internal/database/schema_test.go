package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestManager(t *testing.T) (*SchemaManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewSchemaManager(db, zap.NewNop()), mock
}

const seedQuery = "INSERT INTO events (name, date, price, seats_available) VALUES (?, ?, ?, ?)"

func TestCreateSchema(t *testing.T) {
	t.Run("creates all three tables", func(t *testing.T) {
		m, mock := newTestManager(t)
		for _, stmt := range createStatements {
			mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
		}
		require.NoError(t, m.CreateSchema(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("propagates storage errors", func(t *testing.T) {
		m, mock := newTestManager(t)
		mock.ExpectExec(createStatements[0]).WillReturnError(errors.New("access denied"))
		require.Error(t, m.CreateSchema(context.Background()))
	})
}

func TestSeedEvents(t *testing.T) {
	feed := `[["Concert", 1893456000, 100.5, 2], ["Opera", 1896134400, 150, 30]]`

	t.Run("inserts the whole batch in one transaction", func(t *testing.T) {
		m, mock := newTestManager(t)
		mock.ExpectBegin()
		mock.ExpectExec(seedQuery).
			WithArgs("Concert", float64(1893456000), 100.5, 2).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(seedQuery).
			WithArgs("Opera", float64(1896134400), float64(150), 30).
			WillReturnResult(sqlmock.NewResult(2, 1))
		mock.ExpectCommit()

		require.NoError(t, m.SeedEvents(context.Background(), strings.NewReader(feed)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("name collision rolls back the whole batch", func(t *testing.T) {
		m, mock := newTestManager(t)
		mock.ExpectBegin()
		mock.ExpectExec(seedQuery).
			WithArgs("Concert", float64(1893456000), 100.5, 2).
			WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate entry"})
		mock.ExpectRollback()

		err := m.SeedEvents(context.Background(), strings.NewReader(feed))
		assert.ErrorIs(t, err, ErrDuplicateName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("bad feed fails before any storage access", func(t *testing.T) {
		m, mock := newTestManager(t)
		require.Error(t, m.SeedEvents(context.Background(), strings.NewReader(`[["x"]]`)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDropSchema(t *testing.T) {
	m, mock := newTestManager(t)
	mock.ExpectExec("DROP TABLE IF EXISTS reservations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS events").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP TABLE IF EXISTS accounts").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, m.DropSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
