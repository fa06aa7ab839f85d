package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

// ErrDuplicateName is returned when seeding collides with the unique
// event name constraint. The whole seed batch is rolled back.
var ErrDuplicateName = errors.New("event name already exists")

// createStatements define the three persistent relations. Creation is
// idempotent; running them against an existing schema is a no-op.
var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS accounts (
		id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		is_admin TINYINT NOT NULL DEFAULT 0
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS events (
		id BIGINT UNSIGNED PRIMARY KEY AUTO_INCREMENT,
		name VARCHAR(255) UNIQUE,
		date DOUBLE NOT NULL,
		price DOUBLE NOT NULL,
		seats_available BIGINT
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS reservations (
		account_id BIGINT UNSIGNED NOT NULL,
		event_id BIGINT UNSIGNED NOT NULL,
		barcode BIGINT UNIQUE,
		FOREIGN KEY (account_id) REFERENCES accounts(id),
		FOREIGN KEY (event_id) REFERENCES events(id)
	) ENGINE=InnoDB`,
}

// SchemaManager creates, seeds and drops the application schema. It
// is used by the setup and reset commands only; normal operation
// assumes the schema already exists.
type SchemaManager struct {
	db  *sql.DB
	log *zap.Logger
}

// NewSchemaManager returns a SchemaManager bound to the given database.
func NewSchemaManager(db *sql.DB, log *zap.Logger) *SchemaManager {
	return &SchemaManager{db: db, log: log}
}

// CreateSchema creates the accounts, events and reservations tables
// if they do not already exist. Storage errors are propagated.
func (m *SchemaManager) CreateSchema(ctx context.Context) error {
	for _, stmt := range createStatements {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			m.log.Error("schema creation failed", zap.Error(err))
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// SeedEvents bulk-inserts the catalog feed read from r. The insert is
// all-or-nothing: a name collision rolls back the whole batch and
// returns ErrDuplicateName.
func (m *SchemaManager) SeedEvents(ctx context.Context, r io.Reader) error {
	entries, err := DecodeCatalog(r)
	if err != nil {
		return err
	}
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	for _, e := range entries {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO events (name, date, price, seats_available) VALUES (?, ?, ?, ?)",
			e.Name, e.Date, e.Price, e.SeatsAvailable)
		if isDuplicateKey(err) {
			m.log.Error("duplicate event name in catalog", zap.String("name", e.Name))
			return ErrDuplicateName
		}
		if err != nil {
			m.log.Error("event seed insert failed", zap.String("name", e.Name), zap.Error(err))
			return fmt.Errorf("seed event %q: %w", e.Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit seed transaction: %w", err)
	}
	committed = true
	m.log.Info("event catalog seeded", zap.Int("events", len(entries)))
	return nil
}

// DropSchema destroys all three tables. Environment reset only.
func (m *SchemaManager) DropSchema(ctx context.Context) error {
	// reservations first, it references the other two
	for _, table := range []string{"reservations", "events", "accounts"} {
		if _, err := m.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
			m.log.Error("schema drop failed", zap.String("table", table), zap.Error(err))
			return fmt.Errorf("drop table %s: %w", table, err)
		}
	}
	return nil
}

// isDuplicateKey reports whether err is a MySQL duplicate-key error (1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
