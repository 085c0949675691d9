package db

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io"
	"log"
	"strings"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/Kamar-Folarin/github-trending/internal/errors"
	"github.com/Kamar-Folarin/github-trending/internal/models"
)

const reposTable = "repos"

//go:embed migrations/*.sql
var migrations embed.FS

// Store defines the interface for snapshot persistence
type Store interface {
	TableExists(ctx context.Context) (bool, error)
	Migrate(ctx context.Context) error

	ListSnapshots(ctx context.Context) ([]*models.Snapshot, error)
	GetSnapshot(ctx context.Context, id int64) (*models.Snapshot, error)
	GetSnapshotByName(ctx context.Context, name string) (*models.Snapshot, error)
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
	PruneBelowRank(ctx context.Context, rank int) (int64, error)
	CountSnapshots(ctx context.Context) (int64, error)

	Close() error
}

// Dialect names the SQL backend behind a SQLStore
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// SQLStore implements Store on top of database/sql. The embedded SQLite
// backend is the default; a postgres:// DSN selects PostgreSQL.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	logger  *logrus.Logger
}

// DetectDialect picks the backend for a store location.
func DetectDialect(location string) Dialect {
	if strings.HasPrefix(location, "postgres://") || strings.HasPrefix(location, "postgresql://") {
		return DialectPostgres
	}
	return DialectSQLite
}

// Open opens the store at location. For SQLite the location is a file path,
// for PostgreSQL a connection string. No connection is made yet, so an
// unreachable or corrupt database surfaces as a store error on first use.
func Open(location string, logger *logrus.Logger) (*SQLStore, error) {
	dialect := DetectDialect(location)

	driver, dsn := "sqlite", sqliteDSN(location)
	if dialect == DialectPostgres {
		driver, dsn = "postgres", location
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite {
		// one writer keeps sync cycles and HTTP reads from tripping over SQLITE_BUSY
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	logger.WithFields(logrus.Fields{
		"dialect":  dialect,
		"location": redact(location, dialect),
	}).Debug("Database opened")

	return &SQLStore{db: db, dialect: dialect, logger: logger}, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

func redact(location string, dialect Dialect) string {
	if dialect == DialectSQLite {
		return location
	}
	if i := strings.Index(location, "@"); i >= 0 {
		return location[:strings.Index(location, "://")+3] + "***" + location[i:]
	}
	return location
}

// TableExists reports whether the repos table is present
func (s *SQLStore) TableExists(ctx context.Context) (bool, error) {
	query := `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`
	if s.dialect == DialectPostgres {
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = $1`
	}

	var n int
	if err := s.db.QueryRowContext(ctx, query, reposTable).Scan(&n); err != nil {
		return false, errors.NewStoreError("failed to check table existence", err)
	}
	return n > 0, nil
}

// Migrate creates the schema if it does not exist yet
func (s *SQLStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(string(s.dialect)); err != nil {
		return errors.NewStoreError("unsupported dialect", err)
	}

	if s.logger.IsLevelEnabled(logrus.DebugLevel) {
		goose.SetLogger(s.logger)
	} else {
		goose.SetLogger(log.New(io.Discard, "", 0))
	}

	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return errors.NewStoreError("failed to run migrations", err)
	}

	return nil
}

// Close closes the database handle
func (s *SQLStore) Close() error {
	return s.db.Close()
}
