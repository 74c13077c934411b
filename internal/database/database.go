package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"careercraft/internal/config"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	_ "github.com/mattn/go-sqlite3"    // sqlite3 driver
	"github.com/rs/zerolog"
)

// DB wraps *sql.DB with the dialect it talks to.
type DB struct {
	*sql.DB
	dialect string
	path    string
	logger  *zerolog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Open connects to the configured driver and creates the schema.
func Open(cfg config.DatabaseConfig, logger *zerolog.Logger) (*DB, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		return NewPostgresDB(cfg.Postgres.DSN(), cfg.Postgres.MaxConnections, logger)
	case config.DriverSQLite, "":
		return NewDB(cfg.Path, logger)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// NewDB opens a SQLite database. Write transactions take the lock up front
// (BEGIN IMMEDIATE) and wait up to five seconds for it.
func NewDB(path string, logger *zerolog.Logger) (*DB, error) {
	memory := path == ":memory:"
	if !memory {
		// Создаем директорию для БД, если её нет
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := path + "?_busy_timeout=5000&_txlock=immediate&_journal_mode=WAL"
	if memory {
		dsn = path + "?_busy_timeout=5000&_txlock=immediate"
	}

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// каждое соединение к :memory: это отдельная база
		sqlDB.SetMaxOpenConns(1)
	}

	db := &DB{DB: sqlDB, dialect: config.DriverSQLite, path: path, logger: logger}
	if err := db.init(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Str("path", path).Msg("Database initialized")
	return db, nil
}

// NewPostgresDB opens a Postgres database through the pgx stdlib driver.
func NewPostgresDB(dsn string, maxConns int, logger *zerolog.Logger) (*DB, error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if maxConns > 0 {
		sqlDB.SetMaxOpenConns(maxConns)
	}
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	db := &DB{DB: sqlDB, dialect: config.DriverPostgres, logger: logger}
	if err := db.init(); err != nil {
		sqlDB.Close()
		return nil, err
	}

	logger.Info().Msg("Postgres database initialized")
	return db, nil
}

func (db *DB) init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.createTables(ctx); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}

// Dialect returns config.DriverSQLite or config.DriverPostgres.
func (db *DB) Dialect() string { return db.dialect }

// Path is the SQLite file path, empty for Postgres.
func (db *DB) Path() string { return db.path }

// rebind rewrites ? placeholders to $n for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != config.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (db *DB) createTables(ctx context.Context) error {
	pk, blob, ts := "INTEGER PRIMARY KEY AUTOINCREMENT", "BLOB", "DATETIME"
	if db.dialect == config.DriverPostgres {
		pk, blob, ts = "BIGSERIAL PRIMARY KEY", "BYTEA", "TIMESTAMPTZ"
	}
	r := strings.NewReplacer("{pk}", pk, "{blob}", blob, "{ts}", ts)

	queries := []string{
		`CREATE TABLE IF NOT EXISTS consultations (
            id {pk},
            full_name TEXT NOT NULL,
            email TEXT NOT NULL,
            phone TEXT NOT NULL,
            meeting_date TEXT NOT NULL,
            meeting_time TEXT NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at {ts} NOT NULL,
            updated_at {ts} NOT NULL
        )`,
		// один активный слот на дату и время, отмененные не в счет
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_consultations_active_slot
            ON consultations(meeting_date, meeting_time) WHERE status <> 'cancelled'`,
		`CREATE INDEX IF NOT EXISTS idx_consultations_status ON consultations(status)`,

		`CREATE TABLE IF NOT EXISTS registrations (
            id {pk},
            full_name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            phone TEXT NOT NULL,
            roles TEXT NOT NULL DEFAULT '',
            created_at {ts} NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS partners (
            id {pk},
            name TEXT NOT NULL,
            created_at {ts} NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS success_stories (
            id {pk},
            quote TEXT NOT NULL,
            name TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT '',
            company TEXT NOT NULL DEFAULT '',
            rating INTEGER,
            created_at {ts} NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS courses (
            id {pk},
            icon TEXT NOT NULL DEFAULT '',
            title TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            full_description TEXT NOT NULL DEFAULT '',
            duration TEXT NOT NULL DEFAULT '',
            level TEXT NOT NULL DEFAULT '',
            features TEXT NOT NULL DEFAULT '',
            created_at {ts} NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS faqs (
            id {pk},
            question TEXT NOT NULL,
            answer TEXT NOT NULL,
            created_at {ts} NOT NULL
        )`,
		`CREATE TABLE IF NOT EXISTS site_stats (
            stat_key TEXT PRIMARY KEY,
            stat_value TEXT NOT NULL,
            updated_at {ts} NOT NULL
        )`,

		`CREATE TABLE IF NOT EXISTS artifacts (
            id {pk},
            owner_type TEXT NOT NULL,
            owner_id INTEGER NOT NULL,
            category TEXT NOT NULL,
            kind TEXT NOT NULL,
            filename TEXT NOT NULL,
            mime_type TEXT NOT NULL,
            size INTEGER NOT NULL,
            data {blob},
            location TEXT NOT NULL DEFAULT '',
            provider_id TEXT NOT NULL DEFAULT '',
            created_at {ts} NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_artifacts_owner ON artifacts(owner_type, owner_id)`,
	}

	for _, query := range queries {
		if _, err := db.ExecContext(ctx, r.Replace(query)); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction and commits when fn returns nil.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
