// Package mysql implements the storage interface against a MySQL
// server. It is the multi-user backend; the CLI's default single-user
// backend is the memory store's JSON snapshot.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/go-sql-driver/mysql"

	"github.com/visaops/caseflow/internal/storage"
)

// Verify Store implements storage.Storage at compile time
var _ storage.Storage = (*Store)(nil)

// Store is a MySQL-backed storage implementation.
type Store struct {
	db *sql.DB
}

// Config holds MySQL connection configuration.
type Config struct {
	Host     string // default 127.0.0.1
	Port     int    // default 3306
	User     string // default root
	Password string
	Database string // default caseflow
	TLS      string // "", "true", "skip-verify", or a registered tls config name
}

const openRetryMaxElapsed = 30 * time.Second

func newOpenBackoff() backoff.BackOff {
	// BackOff implementations are stateful; always return a fresh instance.
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = openRetryMaxElapsed
	return bo
}

// isRetryableError reports whether the error is a transient connection
// error worth retrying.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	errStr := strings.ToLower(err.Error())
	for _, marker := range []string{
		"driver: bad connection",
		"invalid connection",
		"broken pipe",
		"connection reset",
		"connection refused",
		"lost connection",
		"gone away",
		"i/o timeout",
	} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

var databaseNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

func buildDSN(cfg *Config, database string) string {
	userPart := cfg.User
	if cfg.Password != "" {
		userPart += ":" + cfg.Password
	}
	dbPart := "/"
	if database != "" {
		dbPart = "/" + database
	}
	params := "parseTime=true"
	if cfg.TLS != "" {
		params += "&tls=" + cfg.TLS
	}
	return fmt.Sprintf("%s@tcp(%s:%d)%s?%s", userPart, cfg.Host, cfg.Port, dbPart, params)
}

// Open connects to the server, creates the database if needed, and
// ensures the schema is current. Connection failures are retried with
// exponential backoff so a server still starting up doesn't fail the
// caller immediately.
func Open(ctx context.Context, cfg *Config) (*Store, error) {
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 3306
	}
	if cfg.User == "" {
		cfg.User = "root"
	}
	if cfg.Database == "" {
		cfg.Database = "caseflow"
	}
	if !databaseNamePattern.MatchString(cfg.Database) {
		return nil, fmt.Errorf("invalid database name %q", cfg.Database)
	}

	// Connect without a database first so we can create it.
	initDB, err := sql.Open("mysql", buildDSN(cfg, ""))
	if err != nil {
		return nil, fmt.Errorf("open init connection: %w", err)
	}
	defer func() { _ = initDB.Close() }()

	err = backoff.Retry(func() error {
		pingErr := initDB.PingContext(ctx)
		if pingErr != nil && isRetryableError(pingErr) {
			return pingErr
		}
		if pingErr != nil {
			return backoff.Permanent(pingErr)
		}
		return nil
	}, backoff.WithContext(newOpenBackoff(), ctx))
	if err != nil {
		return nil, fmt.Errorf("connect to MySQL at %s:%d: %w", cfg.Host, cfg.Port, err)
	}

	//nolint:gosec // G201: database name validated above
	if _, err := initDB.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", cfg.Database)); err != nil {
		return nil, fmt.Errorf("create database: %w", err)
	}

	db, err := sql.Open("mysql", buildDSN(cfg, cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("open connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initSchema(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// initSchema creates all tables if they don't exist.
func initSchema(ctx context.Context, db *sql.DB) error {
	// Fast path: skip the DDL when the schema is already current.
	var version int
	err := db.QueryRowContext(ctx, "SELECT `value` FROM config WHERE `key` = 'schema_version'").Scan(&version)
	if err == nil && version >= currentSchemaVersion {
		return nil
	}

	for _, stmt := range splitStatements(schema) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

// nullTime maps a *time.Time to its sql NULL representation.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}
