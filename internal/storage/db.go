package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"

	"bilancio/internal/core"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

var dbTracer = otel.Tracer("bilancio/storage")

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default
	sqlx.BindDriver(string(DriverSQLite), sqlx.QUESTION)
}

// DB wraps sqlx.DB with a span around every statement.
type DB struct {
	*sqlx.DB
	driver Driver
}

// Open connects to the database. For SQLite, dsn is a file path; its parent
// directory is created when missing.
func Open(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	connStr := dsn
	switch driver {
	case DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		connStr = sqliteDSN(dsn)
	case DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sqlx.Open(string(driver), connStr)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverPostgres {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &DB{DB: db, driver: driver}, nil
}

func sqliteDSN(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func (db *DB) system() string {
	if db.driver == DriverPostgres {
		return "postgresql"
	}
	return "sqlite"
}

func (db *DB) startSpan(ctx context.Context, name, query string) (context.Context, trace.Span) {
	return dbTracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("db.system", db.system()),
		attribute.String("db.operation", sqlVerb(query)),
		attribute.String("db.statement", query),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// SelectContext runs query after rebinding placeholders for the driver.
func (db *DB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	query = db.Rebind(query)
	ctx, span := db.startSpan(ctx, "db.Select", query)
	err := db.DB.SelectContext(ctx, dest, query, args...)
	endSpan(span, err)
	return err
}

func (db *DB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	query = db.Rebind(query)
	ctx, span := db.startSpan(ctx, "db.Get", query)
	err := db.DB.GetContext(ctx, dest, query, args...)
	endSpan(span, err)
	return err
}

func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	query = db.Rebind(query)
	ctx, span := db.startSpan(ctx, "db.Exec", query)
	res, err := db.DB.ExecContext(ctx, query, args...)
	endSpan(span, err)
	return res, err
}

// containsExpr is a case-sensitive substring test on an already folded column.
func (db *DB) containsExpr(column string) string {
	if db.driver == DriverPostgres {
		return "strpos(" + column + ", ?) > 0"
	}
	return "instr(" + column + ", ?) > 0"
}

func sqlVerb(q string) string {
	q = strings.TrimSpace(q)
	if idx := strings.IndexAny(q, " \n\t"); idx > 0 {
		return strings.ToUpper(q[:idx])
	}
	return strings.ToUpper(q)
}

// wrapErr tags driver failures as core.ErrStoreUnavailable. Cancellation is
// passed through so callers can tell it apart.
func wrapErr(op string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, core.ErrStoreUnavailable, err)
}
