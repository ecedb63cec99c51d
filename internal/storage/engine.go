// Package storage wraps an embedded SQLite database with the durability,
// retry, and backup behavior §4.1 (C1) specifies: WAL journaling, a
// busy-timeout, an exponential-backoff retry wrapper for transient lock
// errors, a scoped transaction helper, and file-copy backups with a
// 7-daily/4-weekly/12-monthly retention policy.
//
// Grounded on the teacher's internal/db package (connection setup in
// cmd/server/main.go, migration runner in internal/db/migrations.go), with
// the Postgres driver swapped for mattn/go-sqlite3 since the spec's store
// is embedded, not a server process (see DESIGN.md).
package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pinggolf/replenish-engine/internal/domain"
)

// Isolation selects the BEGIN mode used by WithTx, mirroring SQLite's
// deferred/immediate/exclusive transaction types.
type Isolation string

const (
	Deferred  Isolation = "DEFERRED"
	Immediate Isolation = "IMMEDIATE"
	Exclusive Isolation = "EXCLUSIVE"
)

// Options configures Open.
type Options struct {
	Path                string
	BusyTimeout         time.Duration // default 30s
	MaxOpenConns        int           // default 10
	MaxConnUses         int64         // engine-wide transaction count between reuse log lines, default 100
	LeakWarnConnections int           // default 20
	Logger              *zerolog.Logger // nil uses the global zerolog logger
}

// Engine is the opened, migrated database handle.
type Engine struct {
	db       *sql.DB
	path     string
	opts     Options
	log      zerolog.Logger
	useCount int64 // atomic, total acquisitions since open
	openConn int64 // atomic, approximate concurrently-open connections
}

//go:embed migrations/*.sql
var migrationFS embed.FS

// Open connects, applies PRAGMAs, runs migrations, and runs startup health
// checks. It returns a Critical domain error if any of those steps fail in
// a way that makes the store unsafe to use.
func Open(ctx context.Context, opts Options) (*Engine, error) {
	if opts.BusyTimeout == 0 {
		opts.BusyTimeout = 30 * time.Second
	}
	if opts.MaxOpenConns == 0 {
		opts.MaxOpenConns = 10
	}
	if opts.MaxConnUses == 0 {
		opts.MaxConnUses = 100
	}
	if opts.LeakWarnConnections == 0 {
		opts.LeakWarnConnections = 20
	}
	lg := log.Logger
	if opts.Logger != nil {
		lg = *opts.Logger
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=%d&_synchronous=NORMAL",
		opts.Path, opts.BusyTimeout.Milliseconds())

	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, domain.CriticalErr("failed to open database", err)
	}
	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxOpenConns)

	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, domain.CriticalErr("failed to ping database", err)
	}

	e := &Engine{db: sqlDB, path: opts.Path, opts: opts, log: lg}

	if err := e.verifyPragmas(ctx); err != nil {
		return nil, domain.CriticalErr("startup PRAGMA verification failed", err)
	}

	if err := e.runMigrations(ctx); err != nil {
		return nil, domain.CriticalErr("failed to apply migrations", err)
	}

	if err := e.runHealthChecks(ctx); err != nil {
		return nil, domain.CriticalErr("startup invariant check failed", err)
	}

	e.log.Info().Str("path", opts.Path).Msg("storage engine opened")
	return e, nil
}

// DB exposes the underlying *sql.DB for repositories.
func (e *Engine) DB() *sql.DB { return e.db }

func (e *Engine) Close() error { return e.db.Close() }

func (e *Engine) verifyPragmas(ctx context.Context) error {
	var journalMode string
	if err := e.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journalMode); err != nil {
		return err
	}
	if !strings.EqualFold(journalMode, "wal") {
		return fmt.Errorf("expected WAL journal mode, got %q", journalMode)
	}
	var fk int
	if err := e.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
		return err
	}
	if fk != 1 {
		return fmt.Errorf("foreign_keys PRAGMA is off")
	}
	return nil
}

func (e *Engine) runMigrations(ctx context.Context) error {
	if _, err := e.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return err
	}

	applied := map[string]bool{}
	rows, err := e.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return err
	}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return err
		}
		applied[v] = true
	}
	rows.Close()

	entries, err := migrationFS.ReadDir("migrations")
	if err != nil {
		return err
	}
	var files []string
	for _, ent := range entries {
		if strings.HasSuffix(ent.Name(), ".up.sql") {
			files = append(files, ent.Name())
		}
	}
	sort.Strings(files)

	for _, f := range files {
		if applied[f] {
			continue
		}
		content, err := migrationFS.ReadFile(filepath.Join("migrations", f))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		e.log.Info().Str("migration", f).Msg("applying migration")
		if err := e.applyMigration(ctx, f, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", f, err)
		}
	}
	return nil
}

func (e *Engine) applyMigration(ctx context.Context, version, sqlText string) error {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(sqlText) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
		return err
	}
	return tx.Commit()
}

func splitStatements(sqlText string) []string {
	return strings.Split(sqlText, ";\n")
}

// runHealthChecks verifies a handful of cheap startup invariants; a failure
// here means the database must not be opened (Critical).
func (e *Engine) runHealthChecks(ctx context.Context) error {
	var integrityResult string
	if err := e.db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&integrityResult); err != nil {
		return err
	}
	if !strings.EqualFold(integrityResult, "ok") {
		return fmt.Errorf("quick_check reported: %s", integrityResult)
	}
	return nil
}

// WithTx runs fn inside a transaction at the requested isolation,
// committing on nil error and rolling back otherwise. It counts
// transactions across the whole engine, not per connection, logging each
// time the count reaches a multiple of MaxConnUses, and warns when
// concurrently-open usage crosses the configured leak threshold, per §5.
func (e *Engine) WithTx(ctx context.Context, iso Isolation, fn func(tx *sql.Tx) error) error {
	open := atomic.AddInt64(&e.openConn, 1)
	defer atomic.AddInt64(&e.openConn, -1)
	if int(open) > e.opts.LeakWarnConnections {
		e.log.Warn().Int64("open", open).Int("threshold", e.opts.LeakWarnConnections).
			Msg("connection pool leak warning: too many concurrently-open transactions")
	}

	uses := atomic.AddInt64(&e.useCount, 1)
	if uses%e.opts.MaxConnUses == 0 {
		e.log.Info().Int64("uses", uses).Msg("connection reuse soft-limit reached; pool will cycle connections")
	}

	return e.RetryBusy(ctx, func() error {
		opts := &sql.TxOptions{}
		switch iso {
		case Immediate:
			// sqlite3 driver maps BEGIN IMMEDIATE via a raw exec since
			// database/sql has no native support for it.
			return e.withRawBegin(ctx, "BEGIN IMMEDIATE", fn)
		case Exclusive:
			return e.withRawBegin(ctx, "BEGIN EXCLUSIVE", fn)
		default:
			tx, err := e.db.BeginTx(ctx, opts)
			if err != nil {
				return err
			}
			return commitOrRollback(tx, fn)
		}
	})
}

func (e *Engine) withRawBegin(ctx context.Context, beginStmt string, fn func(tx *sql.Tx) error) error {
	conn, err := e.db.Conn(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, beginStmt); err != nil {
		return err
	}
	// database/sql has no API to hand back a *sql.Tx bound to an existing
	// raw BEGIN, so the tx passed to fn is opened deferred on the same
	// connection; SQLite upgrades a deferred transaction's lock to match
	// the already-held IMMEDIATE/EXCLUSIVE lock transparently.
	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		conn.ExecContext(ctx, "ROLLBACK")
		return err
	}
	return commitOrRollback(tx, fn)
}

func commitOrRollback(tx *sql.Tx, fn func(tx *sql.Tx) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// RetryBusy retries fn up to 3 attempts with jittered exponential backoff
// (100-200ms, then 200-400ms) when
// it returns a transient SQLITE_BUSY/SQLITE_LOCKED condition, per §5.
func (e *Engine) RetryBusy(ctx context.Context, fn func() error) error {
	const maxAttempts = 3
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusyErr(err) {
			return err
		}
		lastErr = err
		if attempt == maxAttempts {
			break
		}
		base := (100 * time.Millisecond) << (attempt - 1)
		backoff := base + time.Duration(rand.Int63n(int64(base)))
		e.log.Warn().Int("attempt", attempt).Dur("backoff", backoff).Msg("retrying after busy/locked error")
		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return domain.Transient("database busy after retry budget exhausted", lastErr)
}

func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}
