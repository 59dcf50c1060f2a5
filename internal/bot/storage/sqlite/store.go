// Package sqlite provides the SQLite-backed audit store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"

	"github.com/louisbranch/commandeer/internal/bot/storage"
	"github.com/louisbranch/commandeer/internal/bot/storage/sqlite/migrations"
	"github.com/louisbranch/commandeer/internal/platform/storage/sqlitemigrate"
)

// Store persists audit records in SQLite.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a SQLite store at path, creating its directory, and applies
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return errors.New("storage is not configured")
	}
	return nil
}

// AppendInvocation inserts one invocation record.
func (s *Store) AppendInvocation(ctx context.Context, invocation storage.Invocation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	traceID := strings.TrimSpace(invocation.TraceID)
	if traceID == "" {
		return errors.New("trace id is required")
	}
	if strings.TrimSpace(invocation.CommandKey) == "" {
		return errors.New("command key is required")
	}
	if invocation.Outcome == "" {
		return errors.New("outcome is required")
	}
	createdAt := invocation.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO invocations (
		   trace_id, command_key, interaction_id, guild_id, channel_id, user_id,
		   locale, outcome, error_kind, error_message, span_trace_id, span_id,
		   duration_ms, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		traceID,
		invocation.CommandKey,
		invocation.InteractionID,
		invocation.GuildID,
		invocation.ChannelID,
		invocation.UserID,
		invocation.Locale,
		string(invocation.Outcome),
		invocation.ErrorKind,
		invocation.ErrorMessage,
		invocation.SpanTraceID,
		invocation.SpanID,
		invocation.Duration.Milliseconds(),
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append invocation: %w", err)
	}
	return nil
}

const invocationColumns = `trace_id, command_key, interaction_id, guild_id, channel_id, user_id,
	       locale, outcome, error_kind, error_message, span_trace_id, span_id,
	       duration_ms, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvocation(row rowScanner) (storage.Invocation, error) {
	var invocation storage.Invocation
	var outcome string
	var durationMillis int64
	var createdAt int64
	err := row.Scan(
		&invocation.TraceID,
		&invocation.CommandKey,
		&invocation.InteractionID,
		&invocation.GuildID,
		&invocation.ChannelID,
		&invocation.UserID,
		&invocation.Locale,
		&outcome,
		&invocation.ErrorKind,
		&invocation.ErrorMessage,
		&invocation.SpanTraceID,
		&invocation.SpanID,
		&durationMillis,
		&createdAt,
	)
	if err != nil {
		return storage.Invocation{}, err
	}
	invocation.Outcome = storage.Outcome(outcome)
	invocation.Duration = time.Duration(durationMillis) * time.Millisecond
	invocation.CreatedAt = fromMillis(createdAt)
	return invocation, nil
}

// GetInvocationByTrace returns the invocation recorded under traceID.
func (s *Store) GetInvocationByTrace(ctx context.Context, traceID string) (storage.Invocation, error) {
	if err := s.ready(ctx); err != nil {
		return storage.Invocation{}, err
	}
	traceID = strings.ToLower(strings.TrimSpace(traceID))
	if traceID == "" {
		return storage.Invocation{}, errors.New("trace id is required")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+invocationColumns+` FROM invocations WHERE trace_id = ?`, traceID)
	invocation, err := scanInvocation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.Invocation{}, storage.ErrNotFound
		}
		return storage.Invocation{}, fmt.Errorf("get invocation: %w", err)
	}
	return invocation, nil
}

// ListRecentInvocations returns up to limit invocations, newest first.
func (s *Store) ListRecentInvocations(ctx context.Context, limit int) ([]storage.Invocation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return nil, errors.New("limit must be greater than zero")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+invocationColumns+` FROM invocations ORDER BY created_at DESC, trace_id ASC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	defer rows.Close()

	invocations := make([]storage.Invocation, 0, limit)
	for rows.Next() {
		invocation, err := scanInvocation(rows)
		if err != nil {
			return nil, fmt.Errorf("list invocations: %w", err)
		}
		invocations = append(invocations, invocation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list invocations: %w", err)
	}
	return invocations, nil
}

// AppendSyncRun records one reconciliation result.
func (s *Store) AppendSyncRun(ctx context.Context, run storage.SyncRun) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updated := 0
	if run.Updated {
		updated = 1
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO sync_runs (scope, updated, local_fingerprint, remote_fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.Scope, updated, run.LocalFingerprint, run.RemoteFingerprint, toMillis(createdAt),
	)
	if err != nil {
		return fmt.Errorf("append sync run: %w", err)
	}
	return nil
}

// LatestSyncRun returns the most recent reconciliation for scope.
func (s *Store) LatestSyncRun(ctx context.Context, scope string) (storage.SyncRun, error) {
	if err := s.ready(ctx); err != nil {
		return storage.SyncRun{}, err
	}
	var run storage.SyncRun
	var updated int
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT scope, updated, local_fingerprint, remote_fingerprint, created_at
		   FROM sync_runs
		  WHERE scope = ?
		  ORDER BY created_at DESC, id DESC
		  LIMIT 1`,
		scope,
	).Scan(&run.Scope, &updated, &run.LocalFingerprint, &run.RemoteFingerprint, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SyncRun{}, storage.ErrNotFound
		}
		return storage.SyncRun{}, fmt.Errorf("latest sync run: %w", err)
	}
	run.Updated = updated == 1
	run.CreatedAt = fromMillis(createdAt)
	return run, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}

var (
	_ storage.InvocationStore = (*Store)(nil)
	_ storage.SyncRunStore    = (*Store)(nil)
)
