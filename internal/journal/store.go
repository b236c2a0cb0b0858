package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rumormill/internal/config"
)

// Outcomes recorded for dispatches.
const (
	OutcomePrinted  = "printed"
	OutcomeFallback = "fallback"
	OutcomeError    = "error"
)

// Entry is one dispatch outcome.
type Entry struct {
	ID         int64     `json:"id"`
	DispatchID string    `json:"dispatch_id"`
	RumorID    *int64    `json:"rumor_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Outcome    string    `json:"outcome"`
	Detail     string    `json:"detail,omitempty"`
	Source     string    `json:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats aggregates the journal for the status API.
type Stats struct {
	Printed   int64      `json:"printed"`
	Fallbacks int64      `json:"fallbacks"`
	Errors    int64      `json:"errors"`
	LastPrint *time.Time `json:"last_print,omitempty"`
}

// Store manages journal persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

// Open initializes or connects to the journal database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.JournalPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database location.
func (s *Store) Path() string {
	return s.path
}

// Record inserts one dispatch outcome and returns its row id.
func (s *Store) Record(ctx context.Context, entry Entry) (int64, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	timestamp := createdAt.UTC().Format(time.RFC3339Nano)

	res, err := s.execWithRetry(ctx,
		`INSERT INTO journal_entries (
            dispatch_id, rumor_id, title, outcome, detail, source, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.DispatchID,
		nullableInt64(entry.RumorID),
		nullableString(entry.Title),
		entry.Outcome,
		nullableString(entry.Detail),
		nullableString(entry.Source),
		timestamp,
	)
	if err != nil {
		return 0, fmt.Errorf("record journal entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read journal entry id: %w", err)
	}
	return id, nil
}

// Recent returns the newest entries, most recent first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM journal_entries ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal: %w", err)
	}
	return entries, nil
}

// Stats aggregates outcome counts and the most recent successful print.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var stats Stats

	rows, err := s.db.QueryContext(ctx,
		"SELECT outcome, COUNT(1) FROM journal_entries GROUP BY outcome")
	if err != nil {
		return Stats{}, fmt.Errorf("query journal stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome string
		var count int64
		if err := rows.Scan(&outcome, &count); err != nil {
			return Stats{}, fmt.Errorf("scan journal stats: %w", err)
		}
		switch outcome {
		case OutcomePrinted:
			stats.Printed = count
		case OutcomeFallback:
			stats.Fallbacks = count
		case OutcomeError:
			stats.Errors = count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate journal stats: %w", err)
	}

	var lastRaw sql.NullString
	err = s.db.QueryRowContext(ctx,
		"SELECT MAX(created_at) FROM journal_entries WHERE outcome = ?",
		OutcomePrinted,
	).Scan(&lastRaw)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return Stats{}, fmt.Errorf("query last print: %w", err)
	}
	if lastRaw.Valid {
		if last, err := parseTimeString(lastRaw.String); err == nil {
			stats.LastPrint = &last
		}
	}

	return stats, nil
}

// Clear removes every journal entry.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.execWithoutResultRetry(ctx, "DELETE FROM journal_entries"); err != nil {
		return fmt.Errorf("clear journal: %w", err)
	}
	return nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Store) execWithoutResultRetry(ctx context.Context, query string, args ...any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}
