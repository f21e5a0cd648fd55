// Package store persists sealed consultation results for the history
// command: a SQLite backend for the default install and a plain JSON
// directory backend for environments where SQLite is unwanted.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/thebenlamm/LLM-Conclave-sub004/internal/core"
)

//go:embed migrations/001_initial_schema.sql
var migrationV1 string

// SQLiteStore implements core.ResultStore over a local SQLite database.
type SQLiteStore struct {
	dbPath string
	db     *sql.DB // write connection
	readDB *sql.DB // read-only connection
	mu     sync.RWMutex

	maxRetries    int
	baseRetryWait time.Duration
}

// NewSQLiteStore opens (and if needed creates) the history database.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	s := &SQLiteStore{
		dbPath:        dbPath,
		maxRetries:    5,
		baseRetryWait: 100 * time.Millisecond,
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening write database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	s.db = db

	readDB, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(1000)")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("opening read database: %w", err)
	}
	readDB.SetMaxOpenConns(10)
	readDB.SetMaxIdleConns(5)
	readDB.SetConnMaxLifetime(5 * time.Minute)
	s.readDB = readDB

	if err := s.migrate(); err != nil {
		_ = db.Close()
		_ = readDB.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	migrations := []string{migrationV1}
	for i, migration := range migrations {
		version := i + 1
		if version <= currentVersion {
			continue
		}

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

// splitStatements splits a SQL script into individual statements,
// dropping comment-only lines.
func splitStatements(script string) []string {
	var statements []string
	for _, stmt := range strings.Split(script, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		lines := strings.Split(stmt, "\n")
		var sqlLines []string
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "--") {
				sqlLines = append(sqlLines, line)
			}
		}
		if len(sqlLines) > 0 {
			statements = append(statements, strings.Join(sqlLines, "\n"))
		}
	}
	return statements
}

func (s *SQLiteStore) retryWrite(ctx context.Context, operation string, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := fn(); err != nil {
			if isSQLiteBusy(err) {
				lastErr = err
				wait := s.baseRetryWait * time.Duration(1<<attempt)
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(wait):
					continue
				}
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("%s failed after %d retries: %w", operation, s.maxRetries, lastErr)
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}

// Save upserts a sealed result keyed by consultation ID.
func (s *SQLiteStore) Save(ctx context.Context, result *core.ConsultationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return core.ErrPersistence("encoding result", err)
	}

	return s.retryWrite(ctx, "Save", func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO consultations (id, question, mode, status, confidence, cost_usd, duration_ms, created_at, payload)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				status = excluded.status,
				confidence = excluded.confidence,
				cost_usd = excluded.cost_usd,
				duration_ms = excluded.duration_ms,
				payload = excluded.payload
		`,
			result.ConsultationID,
			result.Question,
			result.Mode,
			result.Status,
			result.Confidence,
			result.ActualCostUSD,
			result.DurationMS,
			result.StartedAt.UTC().Format(time.RFC3339Nano),
			string(payload),
		)
		return err
	})
}

// Load retrieves a result by ID; nil when absent.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*core.ConsultationResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.readDB.QueryRowContext(ctx,
		"SELECT payload FROM consultations WHERE id = ?", id)

	var payload string
	err := row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning consultation: %w", err)
	}

	var result core.ConsultationResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, core.ErrPersistence("decoding stored result", err)
	}
	return &result, nil
}

// List returns summaries of all stored consultations, newest first.
func (s *SQLiteStore) List(ctx context.Context) ([]core.ResultSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.readDB.QueryContext(ctx, `
		SELECT id, question, mode, status, confidence, cost_usd, duration_ms, created_at
		FROM consultations
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying consultations: %w", err)
	}
	defer rows.Close()

	var summaries []core.ResultSummary
	for rows.Next() {
		var sum core.ResultSummary
		if err := rows.Scan(&sum.ConsultationID, &sum.Question, &sum.Mode, &sum.Status,
			&sum.Confidence, &sum.CostUSD, &sum.DurationMS, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning consultation: %w", err)
		}
		sum.Question = truncateQuestion(sum.Question)
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// Close closes both database connections.
func (s *SQLiteStore) Close() error {
	var errs []error
	if s.readDB != nil {
		if err := s.readDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing read connection: %w", err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing write connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// truncateQuestion shortens a question for list display.
func truncateQuestion(q string) string {
	const maxLen = 80
	if len(q) <= maxLen {
		return q
	}
	return q[:maxLen-3] + "..."
}
