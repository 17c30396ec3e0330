// Package auditstore persists audit traces for compliance and debugging.
// The scoring engine itself is stateless; this layer is where traces go
// after the caller is done with them.
package auditstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/riskradar/riskradar/internal/risk"
)

// Store handles SQLite operations for audit traces.
type Store struct {
	db *sqlx.DB
}

// record is the flat row shape; the full trace is kept as its own JSON
// serialization so a stored trace round-trips byte-for-byte.
type record struct {
	TraceID    string    `db:"trace_id"`
	Timestamp  time.Time `db:"timestamp"`
	Repository string    `db:"repository"`
	PRNumber   int       `db:"pr_number"`
	FinalScore float64   `db:"final_score"`
	RiskLevel  string    `db:"risk_level"`
	Payload    []byte    `db:"payload"`
}

// Summary is a lightweight listing row.
type Summary struct {
	TraceID    string    `db:"trace_id" json:"trace_id"`
	Timestamp  time.Time `db:"timestamp" json:"timestamp"`
	Repository string    `db:"repository" json:"repository"`
	PRNumber   int       `db:"pr_number" json:"pr_number"`
	FinalScore float64   `db:"final_score" json:"final_score"`
	RiskLevel  string    `db:"risk_level" json:"risk_level"`
}

const schema = `
CREATE TABLE IF NOT EXISTS audit_traces (
	trace_id    TEXT PRIMARY KEY,
	timestamp   DATETIME NOT NULL,
	repository  TEXT NOT NULL DEFAULT '',
	pr_number   INTEGER NOT NULL DEFAULT 0,
	final_score REAL NOT NULL,
	risk_level  TEXT NOT NULL,
	payload     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_repo_pr ON audit_traces(repository, pr_number);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_traces(timestamp);
`

// Open opens (or creates) the store at path and ensures the schema exists.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit directory %s: %w", dir, err)
		}
	}

	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// New wraps an existing connection, creating the schema if needed. Used by
// tests with an in-memory database.
func New(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("create audit schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists one trace. Repository may be empty for fixture runs.
func (s *Store) Save(ctx context.Context, repository string, prNumber int, trace *risk.AuditTrace) error {
	if trace == nil {
		return fmt.Errorf("trace cannot be nil")
	}

	payload, err := trace.ToJSON()
	if err != nil {
		return err
	}

	rec := record{
		TraceID:    trace.TraceID,
		Timestamp:  trace.Timestamp,
		Repository: repository,
		PRNumber:   prNumber,
		FinalScore: trace.FinalScore,
		RiskLevel:  trace.RiskLevel.String(),
		Payload:    payload,
	}

	query := `
		INSERT INTO audit_traces (trace_id, timestamp, repository, pr_number, final_score, risk_level, payload)
		VALUES (:trace_id, :timestamp, :repository, :pr_number, :final_score, :risk_level, :payload)
	`
	if _, err := s.db.NamedExecContext(ctx, query, rec); err != nil {
		return fmt.Errorf("insert audit trace: %w", err)
	}
	return nil
}

// Get retrieves a stored trace by ID.
func (s *Store) Get(ctx context.Context, traceID string) (*risk.AuditTrace, error) {
	var payload []byte
	err := s.db.GetContext(ctx, &payload, `SELECT payload FROM audit_traces WHERE trace_id = ?`, traceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("audit trace not found: %s", traceID)
		}
		return nil, fmt.Errorf("get audit trace: %w", err)
	}
	return risk.ParseTrace(payload)
}

// List returns recent trace summaries, newest first. Repository and
// prNumber filter when non-zero.
func (s *Store) List(ctx context.Context, repository string, prNumber, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT trace_id, timestamp, repository, pr_number, final_score, risk_level FROM audit_traces WHERE 1=1`
	args := []interface{}{}
	if repository != "" {
		query += ` AND repository = ?`
		args = append(args, repository)
	}
	if prNumber > 0 {
		query += ` AND pr_number = ?`
		args = append(args, prNumber)
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	var summaries []Summary
	if err := s.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("list audit traces: %w", err)
	}
	return summaries, nil
}
