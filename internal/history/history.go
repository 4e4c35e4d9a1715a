// Package history provides SQLite-based persistence of answered and failed
// catalog questions.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Outcome of a recorded question.
const (
	OutcomeAnswered      = "answered"
	OutcomeNoCollections = "no_collections"
	OutcomeError         = "error"
)

const currentSchemaVersion = 1

// Entry is one recorded question.
type Entry struct {
	ID               string        `json:"id"`
	Timestamp        time.Time     `json:"timestamp"`
	Question         string        `json:"question"`
	Collections      []string      `json:"collections"`
	AQL              string        `json:"aql,omitempty"`
	Outcome          string        `json:"outcome"`
	Error            string        `json:"error,omitempty"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
	Duration         time.Duration `json:"duration"`
}

// Recorder accepts finished questions.
type Recorder interface {
	Record(ctx context.Context, e *Entry) error
}

// Store represents the SQLite history database
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open creates the database at path if needed and applies the schema.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	// single writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db, now: time.Now}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		timestamp INTEGER NOT NULL,
		question TEXT NOT NULL,
		collections JSON NOT NULL,
		aql TEXT,
		outcome TEXT NOT NULL,
		error TEXT,
		prompt_tokens INTEGER DEFAULT 0,
		completion_tokens INTEGER DEFAULT 0,
		duration_ms INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_questions_timestamp ON questions(timestamp);

	CREATE TABLE IF NOT EXISTS history_schema_version (
		version INTEGER PRIMARY KEY
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize history schema: %w", err)
	}
	if _, err := s.db.Exec(`INSERT OR IGNORE INTO history_schema_version (version) VALUES (?)`, currentSchemaVersion); err != nil {
		return fmt.Errorf("failed to record history schema version: %w", err)
	}
	return nil
}

// Record stores e, assigning an ID and timestamp when they are unset.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = s.now()
	}
	if e.Outcome == "" {
		return fmt.Errorf("record question: outcome is required")
	}

	collections := e.Collections
	if collections == nil {
		collections = []string{}
	}
	cols, err := json.Marshal(collections)
	if err != nil {
		return fmt.Errorf("record question: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO questions (id, timestamp, question, collections, aql, outcome, error,
			prompt_tokens, completion_tokens, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Timestamp.UnixNano(), e.Question, string(cols), nullString(e.AQL), e.Outcome,
		nullString(e.Error), e.PromptTokens, e.CompletionTokens, e.Duration.Milliseconds())
	if err != nil {
		return fmt.Errorf("record question: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. An empty outcome
// matches all entries.
func (s *Store) Recent(ctx context.Context, limit int, outcome string) ([]*Entry, error) {
	if limit <= 0 {
		limit = 20
	}

	var (
		where []string
		args  []any
	)
	if outcome != "" {
		where = append(where, "outcome = ?")
		args = append(args, outcome)
	}
	query := `SELECT id, timestamp, question, collections, aql, outcome, error,
		prompt_tokens, completion_tokens, duration_ms FROM questions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		var (
			e          Entry
			ts         int64
			cols       string
			aql, errS  sql.NullString
			durationMs int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.Question, &cols, &aql, &e.Outcome, &errS,
			&e.PromptTokens, &e.CompletionTokens, &durationMs); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(cols), &e.Collections); err != nil {
			return nil, fmt.Errorf("decode collections of %s: %w", e.ID, err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.AQL = aql.String
		e.Error = errS.String
		e.Duration = time.Duration(durationMs) * time.Millisecond
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

// Count returns the number of recorded questions.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count history: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
