package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"docket/internal/config"
)

// Outcome is the terminal state a journaled item reached.
type Outcome string

const (
	OutcomeComplete Outcome = "complete"
	OutcomeError    Outcome = "error"
)

// Entry is one journaled terminal outcome.
type Entry struct {
	ID           int64
	ItemID       string
	Title        string
	SourcePath   string
	Outcome      Outcome
	Retries      int
	ErrorMessage string
	ResultJSON   string
	RecordedAt   time.Time
}

// Record describes an outcome to journal. Result may be any
// JSON-marshalable value; it is stored serialized.
type Record struct {
	ItemID       string
	Title        string
	SourcePath   string
	Outcome      Outcome
	Retries      int
	ErrorMessage string
	Result       any
}

// Summary aggregates journal counts for status output.
type Summary struct {
	Total    int
	Complete int
	Error    int
}

// Store manages the outcome journal backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database and applies
// migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "history.db"))
}

// OpenPath opens the journal at an explicit database path.
func OpenPath(dbPath string) (*Store, error) {
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
	if err := store.applyMigrations(context.Background()); err != nil {
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

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Append journals one terminal outcome.
func (s *Store) Append(ctx context.Context, rec Record) (*Entry, error) {
	resultJSON := ""
	if rec.Result != nil {
		encoded, err := json.Marshal(rec.Result)
		if err != nil {
			return nil, fmt.Errorf("marshal result: %w", err)
		}
		resultJSON = string(encoded)
	}

	recordedAt := time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO history_entries (
            item_id, title, source_path, outcome, retries, error_message, result_json, recorded_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ItemID,
		rec.Title,
		rec.SourcePath,
		string(rec.Outcome),
		rec.Retries,
		rec.ErrorMessage,
		resultJSON,
		recordedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert history entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID returns a single journal entry.
func (s *Store) GetByID(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, item_id, title, source_path, outcome, retries, error_message, result_json, recorded_at
         FROM history_entries WHERE id = ?`, id)
	entry, err := scanEntry(row)
	if err != nil {
		return nil, fmt.Errorf("get history entry %d: %w", id, err)
	}
	return entry, nil
}

// List returns the most recent journal entries, newest first. A
// non-positive limit returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	query := `SELECT id, item_id, title, source_path, outcome, retries, error_message, result_json, recorded_at
              FROM history_entries ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Stats returns journal counts grouped by outcome.
func (s *Store) Stats(ctx context.Context) (Summary, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT outcome, COUNT(1) FROM history_entries GROUP BY outcome`)
	if err != nil {
		return Summary{}, fmt.Errorf("history stats: %w", err)
	}
	defer rows.Close()

	summary := Summary{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return Summary{}, err
		}
		summary.Total += count
		switch Outcome(outcome) {
		case OutcomeComplete:
			summary.Complete += count
		case OutcomeError:
			summary.Error += count
		}
	}
	return summary, rows.Err()
}

// Clear removes every journal entry and reports how many were dropped.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM history_entries`)
	if err != nil {
		return 0, fmt.Errorf("clear history: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*Entry, error) {
	var entry Entry
	var outcome string
	var recordedAt string
	if err := row.Scan(
		&entry.ID,
		&entry.ItemID,
		&entry.Title,
		&entry.SourcePath,
		&outcome,
		&entry.Retries,
		&entry.ErrorMessage,
		&entry.ResultJSON,
		&recordedAt,
	); err != nil {
		return nil, err
	}
	entry.Outcome = Outcome(outcome)
	if parsed, err := time.Parse(time.RFC3339Nano, recordedAt); err == nil {
		entry.RecordedAt = parsed
	}
	return &entry, nil
}
