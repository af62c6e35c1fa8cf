package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/praktiklabs/kurator/internal/knowledge"
)

// schema creates the knowledge catalog. Keywords are stored as a JSON
// array to preserve their display order.
const schema = `
CREATE TABLE IF NOT EXISTS knowledge_records (
	id                TEXT PRIMARY KEY,
	topic             TEXT NOT NULL,
	narrative         TEXT NOT NULL,
	keywords          TEXT NOT NULL,
	category          TEXT NOT NULL,
	subcategory       TEXT NOT NULL,
	source_question   TEXT NOT NULL,
	source_session    TEXT NOT NULL DEFAULT '',
	confidence_score  REAL NOT NULL,
	status            TEXT NOT NULL DEFAULT 'pending',
	use_count         INTEGER NOT NULL DEFAULT 0,
	helpful_count     INTEGER NOT NULL DEFAULT 0,
	not_helpful_count INTEGER NOT NULL DEFAULT 0,
	approved_by       TEXT NOT NULL DEFAULT '',
	approved_at       TIMESTAMP,
	rejection_reason  TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMP NOT NULL,
	last_used_at      TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_knowledge_status ON knowledge_records(status);
CREATE INDEX IF NOT EXISTS idx_knowledge_category ON knowledge_records(category);
`

// recordColumns is the canonical select list matching scanRecord.
const recordColumns = `id, topic, narrative, keywords, category, subcategory,
	source_question, source_session, confidence_score, status,
	use_count, helpful_count, not_helpful_count,
	approved_by, approved_at, rejection_reason, created_at, last_used_at`

// SQLiteStore implements knowledge.Store on SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and
// initializes the schema. Parent directories are created if they do not
// exist.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Insert persists a new record.
func (s *SQLiteStore) Insert(ctx context.Context, record *knowledge.Record) error {
	keywords, err := json.Marshal(record.Keywords)
	if err != nil {
		return fmt.Errorf("failed to encode keywords: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO knowledge_records (
			id, topic, narrative, keywords, category, subcategory,
			source_question, source_session, confidence_score, status,
			use_count, helpful_count, not_helpful_count,
			approved_by, approved_at, rejection_reason, created_at, last_used_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID, record.Topic, record.Narrative, string(keywords),
		string(record.Category), record.Subcategory,
		record.SourceQuestion, record.SourceSession,
		record.ConfidenceScore, string(record.Status),
		record.UseCount, record.HelpfulCount, record.NotHelpfulCount,
		record.ApprovedBy, nullableTime(record.ApprovedAt), record.RejectionReason,
		record.CreatedAt, nullableTime(record.LastUsedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Get returns a record by ID.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*knowledge.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM knowledge_records WHERE id = ?`, id)

	record, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, knowledge.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return record, nil
}

// List returns records matching the filter, oldest first.
func (s *SQLiteStore) List(ctx context.Context, filter knowledge.ListFilter) ([]*knowledge.Record, error) {
	query := `SELECT ` + recordColumns + ` FROM knowledge_records`
	var conds []string
	var args []any

	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if len(filter.Categories) > 0 {
		placeholders := make([]string, len(filter.Categories))
		for i, cat := range filter.Categories {
			placeholders[i] = "?"
			args = append(args, string(cat))
		}
		conds = append(conds, "category IN ("+strings.Join(placeholders, ", ")+")")
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var records []*knowledge.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Approve transitions a pending record to approved. The WHERE clause
// enforces the state machine: zero rows affected means the record is
// missing or already terminal.
func (s *SQLiteStore) Approve(ctx context.Context, id, approvedBy, narrative string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_records
		 SET status = ?, approved_by = ?, approved_at = ?,
		     narrative = CASE WHEN ? != '' THEN ? ELSE narrative END
		 WHERE id = ? AND status = ?`,
		string(knowledge.StatusApproved), approvedBy, at,
		narrative, narrative, id, string(knowledge.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to approve record: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// Reject transitions a pending record to rejected.
func (s *SQLiteStore) Reject(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_records SET status = ?, rejection_reason = ?
		 WHERE id = ? AND status = ?`,
		string(knowledge.StatusRejected), reason, id, string(knowledge.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to reject record: %w", err)
	}
	return s.checkTransition(ctx, res, id)
}

// UpdateContent edits curated fields without touching status.
func (s *SQLiteStore) UpdateContent(ctx context.Context, id string, update knowledge.ContentUpdate) error {
	var sets []string
	var args []any

	if update.Topic != nil {
		sets = append(sets, "topic = ?")
		args = append(args, *update.Topic)
	}
	if update.Narrative != nil {
		sets = append(sets, "narrative = ?")
		args = append(args, *update.Narrative)
	}
	if update.Keywords != nil {
		keywords, err := json.Marshal(update.Keywords)
		if err != nil {
			return fmt.Errorf("failed to encode keywords: %w", err)
		}
		sets = append(sets, "keywords = ?")
		args = append(args, string(keywords))
	}
	if update.Subcategory != nil {
		sets = append(sets, "subcategory = ?")
		args = append(args, *update.Subcategory)
	}
	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_records SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if n == 0 {
		return knowledge.ErrRecordNotFound
	}
	return nil
}

// Delete removes a record at any status.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM knowledge_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if n == 0 {
		return knowledge.ErrRecordNotFound
	}
	return nil
}

// RecordUse increments the use count and stamps the last-used time.
func (s *SQLiteStore) RecordUse(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_records SET use_count = use_count + 1, last_used_at = ?
		 WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to record use: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read use result: %w", err)
	}
	if n == 0 {
		return knowledge.ErrRecordNotFound
	}
	return nil
}

// AddFeedback increments one of the feedback counters.
func (s *SQLiteStore) AddFeedback(ctx context.Context, id string, helpful bool) error {
	column := "not_helpful_count"
	if helpful {
		column = "helpful_count"
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE knowledge_records SET `+column+` = `+column+` + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to add feedback: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read feedback result: %w", err)
	}
	if n == 0 {
		return knowledge.ErrRecordNotFound
	}
	return nil
}

// CountByStatus returns record counts per lifecycle state.
func (s *SQLiteStore) CountByStatus(ctx context.Context) (map[knowledge.Status]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM knowledge_records GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count records: %w", err)
	}
	defer rows.Close()

	counts := make(map[knowledge.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[knowledge.Status(status)] = count
	}
	return counts, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// checkTransition maps a zero-row moderation update to the right error.
func (s *SQLiteStore) checkTransition(ctx context.Context, res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read transition result: %w", err)
	}
	if n > 0 {
		return nil
	}

	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return knowledge.ErrInvalidTransition
}

// scanner covers *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord reads one row in recordColumns order.
func scanRecord(row scanner) (*knowledge.Record, error) {
	var rec knowledge.Record
	var keywordsJSON, category, status string
	var approvedAt, lastUsedAt sql.NullTime

	err := row.Scan(
		&rec.ID, &rec.Topic, &rec.Narrative, &keywordsJSON, &category, &rec.Subcategory,
		&rec.SourceQuestion, &rec.SourceSession, &rec.ConfidenceScore, &status,
		&rec.UseCount, &rec.HelpfulCount, &rec.NotHelpfulCount,
		&rec.ApprovedBy, &approvedAt, &rec.RejectionReason, &rec.CreatedAt, &lastUsedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(keywordsJSON), &rec.Keywords); err != nil {
		return nil, fmt.Errorf("failed to decode keywords: %w", err)
	}
	rec.Category = knowledge.Domain(category)
	rec.Status = knowledge.Status(status)
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}
	if lastUsedAt.Valid {
		t := lastUsedAt.Time
		rec.LastUsedAt = &t
	}
	return &rec, nil
}

// nullableTime converts *time.Time to a driver-friendly value.
func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// Ensure the interface is implemented.
var _ knowledge.Store = (*SQLiteStore)(nil)
