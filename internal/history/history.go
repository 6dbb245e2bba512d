// Package history keeps a log of trigger cycles in a SQLite database so
// that skipped or failed days can be inspected after the fact.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aptjitter/aptjitter/common"
	"github.com/aptjitter/aptjitter/internal/jitter"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS submissions (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    job          TEXT    NOT NULL,
    triggered_at INTEGER NOT NULL,
    at           TEXT    NOT NULL,
    command      TEXT    NOT NULL,
    user         TEXT    NOT NULL DEFAULT '',
    at_job_id    TEXT    NOT NULL DEFAULT '',
    run_at       TEXT    NOT NULL DEFAULT '',
    error        TEXT    NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS submissions_job ON submissions (job, id);
`

// Store is a SQLite-backed submission log.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("error: empty history path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error: cannot create history directory: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("error: cannot open history database: %w", err)
	}
	// One writer at a time; cron and the daemon may both append.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error: cannot initialize history schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one submission.
func (s *Store) Record(ctx context.Context, sub jitter.Submission) error {
	var errText string
	if sub.Err != nil {
		errText = sub.Err.Error()
	}
	_, err := s.db.ExecContext(ctx, `
        INSERT INTO submissions (job, triggered_at, at, command, user, at_job_id, run_at, error)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, sub.Job, sub.TriggeredAt.UnixNano(), sub.At, sub.Command, sub.User,
		sub.Receipt.JobID, sub.Receipt.RunAt, errText)
	if err != nil {
		return fmt.Errorf("error: failed to record submission: %w", err)
	}
	return nil
}

// List returns up to limit submissions, newest first. An empty job lists
// all jobs. A non-positive limit means common.DefaultHistoryLimit.
func (s *Store) List(ctx context.Context, job string, limit int) ([]*common.SubmissionInfo, error) {
	if limit <= 0 {
		limit = common.DefaultHistoryLimit
	}
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, job, triggered_at, at, command, user, at_job_id, run_at, error
        FROM submissions
        WHERE (? = '' OR job = ?)
        ORDER BY id DESC
        LIMIT ?
    `, job, job, limit)
	if err != nil {
		return nil, fmt.Errorf("error: failed to query history: %w", err)
	}
	defer rows.Close()

	var subs []*common.SubmissionInfo
	for rows.Next() {
		var (
			info        common.SubmissionInfo
			triggeredAt int64
		)
		if err := rows.Scan(&info.ID, &info.Job, &triggeredAt, &info.At, &info.Command,
			&info.User, &info.AtJobID, &info.RunAt, &info.Error); err != nil {
			return nil, fmt.Errorf("error: failed to scan history row: %w", err)
		}
		info.TriggeredAt = time.Unix(0, triggeredAt)
		subs = append(subs, &info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error: failed to iterate history rows: %w", err)
	}
	return subs, nil
}

// Last returns the most recent submission of job, or nil if there is none.
func (s *Store) Last(ctx context.Context, job string) (*common.SubmissionInfo, error) {
	subs, err := s.List(ctx, job, 1)
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	return subs[0], nil
}

var _ jitter.Recorder = (*Store)(nil)
