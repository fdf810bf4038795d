package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"cutroom/internal/config"
	"cutroom/internal/render"
	"cutroom/internal/renderapi"
)

// ErrNotFound indicates the requested record does not exist in the store.
var ErrNotFound = errors.New("record not found")

// Store manages project persistence backed by SQLite.
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

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, query, args...)
		return err
	})
}

// Open initializes or connects to the project database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(cfg.DatabasePath())
}

// OpenPath opens the database at an explicit location.
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
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// CompositionRecord is a stored composition document plus bookkeeping.
type CompositionRecord struct {
	ID        string
	Name      string
	Document  renderapi.Document
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveComposition inserts or overwrites the document under its composition
// id. Saves always replace the whole document.
func (s *Store) SaveComposition(ctx context.Context, doc renderapi.Document) error {
	id := strings.TrimSpace(doc.Composition.ID)
	if id == "" {
		return errors.New("composition id is required")
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx, `
		INSERT INTO compositions (id, name, document, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			document = excluded.document,
			updated_at = excluded.updated_at`,
		id, doc.Composition.Name, string(payload), now, now,
	)
}

// GetComposition loads one stored document.
func (s *Store) GetComposition(ctx context.Context, id string) (CompositionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, name, document, created_at, updated_at FROM compositions WHERE id = ?", id)
	return scanComposition(row)
}

// ListCompositions returns all stored compositions ordered by most recent
// update.
func (s *Store) ListCompositions(ctx context.Context) ([]CompositionRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, document, created_at, updated_at FROM compositions ORDER BY updated_at DESC, id")
	if err != nil {
		return nil, fmt.Errorf("list compositions: %w", err)
	}
	defer rows.Close()

	var records []CompositionRecord
	for rows.Next() {
		record, err := scanComposition(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// DeleteComposition removes a stored document.
func (s *Store) DeleteComposition(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM compositions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete composition: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete composition: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("composition %s: %w", id, ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComposition(row rowScanner) (CompositionRecord, error) {
	var (
		record    CompositionRecord
		payload   string
		createdAt string
		updatedAt string
	)
	err := row.Scan(&record.ID, &record.Name, &payload, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CompositionRecord{}, fmt.Errorf("composition: %w", ErrNotFound)
	}
	if err != nil {
		return CompositionRecord{}, fmt.Errorf("scan composition: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &record.Document); err != nil {
		return CompositionRecord{}, fmt.Errorf("decode document %s: %w", record.ID, err)
	}
	record.CreatedAt = parseTimestamp(createdAt)
	record.UpdatedAt = parseTimestamp(updatedAt)
	return record, nil
}

// JobRecord is a stored render job snapshot plus bookkeeping.
type JobRecord struct {
	Job       render.Job
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SaveJob inserts or overwrites the job snapshot under its job id.
func (s *Store) SaveJob(ctx context.Context, job render.Job) error {
	if strings.TrimSpace(job.JobID) == "" {
		return errors.New("job id is required")
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx, `
		INSERT INTO render_jobs
			(job_id, composition_id, status, progress, current_frame, total_frames, output_uri, error, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			composition_id = excluded.composition_id,
			status = excluded.status,
			progress = excluded.progress,
			current_frame = excluded.current_frame,
			total_frames = excluded.total_frames,
			output_uri = excluded.output_uri,
			error = excluded.error,
			updated_at = excluded.updated_at`,
		job.JobID, job.CompositionID, string(job.Status), job.Progress,
		job.CurrentFrame, job.TotalFrames, job.OutputURI, job.Error, now, now,
	)
}

// GetJob loads one stored job record.
func (s *Store) GetJob(ctx context.Context, jobID string) (JobRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT job_id, composition_id, status, progress, current_frame, total_frames, output_uri, error, created_at, updated_at
		FROM render_jobs WHERE job_id = ?`, jobID)
	return scanJob(row)
}

// ListJobs returns stored jobs ordered by most recent update. A limit of
// zero or less returns everything.
func (s *Store) ListJobs(ctx context.Context, limit int) ([]JobRecord, error) {
	query := `
		SELECT job_id, composition_id, status, progress, current_frame, total_frames, output_uri, error, created_at, updated_at
		FROM render_jobs ORDER BY updated_at DESC, job_id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var records []JobRecord
	for rows.Next() {
		record, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

func scanJob(row rowScanner) (JobRecord, error) {
	var (
		record    JobRecord
		status    string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&record.Job.JobID, &record.Job.CompositionID, &status,
		&record.Job.Progress, &record.Job.CurrentFrame, &record.Job.TotalFrames,
		&record.Job.OutputURI, &record.Job.Error, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, fmt.Errorf("job: %w", ErrNotFound)
	}
	if err != nil {
		return JobRecord{}, fmt.Errorf("scan job: %w", err)
	}
	record.Job.Status = render.Status(status)
	record.CreatedAt = parseTimestamp(createdAt)
	record.UpdatedAt = parseTimestamp(updatedAt)
	return record, nil
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}
