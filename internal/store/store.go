// Package store keeps a record of every job the pipeline ran.
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var ErrNotFound = errors.New("job not found")

// Store is implemented by SQLStore and Memory.
type Store interface {
	Put(ctx context.Context, rec JobRecord) error
	Get(ctx context.Context, id string) (JobRecord, error)
	List(ctx context.Context, limit int) ([]JobRecord, error)
	Close() error
}

type JobRecord struct {
	ID           string    `db:"id" json:"id"`
	ContentType  string    `db:"content_type" json:"contentType"`
	Topic        string    `db:"topic" json:"topic"`
	Status       string    `db:"status" json:"status"`
	OutputPath   string    `db:"output_path" json:"outputPath,omitempty"`
	DownloadURL  string    `db:"download_url" json:"downloadUrl,omitempty"`
	Duration     float64   `db:"duration" json:"duration"`
	FrameCount   int       `db:"frame_count" json:"frameCount"`
	ProcessingMs int64     `db:"processing_ms" json:"processingMs"`
	Resolution   string    `db:"resolution" json:"resolution"`
	FPS          int       `db:"fps" json:"fps"`
	Codec        string    `db:"codec" json:"codec"`
	Error        string    `db:"error" json:"error,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id            TEXT PRIMARY KEY,
	content_type  TEXT NOT NULL,
	topic         TEXT NOT NULL,
	status        TEXT NOT NULL,
	output_path   TEXT NOT NULL DEFAULT '',
	download_url  TEXT NOT NULL DEFAULT '',
	duration      DOUBLE PRECISION NOT NULL DEFAULT 0,
	frame_count   INTEGER NOT NULL DEFAULT 0,
	processing_ms BIGINT NOT NULL DEFAULT 0,
	resolution    TEXT NOT NULL DEFAULT '',
	fps           INTEGER NOT NULL DEFAULT 0,
	codec         TEXT NOT NULL DEFAULT '',
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMP NOT NULL
)`

const upsert = `
INSERT INTO jobs (id, content_type, topic, status, output_path, download_url, duration,
	frame_count, processing_ms, resolution, fps, codec, error, created_at)
VALUES (:id, :content_type, :topic, :status, :output_path, :download_url, :duration,
	:frame_count, :processing_ms, :resolution, :fps, :codec, :error, :created_at)
ON CONFLICT (id) DO UPDATE SET
	status = excluded.status,
	output_path = excluded.output_path,
	download_url = excluded.download_url,
	duration = excluded.duration,
	frame_count = excluded.frame_count,
	processing_ms = excluded.processing_ms,
	error = excluded.error`

// SQLStore persists job records through database/sql. Both sqlite
// (modernc.org/sqlite) and postgres (lib/pq) are supported.
type SQLStore struct {
	db *sqlx.DB
}

// Open connects and creates the jobs table if needed. driver is "sqlite"
// or "postgres".
func Open(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	switch driver {
	case "sqlite", "postgres":
	default:
		return nil, errors.Errorf("unsupported store driver %q", driver)
	}
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open store")
	}
	if driver == "sqlite" {
		// один писатель, иначе SQLITE_BUSY
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "ping store")
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create schema")
	}
	return &SQLStore{db: db}, nil
}

func (s *SQLStore) Put(ctx context.Context, rec JobRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	_, err := s.db.NamedExecContext(ctx, upsert, rec)
	return errors.Wrapf(err, "put job %s", rec.ID)
}

func (s *SQLStore) Get(ctx context.Context, id string) (JobRecord, error) {
	var rec JobRecord
	err := s.db.GetContext(ctx, &rec, s.db.Rebind(`SELECT * FROM jobs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return JobRecord{}, ErrNotFound
	}
	if err != nil {
		return JobRecord{}, errors.Wrapf(err, "get job %s", id)
	}
	return rec, nil
}

// List returns the most recent records first.
func (s *SQLStore) List(ctx context.Context, limit int) ([]JobRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	var recs []JobRecord
	err := s.db.SelectContext(ctx, &recs, s.db.Rebind(`SELECT * FROM jobs ORDER BY created_at DESC LIMIT ?`), limit)
	return recs, errors.Wrap(err, "list jobs")
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}
