package metadata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gridhub/aggcoord/core/coordinator"
	"github.com/gridhub/aggcoord/infra/logger"
)

// Config holds the metadata database settings.
type Config struct {
	DSN string `json:"dsn"`
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.DSN == "" {
		return fmt.Errorf("dsn is required")
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id                TEXT PRIMARY KEY,
	process_type      TEXT NOT NULL,
	state             TEXT NOT NULL,
	state_description TEXT NOT NULL DEFAULT '',
	cluster_id        TEXT NOT NULL DEFAULT '',
	engine_job_id     BIGINT NOT NULL DEFAULT 0,
	run_id            BIGINT NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS job_results (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	path       TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`

// Store persists Job and JobResult records in Postgres. Updates are plain
// by-id writes, safe to repeat with identical values. It implements
// coordinator.MetadataStore.
type Store struct {
	pool *pgxpool.Pool
	log  logger.Logger
}

// New connects to the database and ensures the schema exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect metadata db: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ensure metadata schema: %w", err)
	}
	return &Store{pool: pool, log: logger.New("metadata-store")}, nil
}

// Close releases the connection pool.
func (s *Store) Close() { s.pool.Close() }

// CreateJob inserts a new job record.
func (s *Store) CreateJob(ctx context.Context, job *coordinator.Job) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO jobs (id, process_type, state, state_description, cluster_id, engine_job_id, run_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.ProcessType.String(), job.State.String(), job.StateDescription,
		job.ClusterID, job.EngineJobID, job.RunID, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// UpdateJob writes the current job state by id.
func (s *Store) UpdateJob(ctx context.Context, job *coordinator.Job) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE jobs
		SET state = $2, state_description = $3, cluster_id = $4, engine_job_id = $5, run_id = $6, updated_at = $7
		WHERE id = $1`,
		job.ID, job.State.String(), job.StateDescription,
		job.ClusterID, job.EngineJobID, job.RunID, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job %s: %w", job.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job %s: no such record", job.ID)
	}
	return nil
}

// CreateJobResult inserts a new result record.
func (s *Store) CreateJobResult(ctx context.Context, result *coordinator.JobResult) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO job_results (id, job_id, path, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		result.ID, result.JobID, result.Path, result.State, result.CreatedAt, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert job result %s: %w", result.ID, err)
	}
	return nil
}

// UpdateJobResult writes the current result state by id.
func (s *Store) UpdateJobResult(ctx context.Context, result *coordinator.JobResult) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE job_results SET state = $2, updated_at = $3 WHERE id = $1`,
		result.ID, result.State, result.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update job result %s: %w", result.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update job result %s: no such record", result.ID)
	}
	return nil
}
