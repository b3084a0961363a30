package storage

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"taskrabbit-scraper/config"
	"taskrabbit-scraper/models"
	"taskrabbit-scraper/utils"
)

// PostgresWriter stores every tasker of a run as one row of the taskers
// table, keyed by run ID and position.
type PostgresWriter struct {
	pool *pgxpool.Pool
}

func NewPostgresWriter(ctx context.Context, cfg config.PostgresConfig) (*PostgresWriter, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, postgresDSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to connect postgres: %w", err)
	}

	return &PostgresWriter{pool: pool}, nil
}

func postgresDSN(cfg config.PostgresConfig) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.Port),
		Path:     "/" + cfg.Name,
		RawQuery: url.Values{"sslmode": {cfg.SSLMode}}.Encode(),
	}
	return u.String()
}

func (w *PostgresWriter) Name() string { return "postgres" }

func (w *PostgresWriter) Close() error {
	if w.pool != nil {
		w.pool.Close()
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS taskers (
	id BIGSERIAL PRIMARY KEY,
	run_id UUID NOT NULL,
	category_key TEXT NOT NULL,
	category_name TEXT NOT NULL,
	position INT NOT NULL,
	name TEXT NOT NULL,
	hourly_rate NUMERIC(10,2),
	review_rating NUMERIC(3,2),
	review_count INT,
	category_task_count INT,
	overall_task_count INT,
	two_hour_minimum BOOLEAN NOT NULL DEFAULT FALSE,
	elite_status BOOLEAN NOT NULL DEFAULT FALSE,
	scraped_at TIMESTAMPTZ NOT NULL,
	UNIQUE (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_taskers_category ON taskers(category_key);
CREATE INDEX IF NOT EXISTS idx_taskers_rate ON taskers(hourly_rate);
`

func (w *PostgresWriter) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()

	if _, err := w.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

const insertTaskerSQL = `
INSERT INTO taskers (
	run_id, category_key, category_name, position, name,
	hourly_rate, review_rating, review_count, category_task_count, overall_task_count,
	two_hour_minimum, elite_status, scraped_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (run_id, position) DO NOTHING;
`

// Store inserts the run in one batch. Nil fields become NULL.
func (w *PostgresWriter) Store(ctx context.Context, result models.RunResult) error {
	if len(result.Taskers) == 0 {
		return nil
	}

	runID, err := uuid.Parse(result.RunID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", result.RunID, err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	batch := &pgx.Batch{}
	for i, t := range result.Taskers {
		batch.Queue(insertTaskerSQL,
			runID,
			result.CategoryKey,
			result.CategoryName,
			i+1,
			t.Name,
			t.HourlyRate,
			t.ReviewRating,
			t.ReviewCount,
			t.CategoryTaskCount,
			t.OverallTaskCount,
			t.TwoHourMinimum,
			t.EliteStatus,
			result.StartedAt,
		)
	}

	results := w.pool.SendBatch(ctx, batch)
	defer results.Close()

	for i := range result.Taskers {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch insert failed at row %d: %w", i, err)
		}
	}

	utils.Success("Stored %d taskers in postgres (run %s)", len(result.Taskers), result.RunID)
	return nil
}
