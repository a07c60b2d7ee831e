package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"quote-desk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const createBacktestRunsTable = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    id               BIGSERIAL   PRIMARY KEY,
    symbols          TEXT[]      NOT NULL,
    from_date        TEXT        NOT NULL,
    to_date          TEXT        NOT NULL,
    initial_capital  DOUBLE PRECISION NOT NULL,
    total_return     DOUBLE PRECISION NOT NULL,
    volatility       DOUBLE PRECISION NOT NULL,
    max_drawdown     DOUBLE PRECISION NOT NULL,
    nav              JSONB       NOT NULL,
    created_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_backtest_runs_created_at
    ON backtest_runs (created_at DESC);
`

const defaultListLimit = 20

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// BacktestRunRepository stores backtest results in Postgres.
type BacktestRunRepository struct {
	pool   PgxPool
	tracer trace.Tracer
}

func NewBacktestRunRepository(pool PgxPool, tracer trace.Tracer) *BacktestRunRepository {
	return &BacktestRunRepository{pool: pool, tracer: tracer}
}

func (r *BacktestRunRepository) RunMigrations(ctx context.Context) error {
	ctx, span := r.tracer.Start(ctx, "backtest-run-repo.run-migrations")
	defer span.End()

	_, err := r.pool.Exec(ctx, createBacktestRunsTable)
	return err
}

// SaveRun inserts the run and returns its id.
func (r *BacktestRunRepository) SaveRun(ctx context.Context, run *domain.BacktestResult) (int64, error) {
	ctx, span := r.tracer.Start(ctx, "backtest-run-repo.save-run")
	defer span.End()

	nav, err := json.Marshal(run.NAV)
	if err != nil {
		return 0, fmt.Errorf("encode nav: %w", err)
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO backtest_runs
		     (symbols, from_date, to_date, initial_capital, total_return, volatility, max_drawdown, nav, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id`,
		run.Symbols, run.From, run.To, run.InitialCapital, run.TotalReturn, run.Volatility, run.MaxDrawdown, nav, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert backtest run: %w", err)
	}
	span.SetAttributes(attribute.Int64("run.id", id))
	return id, nil
}

// ListRuns returns the most recent runs, newest first.
func (r *BacktestRunRepository) ListRuns(ctx context.Context, limit int) ([]domain.BacktestResult, error) {
	ctx, span := r.tracer.Start(ctx, "backtest-run-repo.list-runs")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, symbols, from_date, to_date, initial_capital, total_return, volatility, max_drawdown, nav, created_at
		 FROM backtest_runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.BacktestResult{}
	for rows.Next() {
		var (
			run domain.BacktestResult
			nav []byte
		)
		if err := rows.Scan(&run.ID, &run.Symbols, &run.From, &run.To, &run.InitialCapital,
			&run.TotalReturn, &run.Volatility, &run.MaxDrawdown, &nav, &run.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(nav, &run.NAV); err != nil {
			return nil, fmt.Errorf("decode nav for run %d: %w", run.ID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
