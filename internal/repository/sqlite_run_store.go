package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"quote-desk/internal/domain"

	"go.opentelemetry.io/otel/trace"
	_ "modernc.org/sqlite"
)

const createSQLiteRunsTable = `
CREATE TABLE IF NOT EXISTS backtest_runs (
    id               INTEGER PRIMARY KEY AUTOINCREMENT,
    symbols          TEXT    NOT NULL,
    from_date        TEXT    NOT NULL,
    to_date          TEXT    NOT NULL,
    initial_capital  REAL    NOT NULL,
    total_return     REAL    NOT NULL,
    volatility       REAL    NOT NULL,
    max_drawdown     REAL    NOT NULL,
    nav              TEXT    NOT NULL,
    created_at       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_backtest_runs_created_at ON backtest_runs(created_at);
`

// SQLiteRunStore stores backtest results in a local SQLite file. It is used when no
// Postgres database is configured.
type SQLiteRunStore struct {
	db     *sql.DB
	tracer trace.Tracer
	mu     sync.Mutex
}

// OpenSQLiteRunStore opens (or creates) the database at path and creates the runs table.
func OpenSQLiteRunStore(path string, tracer trace.Tracer) (*SQLiteRunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(createSQLiteRunsTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLiteRunStore{db: db, tracer: tracer}, nil
}

func (s *SQLiteRunStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteRunStore) SaveRun(ctx context.Context, run *domain.BacktestResult) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "sqlite-run-store.save-run")
	defer span.End()

	symbols, err := json.Marshal(run.Symbols)
	if err != nil {
		return 0, fmt.Errorf("encode symbols: %w", err)
	}
	nav, err := json.Marshal(run.NAV)
	if err != nil {
		return 0, fmt.Errorf("encode nav: %w", err)
	}
	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO backtest_runs
		     (symbols, from_date, to_date, initial_capital, total_return, volatility, max_drawdown, nav, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(symbols), run.From, run.To, run.InitialCapital, run.TotalReturn, run.Volatility, run.MaxDrawdown,
		string(nav), createdAt.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("insert backtest run: %w", err)
	}
	return res.LastInsertId()
}

func (s *SQLiteRunStore) ListRuns(ctx context.Context, limit int) ([]domain.BacktestResult, error) {
	ctx, span := s.tracer.Start(ctx, "sqlite-run-store.list-runs")
	defer span.End()

	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, symbols, from_date, to_date, initial_capital, total_return, volatility, max_drawdown, nav, created_at
		 FROM backtest_runs
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []domain.BacktestResult{}
	for rows.Next() {
		var (
			run            domain.BacktestResult
			symbols, nav   string
			createdAtMilli int64
		)
		if err := rows.Scan(&run.ID, &symbols, &run.From, &run.To, &run.InitialCapital,
			&run.TotalReturn, &run.Volatility, &run.MaxDrawdown, &nav, &createdAtMilli); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(symbols), &run.Symbols); err != nil {
			return nil, fmt.Errorf("decode symbols for run %d: %w", run.ID, err)
		}
		if err := json.Unmarshal([]byte(nav), &run.NAV); err != nil {
			return nil, fmt.Errorf("decode nav for run %d: %w", run.ID, err)
		}
		run.CreatedAt = time.UnixMilli(createdAtMilli).UTC()
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
