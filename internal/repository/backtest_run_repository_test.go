package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"quote-desk/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return assign(r.values, dest)
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Close()                                       {}
func (r *fakeRows) Err() error                                   { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *fakeRows) Values() ([]any, error)                       { return r.data[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte                          { return nil }
func (r *fakeRows) Conn() *pgx.Conn                              { return nil }

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++
	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	return assign(r.data[r.idx-1], dest)
}

func assign(values []any, dest []any) error {
	if len(values) != len(dest) {
		return errors.New("column count mismatch")
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *int64:
			*d = v.(int64)
		case *string:
			*d = v.(string)
		case *float64:
			*d = v.(float64)
		case *[]string:
			*d = v.([]string)
		case *[]byte:
			*d = v.([]byte)
		case *time.Time:
			*d = v.(time.Time)
		default:
			return errors.New("unsupported scan target")
		}
	}
	return nil
}

type fakePool struct {
	execSQL  []string
	args     []any
	row      fakeRow
	rows     [][]any
	queryErr error
}

func (p *fakePool) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	return pgconn.CommandTag{}, nil
}

func (p *fakePool) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	p.args = args
	return p.row
}

func (p *fakePool) Query(_ context.Context, _ string, args ...any) (pgx.Rows, error) {
	p.args = args
	if p.queryErr != nil {
		return nil, p.queryErr
	}
	return &fakeRows{data: p.rows}, nil
}

func TestRunMigrationsCreatesTable(t *testing.T) {
	pool := &fakePool{}
	repo := NewBacktestRunRepository(pool, testTracer)
	require.NoError(t, repo.RunMigrations(context.Background()))
	require.Len(t, pool.execSQL, 1)
	assert.True(t, strings.Contains(pool.execSQL[0], "CREATE TABLE IF NOT EXISTS backtest_runs"))
}

func TestSaveRunReturnsID(t *testing.T) {
	pool := &fakePool{row: fakeRow{values: []any{int64(42)}}}
	repo := NewBacktestRunRepository(pool, testTracer)

	run := &domain.BacktestResult{
		Symbols: []string{"AAPL"}, From: "2024-01-01", To: "2024-02-01", InitialCapital: 10000,
		NAV: []domain.NAVPoint{{Date: "2024-01-02", Value: 10000}},
	}
	id, err := repo.SaveRun(context.Background(), run)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	require.Len(t, pool.args, 9)
	assert.Equal(t, []string{"AAPL"}, pool.args[0])
	assert.JSONEq(t, `[{"date":"2024-01-02","value":10000}]`, string(pool.args[7].([]byte)))
	assert.False(t, pool.args[8].(time.Time).IsZero())
}

func TestSaveRunWrapsError(t *testing.T) {
	pool := &fakePool{row: fakeRow{err: errors.New("conn refused")}}
	_, err := NewBacktestRunRepository(pool, testTracer).SaveRun(context.Background(), &domain.BacktestResult{})
	assert.ErrorContains(t, err, "insert backtest run")
}

func TestListRunsDecodesNAV(t *testing.T) {
	nav, _ := json.Marshal([]domain.NAVPoint{{Date: "2024-01-02", Value: 10000}, {Date: "2024-01-03", Value: 10100}})
	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pool := &fakePool{rows: [][]any{
		{int64(7), []string{"AAPL", "MSFT"}, "2024-01-01", "2024-02-01", 5000.0, 0.01, 0.2, -0.05, nav, created},
	}}
	runs, err := NewBacktestRunRepository(pool, testTracer).ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(7), runs[0].ID)
	assert.Equal(t, []string{"AAPL", "MSFT"}, runs[0].Symbols)
	assert.Len(t, runs[0].NAV, 2)
	assert.Equal(t, created, runs[0].CreatedAt)
	assert.Equal(t, []any{defaultListLimit}, pool.args)
}

func TestListRunsQueryError(t *testing.T) {
	pool := &fakePool{queryErr: errors.New("boom")}
	_, err := NewBacktestRunRepository(pool, testTracer).ListRuns(context.Background(), 5)
	assert.Error(t, err)
}
