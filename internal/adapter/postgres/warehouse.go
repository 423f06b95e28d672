// Package postgres mirrors averages and predictions into PostgreSQL tables for
// ad-hoc querying. Artifacts remain the source of truth.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
	_ "github.com/lib/pq"
)

//go:embed migrations/*.sql
var migrations embed.FS

const batchSize = 200

// Warehouse upserts pipeline outputs. It implements pipeline.Sink.
type Warehouse struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open connects to dsn, verifies the connection, and applies migrations.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Warehouse, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	w := &Warehouse{db: db, logger: logger}
	if err := w.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return w, nil
}

// migrate executes the embedded SQL files in name order.
func (w *Warehouse) migrate(ctx context.Context) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("postgres: list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		content, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("postgres: read migration %s: %w", name, err)
		}
		if _, err := w.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("postgres: run migration %s: %w", name, err)
		}
		w.logger.Debug("migration applied", "file", name)
	}
	return nil
}

// UpsertAverages writes averages, replacing rows with the same key.
func (w *Warehouse) UpsertAverages(ctx context.Context, averages []domain.DistrictAverage) error {
	rows := make([][]any, len(averages))
	for i, a := range averages {
		rows[i] = []any{a.District, string(a.Scope), a.Year, a.AverageAQI}
	}
	return w.upsert(ctx, "district_averages", []string{"district_id", "scope", "year", "average_aqi"}, rows)
}

// UpsertPredictions writes predictions tagged with the run that produced them.
func (w *Warehouse) UpsertPredictions(ctx context.Context, runID string, predictions []domain.Prediction) error {
	rows := make([][]any, len(predictions))
	for i, p := range predictions {
		rows[i] = []any{p.District, string(p.Scope), p.Year, p.PredictedAQI, runID}
	}
	return w.upsert(ctx, "district_predictions", []string{"district_id", "scope", "year", "predicted_aqi", "run_id"}, rows)
}

// upsert writes rows in batches inside one transaction.
func (w *Warehouse) upsert(ctx context.Context, table string, columns []string, rows [][]any) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	for start := 0; start < len(rows); start += batchSize {
		end := min(start+batchSize, len(rows))
		query, args := upsertQuery(table, columns, rows[start:end])
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("postgres: upsert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit %s: %w", table, err)
	}
	w.logger.Debug("rows upserted", "table", table, "count", len(rows))
	return nil
}

// upsertQuery builds a multi-row INSERT keyed on (district_id, scope, year).
// Every column after the key is overwritten on conflict.
func upsertQuery(table string, columns []string, rows [][]any) (string, []any) {
	values := make([]string, 0, len(rows))
	args := make([]any, 0, len(rows)*len(columns))
	for i, row := range rows {
		ph := make([]string, len(columns))
		for j := range columns {
			ph[j] = fmt.Sprintf("$%d", i*len(columns)+j+1)
		}
		values = append(values, "("+strings.Join(ph, ",")+")")
		args = append(args, row...)
	}

	var sets []string
	for _, c := range columns[3:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}
	sets = append(sets, "updated_at = NOW()")

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (district_id, scope, year) DO UPDATE SET %s",
		table, strings.Join(columns, ", "), strings.Join(values, ","), strings.Join(sets, ", "),
	)
	return query, args
}

// PredictedAQI reads one stored prediction.
func (w *Warehouse) PredictedAQI(ctx context.Context, scope domain.Scope, district string, year int) (float64, error) {
	var v float64
	err := w.db.QueryRowContext(ctx,
		`SELECT predicted_aqi FROM district_predictions WHERE district_id = $1 AND scope = $2 AND year = $3`,
		district, string(scope), year,
	).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("postgres: read prediction: %w", err)
	}
	return v, nil
}

// Ping reports whether the database is reachable.
func (w *Warehouse) Ping(ctx context.Context) error {
	return w.db.PingContext(ctx)
}

func (w *Warehouse) Close() error {
	return w.db.Close()
}
