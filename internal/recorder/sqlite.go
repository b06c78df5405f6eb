package recorder

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log *slog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
// ":memory:" opens a private in-memory database.
func NewSQLiteRecorder(dbPath string, logger *slog.Logger) (*SQLiteRecorder, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" consistent and serialises writers.
	db.SetMaxOpenConns(1)

	if dbPath != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}

	r := &SQLiteRecorder{db: db, log: logger.With("component", "recorder")}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info("sqlite recorder opened", "path", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS forecast_requests (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			request_id  TEXT,
			source      TEXT,
			symbol      TEXT,
			horizon     INTEGER,
			model       TEXT,
			outcome     TEXT,
			train_size  INTEGER,
			duration_ms INTEGER,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_ts ON forecast_requests(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_forecast_symbol ON forecast_requests(symbol)`,

		`CREATE TABLE IF NOT EXISTS digest_runs (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp INTEGER NOT NULL,
			symbols   INTEGER,
			succeeded INTEGER,
			failed    INTEGER,
			sent      INTEGER
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func stamp(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func (r *SQLiteRecorder) RecordForecast(ctx context.Context, evt *ForecastEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.ExecContext(ctx, `INSERT INTO forecast_requests
		(timestamp, request_id, source, symbol, horizon, model, outcome, train_size, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?)`,
		stamp(evt.Timestamp), evt.RequestID, evt.Source, evt.Symbol, evt.Horizon,
		evt.Model, evt.Outcome, evt.TrainSize, evt.Duration.Milliseconds(), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordDigest(ctx context.Context, run *DigestRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sent := 0
	if run.Sent {
		sent = 1
	}
	_, err := r.db.ExecContext(ctx, `INSERT INTO digest_runs
		(timestamp, symbols, succeeded, failed, sent)
		VALUES (?,?,?,?,?)`,
		stamp(run.Timestamp), run.Symbols, run.Succeeded, run.Failed, sent,
	)
	return err
}

// RecentForecasts returns up to limit events, newest first.
func (r *SQLiteRecorder) RecentForecasts(ctx context.Context, limit int) ([]ForecastEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.QueryContext(ctx, `SELECT timestamp, request_id, source, symbol, horizon,
		model, outcome, train_size, duration_ms, error
		FROM forecast_requests ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ForecastEvent
	for rows.Next() {
		var (
			evt    ForecastEvent
			ts, ms int64
		)
		if err := rows.Scan(&ts, &evt.RequestID, &evt.Source, &evt.Symbol, &evt.Horizon,
			&evt.Model, &evt.Outcome, &evt.TrainSize, &ms, &evt.Error); err != nil {
			return nil, err
		}
		evt.Timestamp = time.UnixMilli(ts)
		evt.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info("closing sqlite recorder")
	return r.db.Close()
}
