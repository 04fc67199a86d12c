// Package persistence provides SQLite-based storage of run results: the
// per-step time series and the observed mixing matrix, keyed by run ID.
package persistence

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/epiworld/internal/config"
	"github.com/talgya/epiworld/internal/engine"
	"github.com/talgya/epiworld/internal/mixing"
)

// DB wraps a SQLite connection for results persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at TEXT NOT NULL,
		seed INTEGER NOT NULL,
		years INTEGER NOT NULL,
		population_size INTEGER NOT NULL,
		config_json TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS timeseries (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		series TEXT NOT NULL,
		value REAL NOT NULL,
		PRIMARY KEY (run_id, step, series)
	);

	CREATE TABLE IF NOT EXISTS observed_mixing (
		run_id TEXT NOT NULL,
		own_location INTEGER NOT NULL,
		partner_location INTEGER NOT NULL,
		count INTEGER NOT NULL,
		frequency REAL NOT NULL,
		PRIMARY KEY (run_id, own_location, partner_location)
	);

	CREATE INDEX IF NOT EXISTS idx_timeseries_run ON timeseries(run_id, series);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreateRun registers a run and returns its generated ID.
func (db *DB) CreateRun(cfg config.Config) (string, error) {
	id := uuid.NewString()
	cfgJSON, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	_, err = db.conn.Exec(
		`INSERT INTO runs (id, created_at, seed, years, population_size, config_json)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339), cfg.Seed, cfg.Years, cfg.PopulationSize, string(cfgJSON),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// SaveTimeSeries writes every collected series for a run.
func (db *DB) SaveTimeSeries(runID string, ts *engine.TimeSeries) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Preparex(
		`INSERT INTO timeseries (run_id, step, series, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	steps := ts.Steps()
	for _, name := range ts.Names() {
		for i, v := range ts.Values(name) {
			if _, err := stmt.Exec(runID, steps[i], name, v); err != nil {
				return fmt.Errorf("insert series %s step %d: %w", name, steps[i], err)
			}
		}
	}
	return tx.Commit()
}

// SaveObservedMixing writes the raw and normalized pairing matrix for a run.
func (db *DB) SaveObservedMixing(runID string, obs *mixing.Observed) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	raw := obs.Raw()
	norm := obs.Normalize()
	for i := range raw {
		for j := range raw[i] {
			_, err := tx.Exec(
				`INSERT INTO observed_mixing (run_id, own_location, partner_location, count, frequency)
				 VALUES (?, ?, ?, ?, ?)`,
				runID, i, j, raw[i][j], norm[i][j],
			)
			if err != nil {
				return fmt.Errorf("insert mixing [%d][%d]: %w", i, j, err)
			}
		}
	}
	return tx.Commit()
}

// SaveRun persists everything a finished simulation produced.
func (db *DB) SaveRun(runID string, sim *engine.Simulation) error {
	slog.Info("saving run results", "run_id", runID, "steps", len(sim.Stats.Steps()))

	if err := db.SaveTimeSeries(runID, sim.Stats); err != nil {
		return fmt.Errorf("save timeseries: %w", err)
	}
	if err := db.SaveObservedMixing(runID, sim.Env.Observed); err != nil {
		return fmt.Errorf("save observed mixing: %w", err)
	}

	slog.Info("run results saved", "run_id", runID)
	return nil
}

// SeriesValues reads one series back, ordered by step.
func (db *DB) SeriesValues(runID, series string) ([]float64, error) {
	var values []float64
	err := db.conn.Select(&values,
		"SELECT value FROM timeseries WHERE run_id = ? AND series = ? ORDER BY step",
		runID, series,
	)
	return values, err
}
