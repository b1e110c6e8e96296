// Package store keeps a catalog of finished runs and their force histories
// in a SQLite database under the data directory.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/san-kum/windtunnel/internal/aero"
)

const dbName = "runs.db"

var ErrRunNotFound = errors.New("run not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id            TEXT PRIMARY KEY,
	preset        TEXT NOT NULL,
	created_at_ns INTEGER NOT NULL,
	width         INTEGER NOT NULL,
	height        INTEGER NOT NULL,
	tau           REAL NOT NULL,
	inlet_speed   REAL NOT NULL,
	ref_length    REAL NOT NULL DEFAULT 0,
	ticks         INTEGER NOT NULL,
	diverged      INTEGER NOT NULL DEFAULT 0,
	metrics_json  TEXT
);
CREATE TABLE IF NOT EXISTS samples (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	tick   INTEGER NOT NULL,
	drag   REAL NOT NULL,
	lift   REAL NOT NULL,
	PRIMARY KEY (run_id, tick)
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at_ns);
`

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Timestamp  time.Time          `json:"timestamp"`
	Width      int                `json:"width"`
	Height     int                `json:"height"`
	Tau        float64            `json:"tau"`
	InletSpeed float64            `json:"inlet_speed"`
	RefLength  float64            `json:"reference_length"`
	Ticks      int                `json:"ticks"`
	Diverged   bool               `json:"diverged"`
	Metrics    map[string]float64 `json:"metrics"`
}

type Store struct {
	db *sql.DB
}

// Open creates dir if needed and opens (or initialises) its run database.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", filepath.Join(dir, dbName))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save records a run and its samples in one transaction. An empty meta.ID
// gets a fresh UUID and a zero Timestamp becomes now.
func (s *Store) Save(meta *RunMetadata, samples []aero.Sample) (string, error) {
	if meta.ID == "" {
		meta.ID = uuid.New().String()
	}
	if meta.Timestamp.IsZero() {
		meta.Timestamp = time.Now()
	}
	metrics, err := json.Marshal(meta.Metrics)
	if err != nil {
		return "", err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs (id, preset, created_at_ns, width, height, tau, inlet_speed, ref_length, ticks, diverged, metrics_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Preset, meta.Timestamp.UnixNano(), meta.Width, meta.Height,
		meta.Tau, meta.InletSpeed, meta.RefLength, meta.Ticks, meta.Diverged, string(metrics),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO samples (run_id, tick, drag, lift) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, smp := range samples {
		if _, err := stmt.Exec(meta.ID, i+1, smp.Drag, smp.Lift); err != nil {
			return "", fmt.Errorf("insert sample %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return meta.ID, nil
}

const selectRun = `
	SELECT id, preset, created_at_ns, width, height, tau, inlet_speed, ref_length, ticks, diverged, metrics_json
	FROM runs`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunMetadata, error) {
	var (
		meta    RunMetadata
		created int64
		metrics sql.NullString
	)
	err := row.Scan(&meta.ID, &meta.Preset, &created, &meta.Width, &meta.Height,
		&meta.Tau, &meta.InletSpeed, &meta.RefLength, &meta.Ticks, &meta.Diverged, &metrics)
	if err != nil {
		return nil, err
	}
	meta.Timestamp = time.Unix(0, created)
	if metrics.Valid && metrics.String != "" {
		if err := json.Unmarshal([]byte(metrics.String), &meta.Metrics); err != nil {
			return nil, fmt.Errorf("run %s metrics: %w", meta.ID, err)
		}
	}
	return &meta, nil
}

// List returns all runs, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	rows, err := s.db.Query(selectRun + ` ORDER BY created_at_ns DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunMetadata, 0)
	for rows.Next() {
		meta, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *meta)
	}
	return runs, rows.Err()
}

func (s *Store) Load(id string) (*RunMetadata, error) {
	meta, err := scanRun(s.db.QueryRow(selectRun+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return meta, err
}

// LoadSamples returns a run's force history in tick order.
func (s *Store) LoadSamples(id string) ([]aero.Sample, error) {
	if _, err := s.Load(id); err != nil {
		return nil, err
	}
	rows, err := s.db.Query(`SELECT drag, lift FROM samples WHERE run_id = ? ORDER BY tick`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := make([]aero.Sample, 0)
	for rows.Next() {
		var smp aero.Sample
		if err := rows.Scan(&smp.Drag, &smp.Lift); err != nil {
			return nil, err
		}
		samples = append(samples, smp)
	}
	return samples, rows.Err()
}

func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}
