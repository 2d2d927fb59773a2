package dataset

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Index is the SQLite catalogue of runs and frames in a dataset.
type Index struct {
	db   *sql.DB
	path string
}

// Run describes one generation run.
type Run struct {
	ID        string
	Slug      string
	Seed      uint64
	Frames    int
	Config    json.RawMessage
	CreatedAt time.Time
}

// FrameRecord is one indexed frame.
type FrameRecord struct {
	RunID       string
	Frame       int
	Image       string
	Params      json.RawMessage
	Keypoints   json.RawMessage
	Annotations json.RawMessage
}

// OpenIndex opens or creates the index database and runs migrations.
func OpenIndex(path string) (*Index, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("dataset: open index: %w", err)
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: enable foreign keys: %w", err)
	}

	idx := &Index{db: db, path: path}
	if err := idx.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: migrate index: %w", err)
	}
	return idx, nil
}

func (x *Index) runMigrations() error {
	migrations := []string{
		// One row per generation run
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			slug TEXT NOT NULL,
			seed INTEGER NOT NULL,
			frames INTEGER NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// One row per written frame
		`CREATE TABLE IF NOT EXISTS frames (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			frame INTEGER NOT NULL,
			image TEXT NOT NULL,
			params TEXT NOT NULL,
			keypoints TEXT NOT NULL,
			annotations TEXT NOT NULL,
			PRIMARY KEY (run_id, frame)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_frames_image ON frames(image)`,
	}

	for _, m := range migrations {
		if _, err := x.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database.
func (x *Index) Close() error { return x.db.Close() }

// DB returns the underlying connection.
func (x *Index) DB() *sql.DB { return x.db }

// BeginRun records a new run.
func (x *Index) BeginRun(r Run) error {
	cfg := r.Config
	if len(cfg) == 0 {
		cfg = json.RawMessage("{}")
	}
	_, err := x.db.Exec(`INSERT INTO runs (id, slug, seed, frames, config, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.Slug, int64(r.Seed), r.Frames, string(cfg), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("dataset: record run %s: %w", r.ID, err)
	}
	return nil
}

// AddFrames inserts frames in one transaction. A frame number already
// present for the run replaces the old row.
func (x *Index) AddFrames(frames []FrameRecord) error {
	tx, err := x.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO frames (run_id, frame, image, params, keypoints, annotations)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, f := range frames {
		if _, err := stmt.Exec(f.RunID, f.Frame, f.Image, string(f.Params), string(f.Keypoints), string(f.Annotations)); err != nil {
			return fmt.Errorf("dataset: index frame %d: %w", f.Frame, err)
		}
	}
	return tx.Commit()
}

// Frames returns the frames of a run in frame order.
func (x *Index) Frames(runID string) ([]FrameRecord, error) {
	rows, err := x.db.Query(
		`SELECT run_id, frame, image, params, keypoints, annotations
		 FROM frames
		 WHERE run_id = ?
		 ORDER BY frame`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FrameRecord
	for rows.Next() {
		var f FrameRecord
		var params, kps, ann string
		if err := rows.Scan(&f.RunID, &f.Frame, &f.Image, &params, &kps, &ann); err != nil {
			return nil, err
		}
		f.Params = json.RawMessage(params)
		f.Keypoints = json.RawMessage(kps)
		f.Annotations = json.RawMessage(ann)
		out = append(out, f)
	}
	return out, rows.Err()
}

// Runs lists recorded runs, newest first.
func (x *Index) Runs() ([]Run, error) {
	rows, err := x.db.Query(`SELECT id, slug, seed, frames, config, created_at FROM runs ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var seed int64
		var cfg string
		if err := rows.Scan(&r.ID, &r.Slug, &seed, &r.Frames, &cfg, &r.CreatedAt); err != nil {
			return nil, err
		}
		r.Seed = uint64(seed)
		r.Config = json.RawMessage(cfg)
		out = append(out, r)
	}
	return out, rows.Err()
}
