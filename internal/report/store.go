// Package report persists and displays the results of a reframing run:
// per-scene summaries and render records go into a sqlite database, and a
// terminal reporter shows progress while the run is underway.
package report

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/autoframe/autoframe/pkg/engine"
)

const schema = `
CREATE TABLE IF NOT EXISTS scenes (
	run_id TEXT NOT NULL,
	scene_index INTEGER NOT NULL,
	start_timestamp_us INTEGER NOT NULL,
	end_timestamp_us INTEGER NOT NULL,
	camera_motion TEXT NOT NULL,
	padding_applied INTEGER NOT NULL,
	frame_count INTEGER NOT NULL,
	key_frame_count INTEGER NOT NULL,
	PRIMARY KEY (run_id, scene_index)
);
CREATE TABLE IF NOT EXISTS render_records (
	run_id TEXT NOT NULL,
	timestamp_us INTEGER NOT NULL,
	crop_x INTEGER NOT NULL,
	crop_y INTEGER NOT NULL,
	crop_width INTEGER NOT NULL,
	crop_height INTEGER NOT NULL,
	render_x INTEGER NOT NULL,
	render_y INTEGER NOT NULL,
	render_width INTEGER NOT NULL,
	render_height INTEGER NOT NULL,
	padding_r INTEGER NOT NULL,
	padding_g INTEGER NOT NULL,
	padding_b INTEGER NOT NULL,
	PRIMARY KEY (run_id, timestamp_us)
);
CREATE INDEX IF NOT EXISTS idx_records_run ON render_records(run_id);
`

// Store is a sqlite-backed sink for run results.
type Store struct {
	db *sql.DB
}

// OpenStore opens (creating if needed) the report database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("report: create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("report: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("report: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// SaveScene inserts or replaces one scene summary row.
func (s *Store) SaveScene(sum engine.SceneSummary) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO scenes
		(run_id, scene_index, start_timestamp_us, end_timestamp_us,
		 camera_motion, padding_applied, frame_count, key_frame_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.SceneIndex, sum.StartTimestampUS, sum.EndTimestampUS,
		sum.CameraMotion.String(), boolToInt(sum.PaddingApplied),
		sum.FrameCount, sum.KeyFrameCount)
	if err != nil {
		return fmt.Errorf("report: save scene %d: %w", sum.SceneIndex, err)
	}
	return nil
}

// SaveRecord inserts or replaces one render record row.
func (s *Store) SaveRecord(runID string, r engine.RenderRecord) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO render_records
		(run_id, timestamp_us,
		 crop_x, crop_y, crop_width, crop_height,
		 render_x, render_y, render_width, render_height,
		 padding_r, padding_g, padding_b)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.TimestampUS,
		r.CropFrom.X, r.CropFrom.Y, r.CropFrom.Width, r.CropFrom.Height,
		r.RenderTo.X, r.RenderTo.Y, r.RenderTo.Width, r.RenderTo.Height,
		r.PaddingColor[0], r.PaddingColor[1], r.PaddingColor[2])
	if err != nil {
		return fmt.Errorf("report: save record at %dus: %w", r.TimestampUS, err)
	}
	return nil
}

// Scenes returns all scene rows for a run in scene order.
func (s *Store) Scenes(runID string) ([]engine.SceneSummary, error) {
	rows, err := s.db.Query(`
		SELECT run_id, scene_index, start_timestamp_us, end_timestamp_us,
		       camera_motion, padding_applied, frame_count, key_frame_count
		FROM scenes WHERE run_id = ? ORDER BY scene_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("report: query scenes: %w", err)
	}
	defer rows.Close()

	var out []engine.SceneSummary
	for rows.Next() {
		var sum engine.SceneSummary
		var motionName string
		var padded int
		if err := rows.Scan(&sum.RunID, &sum.SceneIndex, &sum.StartTimestampUS,
			&sum.EndTimestampUS, &motionName, &padded,
			&sum.FrameCount, &sum.KeyFrameCount); err != nil {
			return nil, fmt.Errorf("report: scan scene: %w", err)
		}
		sum.CameraMotion = motionFromName(motionName)
		sum.PaddingApplied = padded != 0
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
