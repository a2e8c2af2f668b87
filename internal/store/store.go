// Package store persists carved detections and confirmed tracks to
// SQLite: a thin wrapper around *sql.DB with schema evolution handled
// by golang-migrate rather than ad hoc CREATE TABLE IF NOT EXISTS calls
// run at Open time.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store wraps a SQLite connection holding the detector's persisted
// state: per-frame detections and the track lifecycle history.
type Store struct {
	*sql.DB
}

// Open opens (creating if absent) the SQLite database at path and
// migrates its schema to the latest version.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	s := &Store{db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SaveDetections records one frame's carved detection voxels.
func (s *Store) SaveDetections(frameIndex int, voxels []geom.Voxel) error {
	if len(voxels) == 0 {
		return nil
	}
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin detections transaction: %w", err)
	}
	stmt, err := tx.Prepare(`INSERT INTO detections (frame_index, center_x, center_y, center_z, half) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("prepare detections insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range voxels {
		if _, err := stmt.Exec(frameIndex, v.Center.X, v.Center.Y, v.Center.Z, v.Half); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert detection: %w", err)
		}
	}
	return tx.Commit()
}

// SaveTrack upserts a track's lifecycle row and appends its most recent
// position, ignoring the position if it's already been recorded for
// that (track_id, frame_index) pair.
func (s *Store) SaveTrack(t track.Track) error {
	if len(t.Positions) == 0 {
		return nil
	}
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("begin track transaction: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO tracks (id, age, missing, confirmed, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET age=excluded.age, missing=excluded.missing,
			confirmed=excluded.confirmed, updated_at=excluded.updated_at
	`, t.ID.String(), t.Age, t.Missing, t.Confirmed, time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("upsert track: %w", err)
	}

	last := t.Positions[len(t.Positions)-1]
	_, err = tx.Exec(`
		INSERT INTO track_positions (track_id, frame_index, x, y, z)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(track_id, frame_index) DO NOTHING
	`, t.ID.String(), last.FrameIndex, last.Pos.X, last.Pos.Y, last.Pos.Z)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("insert track position: %w", err)
	}
	return tx.Commit()
}

// ConfirmedTrackIDs returns the IDs of every track currently marked
// confirmed.
func (s *Store) ConfirmedTrackIDs() ([]uuid.UUID, error) {
	rows, err := s.Query(`SELECT id FROM tracks WHERE confirmed = 1`)
	if err != nil {
		return nil, fmt.Errorf("query confirmed tracks: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan track id: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse track id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
