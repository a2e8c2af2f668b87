// Package monitor accumulates per-frame detection and track snapshots
// and exposes them over HTTP: a Recorder accumulates samples under a
// mutex, and a Server serves them over net/http with go-echarts and
// gonum/plot debug endpoints.
package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
)

// Sample is one track's recorded position and instantaneous speed at a
// given frame, derived from the distance to its previous recorded
// position.
type Sample struct {
	FrameIndex int
	Timestamp  time.Time
	TrackID    string
	Speed      float64
	Position   geom.Vector
}

// Recorder accumulates detection and track history for visualization. It
// samples on each call to RecordFrame, the way GridPlotter samples on
// each call to Sample.
type Recorder struct {
	mu         sync.Mutex
	startTime  time.Time
	detections []geom.Voxel
	tracks     []track.Track
	speedLog   map[string][]Sample
	lastSeen   map[string]Sample
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		speedLog: make(map[string][]Sample),
		lastSeen: make(map[string]Sample),
	}
}

// RecordFrame stores the latest detection set and track list, and appends
// a speed sample for every confirmed track with at least one position.
// A track's first sample has speed 0.
func (r *Recorder) RecordFrame(frameIndex int, detections []geom.Voxel, tracks []track.Track) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.startTime.IsZero() {
		r.startTime = time.Now()
	}

	r.detections = append([]geom.Voxel(nil), detections...)
	r.tracks = append([]track.Track(nil), tracks...)

	now := time.Now()
	for _, t := range tracks {
		if !t.Confirmed {
			continue
		}
		if len(t.Positions) == 0 {
			continue
		}
		pos := t.LastPosition()
		id := t.ID.String()
		speed := 0.0
		if prev, ok := r.lastSeen[id]; ok && prev.FrameIndex != frameIndex {
			dt := float64(frameIndex - prev.FrameIndex)
			if dt > 0 {
				speed = pos.Sub(prev.Position).Norm() / dt
			}
		}
		s := Sample{FrameIndex: frameIndex, Timestamp: now, TrackID: id, Speed: speed, Position: pos}
		r.speedLog[id] = append(r.speedLog[id], s)
		r.lastSeen[id] = s
	}
}

// Detections returns the most recently recorded detection voxels.
func (r *Recorder) Detections() []geom.Voxel {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]geom.Voxel(nil), r.detections...)
}

// Tracks returns the most recently recorded track list.
func (r *Recorder) Tracks() []track.Track {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]track.Track(nil), r.tracks...)
}

// SpeedHistory returns the accumulated speed samples for trackID, ordered
// by frame index.
func (r *Recorder) SpeedHistory(trackID string) []Sample {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sample(nil), r.speedLog[trackID]...)
}

// TrackIDs returns every track ID with at least one recorded speed
// sample, sorted for deterministic iteration.
func (r *Recorder) TrackIDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.speedLog))
	for id := range r.speedLog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
