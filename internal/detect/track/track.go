// Package track implements greedy nearest-neighbor temporal
// association of per-frame clusters into persistent tracks, confirmed
// once matched in enough frames (age) and retired after a run of
// consecutive missed frames.
//
// The lifecycle bookkeeping (hits/misses counters, tentative-to-
// confirmed transition, mutex-guarded state) follows a last-known-
// position nearest-neighbor model rather than a Kalman filter. Track
// identity uses google/uuid rather than a caller-supplied string,
// since nothing here derives an ID from a sensor name.
package track

import (
	"sort"
	"sync"

	"github.com/aeroglyph/voxelcast/internal/detect/cluster"
	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/google/uuid"
)

const op = "track.Update"

// Position is a single frame's observation of a track.
type Position struct {
	FrameIndex int
	Pos        geom.Vector
}

// Track is a persistent association of clusters across frames.
type Track struct {
	ID        uuid.UUID
	Positions []Position
	Age       int
	Missing   int
	Confirmed bool
}

// LastPosition returns the most recent recorded position.
func (t *Track) LastPosition() geom.Vector {
	return t.Positions[len(t.Positions)-1].Pos
}

// Config holds the tracker's tunable knobs: min_age (matched frames
// before a track confirms; a missed frame does not reset the count),
// max_missing (consecutive
// misses tolerated before erasure), max_distance (gating distance, m)
// and the assignment strategy.
type Config struct {
	MinAge      int
	MaxMissing  int
	MaxDistance float64
	Assigner    Assigner
}

// DefaultConfig returns the tracker's production defaults, using the
// greedy order-sensitive assigner.
func DefaultConfig() Config {
	return Config{MinAge: 3, MaxMissing: 5, MaxDistance: 5, Assigner: GreedyAssigner{}}
}

func (c Config) validate() error {
	if c.MinAge < 1 {
		return detecterr.New(detecterr.InvalidParameters, op, "min_age must be >= 1")
	}
	if c.MaxMissing < 0 {
		return detecterr.New(detecterr.InvalidParameters, op, "max_missing must be >= 0")
	}
	if c.MaxDistance <= 0 {
		return detecterr.New(detecterr.InvalidParameters, op, "max_distance must be > 0")
	}
	if c.Assigner == nil {
		return detecterr.New(detecterr.InvalidParameters, op, "assigner must not be nil")
	}
	return nil
}

// Tracker holds the active Track list across frames. It is safe for
// concurrent use.
type Tracker struct {
	mu     sync.Mutex
	config Config
	tracks []*Track
}

// New builds a Tracker. An invalid Config is rejected immediately
// rather than deferred to the first Update.
func New(config Config) (*Tracker, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &Tracker{config: config}, nil
}

// Update advances the tracker by one frame: clusters are matched
// against existing tracks, unmatched tracks age toward expiry, and any
// unmatched cluster spawns a fresh track. This never fails — a frame
// with no clusters simply ages every track toward expiry.
func (tr *Tracker) Update(clusters []cluster.Cluster, frameIndex int) {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	trackPositions := make([]geom.Vector, len(tr.tracks))
	for i, t := range tr.tracks {
		trackPositions[i] = t.LastPosition()
	}
	centroids := make([]geom.Vector, len(clusters))
	for i, c := range clusters {
		centroids[i] = c.Centroid
	}

	assignment := tr.config.Assigner.Assign(trackPositions, centroids, tr.config.MaxDistance)

	matchedTrack := make([]bool, len(tr.tracks))
	for clusterIdx, trackIdx := range assignment {
		if trackIdx < 0 {
			continue
		}
		matchedTrack[trackIdx] = true
		t := tr.tracks[trackIdx]
		t.Positions = append(t.Positions, Position{FrameIndex: frameIndex, Pos: centroids[clusterIdx]})
		t.Age++
		t.Missing = 0
		if t.Age >= tr.config.MinAge {
			t.Confirmed = true
		}
	}

	var survivors []*Track
	for i, t := range tr.tracks {
		if !matchedTrack[i] {
			t.Missing++
			if t.Missing > tr.config.MaxMissing {
				continue
			}
		}
		survivors = append(survivors, t)
	}
	tr.tracks = survivors

	for clusterIdx, trackIdx := range assignment {
		if trackIdx >= 0 {
			continue
		}
		tr.tracks = append(tr.tracks, &Track{
			ID:        uuid.New(),
			Positions: []Position{{FrameIndex: frameIndex, Pos: centroids[clusterIdx]}},
			Age:       1,
			Missing:   0,
			Confirmed: false,
		})
	}
}

// ConfirmedTracks returns a snapshot of every currently confirmed
// track, sorted by ID for determinism.
func (tr *Tracker) ConfirmedTracks() []Track {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	var out []Track
	for _, t := range tr.tracks {
		if t.Confirmed {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}

// AllTracks returns a snapshot of every active track, confirmed or
// not, primarily for tests and monitoring.
func (tr *Tracker) AllTracks() []Track {
	tr.mu.Lock()
	defer tr.mu.Unlock()

	out := make([]Track, len(tr.tracks))
	for i, t := range tr.tracks {
		out[i] = *t
	}
	return out
}
