// Package config loads detector tuning parameters from JSON, with
// every knob a pointer so a partial file only overrides the fields it
// names and everything else keeps its default, overlaid onto each
// stage's production defaults at Resolve time.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aeroglyph/voxelcast/internal/detect/carve"
	"github.com/aeroglyph/voxelcast/internal/detect/cluster"
	"github.com/aeroglyph/voxelcast/internal/detect/motion"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
)

// Tuning is the root configuration document. Every field is optional;
// an absent field keeps the production default for its stage.
type Tuning struct {
	// Motion masking.
	MotionThreshold *int `json:"motion_threshold,omitempty"`

	// Voxel carving.
	SMin  *float64 `json:"s_min,omitempty"`
	K     *int     `json:"k,omitempty"`
	N     *int     `json:"n,omitempty"`
	Theta *float64 `json:"theta,omitempty"`

	// Clustering.
	Mu      *float64 `json:"mu,omitempty"`
	MinSize *int     `json:"min_cluster_size,omitempty"`

	// Tracking.
	MinAge      *int     `json:"min_age,omitempty"`
	MaxMissing  *int     `json:"max_missing,omitempty"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
	// Assigner selects the tracker's cluster-to-track matching
	// strategy: "greedy" (the default) or "hungarian".
	Assigner *string `json:"assigner,omitempty"`
}

// Empty returns a Tuning with every field unset.
func Empty() *Tuning {
	return &Tuning{}
}

// LoadJSON reads and parses a partial Tuning document from path. Fields
// omitted from the file retain their production defaults when later
// resolved via Resolve.
func LoadJSON(path string) (*Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	cfg := Empty()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects a document whose assigner name isn't recognized.
// Numeric range validation is left to the detector packages themselves
// (carve.Carve, cluster.Cluster, track.New), which check the resolved
// values when they receive them; Resolve itself validates nothing.
func (t *Tuning) Validate() error {
	if t.Assigner != nil {
		switch *t.Assigner {
		case "greedy", "hungarian":
		default:
			return fmt.Errorf("unknown assigner %q (want \"greedy\" or \"hungarian\")", *t.Assigner)
		}
	}
	return nil
}

// Resolved is the fully materialized configuration, with every field
// set either from the document or from the production default.
type Resolved struct {
	MotionThreshold uint8
	Carve           carve.Params
	Cluster         cluster.Params
	Track           track.Config
}

// Resolve overlays t onto the production defaults, producing a
// complete, ready-to-use configuration.
func (t *Tuning) Resolve() Resolved {
	carveDefaults := carve.DefaultParams()
	clusterDefaults := cluster.DefaultParams()
	trackDefaults := track.DefaultConfig()

	r := Resolved{
		MotionThreshold: motion.DefaultThreshold,
		Carve:           carveDefaults,
		Cluster:         clusterDefaults,
		Track:           trackDefaults,
	}

	if t.MotionThreshold != nil {
		r.MotionThreshold = uint8(*t.MotionThreshold)
	}
	if t.SMin != nil {
		r.Carve.SMin = *t.SMin
	}
	if t.K != nil {
		r.Carve.K = *t.K
	}
	if t.N != nil {
		r.Carve.N = *t.N
	}
	if t.Theta != nil {
		r.Carve.Theta = *t.Theta
	}
	if t.Mu != nil {
		r.Cluster.Mu = *t.Mu
	}
	if t.MinSize != nil {
		r.Cluster.MinSize = *t.MinSize
	}
	if t.MinAge != nil {
		r.Track.MinAge = *t.MinAge
	}
	if t.MaxMissing != nil {
		r.Track.MaxMissing = *t.MaxMissing
	}
	if t.MaxDistance != nil {
		r.Track.MaxDistance = *t.MaxDistance
	}
	if t.Assigner != nil && *t.Assigner == "hungarian" {
		r.Track.Assigner = track.HungarianAssigner{}
	}

	return r
}
