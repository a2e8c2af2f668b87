package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aeroglyph/voxelcast/internal/detect/motion"
	"github.com/aeroglyph/voxelcast/internal/detect/track"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmptyResolvesToProductionDefaults(t *testing.T) {
	r := Empty().Resolve()
	assert.Equal(t, motion.DefaultThreshold, r.MotionThreshold)
	assert.Equal(t, 0.1, r.Carve.SMin)
	assert.Equal(t, 3, r.Carve.K)
	assert.Equal(t, 8, r.Carve.N)
	assert.IsType(t, track.GreedyAssigner{}, r.Track.Assigner)
}

func TestPartialOverrideOnlyChangesNamedFields(t *testing.T) {
	sMin := 0.25
	k := 5
	tuning := &Tuning{SMin: &sMin, K: &k}
	r := tuning.Resolve()

	assert.Equal(t, 0.25, r.Carve.SMin)
	assert.Equal(t, 5, r.Carve.K)
	assert.Equal(t, 8, r.Carve.N) // untouched, stays default
}

func TestLoadJSONOverlaysPartialDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"s_min": 0.3, "assigner": "hungarian"}`), 0o644))

	cfg, err := LoadJSON(path)
	require.NoError(t, err)
	r := cfg.Resolve()
	assert.Equal(t, 0.3, r.Carve.SMin)
	assert.IsType(t, track.HungarianAssigner{}, r.Track.Assigner)
}

func TestLoadJSONRejectsUnknownAssigner(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"assigner": "kalman"}`), 0o644))

	_, err := LoadJSON(path)
	require.Error(t, err)
}

func TestLoadJSONMissingFileReturnsError(t *testing.T) {
	_, err := LoadJSON("/nonexistent/path/tuning.json")
	require.Error(t, err)
}
