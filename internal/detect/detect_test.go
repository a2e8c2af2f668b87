package detect

import (
	"testing"

	"github.com/aeroglyph/voxelcast/internal/detect/camera"
	"github.com/aeroglyph/voxelcast/internal/detect/carve"
	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/motion"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameSize = 64

func blankFrame() motion.Image {
	return motion.Image{Width: frameSize, Height: frameSize, Channels: 1, Stride: frameSize, Pix: make([]byte, frameSize*frameSize)}
}

// centerHitFrame returns a frame pair whose only moved pixel is the
// image center, so the single resulting ray passes through whatever
// point the camera is looking at (verified directly by
// TestUnprojectCenterPixelPointsTowardTarget in camera_test.go).
func centerHitFrame(t *testing.T, id int, position, up geom.Vector) CameraFrame {
	t.Helper()
	cam, err := camera.New(id, position, geom.Vec(0, 0, 0), up, 60, 1, 0.1, 100)
	require.NoError(t, err)

	prev := blankFrame()
	curr := blankFrame()
	curr.Pix[(frameSize/2)*curr.Stride+frameSize/2] = 255

	return CameraFrame{Camera: cam, Current: curr, Previous: prev}
}

func TestDetectValidatesTargetZone(t *testing.T) {
	_, err := Detect(geom.NewVoxel(geom.Vec(0, 0, 0), 0), nil, DefaultParams())
	require.Error(t, err)
	assert.True(t, detecterr.HasKind(err, detecterr.InvalidParameters))
}

func TestDetectEmptyFramesYieldsEmptyResult(t *testing.T) {
	voxels, err := Detect(geom.NewVoxel(geom.Vec(0, 0, 0), 10), nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, voxels)
}

// TestDetectTrivialHitThreeCamerasConverge is scenario S1: three
// cameras each contribute one ray through the origin; all three agree,
// so k=3 carving should find at least one detection near the origin.
//
// The search volume is centered slightly off the convergence point
// (rather than exactly on it) so the grid subdivision never has to
// break a tie exactly on a cell boundary — a razor's-edge case that
// would make this test's outcome depend on sub-ULP rounding in the
// camera's matrix inversion.
func TestDetectTrivialHitThreeCamerasConverge(t *testing.T) {
	frames := []CameraFrame{
		centerHitFrame(t, 0, geom.Vec(10, 0, 0), geom.Vec(0, 1, 0)),
		centerHitFrame(t, 1, geom.Vec(0, 10, 0), geom.Vec(0, 0, 1)),
		centerHitFrame(t, 2, geom.Vec(0, 0, 10), geom.Vec(0, 1, 0)),
	}

	params := Params{
		Threshold: motion.DefaultThreshold,
		Carve:     carve.Params{SMin: 0.1, K: 3, N: 8, Theta: 0.2},
	}
	targetZone := geom.NewVoxel(geom.Vec(1, 1, 1), 11)
	voxels, err := Detect(targetZone, frames, params)
	require.NoError(t, err)
	require.NotEmpty(t, voxels)
	for _, v := range voxels {
		assert.LessOrEqual(t, v.Center.Norm(), 0.1*1.7320508+0.05)
	}
}

// TestDetectMissBelowCameraThreshold is scenario S2: only two cameras
// agree on the origin. With k=3 required, distinct-camera support can
// never reach the threshold, so no detection should surface.
func TestDetectMissBelowCameraThreshold(t *testing.T) {
	frames := []CameraFrame{
		centerHitFrame(t, 0, geom.Vec(10, 0, 0), geom.Vec(0, 1, 0)),
		centerHitFrame(t, 1, geom.Vec(0, 10, 0), geom.Vec(0, 0, 1)),
	}

	params := Params{
		Threshold: motion.DefaultThreshold,
		Carve:     carve.Params{SMin: 0.1, K: 3, N: 8, Theta: 0.2},
	}
	voxels, err := Detect(geom.NewVoxel(geom.Vec(0, 0, 0), 10), frames, params)
	require.NoError(t, err)
	assert.Empty(t, voxels)
}

func TestDetectPropagatesMotionDimensionMismatch(t *testing.T) {
	cam, err := camera.New(0, geom.Vec(10, 0, 0), geom.Vec(0, 0, 0), geom.Vec(0, 1, 0), 60, 1, 0.1, 100)
	require.NoError(t, err)

	mismatched := motion.Image{Width: 32, Height: 32, Channels: 1, Stride: 32, Pix: make([]byte, 32*32)}
	frames := []CameraFrame{{Camera: cam, Current: blankFrame(), Previous: mismatched}}

	_, err = Detect(geom.NewVoxel(geom.Vec(0, 0, 0), 10), frames, DefaultParams())
	require.Error(t, err)
	assert.True(t, detecterr.HasKind(err, detecterr.InvalidInput))
}
