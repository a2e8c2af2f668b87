package carve

import (
	"testing"

	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/raygen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCarveValidatesParams(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1)
	rays := []raygen.Ray{{Origin: geom.Vec(-5, 0, 0), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.01}}

	cases := []Params{
		{SMin: 0.1, K: 1, N: 1, Theta: 0.2},  // n < 2
		{SMin: 0, K: 1, N: 4, Theta: 0.2},    // s_min <= 0
		{SMin: 0.1, K: 0, N: 4, Theta: 0.2},  // k < 1
		{SMin: 0.1, K: 1, N: 4, Theta: 0},    // theta <= 0
	}
	for _, p := range cases {
		_, err := Carve(root, rays, p)
		require.Error(t, err)
		assert.True(t, detecterr.HasKind(err, detecterr.InvalidParameters))
	}
}

func TestCarveRejectsDegenerateTargetZone(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 0)
	_, err := Carve(root, nil, DefaultParams())
	require.Error(t, err)
	assert.True(t, detecterr.HasKind(err, detecterr.InvalidParameters))
}

func TestCarveEmptyRaysYieldsEmptyResult(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1)
	voxels, err := Carve(root, nil, DefaultParams())
	require.NoError(t, err)
	assert.Empty(t, voxels)
}

func TestCarveRaysMissingRootYieldEmptyResult(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1)
	rays := []raygen.Ray{
		{Origin: geom.Vec(-5, 10, 10), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.01},
		{Origin: geom.Vec(-5, 10, 10), Dir: geom.Vec(1, 0, 0), CameraID: 2, Footprint: 0.01},
	}
	voxels, err := Carve(root, rays, Params{SMin: 0.5, K: 2, N: 2, Theta: 1})
	require.NoError(t, err)
	assert.Empty(t, voxels)
}

func TestCarveConvergesOnTwoCameraIntersection(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1) // [-1,1]^3
	p := geom.Vec(0.3, 0.3, 0.3)

	rays := []raygen.Ray{
		{Origin: geom.Vec(-5, p.Y, p.Z), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.001},
		{Origin: geom.Vec(p.X, -5, p.Z), Dir: geom.Vec(0, 1, 0), CameraID: 2, Footprint: 0.001},
	}

	voxels, err := Carve(root, rays, Params{SMin: 0.5, K: 2, N: 2, Theta: 1})
	require.NoError(t, err)
	require.Len(t, voxels, 1)
	assert.InDelta(t, 0.25, voxels[0].Half, 1e-9)
	assert.True(t, voxels[0].Contains(p))
}

func TestCarveRejectsNonFiniteRay(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1)
	rays := []raygen.Ray{{Origin: geom.Vec(0, 0, 0), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 1.0 / zero()}}
	_, err := Carve(root, rays, DefaultParams())
	require.Error(t, err)
	assert.True(t, detecterr.HasKind(err, detecterr.InvalidParameters))
}

func zero() float64 { return 0 }

func TestCarveSingleCameraNeverReachesK2(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1)
	rays := []raygen.Ray{
		{Origin: geom.Vec(-5, 0.3, 0.3), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.001},
	}
	voxels, err := Carve(root, rays, Params{SMin: 0.5, K: 2, N: 2, Theta: 1})
	require.NoError(t, err)
	assert.Empty(t, voxels)
}

func TestEffectiveSubdivisionClampsToMinimumTwo(t *testing.T) {
	assert.Equal(t, 2, effectiveSubdivision(0.4, 0.5, 8))
	assert.Equal(t, 4, effectiveSubdivision(2, 0.5, 8))
	assert.Equal(t, 8, effectiveSubdivision(100, 0.5, 8))
}

func TestDistinctCameras(t *testing.T) {
	rays := []raygen.Ray{{CameraID: 1}, {CameraID: 1}, {CameraID: 2}}
	assert.Equal(t, 2, distinctCameras(rays))
	assert.Equal(t, 0, distinctCameras(nil))
}

func TestCarveOcclusionToleranceKThreeVsFour(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1) // [-1,1]^3
	p := geom.Vec(0.3, 0.3, 0.3)

	rays := []raygen.Ray{
		{Origin: geom.Vec(-5, p.Y, p.Z), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.001},
		{Origin: geom.Vec(p.X, -5, p.Z), Dir: geom.Vec(0, 1, 0), CameraID: 2, Footprint: 0.001},
		{Origin: geom.Vec(p.X, p.Y, -5), Dir: geom.Vec(0, 0, 1), CameraID: 3, Footprint: 0.001},
		// Camera 4 only sees a distractor in the opposite octant, never p.
		{Origin: geom.Vec(-5, -0.7, -0.7), Dir: geom.Vec(1, 0, 0), CameraID: 4, Footprint: 0.001},
	}

	voxels, err := Carve(root, rays, Params{SMin: 0.5, K: 3, N: 2, Theta: 1})
	require.NoError(t, err)
	require.Len(t, voxels, 1, "k=3: the true object must be detected from 3 corroborating cameras")
	assert.True(t, voxels[0].Contains(p))

	voxels, err = Carve(root, rays, Params{SMin: 0.5, K: 4, N: 2, Theta: 1})
	require.NoError(t, err)
	assert.Empty(t, voxels, "k=4: no voxel is ever seen by all 4 cameras, so nothing should carve")
}

func TestSubdivisionTriggeredMatchesAnalyticalExpectation(t *testing.T) {
	// A pixel footprint of 0.01 rad observed at t_enter=100m subtends 1m,
	// far past 0.2 * 0.125m for a 1m voxel split 8 ways - subdivision
	// must trigger.
	assert.True(t, subdivisionTriggered(100, 0.01, 0.125, 0.2))

	// The same pixel at t_enter=1m subtends only 0.01m, well under the
	// same 0.025m threshold - no subdivision needed.
	assert.False(t, subdivisionTriggered(1, 0.01, 0.125, 0.2))

	// Exactly at the ratio: not a trigger (strict inequality).
	assert.False(t, subdivisionTriggered(1, 0.2, 1, 0.2))
}

func TestCarveAdaptiveSubdivisionResolvesWideFootprintRay(t *testing.T) {
	root := geom.NewVoxel(geom.Vec(0, 0, 0), 1) // [-1,1]^3
	p := geom.Vec(0.3, 0.3, 0.3)

	// A single camera with a deliberately large angular footprint: at
	// t_enter around 5m it already subtends ~0.5m, well past theta*child
	// at every level down to s_min, so every ray this carve processes
	// gets replaced by Subdivide's pencil of four before it's bucketed.
	rays := []raygen.Ray{
		{Origin: geom.Vec(-5, p.Y, p.Z), Dir: geom.Vec(1, 0, 0), CameraID: 1, Footprint: 0.1},
	}

	voxels, err := Carve(root, rays, Params{SMin: 0.25, K: 1, N: 2, Theta: 0.01})
	require.NoError(t, err)
	require.NotEmpty(t, voxels, "the subdivided pencil of sub-rays must still resolve a detection")
	for _, v := range voxels {
		assert.InDelta(t, 0.125, v.Half, 1e-9)
	}
}

func TestDDAVisitAxisAlignedRayCrossesExpectedCells(t *testing.T) {
	v := geom.NewVoxel(geom.Vec(0, 0, 0), 2) // side 4, [-2,2]^3
	origin := geom.Vec(-10, 0, 0)
	dir := geom.Vec(1, 0, 0)
	tEnter, _, hit := geom.RayAABB(origin, dir, v)
	require.True(t, hit)

	cells := ddaVisit(origin, dir, v, 4, tEnter)
	assert.Equal(t, []int{40, 41, 42, 43}, cells)
}

func TestDDAVisitNoDuplicateCells(t *testing.T) {
	v := geom.NewVoxel(geom.Vec(0, 0, 0), 2)
	origin := geom.Vec(-10, -10, -10)
	dir := geom.Vec(1, 1, 1).Normalize()
	tEnter, _, hit := geom.RayAABB(origin, dir, v)
	require.True(t, hit)

	cells := ddaVisit(origin, dir, v, 4, tEnter)
	seen := make(map[int]bool)
	for _, c := range cells {
		require.False(t, seen[c], "cell %d visited twice", c)
		seen[c] = true
	}
	assert.NotEmpty(t, cells)
}
