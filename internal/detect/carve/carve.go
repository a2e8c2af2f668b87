// Package carve implements the adaptive recursive-grid voxel carver.
// Starting from a root search volume and a concatenated ray set, it
// recursively subdivides voxels that are hit by rays from enough
// distinct cameras, down to a minimum voxel side, using a 3D DDA
// traversal per level and adaptive ray subdivision where a ray's
// footprint has outgrown a child voxel.
//
// The recursion is implemented as an explicit work stack rather than
// call recursion, so ray buckets are moved (not copied) between levels
// and the traversal stays shallow regardless of search-volume depth.
package carve

import (
	"math"

	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/raygen"
)

const op = "carve.Carve"

// Params holds the carver's tunable knobs: s_min (minimum voxel side,
// meters), k (minimum distinct cameras per voxel), n (subdivision
// factor) and θ (footprint-ratio threshold for adaptive subdivision).
type Params struct {
	SMin  float64
	K     int
	N     int
	Theta float64
}

// DefaultParams returns the carver's production defaults.
func DefaultParams() Params {
	return Params{SMin: 0.1, K: 3, N: 8, Theta: 0.2}
}

func (p Params) validate() error {
	if p.N < 2 {
		return detecterr.New(detecterr.InvalidParameters, op, "n must be >= 2")
	}
	if p.SMin <= 0 {
		return detecterr.New(detecterr.InvalidParameters, op, "s_min must be > 0")
	}
	if p.K < 1 {
		return detecterr.New(detecterr.InvalidParameters, op, "k must be >= 1")
	}
	if p.Theta <= 0 {
		return detecterr.New(detecterr.InvalidParameters, op, "theta must be > 0")
	}
	return nil
}

type stackEntry struct {
	voxel geom.Voxel
	rays  []raygen.Ray
}

// Carve runs the carver over root with the given ray set, returning the
// leaf voxels reached by rays from at least p.K distinct cameras, in
// the deterministic ascending (ix,iy,iz) order the recursion visits
// them. An empty ray set (or a ray set that never enters root) is a
// legal empty result, not an error.
func Carve(root geom.Voxel, rays []raygen.Ray, p Params) ([]geom.Voxel, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if root.Half <= 0 {
		return nil, detecterr.New(detecterr.InvalidParameters, op, "target zone half-extent must be > 0")
	}
	for _, r := range rays {
		if !finiteRay(r) {
			return nil, detecterr.New(detecterr.InvalidParameters, op, "ray has non-finite components")
		}
	}
	if len(rays) == 0 {
		return nil, nil
	}

	initial := make([]raygen.Ray, 0, len(rays))
	for _, r := range rays {
		if _, _, hit := geom.RayAABB(r.Origin, r.Dir, root); hit {
			initial = append(initial, r)
		}
	}
	if len(initial) == 0 {
		return nil, nil
	}
	if distinctCameras(initial) < p.K {
		return nil, nil
	}

	var detections []geom.Voxel
	stack := []stackEntry{{voxel: root, rays: initial}}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if cur.voxel.Side() <= p.SMin*(1+1e-6) {
			detections = append(detections, cur.voxel)
			continue
		}

		nPrime := effectiveSubdivision(cur.voxel.Side(), p.SMin, p.N)
		children := cur.voxel.Subdivide(nPrime)
		childSide := cur.voxel.Side() / float64(nPrime)
		buckets := make([][]raygen.Ray, len(children))

		for _, r := range cur.rays {
			tEnter, _, hit := geom.RayAABB(r.Origin, r.Dir, cur.voxel)
			if !hit || tEnter < 0 {
				continue
			}

			var subrays []raygen.Ray
			if subdivisionTriggered(tEnter, r.Footprint, childSide, p.Theta) {
				sub := raygen.Subdivide(r)
				subrays = sub[:]
			} else {
				subrays = []raygen.Ray{r}
			}

			for _, sr := range subrays {
				for _, idx := range ddaVisit(sr.Origin, sr.Dir, cur.voxel, nPrime, tEnter) {
					buckets[idx] = append(buckets[idx], sr)
				}
			}
		}

		// Push children in descending index order: the stack is LIFO, so
		// they pop (and recurse) in ascending ix,iy,iz order, keeping the
		// recursion deterministic and left-to-right.
		for idx := len(children) - 1; idx >= 0; idx-- {
			bucket := buckets[idx]
			if distinctCameras(bucket) >= p.K {
				stack = append(stack, stackEntry{voxel: children[idx], rays: bucket})
			}
		}
	}

	return detections, nil
}

// subdivisionTriggered reports whether a ray's footprint, projected out
// to tEnter, has outgrown childSide by more than the theta ratio — the
// point past which a single ray direction no longer approximates the
// pixel's angular extent closely enough, and raygen.Subdivide's pencil
// of four sub-rays should stand in for it instead.
func subdivisionTriggered(tEnter, rayFootprint, childSide, theta float64) bool {
	return tEnter*rayFootprint > theta*childSide
}

// effectiveSubdivision computes n' = min(n, max(2, floor(side/s_min))),
// clamping so a child's side never falls below s_min.
func effectiveSubdivision(side, sMin float64, n int) int {
	floorDiv := int(math.Floor(side / sMin))
	if floorDiv < 2 {
		floorDiv = 2
	}
	if floorDiv < n {
		return floorDiv
	}
	return n
}

func distinctCameras(rays []raygen.Ray) int {
	seen := make(map[int]struct{}, len(rays))
	for _, r := range rays {
		seen[r.CameraID] = struct{}{}
	}
	return len(seen)
}

func finiteRay(r raygen.Ray) bool {
	return finiteVec(r.Origin) && finiteVec(r.Dir) && finiteScalar(r.Footprint)
}

func finiteVec(v geom.Vector) bool {
	return finiteScalar(v.X) && finiteScalar(v.Y) && finiteScalar(v.Z)
}

func finiteScalar(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
