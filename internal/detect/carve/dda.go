package carve

import (
	"math"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
)

// ddaVisit walks a ray through a voxel subdivided into an n x n x n
// grid using a 3D DDA, starting at the entry point origin + tEnter*dir,
// and returns the flattened (ix+iy*n+iz*n*n) indices of every cell it
// crosses, in visiting order, with no duplicates.
func ddaVisit(origin, dir geom.Vector, v geom.Voxel, n int, tEnter float64) []int {
	childSide := v.Side() / float64(n)
	voxelMin := geom.Vec(v.Center.X-v.Half, v.Center.Y-v.Half, v.Center.Z-v.Half)
	entry := origin.Add(dir.Mul(tEnter))

	o := [3]float64{origin.X, origin.Y, origin.Z}
	d := [3]float64{dir.X, dir.Y, dir.Z}
	vmin := [3]float64{voxelMin.X, voxelMin.Y, voxelMin.Z}
	entryC := [3]float64{entry.X, entry.Y, entry.Z}

	var idx [3]int
	for i := 0; i < 3; i++ {
		idx[i] = clampIndex(int(math.Floor((entryC[i]-vmin[i])/childSide)), n)
	}

	var step [3]int
	var delta [3]float64
	var tMax [3]float64
	for i := 0; i < 3; i++ {
		switch {
		case d[i] > 0:
			step[i] = 1
			delta[i] = childSide / d[i]
			boundary := vmin[i] + float64(idx[i]+1)*childSide
			tMax[i] = (boundary - o[i]) / d[i]
		case d[i] < 0:
			step[i] = -1
			delta[i] = childSide / -d[i]
			boundary := vmin[i] + float64(idx[i])*childSide
			tMax[i] = (boundary - o[i]) / d[i]
		default:
			step[i] = 1
			delta[i] = math.Inf(1)
			tMax[i] = math.Inf(1)
		}
	}

	var cells []int
	for {
		if idx[0] < 0 || idx[0] >= n || idx[1] < 0 || idx[1] >= n || idx[2] < 0 || idx[2] >= n {
			break
		}
		cells = append(cells, idx[0]+idx[1]*n+idx[2]*n*n)

		axis := 0
		if tMax[1] < tMax[axis] {
			axis = 1
		}
		if tMax[2] < tMax[axis] {
			axis = 2
		}
		if math.IsInf(tMax[axis], 1) {
			break
		}
		idx[axis] += step[axis]
		tMax[axis] += delta[axis]
	}
	return cells
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
