package cluster

import (
	"math"

	"github.com/aeroglyph/voxelcast/internal/detect/geom"
)

// gridIndex buckets voxel centers into cubical cells sized to eps, so a
// neighbor query only has to scan the surrounding 3x3x3 block of cells
// instead of every detection.
type gridIndex struct {
	cellSize float64
	cells    map[int64][]int
}

func newGridIndex(cellSize float64) *gridIndex {
	return &gridIndex{cellSize: cellSize, cells: make(map[int64][]int)}
}

func (g *gridIndex) build(voxels []geom.Voxel) {
	for i, v := range voxels {
		id := g.cellID(cellCoord(v.Center.X, g.cellSize), cellCoord(v.Center.Y, g.cellSize), cellCoord(v.Center.Z, g.cellSize))
		g.cells[id] = append(g.cells[id], i)
	}
}

// neighbors returns the indices (excluding idx itself) of every voxel
// within eps of voxels[idx], searching the 3x3x3 block of cells around
// it.
func (g *gridIndex) neighbors(voxels []geom.Voxel, idx int, eps float64) []int {
	p := voxels[idx].Center
	cx := cellCoord(p.X, g.cellSize)
	cy := cellCoord(p.Y, g.cellSize)
	cz := cellCoord(p.Z, g.cellSize)
	eps2 := eps * eps

	var out []int
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			for dz := int64(-1); dz <= 1; dz++ {
				id := g.cellID(cx+dx, cy+dy, cz+dz)
				for _, candidate := range g.cells[id] {
					if candidate == idx {
						continue
					}
					if squaredDistance(voxels[candidate].Center, p) <= eps2 {
						out = append(out, candidate)
					}
				}
			}
		}
	}
	return out
}

func cellCoord(v, cellSize float64) int64 {
	return int64(math.Floor(v / cellSize))
}

// cellID packs three signed cell coordinates into one key via zigzag
// encoding followed by two nested Szudzik pairings.
func (g *gridIndex) cellID(x, y, z int64) int64 {
	return szudzik(szudzik(zigzag(x), zigzag(y)), zigzag(z))
}

func zigzag(v int64) int64 {
	if v >= 0 {
		return 2 * v
	}
	return -2*v - 1
}

func szudzik(a, b int64) int64 {
	if a >= b {
		return a*a + a + b
	}
	return a + b*b
}
