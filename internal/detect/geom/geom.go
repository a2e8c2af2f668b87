// Package geom holds the shared geometric vocabulary used by every
// layer of the detector, with no dependency on any other detector
// package: the 3D vector type (an alias of r3.Vector), the Voxel
// (axis-aligned cube), and an orthonormal-basis helper used when a ray
// is subdivided into a small pencil of sub-rays.
package geom

import "github.com/golang/geo/r3"

// Vector is a point or direction in world space, meters, right-handed,
// +Y up.
type Vector = r3.Vector

// Vec builds a Vector from components.
func Vec(x, y, z float64) Vector {
	return r3.Vector{X: x, Y: y, Z: z}
}

// Voxel is an axis-aligned cube: center C, half-extent h (side 2h),
// closed on all faces.
type Voxel struct {
	Center Vector
	Half   float64
}

// NewVoxel builds a Voxel from a center and half-extent.
func NewVoxel(center Vector, half float64) Voxel {
	return Voxel{Center: center, Half: half}
}

// Side returns the cube's edge length 2h.
func (v Voxel) Side() float64 { return 2 * v.Half }

// Contains reports whether p lies within the closed cube.
func (v Voxel) Contains(p Vector) bool {
	d := p.Sub(v.Center)
	return d.X >= -v.Half && d.X <= v.Half &&
		d.Y >= -v.Half && d.Y <= v.Half &&
		d.Z >= -v.Half && d.Z <= v.Half
}

// Subdivide partitions v into n×n×n equal sub-voxels, returned in
// ascending flattened order ix + iy*n + iz*n*n — the order the voxel
// carver's determinism guarantee depends on.
func (v Voxel) Subdivide(n int) []Voxel {
	children := make([]Voxel, n*n*n)
	childSide := v.Side() / float64(n)
	childHalf := childSide / 2
	origin := v.Center.Sub(Vec(v.Half, v.Half, v.Half))
	for iz := 0; iz < n; iz++ {
		for iy := 0; iy < n; iy++ {
			for ix := 0; ix < n; ix++ {
				center := origin.Add(Vec(
					(float64(ix)+0.5)*childSide,
					(float64(iy)+0.5)*childSide,
					(float64(iz)+0.5)*childSide,
				))
				idx := ix + iy*n + iz*n*n
				children[idx] = NewVoxel(center, childHalf)
			}
		}
	}
	return children
}

// OrthonormalBasis returns two unit vectors (u, v) perpendicular to d
// and to each other, used to build the pencil of sub-rays when a ray's
// footprint is subdivided. It prefers world +Z as the seed axis unless
// d is nearly parallel to it (|d.Z| >= 0.9), in which case it seeds
// with +X, then Gram-Schmidt orthogonalizes.
func OrthonormalBasis(d Vector) (u, v Vector) {
	d = d.Normalize()
	seed := Vec(0, 0, 1)
	if abs(d.Z) >= 0.9 {
		seed = Vec(1, 0, 0)
	}
	u = seed.Sub(d.Mul(d.Dot(seed))).Normalize()
	v = d.Cross(u).Normalize()
	return u, v
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
