package geom

import "math"

// RayAABB performs the slab test of a ray (origin, dir) against an
// axis-aligned Voxel. dir need not be normalized for this test, but the
// detector always supplies unit directions. tmin starts at 0 so
// intersections strictly behind the camera are discarded; a hit
// requires tmax >= tmin and tmax >= 0. When a component of dir is
// (near) zero, IEEE division supplies the correct ±Inf semantics
// directly, with no special-casing needed.
//
// Returns tEnter (= tmin, or -1 if no hit) and tExit (= tmax).
func RayAABB(origin, dir Vector, v Voxel) (tEnter, tExit float64, hit bool) {
	tmin, tmax := 0.0, math.Inf(1)

	axes := [3][2]float64{
		{origin.X, dir.X},
		{origin.Y, dir.Y},
		{origin.Z, dir.Z},
	}
	center := [3]float64{v.Center.X, v.Center.Y, v.Center.Z}

	for i, a := range axes {
		o, d := a[0], a[1]
		c := center[i]
		t1 := (c - v.Half - o) / d
		t2 := (c + v.Half - o) / d
		lo, hi := t1, t2
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo > tmin {
			tmin = lo
		}
		if hi < tmax {
			tmax = hi
		}
	}

	if tmax >= tmin && tmax >= 0 {
		return tmin, tmax, true
	}
	return -1, tmax, false
}
