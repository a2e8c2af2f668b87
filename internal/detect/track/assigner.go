package track

import "github.com/aeroglyph/voxelcast/internal/detect/geom"

// Assigner matches incoming cluster centroids to existing track last
// positions. Assign returns, for each cluster index, the index into
// trackPositions it was matched to, or -1 if unmatched. An assigner
// must never match a pair farther apart than maxDistance.
//
// This is a substitution point: the default greedy strategy is cheap
// and order-sensitive, while scenes with many simultaneous objects can
// swap in an optimal assignment solver without touching the tracker's
// lifecycle logic.
type Assigner interface {
	Assign(trackPositions, clusterCentroids []geom.Vector, maxDistance float64) []int
}

// GreedyAssigner considers clusters in input order, each claiming the
// nearest still-unmatched track within maxDistance. Being order-
// sensitive, it can split a track when two clusters compete for it,
// which is why HungarianAssigner exists as an alternative.
type GreedyAssigner struct{}

func (GreedyAssigner) Assign(trackPositions, clusterCentroids []geom.Vector, maxDistance float64) []int {
	assignment := make([]int, len(clusterCentroids))
	for i := range assignment {
		assignment[i] = -1
	}
	matched := make([]bool, len(trackPositions))
	maxDist2 := maxDistance * maxDistance

	for ci, c := range clusterCentroids {
		best := -1
		bestDist2 := maxDist2
		for ti, p := range trackPositions {
			if matched[ti] {
				continue
			}
			d2 := squaredDistance(p, c)
			if d2 < bestDist2 {
				bestDist2 = d2
				best = ti
			}
		}
		if best >= 0 {
			matched[best] = true
			assignment[ci] = best
		}
	}
	return assignment
}

// HungarianAssigner finds the globally optimal (minimum total squared
// distance) matching via Kuhn-Munkres, rather than the greedy nearest-
// neighbor default. Pairs farther apart than maxDistance are forbidden
// and never assigned, matching GreedyAssigner's gating semantics.
type HungarianAssigner struct{}

func (HungarianAssigner) Assign(trackPositions, clusterCentroids []geom.Vector, maxDistance float64) []int {
	assignment := make([]int, len(clusterCentroids))
	for i := range assignment {
		assignment[i] = -1
	}
	if len(trackPositions) == 0 || len(clusterCentroids) == 0 {
		return assignment
	}

	maxDist2 := maxDistance * maxDistance
	cost := make([][]float64, len(clusterCentroids))
	for i, c := range clusterCentroids {
		cost[i] = make([]float64, len(trackPositions))
		for j, p := range trackPositions {
			d2 := squaredDistance(p, c)
			if d2 >= maxDist2 {
				d2 = forbiddenCost
			}
			cost[i][j] = d2
		}
	}

	rowToCol := solveAssignment(cost)
	for ci, ti := range rowToCol {
		if ti >= 0 && cost[ci][ti] < forbiddenCost {
			assignment[ci] = ti
		}
	}
	return assignment
}

func squaredDistance(a, b geom.Vector) float64 {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}
