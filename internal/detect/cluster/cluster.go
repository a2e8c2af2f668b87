// Package cluster implements single-link spatial grouping of carved
// detection voxels into clusters, each carrying a centroid.
//
// The neighbor search uses a uniform grid keyed by a Szudzik pairing of
// cell coordinates, queried over the surrounding 3x3x3 cell block,
// which keeps the search close to O(|D|) instead of a naive O(|D|^2)
// all-pairs scan.
package cluster

import (
	"sort"

	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
)

const op = "cluster.Cluster"

// Params holds the clusterer's tunable knobs: μ (epsilon factor against
// s_min) and m (minimum cluster size, in voxels).
type Params struct {
	Mu      float64
	MinSize int
}

// DefaultParams returns the clusterer's production defaults.
func DefaultParams() Params {
	return Params{Mu: 2.5, MinSize: 3}
}

func (p Params) validate() error {
	if p.Mu <= 0 {
		return detecterr.New(detecterr.InvalidParameters, op, "mu must be > 0")
	}
	if p.MinSize < 1 {
		return detecterr.New(detecterr.InvalidParameters, op, "min cluster size must be >= 1")
	}
	return nil
}

// Cluster is a connected group of detection voxels and their centroid.
type Cluster struct {
	Members  []geom.Voxel
	Centroid geom.Vector
}

// Cluster groups detections into single-link clusters: an edge
// joins two detections whose centers are within eps = mu*sMin of each
// other, connected components are found via BFS, and components with
// fewer than p.MinSize members are dropped. Clusters are returned
// sorted by centroid (x, then y, then z) for determinism.
func Cluster(detections []geom.Voxel, sMin float64, p Params) ([]Cluster, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if sMin <= 0 {
		return nil, detecterr.New(detecterr.InvalidParameters, op, "s_min must be > 0")
	}
	if len(detections) == 0 {
		return nil, nil
	}

	eps := p.Mu * sMin
	idx := newGridIndex(eps)
	idx.build(detections)

	n := len(detections)
	visited := make([]bool, n)
	var clusters []Cluster

	for i := 0; i < n; i++ {
		if visited[i] {
			continue
		}
		component := bfsComponent(detections, idx, eps, i, visited)
		if len(component) < p.MinSize {
			continue
		}
		clusters = append(clusters, buildCluster(detections, component))
	}

	sort.Slice(clusters, func(i, j int) bool {
		a, b := clusters[i].Centroid, clusters[j].Centroid
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	return clusters, nil
}

func bfsComponent(detections []geom.Voxel, idx *gridIndex, eps float64, start int, visited []bool) []int {
	visited[start] = true
	queue := []int{start}
	component := []int{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, neighbor := range idx.neighbors(detections, cur, eps) {
			if visited[neighbor] {
				continue
			}
			visited[neighbor] = true
			queue = append(queue, neighbor)
			component = append(component, neighbor)
		}
	}
	return component
}

func buildCluster(detections []geom.Voxel, indices []int) Cluster {
	members := make([]geom.Voxel, len(indices))
	var sum geom.Vector
	for i, idx := range indices {
		members[i] = detections[idx]
		sum = sum.Add(detections[idx].Center)
	}
	centroid := sum.Mul(1 / float64(len(indices)))
	return Cluster{Members: members, Centroid: centroid}
}

func squaredDistance(a, b geom.Vector) float64 {
	d := a.Sub(b)
	return d.X*d.X + d.Y*d.Y + d.Z*d.Z
}
