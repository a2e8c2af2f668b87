// Package camera models a single calibrated, static camera: its pose
// and projection, and the pixel-to-world unprojection used by raygen.
// The view-projection matrix is built and inverted with gonum/mat so a
// non-invertible (degenerate) camera is caught once, at construction,
// rather than re-derived per pixel.
package camera

import (
	"math"

	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"gonum.org/v1/gonum/mat"
)

const op = "camera"

// Camera is a statically placed, calibrated camera: position P, look
// target T, up vector U, vertical field of view, aspect ratio and near/
// far clip planes. World is right-handed, +Y up; depth clip space is
// [0,1].
type Camera struct {
	ID                 int
	Position           geom.Vector
	Target             geom.Vector
	Up                 geom.Vector
	VerticalFOVDegrees float64
	Aspect             float64
	Near               float64
	Far                float64

	invVP [16]float64 // cached inverse view-projection, row-major
}

// New validates and builds a Camera, computing and caching its inverse
// view-projection matrix. Returns InvalidCamera if the camera is
// degenerate: non-positive fov/aspect/near, far <= near, non-finite
// attributes, or a non-invertible view-projection.
func New(id int, position, target, up geom.Vector, verticalFOVDegrees, aspect, near, far float64) (*Camera, error) {
	c := &Camera{
		ID:                 id,
		Position:           position,
		Target:             target,
		Up:                 up,
		VerticalFOVDegrees: verticalFOVDegrees,
		Aspect:             aspect,
		Near:               near,
		Far:                far,
	}

	if !finiteVec(position) || !finiteVec(target) || !finiteVec(up) ||
		!finite(verticalFOVDegrees) || !finite(aspect) || !finite(near) || !finite(far) {
		return nil, detecterr.New(detecterr.InvalidCamera, op, "camera attributes must be finite")
	}
	if verticalFOVDegrees <= 0 {
		return nil, detecterr.New(detecterr.InvalidCamera, op, "vertical fov must be > 0")
	}
	if aspect <= 0 {
		return nil, detecterr.New(detecterr.InvalidCamera, op, "aspect ratio must be > 0")
	}
	if near <= 0 || far <= near {
		return nil, detecterr.New(detecterr.InvalidCamera, op, "near must be > 0 and far > near")
	}

	vp := mat.NewDense(4, 4, nil)
	vp.Mul(projectionMatrix(verticalFOVDegrees, aspect, near, far), viewMatrix(position, target, up))

	var inv mat.Dense
	if err := inv.Inverse(vp); err != nil {
		return nil, detecterr.Wrap(detecterr.InvalidCamera, op, err)
	}
	for r := 0; r < 4; r++ {
		for col := 0; col < 4; col++ {
			c.invVP[r*4+col] = inv.At(r, col)
		}
	}
	return c, nil
}

// VerticalFOVRadians returns the vertical field of view in radians.
func (c *Camera) VerticalFOVRadians() float64 {
	return c.VerticalFOVDegrees * math.Pi / 180
}

// Footprint returns the per-pixel angular footprint φ = α/H for an
// image of the given height.
func (c *Camera) Footprint(height int) float64 {
	return c.VerticalFOVRadians() / float64(height)
}

// Unproject maps pixel (x, y) of a W×H image to a world-space ray
// origin (the camera position) and unit direction. Pixel addressing is
// zero-based, (0,0) top-left. Returns ok=false (not an error) when the
// unprojected direction is non-finite — the caller is expected to
// silently drop such a ray rather than fail the whole call.
func (c *Camera) Unproject(x, y, width, height int) (origin, dir geom.Vector, ok bool) {
	ndcX := 2*float64(x)/float64(width) - 1
	ndcY := 1 - 2*float64(y)/float64(height)

	clip := [4]float64{ndcX, ndcY, 1, 1}
	var world [4]float64
	for r := 0; r < 4; r++ {
		var sum float64
		for col := 0; col < 4; col++ {
			sum += c.invVP[r*4+col] * clip[col]
		}
		world[r] = sum
	}
	if world[3] == 0 || math.IsNaN(world[3]) || math.IsInf(world[3], 0) {
		return geom.Vector{}, geom.Vector{}, false
	}
	worldPos := geom.Vec(world[0]/world[3], world[1]/world[3], world[2]/world[3])
	d := worldPos.Sub(c.Position)
	if !finiteVec(d) || d.Norm() == 0 {
		return geom.Vector{}, geom.Vector{}, false
	}
	dir = d.Normalize()
	if !finiteVec(dir) {
		return geom.Vector{}, geom.Vector{}, false
	}
	return c.Position, dir, true
}

// Project maps a world-space point to pixel coordinates of a W×H image,
// the forward counterpart of Unproject: it runs the same view and
// projection matrices without the cached inverse. Returns ok=false for
// points behind the camera or that land outside the [0,width)x[0,height)
// image bounds.
func (c *Camera) Project(world geom.Vector, width, height int) (x, y int, ok bool) {
	view := viewMatrix(c.Position, c.Target, c.Up)
	proj := projectionMatrix(c.VerticalFOVDegrees, c.Aspect, c.Near, c.Far)
	vp := mat.NewDense(4, 4, nil)
	vp.Mul(proj, view)

	clip := [4]float64{world.X, world.Y, world.Z, 1}
	var h [4]float64
	for r := 0; r < 4; r++ {
		var sum float64
		for col := 0; col < 4; col++ {
			sum += vp.At(r, col) * clip[col]
		}
		h[r] = sum
	}
	if h[3] <= 0 || !finite(h[3]) {
		return 0, 0, false
	}
	ndcX, ndcY := h[0]/h[3], h[1]/h[3]
	if ndcX < -1 || ndcX > 1 || ndcY < -1 || ndcY > 1 {
		return 0, 0, false
	}
	x = int((ndcX + 1) / 2 * float64(width))
	y = int((1 - ndcY) / 2 * float64(height))
	if x < 0 || x >= width || y < 0 || y >= height {
		return 0, 0, false
	}
	return x, y, true
}

// viewMatrix builds a right-handed look-at view matrix (row-major, 4x4).
func viewMatrix(eye, target, up geom.Vector) *mat.Dense {
	zAxis := eye.Sub(target).Normalize() // camera looks down -zAxis
	xAxis := up.Cross(zAxis).Normalize()
	yAxis := zAxis.Cross(xAxis)

	return mat.NewDense(4, 4, []float64{
		xAxis.X, xAxis.Y, xAxis.Z, -xAxis.Dot(eye),
		yAxis.X, yAxis.Y, yAxis.Z, -yAxis.Dot(eye),
		zAxis.X, zAxis.Y, zAxis.Z, -zAxis.Dot(eye),
		0, 0, 0, 1,
	})
}

// projectionMatrix builds a right-handed perspective projection with
// depth range [0,1] (the WebGPU/Direct3D convention, as opposed to
// OpenGL's [-1,1]).
func projectionMatrix(verticalFOVDegrees, aspect, near, far float64) *mat.Dense {
	fovY := verticalFOVDegrees * math.Pi / 180
	f := 1 / math.Tan(fovY/2)
	return mat.NewDense(4, 4, []float64{
		f / aspect, 0, 0, 0,
		0, f, 0, 0,
		0, 0, far / (near - far), (near * far) / (near - far),
		0, 0, -1, 0,
	})
}

func finiteVec(v geom.Vector) bool {
	return finite(v.X) && finite(v.Y) && finite(v.Z)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
