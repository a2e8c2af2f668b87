// Package raygen implements pixel-to-world ray generation with
// angular-footprint metadata, and the adaptive subdivision of a ray
// into a small pencil of sub-rays when its footprint outgrows a
// carving child voxel.
package raygen

import (
	"github.com/aeroglyph/voxelcast/internal/detect/camera"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/motion"
)

// Ray is a camera-tagged ray with an angular footprint: the radians of
// image-plane angle this ray nominally represents, used by the carver
// to decide when to replace it with a pencil of sub-rays.
type Ray struct {
	Origin    geom.Vector
	Dir       geom.Vector // unit
	CameraID  int
	Footprint float64 // φ, radians
}

// Generate produces one Ray per pixel in pixels, tagged with cam's ID
// and φ = verticalFOV/height. A pixel whose unprojection yields a
// non-finite or degenerate direction is silently dropped rather than
// failing the call — this is expected near the far plane for some
// camera configurations.
func Generate(cam *camera.Camera, pixels []motion.Pixel, width, height int) []Ray {
	if len(pixels) == 0 {
		return nil
	}
	footprint := cam.Footprint(height)
	rays := make([]Ray, 0, len(pixels))
	for _, px := range pixels {
		origin, dir, ok := cam.Unproject(px.X, px.Y, width, height)
		if !ok {
			continue
		}
		rays = append(rays, Ray{
			Origin:    origin,
			Dir:       dir,
			CameraID:  cam.ID,
			Footprint: footprint,
		})
	}
	return rays
}

// Subdivide replaces a ray with 4 sub-rays covering the same nominal
// footprint: directions r.Dir ± (φ/4)·u ± (φ/4)·v for an orthonormal
// basis (u,v) perpendicular to r.Dir, each renormalized, each carrying
// halved footprint φ/2 and the same origin/camera_id.
func Subdivide(r Ray) [4]Ray {
	u, v := geom.OrthonormalBasis(r.Dir)
	quarter := r.Footprint / 4
	halfFootprint := r.Footprint / 2

	signs := [4][2]float64{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	var out [4]Ray
	for i, s := range signs {
		dir := r.Dir.Add(u.Mul(quarter * s[0])).Add(v.Mul(quarter * s[1])).Normalize()
		out[i] = Ray{
			Origin:    r.Origin,
			Dir:       dir,
			CameraID:  r.CameraID,
			Footprint: halfFootprint,
		}
	}
	return out
}
