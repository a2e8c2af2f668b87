// Package detect wires together the full per-frame pipeline: motion
// masking and ray generation fanned out one goroutine per camera,
// joined deterministically, then carved against the target zone.
// Clustering and tracking are optional downstream stages the caller
// composes from the cluster and track packages directly.
package detect

import (
	"sync"

	"github.com/aeroglyph/voxelcast/internal/detect/camera"
	"github.com/aeroglyph/voxelcast/internal/detect/carve"
	"github.com/aeroglyph/voxelcast/internal/detect/detecterr"
	"github.com/aeroglyph/voxelcast/internal/detect/geom"
	"github.com/aeroglyph/voxelcast/internal/detect/motion"
	"github.com/aeroglyph/voxelcast/internal/detect/raygen"
)

const op = "detect.Detect"

// TargetZone is the bounded search volume passed to the carver.
type TargetZone = geom.Voxel

// CameraFrame pairs a calibrated Camera with the current and previous
// frame captured from it. The camera's ID should equal its position in
// the frames slice, since that is the camera_id rays are tagged with.
type CameraFrame struct {
	Camera   *camera.Camera
	Current  motion.Image
	Previous motion.Image
}

// Params bundles the knobs threaded through to the motion and carving
// stages.
type Params struct {
	Threshold uint8
	Carve     carve.Params
}

// DefaultParams returns the production defaults for the full pipeline.
func DefaultParams() Params {
	return Params{Threshold: motion.DefaultThreshold, Carve: carve.DefaultParams()}
}

// Detect runs the full pipeline: per camera, motion-mask the frame pair
// and generate tagged rays (fanned out one goroutine per camera, joined
// with a wait group before proceeding); concatenate the ray sets in
// camera_id order for determinism; then carve targetZone with the
// concatenated rays.
func Detect(targetZone TargetZone, frames []CameraFrame, p Params) ([]geom.Voxel, error) {
	if targetZone.Half <= 0 {
		return nil, detecterr.New(detecterr.InvalidParameters, op, "target zone half-extent must be > 0")
	}
	if len(frames) == 0 {
		return nil, nil
	}

	rayLists := make([][]raygen.Ray, len(frames))
	errs := make([]error, len(frames))

	var wg sync.WaitGroup
	wg.Add(len(frames))
	for i, f := range frames {
		go func(i int, f CameraFrame) {
			defer wg.Done()
			pixels, err := motion.Mask(f.Current, f.Previous, p.Threshold)
			if err != nil {
				errs[i] = err
				return
			}
			rayLists[i] = raygen.Generate(f.Camera, pixels, f.Current.Width, f.Current.Height)
		}(i, f)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	var rays []raygen.Ray
	for _, rs := range rayLists {
		rays = append(rays, rs...)
	}

	return carve.Carve(targetZone, rays, p.Carve)
}
