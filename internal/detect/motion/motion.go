// Package motion implements temporal-difference motion extraction. It
// reduces two same-sized frames to a luminance difference, binarizes
// against a tunable threshold, and emits the coordinates of the pixels
// that moved.
package motion

import "github.com/aeroglyph/voxelcast/internal/detect/detecterr"

const op = "motion.Mask"

// Image is a single- or multi-channel 8-bit frame, row-major, (0,0)
// top-left. Stride is the number of bytes between the start of
// consecutive rows (>= Width*Channels, to allow for padding).
type Image struct {
	Width, Height int
	Channels      int // 1, 3 or 4
	Stride        int
	Pix           []byte
}

// Pixel is a zero-based image coordinate.
type Pixel struct {
	X, Y int
}

func (img Image) validate() error {
	if img.Width <= 0 || img.Height <= 0 {
		return detecterr.New(detecterr.InvalidInput, op, "image dimensions must be positive")
	}
	if img.Channels != 1 && img.Channels != 3 && img.Channels != 4 {
		return detecterr.New(detecterr.InvalidInput, op, "channels must be 1, 3 or 4")
	}
	if img.Stride < img.Width*img.Channels {
		return detecterr.New(detecterr.InvalidInput, op, "stride smaller than width*channels")
	}
	if len(img.Pix) < img.Stride*img.Height {
		return detecterr.New(detecterr.InvalidInput, op, "pixel buffer shorter than stride*height")
	}
	return nil
}

// luminance reduces a pixel to an equal-weighted channel average. Single
// channel images pass through unchanged.
func (img Image) luminance(x, y int) float64 {
	base := y*img.Stride + x*img.Channels
	var sum float64
	for c := 0; c < img.Channels && c < 3; c++ {
		sum += float64(img.Pix[base+c])
	}
	channels := img.Channels
	if channels > 3 {
		channels = 3 // alpha is not part of the luminance reduction
	}
	return sum / float64(channels)
}

// Mask computes the motion mask between curr and prev. Both images
// must share identical dimensions, channel count and layout, or
// InvalidInput is returned. Pixel coordinates are returned in row-major
// order. An empty result is a legal "no motion this frame" outcome.
func Mask(curr, prev Image, threshold uint8) ([]Pixel, error) {
	if err := curr.validate(); err != nil {
		return nil, err
	}
	if err := prev.validate(); err != nil {
		return nil, err
	}
	if curr.Width != prev.Width || curr.Height != prev.Height || curr.Channels != prev.Channels {
		return nil, detecterr.New(detecterr.InvalidInput, op, "current and previous frames must share dimensions and channel count")
	}

	var pixels []Pixel
	for y := 0; y < curr.Height; y++ {
		for x := 0; x < curr.Width; x++ {
			diff := curr.luminance(x, y) - prev.luminance(x, y)
			if diff < 0 {
				diff = -diff
			}
			if diff > float64(threshold) {
				pixels = append(pixels, Pixel{X: x, Y: y})
			}
		}
	}
	return pixels, nil
}

// DefaultThreshold is τ, the default 8-bit motion threshold.
const DefaultThreshold uint8 = 5
