package stipple

import "math"

// MaxCanvas is the hard cap, in pixels, on either output dimension.
const MaxCanvas = 4096

// Fit computes an output size for a srcW x srcH raster inside a
// boxW x boxH container, preserving the source aspect ratio. The source is
// never upscaled beyond its native resolution and neither dimension ever
// exceeds maxCanvas. Both results are floored to integers.
//
// boxW and boxH must be positive; Fit has no error path and a degenerate
// container is a caller bug.
func Fit(srcW, srcH, boxW, boxH, maxCanvas int) (int, int) {
	sw, sh := float64(srcW), float64(srcH)
	scale := math.Min(float64(maxCanvas)/sw, float64(maxCanvas)/sh)
	if scale > 1 {
		scale = 1
	}

	srcAspect := sw / sh
	boxAspect := float64(boxW) / float64(boxH)

	var w, h float64
	if srcAspect > boxAspect {
		// Relatively wider than the container: width is the bound.
		w = math.Min(float64(boxW), sw*scale)
		h = w / srcAspect
	} else {
		h = math.Min(float64(boxH), sh*scale)
		w = h * srcAspect
	}
	return int(w), int(h)
}
