/*
Package stipple transforms raster images and animated image containers into
a stippled representation: the source is divided into a grid of blocks, each
block's average brightness is mapped to a filled circle of proportional
radius, and the result is rendered onto a fitted output canvas.

Still images are processed once per parameter change. Animated inputs (GIF,
animated WebP) are decoded frame by frame, composited onto a persistent
logical canvas, transformed, captured, and optionally re-encoded into a new
animated artifact with adjustable playback speed and compression quality.
*/
package stipple

import "image/color"

// Params configures the dot transform. A Params value is immutable per
// render: the pipeline snapshots it at the start of every tick.
type Params struct {
	// BlockSize is the pixel edge length of a sampling block.
	BlockSize int
	// MaxRadius is the dot radius, in pixels, of a fully bright block.
	MaxRadius int
	// Spacing is the gap added between block origins.
	Spacing int
	// Threshold is the minimum average brightness, as a percent of 255,
	// required to draw a dot. The comparison is strict: a block exactly at
	// the threshold draws nothing.
	Threshold int
	// DarkBackground selects a black background with white dots instead of
	// the default white background with black dots.
	DarkBackground bool
}

// DefaultParams returns the control-surface defaults.
func DefaultParams() Params {
	return Params{
		BlockSize: 6,
		MaxRadius: 3,
		Spacing:   1,
		Threshold: 20,
	}
}

// normalize clamps every field to its control-surface range so that
// out-of-range input degrades safely instead of corrupting the grid walk.
func (p Params) normalize() Params {
	p.BlockSize = clamp(p.BlockSize, 4, 40)
	p.MaxRadius = clamp(p.MaxRadius, 1, 20)
	p.Spacing = clamp(p.Spacing, 0, 10)
	p.Threshold = clamp(p.Threshold, 0, 100)
	return p
}

// colors returns the background fill and the dot color.
func (p Params) colors() (bg, dot color.RGBA) {
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	black := color.RGBA{A: 0xff}
	if p.DarkBackground {
		return black, white
	}
	return white, black
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
