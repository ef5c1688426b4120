package stipple

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/llgcode/draw2d/draw2dimg"
)

// Dotter rasterizes one filled circle of color c, centered at (cx, cy) with
// radius r, into dst. A radius of zero or less is a no-op, matching the
// behavior of filling a degenerate arc.
type Dotter interface {
	Dot(dst *image.RGBA, cx, cy, r float64, c color.RGBA)
}

type RenderOpt func(rn *Renderer)

// WithDotter sets the circle rasterizer.
func WithDotter(d Dotter) RenderOpt {
	return func(rn *Renderer) {
		rn.dotter = d
	}
}

// SmoothDots selects an anti-aliased circle rasterizer. Output is no longer
// restricted to the exact background/dot color pair, so the default hard
// rasterizer is what captured animation frames are built with.
func SmoothDots() RenderOpt {
	return func(rn *Renderer) {
		rn.dotter = smoothDotter{}
	}
}

// Renderer applies the block-sampling dot transform.
type Renderer struct {
	dotter Dotter
}

func NewRenderer(opts ...RenderOpt) *Renderer {
	rn := &Renderer{
		dotter: hardDotter{},
	}
	for _, opt := range opts {
		opt(rn)
	}
	return rn
}

// Render is shorthand for NewRenderer().Render(src, p).
func Render(src *image.RGBA, p Params) *image.RGBA {
	return NewRenderer().Render(src, p)
}

// Render produces a new raster of the same dimensions as src: a solid
// background with one filled circle per sampling block whose average
// brightness strictly exceeds the threshold. The circle radius is
// proportional to that average. Render never mutates src and is fully
// deterministic: identical inputs produce byte-identical output.
func (rn *Renderer) Render(src *image.RGBA, p Params) *image.RGBA {
	p = p.normalize()
	bounds := src.Bounds()
	w, h := bounds.Dx(), bounds.Dy()

	bg, dot := p.colors()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	step := p.BlockSize + p.Spacing
	// Threshold percent converted to a 0-255 brightness cutoff. Computed
	// as 255/100ths so that whole-percent boundaries are exact: at 100
	// percent a fully bright block compares 255 > 255 and draws nothing.
	cutoff := float64(p.Threshold) * 255 / 100
	half := float64(p.BlockSize) / 2

	for y := 0; y < h; y += step {
		for x := 0; x < w; x += step {
			var sum, n int
			for by := 0; by < p.BlockSize && y+by < h; by++ {
				row := src.Pix[src.PixOffset(bounds.Min.X, bounds.Min.Y+y+by):]
				for bx := 0; bx < p.BlockSize && x+bx < w; bx++ {
					o := (x + bx) * 4
					sum += int(row[o]) + int(row[o+1]) + int(row[o+2])
				}
				if x+p.BlockSize <= w {
					n += p.BlockSize
				} else {
					n += w - x
				}
			}
			if n == 0 {
				// A block whose origin sits outside the raster has no
				// samples; skip it rather than divide by zero.
				continue
			}
			// Per-pixel brightness is (R+G+B)/3, so the block average is
			// the channel sum over 3n.
			avg := float64(sum) / (3 * float64(n))
			if avg > cutoff {
				r := float64(p.MaxRadius) * avg / 255
				rn.dotter.Dot(dst, float64(x)+half, float64(y)+half, r, dot)
			}
		}
	}
	return dst
}

// hardDotter fills a circle with hard edges: a pixel is set iff its center
// lies within the radius. No blending, so the output contains only the
// background and dot colors.
type hardDotter struct{}

func (hardDotter) Dot(dst *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	b := dst.Bounds()
	minX := max(int(math.Floor(cx-r)), b.Min.X)
	maxX := min(int(math.Ceil(cx+r)), b.Max.X)
	minY := max(int(math.Floor(cy-r)), b.Min.Y)
	maxY := min(int(math.Ceil(cy+r)), b.Max.Y)
	rr := r * r
	for py := minY; py < maxY; py++ {
		dy := float64(py) + 0.5 - cy
		for px := minX; px < maxX; px++ {
			dx := float64(px) + 0.5 - cx
			if dx*dx+dy*dy <= rr {
				dst.SetRGBA(px, py, c)
			}
		}
	}
}

// smoothDotter fills circles through draw2d with anti-aliased edges,
// approximating the arc fills of a 2D canvas surface.
type smoothDotter struct{}

func (smoothDotter) Dot(dst *image.RGBA, cx, cy, r float64, c color.RGBA) {
	if r <= 0 {
		return
	}
	gc := draw2dimg.NewGraphicContext(dst)
	gc.SetFillColor(c)
	gc.BeginPath()
	gc.ArcTo(cx, cy, r, r, 0, 2*math.Pi)
	gc.Close()
	gc.Fill()
}
