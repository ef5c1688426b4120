package stipple

import (
	"image"
	"image/draw"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// Display receives each processed frame as it becomes current. It is the
// visible-canvas boundary; implementations must not retain or mutate the
// image after Flush returns.
type Display interface {
	Flush(img image.Image) error
}

// minFrameDelay floors the per-frame wait: a zero or missing source delay
// plays at 100ms.
const minFrameDelay = 100 * time.Millisecond

type PipelineOpt func(p *Pipeline)

// WithDisplay sets the output surface for processed frames.
func WithDisplay(d Display) PipelineOpt {
	return func(p *Pipeline) {
		p.display = d
	}
}

// WithRenderer sets the dot-transform renderer.
func WithRenderer(rn *Renderer) PipelineOpt {
	return func(p *Pipeline) {
		p.renderer = rn
	}
}

// WithViewport sets the initial preview container size.
func WithViewport(w, h int) PipelineOpt {
	return func(p *Pipeline) {
		p.boxW, p.boxH = w, h
	}
}

// Pipeline drives one animation at a time through composite, fit, dot
// transform, capture, and display. Playback is perpetual and cyclic; it
// ends only when a new animation is loaded or the pipeline is stopped.
//
// Replacing the animation bumps an epoch counter. The playback goroutine
// checks its captured epoch under the lock before every tick, so a stale
// continuation from a superseded animation can never write into a freshly
// reset canvas or frame buffer.
type Pipeline struct {
	mu    sync.Mutex
	epoch uint64

	anim    *Animation
	canvas  *image.RGBA // logical canvas, mutated in place across ticks
	index   int
	params  Params
	boxW    int
	boxH    int
	capture *FrameBuffer

	renderer *Renderer
	display  Display
}

func NewPipeline(opts ...PipelineOpt) *Pipeline {
	p := &Pipeline{
		params:   DefaultParams(),
		boxW:     800,
		boxH:     600,
		capture:  &FrameBuffer{},
		renderer: NewRenderer(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SetParams replaces the parameter set. The change is visible from the next
// tick; already-captured frames are not reprocessed.
func (p *Pipeline) SetParams(params Params) {
	p.mu.Lock()
	p.params = params
	p.mu.Unlock()
}

// Params returns the current parameter set.
func (p *Pipeline) Params() Params {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.params
}

// SetViewport updates the preview container size used by the next tick.
func (p *Pipeline) SetViewport(w, h int) {
	p.mu.Lock()
	p.boxW, p.boxH = w, h
	p.mu.Unlock()
}

// Frames returns a snapshot of the frames captured since the last Load.
func (p *Pipeline) Frames() []*image.RGBA {
	return p.capture.Frames()
}

// Load replaces the current animation and starts playback from its first
// frame. The logical canvas and the captured-frame sequence are reset, and
// any previous playback goroutine is logically cancelled.
func (p *Pipeline) Load(anim *Animation) error {
	if len(anim.Frames) == 0 {
		return ErrNoFrames
	}
	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	p.anim = anim
	p.canvas = image.NewRGBA(image.Rect(0, 0, anim.Width, anim.Height))
	p.index = 0
	p.capture.Reset()
	p.mu.Unlock()

	go p.play(epoch)
	return nil
}

// Stop cancels playback. The running goroutine notices on its next tick.
func (p *Pipeline) Stop() {
	p.mu.Lock()
	p.epoch++
	p.mu.Unlock()
}

func (p *Pipeline) play(epoch uint64) {
	for {
		out, delay, ok := p.tick(epoch)
		if !ok {
			return
		}
		if p.display != nil {
			// Display errors do not stop playback; the captured sequence
			// is still the artifact of record.
			_ = p.display.Flush(out)
		}
		<-time.After(delay)
	}
}

// tick advances the animation by one frame. It returns ok=false when this
// goroutine's epoch has been superseded.
func (p *Pipeline) tick(epoch uint64) (out *image.RGBA, delay time.Duration, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if epoch != p.epoch {
		return nil, 0, false
	}

	f := p.anim.Frames[p.index]
	out = renderFrame(p.canvas, f, p.boxW, p.boxH, p.params, p.renderer)

	captured := image.NewRGBA(out.Bounds())
	copy(captured.Pix, out.Pix)
	p.capture.Append(captured)

	delay = f.Delay
	if delay < minFrameDelay {
		delay = minFrameDelay
	}
	p.index = (p.index + 1) % len(p.anim.Frames)
	return out, delay, true
}

// renderFrame composites one patch onto the logical canvas by direct
// overwrite, fits the canvas to the container, and runs the dot transform
// over the scaled result. Disposal hints are intentionally not applied;
// only the patch rectangle is touched.
func renderFrame(canvas *image.RGBA, f Frame, boxW, boxH int, params Params, rn *Renderer) *image.RGBA {
	pb := f.Patch.Bounds()
	region := image.Rect(f.OffsetX, f.OffsetY, f.OffsetX+pb.Dx(), f.OffsetY+pb.Dy())
	draw.Draw(canvas, region, f.Patch, pb.Min, draw.Src)

	cb := canvas.Bounds()
	w, h := Fit(cb.Dx(), cb.Dy(), boxW, boxH, MaxCanvas)
	scaled := toRGBA(resize.Resize(uint(w), uint(h), canvas, resize.Bilinear))
	return rn.Render(scaled, params)
}

// ProcessAnimation runs exactly one cycle of anim through the same
// composite/fit/transform path as the live pipeline and returns the
// processed frames in order. It is the offline equivalent of loading an
// animation and capturing until the sequence wraps.
func ProcessAnimation(anim *Animation, boxW, boxH int, params Params, rn *Renderer) []*image.RGBA {
	if rn == nil {
		rn = NewRenderer()
	}
	canvas := image.NewRGBA(image.Rect(0, 0, anim.Width, anim.Height))
	out := make([]*image.RGBA, 0, len(anim.Frames))
	for _, f := range anim.Frames {
		out = append(out, renderFrame(canvas, f, boxW, boxH, params, rn))
	}
	return out
}
