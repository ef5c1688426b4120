package stipple

import (
	"image"
	"sync"
	"time"

	"github.com/nfnt/resize"
)

// ProcessStill fits src into a boxW x boxH container (capped at MaxCanvas),
// resamples it to that size, and applies the dot transform.
func (rn *Renderer) ProcessStill(src image.Image, boxW, boxH int, params Params) *image.RGBA {
	b := src.Bounds()
	w, h := Fit(b.Dx(), b.Dy(), boxW, boxH, MaxCanvas)
	scaled := toRGBA(resize.Resize(uint(w), uint(h), src, resize.Bilinear))
	return rn.Render(scaled, params)
}

// ProcessStill is shorthand for NewRenderer().ProcessStill.
func ProcessStill(src image.Image, boxW, boxH int, params Params) *image.RGBA {
	return NewRenderer().ProcessStill(src, boxW, boxH, params)
}

// DefaultDebounce coalesces bursts of parameter and viewport changes into
// one reprocess. The exact interval is a tunable, not a contract.
const DefaultDebounce = 100 * time.Millisecond

type StillOpt func(s *StillProcessor)

// WithDebounce overrides the coalescing interval.
func WithDebounce(d time.Duration) StillOpt {
	return func(s *StillProcessor) {
		s.debounce = d
	}
}

// WithStillRenderer sets the renderer used for reprocessing.
func WithStillRenderer(rn *Renderer) StillOpt {
	return func(s *StillProcessor) {
		s.renderer = rn
	}
}

// StillProcessor reprocesses one still image whenever its parameters or
// container size change, debouncing change bursts. Results are delivered
// to the sink from a timer goroutine.
type StillProcessor struct {
	mu       sync.Mutex
	img      image.Image
	params   Params
	boxW     int
	boxH     int
	timer    *time.Timer
	debounce time.Duration
	renderer *Renderer
	sink     func(*image.RGBA)
}

func NewStillProcessor(sink func(*image.RGBA), opts ...StillOpt) *StillProcessor {
	s := &StillProcessor{
		params:   DefaultParams(),
		boxW:     800,
		boxH:     600,
		debounce: DefaultDebounce,
		renderer: NewRenderer(),
		sink:     sink,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetImage replaces the source image and schedules a reprocess.
func (s *StillProcessor) SetImage(img image.Image) {
	s.change(func() { s.img = img })
}

// SetParams replaces the parameter set and schedules a reprocess.
func (s *StillProcessor) SetParams(params Params) {
	s.change(func() { s.params = params })
}

// SetViewport updates the container size and schedules a reprocess.
func (s *StillProcessor) SetViewport(w, h int) {
	s.change(func() { s.boxW, s.boxH = w, h })
}

func (s *StillProcessor) change(apply func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	apply()
	if s.img == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.process)
}

func (s *StillProcessor) process() {
	s.mu.Lock()
	img, params := s.img, s.params
	boxW, boxH := s.boxW, s.boxH
	rn := s.renderer
	s.mu.Unlock()
	if img == nil {
		return
	}
	s.sink(rn.ProcessStill(img, boxW, boxH, params))
}
