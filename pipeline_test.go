package stipple

import (
	"image"
	"image/color"
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func solidAnimation(size, frames int, c color.RGBA) *Animation {
	anim := &Animation{Width: size, Height: size}
	for i := 0; i < frames; i++ {
		anim.Frames = append(anim.Frames, Frame{
			Patch: uniformRGBA(size, size, c),
		})
	}
	return anim
}

func TestPipelineCapturesFrames(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline(WithViewport(16, 16))
	g.Expect(p.Load(solidAnimation(16, 2, white))).To(Succeed())
	defer p.Stop()

	// Zero source delays floor at 100ms per tick.
	g.Eventually(p.capture.Len, "2s", "20ms").Should(BeNumerically(">=", 3))
	for _, f := range p.Frames()[:3] {
		g.Expect(f.Bounds().Dx()).To(Equal(16))
		g.Expect(f.Bounds().Dy()).To(Equal(16))
	}
}

func TestPipelineRejectsEmptyAnimation(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline()
	g.Expect(p.Load(&Animation{Width: 4, Height: 4})).To(MatchError(ErrNoFrames))
}

func TestPipelineLoadResetsCapture(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline(WithViewport(32, 32))
	g.Expect(p.Load(solidAnimation(16, 2, white))).To(Succeed())
	g.Eventually(p.capture.Len, "2s", "20ms").Should(BeNumerically(">=", 2))

	// Replacing the input mid-playback clears the capture store; frames
	// from the superseded animation never reappear. The two animations
	// have different source sizes, so their captured dimensions differ.
	g.Expect(p.Load(solidAnimation(32, 2, white))).To(Succeed())
	defer p.Stop()

	g.Eventually(p.capture.Len, "2s", "20ms").Should(BeNumerically(">=", 2))
	for _, f := range p.Frames() {
		g.Expect(f.Bounds().Dx()).To(Equal(32), "stale frame from replaced animation")
	}
}

func TestPipelineStopHaltsCapture(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline(WithViewport(16, 16))
	g.Expect(p.Load(solidAnimation(16, 2, white))).To(Succeed())
	g.Eventually(p.capture.Len, "2s", "20ms").Should(BeNumerically(">=", 1))

	p.Stop()
	// Let any in-flight tick drain, then verify no further growth.
	time.Sleep(150 * time.Millisecond)
	n := p.capture.Len()
	g.Consistently(p.capture.Len, "350ms", "50ms").Should(Equal(n))
}

func TestPipelineParamsVisibleNextTick(t *testing.T) {
	g := NewWithT(t)

	p := NewPipeline(WithViewport(16, 16))
	p.SetParams(Params{BlockSize: 8, MaxRadius: 4, Spacing: 0, Threshold: 0})
	g.Expect(p.Load(solidAnimation(16, 4, white))).To(Succeed())
	defer p.Stop()

	g.Eventually(p.capture.Len, "2s", "20ms").Should(BeNumerically(">=", 1))

	// Raise the threshold to the maximum: later frames draw no dots.
	p.SetParams(Params{BlockSize: 8, MaxRadius: 4, Spacing: 0, Threshold: 100})
	g.Eventually(func() bool {
		frames := p.Frames()
		if len(frames) == 0 {
			return false
		}
		last := frames[len(frames)-1]
		for i := range last.Pix {
			if last.Pix[i] != 0xff {
				return false
			}
		}
		return true
	}, "2s", "50ms").Should(BeTrue())
}

type recordingDisplay struct {
	flushed chan image.Image
}

func (d *recordingDisplay) Flush(img image.Image) error {
	select {
	case d.flushed <- img:
	default:
	}
	return nil
}

func TestPipelineFlushesToDisplay(t *testing.T) {
	g := NewWithT(t)

	d := &recordingDisplay{flushed: make(chan image.Image, 1)}
	p := NewPipeline(WithViewport(16, 16), WithDisplay(d))
	g.Expect(p.Load(solidAnimation(16, 1, white))).To(Succeed())
	defer p.Stop()

	var img image.Image
	g.Eventually(d.flushed, "2s").Should(Receive(&img))
	g.Expect(img.Bounds().Dx()).To(Equal(16))
}

func TestProcessAnimationCompositesPatches(t *testing.T) {
	g := NewWithT(t)

	// Frame 1 fills the canvas white; frame 2 patches the left half black.
	// With overwrite compositing the second processed frame keeps dots
	// only on the right half.
	anim := &Animation{Width: 16, Height: 16}
	anim.Frames = append(anim.Frames, Frame{Patch: uniformRGBA(16, 16, white)})
	anim.Frames = append(anim.Frames, Frame{Patch: uniformRGBA(8, 16, color.RGBA{A: 0xff})})

	params := Params{BlockSize: 8, MaxRadius: 4, Spacing: 0, Threshold: 10}
	frames := ProcessAnimation(anim, 16, 16, params, nil)
	g.Expect(frames).To(HaveLen(2))

	first, second := frames[0], frames[1]
	var firstLeft, secondLeft, secondRight int
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if first.RGBAAt(x, y) == black && x < 8 {
				firstLeft++
			}
			if second.RGBAAt(x, y) == black {
				if x < 8 {
					secondLeft++
				} else {
					secondRight++
				}
			}
		}
	}
	g.Expect(firstLeft).To(BeNumerically(">", 0))
	g.Expect(secondLeft).To(Equal(0), "patched-over region should be below threshold")
	g.Expect(secondRight).To(BeNumerically(">", 0))
}
