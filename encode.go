package stipple

import (
	"bytes"
	"fmt"
	"image"
	"image/gif"
	"runtime"
	"sync"
	"time"

	"github.com/andybons/gogif"
	webpanim "github.com/deepteams/webp/animation"
)

// Format selects the output container for re-encoded animations.
type Format int

const (
	FormatGIF Format = iota
	FormatWebP
)

// EncodeOptions controls animation re-encoding. Re-encoding normalizes all
// frame timings to a uniform 100ms interval divided by Speed, discarding
// whatever per-frame delays were in effect during capture.
type EncodeOptions struct {
	// Speed is the playback-speed factor; values above 1 play back faster.
	Speed float64
	// Quality is an encoder-defined scale where lower means higher
	// fidelity and larger output. For GIF it selects the median-cut
	// palette size; for WebP it maps onto the codec's 0-100 scale.
	Quality int
	// Format selects the output container. The zero value is GIF.
	Format Format
	// Workers bounds the per-frame quantization pool for GIF output.
	// Zero means GOMAXPROCS.
	Workers int
	// LoopCount is written to the output container; 0 loops forever.
	LoopCount int
}

// EncodeResult is delivered once per encode request.
type EncodeResult struct {
	Data []byte
	Err  error
}

// RequestEncode encodes frames into a compressed animated artifact in the
// background and delivers the result on the returned channel. An empty
// frame sequence is a no-op: the channel yields an empty result rather
// than an error. Encoder failures are always delivered, never swallowed.
func RequestEncode(frames []*image.RGBA, opts EncodeOptions) <-chan EncodeResult {
	ch := make(chan EncodeResult, 1)
	if len(frames) == 0 {
		ch <- EncodeResult{}
		close(ch)
		return ch
	}
	go func() {
		data, err := EncodeAnimation(frames, opts)
		ch <- EncodeResult{Data: data, Err: err}
		close(ch)
	}()
	return ch
}

// EncodeAnimation is the synchronous form of RequestEncode.
func EncodeAnimation(frames []*image.RGBA, opts EncodeOptions) ([]byte, error) {
	if len(frames) == 0 {
		return nil, nil
	}
	switch opts.Format {
	case FormatWebP:
		return encodeWebP(frames, opts)
	default:
		return encodeGIF(frames, opts)
	}
}

// frameDelay returns the uniform per-frame delay: 100ms scaled down by the
// speed factor.
func (o EncodeOptions) frameDelay() time.Duration {
	s := o.Speed
	if s <= 0 {
		s = 1
	}
	return time.Duration(float64(100*time.Millisecond) / s)
}

// paletteSize maps the quality scale onto a median-cut palette size.
// Quality 1 keeps all 256 colors; each step drops 8, floored at 32.
func paletteSize(quality int) int {
	if quality < 1 {
		quality = 1
	}
	n := 256 - 8*(quality-1)
	if n < 32 {
		n = 32
	}
	return n
}

// webpQuality maps the quality scale onto the WebP codec's 0-100 scale,
// where higher is better.
func webpQuality(quality int) int {
	return clamp(100-quality, 0, 100)
}

func encodeGIF(frames []*image.RGBA, opts EncodeOptions) ([]byte, error) {
	delay := int(opts.frameDelay() / (10 * time.Millisecond))
	colors := paletteSize(opts.Quality)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(frames) {
		workers = len(frames)
	}

	out := gif.GIF{
		Image:     make([]*image.Paletted, len(frames)),
		Delay:     make([]int, len(frames)),
		LoopCount: opts.LoopCount,
	}

	// Quantization dominates encode time, so frames are quantized on a
	// small worker pool. Results land at their own index, preserving the
	// captured order.
	jobs := make(chan int, len(frames))
	for i := range frames {
		jobs <- i
	}
	close(jobs)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out.Image[i] = quantize(frames[i], colors)
				out.Delay[i] = delay
			}
		}()
	}
	wg.Wait()

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, &out); err != nil {
		return nil, fmt.Errorf("stipple: gif encode: %w", err)
	}
	return buf.Bytes(), nil
}

func quantize(img *image.RGBA, colors int) *image.Paletted {
	b := img.Bounds()
	pm := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), nil)
	q := gogif.MedianCutQuantizer{NumColor: colors}
	q.Quantize(pm, pm.Bounds(), img, b.Min)
	return pm
}

func encodeWebP(frames []*image.RGBA, opts EncodeOptions) ([]byte, error) {
	b := frames[0].Bounds()
	var buf bytes.Buffer
	enc := webpanim.NewEncoder(&buf, b.Dx(), b.Dy(), &webpanim.EncodeOptions{
		LoopCount: opts.LoopCount,
		Quality:   webpQuality(opts.Quality),
	})
	delay := opts.frameDelay()
	for i, f := range frames {
		if err := enc.AddFrame(f, delay); err != nil {
			return nil, fmt.Errorf("stipple: webp encode frame %d: %w", i, err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("stipple: webp encode: %w", err)
	}
	return buf.Bytes(), nil
}
