package stipple

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"time"

	"github.com/deepteams/webp"
	webpanim "github.com/deepteams/webp/animation"

	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

var (
	// ErrUnsupportedInput reports a file that is neither a recognized
	// animated container nor a decodable still image.
	ErrUnsupportedInput = errors.New("stipple: unsupported input format")
	// ErrNoFrames reports an animated container with an empty frame list.
	ErrNoFrames = errors.New("stipple: animation has no frames")
)

// Frame is one decoded animation frame: a patch covering the frame's own
// sub-rectangle plus its placement within the logical canvas.
type Frame struct {
	Patch   *image.RGBA
	OffsetX int
	OffsetY int
	// Delay is the source-defined display delay. Zero means unspecified;
	// the pipeline applies its 100ms floor either way.
	Delay time.Duration
	// Disposal is the container's disposal hint, carried for callers but
	// not enforced: frames are composited by direct overwrite.
	Disposal byte
}

// Animation is an ordered, decoded frame sequence plus the logical
// full-canvas dimensions.
type Animation struct {
	Frames []Frame
	Width  int
	Height int
	// LoopCount follows the GIF convention: 0 loops forever.
	LoopCount int
}

// Kind classifies an input file.
type Kind int

const (
	KindStill Kind = iota
	KindAnimation
)

func isGIF(data []byte) bool {
	return len(data) >= 6 && (bytes.HasPrefix(data, []byte("GIF87a")) || bytes.HasPrefix(data, []byte("GIF89a")))
}

func isWebP(data []byte) bool {
	return len(data) >= 12 && bytes.HasPrefix(data, []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP"))
}

// Detect classifies data as an animated container or a still image.
// Anything else yields ErrUnsupportedInput rather than a silent no-op, so
// callers can report it.
func Detect(data []byte) (Kind, error) {
	if isGIF(data) {
		return KindAnimation, nil
	}
	if isWebP(data) {
		feat, err := webp.GetFeatures(bytes.NewReader(data))
		if err != nil {
			return 0, fmt.Errorf("stipple: webp features: %w", err)
		}
		if feat.HasAnimation {
			return KindAnimation, nil
		}
		return KindStill, nil
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		return KindStill, nil
	}
	return 0, ErrUnsupportedInput
}

// DecodeAnimation decodes a GIF or animated WebP container into an
// Animation. Decode failures are returned, never swallowed.
func DecodeAnimation(data []byte) (*Animation, error) {
	switch {
	case isGIF(data):
		g, err := gif.DecodeAll(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("stipple: gif decode: %w", err)
		}
		return fromGIF(g)
	case isWebP(data):
		wa, err := webpanim.DecodeBytes(data)
		if err != nil {
			return nil, fmt.Errorf("stipple: webp decode: %w", err)
		}
		if err := wa.DecodeFramesParallel(); err != nil {
			return nil, fmt.Errorf("stipple: webp frame decode: %w", err)
		}
		return fromWebP(wa)
	}
	return nil, ErrUnsupportedInput
}

func fromGIF(g *gif.GIF) (*Animation, error) {
	if len(g.Image) == 0 {
		return nil, ErrNoFrames
	}
	anim := &Animation{
		Frames:    make([]Frame, 0, len(g.Image)),
		LoopCount: g.LoopCount,
	}
	for i, src := range g.Image {
		f := Frame{
			Patch:   patchOf(src),
			OffsetX: src.Bounds().Min.X,
			OffsetY: src.Bounds().Min.Y,
		}
		if i < len(g.Delay) {
			// GIF delays are in hundredths of a second.
			f.Delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}
		if i < len(g.Disposal) {
			f.Disposal = g.Disposal[i]
		}
		anim.Frames = append(anim.Frames, f)
	}
	// Prefer the logical screen descriptor; fall back to the bounding box
	// of all patch placements.
	anim.Width, anim.Height = g.Config.Width, g.Config.Height
	if anim.Width <= 0 || anim.Height <= 0 {
		anim.Width, anim.Height = boundingBox(anim.Frames)
	}
	return anim, nil
}

func fromWebP(wa *webpanim.Animation) (*Animation, error) {
	if len(wa.Frames) == 0 {
		return nil, ErrNoFrames
	}
	anim := &Animation{
		Frames:    make([]Frame, 0, len(wa.Frames)),
		LoopCount: wa.LoopCount,
	}
	for i := range wa.Frames {
		src := &wa.Frames[i]
		if src.Image == nil {
			return nil, fmt.Errorf("stipple: webp frame %d has no pixels", i)
		}
		anim.Frames = append(anim.Frames, Frame{
			Patch:    patchOf(src.Image),
			OffsetX:  src.OffsetX,
			OffsetY:  src.OffsetY,
			Delay:    src.Duration,
			Disposal: byte(src.Dispose),
		})
	}
	anim.Width, anim.Height = wa.CanvasWidth, wa.CanvasHeight
	if anim.Width <= 0 || anim.Height <= 0 {
		anim.Width, anim.Height = boundingBox(anim.Frames)
	}
	return anim, nil
}

// patchOf copies src into a zero-origin RGBA buffer.
func patchOf(src image.Image) *image.RGBA {
	b := src.Bounds()
	patch := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(patch, patch.Bounds(), src, b.Min, draw.Src)
	return patch
}

func boundingBox(frames []Frame) (int, int) {
	var w, h int
	for _, f := range frames {
		if x := f.OffsetX + f.Patch.Bounds().Dx(); x > w {
			w = x
		}
		if y := f.OffsetY + f.Patch.Bounds().Dy(); y > h {
			h = y
		}
	}
	return w, h
}

// toRGBA converts img, copying unless it is already a zero-origin RGBA.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	return patchOf(img)
}
