package stipple

import (
	"image"
	"sync"
)

// FrameBuffer is an ordered store of captured rasters covering at most one
// full cycle of processed animation output. It is reset whenever a new
// animation begins processing and never spans two source animations.
type FrameBuffer struct {
	mu     sync.Mutex
	frames []*image.RGBA
}

// Append adds a frame to the end of the sequence.
func (b *FrameBuffer) Append(f *image.RGBA) {
	b.mu.Lock()
	b.frames = append(b.frames, f)
	b.mu.Unlock()
}

// Frames returns a snapshot of the captured sequence. The slice is a copy;
// the rasters themselves are shared and treated as read-only by consumers.
func (b *FrameBuffer) Frames() []*image.RGBA {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*image.RGBA, len(b.frames))
	copy(out, b.frames)
	return out
}

// Len reports the number of captured frames.
func (b *FrameBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.frames)
}

// Reset clears the sequence.
func (b *FrameBuffer) Reset() {
	b.mu.Lock()
	b.frames = nil
	b.mu.Unlock()
}
