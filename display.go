package stipple

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"sync"
)

// Braille represents an 8 dot braille pattern in x,y coordinate space. Eg:
//
//	+----------+
//	|(0,0)(1,0)|
//	|(0,1)(1,1)|
//	|(0,2)(1,2)|
//	|(0,3)(1,3)|
//	+----------+
type Braille [2][4]int

// Rune maps each point in the pattern to a braille dot number and returns
// the corresponding unicode symbol.
// See https://en.wikipedia.org/wiki/Braille_Patterns#Identifying.2C_naming_and_ordering
func (b Braille) Rune() rune {
	lowEndian := [8]int{b[0][0], b[0][1], b[0][2], b[1][0], b[1][1], b[1][2], b[0][3], b[1][3]}
	var v int
	for i, x := range lowEndian {
		v += x << uint(i)
	}
	return rune(v) + '⠀'
}

// TerminalDisplay renders processed frames as braille symbols on an xterm
// compatible terminal, repositioning the cursor between frames so the
// animation plays in place. Frames arriving from the pipeline carry exactly
// two colors, so each pixel maps cleanly to one braille dot.
type TerminalDisplay struct {
	Writer io.Writer
	// Invert fills braille dots for bright pixels instead of dark ones.
	// Set it when rendering dark-background output.
	Invert bool

	mu   sync.Mutex
	rows int // rows occupied by the previous frame
}

// Flush draws img at the current animation position.
func (t *TerminalDisplay) Flush(img image.Image) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	w := bufio.NewWriter(t.Writer)
	if t.rows > 0 {
		// Back to the beginning of the line and up over the last frame.
		fmt.Fprintf(w, "\033[999D\033[%dA", t.rows)
	}

	bounds := img.Bounds()
	rows := 0
	for py := bounds.Min.Y; py < bounds.Max.Y; py += 4 {
		for px := bounds.Min.X; px < bounds.Max.X; px += 2 {
			var b Braille
			for y := 0; y < 4; y++ {
				for x := 0; x < 2; x++ {
					if px+x >= bounds.Max.X || py+y >= bounds.Max.Y {
						continue
					}
					if t.inked(img, px+x, py+y) {
						b[x][y] = 1
					}
				}
			}
			if _, err := w.WriteRune(b.Rune()); err != nil {
				return err
			}
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		rows++
	}
	t.rows = rows
	return w.Flush()
}

// ShowCursor toggles terminal cursor visibility around playback.
func (t *TerminalDisplay) ShowCursor(show bool) {
	if show {
		t.Writer.Write([]byte("\033[?12l\033[?25h"))
	} else {
		t.Writer.Write([]byte("\033[?25l"))
	}
}

// inked reports whether a pixel carries a dot rather than background: dark
// pixels are ink, or bright ones when Invert is set.
func (t *TerminalDisplay) inked(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	dark := (r+g+b)/3 <= 0x7fff
	if t.Invert {
		return !dark
	}
	return dark
}
