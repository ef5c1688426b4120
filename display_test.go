package stipple

import (
	"bytes"
	"image"
	"strings"
	"testing"

	. "github.com/onsi/gomega"
)

func TestBrailleRune(t *testing.T) {
	g := NewWithT(t)

	g.Expect(Braille{}.Rune()).To(Equal('⠀'))
	full := Braille{{1, 1, 1, 1}, {1, 1, 1, 1}}
	g.Expect(full.Rune()).To(Equal('⣿'))
}

func TestTerminalDisplayFlush(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	d := &TerminalDisplay{Writer: &buf}

	// 2x4 all-black frame fills a single braille cell.
	img := uniformRGBA(2, 4, black)
	g.Expect(d.Flush(img)).To(Succeed())
	g.Expect(buf.String()).To(Equal("⣿\n"))

	// The second flush repositions the cursor over the first frame.
	buf.Reset()
	g.Expect(d.Flush(img)).To(Succeed())
	g.Expect(strings.HasPrefix(buf.String(), "\033[999D\033[1A")).To(BeTrue())
}

func TestTerminalDisplayInvert(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	d := &TerminalDisplay{Writer: &buf, Invert: true}
	g.Expect(d.Flush(uniformRGBA(2, 4, white))).To(Succeed())
	g.Expect(buf.String()).To(Equal("⣿\n"))
}

func TestTerminalDisplayPartialCell(t *testing.T) {
	g := NewWithT(t)

	var buf bytes.Buffer
	d := &TerminalDisplay{Writer: &buf}

	// A 1x1 black image fills only dot 1 of the cell.
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.SetRGBA(0, 0, black)
	g.Expect(d.Flush(img)).To(Succeed())
	g.Expect(buf.String()).To(Equal("⠁\n"))
}
