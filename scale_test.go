package stipple

import (
	"testing"

	. "github.com/onsi/gomega"
)

func TestFitLandscapeBoundByWidth(t *testing.T) {
	g := NewWithT(t)

	w, h := Fit(1600, 800, 800, 600, MaxCanvas)
	g.Expect(w).To(Equal(800))
	g.Expect(h).To(Equal(400))
}

func TestFitPortraitBoundByHeight(t *testing.T) {
	g := NewWithT(t)

	w, h := Fit(800, 1600, 800, 600, MaxCanvas)
	g.Expect(h).To(Equal(600))
	g.Expect(w).To(Equal(300))
}

func TestFitNeverUpscales(t *testing.T) {
	g := NewWithT(t)

	w, h := Fit(100, 50, 800, 600, MaxCanvas)
	g.Expect(w).To(Equal(100))
	g.Expect(h).To(Equal(50))
}

func TestFitClampsToMaxCanvas(t *testing.T) {
	g := NewWithT(t)

	w, h := Fit(10000, 5000, 20000, 20000, MaxCanvas)
	g.Expect(w).To(BeNumerically("<=", MaxCanvas))
	g.Expect(h).To(BeNumerically("<=", MaxCanvas))
	g.Expect(w).To(Equal(4096))
	g.Expect(h).To(Equal(2048))
}

func TestFitPreservesAspectRatio(t *testing.T) {
	g := NewWithT(t)

	cases := []struct{ sw, sh, bw, bh int }{
		{1920, 1080, 800, 600},
		{1080, 1920, 800, 600},
		{640, 480, 100, 100},
		{333, 777, 500, 500},
	}
	for _, c := range cases {
		w, h := Fit(c.sw, c.sh, c.bw, c.bh, MaxCanvas)
		// Within 1-pixel floor rounding of the source aspect.
		want := float64(w) * float64(c.sh) / float64(c.sw)
		g.Expect(float64(h)).To(BeNumerically("~", want, 1))
	}
}

func TestFitSquareSourceInSquareBox(t *testing.T) {
	g := NewWithT(t)

	w, h := Fit(16, 16, 16, 16, MaxCanvas)
	g.Expect(w).To(Equal(16))
	g.Expect(h).To(Equal(16))
}
