// Package plot renders detection passes into two-panel PNG images: the
// complex signal on top, the decimated power envelope with the threshold
// line below. Flagged segments are shaded in both panels.
package plot

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	backgroundColor = color.RGBA{0, 0, 0, 255}       // black
	fillColor       = color.RGBA{0, 64, 80, 255}     // dark teal
	realColor       = color.RGBA{112, 191, 77, 255}  // green
	imagColor       = color.RGBA{255, 165, 0, 255}   // orange
	powerColor      = color.RGBA{255, 0, 255, 255}   // fuchsia
	thresholdColor  = color.RGBA{255, 255, 255, 255} // white
	labelColor      = color.RGBA{200, 200, 200, 255}
)

const (
	defaultWidth  = 800
	defaultHeight = 600

	// dB range of the envelope panel.
	envelopeMinDB = -80.0
	envelopeMaxDB = 10.0
	// Amplitude range of the signal panel.
	signalMax = 1.0
)

// Plotter implements detect.Observer. Whenever a pass flags at least one
// segment, it writes a PNG into Dir. Render failures are logged, never
// propagated; the plotter is a best-effort consumer.
type Plotter struct {
	// Dir receives the rendered images, detect_<counter>.png.
	Dir string
	// SampleRate scales the time axis, in samples per second.
	SampleRate int64
	// ThresholdDB is drawn as a horizontal line in the envelope panel.
	ThresholdDB float64
	// Width and Height of the image in pixels; zero picks defaults.
	Width  int
	Height int

	counter int
}

func (p *Plotter) Observe(buf []complex64, envelope []float64, flags []bool) {
	any := false
	for _, f := range flags {
		if f {
			any = true
			break
		}
	}
	if !any {
		return
	}

	img := p.render(buf, envelope, flags)
	name := filepath.Join(p.Dir, fmt.Sprintf("detect_%06d.png", p.counter))
	p.counter++

	if err := os.MkdirAll(p.Dir, 0o755); err != nil {
		glog.Warningf("unable to create plot directory %q: %s\n", p.Dir, err)
		return
	}
	f, err := os.Create(name)
	if err != nil {
		glog.Warningf("unable to create plot file %q: %s\n", name, err)
		return
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		glog.Warningf("unable to encode plot %q: %s\n", name, err)
	}
}

func (p *Plotter) render(buf []complex64, envelope []float64, flags []bool) *image.RGBA {
	w, h := p.Width, p.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	panelH := h / 2

	canvas := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{backgroundColor}, image.Point{}, draw.Src)

	// Shade flagged segments across both panels.
	for row, flagged := range flags {
		if !flagged {
			continue
		}
		x0 := row * w / len(flags)
		x1 := (row + 1) * w / len(flags)
		fill := image.Rect(x0, 0, x1, h)
		draw.Draw(canvas, fill, &image.Uniform{fillColor}, image.Point{}, draw.Src)
	}

	// Top panel: I and Q traces.
	yReal := func(x int) int { return signalY(real(buf[x*len(buf)/w]), 0, panelH) }
	yImag := func(x int) int { return signalY(imag(buf[x*len(buf)/w]), 0, panelH) }
	drawTrace(canvas, w, yImag, imagColor)
	drawTrace(canvas, w, yReal, realColor)

	// Bottom panel: envelope in dB plus the threshold line.
	yEnv := func(x int) int {
		return envelopeY(envelope[x*len(envelope)/w], panelH, panelH)
	}
	drawTrace(canvas, w, yEnv, powerColor)
	ty := envelopeY(math.Pow(10, p.ThresholdDB/10), panelH, panelH)
	for x := 0; x < w; x += 4 { // dashed
		canvas.SetRGBA(x, ty, thresholdColor)
		canvas.SetRGBA(x+1, ty, thresholdColor)
	}

	p.drawLabels(canvas, w, h, panelH, len(buf))
	return canvas
}

// signalY maps an amplitude onto a panel row.
func signalY(v float32, top, panelH int) int {
	f := (float64(v) + signalMax) / (2 * signalMax)
	return clampY(top, panelH, f)
}

// envelopeY maps a linear power onto the envelope panel's dB scale.
func envelopeY(pow float64, top, panelH int) int {
	db := envelopeMinDB
	if pow > 0 {
		db = 10 * math.Log10(pow)
	}
	f := (db - envelopeMinDB) / (envelopeMaxDB - envelopeMinDB)
	return clampY(top, panelH, f)
}

func clampY(top, panelH int, f float64) int {
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return top + panelH - 1 - int(f*float64(panelH-1))
}

// drawTrace draws y(x) for each pixel column, connecting neighboring columns
// vertically so the trace is continuous.
func drawTrace(canvas *image.RGBA, w int, y func(int) int, c color.RGBA) {
	prev := y(0)
	for x := 0; x < w; x++ {
		curr := y(x)
		lo, hi := prev, curr
		if lo > hi {
			lo, hi = hi, lo
		}
		for yy := lo; yy <= hi; yy++ {
			canvas.SetRGBA(x, yy, c)
		}
		prev = curr
	}
}

func (p *Plotter) drawLabels(canvas *image.RGBA, w, h, panelH, bufLen int) {
	label := func(x, y int, s string) {
		d := &font.Drawer{
			Dst:  canvas,
			Src:  image.NewUniform(labelColor),
			Face: basicfont.Face7x13,
			Dot:  fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)},
		}
		d.DrawString(s)
	}
	label(4, 14, "complex signal")
	label(4, panelH+14, fmt.Sprintf("power detector (threshold %.1f dB)", p.ThresholdDB))
	if p.SampleRate > 0 {
		ms := float64(bufLen) / float64(p.SampleRate) * 1e3
		label(w-80, h-4, fmt.Sprintf("%.2f ms", ms))
		label(4, h-4, "0 ms")
	}
}
