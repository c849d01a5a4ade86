// Package render draws detection results onto images.
package render

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/clone"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/ironsheep/plate-detect/internal/detection"
)

// labelOffset is the gap in pixels between the label baseline and the top
// edge of its box.
const labelOffset = 3

// Style controls the appearance of annotations. Nil fields take the
// DefaultStyle value.
type Style struct {
	// BoxColor is the color of the 1 pixel rectangle outline.
	BoxColor color.Color

	// LabelColor is the color of the label text.
	LabelColor color.Color

	// Face is the font used for labels.
	Face font.Face
}

// DefaultStyle returns red boxes with magenta labels.
func DefaultStyle() Style {
	return Style{
		BoxColor:   color.RGBA{R: 255, A: 255},
		LabelColor: color.RGBA{R: 255, B: 255, A: 255},
		Face:       basicfont.Face7x13,
	}
}

// Annotate returns a copy of canvas with every detection drawn on it, in
// slice order. Later labels may overdraw earlier ones.
//
// Box coordinates are relative to the canvas origin and are truncated to
// integers. Corners outside the canvas are clamped to its edges and swapped
// corners are reordered; a box lying entirely outside the canvas or with a
// NaN coordinate is not drawn. Annotate never fails and never modifies canvas.
func Annotate(canvas image.Image, dets []detection.Detection, style Style) *image.RGBA {
	out := clone.AsRGBA(canvas)
	def := DefaultStyle()
	if style.BoxColor == nil {
		style.BoxColor = def.BoxColor
	}
	if style.LabelColor == nil {
		style.LabelColor = def.LabelColor
	}
	if style.Face == nil {
		style.Face = def.Face
	}
	for _, d := range dets {
		drawDetection(out, d, style)
	}
	return out
}

func drawDetection(img *image.RGBA, d detection.Detection, style Style) {
	bounds := img.Bounds()
	x1, y1, x2, y2, ok := d.Box.Clip(bounds.Dx(), bounds.Dy())
	if !ok {
		return
	}

	drawRect(img, bounds.Min.X+x1, bounds.Min.Y+y1, bounds.Min.X+x2, bounds.Min.Y+y2, style.BoxColor)
	if d.Label != "" {
		drawLabel(img, bounds.Min.X+x1, bounds.Min.Y+y1-labelOffset, d.Label, style)
	}
}

// drawRect outlines the rectangle with inclusive corners (x1,y1) and (x2,y2).
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.Color) {
	for x := x1; x <= x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2, c)
	}
	for y := y1; y <= y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2, y, c)
	}
}

// drawLabel draws text with its baseline starting at (x, y), shifted as
// little as needed to keep the glyphs inside the image. The text is drawn
// twice, one pixel apart, for a 2 pixel stroke.
func drawLabel(img *image.RGBA, x, y int, text string, style Style) {
	bounds := img.Bounds()
	ascent := style.Face.Metrics().Ascent.Ceil()
	width := font.MeasureString(style.Face, text).Ceil() + 1

	if y-ascent < bounds.Min.Y {
		y = bounds.Min.Y + ascent
	}
	if x+width > bounds.Max.X {
		x = bounds.Max.X - width
	}
	if x < bounds.Min.X {
		x = bounds.Min.X
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(style.LabelColor),
		Face: style.Face,
	}
	for dx := 0; dx < 2; dx++ {
		d.Dot = fixed.Point26_6{X: fixed.I(x + dx), Y: fixed.I(y)}
		d.DrawString(text)
	}
}
