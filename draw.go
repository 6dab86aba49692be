package learnrec

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/usr-ein/learn-n-recognize/utils"
)

// Colors of the overlay annotations.
var (
	IdentifiedColor = color.NRGBA{R: 0x2e, G: 0xcc, B: 0x71, A: 0xff}
	UnknownColor    = color.NRGBA{R: 0xe7, G: 0x4c, B: 0x3c, A: 0xff}
	LearnColor      = color.NRGBA{R: 0x34, G: 0x98, B: 0xdb, A: 0xff}
	StatusColor     = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	shadowColor     = color.NRGBA{A: 0xb0}
)

const borderWidth = 2

// Annotate returns a copy of the frame with the overlay drawn on top of it:
// a rectangle and a caption per face and the status line in the top left corner.
func Annotate(frame image.Image, o Overlay) *image.NRGBA {
	dst := imaging.Clone(frame)
	face := basicfont.Face7x13

	for _, l := range o.Labels {
		col := labelColor(o.Mode, l)
		r := l.Rect.Sub(frame.Bounds().Min)
		drawRect(dst, r, col, borderWidth)

		caption := l.Name
		if o.Mode == Scan {
			caption += " " + l.ConfidenceText()
		}
		drawText(dst, face, caption, image.Pt(r.Min.X, r.Min.Y-borderWidth), col)
	}
	drawText(dst, face, o.Status(), image.Pt(4, face.Height+4), StatusColor)

	return dst
}

func labelColor(m Mode, l Label) color.NRGBA {
	switch {
	case m == Learn:
		return LearnColor
	case l.Identified:
		return IdentifiedColor
	}
	return UnknownColor
}

// drawRect draws the outline of r with the given thickness.
func drawRect(dst draw.Image, r image.Rectangle, col color.Color, thickness int) {
	r = r.Intersect(dst.Bounds())
	if r.Empty() {
		return
	}
	src := image.NewUniform(col)
	t := utils.Min(thickness, utils.Min(r.Dx(), r.Dy()))

	for _, edge := range []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+t),
		image.Rect(r.Min.X, r.Max.Y-t, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+t, r.Max.Y),
		image.Rect(r.Max.X-t, r.Min.Y, r.Max.X, r.Max.Y),
	} {
		draw.Draw(dst, edge, src, image.Point{}, draw.Src)
	}
}

// drawText writes s with its baseline starting at pt, on a dark background
// band keeping it readable over any frame content. The caption is moved
// inside the image when it would overflow the top or right edge.
func drawText(dst draw.Image, face font.Face, s string, pt image.Point, col color.Color) {
	if s == "" {
		return
	}
	m := face.Metrics()
	ascent := m.Ascent.Ceil()
	width := font.MeasureString(face, s).Ceil()
	b := dst.Bounds()
	pt.X = utils.Clamp(pt.X, b.Min.X, utils.Max(b.Min.X, b.Max.X-width))
	pt.Y = utils.Max(pt.Y, b.Min.Y+ascent)

	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(pt.X, pt.Y),
	}
	band := image.Rect(pt.X, pt.Y-ascent, pt.X+width, pt.Y+m.Descent.Ceil())
	draw.Draw(dst, band, image.NewUniform(shadowColor), image.Point{}, draw.Over)
	d.DrawString(s)
}
