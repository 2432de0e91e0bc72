package reaction

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// DrawText returns a copy of dst with text written in col. at is the left
// end of the baseline, as with OpenCV's putText. The 7x13 bitmap face is
// enlarged by scale with nearest-neighbour sampling to keep it crisp.
func DrawText(dst image.Image, text string, at image.Point, col color.Color, scale int) *image.NRGBA {
	if scale < 1 {
		scale = 1
	}
	face := basicfont.Face7x13
	metrics := face.Metrics()
	ascent := metrics.Ascent.Ceil()
	height := metrics.Height.Ceil()

	d := &font.Drawer{Face: face}
	width := d.MeasureString(text).Ceil()
	if width == 0 {
		return imaging.Clone(dst)
	}

	glyphs := image.NewNRGBA(image.Rect(0, 0, width, height))
	d.Dst = glyphs
	d.Src = image.NewUniform(col)
	d.Dot = fixed.P(0, ascent)
	d.DrawString(text)

	scaled := imaging.Resize(glyphs, width*scale, height*scale, imaging.NearestNeighbor)
	return imaging.Overlay(dst, scaled, image.Pt(at.X, at.Y-ascent*scale), 1.0)
}
