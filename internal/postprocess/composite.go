package postprocess

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

// Over composites fg over bg and returns an opaque image the size of fg.
// A nil bg composites over fill.
func Over(fg *image.NRGBA, bg image.Image, fill color.Color) *image.RGBA {
	b := fg.Bounds()
	out := image.NewRGBA(b)
	if bg != nil {
		draw.Draw(out, b, bg, bg.Bounds().Min, draw.Src)
	} else {
		draw.Draw(out, b, image.NewUniform(fill), image.Point{}, draw.Src)
	}
	draw.Draw(out, b, fg, b.Min, draw.Over)
	// Backgrounds may carry alpha; the frame is always opaque.
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255
	}
	return out
}
