// Package postprocess turns the supersampled render into the final frame.
package postprocess

import (
	"image"

	"golang.org/x/image/draw"
)

// Downsample scales img to width×height. Filtering runs on premultiplied
// colour so transparent pixels around the hand do not darken its outline.
// Images already within the target size are returned unchanged.
func Downsample(img *image.NRGBA, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() <= width && b.Dy() <= height {
		return img
	}

	// image.RGBA is premultiplied; draw converts on the way in.
	premul := image.NewRGBA(b)
	draw.Draw(premul, b, img, b.Min, draw.Src)

	scaled := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, b, draw.Src, nil)

	out := image.NewNRGBA(scaled.Bounds())
	for i := 0; i+3 < len(scaled.Pix); i += 4 {
		a := scaled.Pix[i+3]
		out.Pix[i+3] = a
		if a <= 1 {
			continue
		}
		k := 255 / float64(a)
		out.Pix[i] = clamp8(float64(scaled.Pix[i]) * k)
		out.Pix[i+1] = clamp8(float64(scaled.Pix[i+1]) * k)
		out.Pix[i+2] = clamp8(float64(scaled.Pix[i+2]) * k)
	}
	return out
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v + 0.5)
}
