package raster

import (
	"image"
	"math"
)

// SampleTexture returns the bilinear texel at (u, v) with repeat wrapping.
// V grows downwards, as in glTF.
func SampleTexture(tex *image.NRGBA, u, v float64) (r, g, b, a uint8) {
	w, h := tex.Rect.Dx(), tex.Rect.Dy()
	if w == 0 || h == 0 {
		return 0, 0, 0, 0
	}

	fx := (u - math.Floor(u)) * float64(w-1)
	fy := (v - math.Floor(v)) * float64(h-1)
	x0, y0 := int(fx), int(fy)
	tx, ty := fx-float64(x0), fy-float64(y0)

	taps := [4]struct {
		off    int
		weight float64
	}{
		{y0*tex.Stride + x0*4, (1 - tx) * (1 - ty)},
		{y0*tex.Stride + (x0+1)%w*4, tx * (1 - ty)},
		{(y0+1)%h*tex.Stride + x0*4, (1 - tx) * ty},
		{(y0+1)%h*tex.Stride + (x0+1)%w*4, tx * ty},
	}
	var acc [4]float64
	for _, t := range taps {
		px := tex.Pix[t.off : t.off+4 : t.off+4]
		for c := range acc {
			acc[c] += float64(px[c]) * t.weight
		}
	}
	return uint8(acc[0] + 0.5), uint8(acc[1] + 0.5), uint8(acc[2] + 0.5), uint8(acc[3] + 0.5)
}
