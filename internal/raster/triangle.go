package raster

import (
	"image"
	"math"

	"handsynth/internal/mathutil"
)

// Vertex is one triangle corner after projection.
type Vertex struct {
	// Screen is pixel x, pixel y and depth (larger is nearer).
	Screen mathutil.Vec3
	World  mathutil.Vec3
	Normal mathutil.Vec3
	UV     [2]float64
}

// RasterizeTriangle rasterizes a single triangle with texture mapping,
// z-buffer, sRGB color space, Gouraud lighting and ACES tone mapping.
//
// Lighting is evaluated per vertex and interpolated; the inner loop does not
// allocate.
func RasterizeTriangle(
	fb *FrameBuffer,
	tri *[3]Vertex,
	tex *image.NRGBA,
	defaultR, defaultG, defaultB uint8,
	lc *LightConfig,
) {
	x0, y0, z0 := tri[0].Screen[0], tri[0].Screen[1], tri[0].Screen[2]
	x1, y1, z1 := tri[1].Screen[0], tri[1].Screen[1], tri[1].Screen[2]
	x2, y2, z2 := tri[2].Screen[0], tri[2].Screen[1], tri[2].Screen[2]

	var shade [3]mathutil.Vec3
	for i := range tri {
		n := tri[i].Normal
		if n.Len() < 1e-8 {
			n = faceNormal(tri)
		}
		shade[i] = lc.ComputeShade(tri[i].World, n)
	}

	// Bounding box
	minX := int(math.Floor(math.Min(math.Min(x0, x1), x2)))
	maxX := int(math.Ceil(math.Max(math.Max(x0, x1), x2)))
	minY := int(math.Floor(math.Min(math.Min(y0, y1), y2)))
	maxY := int(math.Ceil(math.Max(math.Max(y0, y1), y2)))

	if minX < 0 {
		minX = 0
	}
	if maxX >= fb.Width {
		maxX = fb.Width - 1
	}
	if minY < 0 {
		minY = 0
	}
	if maxY >= fb.Height {
		maxY = fb.Height - 1
	}
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (y1-y2)*(x0-x2) + (x2-x1)*(y0-y2)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det

	// Precompute edge deltas
	dy12 := y1 - y2
	dx21 := x2 - x1
	dy20 := y2 - y0
	dx02 := x0 - x2

	tone := lc.SkinTone
	exposure := lc.Exposure
	invGamma := lc.InvGamma

	// Pixel loop, sampled at pixel centres
	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) + 0.5 - y2
		rowOff := sy * fb.Width
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) + 0.5 - x2
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1

			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*z0 + w1*z1 + w2*z2
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			cr, cg, cb, ca := defaultR, defaultG, defaultB, uint8(255)
			if tex != nil {
				u := w0*tri[0].UV[0] + w1*tri[1].UV[0] + w2*tri[2].UV[0]
				v := w0*tri[0].UV[1] + w1*tri[1].UV[1] + w2*tri[2].UV[1]
				cr, cg, cb, ca = SampleTexture(tex, u, v)
			}

			// Skip transparent texels
			if ca < 8 {
				continue
			}
			fb.ZBuf[zIdx] = z

			sr := w0*shade[0][0] + w1*shade[1][0] + w2*shade[2][0]
			sg := w0*shade[0][1] + w1*shade[1][1] + w2*shade[2][1]
			sb := w0*shade[0][2] + w1*shade[1][2] + w2*shade[2][2]

			// sRGB decode → linear (LUT), tone, shade, tonemap, encode
			tr := ACESTonemap(srgbToLinear[cr] * tone * sr * exposure)
			tg := ACESTonemap(srgbToLinear[cg] * tone * sg * exposure)
			tb := ACESTonemap(srgbToLinear[cb] * tone * sb * exposure)

			pxIdx := zIdx * 4
			fb.Color[pxIdx] = clamp255(math.Pow(tr, invGamma) * 255)
			fb.Color[pxIdx+1] = clamp255(math.Pow(tg, invGamma) * 255)
			fb.Color[pxIdx+2] = clamp255(math.Pow(tb, invGamma) * 255)
			fb.Color[pxIdx+3] = ca
		}
	}
}

func faceNormal(tri *[3]Vertex) mathutil.Vec3 {
	e1 := tri[1].World.Sub(tri[0].World)
	e2 := tri[2].World.Sub(tri[0].World)
	return e1.Cross(e2).Normalize()
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
