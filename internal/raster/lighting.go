package raster

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"

	"handsynth/internal/mathutil"
)

// PointLight is a coloured point light; Intensity falls off with distance.
type PointLight struct {
	Position  mathutil.Vec3
	Color     colorful.Color
	Intensity float64
}

// LightConfig holds the per-frame lighting parameters.
type LightConfig struct {
	Light    PointLight
	Eye      mathutil.Vec3
	Ambient  float64
	Diffuse  float64
	SpecInt  float64
	SpecPow  float64
	SkinTone float64
	Exposure float64
	InvGamma float64
}

// DefaultLightConfig returns the neutral lighting: white light at (5,5,5),
// intensity 20, shininess 1, skin tone 1.
func DefaultLightConfig(eye mathutil.Vec3) LightConfig {
	return LightConfig{
		Light: PointLight{
			Position:  mathutil.Vec3{5, 5, 5},
			Color:     colorful.Color{R: 1, G: 1, B: 1},
			Intensity: 20,
		},
		Eye:      eye,
		Ambient:  0.25,
		Diffuse:  1.0,
		SpecInt:  0.3,
		SpecPow:  1,
		SkinTone: 1,
		Exposure: 1.05,
		InvGamma: 1.0 / 2.2,
	}
}

// radiance returns the light reaching p, after distance falloff.
func (lc *LightConfig) radiance(p mathutil.Vec3) float64 {
	d := lc.Light.Position.Sub(p)
	d2 := d.Dot(d)
	if d2 < 1e-6 {
		d2 = 1e-6
	}
	return math.Min(lc.Light.Intensity/d2, 4)
}

// ComputeShade returns the linear RGB lighting factor at a surface point.
// Normals facing away from the eye are flipped, so meshes are double-sided.
func (lc *LightConfig) ComputeShade(p, normal mathutil.Vec3) mathutil.Vec3 {
	view := lc.Eye.Sub(p).Normalize()
	if normal.Dot(view) < 0 {
		normal = normal.Scale(-1)
	}
	l := lc.Light.Position.Sub(p).Normalize()

	ndl := math.Max(normal.Dot(l), 0)
	spec := 0.0
	if ndl > 0 {
		// Blinn-Phong specular
		h := l.Add(view).Normalize()
		spec = math.Pow(math.Max(normal.Dot(h), 0), lc.SpecPow) * lc.SpecInt
	}

	direct := lc.radiance(p) * (ndl*lc.Diffuse + spec)
	lr, lg, lb := lc.Light.Color.LinearRgb()
	return mathutil.Vec3{
		lc.Ambient + direct*lr,
		lc.Ambient + direct*lg,
		lc.Ambient + direct*lb,
	}
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}
