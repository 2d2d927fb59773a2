// Package raster is a CPU z-buffer renderer for the posed hand.
package raster

import (
	"fmt"
	"image"

	"github.com/lucasb-eyer/go-colorful"

	"handsynth/internal/camera"
	"handsynth/internal/mathutil"
	"handsynth/internal/rig"
)

// SkinColor is used for meshes without a base colour texture.
var SkinColor = colorful.Color{R: 0.87, G: 0.67, B: 0.55}

// Mesh is a posed mesh ready to draw.
type Mesh struct {
	Skinned *rig.Skinned
	Indices []uint32
	UVs     [][2]float64
	Texture *image.NRGBA
}

// MeshFromRig pairs a skinned mesh with its source topology and texture.
func MeshFromRig(src *rig.Mesh, s *rig.Skinned, tex *image.NRGBA) Mesh {
	uvs := make([][2]float64, len(src.Vertices))
	for i := range src.Vertices {
		uvs[i] = src.Vertices[i].UV
	}
	return Mesh{Skinned: s, Indices: src.Indices, UVs: uvs, Texture: tex}
}

// Scene is everything needed to draw one frame.
type Scene struct {
	Meshes      []Mesh
	Camera      camera.Camera
	Light       LightConfig
	Supersample int
}

// Render draws the scene on a transparent canvas Supersample times the
// camera resolution. Triangles with a corner outside the clip volume are
// dropped.
func Render(sc *Scene) (*image.NRGBA, error) {
	ss := sc.Supersample
	if ss < 1 {
		ss = 1
	}
	w, h := sc.Camera.Width*ss, sc.Camera.Height*ss
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("raster: invalid canvas %dx%d", w, h)
	}

	fb := NewFrameBuffer(w, h)
	vp := sc.Camera.ViewProjection()
	lc := sc.Light
	dr, dg, db := SkinColor.RGB255()

	for mi, m := range sc.Meshes {
		if m.Skinned == nil {
			return nil, fmt.Errorf("raster: mesh %d not skinned", mi)
		}
		n := len(m.Skinned.Positions)
		screen := make([]mathutil.Vec3, n)
		visible := make([]bool, n)
		for i, p := range m.Skinned.Positions {
			c := vp.MulVec4(p.Point())
			if c[3] <= 1e-9 {
				continue
			}
			nx, ny, nz := c[0]/c[3], c[1]/c[3], c[2]/c[3]
			if nz < -1 || nz > 1 {
				continue
			}
			screen[i] = mathutil.Vec3{(nx + 1) / 2 * float64(w), (1 - ny) / 2 * float64(h), -nz}
			visible[i] = true
		}

		for t := 0; t+2 < len(m.Indices); t += 3 {
			var tri [3]Vertex
			ok := true
			for k := 0; k < 3; k++ {
				vi := int(m.Indices[t+k])
				if vi >= n || !visible[vi] {
					ok = false
					break
				}
				tri[k] = Vertex{
					Screen: screen[vi],
					World:  m.Skinned.Positions[vi],
					Normal: m.Skinned.Normals[vi],
				}
				if vi < len(m.UVs) {
					tri[k].UV = m.UVs[vi]
				}
			}
			if !ok {
				continue
			}
			RasterizeTriangle(fb, &tri, m.Texture, dr, dg, db, &lc)
		}
	}
	return fb.Image(), nil
}
