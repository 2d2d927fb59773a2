// Package camera holds the perspective camera and projects world points to
// pixel annotations.
package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"handsynth/internal/mathutil"
)

// Camera is a pinhole camera looking along Direction.
type Camera struct {
	Position  mathutil.Vec3 `yaml:"position,flow"`
	Direction mathutil.Vec3 `yaml:"direction,flow"`
	Up        mathutil.Vec3 `yaml:"up,flow"`
	FovY      float64       `yaml:"fov"`
	Near      float64       `yaml:"near"`
	Far       float64       `yaml:"far"`
	Width     int           `yaml:"width"`
	Height    int           `yaml:"height"`
}

// Default is the dataset camera: 1.5 units in front of the origin, slightly
// raised, 224x224.
func Default() Camera {
	return Camera{
		Position:  mathutil.Vec3{0, 0.3, 1.5},
		Direction: mathutil.Vec3{0, 0, -1},
		Up:        mathutil.Vec3{0, 1, 0},
		FovY:      45,
		Near:      0.1,
		Far:       100,
		Width:     224,
		Height:    224,
	}
}

func toMGL(v mathutil.Vec3) mgl64.Vec3 { return mgl64.Vec3{v[0], v[1], v[2]} }

func fromMGL(m mgl64.Mat4) mathutil.Mat4 {
	// mgl64 is column-major.
	var out mathutil.Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			out[r*4+c] = m.At(r, c)
		}
	}
	return out
}

// View returns the world-to-camera matrix.
func (c Camera) View() mathutil.Mat4 {
	eye := toMGL(c.Position)
	return fromMGL(mgl64.LookAtV(eye, eye.Add(toMGL(c.Direction)), toMGL(c.Up)))
}

// Projection returns the perspective projection.
func (c Camera) Projection() mathutil.Mat4 {
	aspect := float64(c.Width) / float64(c.Height)
	return fromMGL(mgl64.Perspective(mgl64.DegToRad(c.FovY), aspect, c.Near, c.Far))
}

// ViewProjection returns Projection × View.
func (c Camera) ViewProjection() mathutil.Mat4 {
	return mathutil.Mat4Mul(c.Projection(), c.View())
}

// Annotation is a keypoint in pixel coordinates; Z is always 1.
type Annotation [3]float64

// Projector maps world points to pixels for a fixed camera.
type Projector struct {
	vp     mathutil.Mat4
	width  float64
	height float64
}

// Projector returns a projector for c.
func (c Camera) Projector() Projector {
	return Projector{vp: c.ViewProjection(), width: float64(c.Width), height: float64(c.Height)}
}

// NDC returns the normalised device coordinates of p and its clip w.
func (pr Projector) NDC(p mathutil.Vec3) (mathutil.Vec3, float64) {
	h := pr.vp.MulVec4(p.Point())
	return mathutil.Vec3{h[0] / h[3], h[1] / h[3], h[2] / h[3]}, h[3]
}

// Annotate converts p to pixel coordinates with the origin at the top left.
func (pr Projector) Annotate(p mathutil.Vec3) Annotation {
	ndc, _ := pr.NDC(p)
	return Annotation{
		(ndc[0] + 1) / 2 * pr.width,
		(-ndc[1] + 1) / 2 * pr.height,
		1,
	}
}

// AnnotateAll annotates each point.
func (pr Projector) AnnotateAll(ps []mathutil.Vec3) []Annotation {
	out := make([]Annotation, len(ps))
	for i, p := range ps {
		out[i] = pr.Annotate(p)
	}
	return out
}

// Intrinsics is the K matrix written alongside each frame. The dataset
// stores pixel coordinates directly, so K is the identity.
func Intrinsics() [3][3]float64 {
	return [3][3]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
}
