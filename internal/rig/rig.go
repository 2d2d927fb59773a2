package rig

import (
	"errors"
	"fmt"
	"math"

	"handsynth/internal/keypoint"
	"handsynth/internal/mathutil"
	"handsynth/internal/skeleton"
	"handsynth/internal/skin"
)

// ErrNoVertices is returned by BindBounds for a rig without geometry.
var ErrNoVertices = errors.New("rig: no vertices")

// Rig is a set of meshes sharing one skeleton, positioned in the world by a
// single model transform. A Rig is owned by one goroutine at a time; use
// Clone for workers.
type Rig struct {
	skel   *skeleton.Skeleton
	meshes []*Mesh
	model  mathutil.Mat4

	// keypointMesh is the mesh whose vertices the keypoint calibration
	// refers to.
	keypointMesh int
}

// New creates a rig from a linked skeleton and its meshes.
func New(sk *skeleton.Skeleton, meshes []*Mesh) (*Rig, error) {
	if sk == nil {
		return nil, fmt.Errorf("rig: nil skeleton")
	}
	if !sk.Linked() {
		return nil, fmt.Errorf("rig: skeleton is not linked")
	}
	for _, m := range meshes {
		for name, id := range m.Bones {
			got, err := sk.Lookup(name)
			if err != nil {
				return nil, fmt.Errorf("rig: mesh %s: %w", m.Name, err)
			}
			if got != id {
				return nil, fmt.Errorf("rig: mesh %s: bone %s maps to %d, skeleton has %d", m.Name, name, id, got)
			}
		}
	}
	return &Rig{skel: sk, meshes: meshes, model: mathutil.Mat4Identity()}, nil
}

// Skeleton returns the rig's skeleton.
func (r *Rig) Skeleton() *skeleton.Skeleton { return r.skel }

// Meshes returns the rig's meshes.
func (r *Rig) Meshes() []*Mesh { return r.meshes }

// BoneMap returns the union of the meshes' bone maps.
func (r *Rig) BoneMap() map[string]int {
	out := make(map[string]int)
	for _, m := range r.meshes {
		for k, v := range m.Bones {
			out[k] = v
		}
	}
	return out
}

// SetKeypointMesh selects the mesh the keypoint calibration refers to.
func (r *Rig) SetKeypointMesh(i int) error {
	if i < 0 || i >= len(r.meshes) {
		return fmt.Errorf("rig: keypoint mesh %d out of range [0,%d)", i, len(r.meshes))
	}
	r.keypointMesh = i
	return nil
}

// KeypointMesh returns the index of the keypoint reference mesh.
func (r *Rig) KeypointMesh() int { return r.keypointMesh }

// Rotate rotates the named bone about its joint.
func (r *Rig) Rotate(name string, axis mathutil.Vec3, angleDeg float64) error {
	return r.skel.Rotate(name, axis, angleDeg)
}

// ResetBones returns every bone to the bind pose.
func (r *Rig) ResetBones() { r.skel.ResetAll() }

// ModelTransform returns the current model transform.
func (r *Rig) ModelTransform() mathutil.Mat4 { return r.model }

// SetModelTransform replaces the model transform.
func (r *Rig) SetModelTransform(m mathutil.Mat4) { r.model = m }

// ResetTransform sets the model transform to identity.
func (r *Rig) ResetTransform() { r.model = mathutil.Mat4Identity() }

// Translate, Scale and RotateModel left-multiply the model transform, so
// each call acts after the ones before it.
func (r *Rig) Translate(t mathutil.Vec3) {
	r.model = mathutil.Mat4Mul(mathutil.Translation(t), r.model)
}

func (r *Rig) Scale(s mathutil.Vec3) {
	r.model = mathutil.Mat4Mul(mathutil.Scaling(s), r.model)
}

func (r *Rig) RotateModel(axis mathutil.Vec3, angleDeg float64) {
	r.model = mathutil.Mat4Mul(mathutil.Rotation4(axis, angleDeg), r.model)
}

// Keypoints reconstructs the 21 keypoints in world space.
func (r *Rig) Keypoints(rc *keypoint.Reconstructor) ([keypoint.Count]mathutil.Vec3, error) {
	if len(r.meshes) == 0 {
		return [keypoint.Count]mathutil.Vec3{}, fmt.Errorf("rig: keypoints: %w", ErrNoVertices)
	}
	return rc.Compute(r.skel, r.meshes[r.keypointMesh].Vertices, r.model)
}

// SkinnedMesh deforms mesh i by the current pose and model transform.
func (r *Rig) SkinnedMesh(i int) (*Skinned, error) {
	if i < 0 || i >= len(r.meshes) {
		return nil, fmt.Errorf("rig: mesh %d out of range [0,%d)", i, len(r.meshes))
	}
	m := r.meshes[i]
	out := &Skinned{
		Positions: make([]mathutil.Vec3, len(m.Vertices)),
		Normals:   make([]mathutil.Vec3, len(m.Vertices)),
	}
	for vi := range m.Vertices {
		v := &m.Vertices[vi]
		p, err := skin.Position(v, r.skel)
		if err != nil {
			return nil, fmt.Errorf("rig: skin %s vertex %d: %w", m.Name, vi, err)
		}
		n, err := skin.Normal(v, r.skel)
		if err != nil {
			return nil, fmt.Errorf("rig: skin %s vertex %d: %w", m.Name, vi, err)
		}
		out.Positions[vi] = r.model.MulPoint(p)
		out.Normals[vi] = r.model.MulDir(n).Normalize()
	}
	return out, nil
}

// BindBounds returns the axis-aligned bounds of all bind-pose vertices.
func (r *Rig) BindBounds() (lo, hi mathutil.Vec3, err error) {
	lo = mathutil.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mathutil.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	n := 0
	for _, m := range r.meshes {
		for _, v := range m.Vertices {
			for k := 0; k < 3; k++ {
				lo[k] = math.Min(lo[k], v.Position[k])
				hi[k] = math.Max(hi[k], v.Position[k])
			}
			n++
		}
	}
	if n == 0 {
		return mathutil.Vec3{}, mathutil.Vec3{}, ErrNoVertices
	}
	return lo, hi, nil
}

// Normalize resets the model transform, centres the bind bounds on the
// origin and scales the largest extent to 1.
func (r *Rig) Normalize() error {
	lo, hi, err := r.BindBounds()
	if err != nil {
		return err
	}
	size := hi.Sub(lo)
	extent := math.Max(size[0], math.Max(size[1], size[2]))
	r.ResetTransform()
	r.Translate(lo.Add(hi).Scale(-0.5))
	if extent > 0 {
		r.Scale(mathutil.Vec3{1 / extent, 1 / extent, 1 / extent})
	}
	return nil
}

// Clone returns a rig with its own skeleton and model transform. Meshes are
// shared; they are read-only.
func (r *Rig) Clone() *Rig {
	return &Rig{
		skel:         r.skel.Clone(),
		meshes:       r.meshes,
		model:        r.model,
		keypointMesh: r.keypointMesh,
	}
}
