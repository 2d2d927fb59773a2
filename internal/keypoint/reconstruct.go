package keypoint

import (
	"fmt"

	"handsynth/internal/mathutil"
	"handsynth/internal/skeleton"
	"handsynth/internal/skin"
)

// Reconstructor turns a posed skeleton and the reference mesh into the 21
// keypoints.
type Reconstructor struct {
	Table Table
}

// NewReconstructor returns a reconstructor for the given calibration.
func NewReconstructor(t Table) (*Reconstructor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &Reconstructor{Table: t}, nil
}

// Default returns a reconstructor using DefaultTable.
func Default() *Reconstructor {
	return &Reconstructor{Table: DefaultTable()}
}

// Compute returns the keypoints in world space. For each keypoint the bone's
// joint centre in bind space is offset by the fingertip correction, skinned
// with the reference vertex's influences, then moved by model. The first
// lookup failure aborts; no partial result is returned.
func (r *Reconstructor) Compute(sk *skeleton.Skeleton, vertices []skin.Vertex, model mathutil.Mat4) ([Count]mathutil.Vec3, error) {
	var out [Count]mathutil.Vec3
	for i, s := range r.Table {
		p, err := r.point(sk, vertices, s)
		if err != nil {
			return [Count]mathutil.Vec3{}, fmt.Errorf("keypoint: %s: %w", Name(i), err)
		}
		out[i] = model.MulPoint(p)
	}
	return out, nil
}

func (r *Reconstructor) point(sk *skeleton.Skeleton, vertices []skin.Vertex, s Spec) (mathutil.Vec3, error) {
	b, err := sk.Bone(s.Bone)
	if err != nil {
		return mathutil.Vec3{}, err
	}
	if s.Vertex < 0 || s.Vertex >= len(vertices) {
		return mathutil.Vec3{}, &skeleton.LookupError{Kind: "vertex", ID: s.Vertex}
	}
	p := b.JointCenter().Add(s.Correction)
	return skin.SkinPoint(p, vertices[s.Vertex].Influences, sk)
}
