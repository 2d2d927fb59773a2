package pose

import (
	"fmt"
	"math/rand/v2"

	"handsynth/internal/mathutil"
	"handsynth/internal/rig"
)

// Picks records which pool element each parameter came from.
type Picks struct {
	Joints      int `json:"joints"`
	ArmPosition int `json:"arm_position"`
	ArmRotation int `json:"arm_rotation"`
	SkinTone    int `json:"skin_tone"`
	Light       int `json:"light"`
	Shininess   int `json:"shininess"`
	Background  int `json:"background"`
}

// Frame is the full parameter set of one generated image.
type Frame struct {
	Index       int           `json:"index"`
	Picks       Picks         `json:"picks"`
	Joints      JointAngles   `json:"joints"`
	ArmPosition mathutil.Vec3 `json:"arm_position"`
	ArmRotation mathutil.Vec3 `json:"arm_rotation"`
	SkinTone    float64       `json:"skin_tone"`
	Light       Light         `json:"light"`
	Shininess   float64       `json:"shininess"`
	// Background is the image number, or -1 for none.
	Background int `json:"background"`
}

// Sampler draws frames from a set of variations. It is not safe for
// concurrent use; frames are drawn in order so output does not depend on
// how they are rendered.
type Sampler struct {
	v   *Variations
	rng *rand.Rand
}

// NewSampler returns a sampler whose draw sequence is fixed by seed.
func NewSampler(v *Variations, seed uint64) *Sampler {
	return &Sampler{v: v, rng: rand.New(rand.NewPCG(seed, 0xda3e39cb94b95bdb))}
}

// Next draws the parameters of frame index.
func (s *Sampler) Next(index int) Frame {
	var p Picks
	p.ArmRotation = s.rng.IntN(len(s.v.ArmRotations))
	p.ArmPosition = s.rng.IntN(len(s.v.ArmPositions))
	p.Joints = s.rng.IntN(len(s.v.Joints))
	p.Background = -1
	if len(s.v.Backgrounds) > 0 {
		p.Background = s.rng.IntN(len(s.v.Backgrounds))
	}
	p.Light = s.rng.IntN(len(s.v.Lights))
	p.SkinTone = s.rng.IntN(len(s.v.SkinTones))
	p.Shininess = s.rng.IntN(len(s.v.Shininess))

	f := Frame{
		Index:       index,
		Picks:       p,
		Joints:      s.v.Joints[p.Joints],
		ArmPosition: s.v.ArmPositions[p.ArmPosition],
		ArmRotation: s.v.ArmRotations[p.ArmRotation],
		SkinTone:    s.v.SkinTones[p.SkinTone],
		Light:       s.v.Lights[p.Light],
		Shininess:   s.v.Shininess[p.Shininess],
		Background:  -1,
	}
	if p.Background >= 0 {
		f.Background = s.v.Backgrounds[p.Background]
	}
	return f
}

var (
	axisX = mathutil.Vec3{1, 0, 0}
	axisY = mathutil.Vec3{0, 1, 0}
	axisZ = mathutil.Vec3{0, 0, 1}
)

// Apply poses r for frame f. The hand is centred and scaled to unit size,
// turned upright, rotated by the arm rotation about X, Y then Z, and moved to
// the arm position. Bones are then reset and the joints rotated from the
// last name to the first, each about X, Y then Z.
func Apply(r *rig.Rig, f *Frame, joints []string) error {
	if len(joints) != NumJoints {
		return fmt.Errorf("pose: %d joint names, want %d", len(joints), NumJoints)
	}
	if err := r.Normalize(); err != nil {
		return fmt.Errorf("pose: normalise: %w", err)
	}
	r.RotateModel(axisX, -90)
	r.RotateModel(axisX, f.ArmRotation[0])
	r.RotateModel(axisY, f.ArmRotation[1])
	r.RotateModel(axisZ, f.ArmRotation[2])
	r.Translate(f.ArmPosition)

	r.ResetBones()
	for i := len(joints) - 1; i >= 0; i-- {
		a := f.Joints[i]
		for k, axis := range [3]mathutil.Vec3{axisX, axisY, axisZ} {
			if err := r.Rotate(joints[i], axis, a[k]); err != nil {
				return fmt.Errorf("pose: frame %d: %w", f.Index, err)
			}
		}
	}
	return nil
}
