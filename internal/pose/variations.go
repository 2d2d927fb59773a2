// Package pose samples per-frame scene parameters from seeded variation
// pools and applies them to a rig.
package pose

import (
	"math/rand/v2"

	"handsynth/internal/mathutil"
)

// NumJoints is the number of articulated bones driven per frame.
const NumJoints = 16

// DefaultJointNames are the articulated bones of the shipped hand model,
// wrist first, then thumb, index, middle, ring and pinky, proximal to distal.
var DefaultJointNames = []string{
	"Bone037",
	"Bone038", "Bone039", "Bone040",
	"Bone043", "Bone044", "Bone045",
	"Bone048", "Bone049", "Bone050",
	"Bone053", "Bone054", "Bone055",
	"Bone058", "Bone059", "Bone060",
}

// MaxBackground is the highest background image number.
const MaxBackground = 14042

// Sampling ranges in degrees, except where noted.
var (
	FingerFlexion   = Range{-5, 90}
	FingerAbduction = Range{-10, 10}
	ThumbFlexion    = Range{-80, 10}
	ThumbAbduction  = Range{-30, 30}
	WristFlexion    = Range{-90, 90}
	WristAbduction  = Range{-30, 30}
	WristPronation  = Range{-60, 60}

	// Arm position in normalised model units.
	ArmX = Range{-0.3, 0.3}
	ArmY = Range{-0.3, 0.5}
	ArmZ = Range{-0.4, 0.4}

	ArmAngle       = Range{-90, 90}
	SkinTone       = Range{0.05, 2}
	LightPosition  = Range{-5, 5}
	LightIntensity = Range{5, 40}
	Shininess      = Range{1, 50}
)

// Range is a closed-open interval for uniform sampling.
type Range struct{ Min, Max float64 }

func (r Range) sample(rng *rand.Rand) float64 {
	return r.Min + rng.Float64()*(r.Max-r.Min)
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool { return v >= r.Min && v <= r.Max }

// JointAngles holds X, Y, Z rotations in degrees for each articulated bone.
type JointAngles [NumJoints]mathutil.Vec3

// Light is a white point light.
type Light struct {
	Position  mathutil.Vec3 `json:"position"`
	Color     mathutil.Vec3 `json:"color"`
	Intensity float64       `json:"intensity"`
}

// NeutralLight is the light of pool element 0.
var NeutralLight = Light{Position: mathutil.Vec3{5, 5, 5}, Color: mathutil.Vec3{1, 1, 1}, Intensity: 20}

// Counts sets the size of each variation pool.
type Counts struct {
	JointAngles  int `yaml:"joint_angles" json:"joint_angles"`
	ArmPositions int `yaml:"arm_positions" json:"arm_positions"`
	ArmRotations int `yaml:"arm_rotations" json:"arm_rotations"`
	SkinTones    int `yaml:"skin_tones" json:"skin_tones"`
	Lights       int `yaml:"lights" json:"lights"`
	Shininess    int `yaml:"shininess" json:"shininess"`
	Backgrounds  int `yaml:"backgrounds" json:"backgrounds"`
	CameraParams int `yaml:"camera_params" json:"camera_params"`
}

// Variations are the pools frames draw from. Element 0 of every pool except
// Backgrounds is the neutral configuration.
type Variations struct {
	Joints       []JointAngles
	ArmPositions []mathutil.Vec3
	ArmRotations []mathutil.Vec3
	SkinTones    []float64
	Lights       []Light
	Shininess    []float64
	// Backgrounds holds image numbers; empty when fewer than two were
	// requested, in which case frames have no background.
	Backgrounds []int
}

// NewVariations fills the pools deterministically from seed. Counts below 1
// are treated as 1.
func NewVariations(c Counts, seed uint64) *Variations {
	rng := rand.New(rand.NewPCG(seed, 0x9e3779b97f4a7c15))
	v := &Variations{
		Joints:       []JointAngles{{}},
		ArmPositions: []mathutil.Vec3{{}},
		ArmRotations: []mathutil.Vec3{{}},
		SkinTones:    []float64{1},
		Lights:       []Light{NeutralLight},
		Shininess:    []float64{1},
	}
	for i := 1; i < c.JointAngles; i++ {
		v.Joints = append(v.Joints, sampleJoints(rng))
	}
	for i := 1; i < c.ArmPositions; i++ {
		v.ArmPositions = append(v.ArmPositions, mathutil.Vec3{ArmX.sample(rng), ArmY.sample(rng), ArmZ.sample(rng)})
	}
	for i := 1; i < c.ArmRotations; i++ {
		v.ArmRotations = append(v.ArmRotations, mathutil.Vec3{ArmAngle.sample(rng), ArmAngle.sample(rng), ArmAngle.sample(rng)})
	}
	for i := 1; i < c.SkinTones; i++ {
		v.SkinTones = append(v.SkinTones, SkinTone.sample(rng))
	}
	for i := 1; i < c.Lights; i++ {
		pos := mathutil.Vec3{LightPosition.sample(rng), LightPosition.sample(rng), LightPosition.sample(rng)}
		v.Lights = append(v.Lights, Light{Position: pos, Color: mathutil.Vec3{1, 1, 1}, Intensity: LightIntensity.sample(rng)})
	}
	for i := 1; i < c.Shininess; i++ {
		v.Shininess = append(v.Shininess, Shininess.sample(rng))
	}
	if c.Backgrounds > 1 {
		for i := 0; i < c.Backgrounds; i++ {
			v.Backgrounds = append(v.Backgrounds, rng.IntN(MaxBackground+1))
		}
	}
	return v
}

// sampleJoints draws one hand articulation. Joint 0 is the wrist; 1-3 the
// thumb; 4, 7, 10, 13 the finger bases, which also abduct.
func sampleJoints(rng *rand.Rand) JointAngles {
	var j JointAngles
	j[0] = mathutil.Vec3{WristPronation.sample(rng), WristFlexion.sample(rng), WristAbduction.sample(rng)}
	j[1] = mathutil.Vec3{0, ThumbAbduction.sample(rng), ThumbFlexion.sample(rng) / 2}
	j[2] = mathutil.Vec3{0, 0, ThumbFlexion.sample(rng)}
	j[3] = mathutil.Vec3{0, 0, ThumbFlexion.sample(rng)}
	for i := 4; i < NumJoints; i++ {
		flex := FingerFlexion.sample(rng)
		if (i-4)%3 == 0 {
			j[i] = mathutil.Vec3{0, flex, FingerAbduction.sample(rng)}
		} else {
			j[i] = mathutil.Vec3{0, flex, 0}
		}
	}
	return j
}
