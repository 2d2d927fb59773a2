// Package skin binds mesh vertices to bones and blends bone transforms
// (linear blend skinning).
package skin

import "handsynth/internal/mathutil"

// MaxInfluences is the number of bone slots per vertex.
const MaxInfluences = 4

// Influence is one bone slot. Bone is -1 and Weight is 0 when unused.
type Influence struct {
	Bone   int
	Weight float64
}

// Influences is the fixed-size slot array of a vertex. Slot order carries
// no meaning and weights are not normalised.
type Influences [MaxInfluences]Influence

// Vertex holds bind-pose attributes and bone slots.
type Vertex struct {
	Position  mathutil.Vec3
	Normal    mathutil.Vec3
	Tangent   mathutil.Vec3
	Bitangent mathutil.Vec3
	UV        [2]float64
	Color     mathutil.Vec3

	Influences Influences
}

// EmptyInfluences returns slots with no bone bound.
func EmptyInfluences() Influences {
	var in Influences
	for i := range in {
		in[i] = Influence{Bone: -1}
	}
	return in
}

// NewVertex returns a vertex at pos with default attributes and empty slots.
func NewVertex(pos mathutil.Vec3) Vertex {
	return Vertex{
		Position:   pos,
		Normal:     mathutil.Vec3{1, 1, 1},
		Tangent:    mathutil.Vec3{0, 1, 0},
		Bitangent:  mathutil.Vec3{1, 0, 0},
		Color:      mathutil.Vec3{0, 0, 1},
		Influences: EmptyInfluences(),
	}
}

// Bound returns the slots that carry a bone.
func (in Influences) Bound() []Influence {
	out := make([]Influence, 0, MaxInfluences)
	for _, s := range in {
		if s.Bone >= 0 {
			out = append(out, s)
		}
	}
	return out
}

// TotalWeight sums the weights of bound slots.
func (in Influences) TotalWeight() float64 {
	var w float64
	for _, s := range in {
		if s.Bone >= 0 {
			w += s.Weight
		}
	}
	return w
}
