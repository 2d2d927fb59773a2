package skin

import (
	"fmt"

	"handsynth/internal/skeleton"
)

// Strategy decides which bones keep a slot when more than MaxInfluences
// bones weigh on one vertex. Influences arrive one at a time.
type Strategy interface {
	Bind(in *Influences, bone int, weight float64)
	Name() string
}

// GreedyMin replaces the first lowest-weight slot when the new weight is
// strictly larger. This is the behaviour the shipped hand was rigged with;
// when weights tie, arrival order decides which bone survives.
type GreedyMin struct{}

func (GreedyMin) Name() string { return "greedy" }

func (GreedyMin) Bind(in *Influences, bone int, weight float64) {
	lowest := 0
	for k := 1; k < MaxInfluences; k++ {
		if in[k].Weight < in[lowest].Weight {
			lowest = k
		}
	}
	if in[lowest].Weight < weight {
		in[lowest] = Influence{Bone: bone, Weight: weight}
	}
}

// TopWeights keeps the MaxInfluences heaviest bones regardless of arrival
// order. Ties go to the lower bone id; empty slots are filled first.
type TopWeights struct{}

func (TopWeights) Name() string { return "top" }

func (TopWeights) Bind(in *Influences, bone int, weight float64) {
	if weight <= 0 {
		return
	}
	victim := -1
	for k := 0; k < MaxInfluences; k++ {
		if in[k].Bone < 0 {
			victim = k
			break
		}
		if victim < 0 || weaker(in[k], in[victim]) {
			victim = k
		}
	}
	cand := Influence{Bone: bone, Weight: weight}
	if in[victim].Bone < 0 || weaker(in[victim], cand) {
		in[victim] = cand
	}
}

// weaker reports whether a ranks below b.
func weaker(a, b Influence) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	return a.Bone > b.Bone
}

// StrategyByName returns "greedy" (default) or "top".
func StrategyByName(name string) (Strategy, error) {
	switch name {
	case "", "greedy":
		return GreedyMin{}, nil
	case "top":
		return TopWeights{}, nil
	}
	return nil, fmt.Errorf("skin: unknown influence strategy %q", name)
}

// BindInfluence offers (bone, weight) to v with the default strategy.
func BindInfluence(v *Vertex, bone int, weight float64) {
	GreedyMin{}.Bind(&v.Influences, bone, weight)
}

// VertexWeight is one entry of a bone's weight list.
type VertexWeight struct {
	Vertex int
	Weight float64
}

// BoneWeights lists the vertices one bone influences.
type BoneWeights struct {
	Bone    int
	Weights []VertexWeight
}

// Bind offers every assignment to its vertex, bone by bone in the given
// order. The slice is updated in place.
func Bind(vertices []Vertex, assignments []BoneWeights, s Strategy) error {
	if s == nil {
		s = GreedyMin{}
	}
	for _, a := range assignments {
		for _, vw := range a.Weights {
			if vw.Vertex < 0 || vw.Vertex >= len(vertices) {
				return fmt.Errorf("skin: bind bone %d: %w", a.Bone, &skeleton.LookupError{Kind: "vertex", ID: vw.Vertex})
			}
			s.Bind(&vertices[vw.Vertex].Influences, a.Bone, vw.Weight)
		}
	}
	return nil
}
