package skeleton

import (
	"fmt"

	"handsynth/internal/mathutil"
)

// Skeleton is an arena of bones addressed by id, with a name index.
// It is not safe for concurrent mutation; clone it per goroutine.
type Skeleton struct {
	bones  []Bone
	byName map[string]int
	linked bool
}

// New creates unlinked bones from defs. Ids follow the order of defs.
func New(defs []BoneDef) (*Skeleton, error) {
	s := &Skeleton{
		bones:  make([]Bone, len(defs)),
		byName: make(map[string]int, len(defs)),
	}
	for i, d := range defs {
		if d.Name == "" {
			return nil, &StructuralError{Reason: fmt.Sprintf("bone %d has no name", i)}
		}
		if _, dup := s.byName[d.Name]; dup {
			return nil, &StructuralError{Bone: d.Name, Reason: "duplicate bone name"}
		}
		inv, err := d.Offset.Inverse()
		if err != nil {
			return nil, &StructuralError{Bone: d.Name, Reason: "offset matrix is not invertible"}
		}
		s.bones[i] = Bone{
			ID:            i,
			Name:          d.Name,
			Offset:        d.Offset,
			OffsetInverse: inv,
			Transform:     mathutil.Mat4Identity(),
			Parent:        -1,
		}
		s.byName[d.Name] = i
	}
	return s, nil
}

// Build creates the bones and links them using the hierarchy rooted at root.
// On error no skeleton is returned.
func Build(defs []BoneDef, root *Node) (*Skeleton, error) {
	s, err := New(defs)
	if err != nil {
		return nil, err
	}
	if err := s.Link(root); err != nil {
		return nil, err
	}
	return s, nil
}

// Link walks the node tree and connects every parent/child pair whose names
// both resolve to bones. Non-bone nodes are skipped, but the walk continues
// through them. Linking happens once; later calls are no-ops.
func (s *Skeleton) Link(root *Node) error {
	if s.linked {
		return nil
	}

	parents := make([]int, len(s.bones))
	for i := range parents {
		parents[i] = -1
	}
	children := make([][]int, len(s.bones))
	visited := make(map[*Node]bool)

	if root != nil {
		if err := s.walk(root, nil, parents, children, visited); err != nil {
			return err
		}
	}

	// The name walk can still close a loop when names repeat in the tree.
	for i := range s.bones {
		cur := i
		for steps := 0; parents[cur] >= 0; steps++ {
			if steps > len(s.bones) {
				return &StructuralError{Bone: s.bones[i].Name, Reason: "bone hierarchy contains a cycle"}
			}
			cur = parents[cur]
		}
	}

	for i := range s.bones {
		s.bones[i].Parent = parents[i]
		s.bones[i].Children = children[i]
	}
	s.linked = true
	return nil
}

func (s *Skeleton) walk(node, parent *Node, parents []int, children [][]int, visited map[*Node]bool) error {
	if visited[node] {
		return &StructuralError{Bone: node.Name, Reason: "node reached twice while walking the hierarchy"}
	}
	visited[node] = true

	if parent != nil {
		c, cok := s.byName[node.Name]
		p, pok := s.byName[parent.Name]
		if cok && pok {
			switch {
			case c == p:
				return &StructuralError{Bone: node.Name, Reason: "bone is its own parent"}
			case parents[c] == -1:
				parents[c] = p
				children[p] = append(children[p], c)
			case parents[c] != p:
				return &StructuralError{Bone: node.Name, Reason: fmt.Sprintf("bone has two parents %q and %q",
					s.bones[parents[c]].Name, parent.Name)}
			}
		}
	}

	for _, child := range node.Children {
		if child == nil {
			continue
		}
		if err := s.walk(child, node, parents, children, visited); err != nil {
			return err
		}
	}
	return nil
}

// Linked reports whether the hierarchy has been built.
func (s *Skeleton) Linked() bool { return s.linked }

// Len returns the number of bones.
func (s *Skeleton) Len() int { return len(s.bones) }

// Lookup resolves a bone name to its id.
func (s *Skeleton) Lookup(name string) (int, error) {
	id, ok := s.byName[name]
	if !ok {
		return -1, &LookupError{Kind: "bone", Name: name}
	}
	return id, nil
}

// Bone returns a copy of the bone with the given id.
func (s *Skeleton) Bone(id int) (Bone, error) {
	if err := s.check(id); err != nil {
		return Bone{}, err
	}
	b := s.bones[id]
	b.Children = append([]int(nil), b.Children...)
	return b, nil
}

// Transform returns the accumulated transform of bone id.
func (s *Skeleton) Transform(id int) (mathutil.Mat4, error) {
	if err := s.check(id); err != nil {
		return mathutil.Mat4{}, err
	}
	return s.bones[id].Transform, nil
}

// Names returns bone names in id order.
func (s *Skeleton) Names() []string {
	names := make([]string, len(s.bones))
	for i := range s.bones {
		names[i] = s.bones[i].Name
	}
	return names
}

// Roots returns the ids of bones without a parent.
func (s *Skeleton) Roots() []int {
	var roots []int
	for i := range s.bones {
		if s.bones[i].Parent < 0 {
			roots = append(roots, i)
		}
	}
	return roots
}

// Rotate rotates the named bone about axis by angleDeg degrees.
func (s *Skeleton) Rotate(name string, axis mathutil.Vec3, angleDeg float64) error {
	id, err := s.Lookup(name)
	if err != nil {
		return err
	}
	return s.RotateBone(id, axis, angleDeg)
}

// RotateBone rotates bone id around its own joint and carries the same
// joint-space rotation down to every descendant.
//
// The originating bone right-multiplies (T = T × Rj) while descendants
// left-multiply (T = Rj × T). Swapping either changes whether a parent's
// rotation lands before or after a child's own rotation.
func (s *Skeleton) RotateBone(id int, axis mathutil.Vec3, angleDeg float64) error {
	if err := s.check(id); err != nil {
		return err
	}
	if axis.Len() < 1e-12 {
		return fmt.Errorf("skeleton: rotate %s: %w", s.bones[id].Name, ErrInvalidAxis)
	}

	b := &s.bones[id]
	r := mathutil.Rotation4(axis, angleDeg)
	joint := mathutil.Mat4Mul(mathutil.Mat4Mul(b.OffsetInverse, r), b.Offset)

	b.Transform = mathutil.Mat4Mul(b.Transform, joint)
	for _, c := range b.Children {
		s.propagate(c, joint)
	}
	return nil
}

// propagate applies m, already in joint space, to id and its subtree.
func (s *Skeleton) propagate(id int, m mathutil.Mat4) {
	b := &s.bones[id]
	b.Transform = mathutil.Mat4Mul(m, b.Transform)
	for _, c := range b.Children {
		s.propagate(c, m)
	}
}

// Reset returns the named bone's transform to identity. Only that bone is
// touched; use ResetAll before posing a new frame.
func (s *Skeleton) Reset(name string) error {
	id, err := s.Lookup(name)
	if err != nil {
		return err
	}
	s.bones[id].Transform = mathutil.Mat4Identity()
	return nil
}

// ResetAll returns every bone to the bind pose.
func (s *Skeleton) ResetAll() {
	for i := range s.bones {
		s.bones[i].Transform = mathutil.Mat4Identity()
	}
}

// Clone returns an independent deep copy.
func (s *Skeleton) Clone() *Skeleton {
	c := &Skeleton{
		bones:  make([]Bone, len(s.bones)),
		byName: make(map[string]int, len(s.byName)),
		linked: s.linked,
	}
	for i, b := range s.bones {
		b.Children = append([]int(nil), b.Children...)
		c.bones[i] = b
	}
	for k, v := range s.byName {
		c.byName[k] = v
	}
	return c
}

func (s *Skeleton) check(id int) error {
	if id < 0 || id >= len(s.bones) {
		return &LookupError{Kind: "bone", ID: id}
	}
	return nil
}
