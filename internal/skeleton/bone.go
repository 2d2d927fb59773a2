// Package skeleton holds the hand's bone hierarchy and the per-frame
// rotations accumulated on it.
package skeleton

import "handsynth/internal/mathutil"

// Bone is one node of the skeleton arena. Parent and Children are ids
// into the same arena; Parent is -1 for a root.
type Bone struct {
	ID   int
	Name string

	// Offset maps bind (model) space into bone space.
	Offset        mathutil.Mat4
	OffsetInverse mathutil.Mat4

	// Transform is the net rotation applied this frame, in model space.
	Transform mathutil.Mat4

	Parent   int
	Children []int
}

// BoneDef is the load-time description of a bone, in id order.
type BoneDef struct {
	Name   string
	Offset mathutil.Mat4
}

// Node is a generic named tree, as found in a model file's scene graph.
// Only nodes whose names match a bone take part in the hierarchy.
type Node struct {
	Name     string
	Children []*Node
}

// JointCenter returns the bone's origin expressed in model space.
// Bone space places the joint at (0,0,0), so this is OffsetInverse × origin.
func (b *Bone) JointCenter() mathutil.Vec3 {
	return b.OffsetInverse.MulPoint(mathutil.Vec3{})
}
