package skeleton

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsynth/internal/mathutil"
)

// jointAt returns the offset of a bone whose joint sits at p in bind space.
func jointAt(p mathutil.Vec3) mathutil.Mat4 {
	return mathutil.Translation(p.Scale(-1))
}

// chain builds Root -> Wrist -> Finger -> Tip under a non-bone "Armature"
// node.
func chain(t *testing.T) *Skeleton {
	t.Helper()
	defs := []BoneDef{
		{Name: "Root", Offset: jointAt(mathutil.Vec3{0, 0, 0})},
		{Name: "Wrist", Offset: jointAt(mathutil.Vec3{0, 1, 0})},
		{Name: "Finger", Offset: jointAt(mathutil.Vec3{0, 2, 0})},
		{Name: "Tip", Offset: jointAt(mathutil.Vec3{0, 3, 0})},
	}
	tree := &Node{Name: "Armature", Children: []*Node{
		{Name: "Root", Children: []*Node{
			{Name: "Wrist", Children: []*Node{
				{Name: "Finger", Children: []*Node{
					{Name: "Tip"},
				}},
			}},
		}},
	}}
	s, err := Build(defs, tree)
	require.NoError(t, err)
	return s
}

func jointRotation(t *testing.T, s *Skeleton, name string, axis mathutil.Vec3, deg float64) mathutil.Mat4 {
	t.Helper()
	id, err := s.Lookup(name)
	require.NoError(t, err)
	b, err := s.Bone(id)
	require.NoError(t, err)
	return mathutil.Mat4Mul(mathutil.Mat4Mul(b.OffsetInverse, mathutil.Rotation4(axis, deg)), b.Offset)
}

func TestBuildLinksParentsAndChildren(t *testing.T) {
	s := chain(t)

	wrist, _ := s.Lookup("Wrist")
	root, _ := s.Lookup("Root")
	b, err := s.Bone(wrist)
	require.NoError(t, err)
	assert.Equal(t, root, b.Parent)
	assert.Len(t, b.Children, 1)
	assert.Equal(t, []int{root}, s.Roots())
	assert.True(t, s.Linked())
}

func TestBuildSkipsNonBoneNodesButVisitsDescendants(t *testing.T) {
	defs := []BoneDef{
		{Name: "Hand", Offset: mathutil.Mat4Identity()},
		{Name: "Thumb", Offset: mathutil.Mat4Identity()},
	}
	// Thumb sits under a non-bone node, so it has no bone parent.
	tree := &Node{Name: "Scene", Children: []*Node{
		{Name: "Hand"},
		{Name: "Group", Children: []*Node{{Name: "Thumb"}}},
	}}
	s, err := Build(defs, tree)
	require.NoError(t, err)
	assert.ElementsMatch(t, []int{0, 1}, s.Roots())
}

func TestBonesStartAtIdentity(t *testing.T) {
	s := chain(t)
	for id := 0; id < s.Len(); id++ {
		tr, err := s.Transform(id)
		require.NoError(t, err)
		assert.True(t, tr.IsIdentity(), "bone %d", id)

		b, _ := s.Bone(id)
		assert.True(t, mathutil.Mat4Mul(b.Offset, b.OffsetInverse).IsIdentity())
	}
}

func TestRotateThenResetIsIdentity(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Finger", mathutil.Vec3{1, 0, 0}, 37))
	require.NoError(t, s.Reset("Finger"))
	require.NoError(t, s.Reset("Finger"))

	id, _ := s.Lookup("Finger")
	tr, _ := s.Transform(id)
	assert.True(t, tr.IsIdentity())
}

func TestResetAll(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Root", mathutil.Vec3{0, 1, 0}, 20))
	s.ResetAll()
	for id := 0; id < s.Len(); id++ {
		tr, _ := s.Transform(id)
		assert.True(t, tr.IsIdentity())
	}
}

func TestParentRotationLeftMultipliesDescendants(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Finger", mathutil.Vec3{1, 0, 0}, 25))
	require.NoError(t, s.Rotate("Tip", mathutil.Vec3{0, 0, 1}, -10))

	finger, _ := s.Lookup("Finger")
	tip, _ := s.Lookup("Tip")
	beforeFinger, _ := s.Transform(finger)
	beforeTip, _ := s.Transform(tip)

	rj := jointRotation(t, s, "Wrist", mathutil.Vec3{0, 0, 1}, 40)
	require.NoError(t, s.Rotate("Wrist", mathutil.Vec3{0, 0, 1}, 40))

	afterFinger, _ := s.Transform(finger)
	afterTip, _ := s.Transform(tip)
	assert.True(t, afterFinger.ApproxEqual(mathutil.Mat4Mul(rj, beforeFinger), 1e-12))
	assert.True(t, afterTip.ApproxEqual(mathutil.Mat4Mul(rj, beforeTip), 1e-12))
}

func TestOriginatingBoneRightMultiplies(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Wrist", mathutil.Vec3{1, 0, 0}, 30))
	wrist, _ := s.Lookup("Wrist")
	before, _ := s.Transform(wrist)

	rj := jointRotation(t, s, "Wrist", mathutil.Vec3{0, 1, 0}, 15)
	require.NoError(t, s.Rotate("Wrist", mathutil.Vec3{0, 1, 0}, 15))
	after, _ := s.Transform(wrist)
	assert.True(t, after.ApproxEqual(mathutil.Mat4Mul(before, rj), 1e-12))
}

func TestLeafRotationDoesNotTouchAncestors(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Tip", mathutil.Vec3{1, 0, 0}, 80))
	for _, name := range []string{"Root", "Wrist", "Finger"} {
		id, _ := s.Lookup(name)
		tr, _ := s.Transform(id)
		assert.True(t, tr.IsIdentity(), name)
	}
}

func TestRotationPivotsAroundJoint(t *testing.T) {
	s := chain(t)
	require.NoError(t, s.Rotate("Finger", mathutil.Vec3{0, 0, 1}, 90))
	id, _ := s.Lookup("Finger")
	tr, _ := s.Transform(id)
	b, _ := s.Bone(id)

	// The joint itself stays put; a point one unit above it swings to -X.
	assert.True(t, tr.MulPoint(b.JointCenter()).ApproxEqual(mathutil.Vec3{0, 2, 0}, 1e-12))
	assert.True(t, tr.MulPoint(mathutil.Vec3{0, 3, 0}).ApproxEqual(mathutil.Vec3{-1, 2, 0}, 1e-12))
}

func TestUnknownBoneIsLookupError(t *testing.T) {
	s := chain(t)

	err := s.Rotate("Elbow", mathutil.Vec3{1, 0, 0}, 10)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Elbow", le.Name)

	assert.ErrorIs(t, s.Reset("Elbow"), ErrNotFound)
	_, err = s.Transform(99)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.RotateBone(-1, mathutil.Vec3{1, 0, 0}, 5), ErrNotFound)
}

func TestZeroAxisRejected(t *testing.T) {
	s := chain(t)
	assert.ErrorIs(t, s.Rotate("Root", mathutil.Vec3{}, 10), ErrInvalidAxis)
}

func TestStructuralErrors(t *testing.T) {
	id := mathutil.Mat4Identity()

	t.Run("duplicate name", func(t *testing.T) {
		_, err := Build([]BoneDef{{Name: "A", Offset: id}, {Name: "A", Offset: id}}, nil)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("singular offset", func(t *testing.T) {
		_, err := Build([]BoneDef{{Name: "A", Offset: mathutil.Mat4{}}}, nil)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("two parents", func(t *testing.T) {
		defs := []BoneDef{{Name: "R", Offset: id}, {Name: "A", Offset: id}, {Name: "B", Offset: id}, {Name: "C", Offset: id}}
		tree := &Node{Name: "R", Children: []*Node{
			{Name: "A", Children: []*Node{{Name: "C"}}},
			{Name: "B", Children: []*Node{{Name: "C"}}},
		}}
		s, err := Build(defs, tree)
		assert.Nil(t, s)
		var se *StructuralError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, "C", se.Bone)
	})

	t.Run("cycle through repeated names", func(t *testing.T) {
		defs := []BoneDef{{Name: "A", Offset: id}, {Name: "B", Offset: id}}
		tree := &Node{Name: "A", Children: []*Node{
			{Name: "B", Children: []*Node{{Name: "A"}}},
		}}
		s, err := Build(defs, tree)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrStructural)
	})

	t.Run("node graph cycle", func(t *testing.T) {
		a := &Node{Name: "A"}
		b := &Node{Name: "B", Children: []*Node{a}}
		a.Children = []*Node{b}
		_, err := Build([]BoneDef{{Name: "A", Offset: id}, {Name: "B", Offset: id}}, a)
		assert.ErrorIs(t, err, ErrStructural)
	})
}

func TestLinkRunsOnce(t *testing.T) {
	s := chain(t)
	// A second, conflicting tree is ignored once linked.
	other := &Node{Name: "Tip", Children: []*Node{{Name: "Root"}}}
	require.NoError(t, s.Link(other))
	root, _ := s.Lookup("Root")
	b, _ := s.Bone(root)
	assert.Equal(t, -1, b.Parent)
}

func TestCloneIsIndependent(t *testing.T) {
	s := chain(t)
	c := s.Clone()
	require.NoError(t, c.Rotate("Root", mathutil.Vec3{0, 0, 1}, 45))

	root, _ := s.Lookup("Root")
	orig, _ := s.Transform(root)
	assert.True(t, orig.IsIdentity())
	moved, _ := c.Transform(root)
	assert.False(t, moved.IsIdentity())
	assert.Equal(t, s.Names(), c.Names())
}
