package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsynth/internal/mathutil"
	"handsynth/internal/rig"
	"handsynth/internal/skeleton"
	"handsynth/internal/skin"
)

func counts(n int) Counts {
	return Counts{JointAngles: n, ArmPositions: n, ArmRotations: n, SkinTones: n, Lights: n, Shininess: n, Backgrounds: n, CameraParams: 1}
}

// chainRig links the default joints into one chain, 0.1 apart along Y.
func chainRig(t *testing.T) *rig.Rig {
	t.Helper()
	defs := make([]skeleton.BoneDef, NumJoints)
	root := &skeleton.Node{Name: "Armature"}
	parent := root
	for i, name := range DefaultJointNames {
		defs[i] = skeleton.BoneDef{Name: name, Offset: mathutil.Translation(mathutil.Vec3{0, -0.1 * float64(i), 0})}
		n := &skeleton.Node{Name: name}
		parent.Children = append(parent.Children, n)
		parent = n
	}
	sk, err := skeleton.Build(defs, root)
	require.NoError(t, err)

	verts := []skin.Vertex{skin.NewVertex(mathutil.Vec3{-1, 0, 0}), skin.NewVertex(mathutil.Vec3{1, 2, 0})}
	skin.BindInfluence(&verts[0], 0, 1)
	skin.BindInfluence(&verts[1], 15, 1)
	r, err := rig.New(sk, []*rig.Mesh{{Name: "Hand", Vertices: verts}})
	require.NoError(t, err)
	return r
}

func TestVariationsAreDeterministic(t *testing.T) {
	a := NewVariations(counts(50), 7)
	b := NewVariations(counts(50), 7)
	c := NewVariations(counts(50), 8)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Joints, c.Joints)
}

func TestPoolElementZeroIsNeutral(t *testing.T) {
	v := NewVariations(counts(10), 1)
	assert.Equal(t, JointAngles{}, v.Joints[0])
	assert.Equal(t, mathutil.Vec3{}, v.ArmPositions[0])
	assert.Equal(t, mathutil.Vec3{}, v.ArmRotations[0])
	assert.Equal(t, 1.0, v.SkinTones[0])
	assert.Equal(t, NeutralLight, v.Lights[0])
	assert.Equal(t, 1.0, v.Shininess[0])
	assert.Len(t, v.Joints, 10)
	assert.Len(t, v.Backgrounds, 10)
}

func TestSampledValuesStayInRange(t *testing.T) {
	v := NewVariations(counts(300), 42)
	for _, j := range v.Joints[1:] {
		assert.True(t, WristPronation.Contains(j[0][0]))
		assert.True(t, WristFlexion.Contains(j[0][1]))
		assert.True(t, WristAbduction.Contains(j[0][2]))

		assert.Zero(t, j[1][0])
		assert.True(t, ThumbAbduction.Contains(j[1][1]))
		assert.True(t, j[1][2] >= ThumbFlexion.Min/2 && j[1][2] <= ThumbFlexion.Max/2)
		for _, k := range []int{2, 3} {
			assert.Equal(t, 0.0, j[k][0]+j[k][1])
			assert.True(t, ThumbFlexion.Contains(j[k][2]))
		}
		for k := 4; k < NumJoints; k++ {
			assert.Zero(t, j[k][0])
			assert.True(t, FingerFlexion.Contains(j[k][1]))
			if k == 4 || k == 7 || k == 10 || k == 13 {
				assert.True(t, FingerAbduction.Contains(j[k][2]))
			} else {
				assert.Zero(t, j[k][2], "joint %d", k)
			}
		}
	}
	for _, p := range v.ArmPositions {
		assert.True(t, ArmX.Contains(p[0]) && ArmY.Contains(p[1]) && ArmZ.Contains(p[2]))
	}
	for _, l := range v.Lights[1:] {
		assert.True(t, LightIntensity.Contains(l.Intensity))
		for _, c := range l.Position {
			assert.True(t, LightPosition.Contains(c))
		}
	}
	for _, s := range v.SkinTones {
		assert.True(t, SkinTone.Contains(s))
	}
	for _, s := range v.Shininess {
		assert.True(t, Shininess.Contains(s))
	}
	for _, b := range v.Backgrounds {
		assert.True(t, b >= 0 && b <= MaxBackground)
	}
}

func TestSingleBackgroundMeansNone(t *testing.T) {
	v := NewVariations(counts(1), 3)
	assert.Empty(t, v.Backgrounds)
	f := NewSampler(v, 3).Next(0)
	assert.Equal(t, -1, f.Background)
	assert.Equal(t, -1, f.Picks.Background)
	assert.Equal(t, JointAngles{}, f.Joints)
}

func TestSamplerIsDeterministic(t *testing.T) {
	v := NewVariations(counts(20), 5)
	a, b := NewSampler(v, 9), NewSampler(v, 9)
	for i := 0; i < 50; i++ {
		fa, fb := a.Next(i), b.Next(i)
		require.Equal(t, fa, fb)
		assert.Equal(t, i, fa.Index)
		assert.Equal(t, v.Joints[fa.Picks.Joints], fa.Joints)
		assert.Equal(t, v.Backgrounds[fa.Picks.Background], fa.Background)
	}
}

func TestApplyNeutralFrame(t *testing.T) {
	r := chainRig(t)
	f := NewSampler(NewVariations(counts(1), 1), 1).Next(0)
	require.NoError(t, Apply(r, &f, DefaultJointNames))

	// Bounds (-1,0,0)..(1,2,0): centre (0,1,0), extent 2, then -90 about X.
	want := mathutil.Mat4Mul(mathutil.Rotation4(axisX, -90),
		mathutil.Mat4Mul(mathutil.Scaling(mathutil.Vec3{0.5, 0.5, 0.5}), mathutil.Translation(mathutil.Vec3{0, -1, 0})))
	assert.True(t, r.ModelTransform().ApproxEqual(want, 1e-12))

	for id := 0; id < NumJoints; id++ {
		tr, err := r.Skeleton().Transform(id)
		require.NoError(t, err)
		assert.True(t, tr.IsIdentity())
	}
}

func TestApplyRotatesWristChain(t *testing.T) {
	r := chainRig(t)
	f := Frame{Background: -1}
	f.Joints[0] = mathutil.Vec3{0, 30, 0}
	f.ArmPosition = mathutil.Vec3{0.1, 0, 0}

	// Stale state from a previous frame must not leak.
	require.NoError(t, r.Rotate("Bone050", axisZ, 45))
	r.Translate(mathutil.Vec3{9, 9, 9})

	require.NoError(t, Apply(r, &f, DefaultJointNames))

	wrist, err := r.Skeleton().Bone(0)
	require.NoError(t, err)
	rj := mathutil.Mat4Mul(mathutil.Mat4Mul(wrist.OffsetInverse, mathutil.Rotation4(axisY, 30)), wrist.Offset)
	for id := 0; id < NumJoints; id++ {
		tr, _ := r.Skeleton().Transform(id)
		assert.True(t, tr.ApproxEqual(rj, 1e-12), "bone %d", id)
	}
	assert.InDelta(t, 0.1, r.ModelTransform()[3], 1e-12)
}

func TestApplyErrors(t *testing.T) {
	r := chainRig(t)
	f := Frame{}
	assert.Error(t, Apply(r, &f, DefaultJointNames[:3]))

	names := append([]string(nil), DefaultJointNames...)
	names[5] = "Bone999"
	assert.ErrorIs(t, Apply(r, &f, names), skeleton.ErrNotFound)
}
