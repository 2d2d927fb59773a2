package mathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-9

func TestAxisAngleMatchesBasisRotations(t *testing.T) {
	for _, deg := range []float64{-90, -15, 0, 30, 90, 179} {
		a := Deg2Rad(deg)
		assert.True(t, approxMat3(AxisAngle(Vec3{1, 0, 0}, a), RotX(a)), "x %v", deg)
		assert.True(t, approxMat3(AxisAngle(Vec3{0, 1, 0}, a), RotY(a)), "y %v", deg)
		assert.True(t, approxMat3(AxisAngle(Vec3{0, 0, 1}, a), RotZ(a)), "z %v", deg)
	}
}

func TestAxisAngleNormalizesAxis(t *testing.T) {
	a := Deg2Rad(40)
	assert.True(t, approxMat3(AxisAngle(Vec3{0, 0, 5}, a), RotZ(a)))
	assert.Equal(t, Mat3Identity(), AxisAngle(Vec3{}, a))
}

func TestRotation4QuarterTurn(t *testing.T) {
	r := Rotation4(Vec3{0, 0, 1}, 90)
	got := r.MulPoint(Vec3{1, 0, 0})
	assert.True(t, got.ApproxEqual(Vec3{0, 1, 0}, tol), "got %v", got)
}

func TestInverseRoundTrip(t *testing.T) {
	m := Mat4Mul(Translation(Vec3{1, -2, 3}), Mat4Mul(Rotation4(Vec3{1, 1, 0}, 33), Scaling(Vec3{2, 3, 4})))
	inv, err := m.Inverse()
	require.NoError(t, err)
	assert.True(t, Mat4Mul(m, inv).IsIdentity())
	assert.True(t, Mat4Mul(inv, m).IsIdentity())
}

func TestInverseSingular(t *testing.T) {
	_, err := Scaling(Vec3{1, 0, 1}).Inverse()
	assert.ErrorIs(t, err, ErrSingular)
}

func TestTransposeAndColumn(t *testing.T) {
	m := Translation(Vec3{7, 8, 9})
	assert.Equal(t, Vec4{7, 8, 9, 1}, m.Column(3))
	assert.Equal(t, Vec4{7, 8, 9, 1}, Vec4{m.Transpose()[12], m.Transpose()[13], m.Transpose()[14], m.Transpose()[15]})
}

func TestMulVec4MatchesMulPoint(t *testing.T) {
	m := Mat4Mul(Translation(Vec3{1, 2, 3}), Rotation4(Vec3{0, 1, 0}, 60))
	p := Vec3{0.5, -1, 2}
	assert.True(t, m.MulVec4(p.Point()).XYZ().ApproxEqual(m.MulPoint(p), tol))
}

func approxMat3(a, b Mat3) bool {
	for i := range a {
		d := a[i] - b[i]
		if d > tol || d < -tol {
			return false
		}
	}
	return true
}
