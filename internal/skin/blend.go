package skin

import "handsynth/internal/mathutil"

// Poser supplies the current transform of a bone; *skeleton.Skeleton
// implements it.
type Poser interface {
	Transform(bone int) (mathutil.Mat4, error)
}

// SkinPoint deforms p with the given influences: the weighted average of
// each bound bone's transform applied to p. With no bound weight, p is
// returned unchanged.
func SkinPoint(p mathutil.Vec3, in Influences, pose Poser) (mathutil.Vec3, error) {
	var acc mathutil.Vec4
	var total float64
	hp := p.Point()
	for _, s := range in {
		if s.Bone < 0 {
			continue
		}
		t, err := pose.Transform(s.Bone)
		if err != nil {
			return mathutil.Vec3{}, err
		}
		acc = acc.Add(t.MulVec4(hp).Scale(s.Weight))
		total += s.Weight
	}
	if total == 0 {
		return p, nil
	}
	return acc.Scale(1 / total).XYZ(), nil
}

// Position returns the skinned position of v.
func Position(v *Vertex, pose Poser) (mathutil.Vec3, error) {
	return SkinPoint(v.Position, v.Influences, pose)
}

// Normal blends v's normal through the linear part of each bone transform
// and renormalises it.
func Normal(v *Vertex, pose Poser) (mathutil.Vec3, error) {
	var acc mathutil.Vec3
	var total float64
	for _, s := range v.Influences {
		if s.Bone < 0 {
			continue
		}
		t, err := pose.Transform(s.Bone)
		if err != nil {
			return mathutil.Vec3{}, err
		}
		acc = acc.Add(t.MulDir(v.Normal).Scale(s.Weight))
		total += s.Weight
	}
	if total == 0 {
		return v.Normal.Normalize(), nil
	}
	return acc.Normalize(), nil
}
