package batch

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"handsynth/internal/camera"
	"handsynth/internal/dataset"
	"handsynth/internal/keypoint"
	"handsynth/internal/mathutil"
	"handsynth/internal/pose"
	"handsynth/internal/rig"
	"handsynth/internal/skeleton"
	"handsynth/internal/skin"
	"handsynth/internal/texture"
)

// plateRig is a flat square in the XZ plane driven by a chain of the
// default joints. After the upright turn it faces the camera.
func plateRig(t *testing.T) *rig.Rig {
	t.Helper()
	defs := make([]skeleton.BoneDef, pose.NumJoints)
	root := &skeleton.Node{Name: "Armature"}
	parent := root
	bones := make(map[string]int, pose.NumJoints)
	for i, name := range pose.DefaultJointNames {
		defs[i] = skeleton.BoneDef{Name: name, Offset: mathutil.Translation(mathutil.Vec3{0, 0, 0.1 * float64(i)})}
		n := &skeleton.Node{Name: name}
		parent.Children = append(parent.Children, n)
		parent = n
		bones[name] = i
	}
	sk, err := skeleton.Build(defs, root)
	require.NoError(t, err)

	corners := []mathutil.Vec3{{-1, 0, -1}, {1, 0, -1}, {1, 0, 1}, {-1, 0, 1}}
	verts := make([]skin.Vertex, len(corners))
	for i, c := range corners {
		verts[i] = skin.NewVertex(c)
		verts[i].Normal = mathutil.Vec3{0, 1, 0}
		skin.BindInfluence(&verts[i], i*5, 1)
	}
	m := &rig.Mesh{
		Name:     "Plate",
		Vertices: verts,
		Indices:  []uint32{0, 1, 2, 0, 2, 3},
		Bones:    bones,
	}
	r, err := rig.New(sk, []*rig.Mesh{m})
	require.NoError(t, err)
	return r
}

func plateReconstructor(t *testing.T) *keypoint.Reconstructor {
	t.Helper()
	var tbl keypoint.Table
	for i := range tbl {
		tbl[i] = keypoint.Spec{Index: i, Bone: i % pose.NumJoints, Vertex: i % 4}
	}
	rc, err := keypoint.NewReconstructor(tbl)
	require.NoError(t, err)
	return rc
}

func smallCamera() camera.Camera {
	c := camera.Default()
	c.Width, c.Height = 32, 32
	return c
}

func counts(n, backgrounds int) pose.Counts {
	return pose.Counts{JointAngles: n, ArmPositions: n, ArmRotations: n, SkinTones: n,
		Lights: n, Shininess: n, Backgrounds: backgrounds, CameraParams: 1}
}

func runInto(t *testing.T, root string, workers int, c pose.Counts, frames int, bgs *texture.Backgrounds) (Summary, dataset.Layout) {
	t.Helper()
	w, err := dataset.Create(dataset.Options{Root: root, Slug: "run", Format: dataset.PNG, Seed: 3, Frames: frames})
	require.NoError(t, err)

	sum, runErr := Run(context.Background(), Config{
		Rig:           plateRig(t),
		Reconstructor: plateReconstructor(t),
		Joints:        pose.DefaultJointNames,
		Variations:    pose.NewVariations(c, 3),
		Seed:          3,
		Frames:        frames,
		Camera:        smallCamera(),
		Supersample:   2,
		Backgrounds:   bgs,
		Writer:        w,
		Workers:       workers,
		Logger:        zaptest.NewLogger(t),
		Progress:      time.Millisecond,
	})
	require.NoError(t, w.Close())
	require.NoError(t, runErr)
	return sum, w.Layout()
}

func TestRunWritesEveryFrame(t *testing.T) {
	defer goleak.VerifyNone(t)

	sum, l := runInto(t, t.TempDir(), 3, counts(4, 0), 7, nil)
	assert.Equal(t, 7, sum.Frames)
	assert.Zero(t, sum.MissingBackgrounds)

	for i := 0; i < 7; i++ {
		assert.FileExists(t, l.ImagePath(i))
	}

	data, err := os.ReadFile(l.XYZPath())
	require.NoError(t, err)
	var xyz [][][3]float64
	require.NoError(t, json.Unmarshal(data, &xyz))
	require.Len(t, xyz, 7)
	for _, frame := range xyz {
		require.Len(t, frame, keypoint.Count)
		for _, a := range frame {
			assert.Equal(t, 1.0, a[2])
		}
	}

	data, err = os.ReadFile(l.KPath())
	require.NoError(t, err)
	var ks [][3][3]float64
	require.NoError(t, json.Unmarshal(data, &ks))
	require.Len(t, ks, 7)
	assert.Equal(t, camera.Intrinsics(), ks[6])

	idx, err := dataset.OpenIndex(l.IndexPath())
	require.NoError(t, err)
	defer idx.Close()
	runs, err := idx.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	frames, err := idx.Frames(runs[0].ID)
	require.NoError(t, err)
	assert.Len(t, frames, 7)
}

func TestOutputIndependentOfWorkerCount(t *testing.T) {
	defer goleak.VerifyNone(t)

	_, one := runInto(t, t.TempDir(), 1, counts(5, 0), 6, nil)
	_, many := runInto(t, t.TempDir(), 4, counts(5, 0), 6, nil)

	for _, path := range []func(dataset.Layout) string{dataset.Layout.XYZPath, dataset.Layout.KPath} {
		a, err := os.ReadFile(path(one))
		require.NoError(t, err)
		b, err := os.ReadFile(path(many))
		require.NoError(t, err)
		assert.Equal(t, string(a), string(b))
	}
	for i := 0; i < 6; i++ {
		a, err := os.ReadFile(one.ImagePath(i))
		require.NoError(t, err)
		b, err := os.ReadFile(many.ImagePath(i))
		require.NoError(t, err)
		assert.Equal(t, a, b, "frame %d", i)
	}
}

func TestMissingBackgroundsFallBackToFill(t *testing.T) {
	defer goleak.VerifyNone(t)

	bgs, err := texture.ScanBackgrounds(t.TempDir())
	require.NoError(t, err)
	sum, _ := runInto(t, t.TempDir(), 2, counts(2, 3), 4, bgs)
	assert.Equal(t, 4, sum.Frames)
	assert.Equal(t, 4, sum.MissingBackgrounds)
}

func TestSampledBackgroundWithoutIndexIsMissing(t *testing.T) {
	defer goleak.VerifyNone(t)

	sum, _ := runInto(t, t.TempDir(), 2, counts(2, 3), 5, nil)
	assert.Equal(t, 5, sum.Frames)
	assert.Equal(t, 5, sum.MissingBackgrounds)
}

func TestFrameErrorStopsRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := dataset.Create(dataset.Options{Root: t.TempDir(), Slug: "run", Format: dataset.PNG, Frames: 50})
	require.NoError(t, err)
	_, err = Run(context.Background(), Config{
		Rig:           plateRig(t),
		Reconstructor: plateReconstructor(t),
		Joints:        []string{"Bone037"},
		Variations:    pose.NewVariations(counts(2, 0), 1),
		Frames:        50,
		Camera:        smallCamera(),
		Writer:        w,
		Workers:       4,
	})
	assert.Error(t, err)
	require.NoError(t, w.Close())
}

func TestCancelledContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := dataset.Create(dataset.Options{Root: t.TempDir(), Slug: "run", Format: dataset.PNG, Frames: 20})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum, err := Run(ctx, Config{
		Rig:           plateRig(t),
		Reconstructor: plateReconstructor(t),
		Joints:        pose.DefaultJointNames,
		Variations:    pose.NewVariations(counts(2, 0), 1),
		Frames:        20,
		Camera:        smallCamera(),
		Writer:        w,
		Workers:       2,
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, sum.Frames, 20)
	require.NoError(t, w.Close())
}

func TestConfigCheck(t *testing.T) {
	_, err := Run(context.Background(), Config{Frames: -1})
	require.Error(t, err)
	for _, want := range []string{"no rig", "no keypoint reconstructor", "no variations", "no dataset writer", "negative frame count"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestWriteManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.json")
	m := Manifest{RunID: "r1", Slug: "s", Seed: 9, Frames: 3, Variations: counts(2, 0), Joints: pose.DefaultJointNames, Format: "png"}
	require.NoError(t, WriteManifest(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Manifest
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, m, got)
	assert.Contains(t, string(data), `"joint_angles": 2`)
}
