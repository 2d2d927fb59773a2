package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsynth/internal/camera"
	"handsynth/internal/pose"
)

func TestResolveDefaults(t *testing.T) {
	var c Config
	c.Resolve(Flags{BaseDir: "/work"})

	assert.Equal(t, filepath.Join("/work", "hand.glb"), c.Model)
	assert.Equal(t, filepath.Join("/work", "backgrounds"), c.Backgrounds)
	assert.Equal(t, filepath.Join("/work", "datasets"), c.OutputDir)
	assert.Empty(t, c.Calibration)

	assert.Equal(t, 100000, c.DatasetSize)
	assert.Equal(t, pose.Counts{
		JointAngles: 31000, ArmPositions: 31000, ArmRotations: 31000, SkinTones: 31000,
		Lights: 31000, Shininess: 31000, Backgrounds: 15000, CameraParams: 1,
	}, c.Variations)
	assert.Equal(t, pose.DefaultJointNames, c.Joints)
	assert.Equal(t, "greedy", c.SkinStrategy)
	assert.Equal(t, camera.Default(), c.Camera)
	assert.Equal(t, "jpeg", c.Format)
	assert.Positive(t, c.Workers)
	require.NoError(t, c.Validate())
	assert.Equal(t, "31000_31000_31000_31000_31000_31000_15000_1_100000", c.Slug())
}

func TestFlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "handsynth.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: models/right.glb
output_dir: /abs/out
dataset_size: 50
seed: 11
workers: 3
variations:
  joint_angles: 10
  backgrounds: 1
camera:
  width: 128
  height: 96
  fov: 60
skin_strategy: top
`), 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	c.Resolve(Flags{BaseDir: dir, Size: 20, Workers: 8, Format: "webp"})

	assert.Equal(t, filepath.Join(dir, "models", "right.glb"), c.Model)
	assert.Equal(t, "/abs/out", c.OutputDir)
	assert.Equal(t, 20, c.DatasetSize)
	assert.Equal(t, uint64(11), c.Seed)
	assert.Equal(t, 8, c.Workers)
	assert.Equal(t, "webp", c.Format)
	assert.Equal(t, 10, c.Variations.JointAngles)
	assert.Equal(t, 1, c.Variations.Backgrounds)
	assert.Equal(t, 31000, c.Variations.Lights)
	assert.Equal(t, 128, c.Camera.Width)
	assert.Equal(t, 96, c.Camera.Height)
	assert.Equal(t, 60.0, c.Camera.FovY)
	assert.Equal(t, camera.Default().Position, c.Camera.Position)
	assert.Equal(t, "top", c.SkinStrategy)
	require.NoError(t, c.Validate())

	c.Resolve(Flags{Seed: 0, SeedSet: true})
	assert.Equal(t, uint64(0), c.Seed)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		var c Config
		c.Resolve(Flags{BaseDir: "/w"})
		return c
	}

	c := base()
	c.Joints = c.Joints[:4]
	assert.Error(t, c.Validate())

	c = base()
	c.SkinStrategy = "sorted"
	assert.Error(t, c.Validate())

	c = base()
	c.Format = "gif"
	assert.Error(t, c.Validate())

	c = base()
	c.Camera.Far = c.Camera.Near / 2
	assert.Error(t, c.Validate())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workers: [1, 2\n"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
