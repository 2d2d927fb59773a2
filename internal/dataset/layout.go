// Package dataset writes generated frames, their annotations and a SQLite
// frame index.
package dataset

import (
	"fmt"
	"os"
	"path/filepath"

	"handsynth/internal/pose"
)

// Slug names a dataset after its variation counts and size, so runs with
// different parameters land in different directories.
func Slug(c pose.Counts, size int) string {
	return fmt.Sprintf("%d_%d_%d_%d_%d_%d_%d_%d_%d",
		c.JointAngles, c.ArmPositions, c.ArmRotations, c.SkinTones,
		c.Lights, c.Shininess, c.Backgrounds, c.CameraParams, size)
}

// Layout locates the files of one dataset.
type Layout struct {
	Root   string
	Slug   string
	Format Format
}

// Dir is the dataset directory.
func (l Layout) Dir() string { return filepath.Join(l.Root, l.Slug) }

// ImageDir holds the rendered frames.
func (l Layout) ImageDir() string { return filepath.Join(l.Dir(), "training", "rgb") }

// ImageName is the path of frame i relative to Dir.
func (l Layout) ImageName(i int) string {
	return filepath.ToSlash(filepath.Join("training", "rgb", fmt.Sprintf("%08d.%s", i, l.Format.Ext())))
}

// ImagePath is the absolute path of frame i.
func (l Layout) ImagePath(i int) string {
	return filepath.Join(l.Dir(), filepath.FromSlash(l.ImageName(i)))
}

// XYZPath is the keypoint annotation file.
func (l Layout) XYZPath() string { return filepath.Join(l.Dir(), "training_xyz.json") }

// KPath is the camera intrinsics file.
func (l Layout) KPath() string { return filepath.Join(l.Dir(), "training_K.json") }

// IndexPath is the SQLite frame index.
func (l Layout) IndexPath() string { return filepath.Join(l.Dir(), "index.db") }

// Prepare creates the directory tree.
func (l Layout) Prepare() error {
	if err := os.MkdirAll(l.ImageDir(), 0o755); err != nil {
		return fmt.Errorf("dataset: create %s: %w", l.ImageDir(), err)
	}
	return nil
}
