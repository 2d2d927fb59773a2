// Package config loads generator settings from YAML and merges CLI flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"

	"handsynth/internal/camera"
	"handsynth/internal/dataset"
	"handsynth/internal/mathutil"
	"handsynth/internal/pose"
	"handsynth/internal/skin"
)

// Dataset defaults.
const (
	DefaultDatasetSize     = 100000
	DefaultVariations      = 31000
	DefaultBackgroundCount = 15000
	DefaultModel           = "hand.glb"
	DefaultBackgroundDir   = "backgrounds"
	DefaultOutputDir       = "datasets"
)

// Config holds all configurable paths, sampling and render settings.
type Config struct {
	// Paths
	BaseDir     string `yaml:"base_dir"`
	Model       string `yaml:"model"`
	Backgrounds string `yaml:"backgrounds_dir"`
	OutputDir   string `yaml:"output_dir"`
	Calibration string `yaml:"calibration"`

	// Model import
	Meshes       []string `yaml:"meshes"`
	KeypointMesh string   `yaml:"keypoint_mesh"`
	Joints       []string `yaml:"joints"`
	SkinStrategy string   `yaml:"skin_strategy"`

	// Sampling
	DatasetSize int         `yaml:"dataset_size"`
	Seed        uint64      `yaml:"seed"`
	Variations  pose.Counts `yaml:"variations"`

	// Render settings
	Camera      camera.Camera `yaml:"camera"`
	Supersample int           `yaml:"supersample"`
	Format      string        `yaml:"format"`
	Quality     int           `yaml:"quality"`
	Workers     int           `yaml:"workers"`
}

// Load reads a YAML config file.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	BaseDir     string
	Model       string
	Backgrounds string
	OutputDir   string
	Calibration string
	Format      string
	Size        int
	Seed        uint64
	SeedSet     bool
	Quality     int
	Workers     int
}

// Resolve applies flags, then fills any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.BaseDir != "" {
		c.BaseDir = flags.BaseDir
	}
	if flags.Model != "" {
		c.Model = flags.Model
	}
	if flags.Backgrounds != "" {
		c.Backgrounds = flags.Backgrounds
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Calibration != "" {
		c.Calibration = flags.Calibration
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Size > 0 {
		c.DatasetSize = flags.Size
	}
	if flags.SeedSet {
		c.Seed = flags.Seed
	}
	if flags.Quality > 0 {
		c.Quality = flags.Quality
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}

	if c.BaseDir == "" {
		c.BaseDir, _ = os.Getwd()
	}

	// Resolve relative paths against base dir
	c.Model = resolvePath(c.BaseDir, c.Model, DefaultModel)
	c.Backgrounds = resolvePath(c.BaseDir, c.Backgrounds, DefaultBackgroundDir)
	c.OutputDir = resolvePath(c.BaseDir, c.OutputDir, DefaultOutputDir)
	if c.Calibration != "" {
		c.Calibration = resolvePath(c.BaseDir, c.Calibration, "")
	}

	if len(c.Joints) == 0 {
		c.Joints = append([]string(nil), pose.DefaultJointNames...)
	}
	if c.SkinStrategy == "" {
		c.SkinStrategy = skin.GreedyMin{}.Name()
	}

	// Sampling defaults
	if c.DatasetSize <= 0 {
		c.DatasetSize = DefaultDatasetSize
	}
	v := &c.Variations
	for _, n := range []*int{&v.JointAngles, &v.ArmPositions, &v.ArmRotations, &v.SkinTones, &v.Lights, &v.Shininess} {
		if *n <= 0 {
			*n = DefaultVariations
		}
	}
	if v.Backgrounds <= 0 {
		v.Backgrounds = DefaultBackgroundCount
	}
	if v.CameraParams <= 0 {
		v.CameraParams = 1
	}

	// Defaults for render settings
	c.Camera = withCameraDefaults(c.Camera)
	if c.Supersample <= 0 {
		c.Supersample = 2
	}
	if c.Format == "" {
		c.Format = string(dataset.JPEG)
	}
	if c.Quality <= 0 {
		c.Quality = 90
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports settings Resolve cannot fix.
func (c *Config) Validate() error {
	if len(c.Joints) != pose.NumJoints {
		return fmt.Errorf("config: %d joints configured, want %d", len(c.Joints), pose.NumJoints)
	}
	if _, err := skin.StrategyByName(c.SkinStrategy); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := dataset.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.Camera.Width <= 0 || c.Camera.Height <= 0 {
		return fmt.Errorf("config: camera size %dx%d", c.Camera.Width, c.Camera.Height)
	}
	if c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("config: camera clip range [%g, %g]", c.Camera.Near, c.Camera.Far)
	}
	return nil
}

// Slug returns the dataset directory name.
func (c *Config) Slug() string {
	return dataset.Slug(c.Variations, c.DatasetSize)
}

func resolvePath(base, p, def string) string {
	if p == "" {
		p = def
	}
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

func withCameraDefaults(c camera.Camera) camera.Camera {
	d := camera.Default()
	if c.Position == (mathutil.Vec3{}) {
		c.Position = d.Position
	}
	if c.Direction == (mathutil.Vec3{}) {
		c.Direction = d.Direction
	}
	if c.Up == (mathutil.Vec3{}) {
		c.Up = d.Up
	}
	if c.FovY <= 0 {
		c.FovY = d.FovY
	}
	if c.Near <= 0 {
		c.Near = d.Near
	}
	if c.Far <= 0 {
		c.Far = d.Far
	}
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	return c
}
