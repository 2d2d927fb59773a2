package keypoint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"handsynth/internal/mathutil"
)

// Spec maps one keypoint to the bone whose joint anchors it, the mesh vertex
// whose weights deform it, and a corrective offset (fingertips only).
type Spec struct {
	Index      int           `yaml:"index"`
	Bone       int           `yaml:"bone"`
	Vertex     int           `yaml:"vertex"`
	Correction mathutil.Vec3 `yaml:"correction,flow"`
}

// Table is the calibration for one hand mesh, indexed by keypoint.
type Table [Count]Spec

// Calibration of the shipped hand model (hand.glb, mesh WrapHand003).
var (
	defaultBones = [Count]int{1, 2, 3, 4, 4, 6, 7, 14, 14, 9, 15, 18, 18,
		11, 16, 19, 19, 13, 17, 20, 20}

	defaultVertices = [Count]int{36563, 30249, 53106, 790, 528, 28613, 20338,
		21906, 17825, 38509, 25734, 24593, 23377, 28657, 9382, 10482, 6617, 60805,
		15913, 16162, 12608}

	defaultCorrections = map[int]mathutil.Vec3{
		ThumbTip:  {-2.712357, 10.171295, 18.986443},
		IndexTip:  {-0.000015, 8.476074, 12.544624},
		MiddleTip: {1.017120, 10.171303, 11.527489},
		RingTip:   {2.034241, 12.544601, 10.510353},
		PinkyTip:  {0.678085, 10.171295, 7.119926},
	}
)

// DefaultTable returns the calibration of the shipped hand model.
func DefaultTable() Table {
	var t Table
	for i := range t {
		t[i] = Spec{
			Index:      i,
			Bone:       defaultBones[i],
			Vertex:     defaultVertices[i],
			Correction: defaultCorrections[i],
		}
	}
	return t
}

// Validate checks indices and that only fingertips carry a correction.
func (t *Table) Validate() error {
	for i, s := range t {
		if s.Index != i {
			return fmt.Errorf("keypoint: entry %d has index %d", i, s.Index)
		}
		if s.Bone < 0 || s.Vertex < 0 {
			return fmt.Errorf("keypoint: %s: negative bone or vertex", Name(i))
		}
		if !IsFingertip(i) && s.Correction != (mathutil.Vec3{}) {
			return fmt.Errorf("keypoint: %s: correction only allowed on fingertips", Name(i))
		}
	}
	return nil
}

type tableFile struct {
	Keypoints []Spec `yaml:"keypoints"`
}

// LoadTable reads a calibration YAML file. Every keypoint must be listed
// exactly once.
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("keypoint: read %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable decodes calibration YAML.
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("keypoint: parse calibration: %w", err)
	}
	if len(f.Keypoints) != Count {
		return Table{}, fmt.Errorf("keypoint: calibration lists %d keypoints, want %d", len(f.Keypoints), Count)
	}

	var t Table
	seen := make(map[int]bool, Count)
	for _, s := range f.Keypoints {
		if s.Index < 0 || s.Index >= Count {
			return Table{}, fmt.Errorf("keypoint: index %d out of range", s.Index)
		}
		if seen[s.Index] {
			return Table{}, fmt.Errorf("keypoint: index %d listed twice", s.Index)
		}
		seen[s.Index] = true
		t[s.Index] = s
	}
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Marshal encodes the table in the format LoadTable reads.
func (t *Table) Marshal() ([]byte, error) {
	return yaml.Marshal(tableFile{Keypoints: t[:]})
}
