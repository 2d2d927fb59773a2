package batch

import (
	"encoding/json"
	"os"
	"time"

	"handsynth/internal/pose"
)

// Manifest describes a finished dataset run.
type Manifest struct {
	RunID              string      `json:"run_id"`
	Slug               string      `json:"slug"`
	Seed               uint64      `json:"seed"`
	Frames             int         `json:"frames"`
	Variations         pose.Counts `json:"variations"`
	Joints             []string    `json:"joints"`
	Format             string      `json:"format"`
	Width              int         `json:"width"`
	Height             int         `json:"height"`
	MissingBackgrounds int         `json:"missing_backgrounds"`
	Elapsed            string      `json:"elapsed"`
	Created            time.Time   `json:"created"`
}

// WriteManifest writes manifest.json to the dataset directory.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
