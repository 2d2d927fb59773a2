package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"handsynth/internal/config"
	"handsynth/internal/model"
)

var inspectJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect [model]",
	Short: "Show the bones, hierarchy and meshes of a model",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print the summary as JSON")
}

func runInspect(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		modelPath = args[0]
	}
	cfg, err := loadConfig(config.Flags{})
	if err != nil {
		return err
	}
	r, _, err := loadRig(&cfg)
	if err != nil {
		return err
	}

	sum := model.Describe(r)
	if inspectJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}

	fmt.Printf("Model: %s\n", cfg.Model)
	fmt.Printf("Bones: %d\n", len(sum.Bones))
	if err := model.WriteTree(os.Stdout, r); err != nil {
		return err
	}
	fmt.Println()
	for _, m := range sum.Meshes {
		marker := ""
		if m.Keypoints {
			marker = " (keypoints)"
		}
		fmt.Printf("Mesh %s%s: %d vertices, %d triangles, %d bones, %d unbound\n",
			m.Name, marker, m.Vertices, m.Triangles, m.Bones, m.Unbound)
		if m.Texture != "" {
			fmt.Printf("  texture: %s\n", m.Texture)
		}
	}
	return nil
}
