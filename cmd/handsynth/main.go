package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"handsynth/internal/config"
	"handsynth/internal/keypoint"
	"handsynth/internal/logging"
	"handsynth/internal/model"
	"handsynth/internal/rig"
	"handsynth/internal/skin"
)

var (
	logger *zap.Logger

	// Global flags
	configFile  string
	verbose     bool
	baseDir     string
	modelPath   string
	calibration string
)

var rootCmd = &cobra.Command{
	Use:   "handsynth",
	Short: "Synthetic hand keypoint dataset generator",
	Long: `handsynth poses a rigged hand model with randomised joint angles, arm
placement, lighting, skin tone and background, renders each frame on the CPU
and records the 21 hand keypoints in 3D and in pixel coordinates.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&baseDir, "base-dir", "", "Directory relative paths resolve against (default: current)")
	rootCmd.PersistentFlags().StringVarP(&modelPath, "model", "m", "", "Path to the rigged hand model (.glb/.gltf)")
	rootCmd.PersistentFlags().StringVar(&calibration, "calibration", "", "Keypoint calibration YAML (default: built-in table)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(keypointsCmd)
	rootCmd.AddCommand(inspectCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file, if any, and applies flags and defaults.
func loadConfig(flags config.Flags) (config.Config, error) {
	var cfg config.Config
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return config.Config{}, err
		}
	}
	flags.BaseDir = baseDir
	flags.Model = modelPath
	flags.Calibration = calibration
	cfg.Resolve(flags)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// loadRig imports the model and builds the keypoint reconstructor for it.
func loadRig(cfg *config.Config) (*rig.Rig, *keypoint.Reconstructor, error) {
	strategy, err := skin.StrategyByName(cfg.SkinStrategy)
	if err != nil {
		return nil, nil, err
	}
	r, err := model.Load(cfg.Model, model.Options{
		Meshes:       cfg.Meshes,
		KeypointMesh: cfg.KeypointMesh,
		Strategy:     strategy,
	})
	if err != nil {
		return nil, nil, err
	}

	table := keypoint.DefaultTable()
	if cfg.Calibration != "" {
		table, err = keypoint.LoadTable(cfg.Calibration)
		if err != nil {
			return nil, nil, err
		}
	}
	rc, err := keypoint.NewReconstructor(table)
	if err != nil {
		return nil, nil, err
	}

	logger.Debug("model loaded",
		zap.String("path", cfg.Model),
		zap.Int("bones", r.Skeleton().Len()),
		zap.Int("meshes", len(r.Meshes())),
		zap.String("strategy", strategy.Name()))
	return r, rc, nil
}
