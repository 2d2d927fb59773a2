package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"handsynth/internal/batch"
	"handsynth/internal/config"
	"handsynth/internal/dataset"
	"handsynth/internal/pose"
	"handsynth/internal/texture"
)

var genFlags config.Flags

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Render a dataset",
	Long: `Samples the variation pools, renders every frame and writes
<output>/<slug>/training/rgb/NNNNNNNN.<ext>, training_xyz.json,
training_K.json, index.db and manifest.json.

The slug joins the variation counts and the dataset size, so runs with
different settings land in different directories.`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVar(&genFlags.Backgrounds, "backgrounds", "", "Directory of rdm_bg_NNNNNNNNNNNN.jpg backgrounds")
	f.StringVarP(&genFlags.OutputDir, "output", "o", "", "Output root (default: datasets)")
	f.StringVar(&genFlags.Format, "format", "", "Image format: jpeg, png or webp (default: jpeg)")
	f.IntVarP(&genFlags.Size, "size", "n", 0, "Number of frames (default: 100000)")
	f.Uint64Var(&genFlags.Seed, "seed", 0, "Sampling seed")
	f.IntVar(&genFlags.Quality, "quality", 0, "JPEG quality 1-100 (default: 90)")
	f.IntVarP(&genFlags.Workers, "workers", "w", 0, "Number of worker goroutines (default: NumCPU)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	flags := genFlags
	flags.SeedSet = cmd.Flags().Changed("seed")
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, rc, err := loadRig(&cfg)
	if err != nil {
		return err
	}
	format, err := dataset.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}

	var backgrounds *texture.Backgrounds
	if cfg.Variations.Backgrounds > 1 {
		backgrounds, err = texture.ScanBackgrounds(cfg.Backgrounds)
		if err != nil {
			logger.Warn("backgrounds disabled", zap.Error(err))
		} else {
			logger.Info("backgrounds indexed", zap.Int("count", backgrounds.Len()))
		}
	}

	settings, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	w, err := dataset.Create(dataset.Options{
		Root:    cfg.OutputDir,
		Slug:    cfg.Slug(),
		Format:  format,
		Quality: cfg.Quality,
		Seed:    cfg.Seed,
		Frames:  cfg.DatasetSize,
		Config:  settings,
	})
	if err != nil {
		return err
	}

	logger.Info("generating dataset",
		zap.String("dir", w.Layout().Dir()),
		zap.String("run", w.RunID()),
		zap.Int("frames", cfg.DatasetSize),
		zap.Int("workers", cfg.Workers),
		zap.Uint64("seed", cfg.Seed))

	sum, runErr := batch.Run(ctx, batch.Config{
		Rig:           r,
		Reconstructor: rc,
		Joints:        cfg.Joints,
		Variations:    pose.NewVariations(cfg.Variations, cfg.Seed),
		Seed:          cfg.Seed,
		Frames:        cfg.DatasetSize,
		Camera:        cfg.Camera,
		Supersample:   cfg.Supersample,
		TexResolver:   texture.NewCache(),
		Backgrounds:   backgrounds,
		Writer:        w,
		Workers:       cfg.Workers,
		Logger:        logger,
		Progress:      2 * time.Second,
	})
	if err := errors.Join(runErr, w.Close()); err != nil {
		logger.Error("generation stopped", zap.Int("frames_written", sum.Frames), zap.Error(err))
		return err
	}

	return batch.WriteManifest(filepath.Join(w.Layout().Dir(), "manifest.json"), batch.Manifest{
		RunID:              w.RunID(),
		Slug:               cfg.Slug(),
		Seed:               cfg.Seed,
		Frames:             sum.Frames,
		Variations:         cfg.Variations,
		Joints:             cfg.Joints,
		Format:             string(format),
		Width:              cfg.Camera.Width,
		Height:             cfg.Camera.Height,
		MissingBackgrounds: sum.MissingBackgrounds,
		Elapsed:            sum.Elapsed.Round(time.Millisecond).String(),
		Created:            time.Now().UTC(),
	})
}
