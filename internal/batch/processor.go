// Package batch renders a dataset with a pool of workers.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lucasb-eyer/go-colorful"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"handsynth/internal/camera"
	"handsynth/internal/dataset"
	"handsynth/internal/keypoint"
	"handsynth/internal/pose"
	"handsynth/internal/postprocess"
	"handsynth/internal/raster"
	"handsynth/internal/rig"
	"handsynth/internal/texture"
)

// Config holds all shared resources for a batch run.
type Config struct {
	Rig           *rig.Rig
	Reconstructor *keypoint.Reconstructor
	Joints        []string
	Variations    *pose.Variations
	Seed          uint64
	Frames        int

	Camera      camera.Camera
	Supersample int
	TexResolver texture.Resolver
	// Backgrounds may be nil, in which case every frame is drawn on Fill.
	Backgrounds *texture.Backgrounds
	Fill        color.Color

	Writer   *dataset.Writer
	Workers  int
	Logger   *zap.Logger
	Progress time.Duration
}

// Summary reports a finished run.
type Summary struct {
	Frames             int
	MissingBackgrounds int
	Elapsed            time.Duration
}

// Run generates cfg.Frames frames. Frames are sampled in order by one
// goroutine, rendered by cfg.Workers workers, each on its own rig clone, and
// appended to the writer in frame order, so the dataset does not depend on
// the number of workers. The first error cancels the run.
func Run(ctx context.Context, cfg Config) (Summary, error) {
	if err := cfg.check(); err != nil {
		return Summary{}, err
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := max(cfg.Workers, 1)
	fill := cfg.Fill
	if fill == nil {
		fill = color.Black
	}

	var processed, missing atomic.Int64
	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	var reporter sync.WaitGroup
	if cfg.Progress > 0 {
		reporter.Add(1)
		go func() {
			defer reporter.Done()
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						rate := float64(p) / time.Since(start).Seconds()
						log.Info("progress",
							zap.Int64("frames", p),
							zap.Int("total", cfg.Frames),
							zap.Float64("frames_per_sec", rate))
					}
				}
			}
		}()
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan pose.Frame, workers*2)
	results := make(chan *dataset.Record, workers*2)

	// Sampler
	g.Go(func() error {
		defer close(jobs)
		s := pose.NewSampler(cfg.Variations, cfg.Seed)
		for i := 0; i < cfg.Frames; i++ {
			select {
			case jobs <- s.Next(i):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	// Worker pool
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			fw := &frameWorker{cfg: &cfg, rig: cfg.Rig.Clone(), proj: cfg.Camera.Projector(), fill: fill, log: log, missing: &missing}
			for f := range jobs {
				if err := ctx.Err(); err != nil {
					return err
				}
				rec, err := fw.process(&f)
				if err != nil {
					return err
				}
				select {
				case results <- rec:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	g.Go(func() error {
		wg.Wait()
		close(results)
		return nil
	})

	// Collector: records arrive out of order.
	g.Go(func() error {
		pending := make(map[int]*dataset.Record)
		next := 0
		for rec := range results {
			pending[rec.Frame.Index] = rec
			for {
				r, ok := pending[next]
				if !ok {
					break
				}
				if err := cfg.Writer.Append(r); err != nil {
					return err
				}
				delete(pending, next)
				next++
				processed.Add(1)
			}
		}
		if next != cfg.Frames && ctx.Err() == nil {
			return fmt.Errorf("batch: %d of %d frames written", next, cfg.Frames)
		}
		return nil
	})

	err := g.Wait()
	close(done)
	reporter.Wait()

	sum := Summary{
		Frames:             int(processed.Load()),
		MissingBackgrounds: int(missing.Load()),
		Elapsed:            time.Since(start),
	}
	if err != nil {
		return sum, err
	}
	log.Info("batch complete",
		zap.Int("frames", sum.Frames),
		zap.Int("missing_backgrounds", sum.MissingBackgrounds),
		zap.Duration("elapsed", sum.Elapsed))
	return sum, nil
}

func (cfg *Config) check() error {
	var errs []error
	if cfg.Rig == nil {
		errs = append(errs, errors.New("no rig"))
	}
	if cfg.Reconstructor == nil {
		errs = append(errs, errors.New("no keypoint reconstructor"))
	}
	if cfg.Variations == nil {
		errs = append(errs, errors.New("no variations"))
	}
	if cfg.Writer == nil {
		errs = append(errs, errors.New("no dataset writer"))
	}
	if cfg.Frames < 0 {
		errs = append(errs, fmt.Errorf("negative frame count %d", cfg.Frames))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("batch: %w", err)
	}
	return nil
}

// frameWorker owns one rig clone.
type frameWorker struct {
	cfg     *Config
	rig     *rig.Rig
	proj    camera.Projector
	fill    color.Color
	log     *zap.Logger
	missing *atomic.Int64
}

func (w *frameWorker) process(f *pose.Frame) (*dataset.Record, error) {
	cfg := w.cfg
	if err := pose.Apply(w.rig, f, cfg.Joints); err != nil {
		return nil, err
	}
	kps, err := w.rig.Keypoints(cfg.Reconstructor)
	if err != nil {
		return nil, fmt.Errorf("batch: frame %d: %w", f.Index, err)
	}

	img, err := w.render(f)
	if err != nil {
		return nil, fmt.Errorf("batch: frame %d: %w", f.Index, err)
	}
	frame := postprocess.Over(img, w.background(f), w.fill)
	if err := cfg.Writer.WriteImage(f.Index, frame); err != nil {
		return nil, fmt.Errorf("batch: frame %d: %w", f.Index, err)
	}

	return &dataset.Record{
		Frame:       *f,
		Keypoints:   kps,
		Annotations: w.proj.AnnotateAll(kps[:]),
		K:           camera.Intrinsics(),
	}, nil
}

func (w *frameWorker) render(f *pose.Frame) (*image.NRGBA, error) {
	cfg := w.cfg
	meshes := make([]raster.Mesh, 0, len(w.rig.Meshes()))
	for i, m := range w.rig.Meshes() {
		s, err := w.rig.SkinnedMesh(i)
		if err != nil {
			return nil, err
		}
		var tex *image.NRGBA
		if cfg.TexResolver != nil {
			tex = cfg.TexResolver.Resolve(m.Texture)
		}
		meshes = append(meshes, raster.MeshFromRig(m, s, tex))
	}

	lc := raster.DefaultLightConfig(cfg.Camera.Position)
	lc.Light = raster.PointLight{
		Position:  f.Light.Position,
		Color:     colorful.Color{R: f.Light.Color[0], G: f.Light.Color[1], B: f.Light.Color[2]},
		Intensity: f.Light.Intensity,
	}
	lc.SpecPow = f.Shininess
	lc.SkinTone = f.SkinTone

	img, err := raster.Render(&raster.Scene{
		Meshes:      meshes,
		Camera:      cfg.Camera,
		Light:       lc,
		Supersample: cfg.Supersample,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Supersample > 1 {
		img = postprocess.Downsample(img, cfg.Camera.Width, cfg.Camera.Height)
	}
	return img, nil
}

// background loads and fits the frame's background. Backgrounds are not
// cached: a dataset draws from thousands of them. A missing file, or a
// sampled background with no background index, is counted as missing and
// the frame falls back to the fill colour.
func (w *frameWorker) background(f *pose.Frame) image.Image {
	if f.Background < 0 {
		return nil
	}
	if w.cfg.Backgrounds == nil {
		w.missing.Add(1)
		w.log.Debug("no background index",
			zap.Int("frame", f.Index),
			zap.Int("background", f.Background))
		return nil
	}
	path, _ := w.cfg.Backgrounds.Path(f.Background)
	img, err := texture.LoadTexture(path)
	if err != nil {
		w.missing.Add(1)
		w.log.Warn("background unavailable",
			zap.Int("frame", f.Index),
			zap.Int("background", f.Background),
			zap.Error(err))
		return nil
	}
	return texture.FitBackground(img, w.cfg.Camera.Width, w.cfg.Camera.Height)
}
