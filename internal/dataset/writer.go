package dataset

import (
	"encoding/json"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"

	"handsynth/internal/camera"
	"handsynth/internal/keypoint"
	"handsynth/internal/mathutil"
	"handsynth/internal/pose"
)

const flushEvery = 256

// Options configures a dataset writer.
type Options struct {
	Root    string
	Slug    string
	Format  Format
	Quality int
	Seed    uint64
	Frames  int
	// Config is stored with the run in the index.
	Config json.RawMessage
}

// Record is everything stored for one frame besides the image.
type Record struct {
	Frame       pose.Frame
	Keypoints   [keypoint.Count]mathutil.Vec3
	Annotations []camera.Annotation
	K           [3][3]float64
}

// Writer produces one dataset: images, training_xyz.json, training_K.json
// and index.db. WriteImage may be called concurrently; Append must be called
// once per frame in frame order.
type Writer struct {
	layout  Layout
	quality int
	runID   string

	xyz   *arrayWriter
	k     *arrayWriter
	index *Index

	pending []FrameRecord
	next    int
}

// Create prepares the directory tree, truncates the annotation files and
// records a new run in the index.
func Create(opts Options) (*Writer, error) {
	l := Layout{Root: opts.Root, Slug: opts.Slug, Format: opts.Format}
	if l.Format == "" {
		l.Format = JPEG
	}
	if err := l.Prepare(); err != nil {
		return nil, err
	}

	w := &Writer{layout: l, quality: opts.Quality, runID: uuid.NewString()}
	var err error
	if w.xyz, err = createArray(l.XYZPath()); err != nil {
		return nil, err
	}
	if w.k, err = createArray(l.KPath()); err != nil {
		w.xyz.close()
		return nil, err
	}
	if w.index, err = OpenIndex(l.IndexPath()); err != nil {
		w.xyz.close()
		w.k.close()
		return nil, err
	}
	run := Run{ID: w.runID, Slug: l.Slug, Seed: opts.Seed, Frames: opts.Frames, Config: opts.Config}
	if err := w.index.BeginRun(run); err != nil {
		w.closeAll()
		return nil, err
	}
	return w, nil
}

// Layout returns the dataset layout.
func (w *Writer) Layout() Layout { return w.layout }

// RunID identifies this run in the index.
func (w *Writer) RunID() string { return w.runID }

// Written returns the number of frames appended.
func (w *Writer) Written() int { return w.next }

// WriteImage encodes the image of frame i.
func (w *Writer) WriteImage(i int, img image.Image) error {
	return SaveImage(w.layout.ImagePath(i), img, w.layout.Format, w.quality)
}

// Append records the annotations of the next frame.
func (w *Writer) Append(r *Record) error {
	if r.Frame.Index != w.next {
		return fmt.Errorf("dataset: append frame %d, expected %d", r.Frame.Index, w.next)
	}
	// Encode everything first so a bad record leaves both arrays untouched.
	ann, err := json.Marshal(r.Annotations)
	if err != nil {
		return fmt.Errorf("dataset: encode frame %d: %w", r.Frame.Index, err)
	}
	k, err := json.Marshal(r.K)
	if err != nil {
		return fmt.Errorf("dataset: encode frame %d: %w", r.Frame.Index, err)
	}
	params, err := json.Marshal(r.Frame)
	if err != nil {
		return fmt.Errorf("dataset: encode frame %d: %w", r.Frame.Index, err)
	}
	kps, err := json.Marshal(r.Keypoints)
	if err != nil {
		return fmt.Errorf("dataset: encode frame %d: %w", r.Frame.Index, err)
	}

	if err := w.xyz.appendRaw(ann); err != nil {
		return fmt.Errorf("dataset: write annotations: %w", err)
	}
	if err := w.k.appendRaw(k); err != nil {
		return fmt.Errorf("dataset: write intrinsics: %w", err)
	}
	w.pending = append(w.pending, FrameRecord{
		RunID:       w.runID,
		Frame:       r.Frame.Index,
		Image:       w.layout.ImageName(r.Frame.Index),
		Params:      params,
		Keypoints:   kps,
		Annotations: ann,
	})
	w.next++

	if len(w.pending) >= flushEvery {
		return w.flush()
	}
	return nil
}

func (w *Writer) flush() error {
	if len(w.pending) == 0 {
		return nil
	}
	if err := w.index.AddFrames(w.pending); err != nil {
		return err
	}
	w.pending = w.pending[:0]
	return nil
}

// Close flushes the index and terminates the JSON files. The files are
// valid even if fewer frames than planned were appended.
func (w *Writer) Close() error {
	err := w.flush()
	return errors.Join(err, w.closeAll())
}

func (w *Writer) closeAll() error {
	return errors.Join(w.xyz.close(), w.k.close(), w.index.Close())
}
