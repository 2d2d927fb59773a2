package texture

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/transform"
	"github.com/h2non/filetype"
)

// BackgroundName returns the file name of background image n.
func BackgroundName(n int) string {
	return fmt.Sprintf("rdm_bg_%012d.jpg", n)
}

// Backgrounds maps background numbers to files in one directory.
type Backgrounds struct {
	dir     string
	entries map[int]string
}

// ScanBackgrounds indexes every rdm_bg_*.jpg in dir whose header is a
// recognised image type. Other files are ignored.
func ScanBackgrounds(dir string) (*Backgrounds, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("texture: scan backgrounds %s: %w", dir, err)
	}
	bg := &Backgrounds{dir: dir, entries: make(map[int]string)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		var n int
		if _, err := fmt.Sscanf(e.Name(), "rdm_bg_%d.jpg", &n); err != nil {
			continue
		}
		if !strings.EqualFold(e.Name(), BackgroundName(n)) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if ok, err := isImage(path); err != nil || !ok {
			continue
		}
		bg.entries[n] = path
	}
	return bg, nil
}

func isImage(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	head := make([]byte, 261)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		return false, err
	}
	return filetype.IsImage(head[:n]), nil
}

// Path returns the file for background n. Unindexed numbers still map to
// their conventional path so a missing file surfaces as a load error.
func (b *Backgrounds) Path(n int) (string, bool) {
	if p, ok := b.entries[n]; ok {
		return p, true
	}
	return filepath.Join(b.dir, BackgroundName(n)), false
}

// Len returns the number of indexed backgrounds.
func (b *Backgrounds) Len() int { return len(b.entries) }

// FitBackground scales img to cover a w×h frame and crops the centre.
func FitBackground(img image.Image, w, h int) *image.RGBA {
	b := img.Bounds()
	sw, sh := b.Dx(), b.Dy()
	if sw == 0 || sh == 0 {
		return image.NewRGBA(image.Rect(0, 0, w, h))
	}
	scale := max(float64(w)/float64(sw), float64(h)/float64(sh))
	rw := max(w, int(float64(sw)*scale+0.5))
	rh := max(h, int(float64(sh)*scale+0.5))

	resized := transform.Resize(img, rw, rh, transform.Linear)
	x0 := (rw - w) / 2
	y0 := (rh - h) / 2
	return transform.Crop(resized, image.Rect(x0, y0, x0+w, y0+h))
}
