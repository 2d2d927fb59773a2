package dataset

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// Format is an output image encoding.
type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WebP Format = "webp"
)

// ParseFormat accepts jpeg (or jpg), png and webp. Empty means jpeg.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "jpeg", "jpg":
		return JPEG, nil
	case "png":
		return PNG, nil
	case "webp":
		return WebP, nil
	}
	return "", fmt.Errorf("dataset: unknown image format %q", s)
}

// Ext returns the file extension without the dot.
func (f Format) Ext() string {
	switch f {
	case PNG:
		return "png"
	case WebP:
		return "webp"
	}
	return "jpg"
}

// Encode writes img in format f. quality applies to JPEG only.
func Encode(w io.Writer, img image.Image, f Format, quality int) error {
	switch f {
	case PNG:
		return png.Encode(w, img)
	case WebP:
		return nativewebp.Encode(w, img, nil)
	default:
		if quality <= 0 {
			quality = jpeg.DefaultQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	}
}

// SaveImage encodes img to path, creating parent directories.
func SaveImage(path string, img image.Image, f Format, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("dataset: %w", err)
	}
	if err := Encode(out, img, f, quality); err != nil {
		out.Close()
		return fmt.Errorf("dataset: encode %s: %w", path, err)
	}
	return out.Close()
}
