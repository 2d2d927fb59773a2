// Package texture loads hand textures and background images.
package texture

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"github.com/h2non/filetype"
)

// LoadTexture reads a JPEG, PNG or TGA file, or a base64 data URI, and
// returns an NRGBA image.
func LoadTexture(path string) (*image.NRGBA, error) {
	var raw []byte
	var err error
	if strings.HasPrefix(path, "data:") {
		raw, err = decodeDataURI(path)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", shorten(path), err)
	}
	return Decode(raw, path)
}

// Decode decodes raw image bytes. The format is sniffed from the content;
// name is used in errors and to recognise TGA, which has no magic number.
func Decode(raw []byte, name string) (*image.NRGBA, error) {
	kind, _ := filetype.Match(raw)
	r := bytes.NewReader(raw)

	var img image.Image
	var err error
	switch {
	case kind.Extension == "jpg":
		img, err = jpeg.Decode(r)
	case kind.Extension == "png":
		img, err = png.Decode(r)
	case strings.HasSuffix(strings.ToLower(name), ".tga"):
		img, err = tga.Decode(r)
	case filetype.IsImage(raw):
		return nil, fmt.Errorf("texture: %s: unsupported image format %s (want jpeg, png or tga)", shorten(name), kind.Extension)
	default:
		return nil, fmt.Errorf("texture: %s is not an image", shorten(name))
	}
	if err != nil {
		return nil, fmt.Errorf("texture: decode %s: %w", shorten(name), err)
	}
	return toNRGBA(img), nil
}

func decodeDataURI(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("unsupported data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}

func shorten(s string) string {
	if len(s) > 64 {
		return s[:61] + "..."
	}
	return s
}

// toNRGBA converts any image to NRGBA format with a zero origin.
func toNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	// Check if source has alpha
	switch src.(type) {
	case *image.YCbCr, *image.Gray:
		// No alpha, draw and set alpha to 255
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
		for i := 3; i < len(dst.Pix); i += 4 {
			dst.Pix[i] = 255
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
				i := dst.PixOffset(x-b.Min.X, y-b.Min.Y)
				dst.Pix[i] = c.R
				dst.Pix[i+1] = c.G
				dst.Pix[i+2] = c.B
				dst.Pix[i+3] = c.A
			}
		}
	}
	return dst
}
