package imaging

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// ErrUnsupportedFormat is returned by Save when the destination extension
// does not map to a known encoder.
var ErrUnsupportedFormat = errors.New("unsupported image format")

// ImageInfo describes a decoded pixel buffer.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Channels is the number of color channels of the decoded buffer:
	// 1 for grayscale, 3 for color without alpha, 4 with alpha.
	Channels int `json:"channels"`
}

// Load decodes the image file at path.
//
// PNG, JPEG, BMP, GIF and TIFF are supported. EXIF orientation tags are
// applied so the returned buffer is upright, the way most image viewers
// present the file.
//
// The error wraps the underlying open or decode failure. A file that exists
// but holds no decodable image yields a decode error, never a nil image.
func Load(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("failed to decode image: empty %dx%d buffer", bounds.Dx(), bounds.Dy())
	}
	return img, nil
}

// Save encodes img to path. The format is chosen from the file extension
// (case-insensitive); JPEG output uses quality 95.
func Save(img image.Image, path string) error {
	format, err := imaging.FormatFromFilename(path)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, strings.ToLower(filepath.Ext(path)))
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	if err := imaging.Encode(f, img, format, imaging.JPEGQuality(95)); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to encode image: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Info reports the dimensions and channel count of img.
func Info(img image.Image) ImageInfo {
	bounds := img.Bounds()
	return ImageInfo{
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Channels: channels(img),
	}
}

func channels(img image.Image) int {
	switch m := img.(type) {
	case *image.Gray, *image.Gray16, *image.Alpha, *image.Alpha16:
		return 1
	case *image.RGBA, *image.NRGBA, *image.RGBA64, *image.NRGBA64, *image.NYCbCrA:
		return 4
	case *image.Paletted:
		for _, c := range m.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return 4
			}
		}
		return 3
	}
	if img.ColorModel() == color.GrayModel || img.ColorModel() == color.Gray16Model {
		return 1
	}
	return 3
}
