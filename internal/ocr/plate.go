package ocr

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// ErrUnavailable is returned when the binary was built without OCR support.
var ErrUnavailable = errors.New("ocr support not compiled in (build with -tags tesseract)")

// PlateWhitelist lists the characters a plate may contain.
const PlateWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789-"

// regionScale enlarges small crops before recognition.
const regionScale = 2.0

// PlateReader recognizes the plate text shown in img.
type PlateReader interface {
	ReadPlate(img image.Image) (string, error)
}

// NormalizePlate upper-cases text and drops every character that is not in
// PlateWhitelist.
func NormalizePlate(text string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(text) {
		if strings.ContainsRune(PlateWhitelist, r) {
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-")
}

// ReadRegion crops region out of img, clamped to the image bounds, and runs
// reader on the crop.
func ReadRegion(reader PlateReader, img image.Image, region image.Rectangle) (string, error) {
	region = region.Canon().Intersect(img.Bounds())
	if region.Empty() {
		return "", fmt.Errorf("region %v outside image bounds %v", region, img.Bounds())
	}

	cropped, err := imaging.Crop(img, region, regionScale)
	if err != nil {
		return "", err
	}

	text, err := reader.ReadPlate(cropped)
	if err != nil {
		return "", err
	}
	return NormalizePlate(text), nil
}
