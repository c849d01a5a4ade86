//go:build !tesseract

package ocr

import "image"

// Tesseract is unavailable in builds without the tesseract tag.
type Tesseract struct{}

// NewTesseract returns ErrUnavailable.
func NewTesseract(_ string) (*Tesseract, error) {
	return nil, ErrUnavailable
}

// ReadPlate returns ErrUnavailable.
func (t *Tesseract) ReadPlate(_ image.Image) (string, error) {
	return "", ErrUnavailable
}

// Close does nothing.
func (t *Tesseract) Close() error {
	return nil
}
