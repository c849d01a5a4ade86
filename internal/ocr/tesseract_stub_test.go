//go:build !tesseract

package ocr

import (
	"errors"
	"image"
	"testing"
)

func TestNewTesseract_Unavailable(t *testing.T) {
	if _, err := NewTesseract("eng"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	var reader Tesseract
	if _, err := reader.ReadPlate(image.NewRGBA(image.Rect(0, 0, 1, 1))); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
	if err := reader.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}
