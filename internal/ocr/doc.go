// Package ocr reads the characters of a license plate inside a detected box.
//
// The reader wraps the Tesseract OCR engine (via gosseract/v2). It is an
// optional enrichment of the detection labels: the pipeline works without it.
//
// # Prerequisites
//
// The Tesseract reader is compiled only with the "tesseract" build tag,
// because gosseract links against the native library:
//
//	go build -tags tesseract ./cmd/detect-plate
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Without the tag, NewTesseract returns ErrUnavailable.
//
// # Plate Text
//
// Tesseract is run in single-line mode with a whitelist of upper case
// letters, digits and '-'. The recognized text is normalized by NormalizePlate:
// upper-cased, with every other character removed.
//
// # Performance Considerations
//
// OCR is computationally expensive. ReadRegion crops each box and enlarges it
// before recognition, which helps on small plates but costs time per box.
package ocr
