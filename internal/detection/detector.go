package detection

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// ErrModelLoad is wrapped by errors raised while constructing a detector.
// No image can be processed without a model, so callers treat it as fatal.
var ErrModelLoad = errors.New("failed to load model")

// Detector locates objects in an image.
//
// Detect returns the detections together with the buffer inference ran on
// (processed). When scaleToOriginal is true the boxes are expressed in the
// coordinate space of img; otherwise they are in the coordinate space of
// processed. Callers must annotate the buffer that matches the flag.
type Detector interface {
	Detect(ctx context.Context, img image.Image, scaleToOriginal bool) (dets []Detection, processed image.Image, err error)
}

// Backend runs the model on an image that is already at inference size and
// returns boxes in that image's coordinates. Backends may or may not apply
// the confidence threshold and detection limit themselves.
type Backend interface {
	Infer(ctx context.Context, img image.Image) ([]Detection, error)
	Close() error
}

// Params are the model parameters shared by every backend.
type Params struct {
	// Height and Width are the inference resolution.
	Height int
	Width  int

	// Weights are passed verbatim to the backend.
	Weights []string

	// Device is an opaque compute device identifier ("cpu", "0", ...).
	Device string

	IoUThres  float64
	ConfThres float64
	MaxDet    int
}

// Adapter implements Detector on top of a Backend. It resizes the input to
// the inference size, enforces the confidence threshold and detection
// limit, and maps boxes back to the original image on request.
type Adapter struct {
	params  Params
	backend Backend
}

// NewAdapter wraps backend with p.
func NewAdapter(p Params, backend Backend) (*Adapter, error) {
	if p.Height <= 0 || p.Width <= 0 {
		return nil, fmt.Errorf("%w: invalid inference size %dx%d", ErrModelLoad, p.Width, p.Height)
	}
	if p.MaxDet <= 0 {
		return nil, fmt.Errorf("%w: max detections must be positive", ErrModelLoad)
	}
	if backend == nil {
		return nil, fmt.Errorf("%w: no backend", ErrModelLoad)
	}
	return &Adapter{params: p, backend: backend}, nil
}

// Detect implements Detector.
//
// Detections keep the order reported by the backend. Boxes are scaled
// linearly per axis: x by originalWidth/Width and y by originalHeight/Height.
func (a *Adapter) Detect(ctx context.Context, img image.Image, scaleToOriginal bool) ([]Detection, image.Image, error) {
	resized, err := imaging.Resize(img, a.params.Width, a.params.Height)
	if err != nil {
		return nil, nil, err
	}

	raw, err := a.backend.Infer(ctx, resized)
	if err != nil {
		return nil, nil, fmt.Errorf("inference failed: %w", err)
	}

	bounds := img.Bounds()
	sx := float64(bounds.Dx()) / float64(a.params.Width)
	sy := float64(bounds.Dy()) / float64(a.params.Height)

	dets := make([]Detection, 0, len(raw))
	for _, d := range raw {
		if d.Confidence < a.params.ConfThres {
			continue
		}
		if len(dets) == a.params.MaxDet {
			break
		}
		if scaleToOriginal {
			d.Box = d.Box.Scale(sx, sy)
		}
		dets = append(dets, d)
	}

	return dets, resized, nil
}

// Close releases the backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}

var _ Detector = (*Adapter)(nil)
