// Package pipeline runs detection over a batch of candidate images and
// writes annotated copies to a destination directory.
//
// Each candidate moves through Enumerated, Loaded, Detected, Annotated and
// Persisted, or stops early as Skipped or Failed. Candidates are independent:
// a problem with one image is recorded in its Outcome and the batch
// continues. Nothing is retried.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
	"github.com/ironsheep/plate-detect/internal/ocr"
	"github.com/ironsheep/plate-detect/internal/render"
	"github.com/ironsheep/plate-detect/internal/source"
)

var (
	// ErrNotImage marks candidates without a supported image extension.
	ErrNotImage = errors.New("not an image file")

	// ErrNotRegular marks directory entries that are not regular files.
	ErrNotRegular = errors.New("not a regular file")
)

// Driver processes candidates. The zero value is not usable: Detector and
// Dest must be set.
type Driver struct {
	// Detector finds plates. It must be safe for concurrent use when
	// Workers > 1.
	Detector detection.Detector

	// Dest is the output directory. It must exist.
	Dest string

	// KeepSize annotates and saves at the original resolution instead of the
	// inference resolution.
	KeepSize bool

	Style render.Style

	// Reader, when set, reads the plate text inside every box and appends
	// it to the label.
	Reader ocr.PlateReader

	// Workers is the number of images processed at once. Values below 2
	// process strictly sequentially.
	Workers int

	// Logger receives per-image records. Nil means slog.Default().
	Logger *slog.Logger
}

func (d *Driver) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

// Run processes every candidate and returns the outcomes in candidate order.
//
// When ctx is canceled no further candidates are started; candidates already
// in progress finish and are included in the summary.
func (d *Driver) Run(ctx context.Context, candidates []source.Candidate) Summary {
	log := d.logger()
	outcomes := make([]*Outcome, len(candidates))

	if d.Workers < 2 {
		for i, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			o := d.Process(ctx, c)
			outcomes[i] = &o
		}
	} else {
		var g errgroup.Group
		g.SetLimit(d.Workers)
		for i, c := range candidates {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				o := d.Process(ctx, c)
				outcomes[i] = &o
				return nil
			})
		}
		g.Wait()
	}

	var summary Summary
	for _, o := range outcomes {
		if o != nil {
			summary.add(*o)
		}
	}
	if n := len(candidates) - len(summary.Outcomes); n > 0 {
		log.Warn("Run interrupted", "unprocessed", n)
	}

	log.Info("Batch complete",
		"persisted", summary.Persisted,
		"skipped", summary.Skipped,
		"failed", summary.Failed)
	return summary
}

// Process runs one candidate through load, detect, annotate and persist.
// It never panics on bad input and reports every problem in the Outcome.
func (d *Driver) Process(ctx context.Context, c source.Candidate) Outcome {
	log := d.logger()
	out := Outcome{Name: c.Name}

	if c.Dir {
		log.Warn("Skipped non-image file", "name", c.Name, "reason", ErrNotRegular)
		out.Status, out.Err = Skipped, ErrNotRegular
		return out
	}
	if !c.Supported {
		log.Warn("Skipped non-image file", "name", c.Name)
		out.Status, out.Err = Skipped, ErrNotImage
		return out
	}

	img, err := imaging.Load(c.Path)
	if err != nil {
		log.Warn("Cannot read image", "path", c.Path, "error", err)
		out.Status, out.Err = Skipped, err
		return out
	}

	info := imaging.Info(img)
	log.Debug("Running detection on image",
		"name", c.Name,
		"width", info.Width,
		"height", info.Height,
		"channels", info.Channels)

	dets, processed, err := d.Detector.Detect(ctx, img, d.KeepSize)
	if err != nil {
		log.Error("Detection failed", "name", c.Name, "error", err)
		out.Status, out.Err = Failed, err
		return out
	}

	// the canvas must match the coordinate space requested from the detector
	canvas := processed
	if d.KeepSize {
		canvas = img
	}

	if d.Reader != nil {
		dets = d.readPlates(canvas, c.Name, dets)
	}

	annotated := render.Annotate(canvas, dets, d.Style)
	for _, det := range dets {
		log.Debug("Detected", "label", det.Label, "confidence", det.Confidence, "box", det.Box.String())
	}
	out.Detections = dets

	outputPath := filepath.Join(d.Dest, c.Name)
	if err := imaging.Save(annotated, outputPath); err != nil {
		log.Error("Cannot save result", "path", outputPath, "error", err)
		out.Status, out.Err = Failed, fmt.Errorf("persist %s: %w", outputPath, err)
		return out
	}

	log.Info("Saved result", "path", outputPath, "detections", len(dets))
	out.Status, out.OutputPath = Persisted, outputPath
	return out
}

// readPlates returns a copy of dets whose labels carry the recognized plate
// text. Recognition failures keep the plain label.
func (d *Driver) readPlates(canvas image.Image, name string, dets []detection.Detection) []detection.Detection {
	log := d.logger()
	bounds := canvas.Bounds()

	labeled := make([]detection.Detection, len(dets))
	copy(labeled, dets)
	for i := range labeled {
		x1, y1, x2, y2, ok := labeled[i].Box.Clip(bounds.Dx(), bounds.Dy())
		if !ok {
			log.Debug("Box outside image", "name", name, "box", labeled[i].Box.String())
			continue
		}
		region := image.Rect(x1, y1, x2+1, y2+1).Add(bounds.Min)

		text, err := ocr.ReadRegion(d.Reader, canvas, region)
		if err != nil {
			log.Warn("Cannot read plate text", "name", name, "box", labeled[i].Box.String(), "error", err)
			continue
		}
		if text != "" {
			labeled[i].Label = labeled[i].Label + " " + text
		}
	}
	return labeled
}
