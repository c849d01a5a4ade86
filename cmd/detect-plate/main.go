package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"

	"github.com/ironsheep/plate-detect/internal/config"
	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/ocr"
	"github.com/ironsheep/plate-detect/internal/pipeline"
	"github.com/ironsheep/plate-detect/internal/render"
	"github.com/ironsheep/plate-detect/internal/source"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Exit codes
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("detect-plate %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Getenv, os.Stderr))
}

// run executes one batch and returns the process exit code. Per-image
// failures never change the exit code.
func run(ctx context.Context, args []string, getenv func(string) string, stderr io.Writer) int {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(stderr, "warning: %v\n", err)
	}

	cfg, err := config.Load(args, getenv, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "detect-plate: %v\n", err)
		return exitConfig
	}

	runID := uuid.NewString()
	log := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.LogLevel})).
		With("run", runID)

	log.Info("Starting detect-plate",
		"version", Version,
		"source", cfg.Source,
		"des", cfg.Dest,
		"imgsz", cfg.ImgSize.String(),
		"keep_size", cfg.KeepSize,
		"workers", cfg.Workers)

	if err := cfg.EnsureDest(); err != nil {
		log.Error("Cannot prepare output directory", "error", err)
		return exitFatal
	}

	candidates, err := source.Enumerate(cfg.Source)
	if err != nil {
		log.Error("Cannot enumerate source", "error", err)
		return exitFatal
	}

	det, err := detection.New(ctx, detection.Params{
		Height:    cfg.ImgSize.Height,
		Width:     cfg.ImgSize.Width,
		Weights:   cfg.Weights,
		Device:    cfg.Device,
		IoUThres:  cfg.IoUThres,
		ConfThres: cfg.ConfThres,
		MaxDet:    cfg.MaxDet,
	}, cfg.DetectorURL, detection.RemoteOptions{
		Timeout: cfg.Timeout,
		RunID:   runID,
	})
	if err != nil {
		log.Error("Cannot load detector", "error", err)
		return exitFatal
	}
	defer det.Close()

	driver := &pipeline.Driver{
		Detector: det,
		Dest:     cfg.Dest,
		KeepSize: cfg.KeepSize,
		Style: render.Style{
			BoxColor:   cfg.BoxColor,
			LabelColor: cfg.LabelColor,
		},
		Workers: cfg.Workers,
		Logger:  log,
	}

	if cfg.OCR {
		reader, err := ocr.NewTesseract(cfg.OCRLang)
		if err != nil {
			log.Warn("Plate text reading disabled", "error", err)
		} else {
			defer reader.Close()
			driver.Reader = reader
		}
	}

	driver.Run(ctx, candidates)
	return exitOK
}
