// Package config resolves the run parameters of a plate detection batch.
//
// Values come from three layers, lowest precedence first:
//
//  1. Built-in defaults (see Defaults), optionally overridden by the
//     PLATE_* environment variables and a .env file in the working directory.
//  2. A YAML run file passed with --config.
//  3. Flags given explicitly on the command line.
//
// The merged Options are validated by Resolve into an immutable RunConfig.
// Every validation failure wraps ErrInvalid so callers can tell
// configuration mistakes apart from runtime failures.
package config

import (
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ironsheep/plate-detect/internal/imaging"
)

// ErrInvalid is wrapped by every configuration error.
var ErrInvalid = errors.New("invalid configuration")

// Size is an inference resolution in pixels.
type Size struct {
	Height int
	Width  int
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// Options holds raw, unvalidated run options. Field tags double as the keys
// accepted in a YAML run file.
type Options struct {
	Weights     []string      `yaml:"weights"`
	Source      string        `yaml:"source"`
	Dest        string        `yaml:"des"`
	ImgSize     Dims          `yaml:"imgsz"`
	ConfThres   float64       `yaml:"conf_thres"`
	IoUThres    float64       `yaml:"iou_thres"`
	MaxDet      int           `yaml:"max_det"`
	Device      string        `yaml:"device"`
	KeepSize    bool          `yaml:"keep_size"`
	DetectorURL string        `yaml:"detector_url"`
	Timeout     time.Duration `yaml:"timeout"`
	Workers     int           `yaml:"workers"`
	BoxColor    string        `yaml:"box_color"`
	LabelColor  string        `yaml:"label_color"`
	OCR         bool          `yaml:"ocr"`
	OCRLang     string        `yaml:"ocr_lang"`
	LogLevel    string        `yaml:"log_level"`
}

// Dims is a list of image dimensions. In YAML it may be written as a single
// integer or as a sequence.
type Dims []int

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Dims) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var n int
		if err := value.Decode(&n); err != nil {
			return err
		}
		*d = Dims{n}
		return nil
	}
	var list []int
	if err := value.Decode(&list); err != nil {
		return err
	}
	*d = list
	return nil
}

// Defaults returns the documented defaults of the CLI.
func Defaults() Options {
	return Options{
		Weights:    []string{"object.pt"},
		Source:     "ch_imgs",
		Dest:       "ch_out",
		ImgSize:    Dims{1280},
		ConfThres:  0.1,
		IoUThres:   0.5,
		MaxDet:     1000,
		Device:     "cpu",
		Timeout:    30 * time.Second,
		Workers:    1,
		BoxColor:   "#FF0000",
		LabelColor: "#FF00FF",
		OCRLang:    "eng",
		LogLevel:   "info",
	}
}

// Environment variables read by ApplyEnv.
const (
	EnvDetectorURL = "PLATE_DETECTOR_URL"
	EnvLogLevel    = "PLATE_LOG_LEVEL"
	EnvDevice      = "PLATE_DEVICE"
)

// ApplyEnv overrides defaults with non-empty PLATE_* variables from lookup.
func (o *Options) ApplyEnv(lookup func(string) string) {
	if v := lookup(EnvDetectorURL); v != "" {
		o.DetectorURL = v
	}
	if v := lookup(EnvLogLevel); v != "" {
		o.LogLevel = v
	}
	if v := lookup(EnvDevice); v != "" {
		o.Device = v
	}
}

// RunConfig is the validated configuration of one run. It is built once at
// startup and never modified afterwards.
type RunConfig struct {
	Weights     []string
	Source      string
	Dest        string
	ImgSize     Size
	ConfThres   float64
	IoUThres    float64
	MaxDet      int
	Device      string
	KeepSize    bool
	DetectorURL string
	Timeout     time.Duration
	Workers     int
	BoxColor    color.RGBA
	LabelColor  color.RGBA
	OCR         bool
	OCRLang     string
	LogLevel    slog.Level
}

// ResolveSize expands a one-element size to a square and takes two elements
// as (height, width). Any other arity, or a non-positive dimension, is an error.
func ResolveSize(dims []int) (Size, error) {
	var s Size
	switch len(dims) {
	case 1:
		s = Size{Height: dims[0], Width: dims[0]}
	case 2:
		s = Size{Height: dims[0], Width: dims[1]}
	default:
		return Size{}, fmt.Errorf("%w: imgsz expects 1 or 2 values, got %d", ErrInvalid, len(dims))
	}
	if s.Height <= 0 || s.Width <= 0 {
		return Size{}, fmt.Errorf("%w: imgsz dimensions must be positive, got %v", ErrInvalid, dims)
	}
	return s, nil
}

// Resolve validates o and returns the RunConfig it describes.
func Resolve(o Options) (RunConfig, error) {
	size, err := ResolveSize(o.ImgSize)
	if err != nil {
		return RunConfig{}, err
	}

	weights := make([]string, 0, len(o.Weights))
	for _, w := range o.Weights {
		if w = strings.TrimSpace(w); w != "" {
			weights = append(weights, w)
		}
	}
	if len(weights) == 0 {
		return RunConfig{}, fmt.Errorf("%w: at least one weights location is required", ErrInvalid)
	}

	if err := checkUnit("conf-thres", o.ConfThres); err != nil {
		return RunConfig{}, err
	}
	if err := checkUnit("iou-thres", o.IoUThres); err != nil {
		return RunConfig{}, err
	}
	if o.MaxDet <= 0 {
		return RunConfig{}, fmt.Errorf("%w: max-det must be positive, got %d", ErrInvalid, o.MaxDet)
	}
	if o.Workers <= 0 {
		return RunConfig{}, fmt.Errorf("%w: workers must be positive, got %d", ErrInvalid, o.Workers)
	}
	if o.Timeout <= 0 {
		return RunConfig{}, fmt.Errorf("%w: timeout must be positive, got %s", ErrInvalid, o.Timeout)
	}
	if strings.TrimSpace(o.Source) == "" {
		return RunConfig{}, fmt.Errorf("%w: source directory is empty", ErrInvalid)
	}
	if strings.TrimSpace(o.Dest) == "" {
		return RunConfig{}, fmt.Errorf("%w: destination directory is empty", ErrInvalid)
	}

	boxColor, err := imaging.ParseColor(o.BoxColor)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: box-color: %v", ErrInvalid, err)
	}
	labelColor, err := imaging.ParseColor(o.LabelColor)
	if err != nil {
		return RunConfig{}, fmt.Errorf("%w: label-color: %v", ErrInvalid, err)
	}

	level, err := parseLevel(o.LogLevel)
	if err != nil {
		return RunConfig{}, err
	}

	return RunConfig{
		Weights:     weights,
		Source:      o.Source,
		Dest:        o.Dest,
		ImgSize:     size,
		ConfThres:   o.ConfThres,
		IoUThres:    o.IoUThres,
		MaxDet:      o.MaxDet,
		Device:      o.Device,
		KeepSize:    o.KeepSize,
		DetectorURL: strings.TrimSpace(o.DetectorURL),
		Timeout:     o.Timeout,
		Workers:     o.Workers,
		BoxColor:    boxColor,
		LabelColor:  labelColor,
		OCR:         o.OCR,
		OCRLang:     o.OCRLang,
		LogLevel:    level,
	}, nil
}

// EnsureDest creates the destination directory and any missing parents.
func (c RunConfig) EnsureDest() error {
	if err := os.MkdirAll(c.Dest, 0755); err != nil {
		return fmt.Errorf("failed to create destination %s: %w", c.Dest, err)
	}
	return nil
}

func checkUnit(name string, v float64) error {
	// NaN fails both comparisons
	if !(v >= 0 && v <= 1) {
		return fmt.Errorf("%w: %s must be within [0, 1], got %v", ErrInvalid, name, v)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalid, s)
}
