package config

import (
	"bytes"
	"errors"
	"flag"
	"image/color"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func noEnv(string) string { return "" }

func envMap(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestResolveSize(t *testing.T) {
	tests := []struct {
		name    string
		dims    []int
		want    Size
		wantErr bool
	}{
		{"square", []int{640}, Size{Height: 640, Width: 640}, false},
		{"height width", []int{480, 640}, Size{Height: 480, Width: 640}, false},
		{"empty", nil, Size{}, true},
		{"three values", []int{1, 2, 3}, Size{}, true},
		{"zero", []int{0}, Size{}, true},
		{"negative width", []int{480, -1}, Size{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveSize(tt.dims)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalid) {
					t.Fatalf("expected ErrInvalid, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveSize(%v) = %+v, want %+v", tt.dims, got, tt.want)
			}
		})
	}
}

func TestSizeString(t *testing.T) {
	if got := (Size{Height: 480, Width: 640}).String(); got != "640x480" {
		t.Errorf("String() = %q, want 640x480", got)
	}
}

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(Defaults())
	if err != nil {
		t.Fatalf("Resolve(Defaults()) failed: %v", err)
	}

	if len(cfg.Weights) != 1 || cfg.Weights[0] != "object.pt" {
		t.Errorf("Weights = %v, want [object.pt]", cfg.Weights)
	}
	if cfg.Source != "ch_imgs" || cfg.Dest != "ch_out" {
		t.Errorf("Source/Dest = %q/%q, want ch_imgs/ch_out", cfg.Source, cfg.Dest)
	}
	if cfg.ImgSize != (Size{Height: 1280, Width: 1280}) {
		t.Errorf("ImgSize = %+v, want 1280x1280", cfg.ImgSize)
	}
	if cfg.ConfThres != 0.1 || cfg.IoUThres != 0.5 || cfg.MaxDet != 1000 {
		t.Errorf("thresholds = %v/%v/%d, want 0.1/0.5/1000", cfg.ConfThres, cfg.IoUThres, cfg.MaxDet)
	}
	if cfg.Device != "cpu" || cfg.KeepSize {
		t.Errorf("Device/KeepSize = %q/%v, want cpu/false", cfg.Device, cfg.KeepSize)
	}
	if cfg.BoxColor != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("BoxColor = %v, want red", cfg.BoxColor)
	}
	if cfg.LabelColor != (color.RGBA{R: 255, B: 255, A: 255}) {
		t.Errorf("LabelColor = %v, want magenta", cfg.LabelColor)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Errorf("LogLevel = %v, want info", cfg.LogLevel)
	}
}

func TestResolve_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(o *Options)
	}{
		{"no weights", func(o *Options) { o.Weights = nil }},
		{"blank weights", func(o *Options) { o.Weights = []string{" ", ""} }},
		{"conf above one", func(o *Options) { o.ConfThres = 1.5 }},
		{"conf negative", func(o *Options) { o.ConfThres = -0.1 }},
		{"conf NaN", func(o *Options) { o.ConfThres = math.NaN() }},
		{"iou above one", func(o *Options) { o.IoUThres = 2 }},
		{"max det zero", func(o *Options) { o.MaxDet = 0 }},
		{"workers zero", func(o *Options) { o.Workers = 0 }},
		{"timeout zero", func(o *Options) { o.Timeout = 0 }},
		{"empty source", func(o *Options) { o.Source = "" }},
		{"empty dest", func(o *Options) { o.Dest = "  " }},
		{"bad box color", func(o *Options) { o.BoxColor = "#GG0000" }},
		{"bad label color", func(o *Options) { o.LabelColor = "" }},
		{"bad log level", func(o *Options) { o.LogLevel = "loud" }},
		{"bad size", func(o *Options) { o.ImgSize = Dims{1, 2, 3} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Defaults()
			tt.modify(&o)
			if _, err := Resolve(o); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestResolve_ThresholdBounds(t *testing.T) {
	o := Defaults()
	o.ConfThres = 0
	o.IoUThres = 1
	if _, err := Resolve(o); err != nil {
		t.Errorf("thresholds 0 and 1 should be accepted: %v", err)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ImgSize.Width != 1280 || cfg.Timeout != 30*time.Second || cfg.Workers != 1 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestLoad_Flags(t *testing.T) {
	args := []string{
		"--weights", "a.pt", "b.pt",
		"--source", "in",
		"--des", "out",
		"--imgsz", "480", "640",
		"--conf-thres", "0.25",
		"--iou-thres", "0.45",
		"--max-det", "5",
		"--device", "0",
		"--keep-size",
		"--workers", "4",
		"--timeout", "5s",
		"--box-color", "00FF00",
		"--log-level", "debug",
	}
	cfg, err := Load(args, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if strings.Join(cfg.Weights, ",") != "a.pt,b.pt" {
		t.Errorf("Weights = %v, want [a.pt b.pt]", cfg.Weights)
	}
	if cfg.Source != "in" || cfg.Dest != "out" {
		t.Errorf("Source/Dest = %q/%q", cfg.Source, cfg.Dest)
	}
	if cfg.ImgSize != (Size{Height: 480, Width: 640}) {
		t.Errorf("ImgSize = %+v, want h=480 w=640", cfg.ImgSize)
	}
	if cfg.ConfThres != 0.25 || cfg.IoUThres != 0.45 || cfg.MaxDet != 5 {
		t.Errorf("thresholds = %v/%v/%d", cfg.ConfThres, cfg.IoUThres, cfg.MaxDet)
	}
	if cfg.Device != "0" || !cfg.KeepSize || cfg.Workers != 4 || cfg.Timeout != 5*time.Second {
		t.Errorf("unexpected options: %+v", cfg)
	}
	if cfg.BoxColor != (color.RGBA{G: 255, A: 255}) {
		t.Errorf("BoxColor = %v, want green", cfg.BoxColor)
	}
	if cfg.LogLevel != slog.LevelDebug {
		t.Errorf("LogLevel = %v, want debug", cfg.LogLevel)
	}
}

func TestLoad_SizeForms(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Size
	}{
		{"single", []string{"--imgsz", "640"}, Size{640, 640}},
		{"trailing pair", []string{"--imgsz", "480", "640"}, Size{480, 640}},
		{"comma pair", []string{"--imgsz=480,640"}, Size{480, 640}},
		{"repeated", []string{"--imgsz", "480", "--imgsz", "640"}, Size{480, 640}},
		{"alias img", []string{"--img", "320"}, Size{320, 320}},
		{"alias img-size", []string{"-img-size", "320", "160"}, Size{320, 160}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.args, noEnv, &bytes.Buffer{})
			if err != nil {
				t.Fatalf("Load(%v) failed: %v", tt.args, err)
			}
			if cfg.ImgSize != tt.want {
				t.Errorf("ImgSize = %+v, want %+v", cfg.ImgSize, tt.want)
			}
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"three sizes", []string{"--imgsz", "1", "2", "3"}},
		{"non numeric size", []string{"--imgsz", "big"}},
		{"unknown flag", []string{"--nope"}},
		{"bad float", []string{"--conf-thres", "high"}},
		{"positional", []string{"--source", "in", "extra"}},
		{"missing config file", []string{"--config", "/nonexistent/run.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.args, noEnv, &bytes.Buffer{})
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoad_Help(t *testing.T) {
	var out bytes.Buffer
	_, err := Load([]string{"--help"}, noEnv, &out)
	if !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("expected flag.ErrHelp, got %v", err)
	}
	if !strings.Contains(out.String(), "-imgsz") {
		t.Errorf("usage output does not list flags:\n%s", out.String())
	}
}

func TestLoad_Env(t *testing.T) {
	env := envMap(map[string]string{
		EnvDetectorURL: "http://localhost:9000",
		EnvLogLevel:    "warn",
		EnvDevice:      "1",
	})
	cfg, err := Load(nil, env, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.DetectorURL != "http://localhost:9000" {
		t.Errorf("DetectorURL = %q", cfg.DetectorURL)
	}
	if cfg.LogLevel != slog.LevelWarn {
		t.Errorf("LogLevel = %v, want warn", cfg.LogLevel)
	}
	if cfg.Device != "1" {
		t.Errorf("Device = %q, want 1", cfg.Device)
	}

	// flags still win over the environment
	cfg, err = Load([]string{"--device", "cpu"}, env, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Device != "cpu" {
		t.Errorf("Device = %q, want cpu", cfg.Device)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	yml := `weights: [plates.pt]
source: yaml_in
des: yaml_out
imgsz: 416
conf_thres: 0.3
timeout: 10s
workers: 2
keep_size: true
`
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load([]string{"--config", path, "--source", "flag_in"}, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Weights) != 1 || cfg.Weights[0] != "plates.pt" {
		t.Errorf("Weights = %v, want [plates.pt]", cfg.Weights)
	}
	if cfg.Source != "flag_in" {
		t.Errorf("Source = %q, explicit flag should win over file", cfg.Source)
	}
	if cfg.Dest != "yaml_out" {
		t.Errorf("Dest = %q, want yaml_out", cfg.Dest)
	}
	if cfg.ImgSize != (Size{416, 416}) {
		t.Errorf("ImgSize = %+v, want 416x416", cfg.ImgSize)
	}
	if cfg.ConfThres != 0.3 || cfg.Timeout != 10*time.Second || cfg.Workers != 2 || !cfg.KeepSize {
		t.Errorf("unexpected file options: %+v", cfg)
	}
	// untouched keys keep their defaults
	if cfg.MaxDet != 1000 {
		t.Errorf("MaxDet = %d, want default 1000", cfg.MaxDet)
	}
}

func TestLoad_ConfigFileSizeSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("imgsz: [360, 640]\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	cfg, err := Load([]string{"--config", path}, noEnv, &bytes.Buffer{})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.ImgSize != (Size{Height: 360, Width: 640}) {
		t.Errorf("ImgSize = %+v, want h=360 w=640", cfg.ImgSize)
	}
}

func TestLoad_ConfigFileInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	if err := os.WriteFile(path, []byte("imgsz: {a: b}\n"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if _, err := Load([]string{"--config", path}, noEnv, &bytes.Buffer{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestNormalizeArgs(t *testing.T) {
	got := normalizeArgs([]string{"--weights", "a", "b", "--source", "s", "--imgsz", "1", "2", "--keep-size"})
	want := []string{"--weights=a,b", "--source", "s", "--imgsz=1,2", "--keep-size"}
	if strings.Join(got, " ") != strings.Join(want, " ") {
		t.Errorf("normalizeArgs = %v, want %v", got, want)
	}

	// a list flag without values is left for the flag package to reject
	got = normalizeArgs([]string{"--imgsz"})
	if len(got) != 1 || got[0] != "--imgsz" {
		t.Errorf("normalizeArgs = %v, want [--imgsz]", got)
	}
}

func TestEnsureDest(t *testing.T) {
	cfg, err := Resolve(Defaults())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	cfg.Dest = filepath.Join(t.TempDir(), "a", "b")

	if err := cfg.EnsureDest(); err != nil {
		t.Fatalf("EnsureDest failed: %v", err)
	}
	fi, err := os.Stat(cfg.Dest)
	if err != nil || !fi.IsDir() {
		t.Fatalf("destination not created: %v", err)
	}

	// existing directory is fine
	if err := cfg.EnsureDest(); err != nil {
		t.Errorf("EnsureDest on existing dir failed: %v", err)
	}
}

func TestEnsureDest_FileInTheWay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	cfg := RunConfig{Dest: filepath.Join(path, "sub")}
	if err := cfg.EnsureDest(); err == nil {
		t.Error("expected error when a file blocks the destination")
	}
}
