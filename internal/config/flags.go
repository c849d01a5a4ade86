package config

import (
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// listFlags take one or more values. They accept Python-style trailing values
// (--imgsz 640 480), comma lists (--imgsz 640,480) and repetition.
var listFlags = map[string]bool{
	"weights":  true,
	"imgsz":    true,
	"img":      true,
	"img-size": true,
}

// stringList is a flag.Value whose first Set replaces the default.
type stringList struct {
	vals *[]string
	set  bool
}

func (l *stringList) String() string {
	if l == nil || l.vals == nil {
		return ""
	}
	return strings.Join(*l.vals, ",")
}

func (l *stringList) Set(v string) error {
	if !l.set {
		*l.vals = nil
		l.set = true
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			*l.vals = append(*l.vals, part)
		}
	}
	return nil
}

// intList is the integer counterpart of stringList.
type intList struct {
	vals *Dims
	set  bool
}

func (l *intList) String() string {
	if l == nil || l.vals == nil {
		return ""
	}
	parts := make([]string, len(*l.vals))
	for i, v := range *l.vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}

func (l *intList) Set(v string) error {
	if !l.set {
		*l.vals = nil
		l.set = true
	}
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return fmt.Errorf("invalid integer %q", part)
		}
		*l.vals = append(*l.vals, n)
	}
	return nil
}

// flagSet binds every CLI flag onto o. The path of a --config file, if any,
// is stored in configPath.
func flagSet(o *Options, configPath *string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("detect-plate", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.Usage = func() {
		fmt.Fprintln(out, "detect-plate - annotate license plates in a directory of images")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Usage: detect-plate [flags]")
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Flags:")
		fs.PrintDefaults()
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Environment variables:")
		fmt.Fprintln(out, "  "+EnvDetectorURL+"    inference endpoint")
		fmt.Fprintln(out, "  "+EnvLogLevel+"       log level")
		fmt.Fprintln(out, "  "+EnvDevice+"          compute device")
	}

	fs.Var(&stringList{vals: &o.Weights}, "weights", "model weight location(s), passed verbatim to the detector")
	fs.StringVar(&o.Source, "source", o.Source, "input image directory")
	fs.StringVar(&o.Dest, "des", o.Dest, "output directory, created if missing")

	size := &intList{vals: &o.ImgSize}
	fs.Var(size, "imgsz", "inference size: one value (square) or height width")
	fs.Var(size, "img", "alias of --imgsz")
	fs.Var(size, "img-size", "alias of --imgsz")

	fs.Float64Var(&o.ConfThres, "conf-thres", o.ConfThres, "confidence threshold")
	fs.Float64Var(&o.IoUThres, "iou-thres", o.IoUThres, "NMS IoU threshold")
	fs.IntVar(&o.MaxDet, "max-det", o.MaxDet, "maximum detections per image")
	fs.StringVar(&o.Device, "device", o.Device, "compute device (e.g. 0 or cpu), passed to the detector")
	fs.BoolVar(&o.KeepSize, "keep-size", o.KeepSize, "annotate and save at the original image size")

	fs.StringVar(configPath, "config", "", "YAML run file")
	fs.StringVar(&o.DetectorURL, "detector-url", o.DetectorURL, "inference endpoint (default: $"+EnvDetectorURL+" or an http(s) weights URL)")
	fs.DurationVar(&o.Timeout, "timeout", o.Timeout, "timeout of a single inference request")
	fs.IntVar(&o.Workers, "workers", o.Workers, "images processed concurrently")
	fs.StringVar(&o.BoxColor, "box-color", o.BoxColor, "bounding box color (hex)")
	fs.StringVar(&o.LabelColor, "label-color", o.LabelColor, "label color (hex)")
	fs.BoolVar(&o.OCR, "ocr", o.OCR, "read plate text inside each box and add it to the label")
	fs.StringVar(&o.OCRLang, "ocr-lang", o.OCRLang, "Tesseract language for --ocr")
	fs.StringVar(&o.LogLevel, "log-level", o.LogLevel, "debug, info, warn or error (default: $"+EnvLogLevel+")")

	return fs
}

// copyFlag moves the value of a flag explicitly set on the command line from
// src to dst, so that it wins over a YAML run file.
func copyFlag(name string, dst, src *Options) {
	switch name {
	case "weights":
		dst.Weights = src.Weights
	case "source":
		dst.Source = src.Source
	case "des":
		dst.Dest = src.Dest
	case "imgsz", "img", "img-size":
		dst.ImgSize = src.ImgSize
	case "conf-thres":
		dst.ConfThres = src.ConfThres
	case "iou-thres":
		dst.IoUThres = src.IoUThres
	case "max-det":
		dst.MaxDet = src.MaxDet
	case "device":
		dst.Device = src.Device
	case "keep-size":
		dst.KeepSize = src.KeepSize
	case "detector-url":
		dst.DetectorURL = src.DetectorURL
	case "timeout":
		dst.Timeout = src.Timeout
	case "workers":
		dst.Workers = src.Workers
	case "box-color":
		dst.BoxColor = src.BoxColor
	case "label-color":
		dst.LabelColor = src.LabelColor
	case "ocr":
		dst.OCR = src.OCR
	case "ocr-lang":
		dst.OCRLang = src.OCRLang
	case "log-level":
		dst.LogLevel = src.LogLevel
	}
}

// normalizeArgs folds the bare values following a list flag into a single
// comma separated --name=v1,v2 argument.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name := strings.TrimLeft(arg, "-")
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || strings.Contains(name, "=") || !listFlags[name] {
			out = append(out, arg)
			continue
		}

		var vals []string
		for i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			vals = append(vals, args[i])
		}
		if len(vals) == 0 {
			// let the flag package report the missing value
			out = append(out, arg)
			continue
		}
		out = append(out, "--"+name+"="+strings.Join(vals, ","))
	}
	return out
}
