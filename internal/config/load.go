package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoadDotEnv loads a .env file from the working directory into the process
// environment. A missing file is not an error; existing variables win.
func LoadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// ReadFile merges the YAML run file at path into o. Keys absent from the
// file leave the corresponding field untouched.
func ReadFile(path string, o *Options) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: failed to read config file: %v", ErrInvalid, err)
	}
	if err := yaml.Unmarshal(data, o); err != nil {
		return fmt.Errorf("%w: failed to parse config file %s: %v", ErrInvalid, path, err)
	}
	return nil
}

// Load builds the RunConfig for args (without the program name). lookup
// resolves environment variables; usage and parse errors are written to out.
//
// A -h/--help request is returned as flag.ErrHelp unchanged.
func Load(args []string, lookup func(string) string, out io.Writer) (RunConfig, error) {
	base := Defaults()
	base.ApplyEnv(lookup)

	cli := base
	cli.Weights = append([]string(nil), base.Weights...)
	cli.ImgSize = append(Dims(nil), base.ImgSize...)

	var configPath string
	fset := flagSet(&cli, &configPath, out)
	if err := fset.Parse(normalizeArgs(args)); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return RunConfig{}, err
		}
		return RunConfig{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if fset.NArg() > 0 {
		return RunConfig{}, fmt.Errorf("%w: unexpected arguments %v", ErrInvalid, fset.Args())
	}

	merged := base
	if configPath != "" {
		if err := ReadFile(configPath, &merged); err != nil {
			return RunConfig{}, err
		}
	}
	fset.Visit(func(f *flag.Flag) {
		copyFlag(f.Name, &merged, &cli)
	})

	return Resolve(merged)
}
