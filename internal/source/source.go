// Package source enumerates the candidate images of a batch.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrSource is wrapped when the source directory cannot be listed.
var ErrSource = errors.New("cannot read source directory")

// Extensions are the supported image file extensions, lower case.
var Extensions = []string{".png", ".jpg", ".jpeg", ".bmp"}

// Candidate is a directory entry not yet confirmed to be a decodable image.
type Candidate struct {
	// Name is the file name inside the source directory.
	Name string

	// Path is the source directory joined with Name.
	Path string

	// Dir is true when the entry is a directory.
	Dir bool

	// Supported is true for regular entries whose extension is in Extensions.
	Supported bool
}

// IsImageFile reports whether name has a supported image extension,
// ignoring case.
func IsImageFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Enumerate lists dir without recursing and classifies every entry.
// Entries are returned in file name order.
func Enumerate(dir string) ([]Candidate, error) {
	fi, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSource, err)
	}
	if !fi.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrSource, dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSource, err)
	}

	candidates := make([]Candidate, 0, len(entries))
	for _, entry := range entries {
		c := Candidate{
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Dir:  entry.IsDir(),
		}
		c.Supported = !c.Dir && IsImageFile(c.Name)
		candidates = append(candidates, c)
	}
	return candidates, nil
}
