package fragment

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// ErrNotFound means the source has no file with the requested name.
var ErrNotFound = errors.New("fragment not found")

// Source returns the raw bytes of a generated documentation file such as
// navtreedata.js or annotated_dup.js.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// DirSource reads files from a local documentation build directory.
type DirSource struct {
	Root string
}

func NewDirSource(root string) *DirSource {
	return &DirSource{Root: root}
}

func (s *DirSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Root, filepath.FromSlash(clean)))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", clean, ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}
	return data, nil
}

// cleanName rejects names that would escape the documentation root.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("file name is required")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "\\\x00") || path.IsAbs(name) {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return path.Clean(name), nil
}
