// Package loader reads configuration sources into generic maps.
//
// File loaders parse TOML and YAML documents; the environment loader maps
// prefixed variables onto dotted paths. A missing file is not an error:
// loaders return a nil map so defaults stay in effect.
package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Loader is the interface for configuration loaders.
type Loader interface {
	// Load reads configuration from the source and returns a map.
	// Returns nil, nil if the source doesn't exist (not an error).
	Load() (map[string]any, error)
}

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// parseFunc decodes a document into a map.
type parseFunc func(data []byte, v any) error

// FileLoader loads a configuration file in a fixed format.
type FileLoader struct {
	fs     FileSystem
	path   string
	format string
	parse  parseFunc
}

// ForPath returns a loader chosen by the file extension.
func ForPath(path string) (*FileLoader, error) {
	return ForPathWithFS(DefaultFS(), path)
}

// ForPathWithFS is ForPath with a custom file system.
func ForPathWithFS(fsys FileSystem, path string) (*FileLoader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		return NewTOMLLoaderWithFS(fsys, path), nil
	case ".yaml", ".yml":
		return NewYAMLLoaderWithFS(fsys, path), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Path returns the file the loader reads.
func (l *FileLoader) Path() string { return l.path }

// Load reads configuration from the configured path.
func (l *FileLoader) Load() (map[string]any, error) {
	data, err := l.fs.ReadFile(l.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil // File doesn't exist, not an error
		}
		return nil, fmt.Errorf("reading config file %s: %w", l.path, err)
	}
	return l.Parse(l.path, data)
}

// Parse decodes data. source names the input in errors.
func (l *FileLoader) Parse(source string, data []byte) (map[string]any, error) {
	var config map[string]any
	if err := l.parse(data, &config); err != nil {
		return nil, &ParseError{
			Path:    source,
			Format:  l.format,
			Message: err.Error(),
			Err:     err,
		}
	}
	return config, nil
}

// DeepMerge recursively merges src into dst.
// Values in src override values in dst.
// Maps are merged recursively; other types are replaced.
func DeepMerge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for key, srcVal := range src {
		srcMap, srcIsMap := srcVal.(map[string]any)
		dstMap, dstIsMap := dst[key].(map[string]any)
		if srcIsMap && dstIsMap {
			dst[key] = DeepMerge(dstMap, srcMap)
			continue
		}
		dst[key] = srcVal
	}
	return dst
}
