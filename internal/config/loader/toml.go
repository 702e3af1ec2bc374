package loader

import (
	"github.com/pelletier/go-toml/v2"
)

// NewTOMLLoader creates a new TOML loader for the given path.
func NewTOMLLoader(path string) *FileLoader {
	return NewTOMLLoaderWithFS(DefaultFS(), path)
}

// NewTOMLLoaderWithFS creates a TOML loader with a custom file system.
func NewTOMLLoaderWithFS(fs FileSystem, path string) *FileLoader {
	return &FileLoader{
		fs:     fs,
		path:   path,
		format: "toml",
		parse:  toml.Unmarshal,
	}
}
