package loader

import (
	"gopkg.in/yaml.v3"
)

// NewYAMLLoader creates a new YAML loader for the given path.
func NewYAMLLoader(path string) *FileLoader {
	return NewYAMLLoaderWithFS(DefaultFS(), path)
}

// NewYAMLLoaderWithFS creates a YAML loader with a custom file system.
func NewYAMLLoaderWithFS(fs FileSystem, path string) *FileLoader {
	return &FileLoader{
		fs:     fs,
		path:   path,
		format: "yaml",
		parse:  yaml.Unmarshal,
	}
}
