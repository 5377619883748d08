package buildconfig

import (
	"os"
	"path/filepath"
)

// FileSystem is the read-only view of the filesystem the resolver needs.
type FileSystem interface {
	// Exists reports whether path denotes an existing regular file.
	Exists(path string) bool
	// ResolveAbsolute resolves relative against base. Absolute inputs are
	// returned cleaned and unchanged otherwise.
	ResolveAbsolute(base, relative string) string
}

// OSFileSystem implements FileSystem on top of the host filesystem.
type OSFileSystem struct{}

func (OSFileSystem) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

func (OSFileSystem) ResolveAbsolute(base, relative string) string {
	if filepath.IsAbs(relative) {
		return filepath.Clean(relative)
	}
	return filepath.Join(base, relative)
}
