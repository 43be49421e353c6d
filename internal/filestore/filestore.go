package filestore

import (
	"os"
	"path/filepath"
)

// Store is the only way handlers touch the filesystem.
type Store interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte) error
}

// Dir resolves names against a base directory. Names are joined as given:
// a name holding ".." segments can reach outside the directory.
type Dir string

func (d Dir) path(name string) string {
	return filepath.Join(string(d), name)
}

func (d Dir) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(d.path(name))
}

// WriteFile creates the file or truncates an existing one.
func (d Dir) WriteFile(name string, data []byte) error {
	return os.WriteFile(d.path(name), data, 0o644)
}
