package source

import (
	"os"
	"path/filepath"
)

// FileReader reads a whole file. Implementations make a single attempt.
type FileReader interface {
	ReadFile(path string) ([]byte, error)
}

// OSFiles reads from the local file system.
type OSFiles struct{}

func (OSFiles) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Bundle maps a resource name to a readable path.
type Bundle interface {
	Lookup(name string) (string, bool)
}

// DirBundle searches Dirs in order for a regular file named name.
type DirBundle struct {
	Dirs []string
}

func (b DirBundle) Lookup(name string) (string, bool) {
	for _, dir := range b.Dirs {
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
