// Package files manages the knowledge-base directory: the .pl files
// that sessions consult. The directory is bind-mounted into the SWISH
// container at /data, so file names written here resolve directly as
// consult targets inside the interpreter.
package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/angrysky56/docker-swish-mcp/internal/logging"
)

// Info describes one knowledge-base file.
type Info struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store is a flat directory of .pl knowledge-base files.
type Store struct {
	dir string
}

// NewStore creates a store rooted at dir, creating the directory if
// needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create knowledge-base dir %s: %w", dir, err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the store's root directory.
func (s *Store) Dir() string { return s.dir }

// Create writes a new knowledge-base file. The .pl extension is forced
// so the file is always a valid consult target. An existing file is an
// error unless overwrite is set.
func (s *Store) Create(name, content string, overwrite bool) (string, error) {
	name, err := s.normalize(name)
	if err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("file %s already exists (use overwrite to replace)", name)
		}
	}

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		logging.FilesError("failed to write %s: %v", name, err)
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	logging.Files("wrote %s (%d bytes)", name, len(content))
	return name, nil
}

// Read returns the content of a knowledge-base file.
func (s *Store) Read(name string) (string, error) {
	name, err := s.normalize(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", name, err)
	}
	return string(data), nil
}

// Delete removes a knowledge-base file.
func (s *Store) Delete(name string) error {
	name, err := s.normalize(name)
	if err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		return fmt.Errorf("failed to delete %s: %w", name, err)
	}
	logging.Files("deleted %s", name)
	return nil
}

// List returns all .pl files in the store, sorted by name.
func (s *Store) List() ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge-base dir: %w", err)
	}

	infos := make([]Info, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pl") {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		infos = append(infos, Info{
			Name:     entry.Name(),
			Size:     fi.Size(),
			Modified: fi.ModTime(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// normalize forces the .pl extension and rejects names that escape the
// store directory.
func (s *Store) normalize(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("file name is empty")
	}
	if !strings.HasSuffix(name, ".pl") {
		name += ".pl"
	}
	if filepath.Base(name) != name {
		return "", fmt.Errorf("file name %q must not contain path separators", name)
	}
	return name, nil
}
