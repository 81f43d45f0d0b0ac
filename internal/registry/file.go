// SPDX-License-Identifier: Apache-2.0

package registry

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

// IndexFile is the name of the local report index.
const IndexFile = "reports.yaml"

type index struct {
	Reports []Artifact `yaml:"reports"`
}

// FileRegistry keeps a YAML index of reports in a directory.
type FileRegistry struct {
	dir string
	mu  sync.Mutex
}

func NewFileRegistry(dir string) (*FileRegistry, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("registry directory is required")
	}
	return &FileRegistry{dir: dir}, nil
}

func (r *FileRegistry) path() string {
	return filepath.Join(r.dir, IndexFile)
}

func (r *FileRegistry) Register(ctx context.Context, artifact Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	idx, err := r.load()
	if err != nil {
		return err
	}
	artifact.Location = r.path()
	idx.Reports = append(idx.Reports, artifact)

	data, err := yaml.Marshal(idx)
	if err != nil {
		return fmt.Errorf("encode report index: %w", err)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create registry directory: %w", err)
	}
	return writeFileAtomic(r.path(), data)
}

// List returns the registered reports, oldest first.
func (r *FileRegistry) List(ctx context.Context) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, err := r.load()
	if err != nil {
		return nil, err
	}
	return idx.Reports, nil
}

func (r *FileRegistry) load() (index, error) {
	data, err := os.ReadFile(r.path())
	if os.IsNotExist(err) {
		return index{}, nil
	}
	if err != nil {
		return index{}, fmt.Errorf("read report index: %w", err)
	}
	var idx index
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return index{}, fmt.Errorf("failed to unmarshal report index: %w", err)
	}
	return idx, nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".index-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}
