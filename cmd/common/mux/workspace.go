package mux

import (
	"fmt"
	"os"
	"path/filepath"
)

// Workspace is a temporary directory holding intermediate files for one
// render. Close removes it and everything in it.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh directory under parent, or the OS temp dir
// when parent is empty.
func NewWorkspace(parent, prefix string) (*Workspace, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0755); err != nil {
			return nil, fmt.Errorf("creating temp parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, prefix+"-*")
	if err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// WriteFile creates name in the workspace and fills it with write.
func (w *Workspace) WriteFile(name string, write func(f *os.File) error) (string, error) {
	path := w.Path(name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", name, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing %s: %w", name, err)
	}
	return path, nil
}

func (w *Workspace) Close() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("removing workspace %s: %w", w.Dir, err)
	}
	return nil
}
