package artifact

import (
	"os"
	"path/filepath"
)

// Workspace is a temporary directory removed by Close.
type Workspace struct {
	dir string
}

// NewWorkspace creates a fresh directory under root. An empty root uses the
// system temporary directory.
func NewWorkspace(root, prefix string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, prefix)
	if err != nil {
		return nil, &IOError{Op: "mkdir", Path: filepath.Join(root, prefix+"*"), Err: err}
	}
	return &Workspace{dir: dir}, nil
}

// Dir returns the workspace directory.
func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Close removes the workspace and everything in it.
func (w *Workspace) Close() error {
	Cleanup(w.dir)
	return nil
}
