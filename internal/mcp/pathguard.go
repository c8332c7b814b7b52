package mcp

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines tool paths to a root directory
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard for root
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("root directory cannot be empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root directory: %w", err)
	}
	return &PathGuard{root: filepath.Clean(abs)}, nil
}

// Root returns the confinement directory
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve returns the absolute form of path. Relative paths are taken from the
// root. A path that leaves the root, directly or through a symlink, is
// rejected.
func (g *PathGuard) Resolve(path string) (string, error) {
	path = strings.ReplaceAll(path, "\x00", "")
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}
	abs = filepath.Clean(abs)

	realRoot := g.root
	if resolved, err := filepath.EvalSymlinks(g.root); err == nil {
		realRoot = resolved
	}
	real := abs
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		real = resolved
	}

	lexicalOk := within(abs, g.root) || within(abs, realRoot)
	realOk := within(real, g.root) || within(real, realRoot)
	if !lexicalOk || !realOk {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return abs, nil
}

func within(path, dir string) bool {
	if path == dir {
		return true
	}
	if !strings.HasSuffix(dir, string(filepath.Separator)) {
		dir += string(filepath.Separator)
	}
	return strings.HasPrefix(path, dir)
}

// exists reports whether path names an existing file
func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
