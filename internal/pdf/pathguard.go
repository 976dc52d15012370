package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathGuard confines file access to one directory tree.
type PathGuard struct {
	root string
}

// NewPathGuard creates a guard rooted at root. The root need not exist yet.
func NewPathGuard(root string) (*PathGuard, error) {
	if root == "" {
		return nil, fmt.Errorf("configured directory cannot be empty")
	}
	return &PathGuard{root: root}, nil
}

// Root returns the configured directory.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve turns path, relative to the root when not absolute, into a cleaned absolute
// path inside the root.
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
	within, err := g.Contains(abs)
	if err != nil {
		return "", fmt.Errorf("path validation failed: %w", err)
	}
	if !within {
		return "", fmt.Errorf("path is outside configured directory: %s", path)
	}
	return abs, nil
}

// Contains reports whether path lies inside the root, following symlinks on both sides.
// A root that does not exist yet admits every path.
func (g *PathGuard) Contains(path string) (bool, error) {
	if _, err := os.Stat(g.root); os.IsNotExist(err) {
		return true, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve path: %w", err)
	}
	absRoot, err := filepath.Abs(g.root)
	if err != nil {
		return false, fmt.Errorf("failed to resolve configured directory: %w", err)
	}

	cleanPath := filepath.Clean(absPath)
	cleanRoot := filepath.Clean(absRoot)

	realPath := cleanPath
	if info, err := os.Lstat(cleanPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		if resolved, err := filepath.EvalSymlinks(cleanPath); err == nil {
			realPath = resolved
		}
	}
	realRoot := cleanRoot
	if resolved, err := filepath.EvalSymlinks(cleanRoot); err == nil {
		realRoot = resolved
	}

	inside := func(p string) bool {
		for _, root := range []string{cleanRoot, realRoot} {
			if p == root || strings.HasPrefix(p, strings.TrimSuffix(root, string(filepath.Separator))+string(filepath.Separator)) {
				return true
			}
		}
		return false
	}
	return inside(cleanPath) && inside(realPath), nil
}
