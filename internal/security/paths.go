package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoot is returned for paths that escape the confinement root.
var ErrOutsideRoot = errors.New("path is outside the working directory")

// PathGuard confines tool paths to a root directory.
type PathGuard struct {
	root string
}

// NewPathGuard returns a guard rooted at root, resolving symlinks in root itself.
func NewPathGuard(root string) (*PathGuard, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &PathGuard{root: filepath.Clean(abs)}, nil
}

// Root returns the confinement root.
func (g *PathGuard) Root() string {
	return g.root
}

// Resolve turns a relative or absolute path into an absolute path inside the
// root. Symlinks are resolved, and for paths that do not exist yet the nearest
// existing parent is resolved instead.
func (g *PathGuard) Resolve(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("null byte in path")
	}

	if !filepath.IsAbs(path) {
		path = filepath.Join(g.root, path)
	}
	path = filepath.Clean(path)

	resolved, err := resolveExisting(path)
	if err != nil {
		return "", err
	}
	if !within(resolved, g.root) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, path)
	}
	return resolved, nil
}

// Rel returns path relative to the root, for display.
func (g *PathGuard) Rel(path string) string {
	rel, err := filepath.Rel(g.root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func resolveExisting(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}
	if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}
	resolvedParent, err := resolveExisting(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}

func within(target, base string) bool {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

// SanitizeFilename replaces characters that could change the directory a
// file name resolves into.
func SanitizeFilename(name string) string {
	r := strings.NewReplacer("\x00", "_", "..", "_", "/", "_", "\\", "_", ":", "_")
	return r.Replace(name)
}
