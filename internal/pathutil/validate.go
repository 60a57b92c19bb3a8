// Package pathutil keeps run outputs inside the directories a run may write to.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideRoots is returned for paths that resolve outside every root of a Guard.
var ErrOutsideRoots = errors.New("path is outside the allowed output directories")

// RedactPath reduces a full path to .../<parent>/<basename> for safe error messages.
// For example, "/home/user/sims/march_rawLog.csv" becomes ".../sims/march_rawLog.csv".
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// Guard accepts paths that resolve inside one of its roots. Roots and
// candidates are resolved through symlinks, so a link inside a root that
// points elsewhere does not count as inside.
type Guard struct {
	roots []string
}

// NewGuard resolves dirs into a Guard. Directories that do not exist yet are
// accepted; their deepest existing ancestor is resolved instead.
func NewGuard(dirs ...string) (*Guard, error) {
	g := &Guard{}
	for _, d := range dirs {
		if d == "" {
			continue
		}
		r, err := resolve(d)
		if err != nil {
			return nil, err
		}
		g.roots = append(g.roots, r)
	}
	if len(g.roots) == 0 {
		return nil, errors.New("no output directories configured")
	}
	return g, nil
}

// OutputGuard allows the working directory and outputDir.
func OutputGuard(outputDir string) (*Guard, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewGuard(wd, outputDir)
}

// Roots returns the resolved roots.
func (g *Guard) Roots() []string { return g.roots }

// Check returns the resolved form of path, or an error wrapping
// ErrOutsideRoots when it escapes every root.
func (g *Guard) Check(path string) (string, error) {
	switch {
	case path == "":
		return "", errors.New("path is empty")
	case strings.ContainsRune(path, '\x00'):
		return "", errors.New("path contains null byte")
	}

	resolved, err := resolve(path)
	if err != nil {
		return "", err
	}
	for _, root := range g.roots {
		if within(resolved, root) {
			return resolved, nil
		}
	}
	return "", fmt.Errorf("%q: %w", RedactPath(resolved), ErrOutsideRoots)
}

// ValidateOutputPath checks path against OutputGuard(outputDir).
func ValidateOutputPath(path, outputDir string) error {
	g, err := OutputGuard(outputDir)
	if err != nil {
		return err
	}
	_, err = g.Check(path)
	return err
}

// resolve makes path absolute and evaluates symlinks on its deepest existing
// ancestor, keeping the missing tail as written.
func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("cannot resolve %s: %w", RedactPath(path), err)
	}

	var tail []string
	for cur := abs; ; {
		got, err := filepath.EvalSymlinks(cur)
		if err == nil {
			for i := len(tail) - 1; i >= 0; i-- {
				got = filepath.Join(got, tail[i])
			}
			return got, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("cannot resolve %s", RedactPath(abs))
		}
		tail = append(tail, filepath.Base(cur))
		cur = parent
	}
}

func within(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, string(os.PathSeparator))+string(os.PathSeparator))
}
