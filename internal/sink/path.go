package sink

import (
	"fmt"
	"path/filepath"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
)

// securePath validates and resolves path to ensure it stays within
// projectRoot, rejecting absolute paths, traversal attempts, and symlink
// escapes. It resolves every symlink in the path chain so intermediate
// symlink attacks can't smuggle a write outside the root.
//
// Adapted from the teacher's agent tool dispatcher, which ran the same
// check before writing a Dockerfile/compose file; here it backs every
// FileSink.Write/Inject/Delete call, since the template handler's
// frontmatter `to` is attacker-influenceable (a kit author's template).
func securePath(projectRoot, path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: absolute path %q", hgerrors.ErrUnsafePath, path)
	}

	realRoot, err := filepath.EvalSymlinks(projectRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve project root: %w", err)
	}
	realRoot, err = filepath.Abs(realRoot)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute root path: %w", err)
	}

	fullPath := filepath.Join(projectRoot, filepath.Clean(path))

	realPath, err := filepath.EvalSymlinks(fullPath)
	if err != nil {
		parentDir := filepath.Dir(fullPath)
		realParent, perr := filepath.EvalSymlinks(parentDir)
		if perr != nil {
			realParent, perr = resolveExistingParent(parentDir)
			if perr != nil {
				return "", fmt.Errorf("failed to resolve path: %w", perr)
			}
		}
		realParent, _ = filepath.Abs(realParent)
		if !isPathWithin(realParent, realRoot) {
			return "", fmt.Errorf("%w: %q escapes project root via symlink", hgerrors.ErrUnsafePath, path)
		}
		return fullPath, nil
	}

	realPath, _ = filepath.Abs(realPath)
	if !isPathWithin(realPath, realRoot) {
		return "", fmt.Errorf("%w: %q escapes project root via symlink", hgerrors.ErrUnsafePath, path)
	}
	return fullPath, nil
}

func resolveExistingParent(path string) (string, error) {
	for {
		parent := filepath.Dir(path)
		if parent == path {
			return filepath.EvalSymlinks(parent)
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			return resolved, nil
		}
		path = parent
	}
}

func isPathWithin(path, base string) bool {
	if !strings.HasSuffix(base, string(filepath.Separator)) {
		base += string(filepath.Separator)
	}
	return path == strings.TrimSuffix(base, string(filepath.Separator)) ||
		strings.HasPrefix(path, base)
}
