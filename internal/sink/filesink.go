// Package sink implements the default ports.FileSink: an os.WriteFile-backed
// writer that enforces path containment under a project root and supports
// the overwrite/skip/prompt/inject write modes templates declare via
// frontmatter.
package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
)

// Confirmer is asked before an overwrite when mode is WritePrompt. Kept
// separate from ports.Prompter since it asks a yes/no, not a typed variable.
type Confirmer func(path string) (bool, error)

type fileSink struct {
	projectRoot string
	confirm     Confirmer
}

// New builds the default FileSink rooted at projectRoot. confirm may be nil,
// in which case WritePrompt degrades to WriteSkip (never clobber silently).
func New(projectRoot string, confirm Confirmer) ports.FileSink {
	return &fileSink{projectRoot: projectRoot, confirm: confirm}
}

func (s *fileSink) Write(ctx context.Context, path, body string, mode ports.WriteMode) (bool, bool, error) {
	full, err := securePath(s.projectRoot, path)
	if err != nil {
		return false, false, err
	}

	_, statErr := os.Stat(full)
	exists := statErr == nil

	if exists {
		switch mode {
		case ports.WriteSkip:
			return false, false, nil
		case ports.WritePrompt:
			if s.confirm == nil {
				return false, false, nil
			}
			ok, err := s.confirm(path)
			if err != nil {
				return false, false, fmt.Errorf("%w: confirm failed for %s: %v", hgerrors.ErrTool, path, err)
			}
			if !ok {
				return false, false, nil
			}
		case ports.WriteInject:
			return false, false, fmt.Errorf("%w: inject mode must use Inject, not Write", hgerrors.ErrTool)
		case ports.WriteOverwrite:
			// fall through to write
		}
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return false, false, fmt.Errorf("%w: creating parent dirs for %s: %v", hgerrors.ErrTool, path, err)
	}
	if err := os.WriteFile(full, []byte(body), 0o644); err != nil {
		return false, false, fmt.Errorf("%w: writing %s: %v", hgerrors.ErrTool, path, err)
	}

	return !exists, exists, nil
}

// Inject splices body into an existing file relative to an after/before
// anchor line. It is idempotent: if body already appears anywhere in the
// file, Inject reports modified=false and leaves the file untouched.
func (s *fileSink) Inject(ctx context.Context, path, body, after, before string) (bool, error) {
	full, err := securePath(s.projectRoot, path)
	if err != nil {
		return false, err
	}

	existing, err := os.ReadFile(full)
	if err != nil {
		return false, fmt.Errorf("%w: injecting into %s: %v", hgerrors.ErrTool, path, err)
	}
	content := string(existing)

	if strings.Contains(content, body) {
		return false, nil
	}

	lines := strings.Split(content, "\n")
	anchor := after
	insertAfter := true
	if anchor == "" {
		anchor = before
		insertAfter = false
	}
	if anchor == "" {
		return false, fmt.Errorf("%w: inject requires an after or before anchor for %s", hgerrors.ErrTool, path)
	}

	idx := -1
	for i, line := range lines {
		if strings.Contains(line, anchor) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false, fmt.Errorf("%w: anchor %q not found in %s", hgerrors.ErrTool, anchor, path)
	}

	insertAt := idx + 1
	if !insertAfter {
		insertAt = idx
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:insertAt]...)
	out = append(out, body)
	out = append(out, lines[insertAt:]...)

	if err := os.WriteFile(full, []byte(strings.Join(out, "\n")), 0o644); err != nil {
		return false, fmt.Errorf("%w: writing injected %s: %v", hgerrors.ErrTool, path, err)
	}
	return true, nil
}

func (s *fileSink) Delete(ctx context.Context, path string) (bool, error) {
	full, err := securePath(s.projectRoot, path)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: stat %s: %v", hgerrors.ErrTool, path, err)
	}
	if err := os.Remove(full); err != nil {
		return false, fmt.Errorf("%w: deleting %s: %v", hgerrors.ErrTool, path, err)
	}
	return true, nil
}
