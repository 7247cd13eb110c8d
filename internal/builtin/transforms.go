package builtin

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/hypergen/hypergen/internal/ports"
)

// RegisterAllTransforms registers every built-in codemod transform with
// registry, the transform counterpart of RegisterAll.
func RegisterAllTransforms(registry ports.TransformRegistry) error {
	transforms := map[string]ports.TransformFunc{
		"append_line":      AppendLine,
		"replace_once":     ReplaceOnce,
		"insert_after_tag": InsertAfterTag,
	}
	for name, fn := range transforms {
		if err := registry.Register(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// AppendLine appends params["line"] to source if it is not already present
// verbatim, the idempotent "add this one line" transform most kits reach
// for when editing a config or ignore file.
func AppendLine(ctx context.Context, source string, vars map[string]interface{}, params map[string]interface{}) (string, bool, error) {
	line, _ := params["line"].(string)
	if line == "" {
		return source, false, fmt.Errorf("append_line: params.line is required")
	}
	for _, existing := range strings.Split(source, "\n") {
		if existing == line {
			return source, false, nil
		}
	}
	if source != "" && !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	return source + line + "\n", true, nil
}

// ReplaceOnce replaces the first match of params["pattern"] (a regular
// expression) with params["replacement"]. Returns unchanged, ok=false when
// the pattern does not match, so callers never report a no-op edit as a
// file modification.
func ReplaceOnce(ctx context.Context, source string, vars map[string]interface{}, params map[string]interface{}) (string, bool, error) {
	pattern, _ := params["pattern"].(string)
	replacement, _ := params["replacement"].(string)
	if pattern == "" {
		return source, false, fmt.Errorf("replace_once: params.pattern is required")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return source, false, fmt.Errorf("replace_once: %w", err)
	}
	loc := re.FindStringIndex(source)
	if loc == nil {
		return source, false, nil
	}
	newSource := source[:loc[0]] + re.ReplaceAllString(source[loc[0]:loc[1]], replacement) + source[loc[1]:]
	return newSource, true, nil
}

// InsertAfterTag inserts params["content"] immediately after the first
// occurrence of params["tag"] in source, for kits editing a file that
// carries a stable marker comment (e.g. "// hypergen:imports").
func InsertAfterTag(ctx context.Context, source string, vars map[string]interface{}, params map[string]interface{}) (string, bool, error) {
	tag, _ := params["tag"].(string)
	content, _ := params["content"].(string)
	if tag == "" {
		return source, false, fmt.Errorf("insert_after_tag: params.tag is required")
	}
	idx := strings.Index(source, tag)
	if idx == -1 {
		return source, false, nil
	}
	insertAt := idx + len(tag)
	return source[:insertAt] + "\n" + content + source[insertAt:], true, nil
}
