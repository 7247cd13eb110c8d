// Package render implements the default ports.TemplateEngine over
// text/template, with a YAML frontmatter block for per-template write
// routing and an {{ai ...}} func for deferred-resolution variables.
package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
)

const frontmatterDelim = "---"

type engine struct{}

// New returns the default TemplateEngine.
func New() ports.TemplateEngine {
	return &engine{}
}

func (e *engine) Render(ctx context.Context, sourcePath string, vars map[string]interface{}, collectMode bool, collector ports.Collector) (ports.RenderedTemplate, error) {
	raw, err := os.ReadFile(sourcePath)
	if err != nil {
		return ports.RenderedTemplate{}, fmt.Errorf("%w: reading %s: %v", hgerrors.ErrTemplateInvalid, sourcePath, err)
	}

	fm, body, err := splitFrontmatter(string(raw))
	if err != nil {
		return ports.RenderedTemplate{}, err
	}

	rendered, err := execute(body, vars, collectMode, collector)
	if err != nil {
		return ports.RenderedTemplate{}, err
	}

	var renderedFm *ports.Frontmatter
	if fm != nil {
		renderedFm = fm
		if fm.To != "" {
			to, err := execute(fm.To, vars, collectMode, collector)
			if err != nil {
				return ports.RenderedTemplate{}, fmt.Errorf("%w: rendering frontmatter 'to': %v", hgerrors.ErrTemplateInvalid, err)
			}
			renderedFm.To = to
		}
	}

	return ports.RenderedTemplate{Body: rendered, Frontmatter: renderedFm}, nil
}

// frontmatterSource mirrors the subset of ports.Frontmatter that is
// authored in YAML at the top of a template file.
type frontmatterSource struct {
	To        string `yaml:"to"`
	Inject    bool   `yaml:"inject"`
	After     string `yaml:"after"`
	Before    string `yaml:"before"`
	Condition string `yaml:"if"`
}

// splitFrontmatter peels a leading `---\n...\n---\n` YAML block off raw, if
// present, and returns the remaining body untouched. A template with no
// frontmatter block is rendered as a bare body with a nil Frontmatter.
func splitFrontmatter(raw string) (*ports.Frontmatter, string, error) {
	trimmed := strings.TrimLeft(raw, "\n")
	if !strings.HasPrefix(trimmed, frontmatterDelim) {
		return nil, raw, nil
	}

	rest := trimmed[len(frontmatterDelim):]
	rest = strings.TrimPrefix(rest, "\n")

	end := strings.Index(rest, "\n"+frontmatterDelim)
	if end == -1 {
		return nil, raw, nil
	}

	block := rest[:end]
	body := rest[end+len("\n"+frontmatterDelim):]
	body = strings.TrimPrefix(body, "\n")

	var src frontmatterSource
	if err := yaml.Unmarshal([]byte(block), &src); err != nil {
		return nil, "", fmt.Errorf("%w: %v", hgerrors.ErrFrontmatterInvalid, err)
	}

	return &ports.Frontmatter{
		To:        src.To,
		Inject:    src.Inject,
		After:     src.After,
		Before:    src.Before,
		Condition: src.Condition,
	}, body, nil
}

func execute(tmplContent string, vars map[string]interface{}, collectMode bool, collector ports.Collector) (string, error) {
	tmpl, err := template.New("template").Funcs(funcMap(vars, collectMode, collector)).Parse(tmplContent)
	if err != nil {
		return "", fmt.Errorf("%w: %v", hgerrors.ErrTemplateInvalid, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("%w: execution failed: %v", hgerrors.ErrTemplateInvalid, err)
	}

	return buf.String(), nil
}

// aiHint is a tagged context or example string for an {{ai}} call, built by
// the aiContext/aiExample funcs so the collector can file it into the right
// AiEntry list.
type aiHint struct {
	example bool
	text    string
}

// funcMap mirrors the teacher's template helpers and adds the `ai` func used
// to mark a value as AI-deferred. In collect mode, calling {{ai "key" "..."}}
// records the prompt with the collector and yields an empty string so Pass 1
// output is never written to disk. By Pass 2 the two-pass controller has
// merged the resolved answer into vars under the entry's key, and the same
// {{ai}} call renders that answer verbatim; a key with no answer (the run
// never went through a transport) renders empty.
//
// Trailing {{ai}} arguments are hints: a bare string (or aiContext "...")
// becomes a context line of the prompt document, and (aiExample "...")
// becomes an example line:
//
//	{{ai "greeting" "write a greeting" "a CLI tool" (aiExample "Hello!")}}
func funcMap(vars map[string]interface{}, collectMode bool, collector ports.Collector) template.FuncMap {
	return template.FuncMap{
		"default": func(def, val interface{}) interface{} {
			if val == nil || val == "" {
				return def
			}
			return val
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"title": func(s string) string {
			if len(s) == 0 {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"trimSuffix": strings.TrimSuffix,
		"replace":    strings.ReplaceAll,
		"aiContext":  func(s string) aiHint { return aiHint{text: s} },
		"aiExample":  func(s string) aiHint { return aiHint{example: true, text: s} },
		"ai": func(key, prompt string, hints ...interface{}) (string, error) {
			if collectMode && collector != nil {
				entry := ports.AiEntry{Key: key, Prompt: prompt}
				for _, h := range hints {
					switch v := h.(type) {
					case aiHint:
						if v.example {
							entry.Examples = append(entry.Examples, v.text)
						} else {
							entry.Contexts = append(entry.Contexts, v.text)
						}
					case string:
						entry.Contexts = append(entry.Contexts, v)
					default:
						return "", fmt.Errorf("ai %q: hint must be a string, aiContext or aiExample, got %T", key, h)
					}
				}
				collector.Record(entry)
				return "", nil
			}
			if v, ok := vars[key]; ok {
				return fmt.Sprintf("%v", v), nil
			}
			return "", nil
		},
	}
}
