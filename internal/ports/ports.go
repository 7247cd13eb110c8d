// Package ports declares the external collaborator interfaces the engine
// consumes but does not implement itself: template rendering, filesystem
// writes, interactive prompts, the AI transport, and package/action lookup.
// Default implementations ship in internal/render, internal/sink,
// internal/prompt, internal/ai, and internal/tools respectively.
package ports

import (
	"context"

	"go.uber.org/zap"

	"github.com/hypergen/hypergen/internal/recipe"
)

// RenderedTemplate is what TemplateEngine.Render returns: a body plus an
// optional parsed frontmatter block.
type RenderedTemplate struct {
	Body        string
	Frontmatter *Frontmatter
}

// Frontmatter is the `---\nto: ...\n---` block a rendered template may carry.
type Frontmatter struct {
	To        string
	Inject    bool
	After     string
	Before    string
	Condition string
}

// TemplateEngine renders a template file against a variable environment.
// Implementations must call Collector.Record instead of producing output
// for @ai(...) blocks when collectMode is true.
type TemplateEngine interface {
	Render(ctx context.Context, sourcePath string, vars map[string]interface{}, collectMode bool, collector Collector) (RenderedTemplate, error)
}

// WriteMode controls how FileSink.Write handles an existing file at path.
type WriteMode string

const (
	WriteOverwrite WriteMode = "overwrite"
	WriteSkip      WriteMode = "skip"
	WritePrompt    WriteMode = "prompt"
	WriteInject    WriteMode = "inject"
)

// FileSink performs the actual filesystem mutation for a write, returning
// which of created/modified/deleted occurred so the aggregator can track it.
type FileSink interface {
	Write(ctx context.Context, path, body string, mode WriteMode) (created bool, modified bool, err error)
	Inject(ctx context.Context, path, body, after, before string) (modified bool, err error)
	Delete(ctx context.Context, path string) (deleted bool, err error)
}

// Prompter asks the user to supply a value for one unresolved variable.
type Prompter interface {
	Ask(ctx context.Context, spec *recipe.VariableSpec) (interface{}, error)
}

// TransportResult is the outcome of Transport.Resolve.
type TransportResult struct {
	Status   string // "resolved" or "deferred"
	Answers  map[string]string
	ExitCode int
}

// Transport delivers the AI collector's accumulated prompts to an AI
// provider (or defers to the user) and returns the result.
type Transport interface {
	Resolve(ctx context.Context, entries []AiEntry) (TransportResult, error)
}

// AiEntry is one accumulated @ai(key) block from Pass 1.
type AiEntry struct {
	Key      string
	Prompt   string
	Contexts []string
	Examples []string
}

// Collector is the recorder the template engine calls into during Pass 1.
type Collector interface {
	Record(entry AiEntry)
}

// AiVariableResolver performs the batch AI call used by askMode=ai in the
// variable resolver (distinct from the template-level AiEntry collector).
type AiVariableResolver interface {
	ResolveBatch(ctx context.Context, unresolved []*recipe.VariableSpec, resolved map[string]interface{}, recipeName string) (map[string]interface{}, error)
}

// ActionContext is what a registered, trusted action function receives:
// the run's resolved variables, the step's params, the project root, a
// logger, and the ports an action may write through.
type ActionContext struct {
	Variables   map[string]interface{}
	Params      map[string]interface{}
	ProjectRoot string
	Logger      *zap.SugaredLogger
	Ports       ActionPorts
}

// ActionPorts is the subset of the engine's ports exposed to actions. An
// action that writes through Sink gets the same path-containment and
// collect-mode behavior as the template and codemod handlers; direct
// filesystem access remains possible (actions are trusted) but bypasses
// both.
type ActionPorts struct {
	Sink FileSink
}

type ActionOutcome struct {
	Output        interface{}
	FilesCreated  []string
	FilesModified []string
	FilesDeleted  []string
}

type ActionFunc func(ctx context.Context, actx ActionContext) (ActionOutcome, error)

// ActionRegistry looks up a named, trusted action registered at startup.
type ActionRegistry interface {
	Lookup(name string) (ActionFunc, bool)
	Register(name string, fn ActionFunc) error
}

// TransformFunc is a codemod transform; it returns changed=false for "no change".
type TransformFunc func(ctx context.Context, source string, vars map[string]interface{}, params map[string]interface{}) (newSource string, changed bool, err error)

// TransformRegistry looks up a named codemod transform registered at startup.
type TransformRegistry interface {
	Lookup(name string) (TransformFunc, bool)
	Register(name string, fn TransformFunc) error
}

// PackageResolver locates an installed kit package by name (e.g.
// "@hyper-kits/react" or "my-hyper-kit") and returns its local directory.
type PackageResolver interface {
	LocalPathFor(ctx context.Context, packageName string) (dir string, ok bool, err error)
}

// RecipeRunner is how the recipe tool handler recurses into the engine
// without internal/tools importing the orchestrator package (which would
// create an import cycle, since the orchestrator imports internal/tools).
type RecipeRunner func(ctx context.Context, path string, params map[string]interface{}) (RunOutcome, error)

// RunOutcome is the subset of a child recipe run's result the recipe tool
// handler bubbles up into the parent step's ToolOutcome.
type RunOutcome struct {
	Success       bool
	FilesCreated  []string
	FilesModified []string
	FilesDeleted  []string
	Output        interface{}
}
