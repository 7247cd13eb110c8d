// Package engine implements the orchestrator that ties the Path Resolver
// (C1), Recipe Loader (C2), Variable Resolver (C3), Condition Evaluator
// (C4), Step Dependency Planner (C5), Step Executor (C6), Tool Handlers
// (C7), AI two-pass controller (C8) and Result Aggregator (C9) together
// into one `Run` entrypoint, the way the teacher's internal/agent.Agent
// ties its own tool dispatch loop and event bus together behind one
// `Execute`.
package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/hypergen/hypergen/internal/ai"
	"github.com/hypergen/hypergen/internal/discover"
	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/exec"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/resolve"
	"github.com/hypergen/hypergen/internal/result"
)

// Engine holds the process-wide ports the scheduler dispatches through.
// Everything here is wired once at startup and treated as read-mostly
// afterward (mirrors the teacher's internal/detector.Registry discipline).
type Engine struct {
	template    ports.TemplateEngine
	sink        ports.FileSink
	prompter    ports.Prompter
	transport   ports.Transport
	aiVars      ports.AiVariableResolver
	actions     ports.ActionRegistry
	transforms  ports.TransformRegistry
	packages    ports.PackageResolver
	bus         *exec.Bus
	projectRoot string
}

// Option configures an Engine at construction, the same Option pattern the
// teacher's scanner.Scanner and Agent use.
type Option func(*Engine)

func WithTemplateEngine(e ports.TemplateEngine) Option { return func(en *Engine) { en.template = e } }
func WithFileSink(s ports.FileSink) Option             { return func(en *Engine) { en.sink = s } }
func WithPrompter(p ports.Prompter) Option             { return func(en *Engine) { en.prompter = p } }
func WithTransport(t ports.Transport) Option           { return func(en *Engine) { en.transport = t } }
func WithAIVariableResolver(r ports.AiVariableResolver) Option {
	return func(en *Engine) { en.aiVars = r }
}
func WithActionRegistry(r ports.ActionRegistry) Option { return func(en *Engine) { en.actions = r } }
func WithTransformRegistry(r ports.TransformRegistry) Option {
	return func(en *Engine) { en.transforms = r }
}
func WithPackageResolver(r ports.PackageResolver) Option {
	return func(en *Engine) { en.packages = r }
}
func WithEventBus(b *exec.Bus) Option    { return func(en *Engine) { en.bus = b } }
func WithProjectRoot(root string) Option { return func(en *Engine) { en.projectRoot = root } }

// New builds an Engine from the given ports. A caller that omits an option
// gets a nil port; dispatching a step that needs it fails with ErrTool
// rather than panicking (checked at the dispatch site).
func New(opts ...Option) *Engine {
	e := &Engine{bus: exec.NewBus(256), projectRoot: "."}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events exposes the executor's progress channel for a CLI consumer.
func (e *Engine) Events() <-chan exec.Event { return e.bus.Events() }

// DeferredError is returned by Run/RunPath when Pass 1's AI collector was
// non-empty and the configured Transport deferred to the user instead of
// resolving inline (e.g. the default StdoutTransport). The CLI maps this to
// exit code 2.
type DeferredError struct {
	ExitCode int
}

func (e *DeferredError) Error() string {
	return fmt.Sprintf("run deferred pending AI answers (exit %d)", e.ExitCode)
}

// RunOptions configures one top-level recipe run.
type RunOptions struct {
	CLIParams   map[string]string
	Positionals []string

	// VariableAnswers are pre-resolved values threaded in ahead of CLI args
	// and defaults — used both for a nested recipe step's params and for a
	// top-level run seeded from a prior invocation's output.
	VariableAnswers map[string]interface{}

	// AIAnswers is the content of --answers: a key -> string map applied to
	// @ai(key) collector entries. When non-empty, Pass 1 is skipped entirely.
	AIAnswers map[string]string

	AskMode         resolve.AskMode
	NoDefaults      bool
	Force           bool
	ContinueOnError bool
	MaxConcurrency  int

	CWD         string
	SearchRoots []string
}

// Run resolves segments to a recipe directory (C1) and executes it.
func (e *Engine) Run(ctx context.Context, segments []string, opts RunOptions) (*result.RecipeResult, error) {
	discoverOpts := []discover.Option{discover.WithCWD(opts.CWD), discover.WithSearchRoots(opts.SearchRoots...)}
	if e.packages != nil {
		discoverOpts = append(discoverOpts, discover.WithPackageResolver(e.packages))
	}
	rp, err := discover.Resolve(segments, discoverOpts...)
	if err != nil {
		return nil, err
	}
	if rp.Type == discover.ResolvedGroup {
		if g, gerr := recipe.LoadGroup(rp.FullPath); gerr == nil && len(g.Recipes) > 0 {
			return nil, fmt.Errorf("%w: %s is a group; name one of its recipes: %s",
				hgerrors.ErrNotFound, rp.FullPath, strings.Join(g.Recipes, ", "))
		}
		return nil, fmt.Errorf("%w: %s resolves to a group of recipes; name one explicitly", hgerrors.ErrNotFound, rp.FullPath)
	}
	return e.RunPath(ctx, rp.FullPath, opts)
}

// RunPath loads the recipe.yml at recipeDir directly (skipping C1) and runs
// the full variable-resolution / two-pass execution pipeline. CLI commands
// that already hold a resolved directory (and the recipe tool handler's
// RecipeRunner seam, by way of Run) both end up here.
func (e *Engine) RunPath(ctx context.Context, recipeDir string, opts RunOptions) (*result.RecipeResult, error) {
	r, err := recipe.Load(recipeDir)
	if err != nil {
		return nil, err
	}

	resolveOpts := resolve.Options{
		AskMode:    opts.AskMode,
		NoDefaults: opts.NoDefaults,
		Answers:    opts.VariableAnswers,
		Prompter:   e.prompter,
		AI:         e.aiVars,
	}
	env, err := resolve.Resolve(ctx, r, opts.CLIParams, opts.Positionals, resolveOpts)
	if err != nil {
		return nil, err
	}

	maxConcurrency := opts.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	recipeRunner := e.recipeRunnerFor(opts, r.Dir)

	if len(opts.AIAnswers) > 0 {
		mergeAIAnswers(env, opts.AIAnswers)
		return e.executeOnce(ctx, r, env, runOnceOptions{
			maxConcurrency:  maxConcurrency,
			force:           opts.Force,
			continueOnError: opts.ContinueOnError,
			recipeRunner:    recipeRunner,
		})
	}

	collector := ai.NewCollector()
	if _, err := e.executeOnce(ctx, r, cloneEnv(env), runOnceOptions{
		maxConcurrency:  1,
		collectMode:     true,
		collector:       collector,
		force:           opts.Force,
		continueOnError: true,
		recipeRunner:    recipeRunner,
	}); err != nil {
		return nil, err
	}

	if !collector.Empty() {
		if e.transport == nil {
			return nil, fmt.Errorf("%w: recipe uses @ai blocks but no transport is configured", hgerrors.ErrTransport)
		}
		tr, err := e.transport.Resolve(ctx, collector.Entries())
		if err != nil {
			return nil, err
		}
		if tr.Status == "deferred" {
			return nil, &DeferredError{ExitCode: tr.ExitCode}
		}
		mergeAIAnswers(env, tr.Answers)
	}

	return e.executeOnce(ctx, r, env, runOnceOptions{
		maxConcurrency:  maxConcurrency,
		force:           opts.Force,
		continueOnError: opts.ContinueOnError,
		recipeRunner:    recipeRunner,
	})
}

// recipeRunnerFor adapts Run into the ports.RecipeRunner seam the `recipe`
// tool handler calls through. The child recipe receives step.Params as its
// sole pre-resolved variable source and otherwise inherits the parent run's
// ask mode and concurrency settings. Each nested recipe runs its own
// complete two-pass cycle rather than sharing the parent's collect-mode
// pass — composing the two-pass protocol across a recipe boundary isn't
// specified, so a nested recipe is treated as an atomic sub-run (see
// DESIGN.md).
func (e *Engine) recipeRunnerFor(parent RunOptions, recipeDir string) ports.RecipeRunner {
	return func(ctx context.Context, path string, params map[string]interface{}) (ports.RunOutcome, error) {
		segments := splitPathSegments(path)
		// A path-shaped reference ("./common/licence") resolves relative to
		// the declaring recipe's directory; kit/cookbook/recipe segments keep
		// resolving from the parent run's working directory.
		cwd := parent.CWD
		if len(segments) > 0 && strings.ContainsAny(segments[0], `/\`) {
			cwd = recipeDir
		}
		childOpts := RunOptions{
			AskMode:         parent.AskMode,
			NoDefaults:      parent.NoDefaults,
			Force:           parent.Force,
			ContinueOnError: parent.ContinueOnError,
			MaxConcurrency:  parent.MaxConcurrency,
			CWD:             cwd,
			SearchRoots:     parent.SearchRoots,
			VariableAnswers: params,
		}
		res, err := e.Run(ctx, segments, childOpts)
		if err != nil {
			return ports.RunOutcome{}, err
		}
		return ports.RunOutcome{
			Success:       res.Success,
			FilesCreated:  res.FilesCreated,
			FilesModified: res.FilesModified,
			FilesDeleted:  res.FilesDeleted,
		}, nil
	}
}

func mergeAIAnswers(env map[string]interface{}, answers map[string]string) {
	for k, v := range answers {
		env[k] = v
	}
}

func cloneEnv(env map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(env))
	for k, v := range env {
		out[k] = v
	}
	return out
}

func splitPathSegments(path string) []string {
	var segments []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == ' ' {
			if i > start {
				segments = append(segments, path[start:i])
			}
			start = i + 1
		}
	}
	return segments
}
