package cli

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/hypergen/hypergen/internal/ai"
	"github.com/hypergen/hypergen/internal/builtin"
	"github.com/hypergen/hypergen/internal/config"
	"github.com/hypergen/hypergen/internal/engine"
	"github.com/hypergen/hypergen/internal/pkgresolver"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/prompt"
	"github.com/hypergen/hypergen/internal/render"
	"github.com/hypergen/hypergen/internal/resolve"
	"github.com/hypergen/hypergen/internal/sink"
	"github.com/hypergen/hypergen/internal/tools"
)

// buildEngine wires every ambient/domain port into an Engine the way the
// teacher's root command wires a scanner.Scanner + detector.Registry +
// generator.Generator before dispatching to a subcommand handler. projectRoot
// anchors the FileSink and is reported back in RecipeResult.Metadata. When
// dry is true the FileSink is swapped for one that reports would-be writes
// without touching disk.
func buildEngine(ctx context.Context, cfg *config.Config, projectRoot string, dry bool, extra ...engine.Option) (*engine.Engine, error) {
	actions := tools.NewActionRegistry()
	if err := builtin.RegisterAll(actions); err != nil {
		return nil, fmt.Errorf("registering built-in actions: %w", err)
	}

	transforms := tools.NewTransformRegistry()
	if err := builtin.RegisterAllTransforms(transforms); err != nil {
		return nil, fmt.Errorf("registering built-in transforms: %w", err)
	}

	// Overwrite confirmation needs a terminal; in a pipe or CI run the
	// prompt mode degrades to skip rather than blocking on a read nobody
	// will answer.
	var confirm sink.Confirmer
	if interactiveTTY() {
		confirm = prompt.ConfirmOverwrite
	}

	var fileSink ports.FileSink = sink.New(projectRoot, confirm)
	if dry {
		fileSink = &dryRunSink{}
	}

	opts := []engine.Option{
		engine.WithTemplateEngine(render.New()),
		engine.WithFileSink(fileSink),
		engine.WithPrompter(prompt.New()),
		engine.WithTransport(ai.New(ctx, cfg.AI)),
		engine.WithAIVariableResolver(ai.NewVariableResolver(ctx, cfg.AI)),
		engine.WithActionRegistry(actions),
		engine.WithTransformRegistry(transforms),
		engine.WithPackageResolver(pkgresolver.New()),
		engine.WithProjectRoot(projectRoot),
	}
	opts = append(opts, extra...)

	return engine.New(opts...), nil
}

// dryRunSink implements ports.FileSink for `run --dry`: every Write reports
// a newly created file, every Inject a modified one and every Delete a
// deleted one, without touching the disk, so the RecipeResult's file lists
// preview what the run would change. It does not look at what exists on
// disk, so it can differ from a real sink.New (which reports an existing
// file as modified, fails an Inject into a missing file, and reports a
// missing file as not deleted).
type dryRunSink struct{}

func (*dryRunSink) Write(ctx context.Context, path, body string, mode ports.WriteMode) (bool, bool, error) {
	return true, false, nil
}

func (*dryRunSink) Inject(ctx context.Context, path, body, after, before string) (bool, error) {
	return true, nil
}

func (*dryRunSink) Delete(ctx context.Context, path string) (bool, error) {
	return true, nil
}

// resolveAskMode maps the --ask flag to the variable resolver's AskMode
// plus any extra engine.Option needed to honor it. "stdout" is not one of
// the resolver's three ask modes (§4.3); it instead forces the two-pass
// collector's Transport to ai.StdoutTransport regardless of the configured
// AI provider, printing the prompt document and deferring (the meaning
// ai.StdoutTransport's own doc comment calls "the 'stdout' ask mode"), and
// falls back to AskNobody for variable resolution since stdout can't fill
// a variable itself.
func resolveAskMode(ask string) (resolve.AskMode, []engine.Option, error) {
	switch ask {
	case "", "me":
		if !interactiveTTY() {
			// No terminal to ask on; unresolved required variables surface
			// as errors instead of a prompt hanging a scripted run.
			return resolve.AskNobody, nil, nil
		}
		return resolve.AskMe, nil, nil
	case "ai":
		return resolve.AskAI, nil, nil
	case "nobody":
		return resolve.AskNobody, nil, nil
	case "stdout":
		return resolve.AskNobody, []engine.Option{engine.WithTransport(ai.StdoutTransport{})}, nil
	default:
		return "", nil, fmt.Errorf("invalid --ask value %q: must be one of me, ai, stdout, nobody", ask)
	}
}

// interactiveTTY reports whether stdin is attached to a terminal, gating
// every interactive code path (variable prompts, overwrite confirmation).
func interactiveTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
