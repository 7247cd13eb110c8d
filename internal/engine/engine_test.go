package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hypergen/hypergen/internal/exec"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/resolve"
	"github.com/hypergen/hypergen/internal/tools"
)

// fakeTemplateEngine renders by echoing the source path plus a deterministic
// marker; templates in these tests never carry @ai blocks, so Render never
// touches the collector except where a test specifically arranges for it.
type fakeTemplateEngine struct {
	mu       sync.Mutex
	rendered []string
	onRender func(sourcePath string, collectMode bool, collector ports.Collector) ports.RenderedTemplate
}

func (f *fakeTemplateEngine) Render(ctx context.Context, sourcePath string, vars map[string]interface{}, collectMode bool, collector ports.Collector) (ports.RenderedTemplate, error) {
	f.mu.Lock()
	f.rendered = append(f.rendered, sourcePath)
	f.mu.Unlock()
	if f.onRender != nil {
		return f.onRender(sourcePath, collectMode, collector), nil
	}
	return ports.RenderedTemplate{
		Body:        "generated:" + sourcePath,
		Frontmatter: &ports.Frontmatter{To: sourcePath + ".out"},
	}, nil
}

type fakeSink struct {
	mu      sync.Mutex
	written map[string]string
}

func newFakeSink() *fakeSink { return &fakeSink{written: map[string]string{}} }

func (f *fakeSink) Write(ctx context.Context, path, body string, mode ports.WriteMode) (bool, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, existed := f.written[path]
	f.written[path] = body
	return !existed, existed, nil
}

func (f *fakeSink) Inject(ctx context.Context, path, body, after, before string) (bool, error) {
	return true, nil
}

func (f *fakeSink) Delete(ctx context.Context, path string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.written, path)
	return true, nil
}

func newTestEngine(tmpl ports.TemplateEngine, sink ports.FileSink) *Engine {
	return New(
		WithTemplateEngine(tmpl),
		WithFileSink(sink),
		WithProjectRoot("."),
	)
}

func recipeWithSteps(steps ...recipe.Step) *recipe.Recipe {
	return &recipe.Recipe{
		Name:      "test-recipe",
		Variables: map[string]*recipe.VariableSpec{},
		Steps:     steps,
	}
}

// S1: a linear three-step recipe (a -> b -> c) executes in three
// sequential phases and every step completes.
func TestLinearThreeStepRecipe(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := newTestEngine(tmpl, sink)

	r := recipeWithSteps(
		recipe.Step{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl"},
		recipe.Step{Name: "b", Tool: recipe.ToolTemplate, Source: "b.tmpl", DependsOn: []string{"a"}},
		recipe.Step{Name: "c", Tool: recipe.ToolTemplate, Source: "c.tmpl", DependsOn: []string{"b"}},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 4})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 3, res.Metadata.CompletedSteps)
	assert.ElementsMatch(t, []string{"a.tmpl.out", "b.tmpl.out", "c.tmpl.out"}, res.FilesCreated)
}

// S2: a diamond (a -> b, a -> c, b,c -> d) runs b and c within the same
// parallel phase.
func TestDiamondParallelPhase(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := newTestEngine(tmpl, sink)

	r := recipeWithSteps(
		recipe.Step{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl"},
		recipe.Step{Name: "b", Tool: recipe.ToolTemplate, Source: "b.tmpl", DependsOn: []string{"a"}},
		recipe.Step{Name: "c", Tool: recipe.ToolTemplate, Source: "c.tmpl", DependsOn: []string{"a"}},
		recipe.Step{Name: "d", Tool: recipe.ToolTemplate, Source: "d.tmpl", DependsOn: []string{"b", "c"}},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 4})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Metadata.CompletedSteps)
}

// S3: a cycle is rejected by the planner before any step runs.
func TestCycleRejected(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := newTestEngine(tmpl, sink)

	r := recipeWithSteps(
		recipe.Step{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl", DependsOn: []string{"b"}},
		recipe.Step{Name: "b", Tool: recipe.ToolTemplate, Source: "b.tmpl", DependsOn: []string{"a"}},
	)

	_, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 4})
	require.Error(t, err)
}

// S4: a missing required variable with askMode=nobody surfaces a
// resolution error instead of running any step.
func TestMissingRequiredVariableNobody(t *testing.T) {
	r := &recipe.Recipe{
		Name: "needs-name",
		Variables: map[string]*recipe.VariableSpec{
			"name": {Type: recipe.TypeString, Required: true, Name: "name"},
		},
		VariableOrder: []string{"name"},
		Steps: []recipe.Step{
			{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl"},
		},
	}

	env, err := resolve.Resolve(context.Background(), r, nil, nil, resolve.Options{AskMode: resolve.AskNobody})
	require.Error(t, err)
	assert.Nil(t, env)
	var resErrs resolve.ResolutionErrors
	require.ErrorAs(t, err, &resErrs)
}

// S5: a recipe whose template issues an @ai collection runs Pass 1 in
// collect mode, resolves via the transport, then re-renders in Pass 2 with
// the answer merged into the environment.
func TestTwoPassAIResolution(t *testing.T) {
	var pass int
	tmpl := &fakeTemplateEngine{
		onRender: func(sourcePath string, collectMode bool, collector ports.Collector) ports.RenderedTemplate {
			if collectMode {
				collector.Record(ports.AiEntry{Key: "tagline", Prompt: "write a tagline"})
				return ports.RenderedTemplate{}
			}
			pass++
			return ports.RenderedTemplate{
				Body:        "tagline is set",
				Frontmatter: &ports.Frontmatter{To: "README.md"},
			}
		},
	}
	sink := newFakeSink()
	transport := &fakeTransport{result: ports.TransportResult{Status: "resolved", Answers: map[string]string{"tagline": "Ship it."}}}
	e := New(WithTemplateEngine(tmpl), WithFileSink(sink), WithTransport(transport), WithProjectRoot("."))

	r := recipeWithSteps(
		recipe.Step{Name: "readme", Tool: recipe.ToolTemplate, Source: "README.md.tmpl"},
	)

	collector := fakeCollectorFromRecipe(t, e, r)
	assert.False(t, collector.Empty())
	assert.Equal(t, 1, pass)
	assert.Equal(t, "Ship it.", transport.lastEnv())
}

func fakeCollectorFromRecipe(t *testing.T, e *Engine, r *recipe.Recipe) *stubCollector {
	t.Helper()
	c := &stubCollector{}
	_, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{
		maxConcurrency: 1, collectMode: true, collector: c, continueOnError: true,
	})
	require.NoError(t, err)

	if !c.Empty() {
		env := map[string]interface{}{}
		tr, err := e.transport.Resolve(context.Background(), c.Entries())
		require.NoError(t, err)
		require.Equal(t, "resolved", tr.Status)
		for k, v := range tr.Answers {
			env[k] = v
		}
		_, err = e.executeOnce(context.Background(), r, env, runOnceOptions{maxConcurrency: 1, continueOnError: true})
		require.NoError(t, err)
	}
	return c
}

type stubCollector struct {
	mu      sync.Mutex
	entries []ports.AiEntry
}

func (c *stubCollector) Record(entry ports.AiEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, entry)
}

func (c *stubCollector) Entries() []ports.AiEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ports.AiEntry{}, c.entries...)
}

func (c *stubCollector) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries) == 0
}

type fakeTransport struct {
	result    ports.TransportResult
	lastEntry ports.AiEntry
}

func (f *fakeTransport) Resolve(ctx context.Context, entries []ports.AiEntry) (ports.TransportResult, error) {
	if len(entries) > 0 {
		f.lastEntry = entries[0]
	}
	return f.result, nil
}

func (f *fakeTransport) lastEnv() string {
	return f.result.Answers[f.lastEntry.Key]
}

// S6: with continueOnError, an independent sibling in the same phase as a
// failing step still runs and keeps its file, and the run reports one failure.
func TestContinueOnErrorLetsIndependentStepsRun(t *testing.T) {
	tmpl := &fakeTemplateEngine{
		onRender: func(sourcePath string, collectMode bool, collector ports.Collector) ports.RenderedTemplate {
			if sourcePath == "bad.tmpl" {
				return ports.RenderedTemplate{}
			}
			return ports.RenderedTemplate{Body: "ok", Frontmatter: &ports.Frontmatter{To: sourcePath + ".out"}}
		},
	}
	sink := newFakeSink()
	e := New(WithTemplateEngine(tmpl), WithFileSink(sink), WithProjectRoot("."), WithActionRegistry(tools.NewActionRegistry()))

	r := recipeWithSteps(
		recipe.Step{Name: "bad", Tool: recipe.ToolAction, Action: "does_not_exist"},
		recipe.Step{Name: "good", Tool: recipe.ToolTemplate, Source: "good.tmpl"},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{
		maxConcurrency: 4, continueOnError: true,
	})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.Metadata.FailedSteps)
	assert.Contains(t, res.FilesCreated, "good.tmpl.out")
}

func TestHaltsRemainingPhasesWithoutContinueOnError(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := New(WithTemplateEngine(tmpl), WithFileSink(sink), WithProjectRoot("."), WithActionRegistry(tools.NewActionRegistry()))

	r := recipeWithSteps(
		recipe.Step{Name: "bad", Tool: recipe.ToolAction, Action: "does_not_exist"},
		recipe.Step{Name: "later", Tool: recipe.ToolTemplate, Source: "later.tmpl", DependsOn: []string{"bad"}},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 4})
	require.NoError(t, err)
	assert.False(t, res.Success)
	require.Len(t, res.StepResults, 2)
	assert.Equal(t, "upstream failure", res.StepResults[1].SkipReason)
}

// A skipped dependency does not propagate: the dependent still runs unless
// its own `when` gates on the skipped step's outcome.
func TestSkippedDependencyDoesNotSkipDependent(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := newTestEngine(tmpl, sink)

	r := recipeWithSteps(
		recipe.Step{Name: "optional", Tool: recipe.ToolTemplate, Source: "opt.tmpl", When: "false"},
		recipe.Step{Name: "main", Tool: recipe.ToolTemplate, Source: "main.tmpl", DependsOn: []string{"optional"}},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 4})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Metadata.SkippedSteps)
	assert.Equal(t, 1, res.Metadata.CompletedSteps)
	assert.Contains(t, res.FilesCreated, "main.tmpl.out")
}

// Pass 1 (collect mode) is a dry discovery run: nothing reaches the sink
// even when a template renders a full body with a write target.
func TestCollectModeWritesNothing(t *testing.T) {
	tmpl := &fakeTemplateEngine{}
	sink := newFakeSink()
	e := newTestEngine(tmpl, sink)

	r := recipeWithSteps(
		recipe.Step{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl"},
	)

	res, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{
		maxConcurrency: 1, collectMode: true, collector: &stubCollector{}, continueOnError: true,
	})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, sink.written)
}

// The event bus reports every step's lifecycle to whoever consumes
// Events() — the CLI streams these as live --verbose progress.
func TestEventBusReportsStepLifecycle(t *testing.T) {
	bus := exec.NewBus(64)
	e := New(
		WithTemplateEngine(&fakeTemplateEngine{}),
		WithFileSink(newFakeSink()),
		WithProjectRoot("."),
		WithEventBus(bus),
	)

	r := recipeWithSteps(recipe.Step{Name: "a", Tool: recipe.ToolTemplate, Source: "a.tmpl"})
	_, err := e.executeOnce(context.Background(), r, map[string]interface{}{}, runOnceOptions{maxConcurrency: 1})
	require.NoError(t, err)
	bus.Close()

	var seen []exec.EventType
	for ev := range e.Events() {
		seen = append(seen, ev.Type)
	}
	assert.Contains(t, seen, exec.EventPhaseStart)
	assert.Contains(t, seen, exec.EventStepStart)
	assert.Contains(t, seen, exec.EventStepDone)
	assert.Contains(t, seen, exec.EventPhaseDone)
}

func TestDeferredErrorMessage(t *testing.T) {
	msg := (&DeferredError{ExitCode: 2}).Error()
	assert.Contains(t, msg, "deferred")
	assert.Contains(t, msg, "2")
}
