package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/hypergen/hypergen/internal/condition"
	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/exec"
	"github.com/hypergen/hypergen/internal/plan"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/result"
	"github.com/hypergen/hypergen/internal/tools"
)

// runOnceOptions configures a single pass over a recipe's plan: either the
// serialized, collect-mode Pass 1 of the AI protocol, or a normal
// (possibly Pass 2) materialization pass.
type runOnceOptions struct {
	maxConcurrency  int
	collectMode     bool
	collector       ports.Collector
	force           bool
	continueOnError bool
	recipeRunner    ports.RecipeRunner
}

// executeOnce plans r's steps and runs every phase to completion (subject
// to continueOnError halting), then aggregates a RecipeResult. Pass 1 and
// Pass 2 of the two-pass AI protocol are both just calls to executeOnce
// with different runOnceOptions.
func (e *Engine) executeOnce(ctx context.Context, r *recipe.Recipe, env map[string]interface{}, ro runOnceOptions) (*result.RecipeResult, error) {
	maxConcurrency := ro.maxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	executionPlan, err := plan.Plan(r.Steps, maxConcurrency)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]recipe.Step, len(r.Steps))
	for _, s := range r.Steps {
		byName[s.Name] = s
	}

	store := newStepStore()
	startedAt := time.Now()
	halted := false

	for _, phase := range executionPlan.Phases {
		if halted {
			break
		}
		e.bus.Emit(exec.EventPhaseStart, "", fmt.Sprintf("phase %d starting", phase.Index), phase.StepNames)

		if phase.Parallel {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(maxConcurrency)
			for _, name := range phase.StepNames {
				name := name
				g.Go(func() error {
					e.runStep(gctx, r, byName[name], env, store, ro)
					return nil
				})
			}
			_ = g.Wait()
		} else {
			for _, name := range phase.StepNames {
				e.runStep(ctx, r, byName[name], env, store, ro)
				if sr, ok := store.get(name); ok && sr.Status == result.StatusFailed && !ro.continueOnError {
					halted = true
					break
				}
			}
		}

		if !halted && !ro.continueOnError {
			for _, name := range phase.StepNames {
				if sr, ok := store.get(name); ok && sr.Status == result.StatusFailed {
					halted = true
					break
				}
			}
		}

		e.bus.Emit(exec.EventPhaseDone, "", fmt.Sprintf("phase %d done", phase.Index), nil)
	}

	ordered := make([]*result.StepResult, 0, len(r.Steps))
	for _, s := range r.Steps {
		if sr, ok := store.get(s.Name); ok {
			ordered = append(ordered, sr)
			continue
		}
		// The run halted before this step's phase ever started.
		ordered = append(ordered, &result.StepResult{
			StepName:   s.Name,
			Tool:       string(s.Tool),
			Status:     result.StatusSkipped,
			SkipReason: "upstream failure",
		})
	}

	meta := result.Metadata{
		StartedAt:   startedAt,
		EndedAt:     time.Now(),
		WorkingDir:  e.projectRoot,
		ExecutionID: uuid.New().String(),
	}
	return result.Aggregate(ordered, env, meta), nil
}

// runStep gates, dispatches, retries and times out one step, then publishes
// its StepResult to store. It never returns an error directly — failure is
// recorded on the StepResult so a parallel phase's errgroup never aborts
// sibling goroutines over one step's failure.
func (e *Engine) runStep(ctx context.Context, r *recipe.Recipe, step recipe.Step, env map[string]interface{}, store *stepStore, ro runOnceOptions) {
	start := time.Now()
	sr := &result.StepResult{StepName: step.Name, Tool: string(step.Tool), StartedAt: start}

	// Only a failed dependency gates a step; a skipped one does not. A step
	// that must not run after an upstream skip gates on it with `when`.
	depsOK := true
	for _, dep := range step.DependsOn {
		if depResult, ok := store.get(dep); ok && depResult.Status == result.StatusFailed {
			depsOK = false
			break
		}
	}
	sr.DependenciesSatisfied = depsOK
	if !depsOK && !ro.continueOnError {
		sr.Status = result.StatusSkipped
		sr.SkipReason = "upstream failure"
		sr.EndedAt = time.Now()
		store.put(step.Name, sr)
		e.bus.Emit(exec.EventStepSkip, step.Name, sr.SkipReason, nil)
		return
	}

	condResult := true
	if step.When != "" {
		ok, err := condition.Evaluate(step.When, condition.MapEnv{Variables: env, StepResults: store.fields()})
		if err != nil {
			sr.Status = result.StatusFailed
			sr.Error = &result.StepError{Kind: "ConditionEvalError", Message: err.Error(), Cause: err}
			sr.EndedAt = time.Now()
			store.put(step.Name, sr)
			e.bus.Emit(exec.EventStepDone, step.Name, "condition error", nil)
			return
		}
		condResult = ok
	}
	sr.ConditionResult = condResult
	if !condResult {
		sr.Status = result.StatusSkipped
		sr.SkipReason = "condition false"
		sr.EndedAt = time.Now()
		store.put(step.Name, sr)
		e.bus.Emit(exec.EventStepSkip, step.Name, sr.SkipReason, nil)
		return
	}

	e.bus.Emit(exec.EventStepStart, step.Name, "", nil)

	attempts := 1 + step.Retries
	if attempts < 1 {
		attempts = 1
	}

	var outcome tools.Outcome
	var runErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			sr.RetryCount = attempt
			e.bus.Emit(exec.EventStepRetry, step.Name, fmt.Sprintf("attempt %d/%d", attempt+1, attempts), nil)
		}

		stepCtx := ctx
		var cancel context.CancelFunc
		if step.TimeoutMs > 0 {
			stepCtx, cancel = context.WithTimeout(ctx, time.Duration(step.TimeoutMs)*time.Millisecond)
		}

		outcome, runErr = e.dispatch(stepCtx, r, step, env, store, ro)

		if runErr == nil {
			if cancel != nil {
				cancel()
			}
			break
		}
		if stepCtx.Err() == context.DeadlineExceeded {
			runErr = fmt.Errorf("%w: step %s", hgerrors.ErrTimeout, step.Name)
		}
		if cancel != nil {
			cancel()
		}
		if ctx.Err() != nil {
			// Parent cancellation: further retries can't help.
			break
		}
	}

	sr.EndedAt = time.Now()
	sr.DurationMs = sr.EndedAt.Sub(start).Milliseconds()

	if runErr != nil {
		sr.Status = result.StatusFailed
		sr.Error = &result.StepError{Kind: "ToolError", Message: runErr.Error(), Cause: runErr}
		store.put(step.Name, sr)
		e.bus.Emit(exec.EventStepDone, step.Name, "failed", nil)
		return
	}

	sr.Status = result.StatusCompleted
	sr.Output = outcome.Output
	sr.FilesCreated = outcome.FilesCreated
	sr.FilesModified = outcome.FilesModified
	sr.FilesDeleted = outcome.FilesDeleted
	store.put(step.Name, sr)
	e.bus.Emit(exec.EventStepDone, step.Name, "completed", nil)
}

// dispatch sends step to its tool handler (C7). In collect mode the sink is
// swapped for one that reports would-be writes without touching disk, so
// Pass 1 stays a dry discovery run and only Pass 2 materializes files.
func (e *Engine) dispatch(ctx context.Context, r *recipe.Recipe, step recipe.Step, env map[string]interface{}, store *stepStore, ro runOnceOptions) (tools.Outcome, error) {
	sink := e.sink
	if ro.collectMode {
		sink = collectSink{}
	}
	switch step.Tool {
	case recipe.ToolTemplate:
		return tools.RunTemplate(ctx, step, r.Dir, env, store.fields(), tools.TemplateDeps{
			Engine:      e.template,
			Sink:        sink,
			Force:       ro.force,
			CollectMode: ro.collectMode,
			Collector:   ro.collector,
		})
	case recipe.ToolAction:
		return tools.RunAction(ctx, step, env, e.projectRoot, e.actions, sink)
	case recipe.ToolCodeMod:
		return tools.RunCodeMod(ctx, step, env, e.projectRoot, e.transforms, sink)
	case recipe.ToolRecipe:
		return tools.RunRecipe(ctx, step, ro.recipeRunner)
	default:
		return tools.Outcome{}, fmt.Errorf("%w: unknown tool %q", hgerrors.ErrTool, step.Tool)
	}
}

// collectSink stands in for the real FileSink during Pass 1: every write
// reports success so control flow (conditions reading step results, retry
// bookkeeping) matches what Pass 2 will do, but nothing reaches disk.
type collectSink struct{}

func (collectSink) Write(ctx context.Context, path, body string, mode ports.WriteMode) (bool, bool, error) {
	return true, false, nil
}

func (collectSink) Inject(ctx context.Context, path, body, after, before string) (bool, error) {
	return true, nil
}

func (collectSink) Delete(ctx context.Context, path string) (bool, error) {
	return true, nil
}

// stepStore is the mutex-guarded stepResults map: writes are published once
// a step terminates, and the phase barrier (errgroup.Wait / serial loop)
// ensures every reader in phase K+1 observes every write from phase K
// before it runs, so reads never need the lock held across a step's body.
type stepStore struct {
	mu     sync.RWMutex
	byName map[string]*result.StepResult
	order  []string
}

func newStepStore() *stepStore {
	return &stepStore{byName: map[string]*result.StepResult{}}
}

func (s *stepStore) put(name string, sr *result.StepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[name]; !exists {
		s.order = append(s.order, name)
	}
	s.byName[name] = sr
}

func (s *stepStore) get(name string) (*result.StepResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sr, ok := s.byName[name]
	return sr, ok
}

func (s *stepStore) fields() map[string]map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]map[string]interface{}, len(s.byName))
	for name, sr := range s.byName {
		out[name] = sr.Fields()
	}
	return out
}
