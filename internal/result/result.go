// Package result defines per-step and per-recipe outcomes and the
// aggregator (C9) that merges step results into a RecipeResult.
package result

import "time"

// StepStatus enumerates a step's terminal (or in-flight) state.
type StepStatus string

const (
	StatusPending   StepStatus = "pending"
	StatusRunning   StepStatus = "running"
	StatusCompleted StepStatus = "completed"
	StatusFailed    StepStatus = "failed"
	StatusSkipped   StepStatus = "skipped"
)

// StepError carries the taxonomy kind alongside a human message.
type StepError struct {
	Kind    string
	Message string
	Cause   error
}

func (e *StepError) Error() string {
	if e == nil {
		return ""
	}
	return e.Kind + ": " + e.Message
}

// StepResult is the executor's record of one step's outcome. It becomes
// read-only once the step terminates; other steps may read it via
// stepResults.<name> in conditions and templates.
type StepResult struct {
	StepName   string
	Tool       string
	Status     StepStatus
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
	RetryCount int

	DependenciesSatisfied bool
	ConditionResult       bool
	SkipReason            string

	FilesCreated  []string
	FilesModified []string
	FilesDeleted  []string

	Output interface{}
	Error  *StepError
}

// Fields exposes the step result as a flat map for condition evaluation
// (stepResults.<name>.<field>) and template rendering.
func (r *StepResult) Fields() map[string]interface{} {
	out := map[string]interface{}{
		"status":     string(r.Status),
		"retryCount": float64(r.RetryCount),
		"durationMs": float64(r.DurationMs),
	}
	if r.Output != nil {
		out["output"] = r.Output
	}
	if r.Error != nil {
		out["error"] = r.Error.Message
	}
	return out
}

// RecipeResult is the aggregated outcome of one execute() call.
type RecipeResult struct {
	Success       bool
	StepResults   []*StepResult
	FilesCreated  []string
	FilesModified []string
	FilesDeleted  []string
	Errors        []string
	Warnings      []string
	Variables     map[string]interface{}
	Metadata      Metadata
}

// Metadata carries timing and counters for one run.
type Metadata struct {
	StartedAt      time.Time
	EndedAt        time.Time
	DurationMs     int64
	TotalSteps     int
	CompletedSteps int
	FailedSteps    int
	SkippedSteps   int
	WorkingDir     string
	ExecutionID    string
}

// Aggregate merges per-step results into a RecipeResult following the set
// semantics in the spec: file lists are de-duplicated in order of first
// appearance, and a path that is both created and later deleted within the
// same run appears only in FilesDeleted.
func Aggregate(steps []*StepResult, vars map[string]interface{}, meta Metadata) *RecipeResult {
	created := newOrderedSet()
	modified := newOrderedSet()
	deleted := newOrderedSet()

	var errs []string
	completed, failed, skipped := 0, 0, 0

	for _, s := range steps {
		switch s.Status {
		case StatusCompleted:
			completed++
		case StatusFailed:
			failed++
			errs = append(errs, s.StepName+": "+errMessage(s))
		case StatusSkipped:
			skipped++
		}
		for _, f := range s.FilesCreated {
			created.add(f)
		}
		for _, f := range s.FilesModified {
			modified.add(f)
		}
		for _, f := range s.FilesDeleted {
			deleted.add(f)
			created.remove(f)
			modified.remove(f)
		}
	}

	meta.TotalSteps = len(steps)
	meta.CompletedSteps = completed
	meta.FailedSteps = failed
	meta.SkippedSteps = skipped
	meta.DurationMs = meta.EndedAt.Sub(meta.StartedAt).Milliseconds()

	return &RecipeResult{
		Success:       failed == 0,
		StepResults:   steps,
		FilesCreated:  created.items(),
		FilesModified: modified.items(),
		FilesDeleted:  deleted.items(),
		Errors:        errs,
		Variables:     vars,
		Metadata:      meta,
	}
}

func errMessage(s *StepResult) string {
	if s.Error != nil {
		return s.Error.Message
	}
	return "failed"
}

// orderedSet preserves first-appearance order while supporting removal,
// used to realize the "created then deleted -> only deleted" rule.
type orderedSet struct {
	order []string
	has   map[string]bool
}

func newOrderedSet() *orderedSet {
	return &orderedSet{has: map[string]bool{}}
}

func (s *orderedSet) add(v string) {
	if s.has[v] {
		return
	}
	s.has[v] = true
	s.order = append(s.order, v)
}

func (s *orderedSet) remove(v string) {
	if !s.has[v] {
		return
	}
	delete(s.has, v)
	for i, x := range s.order {
		if x == v {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *orderedSet) items() []string {
	if len(s.order) == 0 {
		return nil
	}
	return append([]string{}, s.order...)
}
