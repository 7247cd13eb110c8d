// Package plan builds the step dependency DAG, detects cycles, and lays the
// graph out into phases of independent steps.
package plan

import (
	"fmt"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/recipe"
)

// Phase is a set of steps scheduled together; every dependency of a step in
// phase K lives in a phase with index < K.
type Phase struct {
	Index     int
	StepNames []string
	Parallel  bool
}

// Node describes one step's position in the graph.
type Node struct {
	Deps       []string
	Dependents []string
	Depth      int
}

// ExecutionPlan is the phased schedule produced by Plan.
type ExecutionPlan struct {
	Phases              []Phase
	Graph               map[string]Node
	EstimatedDurationMs int64
}

// CircularDependencyError reports the cycle Plan discovered.
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("%s: %s", hgerrors.ErrCircularDependency, strings.Join(e.Cycle, " -> "))
}
func (e *CircularDependencyError) Unwrap() error { return hgerrors.ErrCircularDependency }

// defaultStepDurationMs is used for the estimate when a step carries no
// explicit timeout to derive one from.
const defaultStepDurationMs = 250

// Plan builds an ExecutionPlan from a recipe's steps. maxConcurrency only
// decides whether a multi-step phase may be marked parallel (it must exceed
// 1); phases are not split by it.
func Plan(steps []recipe.Step, maxConcurrency int) (*ExecutionPlan, error) {
	byName := make(map[string]recipe.Step, len(steps))
	order := make([]string, 0, len(steps))
	for _, s := range steps {
		byName[s.Name] = s
		order = append(order, s.Name)
	}

	graph := make(map[string]Node, len(steps))
	for _, s := range steps {
		graph[s.Name] = Node{Deps: append([]string{}, s.DependsOn...)}
	}
	for name, n := range graph {
		for _, dep := range n.Deps {
			d := graph[dep]
			d.Dependents = append(d.Dependents, name)
			graph[dep] = d
		}
	}

	if cycle := findCycle(order, graph); cycle != nil {
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	depth := computeDepths(order, graph)
	for name, n := range graph {
		n.Depth = depth[name]
		graph[name] = n
	}

	phases := layerIntoPhases(order, depth, byName, maxConcurrency)

	var estimate int64
	for _, p := range phases {
		var phaseMax int64
		for _, name := range p.StepNames {
			d := int64(byName[name].TimeoutMs)
			if d == 0 {
				d = defaultStepDurationMs
			}
			if d > phaseMax {
				phaseMax = d
			}
		}
		estimate += phaseMax
	}

	return &ExecutionPlan{Phases: phases, Graph: graph, EstimatedDurationMs: estimate}, nil
}

// findCycle performs a DFS with three-color marking (white/gray/black) and
// returns the offending path if a back-edge is found.
func findCycle(order []string, graph map[string]Node) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(graph))
	var path []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = gray
		path = append(path, name)
		for _, dep := range graph[name].Deps {
			switch color[dep] {
			case gray:
				cycle := append([]string{}, path...)
				cycle = append(cycle, dep)
				// trim the cycle so it starts at the repeated node
				for i, n := range cycle {
					if n == dep {
						return cycle[i:]
					}
				}
				return cycle
			case white:
				if found := visit(dep); found != nil {
					return found
				}
			}
		}
		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, name := range order {
		if color[name] == white {
			if found := visit(name); found != nil {
				return found
			}
		}
	}
	return nil
}

func computeDepths(order []string, graph map[string]Node) map[string]int {
	depth := make(map[string]int, len(graph))
	var compute func(name string) int
	compute = func(name string) int {
		if d, ok := depth[name]; ok {
			return d
		}
		n := graph[name]
		if len(n.Deps) == 0 {
			depth[name] = 0
			return 0
		}
		max := 0
		for _, dep := range n.Deps {
			if d := compute(dep); d > max {
				max = d
			}
		}
		depth[name] = max + 1
		return depth[name]
	}
	for _, name := range order {
		compute(name)
	}
	return depth
}

// layerIntoPhases groups steps by depth, preserving declaration order
// within each phase, and decides whether each phase runs in parallel.
func layerIntoPhases(order []string, depth map[string]int, byName map[string]recipe.Step, maxConcurrency int) []Phase {
	maxDepth := 0
	for _, d := range depth {
		if d > maxDepth {
			maxDepth = d
		}
	}

	phases := make([]Phase, 0, maxDepth+1)
	for i := 0; i <= maxDepth; i++ {
		var names []string
		for _, name := range order {
			if depth[name] == i {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}
		parallel := len(names) > 1 && maxConcurrency > 1
		if parallel {
			for _, name := range names {
				if !byName[name].ParallelOrDefault() {
					parallel = false
					break
				}
			}
		}
		phases = append(phases, Phase{
			Index:     len(phases),
			StepNames: names,
			Parallel:  parallel,
		})
	}
	return phases
}
