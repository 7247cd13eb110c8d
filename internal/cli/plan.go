package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hypergen/hypergen/internal/ai"
	"github.com/hypergen/hypergen/internal/config"
	"github.com/hypergen/hypergen/internal/discover"
	"github.com/hypergen/hypergen/internal/plan"
	"github.com/hypergen/hypergen/internal/prompt"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/resolve"
)

// PlanOutput is the JSON rendering of an ExecutionPlan, one line per phase.
type PlanOutput struct {
	Recipe string      `json:"recipe"`
	Phases []PhaseLine `json:"phases"`
}

// PhaseLine is one phase of an ExecutionPlan.
type PhaseLine struct {
	Index    int      `json:"index"`
	Parallel bool     `json:"parallel"`
	Steps    []string `json:"steps"`
}

var planCmd = &cobra.Command{
	Use:   "plan <recipe-path-segments...> [--key=value ...]",
	Short: "Resolve variables and print the execution plan without running it",
	Long: `Resolve a recipe's variables the same way run would, then print the
phase/DAG execution plan the Step Dependency Planner would schedule, without
dispatching a single step or writing a single file.

Examples:
  hypergen plan react component/button --name=Button
  hypergen plan react component/button --name=Button --json`,
	DisableFlagParsing: true,
	RunE:               runPlan,
}

func runPlan(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		return cmd.Help()
	}

	da, err := parseDynamicArgs(args)
	if err != nil {
		return err
	}
	if len(da.Segments) == 0 {
		return fmt.Errorf("plan requires at least one recipe path segment")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	askMode, _, err := resolveAskMode(firstNonEmpty(da.AskMode, cfg.Defaults.AskMode))
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	rp, err := discover.Resolve(da.Segments, discover.WithCWD(cwd), discover.WithSearchRoots(cfg.Discovery.SearchRoots...))
	if err != nil {
		return err
	}
	if rp.Type == discover.ResolvedGroup {
		return fmt.Errorf("%s resolves to a group of recipes; name one explicitly", rp.FullPath)
	}

	r, err := recipe.Load(rp.FullPath)
	if err != nil {
		return err
	}

	ctx := context.Background()
	_, err = resolve.Resolve(ctx, r, da.CLIParams, da.Positionals, resolve.Options{
		AskMode:    askMode,
		NoDefaults: da.NoDefaults,
		Prompter:   prompt.New(),
		AI:         ai.NewVariableResolver(ctx, cfg.AI),
	})
	if err != nil {
		return err
	}

	maxConcurrency := da.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = cfg.Defaults.MaxConcurrency
	}

	executionPlan, err := plan.Plan(r.Steps, maxConcurrency)
	if err != nil {
		return err
	}

	if jsonOut {
		output := PlanOutput{Recipe: r.Name}
		for _, ph := range executionPlan.Phases {
			output.Phases = append(output.Phases, PhaseLine{Index: ph.Index, Parallel: ph.Parallel, Steps: ph.StepNames})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	fmt.Printf("%s: %d phase(s)\n", r.Name, len(executionPlan.Phases))
	for _, ph := range executionPlan.Phases {
		mode := "serial"
		if ph.Parallel {
			mode = "parallel"
		}
		fmt.Printf("  phase %d (%s): %v\n", ph.Index, mode, ph.StepNames)
	}
	return nil
}
