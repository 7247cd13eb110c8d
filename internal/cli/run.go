package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hypergen/hypergen/internal/config"
	"github.com/hypergen/hypergen/internal/discover"
	"github.com/hypergen/hypergen/internal/engine"
	"github.com/hypergen/hypergen/internal/exec"
	"github.com/hypergen/hypergen/internal/result"
)

var runCmd = &cobra.Command{
	Use:   "run <recipe-path-segments...> [--key=value ...] [positional ...]",
	Short: "Run a recipe",
	Long: `Resolve a kit/cookbook/recipe path, collect its declared variables, and
execute its steps.

Examples:
  hypergen run react component/button --name=Button
  hypergen run ./cookbooks/component/button Button --force
  hypergen run react component/button --ask=nobody --name=Button`,
	DisableFlagParsing: true,
	RunE:               runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	if len(args) > 0 && (args[0] == "-h" || args[0] == "--help") {
		return cmd.Help()
	}

	da, err := parseDynamicArgs(args)
	if err != nil {
		return err
	}
	if len(da.Segments) == 0 {
		return fmt.Errorf("run requires at least one recipe path segment")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	askMode, askOpts, err := resolveAskMode(firstNonEmpty(da.AskMode, cfg.Defaults.AskMode))
	if err != nil {
		return err
	}

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	// Ctrl-C cancels the run; in-flight steps of the current phase observe
	// ctx.Done() at their next port boundary and settle before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	bus := exec.NewBus(256)
	e, err := buildEngine(ctx, cfg, cwd, da.Dry, append(askOpts, engine.WithEventBus(bus))...)
	if err != nil {
		return err
	}

	var aiAnswers map[string]string
	if da.AnswersFile != "" {
		aiAnswers, err = loadAnswersFile(da.AnswersFile)
		if err != nil {
			return err
		}
	}

	maxConcurrency := da.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = cfg.Defaults.MaxConcurrency
	}

	continueOnError := da.ContinueOnError || cfg.Defaults.ContinueOnError

	eventsDone := make(chan struct{})
	go streamEvents(e.Events(), eventsDone)

	res, runErr := e.Run(ctx, da.Segments, engine.RunOptions{
		CLIParams:       da.CLIParams,
		Positionals:     da.Positionals,
		AIAnswers:       aiAnswers,
		AskMode:         askMode,
		NoDefaults:      da.NoDefaults,
		Force:           da.Force,
		ContinueOnError: continueOnError,
		MaxConcurrency:  maxConcurrency,
		CWD:             cwd,
		SearchRoots:     cfg.Discovery.SearchRoots,
	})
	bus.Close()
	<-eventsDone
	if runErr != nil {
		var nf *discover.NotFoundError
		if errors.As(runErr, &nf) {
			if kits, lerr := discover.List(discover.WithCWD(cwd), discover.WithSearchRoots(cfg.Discovery.SearchRoots...)); lerr == nil {
				if suggestions := suggestFor(nf, kits); len(suggestions) > 0 {
					printInfo("did you mean: %s", strings.Join(suggestions, ", "))
				}
			}
		}
		return runErr
	}

	printRunResult(res)
	if !res.Success {
		return fmt.Errorf("recipe failed: %d step(s) failed", res.Metadata.FailedSteps)
	}
	return nil
}

func printRunResult(res *result.RecipeResult) {
	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(res)
		return
	}

	// Per-step progress already streamed live via streamEvents; only
	// failures need restating with their full error here.
	for _, sr := range res.StepResults {
		if sr.Status == result.StatusFailed {
			printError("%s: %s", sr.StepName, sr.Error.Error())
		}
	}

	for _, f := range res.FilesCreated {
		printInfo("created  %s", f)
	}
	for _, f := range res.FilesModified {
		printInfo("modified %s", f)
	}
	for _, f := range res.FilesDeleted {
		printInfo("deleted  %s", f)
	}

	if res.Success {
		printSuccess("%d step(s) completed", res.Metadata.CompletedSteps)
	} else {
		printError("%d of %d step(s) failed", res.Metadata.FailedSteps, res.Metadata.TotalSteps)
	}
}

// streamEvents prints live per-step progress while a run is in flight, so
// --verbose shows what a long recipe is doing rather than only a summary
// after the fact. The channel is closed by runRun once the run returns.
func streamEvents(events <-chan exec.Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		switch ev.Type {
		case exec.EventPhaseStart:
			printVerbose("%s", ev.Message)
		case exec.EventStepStart:
			printVerbose("  %s: running", ev.StepName)
		case exec.EventStepRetry:
			printVerbose("  %s: retrying (%s)", ev.StepName, ev.Message)
		case exec.EventStepSkip:
			printVerbose("  %s: skipped (%s)", ev.StepName, ev.Message)
		case exec.EventStepDone:
			printVerbose("  %s: %s", ev.StepName, ev.Message)
		}
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func loadAnswersFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading --answers file %s: %w", path, err)
	}
	var answers map[string]string
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("--answers file %s is not a flat JSON object: %w", path, err)
	}
	return answers, nil
}
