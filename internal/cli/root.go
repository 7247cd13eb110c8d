// Package cli provides the command-line interface for hypergen.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hypergen/hypergen/internal/logging"
)

var (
	// Version information (set at build time)
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"

	// Global flags
	verbose bool
	quiet   bool
	jsonOut bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hypergen",
	Short: "Recipe-driven code scaffolding engine",
	Long: `Hypergen - recipe-driven code scaffolding and codemod engine.

A recipe is a declarative recipe.yml describing variables to collect and
steps to run against a project: rendering templates, invoking trusted
actions, applying codemods, or composing other recipes.

Examples:
  # Run a recipe discovered from a kit/cookbook/recipe path
  hypergen run react component/button --name=Button

  # List everything discoverable from the current directory
  hypergen list

  # Validate a recipe.yml without running it
  hypergen validate ./cookbooks/component/button

  # Print the execution plan without running any step
  hypergen plan react component/button --name=Button`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits the process with the
// appropriate exit code (see internal/cli/exitcode.go).
func Execute() {
	logging.Init(verbose, jsonOut)
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(exitCodeFor(err))
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress non-essential output")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(versionCmd)
}

// Print helpers, mirrored from the teacher's cli package.
func printInfo(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

func printVerbose(format string, args ...interface{}) {
	if verbose && !quiet {
		fmt.Printf(format+"\n", args...)
	}
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}

func printSuccess(format string, args ...interface{}) {
	if !quiet {
		fmt.Printf("✓ "+format+"\n", args...)
	}
}
