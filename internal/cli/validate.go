package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hypergen/hypergen/internal/recipe"
)

// ValidationOutput is the JSON output for the validate command.
type ValidationOutput struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <recipe-path>",
	Short: "Validate a recipe.yml without running it",
	Long: `Load and validate a recipe.yml, reporting every schema problem found
(invalid step names, unknown dependencies, missing tool-specific fields,
malformed variable constraints) without executing any step.

Examples:
  hypergen validate ./cookbooks/component/button
  hypergen validate ./cookbooks/component/button/recipe.yml`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]

	_, err := recipe.Load(path)

	var valErrs recipe.ValidationErrors
	if err != nil && !errors.As(err, &valErrs) {
		printError("failed to read recipe: %v", err)
		return err
	}

	if jsonOut {
		output := ValidationOutput{Valid: len(valErrs) == 0}
		for _, e := range valErrs {
			output.Errors = append(output.Errors, e.Error())
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(output); encErr != nil {
			return encErr
		}
		if len(valErrs) > 0 {
			return valErrs
		}
		return nil
	}

	if len(valErrs) == 0 {
		printSuccess("recipe is valid")
		return nil
	}

	fmt.Println("Errors:")
	for _, e := range valErrs {
		fmt.Printf("  - %s\n", e.Error())
	}
	return valErrs
}
