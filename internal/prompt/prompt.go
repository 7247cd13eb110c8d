// Package prompt implements the default ports.Prompter over
// github.com/charmbracelet/huh, grounded in steveyegge-beads's
// cmd/bd/create_form.go form usage.
package prompt

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/recipe"
)

type huhPrompter struct{}

// New returns the default interactive Prompter.
func New() *huhPrompter {
	return &huhPrompter{}
}

// Ask implements ports.Prompter by building a single-field huh form whose
// shape depends on the variable's declared type. Text inputs show the
// suggestion (or else the default) as a placeholder; the boolean and enum
// forms show no placeholder.
func (p *huhPrompter) Ask(ctx context.Context, spec *recipe.VariableSpec) (interface{}, error) {
	title := spec.Name
	if spec.Prompt != "" {
		title = spec.Prompt
	}
	description := spec.Description
	placeholder := placeholderFor(spec)

	switch spec.Type {
	case recipe.TypeBoolean:
		var v bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().Title(title).Description(description).Value(&v),
		))
		if err := form.Run(); err != nil {
			return nil, wrapPromptErr(err)
		}
		return v, nil

	case recipe.TypeEnum:
		opts := make([]huh.Option[string], 0, len(spec.Values))
		for _, v := range spec.Values {
			opts = append(opts, huh.NewOption(v, v))
		}
		if spec.Multiple {
			var selected []string
			form := huh.NewForm(huh.NewGroup(
				huh.NewMultiSelect[string]().Title(title).Description(description).Options(opts...).Value(&selected),
			))
			if err := form.Run(); err != nil {
				return nil, wrapPromptErr(err)
			}
			out := make([]interface{}, len(selected))
			for i, s := range selected {
				out[i] = s
			}
			return out, nil
		}
		var v string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().Title(title).Description(description).Options(opts...).Value(&v),
		))
		if err := form.Run(); err != nil {
			return nil, wrapPromptErr(err)
		}
		return v, nil

	default:
		var v string
		input := huh.NewInput().Title(title).Description(description).Placeholder(placeholder).Value(&v)
		form := huh.NewForm(huh.NewGroup(input))
		if err := form.Run(); err != nil {
			return nil, wrapPromptErr(err)
		}
		return v, nil
	}
}

func placeholderFor(spec *recipe.VariableSpec) string {
	if spec.Suggestion != nil {
		return fmt.Sprintf("%v", spec.Suggestion)
	}
	if spec.Default != nil {
		return fmt.Sprintf("%v", spec.Default)
	}
	return ""
}

func wrapPromptErr(err error) error {
	if err == huh.ErrUserAborted {
		return fmt.Errorf("%w: prompt cancelled by user", hgerrors.ErrCancelled)
	}
	return err
}

// ConfirmOverwrite asks a yes/no question before overwriting an existing
// file, matching the sink.Confirmer seam (WriteMode=prompt).
func ConfirmOverwrite(path string) (bool, error) {
	var ok bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Overwrite %s?", path)).
			Affirmative("Overwrite").
			Negative("Skip").
			Value(&ok),
	))
	if err := form.Run(); err != nil {
		if err == huh.ErrUserAborted {
			return false, nil
		}
		return false, err
	}
	return ok, nil
}

// ParseBoolAnswer parses a "true"/"false" token (surrounding whitespace
// ignored) with strconv.ParseBool. Nothing in the repository calls it.
func ParseBoolAnswer(s string) (bool, error) {
	return strconv.ParseBool(strings.TrimSpace(s))
}
