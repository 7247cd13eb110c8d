// Package resolve implements the Variable Resolver (C3): an ordered
// provider chain (answers -> CLI args -> positionals -> defaults -> prompt
// or AI batch) with per-type coercion and validation.
package resolve

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/ports"
	"github.com/hypergen/hypergen/internal/recipe"
)

// AskMode selects who fills unresolved required variables.
type AskMode string

const (
	AskMe     AskMode = "me"
	AskAI     AskMode = "ai"
	AskNobody AskMode = "nobody"
)

// Options configures one resolve() call.
type Options struct {
	AskMode    AskMode
	NoDefaults bool
	Answers    map[string]interface{}
	Prompter   ports.Prompter
	AI         ports.AiVariableResolver
}

// ResolutionError is a single resolution-stage failure (MissingRequired,
// InvalidValue, CoercionFailed, UnexpectedPositional).
type ResolutionError struct {
	Variable string
	Kind     error // one of the hgerrors.Err* sentinels
	Detail   string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Variable, e.Detail)
}
func (e *ResolutionError) Unwrap() error { return e.Kind }

// ResolutionErrors collects every failure from one resolve() call.
type ResolutionErrors []*ResolutionError

func (es ResolutionErrors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Resolve implements C3's contract. cliParams are explicit --key=value
// pairs; positionals are the remaining CLI tokens after path resolution.
func Resolve(ctx context.Context, r *recipe.Recipe, cliParams map[string]string, positionals []string, opts Options) (map[string]interface{}, error) {
	env := make(map[string]interface{}, len(r.Variables))
	var unresolved []*recipe.VariableSpec
	var errs ResolutionErrors

	maxPosition := -1
	for _, spec := range r.Variables {
		if spec.Position != nil && *spec.Position > maxPosition {
			maxPosition = *spec.Position
		}
	}
	if len(positionals) > maxPosition+1 {
		errs = append(errs, &ResolutionError{Variable: "<positional>", Kind: hgerrors.ErrUnexpectedPositional,
			Detail: fmt.Sprintf("got %d positionals, only %d bound", len(positionals), maxPosition+1)})
	}

	order := r.VariableOrder
	if len(order) == 0 {
		for name := range r.Variables {
			order = append(order, name)
		}
	}

	for _, name := range order {
		spec := r.Variables[name]
		if spec == nil {
			continue
		}
		raw, found := firstResolvedValue(spec, name, cliParams, positionals, opts)
		if !found {
			unresolved = append(unresolved, spec)
			continue
		}
		val, err := coerceAndValidate(spec, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		env[name] = val
	}

	unresolved, env, batchErrs := resolveUnresolved(ctx, unresolved, env, r, opts)
	errs = append(errs, batchErrs...)

	for _, spec := range unresolved {
		if spec.Required {
			errs = append(errs, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrMissingRequired, Detail: "no value from any provider"})
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return env, nil
}

func firstResolvedValue(spec *recipe.VariableSpec, name string, cliParams map[string]string, positionals []string, opts Options) (interface{}, bool) {
	if opts.Answers != nil {
		if v, ok := opts.Answers[name]; ok {
			return v, true
		}
	}
	if v, ok := cliParams[name]; ok {
		return v, true
	}
	if spec.Position != nil && *spec.Position < len(positionals) {
		return positionals[*spec.Position], true
	}
	if !opts.NoDefaults && spec.Default != nil {
		return spec.Default, true
	}
	return nil, false
}

// resolveUnresolved dispatches the batch of still-unresolved variables to
// the interactive prompter or the AI batch resolver depending on AskMode,
// and returns the variables that remain unresolved afterward.
func resolveUnresolved(ctx context.Context, unresolved []*recipe.VariableSpec, env map[string]interface{}, r *recipe.Recipe, opts Options) ([]*recipe.VariableSpec, map[string]interface{}, ResolutionErrors) {
	if len(unresolved) == 0 {
		return unresolved, env, nil
	}

	var errs ResolutionErrors
	var stillUnresolved []*recipe.VariableSpec

	switch opts.AskMode {
	case AskMe:
		if opts.Prompter == nil {
			return unresolved, env, errs
		}
		for _, spec := range unresolved {
			v, err := opts.Prompter.Ask(ctx, spec)
			if err != nil {
				stillUnresolved = append(stillUnresolved, spec)
				continue
			}
			coerced, cerr := coerceAndValidate(spec, v)
			if cerr != nil {
				errs = append(errs, cerr)
				continue
			}
			env[spec.Name] = coerced
		}
	case AskAI:
		if opts.AI == nil {
			return unresolved, env, errs
		}
		answers, err := opts.AI.ResolveBatch(ctx, unresolved, env, r.Name)
		if err != nil {
			return unresolved, env, errs
		}
		for _, spec := range unresolved {
			v, ok := answers[spec.Name]
			if !ok {
				stillUnresolved = append(stillUnresolved, spec)
				continue
			}
			coerced, cerr := coerceAndValidate(spec, v)
			if cerr != nil {
				// AI answers that fail coercion are dropped silently; the
				// variable remains unresolved, not an error.
				stillUnresolved = append(stillUnresolved, spec)
				continue
			}
			env[spec.Name] = coerced
		}
	default: // AskNobody or unset
		stillUnresolved = unresolved
	}

	return stillUnresolved, env, errs
}

func coerceAndValidate(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	val, err := coerce(spec, raw)
	if err != nil {
		return nil, err
	}
	if err := validateConstraints(spec, val); err != nil {
		return nil, err
	}
	return val, nil
}

func coerce(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	switch spec.Type {
	case recipe.TypeString, recipe.TypeFile, recipe.TypeDirectory:
		return toString(raw), nil
	case recipe.TypeNumber:
		return coerceNumber(spec, raw)
	case recipe.TypeBoolean:
		return coerceBoolean(spec, raw)
	case recipe.TypeEnum:
		return coerceEnum(spec, raw)
	case recipe.TypeArray:
		return coerceArray(raw), nil
	case recipe.TypeObject:
		return coerceObject(spec, raw)
	default:
		return raw, nil
	}
}

func toString(raw interface{}) string {
	if s, ok := raw.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", raw)
}

func coerceNumber(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrCoercionFailed, Detail: "not a number: " + v}
		}
		return f, nil
	default:
		return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrCoercionFailed, Detail: "not a number"}
	}
}

func coerceBoolean(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch v {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrCoercionFailed, Detail: "expected true/false"}
}

func coerceEnum(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	allowed := make(map[string]bool, len(spec.Values))
	for _, v := range spec.Values {
		allowed[v] = true
	}
	if spec.Multiple {
		items := coerceArray(raw)
		var kept []string
		for _, item := range items {
			s := toString(item)
			if allowed[s] {
				kept = append(kept, s)
			}
		}
		if len(kept) == 0 {
			return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "no valid values in " + spec.Name}
		}
		return kept, nil
	}
	s := toString(raw)
	if !allowed[s] {
		return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: fmt.Sprintf("%q is not one of %v", s, spec.Values)}
	}
	return s, nil
}

func coerceArray(raw interface{}) []interface{} {
	switch v := raw.(type) {
	case []interface{}:
		return v
	case string:
		parts := strings.Split(v, ",")
		out := make([]interface{}, 0, len(parts))
		for _, p := range parts {
			out = append(out, strings.TrimSpace(p))
		}
		return out
	default:
		return []interface{}{raw}
	}
}

func coerceObject(spec *recipe.VariableSpec, raw interface{}) (interface{}, *ResolutionError) {
	if m, ok := raw.(map[string]interface{}); ok {
		return m, nil
	}
	return nil, &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrCoercionFailed, Detail: "expected an object"}
}

func validateConstraints(spec *recipe.VariableSpec, val interface{}) *ResolutionError {
	if spec.Pattern != "" {
		if s, ok := val.(string); ok {
			re := regexp.MustCompile(spec.Pattern)
			if !re.MatchString(s) {
				return &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "does not match pattern " + spec.Pattern}
			}
		}
	}
	if s, ok := val.(string); ok {
		if spec.MinLength != nil && len(s) < *spec.MinLength {
			return &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "shorter than minLength"}
		}
		if spec.MaxLength != nil && len(s) > *spec.MaxLength {
			return &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "longer than maxLength"}
		}
	}
	if f, ok := val.(float64); ok {
		if spec.Min != nil && f < *spec.Min {
			return &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "below min"}
		}
		if spec.Max != nil && f > *spec.Max {
			return &ResolutionError{Variable: spec.Name, Kind: hgerrors.ErrInvalidValue, Detail: "above max"}
		}
	}
	return nil
}
