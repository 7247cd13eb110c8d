package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// dynamicArgs is the result of parsing a `run`/`plan` invocation's argument
// list: recipe path segments aren't known to cobra ahead of time (they come
// from the kit/cookbook/recipe tree on disk), and `--key=value` variable
// overrides aren't known until the recipe's own variables are declared. Both
// commands register with DisableFlagParsing and parse by hand instead.
type dynamicArgs struct {
	Segments    []string
	CLIParams   map[string]string
	Positionals []string

	Dry             bool
	Force           bool
	NoDefaults      bool
	ContinueOnError bool
	AnswersFile     string
	AskMode         string
	MaxConcurrency  int
}

// parseDynamicArgs splits args into leading path segments (tokens before the
// first one starting with "-") and a trailing mix of `--flag`, `--flag=value`
// and positional tokens.
func parseDynamicArgs(args []string) (*dynamicArgs, error) {
	da := &dynamicArgs{CLIParams: map[string]string{}}

	i := 0
	for ; i < len(args); i++ {
		if strings.HasPrefix(args[i], "-") {
			break
		}
		da.Segments = append(da.Segments, args[i])
	}

	boolFlags := map[string]*bool{
		"dry":               &da.Dry,
		"force":             &da.Force,
		"no-defaults":       &da.NoDefaults,
		"continue-on-error": &da.ContinueOnError,
	}
	valueFlags := map[string]*string{
		"answers": &da.AnswersFile,
		"ask":     &da.AskMode,
	}

	for ; i < len(args); i++ {
		tok := args[i]
		if !strings.HasPrefix(tok, "--") {
			da.Positionals = append(da.Positionals, tok)
			continue
		}
		body := strings.TrimPrefix(tok, "--")

		if eq := strings.IndexByte(body, '='); eq >= 0 {
			key, val := body[:eq], body[eq+1:]
			if err := da.setFlag(key, val, boolFlags, valueFlags); err != nil {
				return nil, err
			}
			continue
		}

		if bp, ok := boolFlags[body]; ok {
			*bp = true
			continue
		}
		if _, ok := valueFlags[body]; ok {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--%s requires a value", body)
			}
			i++
			if err := da.setFlag(body, args[i], boolFlags, valueFlags); err != nil {
				return nil, err
			}
			continue
		}
		if body == "max-concurrency" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("--max-concurrency requires a value")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return nil, fmt.Errorf("invalid --max-concurrency value %q: %w", args[i], err)
			}
			da.MaxConcurrency = n
			continue
		}

		// Anything else is a recipe variable override: --key=value is the
		// only documented form, but a bare --key (no value token follows a
		// `=`) is accepted as the boolean-true shorthand.
		da.CLIParams[body] = "true"
	}

	return da, nil
}

func (da *dynamicArgs) setFlag(key, val string, boolFlags map[string]*bool, valueFlags map[string]*string) error {
	if key == "max-concurrency" {
		n, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid --max-concurrency value %q: %w", val, err)
		}
		da.MaxConcurrency = n
		return nil
	}
	if bp, ok := boolFlags[key]; ok {
		*bp = val == "" || val == "true"
		return nil
	}
	if sp, ok := valueFlags[key]; ok {
		*sp = val
		return nil
	}
	da.CLIParams[key] = val
	return nil
}
