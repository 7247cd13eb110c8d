package recipe

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	hgerrors "github.com/hypergen/hypergen/internal/errors"
)

// ValidationError is one collected schema problem. The loader's checks run
// on the decoded struct and leave Line/Col zero; Error prints the line only
// when Line is set.
type ValidationError struct {
	Line    int
	Col     int
	Message string
}

func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// ValidationErrors is the list returned when recipe.yml parses but fails
// schema validation; Load fails fast only on unparseable YAML.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "no validation errors"
	}
	msg := fmt.Sprintf("%d validation error(s):", len(v))
	for _, e := range v {
		msg += "\n  - " + e.Error()
	}
	return msg
}

var stepNamePattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_-]*$`)

// Load reads and validates recipe.yml at path (or the recipe.yml inside
// path if path is a directory).
func Load(path string) (*Recipe, error) {
	info, err := os.Stat(path)
	if err == nil && info.IsDir() {
		path = filepath.Join(path, "recipe.yml")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", hgerrors.ErrUnparseableYAML, err)
	}
	r, err := LoadFromString(string(data))
	if err != nil {
		return nil, err
	}
	r.Dir = filepath.Dir(path)
	return r, nil
}

// LoadFromString parses recipe.yml content already read into memory.
func LoadFromString(content string) (*Recipe, error) {
	var node yaml.Node
	if err := yaml.Unmarshal([]byte(content), &node); err != nil {
		return nil, fmt.Errorf("%w: %s", hgerrors.ErrUnparseableYAML, err)
	}

	var r Recipe
	if err := yaml.Unmarshal([]byte(content), &r); err != nil {
		return nil, fmt.Errorf("%w: %s", hgerrors.ErrUnparseableYAML, err)
	}

	r.VariableOrder = variableOrderFromNode(&node)
	for name, spec := range r.Variables {
		spec.Name = name
	}

	if errs := validate(&r); len(errs) > 0 {
		return nil, errs
	}
	return &r, nil
}

// variableOrderFromNode walks the raw document to recover the declaration
// order of the `variables` mapping, which map[string]*VariableSpec loses.
func variableOrderFromNode(doc *yaml.Node) []string {
	if len(doc.Content) == 0 {
		return nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		key := root.Content[i]
		if key.Value != "variables" {
			continue
		}
		varsNode := root.Content[i+1]
		if varsNode.Kind != yaml.MappingNode {
			return nil
		}
		var order []string
		for j := 0; j+1 < len(varsNode.Content); j += 2 {
			order = append(order, varsNode.Content[j].Value)
		}
		return order
	}
	return nil
}

// LoadGroup reads the group.yml inside dir. Groups are not executable; the
// caller lists the member recipes so the user can name one.
func LoadGroup(dir string) (*Group, error) {
	data, err := os.ReadFile(filepath.Join(dir, "group.yml"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", hgerrors.ErrUnparseableYAML, err)
	}
	var g Group
	if err := yaml.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("%w: %s", hgerrors.ErrUnparseableYAML, err)
	}
	g.Dir = dir
	return &g, nil
}

func validate(r *Recipe) ValidationErrors {
	var errs ValidationErrors

	if r.Version != "" {
		if _, err := semver.NewVersion(r.Version); err != nil {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: %q (%s)", hgerrors.ErrInvalidVersion, r.Version, err)})
		}
	}

	errs = append(errs, validateVariables(r)...)
	errs = append(errs, validateSteps(r)...)

	return errs
}

func validateVariables(r *Recipe) ValidationErrors {
	var errs ValidationErrors
	positions := map[int]string{}

	for name, spec := range r.Variables {
		if spec.Type == TypeEnum && len(spec.Values) == 0 {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: variable %q", hgerrors.ErrEnumMissingValues, name)})
		}
		if spec.Pattern != "" {
			if _, err := regexp.Compile(spec.Pattern); err != nil {
				errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: variable %q: %s", hgerrors.ErrInvalidPattern, name, err)})
			}
		}
		if spec.Position != nil {
			if existing, ok := positions[*spec.Position]; ok {
				errs = append(errs, ValidationError{Message: fmt.Sprintf("variables %q and %q both declare position %d", existing, name, *spec.Position)})
			}
			positions[*spec.Position] = name
		}
	}

	if len(positions) > 0 {
		for i := 0; i < len(positions); i++ {
			if _, ok := positions[i]; !ok {
				errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: missing position %d", hgerrors.ErrNonContiguousPosition, i)})
				break
			}
		}
	}

	return errs
}

func validateSteps(r *Recipe) ValidationErrors {
	var errs ValidationErrors
	seen := map[string]bool{}

	for _, s := range r.Steps {
		if s.Name == "" || !stepNamePattern.MatchString(s.Name) {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: %q", hgerrors.ErrInvalidStepName, s.Name)})
			continue
		}
		if seen[s.Name] {
			errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: %q", hgerrors.ErrDuplicateStepName, s.Name)})
		}
		seen[s.Name] = true
	}

	for _, s := range r.Steps {
		for _, dep := range s.DependsOn {
			if !seen[dep] {
				errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: step %q depends on %q", hgerrors.ErrUnknownDependency, s.Name, dep)})
			}
		}
		errs = append(errs, validateToolFields(s)...)
	}

	return errs
}

func validateToolFields(s Step) ValidationErrors {
	var errs ValidationErrors
	missing := func(field string) {
		errs = append(errs, ValidationError{Message: fmt.Sprintf("%s: step %q tool %q requires %q", hgerrors.ErrMissingToolField, s.Name, s.Tool, field)})
	}

	switch s.Tool {
	case ToolTemplate:
		if s.Source == "" {
			missing("source")
		}
	case ToolAction:
		if s.Action == "" {
			missing("action")
		}
	case ToolCodeMod:
		if s.Target == "" {
			missing("target")
		}
		if s.Transform == "" {
			missing("transform")
		}
	case ToolRecipe:
		if s.Path == "" {
			missing("path")
		}
	default:
		errs = append(errs, ValidationError{Message: fmt.Sprintf("step %q has unknown tool %q", s.Name, s.Tool)})
	}
	return errs
}
