// Package recipe defines the parsed form of recipe.yml and loads/validates it.
package recipe

// VariableType enumerates the tagged-variant types a declared variable may take.
type VariableType string

const (
	TypeString    VariableType = "string"
	TypeNumber    VariableType = "number"
	TypeBoolean   VariableType = "boolean"
	TypeEnum      VariableType = "enum"
	TypeArray     VariableType = "array"
	TypeObject    VariableType = "object"
	TypeFile      VariableType = "file"
	TypeDirectory VariableType = "directory"
)

// VariableSpec describes one declared recipe variable.
type VariableSpec struct {
	Type        VariableType `yaml:"type"`
	Required    bool         `yaml:"required"`
	Default     interface{}  `yaml:"default"`
	Description string       `yaml:"description"`
	Prompt      string       `yaml:"prompt"`
	Position    *int         `yaml:"position"`
	Pattern     string       `yaml:"pattern"`
	MinLength   *int         `yaml:"minLength"`
	MaxLength   *int         `yaml:"maxLength"`
	Min         *float64     `yaml:"min"`
	Max         *float64     `yaml:"max"`
	Values      []string     `yaml:"values"`
	Multiple    bool         `yaml:"multiple"`
	Suggestion  interface{}  `yaml:"suggestion"`

	// Name is populated by the loader from the map key; not present in YAML.
	Name string `yaml:"-"`
}

// Tool enumerates the four step kinds.
type Tool string

const (
	ToolTemplate Tool = "template"
	ToolAction   Tool = "action"
	ToolCodeMod  Tool = "codemod"
	ToolRecipe   Tool = "recipe"
)

// Step is a tagged union over Tool with common scheduling fields plus
// tool-specific payload fields (only the ones relevant to Tool are set).
type Step struct {
	Name      string   `yaml:"name"`
	Tool      Tool     `yaml:"tool"`
	When      string   `yaml:"when"`
	DependsOn []string `yaml:"dependsOn"`
	Parallel  *bool    `yaml:"parallel"` // nil means "unset", default true
	Retries   int      `yaml:"retries"`
	TimeoutMs int      `yaml:"timeoutMs"`

	// template
	Source string `yaml:"source"`
	To     string `yaml:"to"`

	// action
	Action string `yaml:"action"`

	// action, codemod, recipe
	Params map[string]interface{} `yaml:"params"`

	// codemod
	Target    string `yaml:"target"`
	Transform string `yaml:"transform"`

	// recipe
	Path string `yaml:"path"`
}

// ParallelOrDefault returns whether this step may run concurrently with its
// phase-mates; the YAML default is true when the field is unset.
func (s Step) ParallelOrDefault() bool {
	if s.Parallel == nil {
		return true
	}
	return *s.Parallel
}

// Recipe is the parsed, validated form of recipe.yml.
type Recipe struct {
	Name        string                   `yaml:"name"`
	Description string                   `yaml:"description"`
	Version     string                   `yaml:"version"`
	Author      string                   `yaml:"author"`
	Category    string                   `yaml:"category"`
	Tags        []string                 `yaml:"tags"`
	Variables   map[string]*VariableSpec `yaml:"variables"`
	Steps       []Step                   `yaml:"steps"`

	// VariableOrder preserves declaration order for positional binding;
	// Go map iteration order is not stable, so the loader fills this in
	// from the raw YAML node order during decode.
	VariableOrder []string `yaml:"-"`

	// Dir is the directory recipe.yml was loaded from; templates and
	// recipe-tool `path` references resolve relative to it.
	Dir string `yaml:"-"`
}

// Group is the parsed form of group.yml: a named set of sibling recipes.
type Group struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Recipes     []string `yaml:"recipes"`
	Dir         string   `yaml:"-"`
}
