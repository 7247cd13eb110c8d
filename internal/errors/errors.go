// Package errors defines the sentinel error taxonomy shared across the engine.
package errors

import "errors"

// Validation errors — bad recipe.yml, collected before any step runs.
var (
	ErrInvalidStepName       = errors.New("invalid step name")
	ErrDuplicateStepName     = errors.New("duplicate step name")
	ErrUnknownDependency     = errors.New("dependsOn references unknown step")
	ErrMissingToolField      = errors.New("missing required field for tool")
	ErrNonContiguousPosition = errors.New("positional variables are not contiguous from zero")
	ErrEnumMissingValues     = errors.New("enum variable declared without values")
	ErrInvalidPattern        = errors.New("pattern does not compile as a regular expression")
	ErrInvalidVersion        = errors.New("version does not parse as semver")
	ErrUnparseableYAML       = errors.New("recipe.yml could not be parsed")
)

// Resolution errors — variable stage.
var (
	ErrMissingRequired      = errors.New("missing required variable")
	ErrInvalidValue         = errors.New("invalid variable value")
	ErrCoercionFailed       = errors.New("value could not be coerced to declared type")
	ErrUnexpectedPositional = errors.New("more positionals supplied than bound positions")
)

// Planning errors.
var ErrCircularDependency = errors.New("circular dependency among steps")

// Condition evaluator errors.
var ErrConditionEval = errors.New("condition expression is malformed")

// Tool handler errors.
var (
	ErrTool              = errors.New("tool handler failed")
	ErrUnsafePath        = errors.New("resolved path escapes the project root")
	ErrActionNotFound    = errors.New("action not registered")
	ErrTransformNotFound = errors.New("codemod transform not registered")
	ErrDuplicateAction   = errors.New("duplicate action name during registry scan")
)

// Template rendering errors.
var (
	ErrTemplateInvalid    = errors.New("template does not parse")
	ErrFrontmatterInvalid = errors.New("frontmatter block does not parse as YAML")
)

// Execution lifecycle errors.
var (
	ErrTimeout   = errors.New("step exceeded its timeout")
	ErrCancelled = errors.New("run was cancelled")
)

// AI transport errors.
var ErrTransport = errors.New("AI transport failed")

// Path resolution / kit discovery errors.
var ErrNotFound = errors.New("recipe or kit not found")

// Config errors.
var ErrConfigLoad = errors.New("failed to load configuration")
