package cli

import (
	"errors"

	"github.com/hypergen/hypergen/internal/engine"
	hgerrors "github.com/hypergen/hypergen/internal/errors"
	"github.com/hypergen/hypergen/internal/recipe"
	"github.com/hypergen/hypergen/internal/resolve"
)

// exitCodeFor maps a run/plan/validate failure to the exit codes §6
// specifies: 0 success, 1 recipe failed, 2 deferred by transport, 3 invalid
// recipe/validation error, 4 unresolved required variable with
// --ask=nobody.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	var deferred *engine.DeferredError
	if errors.As(err, &deferred) {
		return 2
	}

	var resErrs resolve.ResolutionErrors
	if errors.As(err, &resErrs) {
		return 4
	}

	var valErrs recipe.ValidationErrors
	if errors.As(err, &valErrs) {
		return 3
	}
	if errors.Is(err, hgerrors.ErrUnparseableYAML) || errors.Is(err, hgerrors.ErrCircularDependency) {
		return 3
	}

	return 1
}
