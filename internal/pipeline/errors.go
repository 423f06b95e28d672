package pipeline

import (
	"fmt"
	"strings"

	"github.com/couchcryptid/aqi-forecast-etl/internal/domain"
)

// ScopeFailure is the error that stopped one scope.
type ScopeFailure struct {
	Scope domain.Scope
	Err   error
}

// RunError reports the scopes that failed during a run. Scopes not listed
// completed normally.
type RunError struct {
	Failures []ScopeFailure
}

func (e *RunError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Scope, f.Err)
	}
	return fmt.Sprintf("%d scope(s) failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *RunError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Failed reports whether scope is among the failures.
func (e *RunError) Failed(scope domain.Scope) bool {
	for _, f := range e.Failures {
		if f.Scope == scope {
			return true
		}
	}
	return false
}
