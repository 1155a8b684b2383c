package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/workflow"
)

// FatalError writes an error message to stderr and exits with code 1.
func FatalError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

// FatalErrorWithHint writes an error message with a hint to stderr and exits.
// Use this when you can provide an actionable suggestion to fix the error.
func FatalErrorWithHint(message, hint string) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", message)
	fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
	os.Exit(1)
}

// WarnError writes a warning message to stderr and returns.
func WarnError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

// exitCode maps the error taxonomy to distinct exit codes so scripts can
// branch on the failure class.
func exitCode(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return 2
	case errors.Is(err, scope.ErrForbidden):
		return 3
	case errors.Is(err, storage.ErrConflict):
		return 4
	case errors.Is(err, workflow.ErrValidation):
		return 5
	default:
		return 1
	}
}

// FatalWorkflowError reports a domain error and exits with its mapped code.
// JSON mode emits a machine-readable error object on stderr instead.
func FatalWorkflowError(err error) {
	if jsonOutput {
		outputJSONErrorCode(err, errorCodeName(err), exitCode(err))
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(exitCode(err))
}

func errorCodeName(err error) string {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return "not_found"
	case errors.Is(err, scope.ErrForbidden):
		return "forbidden"
	case errors.Is(err, storage.ErrConflict):
		return "conflict"
	case errors.Is(err, workflow.ErrValidation):
		return "validation"
	default:
		return ""
	}
}
