package workflow

import (
	"errors"
	"fmt"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

// ErrValidation is returned when a transition request is missing or
// carries invalid required fields (no HR assignee, no rejection reason).
var ErrValidation = errors.New("validation failed")

// ConflictError reports a state-machine guard failure: the transition was
// attempted from the wrong source state. It names the current state so
// callers can say why the request was refused. errors.Is matches it
// against storage.ErrConflict, so guard failures and lost CAS races share
// one taxonomy entry.
type ConflictError struct {
	CaseGroupID string
	Current     types.ApprovalStatus
	Expected    types.ApprovalStatus
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("case group %s is %s, expected %s", e.CaseGroupID, e.Current, e.Expected)
}

func (e *ConflictError) Is(target error) bool {
	return target == storage.ErrConflict
}
