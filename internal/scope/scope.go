// Package scope resolves which users and beneficiaries a caller may see
// or act upon, based on role and position in the reporting hierarchy.
//
// A Resolver is built per request and memoizes its results for its own
// lifetime only. Reusing one across requests or callers would serve stale
// scope, which is a security defect, so don't.
package scope

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

// ErrForbidden is returned when the caller's role or scope does not
// permit the requested action.
var ErrForbidden = errors.New("forbidden")

// ErrUnknownRole is returned when an identity carries a role outside the
// closed set. This is a configuration error, not a user-facing denial:
// there is no fallback behavior for unrecognized roles.
var ErrUnknownRole = errors.New("unrecognized role")

// Scope is a resolved set of entity ids, with a universal marker for
// admin callers so the whole directory never has to be enumerated.
type Scope struct {
	universal bool
	ids       map[string]bool
}

// UniversalScope returns the scope containing every id.
func UniversalScope() Scope {
	return Scope{universal: true}
}

// EmptyScope returns the scope containing nothing. Deny-by-default
// resolutions (e.g. HR with no contract) use this.
func EmptyScope() Scope {
	return Scope{ids: map[string]bool{}}
}

// NewScope returns a scope over the given ids.
func NewScope(ids ...string) Scope {
	s := Scope{ids: make(map[string]bool, len(ids))}
	for _, id := range ids {
		s.ids[id] = true
	}
	return s
}

// Universal reports whether the scope contains every id.
func (s Scope) Universal() bool { return s.universal }

// Contains reports whether the scope includes the id.
func (s Scope) Contains(id string) bool {
	return s.universal || s.ids[id]
}

// Len returns the number of explicit ids; 0 for the universal scope.
func (s Scope) Len() int { return len(s.ids) }

// IDs returns the explicit ids in sorted order; nil for universal.
func (s Scope) IDs() []string {
	if s.universal {
		return nil
	}
	out := make([]string, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Action is what the caller wants to do to a target.
type Action string

// Action constants
const (
	ActionCreate Action = "create"
	ActionModify Action = "modify"
	ActionDelete Action = "delete"
)

// TargetKind identifies the entity type an action applies to.
type TargetKind string

// Target kind constants
const (
	TargetCaseGroup TargetKind = "case_group"
	TargetPetition  TargetKind = "petition"
	TargetTodo      TargetKind = "todo"
)

// Target describes the record an action applies to: its kind plus the
// beneficiary (case subject) or identity that owns it.
type Target struct {
	Kind TargetKind
	// BeneficiaryID is the owning case subject (case groups, petitions).
	BeneficiaryID string
	// OwnerIdentityID is the owning user (todos). Checked when
	// BeneficiaryID is empty.
	OwnerIdentityID string
}

// Resolver computes accessible scopes against a Directory. Not safe for
// concurrent use; each request builds its own.
type Resolver struct {
	dir storage.Directory

	userScopes map[string]Scope
	benScopes  map[string]Scope
}

// NewResolver builds a request-scoped resolver over the directory.
func NewResolver(dir storage.Directory) *Resolver {
	return &Resolver{
		dir:        dir,
		userScopes: make(map[string]Scope),
		benScopes:  make(map[string]Scope),
	}
}

// ResolveAccessibleUserIDs returns the identities the caller may see.
// Results are memoized per caller for the resolver's lifetime, so
// repeated authorization checks in one request walk the hierarchy once.
func (r *Resolver) ResolveAccessibleUserIDs(ctx context.Context, callerID string) (Scope, error) {
	if s, ok := r.userScopes[callerID]; ok {
		return s, nil
	}

	caller, err := r.dir.GetIdentity(ctx, callerID)
	if err != nil {
		return Scope{}, fmt.Errorf("resolve caller: %w", err)
	}

	var s Scope
	switch caller.Role {
	case types.RoleAdmin:
		s = UniversalScope()

	case types.RoleHR, types.RolePM:
		// No contract affiliation resolves to nothing, never to everything
		if caller.ContractID == "" {
			s = EmptyScope()
			break
		}
		members, err := r.dir.ListIdentitiesByContract(ctx, caller.ContractID)
		if err != nil {
			return Scope{}, fmt.Errorf("list contract identities: %w", err)
		}
		s = EmptyScope()
		for _, m := range members {
			s.ids[m.ID] = true
		}

	case types.RoleManager:
		s, err = r.resolveReportingClosure(ctx, callerID)
		if err != nil {
			return Scope{}, err
		}

	case types.RoleBeneficiary:
		s = NewScope(callerID)

	default:
		return Scope{}, fmt.Errorf("identity %s has role %q: %w", callerID, caller.Role, ErrUnknownRole)
	}

	r.userScopes[callerID] = s
	return s, nil
}

// resolveReportingClosure walks the reports-to forest downward from the
// caller with an iterative BFS. The visited set makes it terminate on
// malformed data (cycles, self-references); depth is unbounded.
func (r *Resolver) resolveReportingClosure(ctx context.Context, rootID string) (Scope, error) {
	s := NewScope(rootID)
	visited := map[string]bool{rootID: true}
	queue := []string{rootID}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		reports, err := r.dir.ListDirectReports(ctx, current)
		if err != nil {
			return Scope{}, fmt.Errorf("list direct reports of %s: %w", current, err)
		}
		for _, rep := range reports {
			if visited[rep.ID] {
				continue
			}
			visited[rep.ID] = true
			s.ids[rep.ID] = true
			queue = append(queue, rep.ID)
		}
	}
	return s, nil
}

// ResolveAccessibleBeneficiaryIDs returns the case subjects the caller
// may see. Memoized like user scopes.
func (r *Resolver) ResolveAccessibleBeneficiaryIDs(ctx context.Context, callerID string) (Scope, error) {
	if s, ok := r.benScopes[callerID]; ok {
		return s, nil
	}

	caller, err := r.dir.GetIdentity(ctx, callerID)
	if err != nil {
		return Scope{}, fmt.Errorf("resolve caller: %w", err)
	}

	var s Scope
	switch caller.Role {
	case types.RoleAdmin:
		s = UniversalScope()

	case types.RoleHR, types.RolePM:
		if caller.ContractID == "" {
			s = EmptyScope()
			break
		}
		bens, err := r.dir.ListBeneficiariesByContract(ctx, caller.ContractID)
		if err != nil {
			return Scope{}, fmt.Errorf("list contract beneficiaries: %w", err)
		}
		s = EmptyScope()
		for _, b := range bens {
			s.ids[b.ID] = true
		}

	case types.RoleManager:
		// A manager sees the beneficiaries owned by anyone in their
		// reporting closure.
		users, err := r.ResolveAccessibleUserIDs(ctx, callerID)
		if err != nil {
			return Scope{}, err
		}
		s = EmptyScope()
		for _, uid := range users.IDs() {
			bens, err := r.dir.ListBeneficiariesByOwner(ctx, uid)
			if err != nil {
				return Scope{}, fmt.Errorf("list beneficiaries of %s: %w", uid, err)
			}
			for _, b := range bens {
				s.ids[b.ID] = true
			}
		}

	case types.RoleBeneficiary:
		bens, err := r.dir.ListBeneficiariesByOwner(ctx, callerID)
		if err != nil {
			return Scope{}, fmt.Errorf("list own beneficiary records: %w", err)
		}
		s = EmptyScope()
		for _, b := range bens {
			s.ids[b.ID] = true
		}

	default:
		return Scope{}, fmt.Errorf("identity %s has role %q: %w", callerID, caller.Role, ErrUnknownRole)
	}

	r.benScopes[callerID] = s
	return s, nil
}

// Authorize decides whether the caller may perform the action on the
// target. It returns nil to allow, ErrForbidden (wrapped) to deny, and
// ErrUnknownRole for misconfigured identities.
func (r *Resolver) Authorize(ctx context.Context, callerID string, action Action, target Target) error {
	caller, err := r.dir.GetIdentity(ctx, callerID)
	if err != nil {
		return fmt.Errorf("resolve caller: %w", err)
	}

	switch caller.Role {
	case types.RoleAdmin:
		// Admin bypasses scope checks entirely
		return nil

	case types.RoleHR, types.RolePM, types.RoleManager:
		if target.BeneficiaryID != "" {
			bens, err := r.ResolveAccessibleBeneficiaryIDs(ctx, callerID)
			if err != nil {
				return err
			}
			if bens.Contains(target.BeneficiaryID) {
				return nil
			}
			return fmt.Errorf("%s may not %s %s for beneficiary %s: %w",
				callerID, action, target.Kind, target.BeneficiaryID, ErrForbidden)
		}
		users, err := r.ResolveAccessibleUserIDs(ctx, callerID)
		if err != nil {
			return err
		}
		if target.OwnerIdentityID != "" && users.Contains(target.OwnerIdentityID) {
			return nil
		}
		return fmt.Errorf("%s may not %s %s owned by %s: %w",
			callerID, action, target.Kind, target.OwnerIdentityID, ErrForbidden)

	case types.RoleBeneficiary:
		// A beneficiary may only touch records whose owning beneficiary
		// maps back to itself.
		if target.BeneficiaryID != "" {
			ben, err := r.dir.GetBeneficiary(ctx, target.BeneficiaryID)
			if err != nil {
				return fmt.Errorf("resolve target beneficiary: %w", err)
			}
			if ben.OwnerIdentityID == callerID {
				return nil
			}
		}
		return fmt.Errorf("%s may not %s %s: %w", callerID, action, target.Kind, ErrForbidden)

	default:
		return fmt.Errorf("identity %s has role %q: %w", callerID, caller.Role, ErrUnknownRole)
	}
}
