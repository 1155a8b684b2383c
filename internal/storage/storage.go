// Package storage provides shared types for case data storage.
//
// The concrete implementations live in the memory and mysql sub-packages.
// This package holds the interface and value types referenced by both the
// implementations and their consumers (internal/scope, internal/workflow,
// internal/progress, cmd/cf).
package storage

import (
	"context"
	"errors"

	"github.com/visaops/caseflow/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by SaveTransition when the case group is no
// longer in the expected approval status — either the caller read a stale
// state or a concurrent writer won the race. No side effects persist.
var ErrConflict = errors.New("conflict")

// Directory exposes user and organizational data to the access-scope
// resolver and the workflow guards.
type Directory interface {
	GetIdentity(ctx context.Context, id string) (*types.Identity, error)
	ListDirectReports(ctx context.Context, id string) ([]*types.Identity, error)
	ListIdentitiesByContract(ctx context.Context, contractID string) ([]*types.Identity, error)
	GetBeneficiary(ctx context.Context, id string) (*types.Beneficiary, error)
	ListBeneficiariesByContract(ctx context.Context, contractID string) ([]*types.Beneficiary, error)
	ListBeneficiariesByOwner(ctx context.Context, ownerIdentityID string) ([]*types.Beneficiary, error)
	GetLawFirm(ctx context.Context, id string) (*types.LawFirm, error)
}

// CaseStore exposes case groups and petitions to the workflow engine and
// the progress calculator.
type CaseStore interface {
	GetCaseGroup(ctx context.Context, id string) (*types.CaseGroup, error)
	CreateCaseGroup(ctx context.Context, group *types.CaseGroup) error
	GetPetition(ctx context.Context, id string) (*types.Petition, error)
	CreatePetition(ctx context.Context, petition *types.Petition) error
	ListPetitions(ctx context.Context, caseGroupID string) ([]*types.Petition, error)

	// SaveTransition applies a workflow transition as one atomic unit:
	// the case-group write and every derived record either all persist or
	// none do. The unit's ExpectedStatus is re-checked against the stored
	// row inside the same atomic operation; on mismatch SaveTransition
	// returns ErrConflict and writes nothing.
	SaveTransition(ctx context.Context, unit *TransitionUnit) error
}

// MilestoneLedger is the append-only record of completed pipeline stages.
type MilestoneLedger interface {
	AddMilestone(ctx context.Context, m *types.Milestone) error
	// ListCompletedMilestoneTypes returns the set of milestone types
	// completed for a petition.
	ListCompletedMilestoneTypes(ctx context.Context, petitionID string) (map[types.MilestoneType]bool, error)
	// ListCaseGroupMilestoneTypes is the same lookup keyed by case group.
	ListCaseGroupMilestoneTypes(ctx context.Context, caseGroupID string) (map[types.MilestoneType]bool, error)
}

// Sinks exposes the side-effect records created by workflow transitions,
// for consumers outside the transition itself (delivery, listing).
type Sinks interface {
	ListTodos(ctx context.Context, caseGroupID string) ([]*types.Todo, error)
	ListNotifications(ctx context.Context, recipientID string) ([]*types.Notification, error)
	ListAuditEntries(ctx context.Context, entityID string) ([]*types.AuditEntry, error)
}

// Storage is the full interface satisfied by *memory.Store and
// *mysql.Store. Consumers that only need one concern should depend on the
// narrow interface instead.
type Storage interface {
	Directory
	CaseStore
	MilestoneLedger
	Sinks

	// Directory seeding (admin surface; the core never calls these)
	PutIdentity(ctx context.Context, identity *types.Identity) error
	PutBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error
	PutLawFirm(ctx context.Context, firm *types.LawFirm) error

	Close() error
}

// TransitionUnit is a workflow transition expressed as a value: the new
// case-group state plus every record the transition derives. Handing the
// whole unit to SaveTransition in one call is what makes partial
// application (status updated but todos missing) impossible.
type TransitionUnit struct {
	// CaseGroup is the post-transition state to persist.
	CaseGroup *types.CaseGroup

	// ExpectedStatus is the approval status the stored row must still
	// hold for the write to proceed.
	ExpectedStatus types.ApprovalStatus

	Todos         []*types.Todo
	Notifications []*types.Notification
	AuditEntries  []*types.AuditEntry
}
