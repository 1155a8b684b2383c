package memory

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

func seedGroup(t *testing.T, s *Store, status types.ApprovalStatus) *types.CaseGroup {
	t.Helper()
	ctx := context.Background()
	group := &types.CaseGroup{
		ID:             "cg-1",
		BeneficiaryID:  "ben-1",
		Pathway:        types.PathwayEB2,
		Status:         types.CasePlanning,
		ApprovalStatus: status,
		CreatedBy:      "mgr-1",
	}
	require.NoError(t, s.CreateCaseGroup(ctx, group))
	return group
}

func TestNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.GetIdentity(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetCaseGroup(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetPetition(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetLawFirm(ctx, "nope")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedGroup(t, s, types.ApprovalDraft)

	first, err := s.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	first.ApprovalStatus = types.ApprovalApproved

	second, err := s.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalDraft, second.ApprovalStatus, "mutating a read result must not touch the store")
}

func TestSaveTransitionExpectedStatus(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := seedGroup(t, s, types.ApprovalDraft)

	updated := group.Clone()
	updated.ApprovalStatus = types.ApprovalPending
	updated.Status = types.CasePending

	// Wrong expected status is refused and nothing is written
	err := s.SaveTransition(ctx, &storage.TransitionUnit{
		CaseGroup:      updated,
		ExpectedStatus: types.ApprovalPending,
		Todos: []*types.Todo{{
			AssigneeID: "hr-1", CaseGroupID: "cg-1", Title: "stray", DueDate: time.Now(),
		}},
	})
	assert.ErrorIs(t, err, storage.ErrConflict)

	stored, err := s.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalDraft, stored.ApprovalStatus)
	todos, err := s.ListTodos(ctx, "cg-1")
	require.NoError(t, err)
	assert.Empty(t, todos)

	// Matching expected status applies the whole unit
	err = s.SaveTransition(ctx, &storage.TransitionUnit{
		CaseGroup:      updated,
		ExpectedStatus: types.ApprovalDraft,
		Todos: []*types.Todo{{
			AssigneeID: "hr-1", CaseGroupID: "cg-1", Title: "follow up", DueDate: time.Now(),
		}},
		Notifications: []*types.Notification{{RecipientID: "pm-1", Message: "submitted"}},
		AuditEntries: []*types.AuditEntry{{
			Actor: "mgr-1", Action: types.AuditSubmitted, EntityID: "cg-1",
		}},
	})
	require.NoError(t, err)

	stored, err = s.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalPending, stored.ApprovalStatus)

	todos, err = s.ListTodos(ctx, "cg-1")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.NotEmpty(t, todos[0].ID, "store assigns ids to side-effect records")

	notes, err := s.ListNotifications(ctx, "pm-1")
	require.NoError(t, err)
	assert.Len(t, notes, 1)

	entries, err := s.ListAuditEntries(ctx, "cg-1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSaveTransitionValidatesGroup(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := seedGroup(t, s, types.ApprovalPending)

	// Approved without responsible party and firm violates the model
	bad := group.Clone()
	bad.ApprovalStatus = types.ApprovalApproved
	err := s.SaveTransition(ctx, &storage.TransitionUnit{
		CaseGroup:      bad,
		ExpectedStatus: types.ApprovalPending,
	})
	require.Error(t, err)

	stored, err := s.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalPending, stored.ApprovalStatus)
}

func TestCreateCaseGroupRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New()
	group := seedGroup(t, s, types.ApprovalDraft)

	err := s.CreateCaseGroup(ctx, group.Clone())
	assert.ErrorIs(t, err, storage.ErrConflict)
}

func TestPetitionRequiresCaseGroup(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.CreatePetition(ctx, &types.Petition{
		CaseGroupID: "cg-missing", Type: types.PetitionI140, Status: types.PetitionNotStarted,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestMilestoneLedger(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedGroup(t, s, types.ApprovalDraft)
	pet := &types.Petition{ID: "pet-1", CaseGroupID: "cg-1", Type: types.PetitionI140, Status: types.PetitionInProcess}
	require.NoError(t, s.CreatePetition(ctx, pet))
	// Unset case status defaults to planning.
	assert.Equal(t, types.CasePlanning, pet.CaseStatus)

	for _, mt := range []types.MilestoneType{types.MilestoneCaseOpened, types.MilestoneFiled} {
		require.NoError(t, s.AddMilestone(ctx, &types.Milestone{
			PetitionID: "pet-1", Type: mt, CompletedAt: time.Now(), CreatedBy: "hr-1",
		}))
	}
	require.NoError(t, s.AddMilestone(ctx, &types.Milestone{
		CaseGroupID: "cg-1", Type: types.MilestoneAttorneyEngaged, CompletedAt: time.Now(), CreatedBy: "hr-1",
	}))

	byPetition, err := s.ListCompletedMilestoneTypes(ctx, "pet-1")
	require.NoError(t, err)
	assert.Equal(t, map[types.MilestoneType]bool{
		types.MilestoneCaseOpened: true,
		types.MilestoneFiled:      true,
	}, byPetition)

	// Case-group view folds in both the group's own milestones and its
	// petitions' milestones.
	byGroup, err := s.ListCaseGroupMilestoneTypes(ctx, "cg-1")
	require.NoError(t, err)
	assert.True(t, byGroup[types.MilestoneAttorneyEngaged])
	assert.True(t, byGroup[types.MilestoneCaseOpened])
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "caseflow.json")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.PutIdentity(ctx, &types.Identity{
		ID: "pm-1", Name: "Priya", Role: types.RolePM, ContractID: "contract-a", Active: true,
	}))
	require.NoError(t, s.PutBeneficiary(ctx, &types.Beneficiary{ID: "ben-1", Name: "Elena", ContractID: "contract-a"}))
	seedGroup(t, s, types.ApprovalDraft)
	require.NoError(t, s.CreatePetition(ctx, &types.Petition{
		ID: "pet-1", CaseGroupID: "cg-1", Type: types.PetitionPERM, Status: types.PetitionNotStarted,
		CaseStatus: types.CaseActive,
	}))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	ident, err := reopened.GetIdentity(ctx, "pm-1")
	require.NoError(t, err)
	assert.Equal(t, "Priya", ident.Name)

	group, err := reopened.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalDraft, group.ApprovalStatus)

	pets, err := reopened.ListPetitions(ctx, "cg-1")
	require.NoError(t, err)
	require.Len(t, pets, 1)
	assert.Equal(t, types.CaseActive, pets[0].CaseStatus)
}
