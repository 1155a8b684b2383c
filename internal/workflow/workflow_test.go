package workflow_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/storage/memory"
	"github.com/visaops/caseflow/internal/types"
	"github.com/visaops/caseflow/internal/workflow"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store  *memory.Store
	engine *workflow.Engine
	group  *types.CaseGroup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()

	identities := []*types.Identity{
		{ID: "admin-1", Name: "Ada", Role: types.RoleAdmin, Active: true},
		{ID: "pm-1", Name: "Priya", Role: types.RolePM, ContractID: "contract-a", Active: true},
		{ID: "pm-2", Name: "Pat", Role: types.RolePM, ContractID: "contract-b", Active: true},
		{ID: "hr-1", Name: "Harper", Role: types.RoleHR, ContractID: "contract-a", Active: true},
		{ID: "hr-gone", Name: "Hale", Role: types.RoleHR, ContractID: "contract-a", Active: false},
		{ID: "hr-b", Name: "Hollis", Role: types.RoleHR, ContractID: "contract-b", Active: true},
		{ID: "mgr-1", Name: "Morgan", Role: types.RoleManager, ContractID: "contract-a", Active: true},
		{ID: "mgr-2", Name: "Mika", Role: types.RoleManager, ContractID: "contract-a", Active: true},
	}
	for _, ident := range identities {
		require.NoError(t, store.PutIdentity(ctx, ident))
	}
	require.NoError(t, store.PutBeneficiary(ctx, &types.Beneficiary{
		ID: "ben-1", Name: "Elena", ContractID: "contract-a",
	}))
	require.NoError(t, store.PutLawFirm(ctx, &types.LawFirm{ID: "firm-1", Name: "Reyes Immigration LLP", Active: true}))
	require.NoError(t, store.PutLawFirm(ctx, &types.LawFirm{ID: "firm-dead", Name: "Wound Down LLP", Active: false}))

	group := &types.CaseGroup{
		ID:             "cg-1",
		BeneficiaryID:  "ben-1",
		Pathway:        types.PathwayEB2,
		Status:         types.CasePlanning,
		ApprovalStatus: types.ApprovalDraft,
		CreatedBy:      "mgr-1",
	}
	require.NoError(t, store.CreateCaseGroup(ctx, group))

	engine := workflow.NewEngine(store, store, workflow.WithClock(func() time.Time { return fixedNow }))
	return &fixture{store: store, engine: engine, group: group}
}

func (f *fixture) submit(t *testing.T) {
	t.Helper()
	_, err := f.engine.SubmitForApproval(context.Background(), "cg-1", "mgr-1", "")
	require.NoError(t, err)
}

func TestSubmitForApproval(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	got, err := f.engine.SubmitForApproval(ctx, "cg-1", "mgr-1", "ready for review")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalPending, got.ApprovalStatus)
	assert.Equal(t, types.CasePending, got.Status)
	assert.Equal(t, "ready for review", got.SubmissionNotes)

	stored, err := f.store.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalPending, stored.ApprovalStatus)

	// The contract's PM was notified
	notes, err := f.store.ListNotifications(ctx, "pm-1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0].Message, "Elena")

	// PMs on other contracts were not
	other, err := f.store.ListNotifications(ctx, "pm-2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSubmitGuards(t *testing.T) {
	ctx := context.Background()

	t.Run("non-creator manager is forbidden", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.SubmitForApproval(ctx, "cg-1", "mgr-2", "")
		assert.ErrorIs(t, err, scope.ErrForbidden)
	})

	t.Run("hr override allowed", func(t *testing.T) {
		f := newFixture(t)
		got, err := f.engine.SubmitForApproval(ctx, "cg-1", "hr-1", "")
		require.NoError(t, err)
		assert.Equal(t, types.ApprovalPending, got.ApprovalStatus)
	})

	t.Run("pm may not submit", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.SubmitForApproval(ctx, "cg-1", "pm-1", "")
		assert.ErrorIs(t, err, scope.ErrForbidden)
	})

	t.Run("already submitted is a conflict", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		_, err := f.engine.SubmitForApproval(ctx, "cg-1", "mgr-1", "")
		assert.ErrorIs(t, err, storage.ErrConflict)
		var conflict *workflow.ConflictError
		require.True(t, errors.As(err, &conflict))
		assert.Equal(t, types.ApprovalPending, conflict.Current)
	})

	t.Run("missing case group", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.SubmitForApproval(ctx, "cg-missing", "mgr-1", "")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestApproveFromDraftFailsThenSucceedsAfterSubmit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.engine.Approve(ctx, "cg-1", "pm-1", "hr-1", "firm-1", "")
	assert.ErrorIs(t, err, storage.ErrConflict)

	stored, err := f.store.GetCaseGroup(ctx, "cg-1")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalDraft, stored.ApprovalStatus, "failed approve must leave state unchanged")

	f.submit(t)
	got, err := f.engine.Approve(ctx, "cg-1", "pm-1", "hr-1", "firm-1", "looks solid")
	require.NoError(t, err)
	assert.Equal(t, types.ApprovalApproved, got.ApprovalStatus)
}

func TestApproveEffects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.submit(t)

	got, err := f.engine.Approve(ctx, "cg-1", "pm-1", "hr-1", "firm-1", "looks solid")
	require.NoError(t, err)

	assert.Equal(t, types.ApprovalApproved, got.ApprovalStatus)
	assert.Equal(t, types.CaseApproved, got.Status)
	assert.Equal(t, "hr-1", got.ResponsibleID)
	assert.Equal(t, "firm-1", got.LawFirmID)
	assert.Equal(t, "pm-1", got.ApproverID)
	require.NotNil(t, got.DecidedAt)
	assert.True(t, got.DecidedAt.Equal(fixedNow))
	assert.Equal(t, "looks solid", got.ApprovalNotes)

	// Exactly two todos, both for the HR assignee, due +7d and +14d
	todos, err := f.store.ListTodos(ctx, "cg-1")
	require.NoError(t, err)
	require.Len(t, todos, 2)
	byTitle := map[string]time.Time{}
	for _, todo := range todos {
		assert.Equal(t, "hr-1", todo.AssigneeID)
		byTitle[todo.Title] = todo.DueDate
	}
	assert.True(t, byTitle[workflow.TodoPreFilingMeeting].Equal(fixedNow.Add(7*24*time.Hour)))
	assert.True(t, byTitle[workflow.TodoLawFirmConsultation].Equal(fixedNow.Add(14*24*time.Hour)))

	// Notifications to the assignee and to the creator
	hrNotes, err := f.store.ListNotifications(ctx, "hr-1")
	require.NoError(t, err)
	require.Len(t, hrNotes, 1)
	mgrNotes, err := f.store.ListNotifications(ctx, "mgr-1")
	require.NoError(t, err)
	require.Len(t, mgrNotes, 1)
	assert.Contains(t, mgrNotes[0].Message, "approved")

	// One audit entry for the approval, carrying both snapshots
	entries, err := f.store.ListAuditEntries(ctx, "cg-1")
	require.NoError(t, err)
	var approvals []*types.AuditEntry
	for _, e := range entries {
		if e.Action == types.AuditApproved {
			approvals = append(approvals, e)
		}
	}
	require.Len(t, approvals, 1)
	assert.Equal(t, "pm-1", approvals[0].Actor)
	assert.Contains(t, approvals[0].OldValue, string(types.ApprovalPending))
	assert.Contains(t, approvals[0].NewValue, string(types.ApprovalApproved))
	assert.Contains(t, approvals[0].NewValue, "hr-1")
}

func TestApproveValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		caller  string
		hr      string
		firm    string
		wantErr error
	}{
		{name: "missing hr assignee", caller: "pm-1", hr: "", firm: "firm-1", wantErr: workflow.ErrValidation},
		{name: "missing law firm", caller: "pm-1", hr: "hr-1", firm: "", wantErr: workflow.ErrValidation},
		{name: "unknown hr assignee", caller: "pm-1", hr: "hr-nope", firm: "firm-1", wantErr: workflow.ErrValidation},
		{name: "inactive hr assignee", caller: "pm-1", hr: "hr-gone", firm: "firm-1", wantErr: workflow.ErrValidation},
		{name: "assignee is not hr", caller: "pm-1", hr: "mgr-1", firm: "firm-1", wantErr: workflow.ErrValidation},
		{name: "cross-contract hr assignee", caller: "pm-1", hr: "hr-b", firm: "firm-1", wantErr: scope.ErrForbidden},
		{name: "inactive law firm", caller: "pm-1", hr: "hr-1", firm: "firm-dead", wantErr: workflow.ErrValidation},
		{name: "unknown law firm", caller: "pm-1", hr: "hr-1", firm: "firm-nope", wantErr: workflow.ErrValidation},
		{name: "pm of wrong contract", caller: "pm-2", hr: "hr-1", firm: "firm-1", wantErr: scope.ErrForbidden},
		{name: "manager may not approve", caller: "mgr-1", hr: "hr-1", firm: "firm-1", wantErr: scope.ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.submit(t)
			_, err := f.engine.Approve(ctx, "cg-1", tt.caller, tt.hr, tt.firm, "")
			assert.ErrorIs(t, err, tt.wantErr)

			stored, err := f.store.GetCaseGroup(ctx, "cg-1")
			require.NoError(t, err)
			assert.Equal(t, types.ApprovalPending, stored.ApprovalStatus, "failed approve must not change state")
			todos, err := f.store.ListTodos(ctx, "cg-1")
			require.NoError(t, err)
			assert.Empty(t, todos, "failed approve must not create todos")
		})
	}
}

func TestAdminApproveUsesBeneficiaryContract(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.submit(t)

	// Admin approving: assignee must match the beneficiary's contract
	_, err := f.engine.Approve(ctx, "cg-1", "admin-1", "hr-b", "firm-1", "")
	assert.ErrorIs(t, err, scope.ErrForbidden)

	got, err := f.engine.Approve(ctx, "cg-1", "admin-1", "hr-1", "firm-1", "")
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.ApproverID)
}

func TestReject(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a reason", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		_, err := f.engine.Reject(ctx, "cg-1", "pm-1", "")
		assert.ErrorIs(t, err, workflow.ErrValidation)
	})

	t.Run("records decision and notifies creator", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		got, err := f.engine.Reject(ctx, "cg-1", "pm-1", "budget not approved")
		require.NoError(t, err)
		assert.Equal(t, types.ApprovalRejected, got.ApprovalStatus)
		assert.Equal(t, types.CaseDenied, got.Status)
		assert.Equal(t, "pm-1", got.ApproverID)
		assert.Equal(t, "budget not approved", got.RejectionReason)
		require.NotNil(t, got.DecidedAt)

		notes, err := f.store.ListNotifications(ctx, "mgr-1")
		require.NoError(t, err)
		require.Len(t, notes, 1)
		assert.Contains(t, notes[0].Message, "budget not approved")

		entries, err := f.store.ListAuditEntries(ctx, "cg-1")
		require.NoError(t, err)
		var rejections int
		for _, e := range entries {
			if e.Action == types.AuditRejected {
				rejections++
			}
		}
		assert.Equal(t, 1, rejections)
	})

	t.Run("terminal states refuse further transitions", func(t *testing.T) {
		f := newFixture(t)
		f.submit(t)
		_, err := f.engine.Reject(ctx, "cg-1", "pm-1", "no")
		require.NoError(t, err)

		_, err = f.engine.Approve(ctx, "cg-1", "pm-1", "hr-1", "firm-1", "")
		assert.ErrorIs(t, err, storage.ErrConflict)
		_, err = f.engine.Reject(ctx, "cg-1", "pm-1", "again")
		assert.ErrorIs(t, err, storage.ErrConflict)
		_, err = f.engine.SubmitForApproval(ctx, "cg-1", "mgr-1", "")
		assert.ErrorIs(t, err, storage.ErrConflict)
	})
}

func TestConcurrentApprovalsExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.submit(t)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.engine.Approve(ctx, "cg-1", "pm-1", "hr-1", "firm-1", "")
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, storage.ErrConflict):
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, wins, "exactly one approval must win")
	assert.Equal(t, attempts-1, conflicts)

	// Exactly one set of side effects exists
	todos, err := f.store.ListTodos(ctx, "cg-1")
	require.NoError(t, err)
	assert.Len(t, todos, 2)
	hrNotes, err := f.store.ListNotifications(ctx, "hr-1")
	require.NoError(t, err)
	assert.Len(t, hrNotes, 1)
	mgrNotes, err := f.store.ListNotifications(ctx, "mgr-1")
	require.NoError(t, err)
	assert.Len(t, mgrNotes, 1)

	entries, err := f.store.ListAuditEntries(ctx, "cg-1")
	require.NoError(t, err)
	var approvals int
	for _, e := range entries {
		if e.Action == types.AuditApproved {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}
