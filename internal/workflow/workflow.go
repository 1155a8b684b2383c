// Package workflow implements the case-group approval state machine.
//
// The machine is DRAFT → PENDING_PM_APPROVAL → {PM_APPROVED | PM_REJECTED},
// with the two decision states terminal. Every transition is expressed as
// a storage.TransitionUnit — the new case-group state plus all derived
// todos, notifications and audit entries — and handed to the store in one
// atomic call. The store re-checks the expected source state inside that
// call, so concurrent transitions against the same case group cannot both
// succeed and side effects are never half-applied.
package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

// Todo titles and due offsets created on approval.
const (
	TodoPreFilingMeeting    = "Schedule Pre-Filing Meeting"
	TodoLawFirmConsultation = "Schedule Law Firm Consultation"

	preFilingDue = 7 * 24 * time.Hour
	lawFirmDue   = 14 * 24 * time.Hour
)

// Engine drives approval transitions against a case store and directory.
type Engine struct {
	store storage.CaseStore
	dir   storage.Directory
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source. Tests use this to pin
// approval timestamps and todo due dates.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a workflow engine.
func NewEngine(store storage.CaseStore, dir storage.Directory, opts ...Option) *Engine {
	e := &Engine{store: store, dir: dir, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SubmitForApproval moves a DRAFT case group to PENDING_PM_APPROVAL.
// Allowed for the creating manager, or as an admin/HR override. Each
// active PM of the beneficiary's contract is notified.
func (e *Engine) SubmitForApproval(ctx context.Context, caseGroupID, callerID, notes string) (*types.CaseGroup, error) {
	group, err := e.store.GetCaseGroup(ctx, caseGroupID)
	if err != nil {
		return nil, err
	}
	if group.ApprovalStatus != types.ApprovalDraft {
		return nil, &ConflictError{CaseGroupID: group.ID, Current: group.ApprovalStatus, Expected: types.ApprovalDraft}
	}

	caller, err := e.dir.GetIdentity(ctx, callerID)
	if err != nil {
		return nil, err
	}
	switch caller.Role {
	case types.RoleAdmin, types.RoleHR:
		// override allowed
	case types.RoleManager:
		if group.CreatedBy != callerID {
			return nil, fmt.Errorf("%s did not create case group %s: %w", callerID, group.ID, scope.ErrForbidden)
		}
	case types.RolePM, types.RoleBeneficiary:
		return nil, fmt.Errorf("role %s may not submit case groups: %w", caller.Role, scope.ErrForbidden)
	default:
		return nil, fmt.Errorf("identity %s has role %q: %w", callerID, caller.Role, scope.ErrUnknownRole)
	}

	ben, err := e.dir.GetBeneficiary(ctx, group.BeneficiaryID)
	if err != nil {
		return nil, err
	}

	before := approvalSnapshot(group)
	updated := group.Clone()
	updated.ApprovalStatus = types.ApprovalPending
	updated.Status = types.CasePending
	if notes != "" {
		if updated.SubmissionNotes != "" {
			updated.SubmissionNotes += "\n"
		}
		updated.SubmissionNotes += notes
	}

	unit := &storage.TransitionUnit{
		CaseGroup:      updated,
		ExpectedStatus: types.ApprovalDraft,
		AuditEntries: []*types.AuditEntry{{
			Actor:    callerID,
			Action:   types.AuditSubmitted,
			EntityID: group.ID,
			OldValue: before,
			NewValue: approvalSnapshot(updated),
		}},
	}
	pms, err := e.contractPMs(ctx, ben.ContractID)
	if err != nil {
		return nil, err
	}
	for _, pm := range pms {
		unit.Notifications = append(unit.Notifications, &types.Notification{
			RecipientID: pm.ID,
			Message:     fmt.Sprintf("Case group for %s submitted for your approval", ben.Name),
			Link:        "/case-groups/" + group.ID,
		})
	}

	if err := e.store.SaveTransition(ctx, unit); err != nil {
		return nil, err
	}
	return updated, nil
}

// Approve moves a PENDING_PM_APPROVAL case group to PM_APPROVED. The
// caller must be a PM on the beneficiary's contract, or an admin. The
// request must name an active HR assignee on the approving PM's contract
// and an active law firm. On success the case group carries the
// responsible party, law firm, approver and decision timestamp, and the
// same atomic unit creates two scheduling todos for the HR assignee,
// notifications to the assignee and the original creator, and one audit
// entry with before/after snapshots.
func (e *Engine) Approve(ctx context.Context, caseGroupID, callerID, hrAssigneeID, lawFirmID, notes string) (*types.CaseGroup, error) {
	group, err := e.store.GetCaseGroup(ctx, caseGroupID)
	if err != nil {
		return nil, err
	}
	if group.ApprovalStatus != types.ApprovalPending {
		return nil, &ConflictError{CaseGroupID: group.ID, Current: group.ApprovalStatus, Expected: types.ApprovalPending}
	}

	caller, ben, err := e.decisionGuard(ctx, group, callerID)
	if err != nil {
		return nil, err
	}

	if hrAssigneeID == "" {
		return nil, fmt.Errorf("hr assignee is required: %w", ErrValidation)
	}
	if lawFirmID == "" {
		return nil, fmt.Errorf("law firm is required: %w", ErrValidation)
	}

	hr, err := e.dir.GetIdentity(ctx, hrAssigneeID)
	if err != nil {
		return nil, fmt.Errorf("hr assignee %s: %w", hrAssigneeID, ErrValidation)
	}
	if hr.Role != types.RoleHR {
		return nil, fmt.Errorf("hr assignee %s has role %s, want hr: %w", hr.ID, hr.Role, ErrValidation)
	}
	if !hr.Active {
		return nil, fmt.Errorf("hr assignee %s is inactive: %w", hr.ID, ErrValidation)
	}
	// The assignee must work the same contract as the approving PM.
	// Admin approvals use the beneficiary's contract as the reference.
	refContract := caller.ContractID
	if caller.Role == types.RoleAdmin {
		refContract = ben.ContractID
	}
	if refContract == "" || hr.ContractID != refContract {
		return nil, fmt.Errorf("hr assignee %s is not on contract %s: %w", hr.ID, refContract, scope.ErrForbidden)
	}

	firm, err := e.dir.GetLawFirm(ctx, lawFirmID)
	if err != nil {
		return nil, fmt.Errorf("law firm %s: %w", lawFirmID, ErrValidation)
	}
	if !firm.Active {
		return nil, fmt.Errorf("law firm %s is inactive: %w", firm.ID, ErrValidation)
	}

	now := e.now()
	before := approvalSnapshot(group)
	updated := group.Clone()
	updated.ApprovalStatus = types.ApprovalApproved
	updated.Status = types.CaseApproved
	updated.ResponsibleID = hr.ID
	updated.LawFirmID = firm.ID
	updated.ApproverID = callerID
	updated.DecidedAt = &now
	updated.ApprovalNotes = notes

	unit := &storage.TransitionUnit{
		CaseGroup:      updated,
		ExpectedStatus: types.ApprovalPending,
		Todos: []*types.Todo{
			{
				AssigneeID:  hr.ID,
				CaseGroupID: group.ID,
				Title:       TodoPreFilingMeeting,
				DueDate:     now.Add(preFilingDue),
			},
			{
				AssigneeID:  hr.ID,
				CaseGroupID: group.ID,
				Title:       TodoLawFirmConsultation,
				DueDate:     now.Add(lawFirmDue),
			},
		},
		Notifications: []*types.Notification{
			{
				RecipientID: hr.ID,
				Message:     fmt.Sprintf("You are the responsible party for %s's approved case", ben.Name),
				Link:        "/case-groups/" + group.ID,
			},
			{
				RecipientID: group.CreatedBy,
				Message:     fmt.Sprintf("Case group for %s was approved", ben.Name),
				Link:        "/case-groups/" + group.ID,
			},
		},
		AuditEntries: []*types.AuditEntry{{
			Actor:    callerID,
			Action:   types.AuditApproved,
			EntityID: group.ID,
			OldValue: before,
			NewValue: approvalSnapshot(updated),
		}},
	}

	if err := e.store.SaveTransition(ctx, unit); err != nil {
		return nil, err
	}
	return updated, nil
}

// Reject moves a PENDING_PM_APPROVAL case group to PM_REJECTED. Same
// caller guard as Approve; a rejection reason is mandatory. Rejection is
// terminal — a new case group must be created to try again.
func (e *Engine) Reject(ctx context.Context, caseGroupID, callerID, reason string) (*types.CaseGroup, error) {
	group, err := e.store.GetCaseGroup(ctx, caseGroupID)
	if err != nil {
		return nil, err
	}
	if group.ApprovalStatus != types.ApprovalPending {
		return nil, &ConflictError{CaseGroupID: group.ID, Current: group.ApprovalStatus, Expected: types.ApprovalPending}
	}

	_, ben, err := e.decisionGuard(ctx, group, callerID)
	if err != nil {
		return nil, err
	}

	if reason == "" {
		return nil, fmt.Errorf("rejection reason is required: %w", ErrValidation)
	}

	now := e.now()
	before := approvalSnapshot(group)
	updated := group.Clone()
	updated.ApprovalStatus = types.ApprovalRejected
	updated.Status = types.CaseDenied
	updated.ApproverID = callerID
	updated.DecidedAt = &now
	updated.RejectionReason = reason

	unit := &storage.TransitionUnit{
		CaseGroup:      updated,
		ExpectedStatus: types.ApprovalPending,
		Notifications: []*types.Notification{{
			RecipientID: group.CreatedBy,
			Message:     fmt.Sprintf("Case group for %s was rejected: %s", ben.Name, reason),
			Link:        "/case-groups/" + group.ID,
		}},
		AuditEntries: []*types.AuditEntry{{
			Actor:    callerID,
			Action:   types.AuditRejected,
			EntityID: group.ID,
			OldValue: before,
			NewValue: approvalSnapshot(updated),
		}},
	}

	if err := e.store.SaveTransition(ctx, unit); err != nil {
		return nil, err
	}
	return updated, nil
}

// decisionGuard checks that the caller may decide (approve or reject)
// the case group: a PM on the beneficiary's contract, or an admin.
func (e *Engine) decisionGuard(ctx context.Context, group *types.CaseGroup, callerID string) (*types.Identity, *types.Beneficiary, error) {
	caller, err := e.dir.GetIdentity(ctx, callerID)
	if err != nil {
		return nil, nil, err
	}
	ben, err := e.dir.GetBeneficiary(ctx, group.BeneficiaryID)
	if err != nil {
		return nil, nil, err
	}

	switch caller.Role {
	case types.RoleAdmin:
		return caller, ben, nil
	case types.RolePM:
		if caller.ContractID == "" || caller.ContractID != ben.ContractID {
			return nil, nil, fmt.Errorf("%s is not a PM on %s's contract: %w", callerID, ben.Name, scope.ErrForbidden)
		}
		return caller, ben, nil
	case types.RoleHR, types.RoleManager, types.RoleBeneficiary:
		return nil, nil, fmt.Errorf("role %s may not decide approvals: %w", caller.Role, scope.ErrForbidden)
	default:
		return nil, nil, fmt.Errorf("identity %s has role %q: %w", callerID, caller.Role, scope.ErrUnknownRole)
	}
}

// contractPMs returns the active PMs affiliated with the contract. An
// empty contract has no PMs; submission still proceeds, approval will
// require an admin.
func (e *Engine) contractPMs(ctx context.Context, contractID string) ([]*types.Identity, error) {
	if contractID == "" {
		return nil, nil
	}
	members, err := e.dir.ListIdentitiesByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	var pms []*types.Identity
	for _, m := range members {
		if m.Role == types.RolePM && m.Active {
			pms = append(pms, m)
		}
	}
	return pms, nil
}

// approvalSnapshot serializes the approval-related fields for audit
// entries.
func approvalSnapshot(g *types.CaseGroup) string {
	snap := struct {
		ApprovalStatus  types.ApprovalStatus `json:"approval_status"`
		Status          types.CaseStatus     `json:"status"`
		ResponsibleID   string               `json:"responsible_id,omitempty"`
		LawFirmID       string               `json:"law_firm_id,omitempty"`
		ApproverID      string               `json:"approver_id,omitempty"`
		DecidedAt       *time.Time           `json:"decided_at,omitempty"`
		ApprovalNotes   string               `json:"approval_notes,omitempty"`
		RejectionReason string               `json:"rejection_reason,omitempty"`
	}{
		ApprovalStatus:  g.ApprovalStatus,
		Status:          g.Status,
		ResponsibleID:   g.ResponsibleID,
		LawFirmID:       g.LawFirmID,
		ApproverID:      g.ApproverID,
		DecidedAt:       g.DecidedAt,
		ApprovalNotes:   g.ApprovalNotes,
		RejectionReason: g.RejectionReason,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Sprintf(`{"approval_status":%q}`, g.ApprovalStatus)
	}
	return string(data)
}
