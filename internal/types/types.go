// Package types defines core data structures for the caseflow case engine.
package types

import (
	"fmt"
	"time"
)

// Role identifies what a caller is allowed to do. The set is closed:
// callers dispatch on it with exhaustive switches, and an unrecognized
// value is a configuration error, never a silent deny or allow.
type Role string

// Role constants
const (
	RoleAdmin       Role = "admin"
	RoleHR          Role = "hr"
	RolePM          Role = "pm"
	RoleManager     Role = "manager"
	RoleBeneficiary Role = "beneficiary"
)

// IsValid checks if the role value is one of the closed set.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleHR, RolePM, RoleManager, RoleBeneficiary:
		return true
	}
	return false
}

// Identity is a user of the system. ReportsTo edges form a forest but the
// data is not trusted to be acyclic; traversals must carry a visited set.
type Identity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Role         Role   `json:"role"`
	ContractID   string `json:"contract_id,omitempty"`   // Contract affiliation; empty for unaffiliated users
	DepartmentID string `json:"department_id,omitempty"` // Organizational unit; informational only
	ReportsTo    string `json:"reports_to,omitempty"`    // Manager's identity ID; empty for roots
	Active       bool   `json:"active"`
}

// Validate checks if the identity has valid field values.
func (i *Identity) Validate() error {
	if i.ID == "" {
		return fmt.Errorf("identity id is required")
	}
	if !i.Role.IsValid() {
		return fmt.Errorf("invalid role: %s", i.Role)
	}
	return nil
}

// Beneficiary is a case subject. It may exist before any Identity is
// created (future hires), so OwnerIdentityID is optional.
type Beneficiary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	OwnerIdentityID string    `json:"owner_identity_id,omitempty"`
	ContractID      string    `json:"contract_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// LawFirm is outside counsel attached to a case group at approval time.
type LawFirm struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ApprovalStatus is the state-machine field on a case group, distinct
// from the general lifecycle Status. Only the workflow engine writes it.
type ApprovalStatus string

// Approval status constants. ApprovalApproved and ApprovalRejected are
// terminal: a rejected case group is never resubmitted, a new one is
// created instead.
const (
	ApprovalDraft    ApprovalStatus = "draft"
	ApprovalPending  ApprovalStatus = "pending_pm_approval"
	ApprovalApproved ApprovalStatus = "pm_approved"
	ApprovalRejected ApprovalStatus = "pm_rejected"
)

// IsValid checks if the approval status value is valid.
func (s ApprovalStatus) IsValid() bool {
	switch s {
	case ApprovalDraft, ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

// IsTerminal reports whether the state machine can leave this state.
func (s ApprovalStatus) IsTerminal() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// CaseStatus is the general lifecycle of a case group, tracked separately
// from the approval state machine.
type CaseStatus string

// Case lifecycle constants
const (
	CasePlanning  CaseStatus = "planning"
	CaseActive    CaseStatus = "active"
	CasePending   CaseStatus = "pending"
	CaseApproved  CaseStatus = "approved"
	CaseDenied    CaseStatus = "denied"
	CaseWithdrawn CaseStatus = "withdrawn"
	CaseOnHold    CaseStatus = "on_hold"
)

// IsValid checks if the case status value is valid.
func (s CaseStatus) IsValid() bool {
	switch s {
	case CasePlanning, CaseActive, CasePending, CaseApproved, CaseDenied, CaseWithdrawn, CaseOnHold:
		return true
	}
	return false
}

// PathwayType is the overall immigration strategy a case group follows.
type PathwayType string

// Pathway constants
const (
	PathwayEB1    PathwayType = "eb1"
	PathwayEB2    PathwayType = "eb2"
	PathwayEB3    PathwayType = "eb3"
	PathwayNIW    PathwayType = "eb2_niw"
	PathwayNonimm PathwayType = "nonimmigrant"
)

// IsValid checks if the pathway type value is valid.
func (p PathwayType) IsValid() bool {
	switch p {
	case PathwayEB1, PathwayEB2, PathwayEB3, PathwayNIW, PathwayNonimm:
		return true
	}
	return false
}

// CaseGroup groups related petitions under one immigration pathway.
//
// ResponsibleID, LawFirmID, ApproverID, DecidedAt and the notes fields
// are written only by the approval workflow.
type CaseGroup struct {
	ID             string         `json:"id"`
	BeneficiaryID  string         `json:"beneficiary_id"`
	Pathway        PathwayType    `json:"pathway"`
	Status         CaseStatus     `json:"status"`
	ApprovalStatus ApprovalStatus `json:"approval_status"`
	CreatedBy      string         `json:"created_by"` // Manager identity ID

	ResponsibleID   string     `json:"responsible_id,omitempty"` // HR assignee, set on approval
	LawFirmID       string     `json:"law_firm_id,omitempty"`    // Set on approval
	ApproverID      string     `json:"approver_id,omitempty"`    // PM who approved or rejected
	DecidedAt       *time.Time `json:"decided_at,omitempty"`
	SubmissionNotes string     `json:"submission_notes,omitempty"`
	ApprovalNotes   string     `json:"approval_notes,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks if the case group has valid field values.
func (g *CaseGroup) Validate() error {
	if g.BeneficiaryID == "" {
		return fmt.Errorf("beneficiary_id is required")
	}
	if g.CreatedBy == "" {
		return fmt.Errorf("created_by is required")
	}
	if !g.Pathway.IsValid() {
		return fmt.Errorf("invalid pathway: %s", g.Pathway)
	}
	if !g.Status.IsValid() {
		return fmt.Errorf("invalid case status: %s", g.Status)
	}
	if !g.ApprovalStatus.IsValid() {
		return fmt.Errorf("invalid approval status: %s", g.ApprovalStatus)
	}
	// Approval-only fields must not appear before a decision is recorded
	if g.ApprovalStatus == ApprovalDraft || g.ApprovalStatus == ApprovalPending {
		if g.ApproverID != "" || g.DecidedAt != nil {
			return fmt.Errorf("undecided case groups cannot carry approver or decision timestamp")
		}
	}
	if g.ApprovalStatus == ApprovalApproved && (g.ResponsibleID == "" || g.LawFirmID == "") {
		return fmt.Errorf("approved case groups must have responsible party and law firm")
	}
	if g.ApprovalStatus == ApprovalRejected && g.RejectionReason == "" {
		return fmt.Errorf("rejected case groups must have a rejection reason")
	}
	return nil
}

// PetitionType is a closed enum of concrete government filings. It
// determines which milestone pipeline applies to a petition.
type PetitionType string

// Petition type constants
const (
	PetitionPERM PetitionType = "perm"
	PetitionI140 PetitionType = "i140"
	PetitionI485 PetitionType = "i485"
	PetitionH1B  PetitionType = "h1b"
	PetitionL1   PetitionType = "l1"
	PetitionO1   PetitionType = "o1"
)

// IsValid checks if the petition type value is valid.
func (p PetitionType) IsValid() bool {
	switch p {
	case PetitionPERM, PetitionI140, PetitionI485, PetitionH1B, PetitionL1, PetitionO1:
		return true
	}
	return false
}

// PetitionStatus tracks a single filing's own progress.
type PetitionStatus string

// Petition status constants
const (
	PetitionNotStarted PetitionStatus = "not_started"
	PetitionInProcess  PetitionStatus = "in_process"
	PetitionFiled      PetitionStatus = "filed"
	PetitionApproved   PetitionStatus = "approved"
	PetitionDeniedStat PetitionStatus = "denied"
)

// IsValid checks if the petition status value is valid.
func (s PetitionStatus) IsValid() bool {
	switch s {
	case PetitionNotStarted, PetitionInProcess, PetitionFiled, PetitionApproved, PetitionDeniedStat:
		return true
	}
	return false
}

// Petition is one concrete filing. It belongs to exactly one case group.
type Petition struct {
	ID          string         `json:"id"`
	CaseGroupID string         `json:"case_group_id"`
	Type        PetitionType   `json:"petition_type"`
	Status      PetitionStatus `json:"status"`
	CaseStatus  CaseStatus     `json:"case_status"`
	FiledAt     *time.Time     `json:"filed_at,omitempty"`
	DecidedAt   *time.Time     `json:"decided_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// Validate checks if the petition has valid field values.
func (p *Petition) Validate() error {
	if p.CaseGroupID == "" {
		return fmt.Errorf("case_group_id is required")
	}
	if !p.Type.IsValid() {
		return fmt.Errorf("invalid petition type: %s", p.Type)
	}
	if !p.Status.IsValid() {
		return fmt.Errorf("invalid petition status: %s", p.Status)
	}
	if !p.CaseStatus.IsValid() {
		return fmt.Errorf("invalid case status: %s", p.CaseStatus)
	}
	return nil
}

// MilestoneType names a pipeline stage. Stage tables in the pipeline
// package map these to labels and weights.
type MilestoneType string

// Milestone type constants
const (
	MilestoneCaseOpened      MilestoneType = "case_opened"
	MilestoneAttorneyEngaged MilestoneType = "attorney_engaged"
	MilestoneDocsCollected   MilestoneType = "documents_collected"
	MilestoneRecruitment     MilestoneType = "recruitment_completed" // PERM only
	MilestoneDrafted         MilestoneType = "petition_drafted"
	MilestoneFiled           MilestoneType = "petition_filed"
	MilestoneReceiptNotice   MilestoneType = "receipt_notice"
	MilestoneRFEResponded    MilestoneType = "rfe_responded"
	MilestoneInterview       MilestoneType = "interview_completed" // I-485 only
	MilestoneApproved        MilestoneType = "petition_approved"
)

// Milestone records that a named pipeline stage was completed, for either
// a case group or a single petition. The ledger is append-only; records
// are never mutated in place.
type Milestone struct {
	ID          string        `json:"id"`
	CaseGroupID string        `json:"case_group_id,omitempty"`
	PetitionID  string        `json:"petition_id,omitempty"`
	Type        MilestoneType `json:"milestone_type"`
	CompletedAt time.Time     `json:"completed_at"`
	CreatedBy   string        `json:"created_by"`
}

// Validate enforces the parent invariant: exactly one of case group or
// petition must be set, never both, never neither.
func (m *Milestone) Validate() error {
	if m.CaseGroupID != "" && m.PetitionID != "" {
		return fmt.Errorf("milestone cannot belong to both a case group and a petition")
	}
	if m.CaseGroupID == "" && m.PetitionID == "" {
		return fmt.Errorf("milestone must belong to a case group or a petition")
	}
	if m.Type == "" {
		return fmt.Errorf("milestone_type is required")
	}
	if m.CompletedAt.IsZero() {
		return fmt.Errorf("completed_at is required")
	}
	return nil
}

// Todo is a work item created as a workflow side effect.
type Todo struct {
	ID          string     `json:"id"`
	AssigneeID  string     `json:"assignee_id"`
	CaseGroupID string     `json:"case_group_id"`
	Title       string     `json:"title"`
	DueDate     time.Time  `json:"due_date"`
	Done        bool       `json:"done"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Notification is a message to a user, persisted with the transition that
// produced it. Delivery over external channels is handled separately and
// is best-effort.
type Notification struct {
	ID          string    `json:"id"`
	RecipientID string    `json:"recipient_id"`
	Message     string    `json:"message"`
	Link        string    `json:"link,omitempty"`
	Read        bool      `json:"read"`
	CreatedAt   time.Time `json:"created_at"`
}

// AuditEntry captures who changed what. Old/new values are JSON snapshots
// of the approval-related fields.
type AuditEntry struct {
	ID        string    `json:"id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	EntityID  string    `json:"entity_id"`
	OldValue  string    `json:"old_value,omitempty"`
	NewValue  string    `json:"new_value,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Audit action constants
const (
	AuditSubmitted = "case_group_submitted"
	AuditApproved  = "case_group_approved"
	AuditRejected  = "case_group_rejected"
)

// Clone returns a deep copy of the case group. Stores hand out clones so
// callers can never mutate persisted state in place.
func (g *CaseGroup) Clone() *CaseGroup {
	out := *g
	if g.DecidedAt != nil {
		t := *g.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}

// Clone returns a deep copy of the petition.
func (p *Petition) Clone() *Petition {
	out := *p
	if p.FiledAt != nil {
		t := *p.FiledAt
		out.FiledAt = &t
	}
	if p.DecidedAt != nil {
		t := *p.DecidedAt
		out.DecidedAt = &t
	}
	return &out
}
