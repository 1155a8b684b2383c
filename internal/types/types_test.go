package types

import (
	"testing"
	"time"
)

func TestRoleIsValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleHR, true},
		{RolePM, true},
		{RoleManager, true},
		{RoleBeneficiary, true},
		{Role("superuser"), false},
		{Role(""), false},
		{Role("Admin"), false}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsValid(); got != tt.want {
				t.Errorf("Role(%q).IsValid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

func TestApprovalStatusTerminal(t *testing.T) {
	tests := []struct {
		status   ApprovalStatus
		terminal bool
	}{
		{ApprovalDraft, false},
		{ApprovalPending, false},
		{ApprovalApproved, true},
		{ApprovalRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.terminal)
			}
		})
	}
}

func TestPetitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Petition
		wantErr bool
	}{
		{
			name:    "valid",
			p:       Petition{CaseGroupID: "cg-1", Type: PetitionI140, Status: PetitionNotStarted, CaseStatus: CasePlanning},
			wantErr: false,
		},
		{
			name:    "missing case group",
			p:       Petition{Type: PetitionI140, Status: PetitionNotStarted, CaseStatus: CasePlanning},
			wantErr: true,
		},
		{
			name:    "bad type",
			p:       Petition{CaseGroupID: "cg-1", Type: PetitionType("ds160"), Status: PetitionNotStarted, CaseStatus: CasePlanning},
			wantErr: true,
		},
		{
			name:    "bad case status",
			p:       Petition{CaseGroupID: "cg-1", Type: PetitionI140, Status: PetitionNotStarted, CaseStatus: CaseStatus("open")},
			wantErr: true,
		},
		{
			name:    "empty case status",
			p:       Petition{CaseGroupID: "cg-1", Type: PetitionI140, Status: PetitionNotStarted},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMilestoneValidateParentInvariant(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name    string
		m       Milestone
		wantErr bool
	}{
		{
			name:    "case group parent",
			m:       Milestone{CaseGroupID: "cg-1", Type: MilestoneFiled, CompletedAt: now},
			wantErr: false,
		},
		{
			name:    "petition parent",
			m:       Milestone{PetitionID: "pet-1", Type: MilestoneFiled, CompletedAt: now},
			wantErr: false,
		},
		{
			name:    "both parents set",
			m:       Milestone{CaseGroupID: "cg-1", PetitionID: "pet-1", Type: MilestoneFiled, CompletedAt: now},
			wantErr: true,
		},
		{
			name:    "no parent set",
			m:       Milestone{Type: MilestoneFiled, CompletedAt: now},
			wantErr: true,
		},
		{
			name:    "missing type",
			m:       Milestone{PetitionID: "pet-1", CompletedAt: now},
			wantErr: true,
		},
		{
			name:    "missing completion date",
			m:       Milestone{PetitionID: "pet-1", Type: MilestoneFiled},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCaseGroupValidate(t *testing.T) {
	now := time.Now()
	base := CaseGroup{
		ID:             "cg-1",
		BeneficiaryID:  "ben-1",
		Pathway:        PathwayEB2,
		Status:         CasePlanning,
		ApprovalStatus: ApprovalDraft,
		CreatedBy:      "mgr-1",
	}

	t.Run("valid draft", func(t *testing.T) {
		g := base
		if err := g.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("draft with approver", func(t *testing.T) {
		g := base
		g.ApproverID = "pm-1"
		if err := g.Validate(); err == nil {
			t.Error("expected error for draft carrying approver")
		}
	})

	t.Run("approved without assignee", func(t *testing.T) {
		g := base
		g.ApprovalStatus = ApprovalApproved
		g.Status = CaseApproved
		g.ApproverID = "pm-1"
		g.DecidedAt = &now
		if err := g.Validate(); err == nil {
			t.Error("expected error for approved case without responsible party")
		}
	})

	t.Run("approved complete", func(t *testing.T) {
		g := base
		g.ApprovalStatus = ApprovalApproved
		g.Status = CaseApproved
		g.ApproverID = "pm-1"
		g.DecidedAt = &now
		g.ResponsibleID = "hr-1"
		g.LawFirmID = "firm-1"
		if err := g.Validate(); err != nil {
			t.Errorf("Validate() = %v, want nil", err)
		}
	})

	t.Run("rejected without reason", func(t *testing.T) {
		g := base
		g.ApprovalStatus = ApprovalRejected
		g.Status = CaseDenied
		g.ApproverID = "pm-1"
		g.DecidedAt = &now
		if err := g.Validate(); err == nil {
			t.Error("expected error for rejection without reason")
		}
	})
}

func TestCaseGroupClone(t *testing.T) {
	now := time.Now()
	g := &CaseGroup{ID: "cg-1", DecidedAt: &now}
	c := g.Clone()
	c.ID = "cg-2"
	*c.DecidedAt = now.Add(time.Hour)
	if g.ID != "cg-1" {
		t.Errorf("clone mutated original ID")
	}
	if !g.DecidedAt.Equal(now) {
		t.Errorf("clone shares DecidedAt pointer with original")
	}
}
