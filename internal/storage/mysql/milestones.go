package mysql

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/visaops/caseflow/internal/types"
)

func (s *Store) AddMilestone(ctx context.Context, m *types.Milestone) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.PetitionID != "" {
		if _, err := s.GetPetition(ctx, m.PetitionID); err != nil {
			return err
		}
	}
	if m.CaseGroupID != "" {
		if _, err := s.GetCaseGroup(ctx, m.CaseGroupID); err != nil {
			return err
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO milestones (id, case_group_id, petition_id, milestone_type, completed_at, created_by)
		VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.CaseGroupID, m.PetitionID, m.Type, m.CompletedAt, m.CreatedBy)
	if err != nil {
		return fmt.Errorf("add milestone: %w", err)
	}
	return nil
}

func (s *Store) ListCompletedMilestoneTypes(ctx context.Context, petitionID string) (map[types.MilestoneType]bool, error) {
	if _, err := s.GetPetition(ctx, petitionID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT DISTINCT milestone_type FROM milestones WHERE petition_id = ?", petitionID)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[types.MilestoneType]bool)
	for rows.Next() {
		var mt types.MilestoneType
		if err := rows.Scan(&mt); err != nil {
			return nil, err
		}
		out[mt] = true
	}
	return out, rows.Err()
}

func (s *Store) ListCaseGroupMilestoneTypes(ctx context.Context, caseGroupID string) (map[types.MilestoneType]bool, error) {
	if _, err := s.GetCaseGroup(ctx, caseGroupID); err != nil {
		return nil, err
	}
	// Folds in the group's own milestones and its petitions' milestones
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT m.milestone_type FROM milestones m
		LEFT JOIN petitions p ON m.petition_id = p.id
		WHERE m.case_group_id = ? OR p.case_group_id = ?`, caseGroupID, caseGroupID)
	if err != nil {
		return nil, fmt.Errorf("list case group milestones: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[types.MilestoneType]bool)
	for rows.Next() {
		var mt types.MilestoneType
		if err := rows.Scan(&mt); err != nil {
			return nil, err
		}
		out[mt] = true
	}
	return out, rows.Err()
}
