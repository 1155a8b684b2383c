package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

const caseGroupColumns = `id, beneficiary_id, pathway, status, approval_status, created_by,
	responsible_id, law_firm_id, approver_id, decided_at,
	submission_notes, approval_notes, rejection_reason, created_at, updated_at`

func scanCaseGroup(row interface{ Scan(...any) error }) (*types.CaseGroup, error) {
	var g types.CaseGroup
	var decidedAt sql.NullTime
	err := row.Scan(&g.ID, &g.BeneficiaryID, &g.Pathway, &g.Status, &g.ApprovalStatus, &g.CreatedBy,
		&g.ResponsibleID, &g.LawFirmID, &g.ApproverID, &decidedAt,
		&g.SubmissionNotes, &g.ApprovalNotes, &g.RejectionReason, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.DecidedAt = timePtr(decidedAt)
	return &g, nil
}

func (s *Store) GetCaseGroup(ctx context.Context, id string) (*types.CaseGroup, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+caseGroupColumns+" FROM case_groups WHERE id = ?", id)
	group, err := scanCaseGroup(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("case group %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get case group: %w", err)
	}
	return group, nil
}

func (s *Store) CreateCaseGroup(ctx context.Context, group *types.CaseGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := nowUTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if err := group.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO case_groups (`+caseGroupColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		group.ID, group.BeneficiaryID, group.Pathway, group.Status, group.ApprovalStatus, group.CreatedBy,
		group.ResponsibleID, group.LawFirmID, group.ApproverID, nullTime(group.DecidedAt),
		group.SubmissionNotes, group.ApprovalNotes, group.RejectionReason, group.CreatedAt, group.UpdatedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("case group %s already exists: %w", group.ID, storage.ErrConflict)
		}
		return fmt.Errorf("create case group: %w", err)
	}
	return nil
}

const petitionColumns = "id, case_group_id, petition_type, status, case_status, filed_at, decided_at, created_at, updated_at"

func scanPetition(row interface{ Scan(...any) error }) (*types.Petition, error) {
	var p types.Petition
	var filedAt, decidedAt sql.NullTime
	err := row.Scan(&p.ID, &p.CaseGroupID, &p.Type, &p.Status, &p.CaseStatus, &filedAt, &decidedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.FiledAt = timePtr(filedAt)
	p.DecidedAt = timePtr(decidedAt)
	return &p, nil
}

func (s *Store) GetPetition(ctx context.Context, id string) (*types.Petition, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+petitionColumns+" FROM petitions WHERE id = ?", id)
	pet, err := scanPetition(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("petition %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get petition: %w", err)
	}
	return pet, nil
}

func (s *Store) CreatePetition(ctx context.Context, petition *types.Petition) error {
	if petition.ID == "" {
		petition.ID = uuid.NewString()
	}
	now := nowUTC()
	if petition.CreatedAt.IsZero() {
		petition.CreatedAt = now
	}
	petition.UpdatedAt = now
	if petition.CaseStatus == "" {
		petition.CaseStatus = types.CasePlanning
	}
	if err := petition.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO petitions (`+petitionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		petition.ID, petition.CaseGroupID, petition.Type, petition.Status, petition.CaseStatus,
		nullTime(petition.FiledAt), nullTime(petition.DecidedAt), petition.CreatedAt, petition.UpdatedAt)
	if err != nil {
		// FK violation means the parent case group is missing
		if isForeignKeyViolation(err) {
			return fmt.Errorf("case group %s: %w", petition.CaseGroupID, storage.ErrNotFound)
		}
		return fmt.Errorf("create petition: %w", err)
	}
	return nil
}

func (s *Store) ListPetitions(ctx context.Context, caseGroupID string) ([]*types.Petition, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+petitionColumns+" FROM petitions WHERE case_group_id = ? ORDER BY created_at, id", caseGroupID)
	if err != nil {
		return nil, fmt.Errorf("list petitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Petition
	for rows.Next() {
		pet, err := scanPetition(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, pet)
	}
	return out, rows.Err()
}

// SaveTransition applies the unit inside one database transaction. The
// status update carries an approval_status guard in its WHERE clause;
// zero rows affected means another writer got there first, and the
// whole transaction rolls back with ErrConflict.
func (s *Store) SaveTransition(ctx context.Context, unit *storage.TransitionUnit) error {
	if unit == nil || unit.CaseGroup == nil {
		return fmt.Errorf("transition unit missing case group")
	}
	if err := unit.CaseGroup.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err := applyTransition(ctx, tx, unit); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

func applyTransition(ctx context.Context, tx *sql.Tx, unit *storage.TransitionUnit) error {
	group := unit.CaseGroup
	now := nowUTC()

	res, err := tx.ExecContext(ctx, `
		UPDATE case_groups SET
			status = ?, approval_status = ?, responsible_id = ?, law_firm_id = ?,
			approver_id = ?, decided_at = ?, submission_notes = ?, approval_notes = ?,
			rejection_reason = ?, updated_at = ?
		WHERE id = ? AND approval_status = ?`,
		group.Status, group.ApprovalStatus, group.ResponsibleID, group.LawFirmID,
		group.ApproverID, nullTime(group.DecidedAt), group.SubmissionNotes, group.ApprovalNotes,
		group.RejectionReason, now,
		group.ID, unit.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("update case group: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		// Either the group is gone or its status moved under us.
		var current types.ApprovalStatus
		err := tx.QueryRowContext(ctx,
			"SELECT approval_status FROM case_groups WHERE id = ?", group.ID).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("case group %s: %w", group.ID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("read current status: %w", err)
		}
		return fmt.Errorf("case group %s is %s, expected %s: %w",
			group.ID, current, unit.ExpectedStatus, storage.ErrConflict)
	}

	for _, todo := range unit.Todos {
		if todo.ID == "" {
			todo.ID = uuid.NewString()
		}
		if todo.CreatedAt.IsZero() {
			todo.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO todos (id, assignee_id, case_group_id, title, due_date, done, created_at, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			todo.ID, todo.AssigneeID, todo.CaseGroupID, todo.Title, todo.DueDate, todo.Done,
			todo.CreatedAt, nullTime(todo.CompletedAt))
		if err != nil {
			return fmt.Errorf("insert todo: %w", err)
		}
	}
	for _, n := range unit.Notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO notifications (id, recipient_id, message, link, `read`, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			n.ID, n.RecipientID, n.Message, n.Link, n.Read, n.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
	}
	for _, e := range unit.AuditEntries {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO audit_log (id, actor, action, entity_id, old_value, new_value, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			e.ID, e.Actor, e.Action, e.EntityID, e.OldValue, e.NewValue, e.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert audit entry: %w", err)
		}
	}
	return nil
}
