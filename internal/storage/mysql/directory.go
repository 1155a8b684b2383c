package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

const identityColumns = "id, name, email, role, contract_id, department_id, reports_to, active"

func scanIdentity(row interface{ Scan(...any) error }) (*types.Identity, error) {
	var ident types.Identity
	err := row.Scan(&ident.ID, &ident.Name, &ident.Email, &ident.Role,
		&ident.ContractID, &ident.DepartmentID, &ident.ReportsTo, &ident.Active)
	if err != nil {
		return nil, err
	}
	return &ident, nil
}

func (s *Store) GetIdentity(ctx context.Context, id string) (*types.Identity, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+identityColumns+" FROM identities WHERE id = ?", id)
	ident, err := scanIdentity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get identity: %w", err)
	}
	return ident, nil
}

func (s *Store) queryIdentities(ctx context.Context, query string, args ...any) ([]*types.Identity, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ident)
	}
	return out, rows.Err()
}

func (s *Store) ListDirectReports(ctx context.Context, id string) ([]*types.Identity, error) {
	return s.queryIdentities(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE reports_to = ? ORDER BY id", id)
}

func (s *Store) ListIdentitiesByContract(ctx context.Context, contractID string) ([]*types.Identity, error) {
	if contractID == "" {
		return nil, nil
	}
	return s.queryIdentities(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE contract_id = ? ORDER BY id", contractID)
}

const beneficiaryColumns = "id, name, owner_identity_id, contract_id, created_at"

func scanBeneficiary(row interface{ Scan(...any) error }) (*types.Beneficiary, error) {
	var ben types.Beneficiary
	err := row.Scan(&ben.ID, &ben.Name, &ben.OwnerIdentityID, &ben.ContractID, &ben.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &ben, nil
}

func (s *Store) GetBeneficiary(ctx context.Context, id string) (*types.Beneficiary, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+beneficiaryColumns+" FROM beneficiaries WHERE id = ?", id)
	ben, err := scanBeneficiary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("beneficiary %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get beneficiary: %w", err)
	}
	return ben, nil
}

func (s *Store) queryBeneficiaries(ctx context.Context, query string, args ...any) ([]*types.Beneficiary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Beneficiary
	for rows.Next() {
		ben, err := scanBeneficiary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ben)
	}
	return out, rows.Err()
}

func (s *Store) ListBeneficiariesByContract(ctx context.Context, contractID string) ([]*types.Beneficiary, error) {
	if contractID == "" {
		return nil, nil
	}
	return s.queryBeneficiaries(ctx,
		"SELECT "+beneficiaryColumns+" FROM beneficiaries WHERE contract_id = ? ORDER BY id", contractID)
}

func (s *Store) ListBeneficiariesByOwner(ctx context.Context, ownerIdentityID string) ([]*types.Beneficiary, error) {
	if ownerIdentityID == "" {
		return nil, nil
	}
	return s.queryBeneficiaries(ctx,
		"SELECT "+beneficiaryColumns+" FROM beneficiaries WHERE owner_identity_id = ? ORDER BY id", ownerIdentityID)
}

func (s *Store) GetLawFirm(ctx context.Context, id string) (*types.LawFirm, error) {
	var firm types.LawFirm
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, active FROM law_firms WHERE id = ?", id).
		Scan(&firm.ID, &firm.Name, &firm.Active)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("law firm %s: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get law firm: %w", err)
	}
	return &firm, nil
}

func (s *Store) PutIdentity(ctx context.Context, ident *types.Identity) error {
	if err := ident.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO identities (`+identityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), email = VALUES(email), role = VALUES(role),
			contract_id = VALUES(contract_id), department_id = VALUES(department_id),
			reports_to = VALUES(reports_to), active = VALUES(active)`,
		ident.ID, ident.Name, ident.Email, ident.Role,
		ident.ContractID, ident.DepartmentID, ident.ReportsTo, ident.Active)
	if err != nil {
		return fmt.Errorf("put identity: %w", err)
	}
	return nil
}

func (s *Store) PutBeneficiary(ctx context.Context, ben *types.Beneficiary) error {
	if ben.CreatedAt.IsZero() {
		ben.CreatedAt = nowUTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO beneficiaries (`+beneficiaryColumns+`) VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), owner_identity_id = VALUES(owner_identity_id),
			contract_id = VALUES(contract_id)`,
		ben.ID, ben.Name, ben.OwnerIdentityID, ben.ContractID, ben.CreatedAt)
	if err != nil {
		return fmt.Errorf("put beneficiary: %w", err)
	}
	return nil
}

func (s *Store) PutLawFirm(ctx context.Context, firm *types.LawFirm) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO law_firms (id, name, active) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE name = VALUES(name), active = VALUES(active)`,
		firm.ID, firm.Name, firm.Active)
	if err != nil {
		return fmt.Errorf("put law firm: %w", err)
	}
	return nil
}
