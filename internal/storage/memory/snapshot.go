package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/visaops/caseflow/internal/types"
)

// snapshot is the JSON shape of a persisted store.
type snapshot struct {
	Identities    []*types.Identity     `json:"identities,omitempty"`
	Beneficiaries []*types.Beneficiary  `json:"beneficiaries,omitempty"`
	LawFirms      []*types.LawFirm      `json:"law_firms,omitempty"`
	CaseGroups    []*types.CaseGroup    `json:"case_groups,omitempty"`
	Petitions     []*types.Petition     `json:"petitions,omitempty"`
	Milestones    []*types.Milestone    `json:"milestones,omitempty"`
	Todos         []*types.Todo         `json:"todos,omitempty"`
	Notifications []*types.Notification `json:"notifications,omitempty"`
	AuditEntries  []*types.AuditEntry   `json:"audit_entries,omitempty"`
}

func (s *Store) loadSnapshot() error {
	data, err := os.ReadFile(s.snapshotPath) // #nosec G304 - path comes from config
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("parse %s: %w", s.snapshotPath, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ident := range snap.Identities {
		s.identities[ident.ID] = ident
	}
	for _, ben := range snap.Beneficiaries {
		s.beneficiaries[ben.ID] = ben
	}
	for _, firm := range snap.LawFirms {
		s.lawFirms[firm.ID] = firm
	}
	for _, group := range snap.CaseGroups {
		s.caseGroups[group.ID] = group
	}
	for _, pet := range snap.Petitions {
		s.petitions[pet.ID] = pet
	}
	s.milestones = snap.Milestones
	s.todos = snap.Todos
	s.notifications = snap.Notifications
	s.auditEntries = snap.AuditEntries
	return nil
}

func (s *Store) saveSnapshot() error {
	s.mu.RLock()
	snap := snapshot{
		Milestones:    s.milestones,
		Todos:         s.todos,
		Notifications: s.notifications,
		AuditEntries:  s.auditEntries,
	}
	for _, ident := range s.identities {
		snap.Identities = append(snap.Identities, ident)
	}
	for _, ben := range s.beneficiaries {
		snap.Beneficiaries = append(snap.Beneficiaries, ben)
	}
	for _, firm := range s.lawFirms {
		snap.LawFirms = append(snap.LawFirms, firm)
	}
	for _, group := range s.caseGroups {
		snap.CaseGroups = append(snap.CaseGroups, group)
	}
	for _, pet := range s.petitions {
		snap.Petitions = append(snap.Petitions, pet)
	}
	s.mu.RUnlock()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o750); err != nil {
		return err
	}
	// Write-then-rename so a crash mid-write never truncates the snapshot
	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.snapshotPath)
}
