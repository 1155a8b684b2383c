// Package memory implements the storage interface with in-process maps.
//
// It backs tests and the single-user CLI. An optional JSON snapshot file
// gives the CLI persistence between runs without a database server.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/types"
)

// Verify Store implements storage.Storage at compile time
var _ storage.Storage = (*Store)(nil)

// Store is an in-memory storage backend. All methods are safe for
// concurrent use; SaveTransition holds the write lock for the whole unit,
// which is what gives it its all-or-nothing and check-and-set semantics.
type Store struct {
	mu sync.RWMutex

	identities    map[string]*types.Identity
	beneficiaries map[string]*types.Beneficiary
	lawFirms      map[string]*types.LawFirm
	caseGroups    map[string]*types.CaseGroup
	petitions     map[string]*types.Petition
	milestones    []*types.Milestone
	todos         []*types.Todo
	notifications []*types.Notification
	auditEntries  []*types.AuditEntry

	snapshotPath string // empty = no persistence
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		identities:    make(map[string]*types.Identity),
		beneficiaries: make(map[string]*types.Beneficiary),
		lawFirms:      make(map[string]*types.LawFirm),
		caseGroups:    make(map[string]*types.CaseGroup),
		petitions:     make(map[string]*types.Petition),
	}
}

// Open creates a store backed by a JSON snapshot file. A missing file is
// not an error; the store starts empty and the file is written on Close.
func Open(snapshotPath string) (*Store, error) {
	s := New()
	s.snapshotPath = snapshotPath
	if err := s.loadSnapshot(); err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return s, nil
}

// Close flushes the snapshot when one is configured.
func (s *Store) Close() error {
	if s.snapshotPath == "" {
		return nil
	}
	return s.saveSnapshot()
}

// ── Directory ───────────────────────────────────────────────────────────────

func (s *Store) GetIdentity(ctx context.Context, id string) (*types.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ident, ok := s.identities[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, storage.ErrNotFound)
	}
	out := *ident
	return &out, nil
}

func (s *Store) ListDirectReports(ctx context.Context, id string) ([]*types.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Identity
	for _, ident := range s.identities {
		if ident.ReportsTo == id {
			c := *ident
			out = append(out, &c)
		}
	}
	sortIdentities(out)
	return out, nil
}

func (s *Store) ListIdentitiesByContract(ctx context.Context, contractID string) ([]*types.Identity, error) {
	if contractID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Identity
	for _, ident := range s.identities {
		if ident.ContractID == contractID {
			c := *ident
			out = append(out, &c)
		}
	}
	sortIdentities(out)
	return out, nil
}

func (s *Store) GetBeneficiary(ctx context.Context, id string) (*types.Beneficiary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ben, ok := s.beneficiaries[id]
	if !ok {
		return nil, fmt.Errorf("beneficiary %s: %w", id, storage.ErrNotFound)
	}
	out := *ben
	return &out, nil
}

func (s *Store) ListBeneficiariesByContract(ctx context.Context, contractID string) ([]*types.Beneficiary, error) {
	if contractID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Beneficiary
	for _, ben := range s.beneficiaries {
		if ben.ContractID == contractID {
			c := *ben
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListBeneficiariesByOwner(ctx context.Context, ownerIdentityID string) ([]*types.Beneficiary, error) {
	if ownerIdentityID == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Beneficiary
	for _, ben := range s.beneficiaries {
		if ben.OwnerIdentityID == ownerIdentityID {
			c := *ben
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) GetLawFirm(ctx context.Context, id string) (*types.LawFirm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	firm, ok := s.lawFirms[id]
	if !ok {
		return nil, fmt.Errorf("law firm %s: %w", id, storage.ErrNotFound)
	}
	out := *firm
	return &out, nil
}

// ── Case store ──────────────────────────────────────────────────────────────

func (s *Store) GetCaseGroup(ctx context.Context, id string) (*types.CaseGroup, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	group, ok := s.caseGroups[id]
	if !ok {
		return nil, fmt.Errorf("case group %s: %w", id, storage.ErrNotFound)
	}
	return group.Clone(), nil
}

func (s *Store) CreateCaseGroup(ctx context.Context, group *types.CaseGroup) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	if err := group.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.caseGroups[group.ID]; exists {
		return fmt.Errorf("case group %s already exists: %w", group.ID, storage.ErrConflict)
	}
	s.caseGroups[group.ID] = group.Clone()
	return nil
}

func (s *Store) GetPetition(ctx context.Context, id string) (*types.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pet, ok := s.petitions[id]
	if !ok {
		return nil, fmt.Errorf("petition %s: %w", id, storage.ErrNotFound)
	}
	return pet.Clone(), nil
}

func (s *Store) CreatePetition(ctx context.Context, petition *types.Petition) error {
	if petition.ID == "" {
		petition.ID = uuid.NewString()
	}
	now := time.Now()
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

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caseGroups[petition.CaseGroupID]; !ok {
		return fmt.Errorf("case group %s: %w", petition.CaseGroupID, storage.ErrNotFound)
	}
	s.petitions[petition.ID] = petition.Clone()
	return nil
}

func (s *Store) ListPetitions(ctx context.Context, caseGroupID string) ([]*types.Petition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Petition
	for _, pet := range s.petitions {
		if pet.CaseGroupID == caseGroupID {
			out = append(out, pet.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// SaveTransition applies the unit under the store's write lock. The
// expected-status check and every write happen while the lock is held, so
// two racing transitions serialize and the loser observes the winner's
// status and fails with ErrConflict.
func (s *Store) SaveTransition(ctx context.Context, unit *storage.TransitionUnit) error {
	if unit == nil || unit.CaseGroup == nil {
		return fmt.Errorf("transition unit missing case group")
	}
	if err := unit.CaseGroup.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.caseGroups[unit.CaseGroup.ID]
	if !ok {
		return fmt.Errorf("case group %s: %w", unit.CaseGroup.ID, storage.ErrNotFound)
	}
	if current.ApprovalStatus != unit.ExpectedStatus {
		return fmt.Errorf("case group %s is %s, expected %s: %w",
			current.ID, current.ApprovalStatus, unit.ExpectedStatus, storage.ErrConflict)
	}

	group := unit.CaseGroup.Clone()
	group.UpdatedAt = time.Now()
	s.caseGroups[group.ID] = group

	now := time.Now()
	for _, todo := range unit.Todos {
		t := *todo
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		s.todos = append(s.todos, &t)
		todo.ID = t.ID
	}
	for _, n := range unit.Notifications {
		note := *n
		if note.ID == "" {
			note.ID = uuid.NewString()
		}
		if note.CreatedAt.IsZero() {
			note.CreatedAt = now
		}
		s.notifications = append(s.notifications, &note)
		n.ID = note.ID
	}
	for _, e := range unit.AuditEntries {
		entry := *e
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		if entry.CreatedAt.IsZero() {
			entry.CreatedAt = now
		}
		s.auditEntries = append(s.auditEntries, &entry)
		e.ID = entry.ID
	}

	return nil
}

// ── Milestone ledger ────────────────────────────────────────────────────────

func (s *Store) AddMilestone(ctx context.Context, m *types.Milestone) error {
	if err := m.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if m.CaseGroupID != "" {
		if _, ok := s.caseGroups[m.CaseGroupID]; !ok {
			return fmt.Errorf("case group %s: %w", m.CaseGroupID, storage.ErrNotFound)
		}
	}
	if m.PetitionID != "" {
		if _, ok := s.petitions[m.PetitionID]; !ok {
			return fmt.Errorf("petition %s: %w", m.PetitionID, storage.ErrNotFound)
		}
	}
	c := *m
	s.milestones = append(s.milestones, &c)
	return nil
}

func (s *Store) ListCompletedMilestoneTypes(ctx context.Context, petitionID string) (map[types.MilestoneType]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.petitions[petitionID]; !ok {
		return nil, fmt.Errorf("petition %s: %w", petitionID, storage.ErrNotFound)
	}
	out := make(map[types.MilestoneType]bool)
	for _, m := range s.milestones {
		if m.PetitionID == petitionID {
			out[m.Type] = true
		}
	}
	return out, nil
}

func (s *Store) ListCaseGroupMilestoneTypes(ctx context.Context, caseGroupID string) (map[types.MilestoneType]bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.caseGroups[caseGroupID]; !ok {
		return nil, fmt.Errorf("case group %s: %w", caseGroupID, storage.ErrNotFound)
	}
	// The group view folds in both the group's own milestones and those
	// of its petitions.
	members := make(map[string]bool)
	for id, pet := range s.petitions {
		if pet.CaseGroupID == caseGroupID {
			members[id] = true
		}
	}
	out := make(map[types.MilestoneType]bool)
	for _, m := range s.milestones {
		if m.CaseGroupID == caseGroupID || (m.PetitionID != "" && members[m.PetitionID]) {
			out[m.Type] = true
		}
	}
	return out, nil
}

// ── Sinks ───────────────────────────────────────────────────────────────────

func (s *Store) ListTodos(ctx context.Context, caseGroupID string) ([]*types.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Todo
	for _, todo := range s.todos {
		if todo.CaseGroupID == caseGroupID {
			c := *todo
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string) ([]*types.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.Notification
	for _, n := range s.notifications {
		if n.RecipientID == recipientID {
			c := *n
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *Store) ListAuditEntries(ctx context.Context, entityID string) ([]*types.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*types.AuditEntry
	for _, e := range s.auditEntries {
		if e.EntityID == entityID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}

// ── Directory seeding ───────────────────────────────────────────────────────

func (s *Store) PutIdentity(ctx context.Context, identity *types.Identity) error {
	if err := identity.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *identity
	s.identities[identity.ID] = &c
	return nil
}

func (s *Store) PutBeneficiary(ctx context.Context, beneficiary *types.Beneficiary) error {
	if beneficiary.ID == "" {
		beneficiary.ID = uuid.NewString()
	}
	if beneficiary.CreatedAt.IsZero() {
		beneficiary.CreatedAt = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *beneficiary
	s.beneficiaries[beneficiary.ID] = &c
	return nil
}

func (s *Store) PutLawFirm(ctx context.Context, firm *types.LawFirm) error {
	if firm.ID == "" {
		firm.ID = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *firm
	s.lawFirms[firm.ID] = &c
	return nil
}

func sortIdentities(ids []*types.Identity) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].ID < ids[j].ID })
}
