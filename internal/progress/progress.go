// Package progress computes milestone-pipeline completion percentages
// for petitions and case groups.
//
// The pure computation lives in ComputePetitionProgress and
// ComputeCaseGroupProgress; Calculator wires them to a case store and
// milestone ledger so callers can ask by id.
package progress

import (
	"context"
	"fmt"

	"github.com/visaops/caseflow/internal/pipeline"
	"github.com/visaops/caseflow/internal/types"
)

// Stage descriptions for the case-group banding.
const (
	LabelNotStarted  = "Not Started"
	LabelNoPetitions = "No visa applications"
)

// StageStatus is one pipeline stage annotated with whether the
// petition has reached it.
type StageStatus struct {
	Type     types.MilestoneType `json:"milestone_type"`
	Label    string              `json:"label"`
	Weight   int                 `json:"weight"`
	Required bool                `json:"required"`
	Reached  bool                `json:"reached"`
}

// PetitionProgress is the computed progress of a single petition.
type PetitionProgress struct {
	PetitionID        string             `json:"petition_id,omitempty"`
	PetitionType      types.PetitionType `json:"petition_type"`
	Percentage        int                `json:"percentage"`
	CurrentStageLabel string             `json:"current_stage_label"`
	NextRequiredLabel string             `json:"next_required_stage_label,omitempty"`
	Stages            []StageStatus      `json:"stages"`
}

// CaseGroupProgress aggregates petition progress across a case group.
type CaseGroupProgress struct {
	CaseGroupID       string             `json:"case_group_id,omitempty"`
	OverallPercentage int                `json:"overall_percentage"`
	OverallStage      string             `json:"overall_stage_description"`
	Petitions         []PetitionProgress `json:"petitions"`
}

// ComputePetitionProgress walks the petition type's pipeline against
// the set of completed milestone types. The percentage is the weight of
// the highest-weight reached stage; weights supersede, they never sum.
// The next required label is the first required unreached stage in
// declared order, skipping non-required stages.
func ComputePetitionProgress(reg *pipeline.Registry, petitionType types.PetitionType, completed map[types.MilestoneType]bool) PetitionProgress {
	p := reg.Lookup(petitionType)

	result := PetitionProgress{
		PetitionType:      petitionType,
		CurrentStageLabel: LabelNotStarted,
		Stages:            make([]StageStatus, 0, len(p.Stages)),
	}
	nextFound := false
	for _, s := range p.Stages {
		reached := completed[s.Type]
		result.Stages = append(result.Stages, StageStatus{
			Type:     s.Type,
			Label:    s.Label,
			Weight:   s.Weight,
			Required: s.Required,
			Reached:  reached,
		})
		if reached && s.Weight >= result.Percentage {
			result.Percentage = s.Weight
			result.CurrentStageLabel = s.Label
		}
		if !nextFound && s.Required && !reached {
			result.NextRequiredLabel = s.Label
			nextFound = true
		}
	}
	return result
}

// ComputeCaseGroupProgress averages the member petitions' percentages.
// Each petition weighs equally regardless of type. Zero petitions
// yields 0 and the "No visa applications" description.
func ComputeCaseGroupProgress(petitions []PetitionProgress) CaseGroupProgress {
	result := CaseGroupProgress{Petitions: petitions}
	if len(petitions) == 0 {
		result.OverallStage = LabelNoPetitions
		return result
	}
	sum := 0
	for _, p := range petitions {
		sum += p.Percentage
	}
	result.OverallPercentage = sum / len(petitions)
	result.OverallStage = describeOverall(result.OverallPercentage)
	return result
}

// describeOverall maps an aggregate percentage onto the fixed bands.
func describeOverall(pct int) string {
	switch {
	case pct >= 100:
		return "Complete"
	case pct >= 80:
		return "Nearing Completion"
	case pct >= 50:
		return "In Progress"
	case pct >= 25:
		return "Early Stage"
	default:
		return "Getting Started"
	}
}

// Ledger is the milestone lookup surface the calculator needs.
type Ledger interface {
	ListCompletedMilestoneTypes(ctx context.Context, petitionID string) (map[types.MilestoneType]bool, error)
}

// PetitionStore is the petition lookup surface the calculator needs.
type PetitionStore interface {
	GetPetition(ctx context.Context, id string) (*types.Petition, error)
	ListPetitions(ctx context.Context, caseGroupID string) ([]*types.Petition, error)
}

// Calculator resolves petitions and milestones from storage and runs
// the pure computations over them.
type Calculator struct {
	reg    *pipeline.Registry
	store  PetitionStore
	ledger Ledger
}

// NewCalculator creates a calculator over the given registry and
// storage surfaces.
func NewCalculator(reg *pipeline.Registry, store PetitionStore, ledger Ledger) *Calculator {
	return &Calculator{reg: reg, store: store, ledger: ledger}
}

// PetitionProgress computes progress for one petition by id.
func (c *Calculator) PetitionProgress(ctx context.Context, petitionID string) (*PetitionProgress, error) {
	pet, err := c.store.GetPetition(ctx, petitionID)
	if err != nil {
		return nil, err
	}
	completed, err := c.ledger.ListCompletedMilestoneTypes(ctx, pet.ID)
	if err != nil {
		return nil, fmt.Errorf("milestones for petition %s: %w", pet.ID, err)
	}
	result := ComputePetitionProgress(c.reg, pet.Type, completed)
	result.PetitionID = pet.ID
	return &result, nil
}

// CaseGroupProgress computes the aggregate for all petitions of a case
// group.
func (c *Calculator) CaseGroupProgress(ctx context.Context, caseGroupID string) (*CaseGroupProgress, error) {
	pets, err := c.store.ListPetitions(ctx, caseGroupID)
	if err != nil {
		return nil, err
	}
	per := make([]PetitionProgress, 0, len(pets))
	for _, pet := range pets {
		completed, err := c.ledger.ListCompletedMilestoneTypes(ctx, pet.ID)
		if err != nil {
			return nil, fmt.Errorf("milestones for petition %s: %w", pet.ID, err)
		}
		pp := ComputePetitionProgress(c.reg, pet.Type, completed)
		pp.PetitionID = pet.ID
		per = append(per, pp)
	}
	result := ComputeCaseGroupProgress(per)
	result.CaseGroupID = caseGroupID
	return &result, nil
}
