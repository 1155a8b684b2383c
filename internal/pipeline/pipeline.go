// Package pipeline holds the per-petition-type milestone stage tables.
//
// A pipeline is configuration, not code: adding a case type is an
// additive data change, either a new table here or an entry in a YAML
// overlay file. The registry is read-only once built and safe for
// process-wide sharing without locking.
package pipeline

import (
	"fmt"

	"github.com/visaops/caseflow/internal/types"
)

// Stage is one step in a petition's expected progression. Weight is the
// percent complete once the stage is reached; reaching a later stage
// supersedes earlier weights, they never sum.
type Stage struct {
	Type     types.MilestoneType `yaml:"milestone_type"`
	Label    string              `yaml:"label"`
	Weight   int                 `yaml:"weight"`
	Required bool                `yaml:"required"`
	Terminal bool                `yaml:"terminal"`
}

// Pipeline is the ordered stage list for one petition type.
type Pipeline struct {
	Name   string
	Stages []Stage
}

// Registry maps petition types to pipelines. Lookup of an unmapped type
// returns the one shared default pipeline.
type Registry struct {
	pipelines map[types.PetitionType]*Pipeline
	fallback  *Pipeline
}

// NewRegistry builds a registry with the built-in stage tables.
func NewRegistry() *Registry {
	return &Registry{
		pipelines: map[types.PetitionType]*Pipeline{
			types.PetitionPERM: permPipeline,
			types.PetitionI140: i140Pipeline,
			types.PetitionI485: i485Pipeline,
			types.PetitionH1B:  h1bPipeline,
			types.PetitionO1:   o1Pipeline,
		},
		fallback: defaultPipeline,
	}
}

// Lookup returns the pipeline for the petition type. Matching is exact;
// any unmapped type gets the same default pipeline instance every time.
func (r *Registry) Lookup(petitionType types.PetitionType) *Pipeline {
	if p, ok := r.pipelines[petitionType]; ok {
		return p
	}
	return r.fallback
}

// Default returns the fallback pipeline shared by all unmapped types.
func (r *Registry) Default() *Pipeline {
	return r.fallback
}

// MaxWeight returns the weight of the pipeline's heaviest stage.
func (p *Pipeline) MaxWeight() int {
	max := 0
	for _, s := range p.Stages {
		if s.Weight > max {
			max = s.Weight
		}
	}
	return max
}

// validate rejects malformed stage tables before they enter a registry.
func (p *Pipeline) validate() error {
	if len(p.Stages) == 0 {
		return fmt.Errorf("pipeline %s has no stages", p.Name)
	}
	seen := make(map[types.MilestoneType]bool)
	for i, s := range p.Stages {
		if s.Type == "" {
			return fmt.Errorf("pipeline %s: stage %d has no milestone type", p.Name, i)
		}
		if s.Label == "" {
			return fmt.Errorf("pipeline %s: stage %s has no label", p.Name, s.Type)
		}
		if s.Weight < 0 || s.Weight > 100 {
			return fmt.Errorf("pipeline %s: stage %s weight %d out of range", p.Name, s.Type, s.Weight)
		}
		if seen[s.Type] {
			return fmt.Errorf("pipeline %s: duplicate stage %s", p.Name, s.Type)
		}
		seen[s.Type] = true
	}
	if p.MaxWeight() != 100 {
		return fmt.Errorf("pipeline %s: heaviest stage must weigh 100, got %d", p.Name, p.MaxWeight())
	}
	return nil
}

// ── Built-in stage tables ───────────────────────────────────────────────────

var defaultPipeline = &Pipeline{
	Name: "default",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 10, Required: true},
		{Type: types.MilestoneAttorneyEngaged, Label: "Attorney Engaged", Weight: 25, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "Documents Collected", Weight: 45, Required: true},
		{Type: types.MilestoneDrafted, Label: "Petition Drafted", Weight: 60, Required: true},
		{Type: types.MilestoneFiled, Label: "Petition Filed", Weight: 80, Required: true},
		{Type: types.MilestoneReceiptNotice, Label: "Receipt Notice Received", Weight: 85},
		{Type: types.MilestoneApproved, Label: "Petition Approved", Weight: 100, Required: true, Terminal: true},
	},
}

var permPipeline = &Pipeline{
	Name: "perm",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 5, Required: true},
		{Type: types.MilestoneAttorneyEngaged, Label: "Attorney Engaged", Weight: 15, Required: true},
		{Type: types.MilestoneRecruitment, Label: "Recruitment Completed", Weight: 40, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "Documents Collected", Weight: 55, Required: true},
		{Type: types.MilestoneDrafted, Label: "ETA-9089 Drafted", Weight: 65, Required: true},
		{Type: types.MilestoneFiled, Label: "ETA-9089 Filed", Weight: 85, Required: true},
		{Type: types.MilestoneApproved, Label: "Labor Certification Approved", Weight: 100, Required: true, Terminal: true},
	},
}

var i140Pipeline = &Pipeline{
	Name: "i140",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 10, Required: true},
		{Type: types.MilestoneAttorneyEngaged, Label: "Attorney Engaged", Weight: 20, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "Documents Collected", Weight: 40, Required: true},
		{Type: types.MilestoneDrafted, Label: "I-140 Drafted", Weight: 55, Required: true},
		{Type: types.MilestoneFiled, Label: "I-140 Filed", Weight: 75, Required: true},
		{Type: types.MilestoneReceiptNotice, Label: "Receipt Notice Received", Weight: 80},
		{Type: types.MilestoneRFEResponded, Label: "RFE Response Filed", Weight: 90},
		{Type: types.MilestoneApproved, Label: "I-140 Approved", Weight: 100, Required: true, Terminal: true},
	},
}

var i485Pipeline = &Pipeline{
	Name: "i485",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 10, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "Documents Collected", Weight: 35, Required: true},
		{Type: types.MilestoneFiled, Label: "I-485 Filed", Weight: 60, Required: true},
		{Type: types.MilestoneReceiptNotice, Label: "Receipt Notice Received", Weight: 65},
		{Type: types.MilestoneInterview, Label: "Interview Completed", Weight: 85, Required: true},
		{Type: types.MilestoneApproved, Label: "Green Card Approved", Weight: 100, Required: true, Terminal: true},
	},
}

var h1bPipeline = &Pipeline{
	Name: "h1b",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 10, Required: true},
		{Type: types.MilestoneAttorneyEngaged, Label: "Attorney Engaged", Weight: 25, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "LCA Certified & Documents Collected", Weight: 45, Required: true},
		{Type: types.MilestoneDrafted, Label: "I-129 Drafted", Weight: 60, Required: true},
		{Type: types.MilestoneFiled, Label: "I-129 Filed", Weight: 80, Required: true},
		{Type: types.MilestoneApproved, Label: "H-1B Approved", Weight: 100, Required: true, Terminal: true},
	},
}

var o1Pipeline = &Pipeline{
	Name: "o1",
	Stages: []Stage{
		{Type: types.MilestoneCaseOpened, Label: "Case Opened", Weight: 10, Required: true},
		{Type: types.MilestoneAttorneyEngaged, Label: "Attorney Engaged", Weight: 25, Required: true},
		{Type: types.MilestoneDocsCollected, Label: "Evidence Collected", Weight: 50, Required: true},
		{Type: types.MilestoneDrafted, Label: "I-129 Drafted", Weight: 65, Required: true},
		{Type: types.MilestoneFiled, Label: "I-129 Filed", Weight: 85, Required: true},
		{Type: types.MilestoneApproved, Label: "O-1 Approved", Weight: 100, Required: true, Terminal: true},
	},
}
