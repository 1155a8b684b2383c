package progress_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaops/caseflow/internal/pipeline"
	"github.com/visaops/caseflow/internal/progress"
	"github.com/visaops/caseflow/internal/storage/memory"
	"github.com/visaops/caseflow/internal/types"
)

func milestoneSet(ms ...types.MilestoneType) map[types.MilestoneType]bool {
	set := make(map[types.MilestoneType]bool, len(ms))
	for _, m := range ms {
		set[m] = true
	}
	return set
}

func TestComputePetitionProgress(t *testing.T) {
	reg := pipeline.NewRegistry()

	t.Run("empty set is not started", func(t *testing.T) {
		got := progress.ComputePetitionProgress(reg, types.PetitionI140, nil)
		assert.Equal(t, 0, got.Percentage)
		assert.Equal(t, progress.LabelNotStarted, got.CurrentStageLabel)
		assert.Equal(t, "Case Opened", got.NextRequiredLabel)
		assert.Len(t, got.Stages, len(reg.Lookup(types.PetitionI140).Stages))
	})

	t.Run("all required stages reach the maximum weight", func(t *testing.T) {
		got := progress.ComputePetitionProgress(reg, types.PetitionI140, milestoneSet(
			types.MilestoneCaseOpened,
			types.MilestoneAttorneyEngaged,
			types.MilestoneDocsCollected,
			types.MilestoneDrafted,
			types.MilestoneFiled,
			types.MilestoneApproved,
		))
		assert.Equal(t, 100, got.Percentage)
		assert.Equal(t, "I-140 Approved", got.CurrentStageLabel)
		assert.Empty(t, got.NextRequiredLabel)
	})

	t.Run("later stages supersede earlier weights", func(t *testing.T) {
		// Skipping straight to filed reports the filed weight, not a sum.
		got := progress.ComputePetitionProgress(reg, types.PetitionI140, milestoneSet(
			types.MilestoneCaseOpened,
			types.MilestoneFiled,
		))
		assert.Equal(t, 75, got.Percentage)
		assert.Equal(t, "I-140 Filed", got.CurrentStageLabel)
	})

	t.Run("next required skips non-required stages", func(t *testing.T) {
		// Everything through filed is done. The receipt notice and RFE
		// stages are unreached but optional, so the next actionable step
		// is the approval.
		got := progress.ComputePetitionProgress(reg, types.PetitionI140, milestoneSet(
			types.MilestoneCaseOpened,
			types.MilestoneAttorneyEngaged,
			types.MilestoneDocsCollected,
			types.MilestoneDrafted,
			types.MilestoneFiled,
		))
		assert.Equal(t, "I-140 Approved", got.NextRequiredLabel)
	})

	t.Run("unmapped type walks the default pipeline", func(t *testing.T) {
		got := progress.ComputePetitionProgress(reg, types.PetitionL1, milestoneSet(
			types.MilestoneCaseOpened,
		))
		assert.Equal(t, 10, got.Percentage)
		assert.Equal(t, "Case Opened", got.CurrentStageLabel)
		assert.Equal(t, "Attorney Engaged", got.NextRequiredLabel)
	})
}

func TestComputeCaseGroupProgress(t *testing.T) {
	pp := func(pct int) progress.PetitionProgress {
		return progress.PetitionProgress{Percentage: pct}
	}

	t.Run("floor of mean", func(t *testing.T) {
		got := progress.ComputeCaseGroupProgress([]progress.PetitionProgress{pp(100), pp(50), pp(0)})
		assert.Equal(t, 50, got.OverallPercentage)
		assert.Equal(t, "In Progress", got.OverallStage)

		got = progress.ComputeCaseGroupProgress([]progress.PetitionProgress{pp(100), pp(99)})
		assert.Equal(t, 99, got.OverallPercentage, "mean 99.5 floors to 99")
	})

	t.Run("zero petitions", func(t *testing.T) {
		got := progress.ComputeCaseGroupProgress(nil)
		assert.Equal(t, 0, got.OverallPercentage)
		assert.Equal(t, progress.LabelNoPetitions, got.OverallStage)
	})

	t.Run("banding", func(t *testing.T) {
		tests := []struct {
			pct  int
			want string
		}{
			{100, "Complete"},
			{99, "Nearing Completion"},
			{80, "Nearing Completion"},
			{79, "In Progress"},
			{50, "In Progress"},
			{49, "Early Stage"},
			{25, "Early Stage"},
			{24, "Getting Started"},
			{0, "Getting Started"},
		}
		for _, tt := range tests {
			got := progress.ComputeCaseGroupProgress([]progress.PetitionProgress{pp(tt.pct)})
			assert.Equal(t, tt.want, got.OverallStage, "pct %d", tt.pct)
		}
	})
}

func TestCalculator(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	reg := pipeline.NewRegistry()

	require.NoError(t, store.CreateCaseGroup(ctx, &types.CaseGroup{
		ID:             "cg-1",
		BeneficiaryID:  "ben-1",
		Pathway:        types.PathwayEB2,
		Status:         types.CaseActive,
		ApprovalStatus: types.ApprovalApproved,
		CreatedBy:      "mgr-1",
		ResponsibleID:  "hr-1",
		LawFirmID:      "firm-1",
		ApproverID:     "pm-1",
	}))
	require.NoError(t, store.CreatePetition(ctx, &types.Petition{
		ID: "pet-perm", CaseGroupID: "cg-1", Type: types.PetitionPERM, Status: types.PetitionInProcess,
	}))
	require.NoError(t, store.CreatePetition(ctx, &types.Petition{
		ID: "pet-i140", CaseGroupID: "cg-1", Type: types.PetitionI140, Status: types.PetitionInProcess,
	}))

	// PERM has reached recruitment (40); I-140 is untouched (0).
	for _, mt := range []types.MilestoneType{
		types.MilestoneCaseOpened,
		types.MilestoneAttorneyEngaged,
		types.MilestoneRecruitment,
	} {
		require.NoError(t, store.AddMilestone(ctx, &types.Milestone{
			PetitionID: "pet-perm", Type: mt, CompletedAt: time.Now(), CreatedBy: "hr-1",
		}))
	}

	calc := progress.NewCalculator(reg, store, store)

	pp, err := calc.PetitionProgress(ctx, "pet-perm")
	require.NoError(t, err)
	assert.Equal(t, 40, pp.Percentage)
	assert.Equal(t, "Recruitment Completed", pp.CurrentStageLabel)
	assert.Equal(t, "Documents Collected", pp.NextRequiredLabel)

	_, err = calc.PetitionProgress(ctx, "pet-missing")
	assert.Error(t, err)

	gp, err := calc.CaseGroupProgress(ctx, "cg-1")
	require.NoError(t, err)
	require.Len(t, gp.Petitions, 2)
	assert.Equal(t, 20, gp.OverallPercentage, "floor of mean of 40 and 0")
	assert.Equal(t, "Getting Started", gp.OverallStage)

	// A case group with no petitions gets the fixed empty label.
	require.NoError(t, store.CreateCaseGroup(ctx, &types.CaseGroup{
		ID: "cg-empty", BeneficiaryID: "ben-1", Pathway: types.PathwayEB2,
		Status: types.CasePlanning, ApprovalStatus: types.ApprovalDraft, CreatedBy: "mgr-1",
	}))
	gp, err = calc.CaseGroupProgress(ctx, "cg-empty")
	require.NoError(t, err)
	assert.Equal(t, 0, gp.OverallPercentage)
	assert.Equal(t, progress.LabelNoPetitions, gp.OverallStage)
}
