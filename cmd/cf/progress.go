package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/config"
	"github.com/visaops/caseflow/internal/pipeline"
	"github.com/visaops/caseflow/internal/progress"
	"github.com/visaops/caseflow/internal/ui"
)

var progressCmd = &cobra.Command{
	Use:     "progress <case-group-id>",
	GroupID: "views",
	Short:   "Show milestone progress for a case group",
	Long: `Computes per-petition and aggregate progress from completed
milestones. Each petition's percentage is the weight of its furthest
stage; the case group aggregates the member petitions equally.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		petitionID, _ := cmd.Flags().GetString("petition")

		calc := progress.NewCalculator(loadStageRegistry(), store, store)

		if petitionID != "" {
			p, err := calc.PetitionProgress(rootCtx, petitionID)
			if err != nil {
				FatalWorkflowError(err)
			}
			if jsonOutput {
				outputJSON(p)
				return
			}
			printPetitionProgress(p, "")
			return
		}

		cp, err := calc.CaseGroupProgress(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(cp)
			return
		}

		fmt.Printf("%s  %s\n", ui.RenderBar(cp.OverallPercentage, ui.DefaultBarWidth), cp.OverallStage)
		for i := range cp.Petitions {
			fmt.Println()
			printPetitionProgress(&cp.Petitions[i], ui.TreeIndent)
		}
	},
}

func printPetitionProgress(p *progress.PetitionProgress, indent string) {
	id := p.PetitionID
	if id == "" {
		id = string(p.PetitionType)
	}
	fmt.Printf("%s%s (%s)\n", indent, ui.RenderAccent(id), p.PetitionType)
	fmt.Printf("%s%s  %s\n", indent, ui.RenderBar(p.Percentage, ui.DefaultBarWidth), p.CurrentStageLabel)
	if p.NextRequiredLabel != "" {
		fmt.Printf("%s%sNext: %s\n", indent, ui.TreeLast, p.NextRequiredLabel)
	}
}

// loadStageRegistry builds the stage tables, applying the optional YAML
// overlay configured under the pipelines key.
func loadStageRegistry() *pipeline.Registry {
	reg := pipeline.NewRegistry()
	if overlay := config.GetString(config.KeyPipelines); overlay != "" {
		if err := reg.LoadOverlay(overlay); err != nil {
			WarnError("failed to load pipeline overlay %s: %v", overlay, err)
		}
	}
	return reg
}

func init() {
	progressCmd.Flags().String("petition", "", "Show progress for a single petition instead")
	rootCmd.AddCommand(progressCmd)
}
