package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/types"
	"github.com/visaops/caseflow/internal/ui"
)

var milestoneCmd = &cobra.Command{
	Use:     "milestone",
	GroupID: "cases",
	Short:   "Record completed pipeline stages",
}

var milestoneAddCmd = &cobra.Command{
	Use:   "add <milestone-type>",
	Short: "Record a completed milestone on a petition or case group",
	Long: `Records a completed stage. Exactly one of --petition or --case-group
must be given; recording the same type again is a no-op for progress.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		petitionID, _ := cmd.Flags().GetString("petition")
		caseGroupID, _ := cmd.Flags().GetString("case-group")
		when, _ := cmd.Flags().GetString("completed-at")

		completedAt := time.Now()
		if when != "" {
			t, err := time.Parse("2006-01-02", when)
			if err != nil {
				FatalError("invalid --completed-at %q (expected YYYY-MM-DD)", when)
			}
			completedAt = t
		}

		m := &types.Milestone{
			PetitionID:  petitionID,
			CaseGroupID: caseGroupID,
			Type:        types.MilestoneType(args[0]),
			CompletedAt: completedAt,
			CreatedBy:   actor,
		}
		if err := store.AddMilestone(rootCtx, m); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(m)
			return
		}
		fmt.Printf("%s Recorded %s\n", ui.RenderPassIcon(), m.Type)
	},
}

var milestoneListCmd = &cobra.Command{
	Use:   "list <case-group-id>",
	Short: "List completed milestone types for a case group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		completed, err := store.ListCaseGroupMilestoneTypes(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(completed)
			return
		}
		if len(completed) == 0 {
			fmt.Println("No milestones recorded")
			return
		}
		names := make([]string, 0, len(completed))
		for mt := range completed {
			names = append(names, string(mt))
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("%s %s\n", ui.RenderPassIcon(), name)
		}
	},
}

func init() {
	milestoneAddCmd.Flags().String("petition", "", "Petition the milestone belongs to")
	milestoneAddCmd.Flags().String("case-group", "", "Case group the milestone belongs to (group-level stages)")
	milestoneAddCmd.Flags().String("completed-at", "", "Completion date (YYYY-MM-DD, default today)")

	milestoneCmd.AddCommand(milestoneAddCmd, milestoneListCmd)
	rootCmd.AddCommand(milestoneCmd)
}
