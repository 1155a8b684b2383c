package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/types"
	"github.com/visaops/caseflow/internal/ui"
	"github.com/visaops/caseflow/internal/workflow"
)

var caseCmd = &cobra.Command{
	Use:     "case",
	GroupID: "cases",
	Short:   "Create and manage case groups",
}

var caseCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a case group for a beneficiary",
	Run: func(cmd *cobra.Command, args []string) {
		beneficiaryID, _ := cmd.Flags().GetString("beneficiary")
		pathway, _ := cmd.Flags().GetString("pathway")
		if beneficiaryID == "" {
			FatalError("beneficiary required (use --beneficiary)")
		}

		resolver := scope.NewResolver(store)
		target := scope.Target{Kind: scope.TargetCaseGroup, BeneficiaryID: beneficiaryID}
		if err := resolver.Authorize(rootCtx, actor, scope.ActionCreate, target); err != nil {
			FatalWorkflowError(err)
		}

		group := &types.CaseGroup{
			BeneficiaryID:  beneficiaryID,
			Pathway:        types.PathwayType(pathway),
			Status:         types.CasePlanning,
			ApprovalStatus: types.ApprovalDraft,
			CreatedBy:      actor,
		}
		if err := store.CreateCaseGroup(rootCtx, group); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(group)
			return
		}
		fmt.Printf("Created case group %s (%s) for beneficiary %s\n", group.ID, group.Pathway, beneficiaryID)
	},
}

var caseShowCmd = &cobra.Command{
	Use:   "show <case-group-id>",
	Short: "Show a case group with its petitions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		group, err := store.GetCaseGroup(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}
		petitions, err := store.ListPetitions(rootCtx, group.ID)
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(map[string]interface{}{"case_group": group, "petitions": petitions})
			return
		}

		fmt.Printf("%s  %s\n", ui.RenderAccent(group.ID), renderApprovalStatus(group.ApprovalStatus))
		fmt.Printf("  Beneficiary: %s\n", group.BeneficiaryID)
		fmt.Printf("  Pathway:     %s\n", group.Pathway)
		fmt.Printf("  Created by:  %s\n", group.CreatedBy)
		if group.ResponsibleID != "" {
			fmt.Printf("  HR assignee: %s\n", group.ResponsibleID)
		}
		if group.LawFirmID != "" {
			fmt.Printf("  Law firm:    %s\n", group.LawFirmID)
		}
		if group.ApproverID != "" && group.DecidedAt != nil {
			fmt.Printf("  Decided by:  %s at %s\n", group.ApproverID, group.DecidedAt.Format("2006-01-02 15:04"))
		}
		if group.RejectionReason != "" {
			fmt.Printf("  Reason:      %s\n", group.RejectionReason)
		}
		if len(petitions) > 0 {
			fmt.Println()
			fmt.Println(ui.RenderCategory("petitions"))
			for _, p := range petitions {
				fmt.Printf("  %s%s  %s (%s)\n", ui.TreeChild, p.ID, p.Type, p.Status)
			}
		}
	},
}

var caseSubmitCmd = &cobra.Command{
	Use:   "submit <case-group-id>",
	Short: "Submit a draft case group for PM approval",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		notes, _ := cmd.Flags().GetString("notes")

		engine := workflow.NewEngine(store, store)
		group, err := engine.SubmitForApproval(rootCtx, args[0], actor, notes)
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(group)
			return
		}
		fmt.Printf("%s Case group %s submitted for PM approval\n", ui.RenderPassIcon(), group.ID)
	},
}

var caseApproveCmd = &cobra.Command{
	Use:   "approve <case-group-id>",
	Short: "Approve a pending case group (PM or admin)",
	Long: `Approves a case group pending PM approval. Assigns the HR owner and
law firm, creates the kickoff todos, and notifies the HR assignee and
the case creator. Exactly one of two racing decisions wins.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		hrAssignee, _ := cmd.Flags().GetString("hr")
		lawFirm, _ := cmd.Flags().GetString("law-firm")
		notes, _ := cmd.Flags().GetString("notes")
		if hrAssignee == "" {
			FatalError("HR assignee required (use --hr)")
		}
		if lawFirm == "" {
			FatalError("law firm required (use --law-firm)")
		}

		engine := workflow.NewEngine(store, store)
		group, err := engine.Approve(rootCtx, args[0], actor, hrAssignee, lawFirm, notes)
		if err != nil {
			FatalWorkflowError(err)
		}

		dispatchTransitionNotifications(group.ID)

		if jsonOutput {
			outputJSON(group)
			return
		}
		fmt.Printf("%s Case group %s approved (HR: %s, firm: %s)\n", ui.RenderPassIcon(), group.ID, hrAssignee, lawFirm)
	},
}

var caseRejectCmd = &cobra.Command{
	Use:   "reject <case-group-id>",
	Short: "Reject a pending case group (PM or admin)",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		reason, _ := cmd.Flags().GetString("reason")
		if strings.TrimSpace(reason) == "" {
			FatalError("rejection reason required (use --reason)")
		}

		engine := workflow.NewEngine(store, store)
		group, err := engine.Reject(rootCtx, args[0], actor, reason)
		if err != nil {
			FatalWorkflowError(err)
		}

		dispatchTransitionNotifications(group.ID)

		if jsonOutput {
			outputJSON(group)
			return
		}
		fmt.Printf("%s Case group %s rejected: %s\n", ui.RenderFailIcon(), group.ID, reason)
	},
}

func renderApprovalStatus(s types.ApprovalStatus) string {
	switch s {
	case types.ApprovalApproved:
		return ui.RenderPass(string(s))
	case types.ApprovalRejected:
		return ui.RenderFail(string(s))
	case types.ApprovalPending:
		return ui.RenderWarn(string(s))
	default:
		return ui.RenderMuted(string(s))
	}
}

func init() {
	caseCreateCmd.Flags().String("beneficiary", "", "Beneficiary ID the case is for")
	caseCreateCmd.Flags().String("pathway", string(types.PathwayEB2), "Immigration pathway (eb1, eb2, eb3, eb2_niw, nonimmigrant)")

	caseSubmitCmd.Flags().String("notes", "", "Submission notes for the reviewing PM")

	caseApproveCmd.Flags().String("hr", "", "HR identity to own the approved case")
	caseApproveCmd.Flags().String("law-firm", "", "Law firm engaged for the case")
	caseApproveCmd.Flags().String("notes", "", "Approval notes")

	caseRejectCmd.Flags().String("reason", "", "Why the case group is rejected")

	caseCmd.AddCommand(caseCreateCmd, caseShowCmd, caseSubmitCmd, caseApproveCmd, caseRejectCmd)
	rootCmd.AddCommand(caseCmd)
}
