package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/types"
)

var petitionCmd = &cobra.Command{
	Use:     "petition",
	GroupID: "cases",
	Short:   "Create and list petitions within a case group",
}

var petitionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a petition in a case group",
	Run: func(cmd *cobra.Command, args []string) {
		caseGroupID, _ := cmd.Flags().GetString("case-group")
		petType, _ := cmd.Flags().GetString("type")
		if caseGroupID == "" {
			FatalError("case group required (use --case-group)")
		}
		if !types.PetitionType(petType).IsValid() {
			FatalError("unknown petition type: %s", petType)
		}

		group, err := store.GetCaseGroup(rootCtx, caseGroupID)
		if err != nil {
			FatalWorkflowError(err)
		}

		resolver := scope.NewResolver(store)
		target := scope.Target{Kind: scope.TargetPetition, BeneficiaryID: group.BeneficiaryID}
		if err := resolver.Authorize(rootCtx, actor, scope.ActionCreate, target); err != nil {
			FatalWorkflowError(err)
		}

		caseStatus, _ := cmd.Flags().GetString("case-status")
		petition := &types.Petition{
			CaseGroupID: caseGroupID,
			Type:        types.PetitionType(petType),
			Status:      types.PetitionNotStarted,
			CaseStatus:  types.CaseStatus(caseStatus),
		}
		if err := store.CreatePetition(rootCtx, petition); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(petition)
			return
		}
		fmt.Printf("Created petition %s (%s) in case group %s\n", petition.ID, petition.Type, caseGroupID)
	},
}

var petitionListCmd = &cobra.Command{
	Use:   "list <case-group-id>",
	Short: "List a case group's petitions",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		petitions, err := store.ListPetitions(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(petitions)
			return
		}
		if len(petitions) == 0 {
			fmt.Println("No petitions")
			return
		}
		for _, p := range petitions {
			fmt.Printf("%s  %-10s %-14s %s\n", p.ID, p.Type, p.Status, p.CaseStatus)
		}
	},
}

func init() {
	petitionCreateCmd.Flags().String("case-group", "", "Case group the petition belongs to")
	petitionCreateCmd.Flags().String("type", "", "Petition type (perm, i140, i485, h1b, l1, o1)")
	petitionCreateCmd.Flags().String("case-status", string(types.CasePlanning), "Case lifecycle status (planning, active, pending, approved, denied, withdrawn, on_hold)")

	petitionCmd.AddCommand(petitionCreateCmd, petitionListCmd)
	rootCmd.AddCommand(petitionCmd)
}
