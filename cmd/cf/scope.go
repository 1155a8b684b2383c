package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/ui"
)

var scopeCmd = &cobra.Command{
	Use:     "scope [identity-id]",
	GroupID: "views",
	Short:   "Show the users and beneficiaries an identity can access",
	Long: `Resolves the caller's access scope: admins and PMs see everything,
HR sees their contract, managers see their reporting chain plus owned
beneficiaries, beneficiaries see themselves. Defaults to the current actor.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		callerID := actor
		if len(args) > 0 {
			callerID = args[0]
		}

		resolver := scope.NewResolver(store)
		users, err := resolver.ResolveAccessibleUserIDs(rootCtx, callerID)
		if err != nil {
			FatalWorkflowError(err)
		}
		bens, err := resolver.ResolveAccessibleBeneficiaryIDs(rootCtx, callerID)
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			out := map[string]interface{}{
				"identity":  callerID,
				"universal": users.Universal(),
			}
			if !users.Universal() {
				out["user_ids"] = sortedIDs(users)
				out["beneficiary_ids"] = sortedIDs(bens)
			}
			outputJSON(out)
			return
		}

		if users.Universal() {
			fmt.Printf("%s has %s access\n", ui.RenderAccent(callerID), ui.RenderPass("universal"))
			return
		}

		fmt.Println(ui.RenderCategory("users"))
		for _, id := range sortedIDs(users) {
			fmt.Printf("  %s\n", id)
		}
		fmt.Println(ui.RenderCategory("beneficiaries"))
		for _, id := range sortedIDs(bens) {
			fmt.Printf("  %s\n", id)
		}
	},
}

func sortedIDs(s scope.Scope) []string {
	ids := s.IDs()
	sort.Strings(ids)
	return ids
}

func init() {
	rootCmd.AddCommand(scopeCmd)
}
