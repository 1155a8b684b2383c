package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/types"
)

var adminCmd = &cobra.Command{
	Use:     "admin",
	GroupID: "setup",
	Short:   "Seed and maintain the directory (identities, beneficiaries, law firms)",
}

var adminIdentityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Manage identities",
}

var adminIdentityAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add or update an identity",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		role, _ := cmd.Flags().GetString("role")
		contract, _ := cmd.Flags().GetString("contract")
		reportsTo, _ := cmd.Flags().GetString("reports-to")
		inactive, _ := cmd.Flags().GetBool("inactive")

		identity := &types.Identity{
			ID:         args[0],
			Name:       name,
			Email:      email,
			Role:       types.Role(role),
			ContractID: contract,
			ReportsTo:  reportsTo,
			Active:     !inactive,
		}
		if err := identity.Validate(); err != nil {
			FatalError("%v", err)
		}
		if err := store.PutIdentity(rootCtx, identity); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(identity)
			return
		}
		fmt.Printf("Stored identity %s (%s)\n", identity.ID, identity.Role)
	},
}

var adminBeneficiaryCmd = &cobra.Command{
	Use:   "beneficiary",
	Short: "Manage beneficiaries",
}

var adminBeneficiaryAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add or update a beneficiary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		owner, _ := cmd.Flags().GetString("owner")
		contract, _ := cmd.Flags().GetString("contract")

		ben := &types.Beneficiary{
			ID:              args[0],
			Name:            name,
			OwnerIdentityID: owner,
			ContractID:      contract,
		}
		if err := store.PutBeneficiary(rootCtx, ben); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(ben)
			return
		}
		fmt.Printf("Stored beneficiary %s\n", ben.ID)
	},
}

var adminFirmCmd = &cobra.Command{
	Use:   "firm",
	Short: "Manage law firms",
}

var adminFirmAddCmd = &cobra.Command{
	Use:   "add <id>",
	Short: "Add or update a law firm",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("name")
		inactive, _ := cmd.Flags().GetBool("inactive")

		firm := &types.LawFirm{
			ID:     args[0],
			Name:   name,
			Active: !inactive,
		}
		if err := store.PutLawFirm(rootCtx, firm); err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(firm)
			return
		}
		fmt.Printf("Stored law firm %s\n", firm.ID)
	},
}

func init() {
	adminIdentityAddCmd.Flags().String("name", "", "Display name")
	adminIdentityAddCmd.Flags().String("email", "", "Email address")
	adminIdentityAddCmd.Flags().String("role", "", "Role (admin, hr, pm, manager, beneficiary)")
	adminIdentityAddCmd.Flags().String("contract", "", "Contract affiliation")
	adminIdentityAddCmd.Flags().String("reports-to", "", "Manager identity ID")
	adminIdentityAddCmd.Flags().Bool("inactive", false, "Mark the identity inactive")

	adminBeneficiaryAddCmd.Flags().String("name", "", "Display name")
	adminBeneficiaryAddCmd.Flags().String("owner", "", "Owning identity ID")
	adminBeneficiaryAddCmd.Flags().String("contract", "", "Contract affiliation")

	adminFirmAddCmd.Flags().String("name", "", "Firm name")
	adminFirmAddCmd.Flags().Bool("inactive", false, "Mark the firm inactive")

	adminIdentityCmd.AddCommand(adminIdentityAddCmd)
	adminBeneficiaryCmd.AddCommand(adminBeneficiaryAddCmd)
	adminFirmCmd.AddCommand(adminFirmAddCmd)
	adminCmd.AddCommand(adminIdentityCmd, adminBeneficiaryCmd, adminFirmCmd)
	rootCmd.AddCommand(adminCmd)
}
