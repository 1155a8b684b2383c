package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/ui"
)

var todoCmd = &cobra.Command{
	Use:     "todo",
	GroupID: "views",
	Short:   "View todos created by workflow transitions",
}

var todoListCmd = &cobra.Command{
	Use:   "list <case-group-id>",
	Short: "List todos for a case group",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		todos, err := store.ListTodos(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(todos)
			return
		}
		if len(todos) == 0 {
			fmt.Println("No todos")
			return
		}
		for _, t := range todos {
			icon := ui.RenderSkipIcon()
			if t.Done {
				icon = ui.RenderPassIcon()
			}
			fmt.Printf("%s %s (assignee: %s, due %s)\n", icon, t.Title, t.AssigneeID, t.DueDate.Format("2006-01-02"))
		}
	},
}

var auditCmd = &cobra.Command{
	Use:     "audit <entity-id>",
	GroupID: "views",
	Short:   "Show the audit trail for an entity",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		entries, err := store.ListAuditEntries(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(entries)
			return
		}
		if len(entries) == 0 {
			fmt.Println("No audit entries")
			return
		}
		for _, e := range entries {
			fmt.Printf("%s  %s by %s\n", e.CreatedAt.Format("2006-01-02 15:04"), ui.RenderAccent(e.Action), e.Actor)
			if e.OldValue != "" {
				fmt.Printf("  %sold: %s\n", ui.TreeChild, ui.RenderMuted(e.OldValue))
			}
			if e.NewValue != "" {
				fmt.Printf("  %snew: %s\n", ui.TreeLast, ui.RenderMuted(e.NewValue))
			}
		}
	},
}

func init() {
	todoCmd.AddCommand(todoListCmd)
	rootCmd.AddCommand(todoCmd, auditCmd)
}
