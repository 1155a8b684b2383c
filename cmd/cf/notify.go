package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/config"
	"github.com/visaops/caseflow/internal/debug"
	"github.com/visaops/caseflow/internal/notification"
	"github.com/visaops/caseflow/internal/types"
	"github.com/visaops/caseflow/internal/ui"
)

// dispatchTransitionNotifications delivers the not-yet-read notifications a
// transition just produced for the case group's parties. Delivery is
// best-effort: failures are logged and never fail the command.
func dispatchTransitionNotifications(caseGroupID string) {
	projectDir, err := config.FindProjectDir()
	if err != nil {
		debug.Logf("skipping notification dispatch: %v", err)
		return
	}
	dispatcher := notification.NewDispatcher(filepath.Join(projectDir, ".caseflow"))
	routeKey := config.GetString(config.KeyNotifyRoute)

	group, err := store.GetCaseGroup(rootCtx, caseGroupID)
	if err != nil {
		debug.Logf("skipping notification dispatch: %v", err)
		return
	}

	recipients := []string{group.CreatedBy}
	if group.ResponsibleID != "" {
		recipients = append(recipients, group.ResponsibleID)
	}

	link := "/case-groups/" + group.ID
	var pending []*types.Notification
	for _, r := range recipients {
		notifs, err := store.ListNotifications(rootCtx, r)
		if err != nil {
			debug.Logf("list notifications for %s: %v", r, err)
			continue
		}
		for _, n := range notifs {
			if n.Link == link && !n.Read {
				pending = append(pending, n)
			}
		}
	}

	for _, result := range dispatcher.DispatchAll(pending, routeKey) {
		if !result.Success {
			WarnError("notification delivery via %s failed: %s", result.Channel, result.Error)
		}
	}
}

var notifyCmd = &cobra.Command{
	Use:     "notify",
	GroupID: "views",
	Short:   "View persisted notifications",
}

var notifyListCmd = &cobra.Command{
	Use:   "list <recipient-id>",
	Short: "List notifications for a recipient",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		notifs, err := store.ListNotifications(rootCtx, args[0])
		if err != nil {
			FatalWorkflowError(err)
		}

		if jsonOutput {
			outputJSON(notifs)
			return
		}
		if len(notifs) == 0 {
			fmt.Println("No notifications")
			return
		}
		for _, n := range notifs {
			marker := ui.RenderAccent("●")
			if n.Read {
				marker = ui.RenderMuted("○")
			}
			fmt.Printf("%s %s  %s\n", marker, n.CreatedAt.Format("2006-01-02 15:04"), n.Message)
			if n.Link != "" {
				fmt.Printf("  %s%s\n", ui.TreeLast, ui.RenderMuted(n.Link))
			}
		}
	},
}

func init() {
	notifyCmd.AddCommand(notifyListCmd)
	rootCmd.AddCommand(notifyCmd)
}
