package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/config"
	"github.com/visaops/caseflow/internal/debug"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/telemetry"
)

var (
	dbName     string
	actor      string
	jsonOutput bool

	store storage.Storage

	// Signal-aware context for graceful cancellation
	rootCtx    context.Context
	rootCancel context.CancelFunc

	verboseFlag bool // Enable verbose/debug output
	quietFlag   bool // Suppress non-essential output
)

// noStoreCommands lists commands that run without opening a backing store.
var noStoreCommands = map[string]bool{
	"init":       true,
	"version":    true,
	"help":       true,
	"completion": true,
	"config":     true,
}

func isNoStoreCommand(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if noStoreCommands[c.Name()] {
			return true
		}
	}
	return false
}

// getActorWithGit returns the actor for audit trails with git config fallback.
// Priority: --actor flag > CASEFLOW_ACTOR env > config file > git config
// user.name > $USER > "unknown"
func getActorWithGit() string {
	if actor != "" {
		return actor
	}

	if envActor := os.Getenv("CASEFLOW_ACTOR"); envActor != "" {
		return envActor
	}

	if cfgActor := config.GetString(config.KeyActor); cfgActor != "" {
		return cfgActor
	}

	if out, err := exec.Command("git", "config", "user.name").Output(); err == nil {
		if gitUser := strings.TrimSpace(string(out)); gitUser != "" {
			return gitUser
		}
	}

	if user := os.Getenv("USER"); user != "" {
		return user
	}

	return "unknown"
}

func setupSignalContext() {
	rootCtx, rootCancel = signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// applyViperOverrides fills in flag values from config for flags the user
// did not set explicitly. Precedence: flag > env > config file > default.
func applyViperOverrides(cmd *cobra.Command) {
	if !cmd.Flags().Changed("json") && config.GetBool(config.KeyJSON) {
		jsonOutput = true
	}
	if !cmd.Flags().Changed("db") {
		if db := config.GetString(config.KeyDB); db != "" {
			dbName = db
		}
	}
}

func applyVerbosityFlags() {
	if verboseFlag {
		debug.SetVerbose(true)
	}
	if quietFlag {
		debug.SetQuiet(true)
	}
}

func init() {
	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize config: %v\n", err)
	}

	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "Database name (mysql backend) or snapshot path (memory backend)")
	rootCmd.PersistentFlags().StringVar(&actor, "actor", "", "Actor name for audit trail (default: $CASEFLOW_ACTOR, git user.name, $USER)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose/debug output")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress non-essential output (errors only)")

	rootCmd.Flags().BoolP("version", "V", false, "Print version information")

	rootCmd.AddGroup(&cobra.Group{ID: "cases", Title: "Working With Cases:"})
	rootCmd.AddGroup(&cobra.Group{ID: "views", Title: "Views & Reports:"})
	rootCmd.AddGroup(&cobra.Group{ID: "setup", Title: "Setup & Administration:"})
}

var rootCmd = &cobra.Command{
	Use:   "cf",
	Short: "cf - Immigration case workflow tracker",
	Long:  `Case groups, petitions, and milestones for employment-based immigration, with PM approval workflow and hierarchy-scoped access.`,
	Run: func(cmd *cobra.Command, args []string) {
		if v, _ := cmd.Flags().GetBool("version"); v {
			fmt.Printf("cf version %s (%s)\n", Version, Build)
			return
		}
		_ = cmd.Help() // Help() always returns nil for cobra commands
	},
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupSignalContext()
		applyVerbosityFlags()
		applyViperOverrides(cmd)

		if err := telemetry.Init(rootCtx, "cf", Version); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: telemetry init failed: %v\n", err)
		}

		if isNoStoreCommand(cmd) {
			return
		}

		actor = getActorWithGit()
		openStore(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			if err := store.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close store: %v\n", err)
			}
			store = nil
		}

		telemetry.Shutdown(context.Background())

		if rootCancel != nil {
			rootCancel()
		}
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
