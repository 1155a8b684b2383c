package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:     "init",
	GroupID: "setup",
	Short:   "Initialize a caseflow project in the current directory",
	Long: `Creates the .caseflow directory with a config.yaml template.

The memory backend stores its snapshot at .caseflow/cases.json.
For the mysql backend, set backend: mysql and the mysql.* keys in config.yaml.`,
	Run: func(cmd *cobra.Command, args []string) {
		backend, _ := cmd.Flags().GetString("backend")
		if backend != "memory" && backend != "mysql" {
			FatalError("unknown backend: %s (expected memory or mysql)", backend)
		}

		cfDir := ".caseflow"
		if err := os.MkdirAll(cfDir, 0755); err != nil {
			FatalError("failed to create %s: %v", cfDir, err)
		}

		if err := createConfigYaml(cfDir, backend); err != nil {
			FatalError("%v", err)
		}
		if err := createGitignore(cfDir); err != nil {
			WarnError("failed to create .gitignore: %v", err)
		}

		if jsonOutput {
			outputJSON(map[string]string{"status": "initialized", "dir": cfDir, "backend": backend})
			return
		}
		fmt.Printf("Initialized caseflow project in %s/ (backend: %s)\n", cfDir, backend)
		fmt.Println("Next: seed the directory with 'cf admin identity add' and create a case with 'cf case create'")
	},
}

// createConfigYaml creates the config.yaml template in the given directory.
func createConfigYaml(cfDir, backend string) error {
	configYamlPath := filepath.Join(cfDir, "config.yaml")

	// Skip if already exists
	if _, err := os.Stat(configYamlPath); err == nil {
		return nil
	}

	configYamlTemplate := fmt.Sprintf(`# Caseflow Configuration File
# This file configures default behavior for all cf commands in this project.
# All settings can also be set via environment variables (CASEFLOW_* prefix)
# or overridden with command-line flags.

# Storage backend: memory (JSON snapshot) or mysql
backend: %s

# Snapshot path for the memory backend (overridden by CASEFLOW_DB or --db)
# db: ""

# Default actor for audit trails (overridden by CASEFLOW_ACTOR or --actor)
# actor: ""

# Enable JSON output by default
# json: false

# MySQL connection (mysql backend only)
# mysql.host: 127.0.0.1
# mysql.port: 3306
# mysql.user: root
# mysql.password: ""
# mysql.database: caseflow
# mysql.tls: ""

# Stage-table overlay: a YAML file adjusting milestone weights per petition type
# pipelines: ""

# Notification route key (see .caseflow/settings/notify.json)
# notify.route: default
`, backend)

	if err := os.WriteFile(configYamlPath, []byte(configYamlTemplate), 0600); err != nil {
		return fmt.Errorf("failed to write config.yaml: %w", err)
	}
	return nil
}

// createGitignore keeps local runtime state out of version control.
func createGitignore(cfDir string) error {
	path := filepath.Join(cfDir, ".gitignore")
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	content := snapshotFile + "\nevents.log\n"
	return os.WriteFile(path, []byte(content), 0600)
}

func init() {
	initCmd.Flags().String("backend", "memory", "Storage backend (memory or mysql)")
	rootCmd.AddCommand(initCmd)
}
