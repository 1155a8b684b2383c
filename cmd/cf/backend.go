package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/visaops/caseflow/internal/config"
	"github.com/visaops/caseflow/internal/debug"
	"github.com/visaops/caseflow/internal/storage/memory"
	"github.com/visaops/caseflow/internal/storage/mysql"
	"github.com/visaops/caseflow/internal/telemetry"
)

// snapshotFile is the default memory-backend snapshot under .caseflow/.
const snapshotFile = "cases.json"

// openStore opens the configured backend and assigns the package-level
// store. The memory backend persists a JSON snapshot under .caseflow/;
// the mysql backend connects to the configured server.
func openStore(cmd *cobra.Command) {
	backend := config.GetString(config.KeyBackend)
	debug.Logf("opening %s backend", backend)

	switch backend {
	case "", "memory":
		path := dbName
		if path == "" {
			dir, err := config.FindProjectDir()
			if err != nil {
				FatalErrorWithHint(err.Error(), "Run 'cf init' to create a project, or set --db to a snapshot path")
			}
			path = filepath.Join(dir, ".caseflow", snapshotFile)
		}
		s, err := memory.Open(path)
		if err != nil {
			FatalError("failed to open snapshot %s: %v", path, err)
		}
		store = telemetry.WrapStorage(s)

	case "mysql":
		cfg := &mysql.Config{
			Host:     config.GetString(config.KeyMySQLHost),
			Port:     config.GetInt(config.KeyMySQLPort),
			User:     config.GetString(config.KeyMySQLUser),
			Password: config.GetString(config.KeyMySQLPassword),
			Database: config.GetString(config.KeyMySQLDatabase),
			TLS:      config.GetString(config.KeyMySQLTLS),
		}
		if dbName != "" {
			cfg.Database = dbName
		}
		s, err := mysql.Open(rootCtx, cfg)
		if err != nil {
			FatalError("failed to connect to mysql at %s:%d: %v", cfg.Host, cfg.Port, err)
		}
		store = telemetry.WrapStorage(s)

	default:
		FatalErrorWithHint("unknown backend: "+backend, "Set backend to 'memory' or 'mysql' in .caseflow/config.yaml")
	}
}
