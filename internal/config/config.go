// Package config manages caseflow configuration.
//
// Configuration comes from three layers, in priority order: command
// flags, CASEFLOW_* environment variables, and .caseflow/config.yaml in
// the project directory (found by walking up from the working
// directory). Initialize wires the bottom two layers into a process
// viper instance; flag merging happens in the CLI's prerun.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// v is the process-wide viper instance. Nil until Initialize runs.
var v *viper.Viper

// Configuration keys.
const (
	KeyBackend       = "backend" // "memory" or "mysql"
	KeyDB            = "db"      // memory backend snapshot path
	KeyActor         = "actor"
	KeyJSON          = "json"
	KeyMySQLHost     = "mysql.host"
	KeyMySQLPort     = "mysql.port"
	KeyMySQLUser     = "mysql.user"
	KeyMySQLPassword = "mysql.password"
	KeyMySQLDatabase = "mysql.database"
	KeyMySQLTLS      = "mysql.tls"
	KeyPipelines     = "pipelines" // optional stage-table overlay file
	KeyNotifyRoute   = "notify.route"
)

// Initialize sets up the viper singleton: defaults, the project config
// file if one exists, and CASEFLOW_* environment overrides.
func Initialize() error {
	nv := viper.New()

	nv.SetDefault(KeyBackend, "memory")
	nv.SetDefault(KeyMySQLHost, "127.0.0.1")
	nv.SetDefault(KeyMySQLPort, 3306)
	nv.SetDefault(KeyMySQLUser, "root")
	nv.SetDefault(KeyMySQLDatabase, "caseflow")
	nv.SetDefault(KeyNotifyRoute, "default")

	nv.SetEnvPrefix("CASEFLOW")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	nv.AutomaticEnv()

	if dir, err := FindProjectDir(); err == nil {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(dir)
		if err := nv.ReadInConfig(); err != nil {
			// A missing file is fine; a malformed one is not
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !os.IsNotExist(err) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	v = nv
	return nil
}

// FindProjectDir walks up from the working directory looking for a
// .caseflow directory and returns it.
func FindProjectDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	for dir := cwd; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, ".caseflow")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		if dir == filepath.Dir(dir) {
			return "", fmt.Errorf("no .caseflow directory found (run 'cf init' first)")
		}
	}
}

// GetString returns the configured string for key, or "" before
// Initialize.
func GetString(key string) string {
	if v == nil {
		return ""
	}
	return v.GetString(key)
}

// GetBool returns the configured bool for key.
func GetBool(key string) bool {
	if v == nil {
		return false
	}
	return v.GetBool(key)
}

// GetInt returns the configured int for key.
func GetInt(key string) int {
	if v == nil {
		return 0
	}
	return v.GetInt(key)
}

// Set overrides a value in the running process. It does not persist;
// use SetYamlConfig for that.
func Set(key string, value interface{}) {
	if v != nil {
		v.Set(key, value)
	}
}
