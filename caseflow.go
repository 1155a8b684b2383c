// Package caseflow provides a minimal public API for embedding the case
// workflow engine in other Go programs.
//
// Most integrations should use the cf CLI. This package exports only the
// essential types and constructors needed to drive the approval workflow
// and progress calculation against a store programmatically.
package caseflow

import (
	"context"

	"github.com/visaops/caseflow/internal/pipeline"
	"github.com/visaops/caseflow/internal/progress"
	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/storage/memory"
	"github.com/visaops/caseflow/internal/storage/mysql"
	"github.com/visaops/caseflow/internal/types"
	"github.com/visaops/caseflow/internal/workflow"
)

// Core domain types
type (
	Identity    = types.Identity
	Beneficiary = types.Beneficiary
	LawFirm     = types.LawFirm
	CaseGroup   = types.CaseGroup
	Petition    = types.Petition
	Milestone   = types.Milestone
)

// Approval status constants
const (
	ApprovalDraft    = types.ApprovalDraft
	ApprovalPending  = types.ApprovalPending
	ApprovalApproved = types.ApprovalApproved
	ApprovalRejected = types.ApprovalRejected
)

// Error taxonomy. Callers branch with errors.Is.
var (
	ErrNotFound   = storage.ErrNotFound
	ErrConflict   = storage.ErrConflict
	ErrForbidden  = scope.ErrForbidden
	ErrValidation = workflow.ErrValidation
)

// Storage is the full persistence interface satisfied by both backends.
type Storage = storage.Storage

// Engine drives the case-group approval workflow.
type Engine = workflow.Engine

// NewEngine builds a workflow engine over a store.
func NewEngine(store Storage) *Engine {
	return workflow.NewEngine(store, store)
}

// NewResolver builds a request-scoped access resolver over a store.
func NewResolver(store Storage) *scope.Resolver {
	return scope.NewResolver(store)
}

// NewProgressCalculator builds a progress calculator with the built-in
// stage tables.
func NewProgressCalculator(store Storage) *progress.Calculator {
	return progress.NewCalculator(pipeline.NewRegistry(), store, store)
}

// NewMemoryStorage opens the snapshot-backed in-memory store. An empty
// path keeps everything in memory with no persistence.
func NewMemoryStorage(snapshotPath string) (Storage, error) {
	if snapshotPath == "" {
		return memory.New(), nil
	}
	return memory.Open(snapshotPath)
}

// MySQLConfig holds connection settings for the MySQL backend.
type MySQLConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	TLS      string
}

// NewMySQLStorage connects to a MySQL server and ensures the schema.
func NewMySQLStorage(ctx context.Context, cfg MySQLConfig) (Storage, error) {
	return mysql.Open(ctx, &mysql.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Database: cfg.Database,
		TLS:      cfg.TLS,
	})
}
