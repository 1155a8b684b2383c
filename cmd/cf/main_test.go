package main

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/visaops/caseflow/internal/scope"
	"github.com/visaops/caseflow/internal/storage"
	"github.com/visaops/caseflow/internal/workflow"
)

func TestGetActorWithGitPrecedence(t *testing.T) {
	orig := actor
	defer func() { actor = orig }()

	actor = "flag-actor"
	t.Setenv("CASEFLOW_ACTOR", "env-actor")
	assert.Equal(t, "flag-actor", getActorWithGit(), "flag wins over env")

	actor = ""
	assert.Equal(t, "env-actor", getActorWithGit(), "env wins when flag unset")
}

func TestExitCodeMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
		name string
	}{
		{fmt.Errorf("case group x: %w", storage.ErrNotFound), 2, "not_found"},
		{fmt.Errorf("caller y: %w", scope.ErrForbidden), 3, "forbidden"},
		{fmt.Errorf("stale: %w", storage.ErrConflict), 4, "conflict"},
		{fmt.Errorf("bad input: %w", workflow.ErrValidation), 5, "validation"},
		{fmt.Errorf("disk on fire"), 1, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, exitCode(tt.err), tt.err.Error())
		assert.Equal(t, tt.name, errorCodeName(tt.err), tt.err.Error())
	}
}

func TestIsNoStoreCommand(t *testing.T) {
	assert.True(t, isNoStoreCommand(initCmd))
	assert.True(t, isNoStoreCommand(versionCmd))
	assert.True(t, isNoStoreCommand(configGetCmd), "nested config commands skip the store")
	assert.False(t, isNoStoreCommand(caseShowCmd))
	assert.False(t, isNoStoreCommand(progressCmd))
}
