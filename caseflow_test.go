package caseflow

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFacade(t *testing.T) {
	store, err := NewMemoryStorage("")
	require.NoError(t, err)
	defer store.Close()

	ctx := context.Background()
	_, err = store.GetCaseGroup(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NotNil(t, NewEngine(store))
	assert.NotNil(t, NewResolver(store))
	assert.NotNil(t, NewProgressCalculator(store))
}
