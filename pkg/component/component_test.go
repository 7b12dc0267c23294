// SPDX-License-Identifier: BSD-3-Clause

package component_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/state"
)

func TestBaseLifecycleHappyPath(t *testing.T) {
	ctx := context.Background()
	b, err := component.New("probe", component.Actions{})
	require.NoError(t, err)
	assert.Equal(t, state.ComponentCreated, b.State())

	assert.True(t, b.Init(ctx).IsSuccess())
	assert.Equal(t, state.ComponentInitialized, b.State())

	assert.True(t, b.Configure(ctx).IsSuccess())
	assert.Equal(t, state.ComponentConfigured, b.State())
	assert.True(t, b.IsConfigured())

	// Configure is idempotent from CONFIGURED.
	assert.True(t, b.Configure(ctx).IsSuccess())
	assert.Equal(t, state.ComponentConfigured, b.State())

	assert.True(t, b.Execute(ctx).IsSuccess())

	assert.True(t, b.Shutdown(ctx).IsSuccess())
	assert.Equal(t, state.ComponentCreated, b.State())
}

func TestBaseInitCheckFailureStaysCreated(t *testing.T) {
	ctx := context.Background()
	b, err := component.New("probe", component.Actions{
		InitCheck: func(context.Context) outcome.Outcome { return outcome.Fail(outcome.CodeInvalid) },
	})
	require.NoError(t, err)

	o := b.Init(ctx)
	assert.True(t, o.IsFailure())
	assert.Equal(t, state.ComponentCreated, b.State())
}

func TestExecuteBeforeConfiguredFails(t *testing.T) {
	ctx := context.Background()
	b, err := component.New("probe", component.Actions{})
	require.NoError(t, err)

	o := b.Execute(ctx)
	assert.True(t, o.IsFailure())
}
