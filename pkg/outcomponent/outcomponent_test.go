// SPDX-License-Identifier: BSD-3-Clause

package outcomponent

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allowAll struct{}

func (allowAll) IsEnabled(servType, servSubType, discriminant uint16) bool { return true }

type denyAll struct{}

func (denyAll) IsEnabled(servType, servSubType, discriminant uint16) bool { return false }

func newBoundComponent(t *testing.T, actions kind.OutActions) *Component {
	t.Helper()
	c, err := New("test-out")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, c.Init(ctx).IsSuccess())
	require.True(t, c.Configure(ctx).IsSuccess())
	c.Bind(1, kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, actions, pckt.NewDefault(make([]byte, pckt.MinBufLen)), 0)
	return c
}

func TestOutComponentSingleShotTerminatesWhenEnabled(t *testing.T) {
	serialized := false
	c := newBoundComponent(t, kind.OutActions{
		Serialize: func(ctx kind.Ctx) outcome.Outcome {
			serialized = true
			return outcome.OK
		},
	})
	o := c.Step(context.Background(), allowAll{})
	assert.True(t, o.IsSuccess())
	assert.True(t, serialized)
	assert.True(t, c.IsTerminated())
}

func TestOutComponentAbortsWhenDisabled(t *testing.T) {
	c := newBoundComponent(t, kind.OutActions{})
	o := c.Step(context.Background(), denyAll{})
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeDisabled, o.Code)
	assert.True(t, c.IsAborted())
}

func TestOutComponentRepeatsUntilRepeatCheckFalse(t *testing.T) {
	calls := 0
	c := newBoundComponent(t, kind.OutActions{
		Serialize: func(ctx kind.Ctx) outcome.Outcome {
			calls++
			return outcome.OK
		},
		RepeatCheck: func(ctx kind.Ctx) bool {
			return calls < 3
		},
	})
	ctx := context.Background()

	o := c.Step(ctx, allowAll{})
	assert.True(t, o.IsContinue())
	assert.Equal(t, state.OutPending, c.OutState())

	o = c.Step(ctx, allowAll{})
	assert.True(t, o.IsContinue())

	o = c.Step(ctx, allowAll{})
	assert.True(t, o.IsSuccess())
	assert.Equal(t, 3, calls)
	assert.True(t, c.IsTerminated())
}
