// SPDX-License-Identifier: BSD-3-Clause

package incommand

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

func newBoundCommand(t *testing.T, actions kind.CmdActions) *Command {
	t.Helper()
	c, err := New("test-cmd")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, c.Init(ctx).IsSuccess())
	require.True(t, c.Configure(ctx).IsSuccess())
	c.Bind(1, kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}, actions, pckt.NewDefault(make([]byte, pckt.MinBufLen)))
	return c
}

func TestCommandHappyPathTerminates(t *testing.T) {
	steps := 0
	c := newBoundCommand(t, kind.CmdActions{
		ProgressAction: func(ctx kind.Ctx) outcome.Outcome {
			steps++
			if steps < 2 {
				return outcome.More
			}
			return outcome.OK
		},
	})
	ctx := context.Background()

	require.True(t, c.Start(ctx).IsSuccess())
	assert.Equal(t, state.CommandProgress, c.CmdState())

	o := c.Step(ctx)
	assert.True(t, o.IsContinue())
	assert.Equal(t, state.CommandProgress, c.CmdState())

	o = c.Step(ctx)
	assert.True(t, o.IsSuccess())
	assert.True(t, c.IsReadyForTermination())

	require.True(t, c.Terminate(ctx).IsSuccess())
	assert.True(t, c.IsTerminated())
}

func TestCommandReadyCheckFailureAbortsStart(t *testing.T) {
	c := newBoundCommand(t, kind.CmdActions{
		ReadyCheck: func(ctx kind.Ctx) outcome.Outcome { return outcome.Fail(outcome.CodeReadyNotMet) },
	})
	o := c.Start(context.Background())
	assert.True(t, o.IsFailure())
	assert.Equal(t, state.CommandAccepted, c.CmdState())
}

func TestCommandFailedProgressAborts(t *testing.T) {
	c := newBoundCommand(t, kind.CmdActions{
		ProgressAction: func(ctx kind.Ctx) outcome.Outcome { return outcome.Fail(outcome.CodeProgressFailed) },
	})
	ctx := context.Background()
	require.True(t, c.Start(ctx).IsSuccess())

	o := c.Step(ctx)
	assert.True(t, o.IsFailure())
	assert.True(t, c.IsAborted())
}
