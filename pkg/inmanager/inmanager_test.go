// SPDX-License-Identifier: BSD-3-Clause

package inmanager

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/incommand"
	"github.com/cordet/pus/pkg/inreport"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopReleaser struct {
	cmdReleased []*incommand.Command
	repReleased []*inreport.Report
}

func (r *noopReleaser) ReleaseCommand(c *incommand.Command) { r.cmdReleased = append(r.cmdReleased, c) }
func (r *noopReleaser) ReleaseReport(rep *inreport.Report)  { r.repReleased = append(r.repReleased, rep) }

func newCommand(t *testing.T, actions kind.CmdActions) *incommand.Command {
	t.Helper()
	c, err := incommand.New("cmd")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, c.Init(ctx).IsSuccess())
	require.True(t, c.Configure(ctx).IsSuccess())
	c.Bind(1, kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}, actions, pckt.NewDefault(make([]byte, pckt.MinBufLen)))
	return c
}

func newReport(t *testing.T) *inreport.Report {
	t.Helper()
	r, err := inreport.New("rep")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, r.Init(ctx).IsSuccess())
	require.True(t, r.Configure(ctx).IsSuccess())
	r.Bind(1, kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, kind.RepActions{}, pckt.NewDefault(make([]byte, pckt.MinBufLen)))
	return r
}

func TestManagerLoadAndRunCycleRetiresCommand(t *testing.T) {
	rel := &noopReleaser{}
	m, err := New("mgr", 2, rel, rel, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	cmd := newCommand(t, kind.CmdActions{})
	o := m.LoadCommand(cmd)
	require.True(t, o.IsSuccess())
	assert.Equal(t, uint64(1), m.NOfInPcrl())

	require.True(t, m.Execute(ctx).IsSuccess()) // ACCEPTED -> Start -> PROGRESS
	require.True(t, m.Execute(ctx).IsSuccess()) // PROGRESS -> Step (ready for termination)
	assert.Equal(t, uint64(1), m.NOfInPcrl())
	require.True(t, m.Execute(ctx).IsSuccess()) // PROGRESS -> Terminate -> retire
	assert.Equal(t, uint64(0), m.NOfInPcrl())
	assert.Len(t, rel.cmdReleased, 1)
}

func TestManagerFullPcrlRejectsLoad(t *testing.T) {
	rel := &noopReleaser{}
	m, err := New("mgr", 1, rel, rel, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	require.True(t, m.LoadCommand(newCommand(t, kind.CmdActions{})).IsSuccess())
	o := m.LoadCommand(newCommand(t, kind.CmdActions{}))
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeNoFreeSlot, o.Code)
}

func TestManagerRetiresReportAfterOneExecute(t *testing.T) {
	rel := &noopReleaser{}
	m, err := New("mgr", 1, rel, rel, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	require.True(t, m.LoadReport(newReport(t)).IsSuccess())
	require.True(t, m.Execute(ctx).IsSuccess())
	assert.Equal(t, uint64(0), m.NOfInPcrl())
	assert.Len(t, rel.repReleased, 1)
}
