// SPDX-License-Identifier: BSD-3-Clause

package outmanager

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/outcomponent"
	"github.com/cordet/pus/pkg/outregistry"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRegistry struct {
	enabled  bool
	tracked  []uint64
	updates  []outregistry.State
}

func (r *fakeRegistry) IsEnabled(servType, servSubType, discriminant uint16) bool { return r.enabled }
func (r *fakeRegistry) StartTracking(instanceID uint64) int {
	r.tracked = append(r.tracked, instanceID)
	return len(r.tracked) - 1
}
func (r *fakeRegistry) UpdateState(ringIndex int, instanceID uint64, newState outregistry.State) {
	r.updates = append(r.updates, newState)
}

type noopReleaser struct {
	released []*outcomponent.Component
}

func (r *noopReleaser) Release(c *outcomponent.Component) { r.released = append(r.released, c) }

func newComponent(t *testing.T, actions kind.OutActions) *outcomponent.Component {
	t.Helper()
	c, err := outcomponent.New("out-cmp")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, c.Init(ctx).IsSuccess())
	require.True(t, c.Configure(ctx).IsSuccess())
	c.Bind(1, kind.Triple{ServType: 17, ServSubType: 2, Discriminant: 0}, actions, pckt.NewDefault(make([]byte, pckt.MinBufLen)), 1)
	return c
}

func TestManagerLoadStartsTrackingAndRunCycleTerminates(t *testing.T) {
	rel := &noopReleaser{}
	reg := &fakeRegistry{enabled: true}
	m, err := New("mgr", 2, rel, reg)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	cmp := newComponent(t, kind.OutActions{})
	require.True(t, m.Load(cmp).IsSuccess())
	assert.Equal(t, uint64(1), m.NOfInPocl())
	assert.Len(t, reg.tracked, 1)

	require.True(t, m.Execute(ctx).IsSuccess())
	assert.Equal(t, uint64(0), m.NOfInPocl())
	assert.Len(t, rel.released, 1)
	assert.Contains(t, reg.updates, outregistry.Terminated)
}

func TestManagerAbortsWhenDisabled(t *testing.T) {
	rel := &noopReleaser{}
	reg := &fakeRegistry{enabled: false}
	m, err := New("mgr", 2, rel, reg)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	cmp := newComponent(t, kind.OutActions{})
	require.True(t, m.Load(cmp).IsSuccess())

	require.True(t, m.Execute(ctx).IsSuccess())
	assert.Equal(t, uint64(0), m.NOfInPocl())
	assert.Contains(t, reg.updates, outregistry.Aborted)
}

func TestManagerFullPoclRejectsLoad(t *testing.T) {
	rel := &noopReleaser{}
	reg := &fakeRegistry{enabled: true}
	m, err := New("mgr", 1, rel, reg)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, m.Init(ctx).IsSuccess())
	require.True(t, m.Configure(ctx).IsSuccess())

	require.True(t, m.Load(newComponent(t, kind.OutActions{})).IsSuccess())
	o := m.Load(newComponent(t, kind.OutActions{}))
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeNoFreeSlot, o.Code)
}
