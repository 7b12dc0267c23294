// SPDX-License-Identifier: BSD-3-Clause

package outloader

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/outcomponent"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	loaded []*outcomponent.Component
	fail   bool
}

func (m *fakeManager) Load(cmp *outcomponent.Component) outcome.Outcome {
	if m.fail {
		return outcome.Fail(outcome.CodeNoFreeSlot)
	}
	m.loaded = append(m.loaded, cmp)
	return outcome.OK
}

func newComponent(t *testing.T) *outcomponent.Component {
	t.Helper()
	c, err := outcomponent.New("out-cmp")
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, c.Init(ctx).IsSuccess())
	require.True(t, c.Configure(ctx).IsSuccess())
	c.Bind(1, kind.Triple{ServType: 17, ServSubType: 2, Discriminant: 0}, kind.OutActions{}, pckt.NewDefault(make([]byte, pckt.MinBufLen)), 1)
	return c
}

func TestLoaderDefaultsToManagerZero(t *testing.T) {
	mgr := &fakeManager{}
	l, err := New("loader", []ManagerLoad{mgr})
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())

	cmp := newComponent(t)
	o := l.Load(ctx, cmp)
	assert.True(t, o.IsSuccess())
	assert.Len(t, mgr.loaded, 1)
}

func TestLoaderActivatesSelectedManager(t *testing.T) {
	mgrA, mgrB := &fakeManager{}, &fakeManager{}
	var activated int = -1
	l, err := New("loader", []ManagerLoad{mgrA, mgrB},
		WithSelectOutManager(func(*outcomponent.Component) int { return 1 }),
		WithActivateOutManager(func(idx int) { activated = idx }),
	)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())

	o := l.Load(ctx, newComponent(t))
	assert.True(t, o.IsSuccess())
	assert.Empty(t, mgrA.loaded)
	assert.Len(t, mgrB.loaded, 1)
	assert.Equal(t, 1, activated)
}

func TestLoaderPropagatesManagerFailureWithoutActivating(t *testing.T) {
	mgr := &fakeManager{fail: true}
	activated := false
	l, err := New("loader", []ManagerLoad{mgr}, WithActivateOutManager(func(int) { activated = true }))
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())

	o := l.Load(ctx, newComponent(t))
	assert.True(t, o.IsFailure())
	assert.False(t, activated)
}

func TestLoaderOutOfRangeSelectionFails(t *testing.T) {
	mgr := &fakeManager{}
	l, err := New("loader", []ManagerLoad{mgr}, WithSelectOutManager(func(*outcomponent.Component) int { return 5 }))
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())

	o := l.Load(ctx, newComponent(t))
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeNoLoad, o.Code)
}
