// SPDX-License-Identifier: BSD-3-Clause

package outregistry

import (
	"testing"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/kind"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleServices() []kind.ServDescRow {
	return []kind.ServDescRow{
		{ServType: 3, ServSubType: 25, MaxDiscriminant: 2},
		{ServType: 5, ServSubType: 1, MaxDiscriminant: 0},
	}
}

func TestSetEnableExactKind(t *testing.T) {
	r, err := New(sampleServices(), 4)
	require.NoError(t, err)

	assert.False(t, r.IsEnabled(3, 25, 1))
	r.SetEnable(3, 25, 1, true)
	assert.True(t, r.IsEnabled(3, 25, 1))
	assert.False(t, r.IsEnabled(3, 25, 2))
}

func TestSetEnableWildcardDiscriminant(t *testing.T) {
	r, err := New(sampleServices(), 4)
	require.NoError(t, err)

	r.SetEnable(3, 25, 0, true)
	assert.True(t, r.IsEnabled(3, 25, 0))
	assert.True(t, r.IsEnabled(3, 25, 1))
	assert.True(t, r.IsEnabled(3, 25, 2))
}

func TestSetEnableUnknownServiceLatchesAppErr(t *testing.T) {
	latch := &apperr.Latch{}
	r, err := New(sampleServices(), 4, WithLatch(latch))
	require.NoError(t, err)

	r.SetEnable(99, 1, 0, true)
	assert.Equal(t, apperr.IllServSubType, latch.Get())
	assert.False(t, r.IsEnabled(99, 1, 0))
}

func TestSetEnableDiscriminantOutOfRangeLatchesAppErr(t *testing.T) {
	latch := &apperr.Latch{}
	r, err := New(sampleServices(), 4, WithLatch(latch))
	require.NoError(t, err)

	r.SetEnable(3, 25, 9, true)
	assert.Equal(t, apperr.IllDiscriminant, latch.Get())
}

func TestTrackingRoundTrip(t *testing.T) {
	r, err := New(sampleServices(), 2)
	require.NoError(t, err)

	idx := r.StartTracking(7)
	st, res := r.GetState(7)
	assert.Equal(t, Found, res)
	assert.Equal(t, Pending, st)

	r.UpdateState(idx, 7, Terminated)
	st, res = r.GetState(7)
	assert.Equal(t, Found, res)
	assert.Equal(t, Terminated, st)
}

func TestTrackingWraparoundOverwritesOldest(t *testing.T) {
	r, err := New(sampleServices(), 2)
	require.NoError(t, err)

	r.StartTracking(1)
	r.StartTracking(2)
	r.StartTracking(3) // wraps, overwrites instance 1's slot

	_, res := r.GetState(1)
	assert.Equal(t, NoEntry, res)
	st, res := r.GetState(3)
	assert.Equal(t, Found, res)
	assert.Equal(t, Pending, st)
}

func TestTrackingNeverSeenInstanceIsNotTracked(t *testing.T) {
	r, err := New(sampleServices(), 2)
	require.NoError(t, err)

	r.StartTracking(1)
	r.StartTracking(2)

	_, res := r.GetState(99)
	assert.Equal(t, NotTracked, res)
}

func TestUpdateStateStaleRingIndexIsNoOp(t *testing.T) {
	r, err := New(sampleServices(), 2)
	require.NoError(t, err)

	idx := r.StartTracking(1)
	r.StartTracking(2)
	r.StartTracking(3) // overwrites idx with instance 3

	r.UpdateState(idx, 1, Aborted) // stale: idx now belongs to instance 3
	st, _ := r.GetState(3)
	assert.Equal(t, Pending, st)
}
