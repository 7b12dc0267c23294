// SPDX-License-Identifier: BSD-3-Clause

package outfactory

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []kind.OutCmpRow {
	return []kind.OutCmpRow{
		{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, PacketLength: 64},
	}
}

func TestFactoryMakeAndRelease(t *testing.T) {
	f, err := New(1, sampleRows())
	require.NoError(t, err)
	ctx := context.Background()

	p := pckt.NewDefault(make([]byte, pckt.MinBufLen))
	c, o := f.Make(ctx, kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, p, 7)
	require.True(t, o.IsSuccess())
	assert.Equal(t, uint64(1), c.InstanceID())
	assert.Equal(t, uint32(7), c.DestGroup())
	assert.Equal(t, 0, f.NFree())

	_, o = f.Make(ctx, kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, p, 7)
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeNoFreeSlot, o.Code)

	f.Release(c)
	assert.Equal(t, 1, f.NFree())
}

func TestFactoryRejectsNonPositivePacketLength(t *testing.T) {
	badRows := []kind.OutCmpRow{
		{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}, PacketLength: 0},
	}
	_, err := New(1, badRows)
	assert.Error(t, err)
}
