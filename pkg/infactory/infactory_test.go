// SPDX-License-Identifier: BSD-3-Clause

package infactory

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCmdRows() []kind.InCmdRow {
	return []kind.InCmdRow{
		{Triple: kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}},
		{Triple: kind.Triple{ServType: 3, ServSubType: 2, Discriminant: 0}},
	}
}

func sampleRepRows() []kind.InRepRow {
	return []kind.InRepRow{
		{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}},
	}
}

func TestFactoryMakeAndReleaseCommand(t *testing.T) {
	f, err := New(1, 1, sampleCmdRows(), sampleRepRows())
	require.NoError(t, err)
	ctx := context.Background()

	p := pckt.NewDefault(make([]byte, pckt.MinBufLen))
	c, o := f.MakeCommand(ctx, kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}, p)
	require.True(t, o.IsSuccess())
	assert.Equal(t, uint64(1), c.InstanceID())
	assert.Equal(t, 0, f.NCmdFree())

	_, o = f.MakeCommand(ctx, kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}, p)
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeNoFreeSlot, o.Code)

	f.ReleaseCommand(c)
	assert.Equal(t, 1, f.NCmdFree())
}

func TestFactoryMakeCommandUnknownKind(t *testing.T) {
	f, err := New(1, 1, sampleCmdRows(), sampleRepRows())
	require.NoError(t, err)
	p := pckt.NewDefault(make([]byte, pckt.MinBufLen))
	_, o := f.MakeCommand(context.Background(), kind.Triple{ServType: 9, ServSubType: 9, Discriminant: 0}, p)
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeWrongType, o.Code)
}

func TestFactoryRejectsUnorderedTable(t *testing.T) {
	badRows := []kind.InCmdRow{
		{Triple: kind.Triple{ServType: 3, ServSubType: 2, Discriminant: 0}},
		{Triple: kind.Triple{ServType: 3, ServSubType: 1, Discriminant: 0}},
	}
	_, err := New(1, 1, badRows, sampleRepRows())
	assert.Error(t, err)
}
