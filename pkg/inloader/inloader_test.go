// SPDX-License-Identifier: BSD-3-Clause

package inloader

import (
	"context"
	"testing"

	"github.com/cordet/pus/pkg/infactory"
	"github.com/cordet/pus/pkg/inmanager"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInStream struct {
	pkts []pckt.Packet
}

func (f *fakeInStream) PacketAvail() bool { return len(f.pkts) > 0 }
func (f *fakeInStream) GetPckt() (pckt.Packet, bool) {
	if len(f.pkts) == 0 {
		return nil, false
	}
	p := f.pkts[0]
	f.pkts = f.pkts[1:]
	return p, true
}

func newPacket(servType, servSubType uint16, dest uint16, acc bool) pckt.Packet {
	p := pckt.NewDefault(make([]byte, pckt.MinBufLen))
	p.SetServType(servType)
	p.SetServSubType(servSubType)
	p.SetDest(dest)
	p.SetAckLevels(pckt.AckLevels{Acc: acc})
	return p
}

// sampleRepRows gives infactory.New a minimally valid, non-empty InReport
// table; these tests only exercise command acceptance.
func sampleRepRows() []kind.InRepRow {
	return []kind.InRepRow{{Triple: kind.Triple{ServType: 3, ServSubType: 25, Discriminant: 0}}}
}

func newLoader(t *testing.T, cmdRows []kind.InCmdRow) (*Loader, *infactory.Factory, *inmanager.Manager, *fakeInStream) {
	t.Helper()
	src := &fakeInStream{}
	f, err := infactory.New(2, 1, cmdRows, sampleRepRows())
	require.NoError(t, err)
	mgr, err := inmanager.New("mgr", 2, f, f, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, mgr.Init(ctx).IsSuccess())
	require.True(t, mgr.Configure(ctx).IsSuccess())

	l, err := New("loader", src, nil, f, []ManagerLoad{mgr}, WithLocalAddr(1))
	require.NoError(t, err)
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())
	return l, f, mgr, src
}

func TestLoaderAcceptsKnownKind(t *testing.T) {
	rows := []kind.InCmdRow{{Triple: kind.Triple{ServType: 17, ServSubType: 1, Discriminant: 0}}}
	l, f, mgr, src := newLoader(t, rows)
	src.pkts = append(src.pkts, newPacket(17, 1, 1, true))

	o := l.Execute(context.Background())
	assert.True(t, o.IsSuccess())
	assert.Equal(t, 1, f.NCmdFree())
	assert.Equal(t, uint64(1), mgr.NOfInPcrl())
}

func TestLoaderRejectsUnknownKind(t *testing.T) {
	rows := []kind.InCmdRow{{Triple: kind.Triple{ServType: 17, ServSubType: 1, Discriminant: 0}}}
	l, f, mgr, src := newLoader(t, rows)
	src.pkts = append(src.pkts, newPacket(99, 1, 1, true))

	o := l.Execute(context.Background())
	assert.True(t, o.IsFailure())
	assert.Equal(t, outcome.CodeWrongType, o.Code)
	assert.Equal(t, 2, f.NCmdFree())
	assert.Equal(t, uint64(0), mgr.NOfInPcrl())
}

func TestLoaderForwardsNonLocalDestination(t *testing.T) {
	rows := []kind.InCmdRow{{Triple: kind.Triple{ServType: 17, ServSubType: 1, Discriminant: 0}}}
	src := &fakeInStream{}
	f, err := infactory.New(2, 1, rows, sampleRepRows())
	require.NoError(t, err)
	mgr, err := inmanager.New("mgr", 2, f, f, nil)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, mgr.Init(ctx).IsSuccess())
	require.True(t, mgr.Configure(ctx).IsSuccess())

	forwarded := &fakeSink{}
	l, err := New("loader", src, map[uint16]PacketSink{9: forwarded}, f, []ManagerLoad{mgr}, WithLocalAddr(1))
	require.NoError(t, err)
	require.True(t, l.Init(ctx).IsSuccess())
	require.True(t, l.Configure(ctx).IsSuccess())

	src.pkts = append(src.pkts, newPacket(17, 1, 9, true))
	o := l.Execute(ctx)
	assert.True(t, o.IsSuccess())
	assert.Len(t, forwarded.sent, 1)
	assert.Equal(t, uint64(0), mgr.NOfInPcrl())
}

type fakeSink struct {
	sent []pckt.Packet
}

func (s *fakeSink) Send(p pckt.Packet) bool {
	s.sent = append(s.sent, p)
	return true
}
