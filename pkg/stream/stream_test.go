// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/time/rate"

	"github.com/cordet/pus/pkg/pckt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	frames [][]byte
	err    error
}

func (f *fakeSource) Poll(ctx context.Context) ([]byte, bool, error) {
	if f.err != nil {
		return nil, false, f.err
	}
	if len(f.frames) == 0 {
		return nil, false, nil
	}
	buf := f.frames[0]
	f.frames = f.frames[1:]
	return buf, true, nil
}

type fakeSink struct {
	sent    [][]byte
	failN   int
	calls   int
}

func (f *fakeSink) Send(ctx context.Context, dest uint16, buf []byte) error {
	f.calls++
	if f.calls <= f.failN {
		return errors.New("boom")
	}
	cp := make([]byte, len(buf))
	copy(cp, buf)
	f.sent = append(f.sent, cp)
	return nil
}

func newPacket() pckt.Packet { return pckt.NewDefault(make([]byte, pckt.MinBufLen)) }

func TestInStreamPollEnqueuesAndDrainsFIFO(t *testing.T) {
	src := &fakeSource{frames: [][]byte{make([]byte, pckt.MinBufLen), make([]byte, pckt.MinBufLen)}}
	s, err := New("in", 4, src, pckt.NewDefault)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, s.Init(ctx).IsSuccess())
	require.True(t, s.Configure(ctx).IsSuccess())

	require.True(t, s.Poll(ctx).IsSuccess())
	require.True(t, s.Poll(ctx).IsSuccess())
	assert.True(t, s.PacketAvail())

	_, ok := s.GetPckt()
	assert.True(t, ok)
	_, ok = s.GetPckt()
	assert.True(t, ok)
	_, ok = s.GetPckt()
	assert.False(t, ok)
}

func TestInStreamDisabledDoesNotPoll(t *testing.T) {
	src := &fakeSource{frames: [][]byte{make([]byte, pckt.MinBufLen)}}
	s, err := New("in", 4, src, pckt.NewDefault)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, s.Init(ctx).IsSuccess())
	require.True(t, s.Configure(ctx).IsSuccess())
	s.Disable()

	s.Poll(ctx)
	assert.False(t, s.PacketAvail())
}

func TestOutStreamStampsSeqCntPerGroup(t *testing.T) {
	sink := &fakeSink{}
	s, err := New("out", 4, sink)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, s.Init(ctx).IsSuccess())
	require.True(t, s.Configure(ctx).IsSuccess())

	p1 := newPacket()
	p1.SetGroup(1)
	p2 := newPacket()
	p2.SetGroup(1)

	require.True(t, s.Send(p1))
	require.True(t, s.Send(p2))

	o := s.Execute(ctx)
	assert.True(t, o.IsSuccess())
	assert.Equal(t, uint16(1), p1.SeqCnt())

	o = s.Execute(ctx)
	assert.True(t, o.IsSuccess())
	assert.Equal(t, uint16(2), p2.SeqCnt())
}

func TestOutStreamRetainsPacketOnSendError(t *testing.T) {
	sink := &fakeSink{failN: 1}
	s, err := New("out", 4, sink)
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, s.Init(ctx).IsSuccess())
	require.True(t, s.Configure(ctx).IsSuccess())

	p := newPacket()
	require.True(t, s.Send(p))

	o := s.Execute(ctx)
	assert.True(t, o.IsFailure())
	assert.Len(t, sink.sent, 0)
}

func TestOutStreamDrainRateThrottlesSend(t *testing.T) {
	sink := &fakeSink{}
	s, err := New("out", 4, sink, WithDrainRate(rate.Limit(0), 1))
	require.NoError(t, err)
	ctx := context.Background()
	require.True(t, s.Init(ctx).IsSuccess())
	require.True(t, s.Configure(ctx).IsSuccess())

	p := newPacket()
	require.True(t, s.Send(p))

	// First Execute consumes the single burst token and sends.
	o := s.Execute(ctx)
	assert.True(t, o.IsSuccess())
	assert.Len(t, sink.sent, 1)

	// A second packet finds the limiter dry (rate.Limit(0) never
	// refills) and stays queued rather than reaching the sink.
	p2 := newPacket()
	require.True(t, s.Send(p2))
	o = s.Execute(ctx)
	assert.True(t, o.IsContinue())
	assert.Len(t, sink.sent, 1)
}
