// SPDX-License-Identifier: BSD-3-Clause

package stream

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/time/rate"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/pcktqueue"
)

// Sink is the narrow collaborator contract OutStream drains into —
// satisfied by pkg/transport.Transport.
type Sink interface {
	Send(ctx context.Context, dest uint16, buf []byte) error
}

// OutStream enqueues outbound packets, and on each Execute drains the
// queue into a Sink, stamping per-group sequence counters. A Send error
// retains the packet at the head of the queue and backs off before the
// next attempt (spec §4.8 "handles transport errors by retaining the
// packet for retry").
type OutStream struct {
	*component.Base

	queue   *pcktqueue.Queue
	sink    Sink
	seqCnts map[uint32]uint16
	enabled bool

	pending    pckt.Packet
	backoff    *backoff.ExponentialBackOff
	retryAfter time.Time

	limiter *rate.Limiter
}

// Option configures an OutStream at construction.
type Option func(*OutStream)

// WithDrainRate caps Execute's drain throughput to r packets per second
// with a burst of burst packets (spec §4.8's "OutStream drain throttle").
// The default limiter is unbounded, leaving draining gated only by the
// queue and the retry backoff.
func WithDrainRate(r rate.Limit, burst int) Option {
	return func(s *OutStream) {
		s.limiter = rate.NewLimiter(r, burst)
	}
}

// New constructs an OutStream of the given queue capacity, draining into
// sink. It starts enabled.
func New(name string, capacity int, sink Sink, opts ...Option) (*OutStream, error) {
	s := &OutStream{
		queue:   pcktqueue.New(capacity),
		sink:    sink,
		seqCnts: make(map[uint32]uint16),
		enabled: true,
		backoff: backoff.NewExponentialBackOff(),
		limiter: rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	base, err := component.New(name, component.Actions{ConfigAction: s.reset})
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

func (s *OutStream) reset(ctx context.Context) outcome.Outcome {
	for !s.queue.IsEmpty() {
		_, _ = s.queue.Pop()
	}
	s.seqCnts = make(map[uint32]uint16)
	s.enabled = true
	s.pending = nil
	s.backoff.Reset()
	s.retryAfter = time.Time{}
	return outcome.OK
}

// Enable/Disable gate draining (spec §4.8 "a disabled OutStream stops
// draining").
func (s *OutStream) Enable()        { s.enabled = true }
func (s *OutStream) Disable()       { s.enabled = false }
func (s *OutStream) IsEnabled() bool { return s.enabled }

// Send enqueues pkt for the next drain cycle. Returns false if the queue
// is full.
func (s *OutStream) Send(pkt pckt.Packet) bool {
	return s.queue.Push(pkt)
}

// Execute drains one packet per cycle into the Sink, stamping its group
// sequence counter first. A Sink error retains the packet for the next
// cycle and schedules a backoff delay before retrying (spec §4.8).
func (s *OutStream) Execute(ctx context.Context) outcome.Outcome {
	if !s.enabled {
		return outcome.OK
	}
	if !s.retryAfter.IsZero() && time.Now().Before(s.retryAfter) {
		return outcome.More
	}

	p := s.pending
	if p == nil {
		var ok bool
		p, ok = s.queue.Pop()
		if !ok {
			return outcome.OK
		}
		grp := p.Group()
		next := s.seqCnts[grp] + 1
		s.seqCnts[grp] = next
		p.SetSeqCnt(next)
	}

	if !s.limiter.Allow() {
		s.pending = p
		return outcome.More
	}

	if err := s.sink.Send(ctx, p.Dest(), p.Buf()); err != nil {
		s.pending = p
		delay := s.backoff.NextBackOff()
		if delay == backoff.Stop {
			delay = s.backoff.MaxInterval
		}
		s.retryAfter = time.Now().Add(delay)
		return outcome.Fail(outcome.CodeInvalid)
	}

	s.pending = nil
	s.backoff.Reset()
	s.retryAfter = time.Time{}
	return outcome.OK
}
