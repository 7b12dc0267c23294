// SPDX-License-Identifier: BSD-3-Clause

// Package stream implements InStream and OutStream (spec §4.8): the
// per-channel components wrapping a pcktqueue.Queue and per-group
// sequence counters that sit between a Transport collaborator and the
// rest of the pipeline.
package stream

import (
	"context"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/pcktqueue"
)

// Source is the narrow collaborator contract InStream polls — satisfied
// by pkg/transport.Transport, kept separate so this package does not
// import pkg/transport directly.
type Source interface {
	Poll(ctx context.Context) ([]byte, bool, error)
}

// InStream receives raw frames from a Source on each Poll, decodes them
// via a pckt.Factory, and enqueues them for InLoader to drain oldest-first
// (spec §4.8).
type InStream struct {
	*component.Base

	queue   *pcktqueue.Queue
	source  Source
	factory pckt.Factory
	enabled bool
}

// New constructs an InStream of the given queue capacity, reading from
// source and decoding with factory. It starts enabled.
func New(name string, capacity int, source Source, factory pckt.Factory) (*InStream, error) {
	s := &InStream{
		queue:   pcktqueue.New(capacity),
		source:  source,
		factory: factory,
		enabled: true,
	}
	base, err := component.New(name, component.Actions{ConfigAction: s.reset})
	if err != nil {
		return nil, err
	}
	s.Base = base
	return s, nil
}

func (s *InStream) reset(ctx context.Context) outcome.Outcome {
	for !s.queue.IsEmpty() {
		_, _ = s.queue.Pop()
	}
	s.enabled = true
	return outcome.OK
}

// Enable/Disable gate Poll (spec §4.8 "both expose enable/disable").
func (s *InStream) Enable()  { s.enabled = true }
func (s *InStream) Disable() { s.enabled = false }
func (s *InStream) IsEnabled() bool { return s.enabled }

// Poll asks the Source for one frame and enqueues it. A disabled stream,
// a Source reporting no data, or a full queue are all no-ops reported via
// the returned Outcome (Success, Continue for "nothing to do", Failure
// for queue-full).
func (s *InStream) Poll(ctx context.Context) outcome.Outcome {
	if !s.enabled {
		return outcome.OK
	}
	buf, ok, err := s.source.Poll(ctx)
	if err != nil || !ok {
		return outcome.More
	}
	p := s.factory(buf)
	if !s.queue.Push(p) {
		return outcome.Fail(outcome.CodeNoFreeSlot)
	}
	return outcome.OK
}

// PacketAvail reports whether GetPckt would return a packet.
func (s *InStream) PacketAvail() bool { return !s.queue.IsEmpty() }

// GetPckt pops the oldest enqueued packet, if any (spec §4.9 step 2-3
// "peek"/"pop").
func (s *InStream) GetPckt() (pckt.Packet, bool) { return s.queue.Pop() }
