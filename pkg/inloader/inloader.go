// SPDX-License-Identifier: BSD-3-Clause

// Package inloader implements the InLoader singleton (spec §4.9): each
// execute cycle pops at most one packet from its InStream, re-routes it
// if its destination is not local, and otherwise runs it through the
// four-stage acceptance pipeline (kind known, resource, validity, load).
package inloader

import (
	"context"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/incommand"
	"github.com/cordet/pus/pkg/infactory"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/report"
)

// PacketSource is the narrow InStream collaborator contract.
type PacketSource interface {
	PacketAvail() bool
	GetPckt() (pckt.Packet, bool)
}

// PacketSink is the narrow OutStream collaborator contract used to
// forward re-routed packets.
type PacketSink interface {
	Send(pckt.Packet) bool
}

// ManagerLoad is the narrow InManager collaborator contract: load places
// cmd in the PCRL, or reports CodeNoFreeSlot when full.
type ManagerLoad interface {
	Load(cmd *incommand.Command) outcome.Outcome
}

// ReRouteDest resolves a destination address to the address the packet
// should actually be delivered to. The default implementation returns
// its argument unchanged, preserving spec §9's open question: no
// topology-aware routing is defined by the core itself.
type ReRouteDest func(dest uint16) uint16

// DefaultReRouteDest is the identity re-routing function.
func DefaultReRouteDest(dest uint16) uint16 { return dest }

// SelectInManager picks which InManager a newly-accepted instance should
// load into, given its kind triple.
type SelectInManager func(t kind.Triple) int

// Loader is the InLoader singleton.
type Loader struct {
	*component.Base

	localAddr  uint16
	inStream   PacketSource
	outStreams map[uint16]PacketSink
	cmdFactory *infactory.Factory
	managers   []ManagerLoad
	reRoute    ReRouteDest
	selectMgr  SelectInManager
	sink       report.Sink
}

// Option configures a Loader at construction.
type Option func(*Loader)

// WithLocalAddr sets the address this loader considers local; packets
// re-routing to any other address are forwarded, not processed.
func WithLocalAddr(addr uint16) Option { return func(l *Loader) { l.localAddr = addr } }

// WithReRouteDest overrides the default identity re-routing function.
func WithReRouteDest(fn ReRouteDest) Option {
	return func(l *Loader) {
		if fn != nil {
			l.reRoute = fn
		}
	}
}

// WithSelectInManager overrides the default "always manager 0" selector.
func WithSelectInManager(fn SelectInManager) Option {
	return func(l *Loader) {
		if fn != nil {
			l.selectMgr = fn
		}
	}
}

// WithReportSink sets the verification-report sink.
func WithReportSink(s report.Sink) Option {
	return func(l *Loader) {
		if s != nil {
			l.sink = s
		}
	}
}

// New constructs a Loader reading from inStream, forwarding re-routed
// packets via outStreams (keyed by destination address), acquiring
// InCommand instances from cmdFactory, and loading accepted instances
// into one of managers.
func New(name string, inStream PacketSource, outStreams map[uint16]PacketSink, cmdFactory *infactory.Factory, managers []ManagerLoad, opts ...Option) (*Loader, error) {
	l := &Loader{
		inStream:   inStream,
		outStreams: outStreams,
		cmdFactory: cmdFactory,
		managers:   managers,
		reRoute:    DefaultReRouteDest,
		selectMgr:  func(kind.Triple) int { return 0 },
		sink:       report.NoOp,
	}
	for _, opt := range opts {
		opt(l)
	}
	base, err := component.New(name, component.Actions{Execute: l.runCycle})
	if err != nil {
		return nil, err
	}
	l.Base = base
	return l, nil
}

func (l *Loader) runCycle(ctx context.Context) outcome.Outcome {
	if !l.inStream.PacketAvail() {
		return outcome.OK
	}
	p, ok := l.inStream.GetPckt()
	if !ok {
		return outcome.OK
	}

	if routed := l.reRoute(p.Dest()); routed != l.localAddr {
		if sink, ok := l.outStreams[routed]; ok {
			sink.Send(p)
		}
		return outcome.OK
	}

	return l.accept(ctx, p)
}

func (l *Loader) accept(ctx context.Context, p pckt.Packet) outcome.Outcome {
	t := kind.Triple{ServType: p.ServType(), ServSubType: p.ServSubType(), Discriminant: p.Discriminant()}
	ack := p.AckLevels()

	cmd, o := l.cmdFactory.MakeCommand(ctx, t, p)
	if !o.IsSuccess() {
		l.reportFailure(ctx, t, p, o.Code)
		return o
	}

	if o := cmd.ValidityCheck(ctx); !o.IsSuccess() {
		l.cmdFactory.ReleaseCommand(cmd)
		l.reportFailure(ctx, t, p, outcome.CodeInvalid)
		return o
	}

	idx := l.selectMgr(t)
	if idx < 0 || idx >= len(l.managers) {
		l.cmdFactory.ReleaseCommand(cmd)
		l.reportFailure(ctx, t, p, outcome.CodeNoLoad)
		return outcome.Fail(outcome.CodeNoLoad)
	}
	if o := l.managers[idx].Load(cmd); !o.IsSuccess() {
		l.cmdFactory.ReleaseCommand(cmd)
		l.reportFailure(ctx, t, p, outcome.CodeNoLoad)
		return o
	}

	if ack.Acc {
		_ = l.sink.Report(ctx, report.Event{
			Kind: report.AcceptanceSucceeded, ServType: t.ServType, ServSubType: t.ServSubType,
			Discriminant: t.Discriminant, Failure: report.FailureNone,
		})
	}
	return outcome.OK
}

func (l *Loader) reportFailure(ctx context.Context, t kind.Triple, p pckt.Packet, code outcome.Code) {
	_ = l.sink.Report(ctx, report.Event{
		Kind: report.AcceptanceFailed, ServType: t.ServType, ServSubType: t.ServSubType,
		Discriminant: t.Discriminant, Failure: codeToFailure(code),
	})
}

func codeToFailure(code outcome.Code) report.FailureCode {
	switch code {
	case outcome.CodeWrongType:
		return report.FailureWrongType
	case outcome.CodeNoFreeSlot:
		return report.FailureNoFreeSlot
	case outcome.CodeInvalid:
		return report.FailureInvalid
	case outcome.CodeNoLoad:
		return report.FailureNoLoad
	default:
		return report.FailureInvalid
	}
}
