// SPDX-License-Identifier: BSD-3-Clause

// Package report implements the PUS request-verification reporting plane
// (spec §7's "error report stream"): the (1,1)/(1,2)/(1,4)/(1,6)/(1,7)/
// (1,8)/(1,10) reports emitted across a command's acceptance, start,
// progress and termination phases, gated by the packet's per-phase ack
// levels (spec §4.5).
package report

import (
	"context"

	"github.com/cordet/pus/pkg/pckt"
)

// Kind identifies a PUS service-1 verification report.
type Kind int

const (
	// AcceptanceSucceeded is (1,1): the TC passed the four-stage
	// acceptance pipeline and was loaded.
	AcceptanceSucceeded Kind = iota
	// AcceptanceFailed is (1,2): the TC failed kind lookup, resource
	// acquisition, validity, or load.
	AcceptanceFailed
	// StartSucceeded is (1,3): StartAction ran successfully on entry to
	// PROGRESS.
	StartSucceeded
	// StartFailed is (1,4): StartAction failed; the command moves to
	// ABORTED.
	StartFailed
	// ProgressSucceeded is (1,5): a ProgressAction step succeeded.
	ProgressSucceeded
	// ProgressFailed is (1,6): a ProgressAction step failed; the command
	// moves to ABORTED.
	ProgressFailed
	// TerminationSucceeded is (1,7): TerminationAction succeeded.
	TerminationSucceeded
	// TerminationFailed is (1,8): TerminationAction failed; the command
	// moves to ABORTED.
	TerminationFailed
	// GenericFailure is (1,10): an AbortAction invoked outside the
	// start/progress/termination failure paths (e.g. an explicit abort
	// requested by the handler).
	GenericFailure
)

func (k Kind) String() string {
	switch k {
	case AcceptanceSucceeded:
		return "acceptanceSucceeded"
	case AcceptanceFailed:
		return "acceptanceFailed"
	case StartSucceeded:
		return "startSucceeded"
	case StartFailed:
		return "startFailed"
	case ProgressSucceeded:
		return "progressSucceeded"
	case ProgressFailed:
		return "progressFailed"
	case TerminationSucceeded:
		return "terminationSucceeded"
	case TerminationFailed:
		return "terminationFailed"
	case GenericFailure:
		return "genericFailure"
	default:
		return "unknown"
	}
}

// FailureCode classifies why an acceptance or lifecycle step failed, used
// as the "extra" detail on a report (spec §8 scenario 2's "failure code
// \"invalid type\"").
type FailureCode int

const (
	FailureNone FailureCode = iota
	FailureWrongType
	FailureNoFreeSlot
	FailureInvalid
	FailureNoLoad
)

func (f FailureCode) String() string {
	switch f {
	case FailureWrongType:
		return "wrongType"
	case FailureNoFreeSlot:
		return "noFreeSlot"
	case FailureInvalid:
		return "invalid"
	case FailureNoLoad:
		return "noLoad"
	default:
		return "none"
	}
}

// Event is one verification report occurrence, handed to a Sink.
type Event struct {
	Kind         Kind
	ServType     uint16
	ServSubType  uint16
	Discriminant uint16
	InstanceID   uint64
	Failure      FailureCode
}

// Sink is the error-reporting collaborator of spec §6
// ("error-reporting sink"): lifecycle drivers call Report to emit a
// verification report. A nil Sink is never passed around; NoOp below is
// the zero-behavior default.
type Sink interface {
	Report(ctx context.Context, ev Event) error
}

// NoOp is a Sink that discards every event, the default when an
// application has not wired a sink.
var NoOp Sink = noOpSink{}

type noOpSink struct{}

func (noOpSink) Report(context.Context, Event) error { return nil }

// Phase identifies which of the four ack-gated phases a report belongs
// to, for ShouldReport's gating decision.
type Phase int

const (
	PhaseAcceptance Phase = iota
	PhaseStart
	PhaseProgress
	PhaseTermination
)

// ShouldReport reports whether a phase's report should be emitted given
// the originating packet's ack levels (spec §4.5: "Ack-level flags on the
// packet decide which of the four verification reports are emitted").
// Failure reports are always emitted regardless of ack level; only the
// success-path reports are ack-gated.
func ShouldReport(ack pckt.AckLevels, phase Phase, k Kind) bool {
	switch k {
	case AcceptanceFailed, StartFailed, ProgressFailed, TerminationFailed, GenericFailure:
		return true
	}
	switch phase {
	case PhaseAcceptance:
		return ack.Acc
	case PhaseStart:
		return ack.Start
	case PhaseProgress:
		return ack.Progress
	case PhaseTermination:
		return ack.Term
	default:
		return false
	}
}
