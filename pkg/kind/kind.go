// SPDX-License-Identifier: BSD-3-Clause

// Package kind defines the (servType, servSubType, discriminant) kind
// descriptor tables that drive InFactory, OutFactory and the Auxiliary
// Configuration Check (spec §3 "Kind descriptor", §4.4, §4.13).
//
// A kind descriptor carries a capability record — a table of lifecycle
// callbacks looked up once at construction — rather than a vtable, per
// spec §9's "function-pointer overrides... model as a capability record".
package kind

import (
	"fmt"

	"github.com/cordet/pus/pkg/outcome"
)

// Triple identifies a packet shape by service type, sub-type and
// discriminant.
type Triple struct {
	ServType    uint16
	ServSubType uint16
	Discriminant uint16
}

func (t Triple) String() string {
	return fmt.Sprintf("(%d,%d,%d)", t.ServType, t.ServSubType, t.Discriminant)
}

// Less reports whether t sorts strictly before o in
// (servType, servSubType, discriminant) order.
func (t Triple) Less(o Triple) bool {
	if t.ServType != o.ServType {
		return t.ServType < o.ServType
	}
	if t.ServSubType != o.ServSubType {
		return t.ServSubType < o.ServSubType
	}
	return t.Discriminant < o.Discriminant
}

// DiscriminantLayout resolves spec §9's open question about where a
// packet's discriminant lives on the wire: an offset/width pair consulted
// by a Packet adaptation's SetDiscriminant/Discriminant, so the setter is
// one dispatched write rather than a switch on (servType, servSubType).
// Width is in bytes; Offset is from the start of the parameter area.
type DiscriminantLayout struct {
	Offset int
	Width  int
}

// CmdActions is the capability record of an InCommand kind (spec §4.5).
type CmdActions struct {
	ValidityCheck     func(ctx Ctx) outcome.Outcome
	ReadyCheck        func(ctx Ctx) outcome.Outcome
	StartAction       func(ctx Ctx) outcome.Outcome
	ProgressAction    func(ctx Ctx) outcome.Outcome
	TerminationAction func(ctx Ctx) outcome.Outcome
	AbortAction       func(ctx Ctx) outcome.Outcome
}

// RepActions is the capability record of an InReport kind (spec §4.6).
type RepActions struct {
	UpdateAction  func(ctx Ctx) outcome.Outcome
	ValidityCheck func(ctx Ctx) outcome.Outcome
}

// OutActions is the capability record of an OutComponent kind (spec §4.7).
type OutActions struct {
	EnableCheck func(ctx Ctx) outcome.Outcome
	ReadyCheck  func(ctx Ctx) outcome.Outcome
	RepeatCheck func(ctx Ctx) bool
	UpdateAction func(ctx Ctx) outcome.Outcome
	Serialize   func(ctx Ctx) outcome.Outcome
}

// Ctx is the minimal context a capability record callback receives: the
// component instance it is acting on, opaque to this package. Concrete
// component packages (incommand, inreport, outcomponent) define the
// actual instance type and satisfy this as `any`; callbacks type-assert.
type Ctx = any

// InCmdRow is one row of the InFactory's command kind table.
type InCmdRow struct {
	Triple
	Actions CmdActions
}

// InRepRow is one row of the InFactory's report kind table.
type InRepRow struct {
	Triple
	Actions RepActions
}

// OutCmpRow is one row of the OutFactory's kind table.
type OutCmpRow struct {
	Triple
	PacketLength int
	Layout       DiscriminantLayout
	Actions      OutActions
}

// ServDescRow is one row of the OutRegistry's service table (spec §6):
// every (servType, servSubType) the registry's enable mask knows about,
// with how many discriminants it spans.
type ServDescRow struct {
	ServType       uint16
	ServSubType    uint16
	MaxDiscriminant uint16
}
