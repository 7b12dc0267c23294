// SPDX-License-Identifier: BSD-3-Clause

// Package inreport implements the InReport state machine (spec §4.6): a
// single-pass component that runs UpdateAction once, then ValidityCheck,
// then retires — regardless of which outcome ValidityCheck reports.
package inreport

import (
	"context"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/state"
)

// Report is one pooled InReport instance.
type Report struct {
	*component.Base

	rep *state.Machine

	instanceID uint64
	kindTriple kind.Triple
	actions    kind.RepActions
	packet     pckt.Packet

	lastUpdate   outcome.Outcome
	lastValidity outcome.Outcome
}

// New constructs an unbound Report. Call Bind before use.
func New(name string) (*Report, error) {
	r := &Report{}
	base, err := component.New(name, component.Actions{ConfigAction: r.resetRep})
	if err != nil {
		return nil, err
	}
	r.Base = base

	rm, err := state.New(state.NewReportConfig(name))
	if err != nil {
		return nil, err
	}
	r.rep = rm
	return r, nil
}

func (r *Report) resetRep(ctx context.Context) outcome.Outcome {
	fresh, err := state.New(state.NewReportConfig(r.Name()))
	if err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	r.rep = fresh
	if err := r.rep.Start(ctx); err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	return outcome.OK
}

// Bind stamps the report with its kind descriptor, instance id and raw
// packet.
func (r *Report) Bind(instanceID uint64, t kind.Triple, actions kind.RepActions, p pckt.Packet) {
	r.instanceID = instanceID
	r.kindTriple = t
	r.actions = actions
	r.packet = p
}

// InstanceID returns the pool-wide monotonic id assigned at Bind.
func (r *Report) InstanceID() uint64 { return r.instanceID }

// Kind returns the report's kind triple.
func (r *Report) Kind() kind.Triple { return r.kindTriple }

// Packet returns the bound raw packet.
func (r *Report) Packet() pckt.Packet { return r.packet }

// IsRetired reports whether the report has completed its single pass.
func (r *Report) IsRetired() bool { return r.rep.IsInState(state.ReportRetired) }

// Run executes the report's single pass: UpdateAction then ValidityCheck,
// then retire unconditionally (spec §4.6).
func (r *Report) Run(ctx context.Context) (update, validity outcome.Outcome) {
	if r.actions.UpdateAction != nil {
		update = r.actions.UpdateAction(r)
	} else {
		update = outcome.OK
	}
	if r.actions.ValidityCheck != nil {
		validity = r.actions.ValidityCheck(r)
	} else {
		validity = outcome.OK
	}
	r.lastUpdate, r.lastValidity = update, validity
	_ = r.rep.Fire(ctx, state.TriggerRetire)
	return update, validity
}

// LastOutcomes returns the outcomes of the most recent Run.
func (r *Report) LastOutcomes() (update, validity outcome.Outcome) {
	return r.lastUpdate, r.lastValidity
}
