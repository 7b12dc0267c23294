// SPDX-License-Identifier: BSD-3-Clause

// Package outcomponent implements the OutComponent state machine
// (spec §4.7): LOADED -> PENDING -> {TERMINATED, ABORTED}, gated on the
// OutRegistry enable mask, a handler ReadyCheck, and a RepeatCheck that
// loops the component through PENDING for periodic reports.
package outcomponent

import (
	"context"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/state"
)

// EnableQuery is the collaborator contract to the OutRegistry's enable
// mask, kept narrow so this package does not import pkg/outregistry
// directly (spec §4.7 "enableCheck(comp) queries the OutRegistry").
type EnableQuery interface {
	IsEnabled(servType, servSubType, discriminant uint16) bool
}

// Component is one pooled OutComponent instance.
type Component struct {
	*component.Base

	out *state.Machine

	instanceID   uint64
	kindTriple   kind.Triple
	actions      kind.OutActions
	packet       pckt.Packet
	destGroup    uint32
	trackingIdx  int
	hasTrackIdx  bool
}

// New constructs an unbound Component. Call Bind before use.
func New(name string) (*Component, error) {
	c := &Component{}
	base, err := component.New(name, component.Actions{ConfigAction: c.resetOut})
	if err != nil {
		return nil, err
	}
	c.Base = base

	om, err := state.New(state.NewOutComponentConfig(name))
	if err != nil {
		return nil, err
	}
	c.out = om
	return c, nil
}

func (c *Component) resetOut(ctx context.Context) outcome.Outcome {
	fresh, err := state.New(state.NewOutComponentConfig(c.Name()))
	if err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	c.out = fresh
	if err := c.out.Start(ctx); err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	c.hasTrackIdx = false
	return outcome.OK
}

// Bind stamps the component with its kind descriptor, instance id, raw
// packet and destination group.
func (c *Component) Bind(instanceID uint64, t kind.Triple, actions kind.OutActions, p pckt.Packet, destGroup uint32) {
	c.instanceID = instanceID
	c.kindTriple = t
	c.actions = actions
	c.packet = p
	c.destGroup = destGroup
}

// InstanceID returns the pool-wide monotonic id assigned at Bind.
func (c *Component) InstanceID() uint64 { return c.instanceID }

// Kind returns the component's kind triple.
func (c *Component) Kind() kind.Triple { return c.kindTriple }

// Packet returns the bound raw packet.
func (c *Component) Packet() pckt.Packet { return c.packet }

// DestGroup returns the sequence-counter group this component sends into.
func (c *Component) DestGroup() uint32 { return c.destGroup }

// SetTrackingIndex records the OutRegistry ring index this component was
// started at, so the registry can later validate it still matches
// (spec §4.12 "records ringIndex in the outCmp").
func (c *Component) SetTrackingIndex(idx int) {
	c.trackingIdx = idx
	c.hasTrackIdx = true
}

// TrackingIndex returns the recorded tracking index, if any.
func (c *Component) TrackingIndex() (int, bool) { return c.trackingIdx, c.hasTrackIdx }

// OutState returns the nested send machine's current state.
func (c *Component) OutState() string { return c.out.CurrentState() }

// IsTerminated reports whether the component completed sending.
func (c *Component) IsTerminated() bool { return c.out.IsInState(state.OutTerminated) }

// IsAborted reports whether the component was aborted.
func (c *Component) IsAborted() bool { return c.out.IsInState(state.OutAborted) }

// Step runs one execution cycle of the component. In LOADED, a disabled
// kind (enable mask or EnableCheck) aborts it, and a failing ReadyCheck
// leaves it LOADED for a later cycle without consuming a slot; otherwise
// it enters PENDING. In PENDING, Serialize writes header fields and
// RepeatCheck decides whether the component loops back to PENDING or
// terminates (spec §4.7).
func (c *Component) Step(ctx context.Context, registry EnableQuery) outcome.Outcome {
	switch c.out.CurrentState() {
	case state.OutLoaded:
		enabled := registry == nil || registry.IsEnabled(c.kindTriple.ServType, c.kindTriple.ServSubType, c.kindTriple.Discriminant)
		if c.actions.EnableCheck != nil {
			if o := c.actions.EnableCheck(c); !o.IsSuccess() {
				enabled = false
			}
		}
		if !enabled {
			_ = c.out.Fire(ctx, state.TriggerAbort)
			return outcome.Fail(outcome.CodeDisabled)
		}
		if c.actions.ReadyCheck != nil {
			if o := c.actions.ReadyCheck(c); !o.IsSuccess() {
				return outcome.More
			}
		}
		if err := c.out.Fire(ctx, state.TriggerEnableReady); err != nil {
			return outcome.Fail(outcome.CodeReadyNotMet)
		}
		return c.sendAndRepeat(ctx)

	case state.OutPending:
		return c.sendAndRepeat(ctx)

	default:
		return outcome.Fail(outcome.CodeInvalid)
	}
}

func (c *Component) sendAndRepeat(ctx context.Context) outcome.Outcome {
	if c.actions.Serialize != nil {
		if o := c.actions.Serialize(c); !o.IsSuccess() {
			_ = c.out.Fire(ctx, state.TriggerAbort)
			return o
		}
	}
	if c.actions.RepeatCheck != nil && c.actions.RepeatCheck(c) {
		_ = c.out.Fire(ctx, state.TriggerStep)
		return outcome.More
	}
	if err := c.out.Fire(ctx, state.TriggerTerminate); err != nil {
		return outcome.Fail(outcome.CodeTerminationFailed)
	}
	return outcome.OK
}
