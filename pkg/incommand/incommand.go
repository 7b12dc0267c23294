// SPDX-License-Identifier: BSD-3-Clause

// Package incommand implements the InCommand state machine (spec §4.5): a
// pooled instance wrapping one incoming TC packet, extending
// component.Base with a nested ACCEPTED -> PROGRESS -> {TERMINATED,
// ABORTED} machine entered on every (re)configuration.
package incommand

import (
	"context"
	"fmt"

	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
	"github.com/cordet/pus/pkg/state"
)

// Command is one pooled InCommand instance. InFactory constructs a fixed
// number of these at startup and hands them out via Bind.
type Command struct {
	*component.Base

	cmd *state.Machine

	instanceID     uint64
	kindTriple     kind.Triple
	actions        kind.CmdActions
	packet         pckt.Packet
	progressStepID uint64
	readyForTerm   bool
}

// New constructs an unbound Command. Call Bind before use.
func New(name string) (*Command, error) {
	c := &Command{}
	base, err := component.New(name, component.Actions{
		ConfigAction: c.resetCmd,
	})
	if err != nil {
		return nil, err
	}
	c.Base = base

	cfg := state.NewCommandConfig(name)
	cm, err := state.New(cfg)
	if err != nil {
		return nil, err
	}
	c.cmd = cm
	return c, nil
}

func (c *Command) resetCmd(ctx context.Context) outcome.Outcome {
	if c.cmd.CurrentState() != "" {
		_ = c.cmd.Stop(ctx)
	}
	fresh, err := state.New(state.NewCommandConfig(c.Name()))
	if err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	c.cmd = fresh
	if err := c.cmd.Start(ctx); err != nil {
		return outcome.Fail(outcome.CodeInvalid)
	}
	return outcome.OK
}

// Bind stamps the command with its kind descriptor, instance id and raw
// packet, preparing it for acceptance processing (spec §4.4 "make").
func (c *Command) Bind(instanceID uint64, t kind.Triple, actions kind.CmdActions, p pckt.Packet) {
	c.instanceID = instanceID
	c.kindTriple = t
	c.actions = actions
	c.packet = p
	c.progressStepID = 0
	c.readyForTerm = false
}

// InstanceID returns the pool-wide monotonic id assigned at Bind.
func (c *Command) InstanceID() uint64 { return c.instanceID }

// Kind returns the command's kind triple.
func (c *Command) Kind() kind.Triple { return c.kindTriple }

// Packet returns the bound raw packet.
func (c *Command) Packet() pckt.Packet { return c.packet }

// CmdState returns the nested command machine's current state
// (state.CommandAccepted, CommandProgress, CommandTerminated or
// CommandAborted).
func (c *Command) CmdState() string { return c.cmd.CurrentState() }

// IsTerminated reports whether the command reached TERMINATED.
func (c *Command) IsTerminated() bool { return c.cmd.IsInState(state.CommandTerminated) }

// IsAborted reports whether the command reached ABORTED.
func (c *Command) IsAborted() bool { return c.cmd.IsInState(state.CommandAborted) }

// ValidityCheck runs the kind's ValidityCheck (spec §4.9 acceptance step 3).
func (c *Command) ValidityCheck(ctx context.Context) outcome.Outcome {
	if c.actions.ValidityCheck == nil {
		return outcome.OK
	}
	return c.actions.ValidityCheck(c)
}

// Start runs ReadyCheck then, if ready, StartAction and enters PROGRESS
// (spec §4.5 "Start").
func (c *Command) Start(ctx context.Context) outcome.Outcome {
	if c.actions.ReadyCheck != nil {
		if o := c.actions.ReadyCheck(c); !o.IsSuccess() {
			return o
		}
	}
	var o outcome.Outcome
	if c.actions.StartAction != nil {
		o = c.actions.StartAction(c)
	} else {
		o = outcome.OK
	}
	if o.IsSuccess() {
		if err := c.cmd.Fire(ctx, state.TriggerStart); err != nil {
			return outcome.Fail(outcome.CodeStartFailed)
		}
		return outcome.OK
	}
	_ = c.cmd.Fire(ctx, state.TriggerAbort)
	return outcome.Fail(outcome.CodeStartFailed)
}

// Step runs one ProgressAction tick while in PROGRESS (spec §4.5
// "Progress"). The action's outcome decides whether the command remains
// PROGRESS (Continue), is ready for termination (Success), or moves to
// ABORTED (Failure).
func (c *Command) Step(ctx context.Context) outcome.Outcome {
	if c.cmd.CurrentState() != state.CommandProgress {
		return outcome.Fail(outcome.CodeInvalid)
	}
	var o outcome.Outcome
	if c.actions.ProgressAction != nil {
		o = c.actions.ProgressAction(c)
	} else {
		o = outcome.OK
	}
	switch {
	case o.IsContinue():
		c.progressStepID++
		_ = c.cmd.Fire(ctx, state.TriggerStep)
		return o
	case o.IsSuccess():
		c.progressStepID++
		c.readyForTerm = true
		return o
	default:
		_ = c.cmd.Fire(ctx, state.TriggerAbort)
		return o
	}
}

// IsReadyForTermination reports whether the last Step reported
// completion, so the driving InManager should call Terminate on the
// next cycle instead of Step again.
func (c *Command) IsReadyForTermination() bool { return c.readyForTerm }

// Terminate runs TerminationAction; success moves the command to
// TERMINATED, failure to ABORTED (spec §4.5 "Termination").
func (c *Command) Terminate(ctx context.Context) outcome.Outcome {
	var o outcome.Outcome
	if c.actions.TerminationAction != nil {
		o = c.actions.TerminationAction(c)
	} else {
		o = outcome.OK
	}
	if o.IsSuccess() {
		if err := c.cmd.Fire(ctx, state.TriggerTerminate); err != nil {
			return outcome.Fail(outcome.CodeTerminationFailed)
		}
		return outcome.OK
	}
	_ = c.cmd.Fire(ctx, state.TriggerAbort)
	return outcome.Fail(outcome.CodeTerminationFailed)
}

// Abort may be invoked by the handler at any time, or implicitly on
// failed progress/termination (spec §4.5 "Abort").
func (c *Command) Abort(ctx context.Context) error {
	if err := c.cmd.Fire(ctx, state.TriggerAbort); err != nil {
		return fmt.Errorf("incommand: abort: %w", err)
	}
	return nil
}

// ProgressStepID returns the last progress step id recorded.
func (c *Command) ProgressStepID() uint64 { return c.progressStepID }
