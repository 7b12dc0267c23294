// SPDX-License-Identifier: BSD-3-Clause

package state

import "time"

// Component lifecycle states (spec §3.1): every InStream, OutStream,
// InLoader, InManager, OutLoader and OutManager goes through this machine
// once at startup.
const (
	ComponentCreated     = "created"
	ComponentInitialized = "initialized"
	ComponentConfigured  = "configured"
)

const (
	TriggerInitialize = "initialize"
	TriggerConfigure  = "configure"
	TriggerShutdown   = "shutdown"
)

// NewComponentLifecycleConfig builds the CREATED -> INITIALIZED ->
// CONFIGURED -> CREATED machine shared by every BaseComponent (spec §3.1).
// Reconfiguring from CONFIGURED is permitted directly, without first
// shutting down, matching the source's idempotent-configure behavior.
func NewComponentLifecycleConfig(name string, opts ...Option) *Config {
	base := []Option{
		WithName(name),
		WithDescription("component lifecycle"),
		WithInitialState(ComponentCreated),
		WithSimpleStates(ComponentCreated, ComponentInitialized, ComponentConfigured),
		WithTransition(ComponentCreated, ComponentInitialized, TriggerInitialize),
		WithTransition(ComponentInitialized, ComponentConfigured, TriggerConfigure),
		WithTransition(ComponentConfigured, ComponentConfigured, TriggerConfigure),
		WithTransition(ComponentInitialized, ComponentCreated, TriggerShutdown),
		WithTransition(ComponentConfigured, ComponentCreated, TriggerShutdown),
		WithStateTimeout(5 * time.Second),
	}
	return NewConfig(append(base, opts...)...)
}

// InCommand lifecycle states (spec §4.1): ACCEPTED -> PROGRESS ->
// {TERMINATED, ABORTED}, entered once the command passes its validity and
// acceptability checks.
const (
	CommandAccepted   = "accepted"
	CommandProgress   = "progress"
	CommandTerminated = "terminated"
	CommandAborted    = "aborted"
)

const (
	TriggerStart     = "start"
	TriggerStep      = "step"
	TriggerTerminate = "terminate"
	TriggerAbort     = "abort"
)

// NewCommandConfig builds the InCommand execution machine. step is
// re-firable from progress to model ProgressAction being invoked every
// execution cycle until it reports completion.
func NewCommandConfig(name string, opts ...Option) *Config {
	base := []Option{
		WithName(name),
		WithDescription("command execution"),
		WithInitialState(CommandAccepted),
		WithSimpleStates(CommandAccepted, CommandProgress, CommandTerminated, CommandAborted),
		WithTransition(CommandAccepted, CommandProgress, TriggerStart),
		WithTransition(CommandAccepted, CommandTerminated, TriggerTerminate),
		WithTransition(CommandAccepted, CommandAborted, TriggerAbort),
		WithTransition(CommandProgress, CommandProgress, TriggerStep),
		WithTransition(CommandProgress, CommandTerminated, TriggerTerminate),
		WithTransition(CommandProgress, CommandAborted, TriggerAbort),
		WithStateTimeout(5 * time.Second),
	}
	return NewConfig(append(base, opts...)...)
}

// InReport lifecycle states (spec §4.2): a report is a single-pass
// machine — UpdateAction then ValidityCheck, then it retires regardless
// of the validity outcome.
const (
	ReportPending = "pending"
	ReportRetired = "retired"
)

const TriggerRetire = "retire"

// NewReportConfig builds the InReport single-pass machine.
func NewReportConfig(name string, opts ...Option) *Config {
	base := []Option{
		WithName(name),
		WithDescription("report update"),
		WithInitialState(ReportPending),
		WithSimpleStates(ReportPending, ReportRetired),
		WithTransition(ReportPending, ReportRetired, TriggerRetire),
		WithStateTimeout(5 * time.Second),
	}
	return NewConfig(append(base, opts...)...)
}

// OutComponent lifecycle states (spec §5.1): LOADED -> PENDING ->
// {TERMINATED, ABORTED}, gated on an enable flag and a ReadyCheck while
// LOADED, and on a RepeatCheck each execution cycle while PENDING.
const (
	OutLoaded     = "loaded"
	OutPending    = "pending"
	OutTerminated = "terminated"
	OutAborted    = "aborted"
)

const TriggerEnableReady = "enable_ready"

// NewOutComponentConfig builds the OutComponent send machine.
func NewOutComponentConfig(name string, opts ...Option) *Config {
	base := []Option{
		WithName(name),
		WithDescription("out component send"),
		WithInitialState(OutLoaded),
		WithSimpleStates(OutLoaded, OutPending, OutTerminated, OutAborted),
		WithTransition(OutLoaded, OutPending, TriggerEnableReady),
		WithTransition(OutLoaded, OutAborted, TriggerAbort),
		WithTransition(OutPending, OutPending, TriggerStep),
		WithTransition(OutPending, OutTerminated, TriggerTerminate),
		WithTransition(OutPending, OutAborted, TriggerAbort),
		WithStateTimeout(5 * time.Second),
	}
	return NewConfig(append(base, opts...)...)
}
