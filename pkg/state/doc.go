// SPDX-License-Identifier: BSD-3-Clause

// Package state provides a thread-safe finite state machine wrapper around
// github.com/qmuntal/stateless, used as the common engine behind every
// lifecycle and execution state machine in this module: component
// lifecycle (created/initialized/configured), command execution
// (accepted/progress/terminated/aborted), report update
// (pending/retired) and out-component sending
// (loaded/pending/terminated/aborted).
//
// # Core Concepts
//
// Machine: a computational model consisting of a finite number of states,
// transitions between those states, and actions. At any given time the
// machine is in exactly one state.
//
// State: a distinct condition the machine can be in, with optional entry
// and exit hooks run when the state is entered or left.
//
// Transition: a change from one state to another, triggered by an event
// (trigger). Transitions may carry a guard that must hold for the
// transition to be taken, and an action run once it is.
//
// # Basic Usage
//
//	cfg := NewConfig(
//		WithName("cmd-42"),
//		WithInitialState(CommandAccepted),
//		WithSimpleStates(CommandAccepted, CommandProgress, CommandTerminated, CommandAborted),
//		WithTransition(CommandAccepted, CommandProgress, TriggerStart),
//		WithTransition(CommandProgress, CommandTerminated, TriggerTerminate),
//	)
//	sm, err := New(cfg)
//	if err != nil {
//		return err
//	}
//	if err := sm.Start(ctx); err != nil {
//		return err
//	}
//	if err := sm.Fire(ctx, TriggerStart); err != nil {
//		return err
//	}
//
// # Persistence and broadcast
//
// A persistence callback, when PersistState is set, is invoked once at
// Start and after every successful Fire; a broadcast callback, set
// independently, runs after every successful Fire regardless of
// PersistState. Both must be installed before Start.
//
// # Presets
//
// builders.go exposes one Config preset per lifecycle machine this module
// needs (NewComponentLifecycleConfig, NewCommandConfig, NewReportConfig,
// NewOutComponentConfig) so that pkg/component, pkg/incommand, pkg/inreport
// and pkg/outcomponent do not each hand-roll state/trigger name tables.
//
// # Thread safety
//
// All Machine methods are safe for concurrent use; a read-write mutex
// allows concurrent reads (CurrentState, CanFire, PermittedTriggers) while
// serializing Fire against itself and against Start/Stop.
package state
