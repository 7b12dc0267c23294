// SPDX-License-Identifier: BSD-3-Clause

// Package component implements the BaseComponent lifecycle shared by every
// managed component in the pipeline (spec §4.1):
//
//	CREATED --init--> INITIALIZED --configure--> CONFIGURED --execute*--> CONFIGURED
//	                       |                          |
//	                       +---------shutdown---------+--> CREATED
//
// The four actions and two checks are per-variant overrides of defaults
// that succeed trivially (spec §9's "capability record": a struct of
// function fields resolved once at construction, never a vtable).
package component

import (
	"context"

	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/state"
)

func trivialSuccess(context.Context) outcome.Outcome { return outcome.OK }

// Actions is the capability record a variant supplies to Base. Any nil
// field defaults to a no-op success, matching spec §4.1's "defaults that
// succeed trivially".
type Actions struct {
	InitCheck      func(ctx context.Context) outcome.Outcome
	InitAction     func(ctx context.Context) outcome.Outcome
	ConfigCheck    func(ctx context.Context) outcome.Outcome
	ConfigAction   func(ctx context.Context) outcome.Outcome // called "reset" in the source
	ShutdownAction func(ctx context.Context) outcome.Outcome
	Execute        func(ctx context.Context) outcome.Outcome // the Execution Procedure
}

func (a Actions) fill() Actions {
	if a.InitCheck == nil {
		a.InitCheck = trivialSuccess
	}
	if a.InitAction == nil {
		a.InitAction = trivialSuccess
	}
	if a.ConfigCheck == nil {
		a.ConfigCheck = trivialSuccess
	}
	if a.ConfigAction == nil {
		a.ConfigAction = trivialSuccess
	}
	if a.ShutdownAction == nil {
		a.ShutdownAction = trivialSuccess
	}
	if a.Execute == nil {
		a.Execute = trivialSuccess
	}
	return a
}

// Base is the BaseComponent lifecycle trait, composed into every InStream,
// OutStream, InLoader, InManager, OutLoader, OutManager, InCommand,
// InReport and OutComponent.
type Base struct {
	name    string
	actions Actions
	machine *state.Machine

	lastOutcome outcome.Outcome
}

// New constructs a Base named name with the given capability record. The
// component starts in state.ComponentCreated.
func New(name string, actions Actions) (*Base, error) {
	cfg := state.NewComponentLifecycleConfig(name)
	m, err := state.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Start(context.Background()); err != nil {
		return nil, err
	}
	return &Base{name: name, actions: actions.fill(), machine: m}, nil
}

// Name returns the component's name.
func (b *Base) Name() string { return b.name }

// State returns the component's current lifecycle state.
func (b *Base) State() string { return b.machine.CurrentState() }

// IsConfigured reports whether the component is in state.ComponentConfigured.
func (b *Base) IsConfigured() bool { return b.machine.IsInState(state.ComponentConfigured) }

// LastOutcome returns the outcome of the most recently run lifecycle
// action (Init, Configure, Shutdown or Execute).
func (b *Base) LastOutcome() outcome.Outcome { return b.lastOutcome }

// Init runs InitCheck then InitAction; on success the component moves to
// INITIALIZED. Failure leaves it in CREATED with the failure outcome
// recorded.
func (b *Base) Init(ctx context.Context) outcome.Outcome {
	if o := b.actions.InitCheck(ctx); !o.IsSuccess() {
		b.lastOutcome = o
		return o
	}
	o := b.actions.InitAction(ctx)
	if !o.IsSuccess() {
		b.lastOutcome = o
		return o
	}
	if err := b.machine.Fire(ctx, state.TriggerInitialize); err != nil {
		o = outcome.Fail(outcome.CodeInvalid)
		b.lastOutcome = o
		return o
	}
	b.lastOutcome = outcome.OK
	return outcome.OK
}

// Configure runs ConfigCheck then ConfigAction ("reset" in the source);
// idempotent — callable repeatedly from CONFIGURED to return to a fresh
// configured state.
func (b *Base) Configure(ctx context.Context) outcome.Outcome {
	if b.machine.CurrentState() == state.ComponentCreated {
		o := outcome.Fail(outcome.CodeInvalid)
		b.lastOutcome = o
		return o
	}
	if o := b.actions.ConfigCheck(ctx); !o.IsSuccess() {
		b.lastOutcome = o
		return o
	}
	o := b.actions.ConfigAction(ctx)
	if !o.IsSuccess() {
		b.lastOutcome = o
		return o
	}
	if err := b.machine.Fire(ctx, state.TriggerConfigure); err != nil {
		o = outcome.Fail(outcome.CodeInvalid)
		b.lastOutcome = o
		return o
	}
	b.lastOutcome = outcome.OK
	return outcome.OK
}

// Execute delegates to the component's Execution Procedure. Only valid
// from CONFIGURED; it is a no-op in most leaf components.
func (b *Base) Execute(ctx context.Context) outcome.Outcome {
	if !b.IsConfigured() {
		o := outcome.Fail(outcome.CodeInvalid)
		b.lastOutcome = o
		return o
	}
	o := b.actions.Execute(ctx)
	b.lastOutcome = o
	return o
}

// Shutdown runs ShutdownAction and moves the component back to CREATED.
func (b *Base) Shutdown(ctx context.Context) outcome.Outcome {
	o := b.actions.ShutdownAction(ctx)
	b.lastOutcome = o
	if err := b.machine.Fire(ctx, state.TriggerShutdown); err != nil && o.IsSuccess() {
		o = outcome.Fail(outcome.CodeInvalid)
		b.lastOutcome = o
	}
	return o
}
