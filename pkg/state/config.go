// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"fmt"
	"time"
)

// Config holds the configuration for a state machine wrapper.
type Config struct {
	// Name is the unique identifier for the state machine.
	Name string
	// Description provides human-readable information about the state machine.
	Description string
	// InitialState is the starting state of the machine.
	InitialState string
	// States defines every state the machine can be in, along with its
	// entry/exit hooks.
	States []StateDefinition
	// Transitions defines the allowed from/to/trigger edges, each with an
	// optional guard and an optional action run on entry to To.
	Transitions []TransitionDefinition
	// StateTimeout bounds how long a single Fire call may take.
	StateTimeout time.Duration
	// PersistState, when true, invokes the persistence callback after
	// every successful transition (and once at Start).
	PersistState bool
}

// StateDefinition describes one state of the machine.
type StateDefinition struct {
	Name    string
	OnEntry func(ctx context.Context) error
	OnExit  func(ctx context.Context) error
}

// TransitionDefinition describes one edge of the machine.
type TransitionDefinition struct {
	From    string
	To      string
	Trigger string
	Guard   func(ctx context.Context) bool
	Action  func(ctx context.Context, from, to string) error
}

// PersistenceCallback is invoked when a state change needs to be persisted.
type PersistenceCallback func(machineName, state string) error

// BroadcastCallback is invoked after every successful state change.
type BroadcastCallback func(machineName, previousState, currentState, trigger string) error

// Option configures a Config.
type Option interface {
	apply(*Config)
}

type nameOption struct{ name string }

func (o nameOption) apply(c *Config) { c.Name = o.name }

// WithName sets the name of the state machine.
func WithName(name string) Option { return nameOption{name} }

type descriptionOption struct{ description string }

func (o descriptionOption) apply(c *Config) { c.Description = o.description }

// WithDescription sets the description of the state machine.
func WithDescription(description string) Option { return descriptionOption{description} }

type initialStateOption struct{ state string }

func (o initialStateOption) apply(c *Config) { c.InitialState = o.state }

// WithInitialState sets the initial state of the state machine.
func WithInitialState(state string) Option { return initialStateOption{state} }

type statesOption struct{ states []StateDefinition }

func (o statesOption) apply(c *Config) { c.States = append(c.States, o.states...) }

// WithStates adds states to the machine.
func WithStates(states ...StateDefinition) Option { return statesOption{states} }

// WithSimpleStates adds bare states with no entry/exit hooks, a shorthand
// for the common case of naming states without instrumenting them.
func WithSimpleStates(names ...string) Option {
	defs := make([]StateDefinition, len(names))
	for i, n := range names {
		defs[i] = StateDefinition{Name: n}
	}
	return statesOption{defs}
}

type transitionOption struct{ t TransitionDefinition }

func (o transitionOption) apply(c *Config) { c.Transitions = append(c.Transitions, o.t) }

// WithTransition adds an unconditional transition.
func WithTransition(from, to, trigger string) Option {
	return transitionOption{TransitionDefinition{From: from, To: to, Trigger: trigger}}
}

// WithGuardedTransition adds a transition gated on guard.
func WithGuardedTransition(from, to, trigger string, guard func(ctx context.Context) bool) Option {
	return transitionOption{TransitionDefinition{From: from, To: to, Trigger: trigger, Guard: guard}}
}

// WithActionTransition adds a transition that runs action on entry to To.
func WithActionTransition(from, to, trigger string, action func(ctx context.Context, from, to string) error) Option {
	return transitionOption{TransitionDefinition{From: from, To: to, Trigger: trigger, Action: action}}
}

// WithCompleteTransition adds a transition with both a guard and an action.
func WithCompleteTransition(from, to, trigger string, guard func(ctx context.Context) bool, action func(ctx context.Context, from, to string) error) Option {
	return transitionOption{TransitionDefinition{From: from, To: to, Trigger: trigger, Guard: guard, Action: action}}
}

type stateTimeoutOption struct{ timeout time.Duration }

func (o stateTimeoutOption) apply(c *Config) { c.StateTimeout = o.timeout }

// WithStateTimeout sets the maximum duration a single Fire call may take.
func WithStateTimeout(timeout time.Duration) Option { return stateTimeoutOption{timeout} }

type persistOption struct{ enabled bool }

func (o persistOption) apply(c *Config) { c.PersistState = o.enabled }

// WithPersistState enables invoking the persistence callback on transitions.
func WithPersistState(enabled bool) Option { return persistOption{enabled} }

// NewConfig builds a Config from options, defaulting StateTimeout to 30s.
func NewConfig(opts ...Option) *Config {
	cfg := &Config{StateTimeout: 30 * time.Second}
	for _, opt := range opts {
		opt.apply(cfg)
	}
	return cfg
}

// Validate checks internal consistency: a named initial state among a
// deduplicated state set, and transitions that only reference known states.
func (c *Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidConfig)
	}
	if c.InitialState == "" {
		return fmt.Errorf("%w: initial state cannot be empty", ErrInvalidConfig)
	}
	if len(c.States) == 0 {
		return fmt.Errorf("%w: at least one state must be defined", ErrInvalidConfig)
	}

	initialFound := false
	names := make(map[string]bool, len(c.States))
	for _, s := range c.States {
		if s.Name == "" {
			return fmt.Errorf("%w: state name cannot be empty", ErrInvalidConfig)
		}
		if names[s.Name] {
			return fmt.Errorf("%w: duplicate state name: %s", ErrInvalidConfig, s.Name)
		}
		names[s.Name] = true
		if s.Name == c.InitialState {
			initialFound = true
		}
	}
	if !initialFound {
		return fmt.Errorf("%w: initial state %s not found in states list", ErrInvalidConfig, c.InitialState)
	}

	for _, t := range c.Transitions {
		if t.From == "" || t.To == "" {
			return fmt.Errorf("%w: transition from and to states cannot be empty", ErrInvalidConfig)
		}
		if t.Trigger == "" {
			return fmt.Errorf("%w: transition trigger cannot be empty", ErrInvalidConfig)
		}
		if !names[t.From] {
			return fmt.Errorf("%w: transition from state %s not found", ErrInvalidConfig, t.From)
		}
		if !names[t.To] {
			return fmt.Errorf("%w: transition to state %s not found", ErrInvalidConfig, t.To)
		}
	}

	if c.StateTimeout <= 0 {
		return fmt.Errorf("%w: state timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
