// SPDX-License-Identifier: BSD-3-Clause

package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/qmuntal/stateless"
)

// Machine is a thread-safe finite state machine wrapper around
// github.com/qmuntal/stateless, adding bounded-timeout firing, an optional
// persistence callback and an optional broadcast callback. Every
// component lifecycle machine, command machine, report machine and
// out-component machine in this module is built on top of one.
type Machine struct {
	config  *Config
	machine *stateless.StateMachine
	mu      sync.RWMutex
	started bool
	stopped bool

	currentState      string
	stateActions      map[string]StateDefinition
	transitionMap     map[string]map[string]TransitionDefinition
	persistCallback   PersistenceCallback
	broadcastCallback BroadcastCallback
}

// New constructs a Machine from config, which must validate.
func New(config *Config) (*Machine, error) {
	if config == nil {
		return nil, ErrInvalidConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	sm := &Machine{
		config:        config,
		currentState:  config.InitialState,
		stateActions:  make(map[string]StateDefinition),
		transitionMap: make(map[string]map[string]TransitionDefinition),
	}

	sm.machine = stateless.NewStateMachine(config.InitialState)

	for _, s := range config.States {
		sm.stateActions[s.Name] = s
		sm.configureState(s)
	}
	for _, t := range config.Transitions {
		sm.configureTransition(t)
	}

	return sm, nil
}

// SetPersistenceCallback installs the persistence callback. Fails if the
// machine has already started.
func (sm *Machine) SetPersistenceCallback(callback PersistenceCallback) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.started {
		return ErrStateMachineAlreadyStarted
	}
	sm.persistCallback = callback
	return nil
}

// SetBroadcastCallback installs the broadcast callback. Fails if the
// machine has already started.
func (sm *Machine) SetBroadcastCallback(callback BroadcastCallback) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if sm.started {
		return ErrStateMachineAlreadyStarted
	}
	sm.broadcastCallback = callback
	return nil
}

// Start marks the machine ready to Fire, persisting the initial state if
// PersistState is enabled. Calling Start twice is a no-op.
func (sm *Machine) Start(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.started {
		return nil
	}
	if sm.stopped {
		return ErrStateMachineStopped
	}
	sm.started = true

	if sm.config.PersistState && sm.persistCallback != nil {
		if err := sm.persistCallback(sm.config.Name, sm.currentState); err != nil {
			return fmt.Errorf("%w: %w", ErrPersistenceFailed, err)
		}
	}
	return nil
}

// Stop marks the machine as stopped; subsequent Fire calls fail.
func (sm *Machine) Stop(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.started || sm.stopped {
		return nil
	}
	sm.stopped = true
	return nil
}

// Fire attempts trigger from the current state, blocking at most
// config.StateTimeout. On success the persistence and broadcast callbacks
// run after the internal lock is released, so neither can deadlock
// against a re-entrant Fire.
func (sm *Machine) Fire(ctx context.Context, trigger string) error {
	sm.mu.Lock()

	if !sm.started {
		sm.mu.Unlock()
		return ErrStateMachineNotStarted
	}
	if sm.stopped {
		sm.mu.Unlock()
		return ErrStateMachineStopped
	}

	if ok, err := sm.machine.CanFire(trigger); err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("%w: trigger %s not valid in state %s: %w", ErrInvalidTrigger, trigger, sm.currentState, err)
	} else if !ok {
		sm.mu.Unlock()
		return fmt.Errorf("%w: trigger %s not valid in state %s", ErrInvalidTrigger, trigger, sm.currentState)
	}

	previousState := sm.currentState

	timeout := sm.config.StateTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	fireCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		if err := sm.machine.FireCtx(fireCtx, trigger); err != nil {
			done <- fmt.Errorf("%w: %w", ErrInvalidTransition, err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err != nil {
			sm.mu.Unlock()
			return err
		}
	case <-fireCtx.Done():
		sm.mu.Unlock()
		if fireCtx.Err() == context.DeadlineExceeded {
			return ErrTransitionTimeout
		}
		return fireCtx.Err()
	}

	st, err := sm.machine.State(ctx)
	if err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("failed to read current state: %w", err)
	}
	sm.currentState = fmt.Sprintf("%v", st)

	name := sm.config.Name
	curr := sm.currentState
	persistEnabled := sm.config.PersistState
	persistCb := sm.persistCallback
	broadcastCb := sm.broadcastCallback
	sm.mu.Unlock()

	if persistEnabled && persistCb != nil {
		if perr := persistCb(name, curr); perr != nil {
			return fmt.Errorf("%w: %w", ErrPersistenceFailed, perr)
		}
	}
	if broadcastCb != nil {
		_ = broadcastCb(name, previousState, curr, trigger)
	}
	return nil
}

// CurrentState returns the machine's current state name.
func (sm *Machine) CurrentState() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState
}

// CanFire reports whether trigger is valid from the current state.
func (sm *Machine) CanFire(trigger string) (bool, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.machine.CanFire(trigger)
}

// PermittedTriggers lists the triggers valid from the current state.
func (sm *Machine) PermittedTriggers() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	triggers, err := sm.machine.PermittedTriggers()
	if err != nil {
		return nil
	}
	out := make([]string, len(triggers))
	for i, t := range triggers {
		out[i] = fmt.Sprintf("%v", t)
	}
	return out
}

// IsInState reports whether the machine is currently in state.
func (sm *Machine) IsInState(st string) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.currentState == st
}

// Name returns the machine's configured name.
func (sm *Machine) Name() string { return sm.config.Name }

// Description returns the machine's configured description.
func (sm *Machine) Description() string { return sm.config.Description }

// GetStateInfo returns the StateDefinition for st.
func (sm *Machine) GetStateInfo(st string) (StateDefinition, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	def, ok := sm.stateActions[st]
	if !ok {
		return StateDefinition{}, fmt.Errorf("%w: %s", ErrInvalidState, st)
	}
	return def, nil
}

// ToGraph returns a DOT graph of the machine, useful for documentation and
// debugging.
func (sm *Machine) ToGraph() string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.machine.ToGraph()
}

func (sm *Machine) configureState(s StateDefinition) {
	cfg := sm.machine.Configure(s.Name)
	if s.OnEntry != nil {
		cfg.OnEntry(func(ctx context.Context, _ ...any) error { return s.OnEntry(ctx) })
	}
	if s.OnExit != nil {
		cfg.OnExit(func(ctx context.Context, _ ...any) error { return s.OnExit(ctx) })
	}
}

func (sm *Machine) configureTransition(t TransitionDefinition) {
	if sm.transitionMap[t.From] == nil {
		sm.transitionMap[t.From] = make(map[string]TransitionDefinition)
	}
	sm.transitionMap[t.From][t.Trigger] = t

	fromCfg := sm.machine.Configure(t.From)
	if t.Guard != nil {
		fromCfg.PermitDynamic(t.Trigger, func(ctx context.Context, _ ...any) (any, error) {
			if t.Guard(ctx) {
				return t.To, nil
			}
			return nil, ErrTransitionGuardFailed
		})
	} else {
		fromCfg.Permit(t.Trigger, t.To)
	}

	if t.Action != nil {
		toCfg := sm.machine.Configure(t.To)
		toCfg.OnEntryFrom(t.Trigger, func(ctx context.Context, _ ...any) error {
			return t.Action(ctx, t.From, t.To)
		})
	}
}

// Manager owns a named set of Machines, used by the framework scheduler to
// drive every component/command/report/out-component machine in one place.
type Manager struct {
	mu       sync.RWMutex
	machines map[string]*Machine
}

// NewManager constructs an empty Manager.
func NewManager() *Manager {
	return &Manager{machines: make(map[string]*Machine)}
}

// Add registers sm under its Name, failing if that name is already taken.
func (m *Manager) Add(sm *Machine) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sm == nil {
		return fmt.Errorf("%w: nil machine", ErrInvalidConfig)
	}
	if _, exists := m.machines[sm.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrStateMachineExists, sm.Name())
	}
	m.machines[sm.Name()] = sm
	return nil
}

// Remove drops the named machine from the manager.
func (m *Manager) Remove(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.machines[name]; !exists {
		return fmt.Errorf("%w: %s", ErrStateMachineNotFound, name)
	}
	delete(m.machines, name)
	return nil
}

// Get looks up a machine by name.
func (m *Manager) Get(name string) (*Machine, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sm, exists := m.machines[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrStateMachineNotFound, name)
	}
	return sm, nil
}

// List returns the names of every managed machine.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.machines))
	for name := range m.machines {
		names = append(names, name)
	}
	return names
}

// StopAll stops every managed machine, joining any errors encountered.
func (m *Manager) StopAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var errs []error
	for _, sm := range m.machines {
		if err := sm.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
