// SPDX-License-Identifier: BSD-3-Clause

// Package outmanager implements OutManager (spec §4.11): the Pending
// OutComponent List (POCL), a fixed array of in-flight OutComponent
// instances each executed once per cycle until TERMINATED or ABORTED,
// at which point it is released back to its OutFactory pool and its
// registry tracking entry updated to match.
package outmanager

import (
	"context"
	"sync"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/outcomponent"
	"github.com/cordet/pus/pkg/outregistry"
)

// Releaser returns a retired OutComponent to its owning OutFactory pool.
type Releaser interface {
	Release(*outcomponent.Component)
}

// Registry is the narrow OutRegistry collaborator contract OutManager
// drives an OutComponent's enable gate and tracking entry through.
type Registry interface {
	outcomponent.EnableQuery
	StartTracking(instanceID uint64) int
	UpdateState(ringIndex int, instanceID uint64, newState outregistry.State)
}

// Manager is the OutManager singleton (one per configured manager slot).
type Manager struct {
	*component.Base

	mu     sync.Mutex
	pocl   []*outcomponent.Component
	cursor int
	rel    Releaser
	reg    Registry

	nOfOutCmpInPocl uint64
	nOfLoadedOutCmp uint64

	latch *apperr.Latch
}

// Option configures a Manager at construction.
type Option func(*Manager)

// WithLatch overrides the default apperr.Global latch, letting tests use
// an isolated one.
func WithLatch(l *apperr.Latch) Option {
	return func(m *Manager) {
		if l != nil {
			m.latch = l
		}
	}
}

// New constructs a Manager with a POCL of the given capacity.
func New(name string, capacity int, rel Releaser, reg Registry, opts ...Option) (*Manager, error) {
	m := &Manager{
		pocl:  make([]*outcomponent.Component, capacity),
		rel:   rel,
		reg:   reg,
		latch: apperr.Global,
	}
	for _, opt := range opts {
		opt(m)
	}
	base, err := component.New(name, component.Actions{
		ConfigAction:   m.releaseAll,
		ShutdownAction: m.releaseAll,
		Execute:        m.runCycle,
	})
	if err != nil {
		return nil, err
	}
	m.Base = base
	return m, nil
}

func (m *Manager) releaseAll(ctx context.Context) outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.pocl {
		m.release(i)
	}
	m.cursor = 0
	m.nOfLoadedOutCmp = 0
	return outcome.OK
}

// release frees slot i's component back to its factory and clears it.
// Caller must hold m.mu.
func (m *Manager) release(i int) {
	c := m.pocl[i]
	if c == nil {
		return
	}
	if m.rel != nil {
		m.rel.Release(c)
	}
	m.nOfOutCmpInPocl--
	m.pocl[i] = nil
}

// Load places cmp in the first free POCL slot, starting registry
// tracking for it and recording the returned ring index on the
// component itself (spec §4.11 "load", §4.12 "startTracking").
func (m *Manager) Load(cmp *outcomponent.Component) outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pocl)
	for i := 0; i < n; i++ {
		idx := (m.cursor + i) % n
		if m.pocl[idx] == nil {
			m.pocl[idx] = cmp
			m.cursor = (idx + 1) % n
			m.nOfOutCmpInPocl++
			m.nOfLoadedOutCmp++
			if m.reg != nil {
				ringIdx := m.reg.StartTracking(cmp.InstanceID())
				cmp.SetTrackingIndex(ringIdx)
			}
			return outcome.OK
		}
	}
	m.cursor = 0
	m.latch.Set(apperr.OutManagerPoclFull)
	return outcome.Fail(outcome.CodeNoFreeSlot)
}

// runCycle executes every occupied POCL slot once, releasing any
// component that reached TERMINATED or ABORTED this cycle (spec §4.11).
func (m *Manager) runCycle(ctx context.Context) outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, c := range m.pocl {
		if c == nil {
			continue
		}
		c.Step(ctx, m.reg)

		switch {
		case c.IsTerminated():
			m.updateTracking(c, outregistry.Terminated)
			m.release(i)
		case c.IsAborted():
			m.updateTracking(c, outregistry.Aborted)
			m.release(i)
		default:
			m.updateTracking(c, outregistry.Pending)
		}
	}
	return outcome.OK
}

func (m *Manager) updateTracking(c *outcomponent.Component, st outregistry.State) {
	if m.reg == nil {
		return
	}
	if idx, ok := c.TrackingIndex(); ok {
		m.reg.UpdateState(idx, c.InstanceID(), st)
	}
}

// NOfInPocl returns the number of occupied POCL slots.
func (m *Manager) NOfInPocl() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nOfOutCmpInPocl
}

// NOfLoaded returns the monotonic count of loads since the last reset.
func (m *Manager) NOfLoaded() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nOfLoadedOutCmp
}
