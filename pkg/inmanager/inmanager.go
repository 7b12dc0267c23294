// SPDX-License-Identifier: BSD-3-Clause

// Package inmanager implements InManager (spec §4.10): the Pending
// Command Report List (PCRL), a fixed array of in-flight InCommand and
// InReport instances executed once per cycle until retirement.
package inmanager

import (
	"context"
	"sync"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/component"
	"github.com/cordet/pus/pkg/incommand"
	"github.com/cordet/pus/pkg/inreport"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/state"
)

// TrackState is the tracking state InManager records for an in-flight
// instance — a simpler sibling of OutRegistry's tracked State, since
// InCommand/InReport tracking has no enable mask to consult (spec §4.10's
// "starts registry tracking" / "update registry state").
type TrackState int

const (
	Pending TrackState = iota
	Terminated
	Aborted
)

type slotKind int

const (
	slotEmpty slotKind = iota
	slotCommand
	slotReport
)

type slot struct {
	kind slotKind
	cmd  *incommand.Command
	rep  *inreport.Report
}

func (s slot) instanceID() uint64 {
	switch s.kind {
	case slotCommand:
		return s.cmd.InstanceID()
	case slotReport:
		return s.rep.InstanceID()
	default:
		return 0
	}
}

// CommandReleaser and ReportReleaser return retired instances to their
// owning InFactory pool.
type CommandReleaser interface{ ReleaseCommand(*incommand.Command) }
type ReportReleaser interface{ ReleaseReport(*inreport.Report) }

// Tracker is the narrow OutRegistry-style tracking contract InManager
// updates as commands/reports progress, if one is wired.
type Tracker interface {
	UpdateState(instanceID uint64, st TrackState)
}

// Manager is the InManager singleton (one per configured manager slot).
type Manager struct {
	*component.Base

	mu       sync.Mutex
	pcrl     []slot
	cursor   int
	cmdRel   CommandReleaser
	repRel   ReportReleaser
	tracker  Tracker

	nOfInCmpInPcrl uint64
	nOfLoadedInCmp uint64

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

// New constructs a Manager with a PCRL of the given capacity.
func New(name string, capacity int, cmdRel CommandReleaser, repRel ReportReleaser, tracker Tracker, opts ...Option) (*Manager, error) {
	m := &Manager{
		pcrl:    make([]slot, capacity),
		cmdRel:  cmdRel,
		repRel:  repRel,
		tracker: tracker,
		latch:   apperr.Global,
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
	for i := range m.pcrl {
		m.release(i)
	}
	m.cursor = 0
	m.nOfLoadedInCmp = 0
	return outcome.OK
}

// release frees slot i's instance back to its factory and clears it.
// Caller must hold m.mu.
func (m *Manager) release(i int) {
	s := m.pcrl[i]
	switch s.kind {
	case slotCommand:
		if m.cmdRel != nil {
			m.cmdRel.ReleaseCommand(s.cmd)
		}
	case slotReport:
		if m.repRel != nil {
			m.repRel.ReleaseReport(s.rep)
		}
	}
	if s.kind != slotEmpty {
		m.nOfInCmpInPcrl--
	}
	m.pcrl[i] = slot{}
}

// LoadCommand places cmd in the first free PCRL slot, starting the scan
// from a cached cursor invalidated on reset/full-scan (spec §4.10).
func (m *Manager) LoadCommand(cmd *incommand.Command) outcome.Outcome {
	return m.load(slot{kind: slotCommand, cmd: cmd})
}

// Load implements pkg/inloader.ManagerLoad.
func (m *Manager) Load(cmd *incommand.Command) outcome.Outcome {
	return m.LoadCommand(cmd)
}

// LoadReport places rep in the first free PCRL slot.
func (m *Manager) LoadReport(rep *inreport.Report) outcome.Outcome {
	return m.load(slot{kind: slotReport, rep: rep})
}

func (m *Manager) load(s slot) outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.pcrl)
	for i := 0; i < n; i++ {
		idx := (m.cursor + i) % n
		if m.pcrl[idx].kind == slotEmpty {
			m.pcrl[idx] = s
			m.cursor = (idx + 1) % n
			m.nOfInCmpInPcrl++
			m.nOfLoadedInCmp++
			if m.tracker != nil {
				m.tracker.UpdateState(s.instanceID(), Pending)
			}
			return outcome.OK
		}
	}
	m.cursor = 0
	m.latch.Set(apperr.InManagerPcrlFull)
	return outcome.Fail(outcome.CodeNoFreeSlot)
}

// runCycle walks the PCRL in index order, executing each non-empty
// entry and retiring it on completion (spec §4.10).
func (m *Manager) runCycle(ctx context.Context) outcome.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.pcrl {
		s := m.pcrl[i]
		switch s.kind {
		case slotEmpty:
			continue
		case slotReport:
			s.rep.Run(ctx)
			if m.tracker != nil {
				m.tracker.UpdateState(s.instanceID(), Terminated)
			}
			m.release(i)
		case slotCommand:
			m.stepCommand(ctx, i, s.cmd)
		}
	}
	return outcome.OK
}

func (m *Manager) stepCommand(ctx context.Context, i int, cmd *incommand.Command) {
	switch {
	case cmd.CmdState() == state.CommandAccepted:
		cmd.Start(ctx)
	case cmd.CmdState() == state.CommandProgress && cmd.IsReadyForTermination():
		cmd.Terminate(ctx)
	case cmd.CmdState() == state.CommandProgress:
		cmd.Step(ctx)
	}

	switch {
	case cmd.IsTerminated():
		if m.tracker != nil {
			m.tracker.UpdateState(cmd.InstanceID(), Terminated)
		}
		m.release(i)
	case cmd.IsAborted():
		if m.tracker != nil {
			m.tracker.UpdateState(cmd.InstanceID(), Aborted)
		}
		m.release(i)
	default:
		if m.tracker != nil {
			m.tracker.UpdateState(cmd.InstanceID(), Pending)
		}
	}
}

// NOfInPcrl returns the number of occupied PCRL slots.
func (m *Manager) NOfInPcrl() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nOfInCmpInPcrl
}

// NOfLoaded returns the monotonic count of loads since the last reset.
func (m *Manager) NOfLoaded() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nOfLoadedInCmp
}
