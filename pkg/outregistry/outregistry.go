// SPDX-License-Identifier: BSD-3-Clause

// Package outregistry implements OutRegistry (spec §4.12): the enable
// mask that gates which (servType, servSubType, discriminant) kinds may
// send, and the fixed tracking ring that lets a handler look up an
// OutComponent's last-known lifecycle state by instance id.
package outregistry

import (
	"sort"
	"sync"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/kind"
)

// State is the tracked lifecycle state of an OutComponent recorded in
// the tracking ring. Unlike pkg/inmanager.TrackState, OutRegistry has no
// notion of a slot being "empty" on its own — a ring entry is only ever
// overwritten, never cleared, since the ring is a bounded history, not a
// pool occupancy map.
type State int

const (
	Pending State = iota
	Terminated
	Aborted
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Terminated:
		return "terminated"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// entry is one tracking ring slot.
type entry struct {
	instanceID uint64
	state      State
	used       bool
}

// Registry is the OutRegistry singleton: one enable mask plus one
// tracking ring, shared by every OutManager's OutComponents.
type Registry struct {
	mu sync.Mutex

	services []kind.ServDescRow
	enabled  map[kind.Triple]bool

	ring       []entry
	ringIndex  int

	maxTracked    uint64
	anyTracked    bool

	latch *apperr.Latch
}

// Option configures a Registry at construction.
type Option func(*Registry)

// WithLatch overrides the default apperr.Global latch, letting tests use
// an isolated one.
func WithLatch(l *apperr.Latch) Option {
	return func(r *Registry) {
		if l != nil {
			r.latch = l
		}
	}
}

// New builds a Registry whose enable mask spans services (spec §4.13's
// service table) and whose tracking ring holds ringSize entries. Every
// kind starts disabled; callers enable the ones they serve via SetEnable.
func New(services []kind.ServDescRow, ringSize int, opts ...Option) (*Registry, error) {
	if err := kind.CheckServDescTable(services); err != nil {
		return nil, err
	}
	if ringSize <= 0 {
		ringSize = 1
	}
	r := &Registry{
		services: services,
		enabled:  make(map[kind.Triple]bool),
		ring:     make([]entry, ringSize),
		latch:    apperr.Global,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// rowFor finds the service descriptor row spanning (servType, servSubType).
func (r *Registry) rowFor(servType, servSubType uint16) (kind.ServDescRow, bool) {
	for _, row := range r.services {
		if row.ServType == servType && row.ServSubType == servSubType {
			return row, true
		}
	}
	return kind.ServDescRow{}, false
}

// SetEnable turns sending on or off for a (servType, servSubType,
// discriminant) kind. servSubType == 0 or discriminant == 0 is a wildcard
// spanning every sub-type or discriminant the service descriptor allows
// (spec §4.12 "wildcard semantics"). An out-of-range discriminant or an
// unknown (servType, servSubType) pair latches an application error and
// is otherwise a no-op; a sub-type wildcard over an unknown servType
// latches IllServType. Under a sub-type wildcard each sub-type is applied
// (and range-checked) on its own.
func (r *Registry) SetEnable(servType, servSubType, discriminant uint16, on bool) {
	if servSubType == 0 {
		r.mu.Lock()
		subTypes := r.subTypesFor(servType)
		r.mu.Unlock()
		if len(subTypes) == 0 {
			r.latch.Set(apperr.IllServType)
		}
		for _, st := range subTypes {
			r.SetEnable(servType, st, discriminant, on)
		}
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	row, ok := r.rowFor(servType, servSubType)
	if !ok {
		r.latch.Set(apperr.IllServSubType)
		return
	}
	if discriminant != 0 && discriminant > row.MaxDiscriminant {
		r.latch.Set(apperr.IllDiscriminant)
		return
	}

	subTypes := []uint16{servSubType}
	if servSubType == 0 {
		subTypes = r.subTypesFor(servType)
	}
	discs := []uint16{discriminant}
	if discriminant == 0 {
		discs = discsFor(row.MaxDiscriminant)
	}
	for _, st := range subTypes {
		for _, d := range discs {
			r.enabled[kind.Triple{ServType: servType, ServSubType: st, Discriminant: d}] = on
		}
	}
}

func (r *Registry) subTypesFor(servType uint16) []uint16 {
	var out []uint16
	for _, row := range r.services {
		if row.ServType == servType {
			out = append(out, row.ServSubType)
		}
	}
	return out
}

func discsFor(max uint16) []uint16 {
	out := make([]uint16, 0, max+1)
	for d := uint16(0); d <= max; d++ {
		out = append(out, d)
	}
	return out
}

// EnabledKinds returns every (servType, servSubType, discriminant) kind
// currently enabled, sorted in Triple order — for offline inspection
// (cmd/pusctl's "inspect registry"), not consulted by the pipeline.
func (r *Registry) EnabledKinds() []kind.Triple {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]kind.Triple, 0, len(r.enabled))
	for t, on := range r.enabled {
		if on {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

// IsEnabled implements pkg/outcomponent.EnableQuery: reports whether the
// exact (servType, servSubType, discriminant) kind is currently enabled.
func (r *Registry) IsEnabled(servType, servSubType, discriminant uint16) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.enabled[kind.Triple{ServType: servType, ServSubType: servSubType, Discriminant: discriminant}]
}

// StartTracking writes a Pending entry for instanceID at the next ring
// slot and returns that slot's index, to be recorded on the OutComponent
// via SetTrackingIndex (spec §4.12 "records ringIndex in the outCmp").
func (r *Registry) StartTracking(instanceID uint64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.ringIndex
	r.ring[idx] = entry{instanceID: instanceID, state: Pending, used: true}
	r.ringIndex = (r.ringIndex + 1) % len(r.ring)
	if !r.anyTracked || instanceID > r.maxTracked {
		r.maxTracked = instanceID
		r.anyTracked = true
	}
	return idx
}

// UpdateState writes newState at ringIndex only if the entry there still
// belongs to instanceID — the ring may have wrapped and been overwritten
// by a newer instance since StartTracking (spec §4.12).
func (r *Registry) UpdateState(ringIndex int, instanceID uint64, newState State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if ringIndex < 0 || ringIndex >= len(r.ring) {
		return
	}
	if r.ring[ringIndex].used && r.ring[ringIndex].instanceID == instanceID {
		r.ring[ringIndex].state = newState
	}
}

// LookupResult classifies GetState's outcome.
type LookupResult int

const (
	// Found means the instance's last-known state is in the ring.
	Found LookupResult = iota
	// NoEntry means instanceID was tracked at some point (it is at or
	// below the highest instance id StartTracking has ever seen) but its
	// ring slot has since been overwritten by newer traffic — spec §4.12
	// and §8 Scenario 4's "rolled out of the ring".
	NoEntry
	// NotTracked means instanceID is higher than any instance id
	// StartTracking has ever seen: it was never tracked at all.
	NotTracked
)

// GetState scans the ring backward from the most recently written slot
// for instanceID, the most recent match winning if instance ids were
// ever reused across a wraparound (they are not, in practice, since
// OutFactory's allocator is monotonic for the process lifetime). When no
// slot matches, it distinguishes "rolled out" from "never existed" by
// comparing instanceID against the highest instance id ever handed to
// StartTracking — OutFactory's allocator only ever increases, so an id
// at or below that high-water mark must have been tracked once.
func (r *Registry) GetState(instanceID uint64) (State, LookupResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.ring)
	for i := 0; i < n; i++ {
		idx := (r.ringIndex - 1 - i + n) % n
		e := r.ring[idx]
		if e.used && e.instanceID == instanceID {
			return e.state, Found
		}
	}
	if r.anyTracked && instanceID <= r.maxTracked {
		return Pending, NoEntry
	}
	return Pending, NotTracked
}
