// SPDX-License-Identifier: BSD-3-Clause

// Package outfactory implements OutFactory (spec §4.4): a fixed pool of
// pre-built OutComponent instances, handed out by Make and returned by
// Release, stamped with a monotonic instanceId on every bind.
package outfactory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/outcomponent"
	"github.com/cordet/pus/pkg/pckt"
)

// Factory owns the fixed OutComponent pool.
type Factory struct {
	mu sync.Mutex

	rows []kind.OutCmpRow

	slots []*outcomponent.Component
	free  []bool

	nextInstanceID atomic.Uint64
}

// New builds a Factory with nSlots OutComponent instances, validating
// the kind table is strictly ordered and every packet length positive
// (spec §4.4, §4.13, §8).
func New(nSlots int, rows []kind.OutCmpRow) (*Factory, error) {
	if err := kind.CheckOutCmpTable(rows); err != nil {
		return nil, err
	}

	f := &Factory{rows: rows}
	f.slots = make([]*outcomponent.Component, nSlots)
	f.free = make([]bool, nSlots)

	ctx := context.Background()
	for i := range f.slots {
		c, err := outcomponent.New("out-cmp")
		if err != nil {
			return nil, err
		}
		if o := c.Init(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		if o := c.Configure(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		f.slots[i] = c
		f.free[i] = true
	}

	return f, nil
}

// Make finds the kind row matching t, claims a free OutComponent slot,
// binds it to p and destGroup, and resets its nested machine to LOADED.
// Returns outcome.CodeWrongType if no row matches, outcome.CodeNoFreeSlot
// if the pool is exhausted.
func (f *Factory) Make(ctx context.Context, t kind.Triple, p pckt.Packet, destGroup uint32) (*outcomponent.Component, outcome.Outcome) {
	row, ok := kind.FindOutCmp(f.rows, t)
	if !ok {
		return nil, outcome.Fail(outcome.CodeWrongType)
	}

	f.mu.Lock()
	idx := -1
	for i, free := range f.free {
		if free {
			idx = i
			f.free[i] = false
			break
		}
	}
	f.mu.Unlock()
	if idx < 0 {
		return nil, outcome.Fail(outcome.CodeNoFreeSlot)
	}

	c := f.slots[idx]
	c.Bind(f.nextInstanceID.Add(1), t, row.Actions, p, destGroup)
	if o := c.Configure(ctx); !o.IsSuccess() {
		f.Release(c)
		return nil, o
	}
	return c, outcome.OK
}

// Release returns c to the free pool.
func (f *Factory) Release(c *outcomponent.Component) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, slot := range f.slots {
		if slot == c {
			f.free[i] = true
			return
		}
	}
}

// RowFor returns the kind row for t, if configured.
func (f *Factory) RowFor(t kind.Triple) (kind.OutCmpRow, bool) {
	return kind.FindOutCmp(f.rows, t)
}

// NFree returns the number of free OutComponent slots.
func (f *Factory) NFree() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, free := range f.free {
		if free {
			n++
		}
	}
	return n
}
