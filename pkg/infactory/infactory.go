// SPDX-License-Identifier: BSD-3-Clause

// Package infactory implements InFactory (spec §4.4): fixed pools of
// pre-built InCommand and InReport instances, handed out by Make and
// returned by Release, with a monotonic instanceId stamped on every
// bind.
package infactory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/cordet/pus/pkg/incommand"
	"github.com/cordet/pus/pkg/inreport"
	"github.com/cordet/pus/pkg/kind"
	"github.com/cordet/pus/pkg/outcome"
	"github.com/cordet/pus/pkg/pckt"
)

// Factory owns the fixed InCommand and InReport pools.
type Factory struct {
	mu sync.Mutex

	cmdRows []kind.InCmdRow
	repRows []kind.InRepRow

	cmdSlots []*incommand.Command
	cmdFree  []bool

	repSlots []*inreport.Report
	repFree  []bool

	nextInstanceID atomic.Uint64
}

// New builds a Factory with nCmdSlots InCommand instances and nRepSlots
// InReport instances, validating both kind tables are strictly ordered
// (spec §4.4, §8).
func New(nCmdSlots, nRepSlots int, cmdRows []kind.InCmdRow, repRows []kind.InRepRow) (*Factory, error) {
	if err := kind.CheckInCmdTable(cmdRows); err != nil {
		return nil, err
	}
	if err := kind.CheckInRepTable(repRows); err != nil {
		return nil, err
	}

	f := &Factory{cmdRows: cmdRows, repRows: repRows}

	f.cmdSlots = make([]*incommand.Command, nCmdSlots)
	f.cmdFree = make([]bool, nCmdSlots)
	ctx := context.Background()
	for i := range f.cmdSlots {
		c, err := incommand.New("in-cmd")
		if err != nil {
			return nil, err
		}
		if o := c.Init(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		if o := c.Configure(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		f.cmdSlots[i] = c
		f.cmdFree[i] = true
	}

	f.repSlots = make([]*inreport.Report, nRepSlots)
	f.repFree = make([]bool, nRepSlots)
	for i := range f.repSlots {
		r, err := inreport.New("in-rep")
		if err != nil {
			return nil, err
		}
		if o := r.Init(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		if o := r.Configure(ctx); !o.IsSuccess() {
			return nil, outcome.Fail(o.Code)
		}
		f.repSlots[i] = r
		f.repFree[i] = true
	}

	return f, nil
}

// MakeCommand finds the kind row matching t, claims a free InCommand slot,
// binds it to p, and resets its nested machine to ACCEPTED. Returns
// outcome.CodeWrongType if no row matches, outcome.CodeNoFreeSlot if the
// pool is exhausted.
func (f *Factory) MakeCommand(ctx context.Context, t kind.Triple, p pckt.Packet) (*incommand.Command, outcome.Outcome) {
	row, ok := kind.FindInCmd(f.cmdRows, t)
	if !ok {
		return nil, outcome.Fail(outcome.CodeWrongType)
	}

	f.mu.Lock()
	idx := -1
	for i, free := range f.cmdFree {
		if free {
			idx = i
			f.cmdFree[i] = false
			break
		}
	}
	f.mu.Unlock()
	if idx < 0 {
		return nil, outcome.Fail(outcome.CodeNoFreeSlot)
	}

	c := f.cmdSlots[idx]
	c.Bind(f.nextInstanceID.Add(1), t, row.Actions, p)
	if o := c.Configure(ctx); !o.IsSuccess() {
		f.ReleaseCommand(c)
		return nil, o
	}
	return c, outcome.OK
}

// ReleaseCommand returns c to the free pool.
func (f *Factory) ReleaseCommand(c *incommand.Command) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, slot := range f.cmdSlots {
		if slot == c {
			f.cmdFree[i] = true
			return
		}
	}
}

// MakeReport is MakeCommand for the InReport pool.
func (f *Factory) MakeReport(ctx context.Context, t kind.Triple, p pckt.Packet) (*inreport.Report, outcome.Outcome) {
	row, ok := kind.FindInRep(f.repRows, t)
	if !ok {
		return nil, outcome.Fail(outcome.CodeWrongType)
	}

	f.mu.Lock()
	idx := -1
	for i, free := range f.repFree {
		if free {
			idx = i
			f.repFree[i] = false
			break
		}
	}
	f.mu.Unlock()
	if idx < 0 {
		return nil, outcome.Fail(outcome.CodeNoFreeSlot)
	}

	r := f.repSlots[idx]
	r.Bind(f.nextInstanceID.Add(1), t, row.Actions, p)
	if o := r.Configure(ctx); !o.IsSuccess() {
		f.ReleaseReport(r)
		return nil, o
	}
	return r, outcome.OK
}

// ReleaseReport returns r to the free pool.
func (f *Factory) ReleaseReport(r *inreport.Report) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, slot := range f.repSlots {
		if slot == r {
			f.repFree[i] = true
			return
		}
	}
}

// NCmdFree returns the number of free InCommand slots.
func (f *Factory) NCmdFree() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, free := range f.cmdFree {
		if free {
			n++
		}
	}
	return n
}

// NRepFree returns the number of free InReport slots.
func (f *Factory) NRepFree() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, free := range f.repFree {
		if free {
			n++
		}
	}
	return n
}
