// SPDX-License-Identifier: BSD-3-Clause

// Package configcheck implements the Auxiliary Configuration Check
// (spec §4.13): four independent table checks that must all pass before
// the core is allowed to enter CONFIGURED — OutRegistry's service
// table, OutFactory's kind table, and InFactory's command and report
// kind tables — plus a check that every configured queue/pool size is
// at least 1.
package configcheck

import (
	"fmt"

	"github.com/cordet/pus/pkg/kind"
)

// Table identifies which of the five independent checks (four kind
// tables plus the queue-size table) failed.
type Table int

const (
	TableOutRegistry Table = iota
	TableOutFactory
	TableInFactoryInCmd
	TableInFactoryInRep
	TableQueueSizes
)

func (t Table) String() string {
	switch t {
	case TableOutRegistry:
		return "OutRegistry"
	case TableOutFactory:
		return "OutFactory"
	case TableInFactoryInCmd:
		return "InFactoryInCmd"
	case TableInFactoryInRep:
		return "InFactoryInRep"
	case TableQueueSizes:
		return "QueueSizes"
	default:
		return "Unknown"
	}
}

// QueueSize names one configured queue/pool capacity the check verifies
// is at least 1 (an InStream/OutStream queue depth, a PCRL/POCL
// capacity, an InFactory/OutFactory pool size).
type QueueSize struct {
	Name string
	Size int
}

// Config is every table and size the Auxiliary Configuration Check
// inspects, gathered from the framework's construction-time wiring.
type Config struct {
	OutServices []kind.ServDescRow
	OutCmpRows  []kind.OutCmpRow
	InCmdRows   []kind.InCmdRow
	InRepRows   []kind.InRepRow
	QueueSizes  []QueueSize
}

// Result is the classified outcome of Check: Failed is false iff every
// check passed. When Failed is true, Table names which one, and Err
// carries the underlying reason.
type Result struct {
	Failed bool
	Table  Table
	Err    error
}

// Check runs the four table checks in order, then the queue-size check,
// stopping at the first failure (spec §4.13 "returns a classified
// outcome identifying which table failed").
func Check(cfg Config) Result {
	if err := kind.CheckServDescTable(cfg.OutServices); err != nil {
		return Result{Failed: true, Table: TableOutRegistry, Err: err}
	}
	if err := checkOutFactory(cfg.OutCmpRows, cfg.OutServices); err != nil {
		return Result{Failed: true, Table: TableOutFactory, Err: err}
	}
	if err := kind.CheckInCmdTable(cfg.InCmdRows); err != nil {
		return Result{Failed: true, Table: TableInFactoryInCmd, Err: err}
	}
	if err := kind.CheckInRepTable(cfg.InRepRows); err != nil {
		return Result{Failed: true, Table: TableInFactoryInRep, Err: err}
	}
	if err := checkQueueSizes(cfg.QueueSizes); err != nil {
		return Result{Failed: true, Table: TableQueueSizes, Err: err}
	}
	return Result{}
}

// checkOutFactory layers spec §4.13's cross-table requirement — every
// OutFactory row's (servType, servSubType) must be present in the
// OutRegistry's service table — on top of CheckOutCmpTable's ordering
// and packet-length checks.
func checkOutFactory(rows []kind.OutCmpRow, services []kind.ServDescRow) error {
	if err := kind.CheckOutCmpTable(rows); err != nil {
		return err
	}
	known := make(map[[2]uint16]bool, len(services))
	for _, s := range services {
		known[[2]uint16{s.ServType, s.ServSubType}] = true
	}
	for _, r := range rows {
		if !known[[2]uint16{r.ServType, r.ServSubType}] {
			return fmt.Errorf("%w: OutFactory row %s has no matching OutRegistry service descriptor",
				kind.ErrTableInvalid, r.Triple)
		}
	}
	return nil
}

func checkQueueSizes(sizes []QueueSize) error {
	for _, q := range sizes {
		if q.Size < 1 {
			return fmt.Errorf("%w: queue %q has size %d, must be at least 1", kind.ErrTableInvalid, q.Name, q.Size)
		}
	}
	return nil
}
