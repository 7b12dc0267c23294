// SPDX-License-Identifier: BSD-3-Clause

// Package apperr implements the process-wide application error code latch
// described in spec §7: a last-error scalar set by low-level primitives
// (packet allocation failures, pool release of an unknown packet, illegal
// registry arguments, manager id out of range) and read by tests or by an
// application's recovery layer. It is cleared only by an explicit caller.
package apperr

import "sync"

// Code enumerates the application error codes of §6.
type Code int

const (
	NoAppErr Code = iota
	PcktAllocationFail
	PcktRelErr
	IllServType
	IllServSubType
	IllDiscriminant
	InManagerIllID
	InManagerPcrlFull
	OutManagerPoclFull
	OutfactoryFail
)

func (c Code) String() string {
	switch c {
	case NoAppErr:
		return "noAppErr"
	case PcktAllocationFail:
		return "pcktAllocationFail"
	case PcktRelErr:
		return "pcktRelErr"
	case IllServType:
		return "illServType"
	case IllServSubType:
		return "illServSubType"
	case IllDiscriminant:
		return "illDiscriminant"
	case InManagerIllID:
		return "inManagerIllId"
	case InManagerPcrlFull:
		return "inManagerPcrlFull"
	case OutManagerPoclFull:
		return "outManagerPoclFull"
	case OutfactoryFail:
		return "outfactoryFail"
	default:
		return "unknown"
	}
}

// Latch is a process-wide last-error scalar. The zero value is ready to use
// and starts at NoAppErr.
type Latch struct {
	mu   sync.Mutex
	code Code
}

// Global is the default latch used by the core when no isolated Latch is
// supplied. Tests that need isolation should construct their own Latch and
// thread it through via the package's functional options instead of relying
// on this shared instance.
var Global = &Latch{}

// Set latches code as the current application error, overwriting whatever
// was latched before.
func (l *Latch) Set(code Code) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = code
}

// Get returns the currently latched application error code.
func (l *Latch) Get() Code {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.code
}

// Clear resets the latch to NoAppErr. Only an explicit caller clears it;
// nothing in the core clears it implicitly.
func (l *Latch) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.code = NoAppErr
}
