// SPDX-License-Identifier: BSD-3-Clause

// Package pcktpool implements the fixed, preallocated packet buffer
// allocator of spec §2: a bank of fixed-size byte buffers handed out as
// pckt.Packet handles and returned by explicit release, never by garbage
// collection. No buffer is allocated after startup.
package pcktpool

import (
	"sync"

	"github.com/cordet/pus/pkg/apperr"
	"github.com/cordet/pus/pkg/pckt"
)

// Pool is a fixed bank of byte buffers of bufLen bytes each. New panics on
// construction if nSlots or bufLen is non-positive — that is a programming
// error, not a runtime condition — but never allocates afterwards.
type Pool struct {
	mu      sync.Mutex
	bufs    [][]byte
	free    []int // indices into bufs currently unused, in release order
	used    map[*byte]int
	bufLen  int
	latch   *apperr.Latch
	nMisses int
}

// Option configures a Pool at construction time.
type Option interface{ apply(*config) }

type config struct {
	nSlots int
	bufLen int
	latch  *apperr.Latch
}

type nSlotsOption struct{ n int }

func (o nSlotsOption) apply(c *config) { c.nSlots = o.n }

// WithSlots sets how many packet buffers the pool preallocates.
func WithSlots(n int) Option { return nSlotsOption{n} }

type bufLenOption struct{ n int }

func (o bufLenOption) apply(c *config) { c.bufLen = o.n }

// WithBufLen sets the byte length of every buffer in the pool. Must be at
// least pckt.MinBufLen.
func WithBufLen(n int) Option { return bufLenOption{n} }

type latchOption struct{ l *apperr.Latch }

func (o latchOption) apply(c *config) { c.latch = o.l }

// WithLatch overrides the application error latch the pool reports
// allocation failures to. Defaults to apperr.Global.
func WithLatch(l *apperr.Latch) Option { return latchOption{l} }

// New constructs a Pool. Panics if the resulting configuration is
// unusable (zero slots, buffer too small to hold a header) since that can
// only result from a caller bug, never from runtime conditions.
func New(opts ...Option) *Pool {
	c := config{nSlots: 16, bufLen: 256, latch: apperr.Global}
	for _, o := range opts {
		o.apply(&c)
	}
	if c.nSlots <= 0 {
		panic("pcktpool: nSlots must be positive")
	}
	if c.bufLen < pckt.MinBufLen {
		panic("pcktpool: bufLen smaller than pckt.MinBufLen")
	}

	p := &Pool{
		bufs:   make([][]byte, c.nSlots),
		free:   make([]int, c.nSlots),
		used:   make(map[*byte]int, c.nSlots),
		bufLen: c.bufLen,
		latch:  c.latch,
	}
	for i := range p.bufs {
		p.bufs[i] = make([]byte, c.bufLen)
		p.free[i] = i
	}
	return p
}

// Allocate returns a fresh Packet wrapping a free buffer, or (nil, false)
// if the pool is exhausted. On exhaustion the pool's latch is set to
// PcktAllocationFail.
func (p *Pool) Allocate() (pckt.Packet, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) == 0 {
		p.nMisses++
		p.latch.Set(apperr.PcktAllocationFail)
		return nil, false
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	buf := p.bufs[idx]
	clear(buf)
	p.used[&buf[0]] = idx
	return pckt.NewDefault(buf), true
}

// Release returns a packet's buffer to the pool. Releasing a packet whose
// buffer this pool did not allocate (or releasing twice) latches
// PcktRelErr and is otherwise a no-op.
func (p *Pool) Release(pk pckt.Packet) {
	p.mu.Lock()
	defer p.mu.Unlock()

	buf := pk.Buf()
	if len(buf) == 0 {
		p.latch.Set(apperr.PcktRelErr)
		return
	}
	idx, ok := p.used[&buf[0]]
	if !ok {
		p.latch.Set(apperr.PcktRelErr)
		return
	}
	delete(p.used, &buf[0])
	p.free = append(p.free, idx)
}

// NSlots returns the pool's total capacity.
func (p *Pool) NSlots() int { return len(p.bufs) }

// NFree returns how many buffers are currently unused.
func (p *Pool) NFree() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Misses returns how many Allocate calls have failed since construction.
func (p *Pool) Misses() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nMisses
}
