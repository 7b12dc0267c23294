// SPDX-License-Identifier: BSD-3-Clause

// Package transport defines the Transport collaborator contract InStream
// and OutStream poll and drain into, plus a NATS core pub/sub
// implementation suitable for tests and for single-process deployments
// that want packet delivery without owning a socket layer themselves.
package transport

import "context"

// Transport is the full collaborator surface a stream pair needs: Poll
// for InStream's non-blocking receive, Send for OutStream's drain.
type Transport interface {
	// Poll returns the next available frame without blocking. ok is false
	// when nothing is queued; it is not an error.
	Poll(ctx context.Context) (buf []byte, ok bool, err error)

	// Send delivers buf to dest. A non-nil error causes the caller to
	// retain the packet and retry on a later cycle.
	Send(ctx context.Context, dest uint16, buf []byte) error
}
