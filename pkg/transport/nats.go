// SPDX-License-Identifier: BSD-3-Clause

package transport

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
)

// NatsTransport is a Transport backed by NATS core pub/sub: Send
// publishes to a per-destination subject; Poll drains a channel
// subscription on the local address's subject without blocking.
type NatsTransport struct {
	conn    *nats.Conn
	subject func(dest uint16) string

	sub *nats.Subscription
	ch  chan *nats.Msg
}

// SubjectFunc maps a 16-bit address onto a NATS subject. DefaultSubject
// produces "pus.<addr>".
type SubjectFunc func(addr uint16) string

// DefaultSubject is the SubjectFunc used when NewNatsTransport is not
// given one explicitly.
func DefaultSubject(addr uint16) string {
	return fmt.Sprintf("pus.%d", addr)
}

// NewNatsTransport subscribes to localAddr's subject and returns a
// Transport that publishes to subjectFn(dest) on Send. A nil subjectFn
// defaults to DefaultSubject.
func NewNatsTransport(conn *nats.Conn, localAddr uint16, subjectFn SubjectFunc) (*NatsTransport, error) {
	if subjectFn == nil {
		subjectFn = DefaultSubject
	}
	ch := make(chan *nats.Msg, 256)
	sub, err := conn.ChanSubscribe(subjectFn(localAddr), ch)
	if err != nil {
		return nil, fmt.Errorf("transport: subscribe %s: %w", subjectFn(localAddr), err)
	}
	return &NatsTransport{conn: conn, subject: subjectFn, sub: sub, ch: ch}, nil
}

// Poll returns the next buffered message, if any, without blocking.
func (t *NatsTransport) Poll(ctx context.Context) ([]byte, bool, error) {
	select {
	case msg, open := <-t.ch:
		if !open {
			return nil, false, fmt.Errorf("transport: subscription closed")
		}
		return msg.Data, true, nil
	default:
		return nil, false, nil
	}
}

// Send publishes buf to dest's subject.
func (t *NatsTransport) Send(ctx context.Context, dest uint16, buf []byte) error {
	if err := t.conn.Publish(t.subject(dest), buf); err != nil {
		return fmt.Errorf("transport: publish to %s: %w", t.subject(dest), err)
	}
	return nil
}

// Close unsubscribes and releases the channel.
func (t *NatsTransport) Close() error {
	if t.sub == nil {
		return nil
	}
	return t.sub.Unsubscribe()
}
