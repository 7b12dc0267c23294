// SPDX-License-Identifier: BSD-3-Clause

package transport

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startEmbeddedServer(t *testing.T) *server.Server {
	t.Helper()
	srv, err := server.NewServer(&server.Options{DontListen: true})
	require.NoError(t, err)
	go srv.Start()
	t.Cleanup(srv.Shutdown)
	require.True(t, srv.ReadyForConnections(2*time.Second))
	return srv
}

func connect(t *testing.T, srv *server.Server) *nats.Conn {
	t.Helper()
	nc, err := nats.Connect("", nats.InProcessServer(srv))
	require.NoError(t, err)
	t.Cleanup(nc.Close)
	return nc
}

func TestNatsTransportSendAndPoll(t *testing.T) {
	srv := startEmbeddedServer(t)
	senderConn := connect(t, srv)
	receiverConn := connect(t, srv)

	receiver, err := NewNatsTransport(receiverConn, 42, nil)
	require.NoError(t, err)
	sender, err := NewNatsTransport(senderConn, 1, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sender.Send(ctx, 42, []byte("hello")))
	require.NoError(t, senderConn.Flush())

	var buf []byte
	var ok bool
	for range 20 {
		buf, ok, err = receiver.Poll(ctx)
		require.NoError(t, err)
		if ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.True(t, ok)
	assert.Equal(t, "hello", string(buf))
}

func TestNatsTransportPollEmptyReturnsNoError(t *testing.T) {
	srv := startEmbeddedServer(t)
	conn := connect(t, srv)

	tr, err := NewNatsTransport(conn, 7, nil)
	require.NoError(t, err)

	_, ok, err := tr.Poll(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}
