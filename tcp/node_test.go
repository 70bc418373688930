package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drep-project/tcpnode/tcptest"
)

func newListeningNode(t *testing.T, maxConns uint16) *Node {
	t.Helper()
	n, err := New(Config{
		ListenerIP:      net.ParseIP("127.0.0.1"),
		AllowRandomPort: true,
		MaxConnections:  maxConns,
	})
	require.NoError(t, err)
	t.Cleanup(n.ShutDown)
	return n
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	require.Fail(t, "condition not met before timeout")
}

func TestConnectAndAcceptPlainPipeline(t *testing.T) {
	server := newListeningNode(t, 10)
	client := newListeningNode(t, 10)

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)

	require.NoError(t, client.Connect(serverAddr.String()))

	waitFor(t, time.Second, func() bool { return server.NumConnected() == 1 })
	assert.Equal(t, 1, client.NumConnected())
	assert.Equal(t, 0, client.NumConnecting())
	assert.Equal(t, 0, server.NumConnecting())
}

func TestConnectSelfDialRejected(t *testing.T) {
	n := newListeningNode(t, 10)
	addr, err := n.ListeningAddr()
	require.NoError(t, err)

	err = n.Connect(addr.String())
	assert.ErrorIs(t, err, ErrAddrInUse)
}

func TestConnectSelfDialViaLoopbackRejected(t *testing.T) {
	// Bound to a non-loopback IP; dialing 127.0.0.1 on the same port
	// must still be recognized as a self-dial.
	n, err := New(Config{
		ListenerIP:      net.ParseIP("0.0.0.0"),
		AllowRandomPort: true,
		MaxConnections:  10,
	})
	require.NoError(t, err)
	t.Cleanup(n.ShutDown)

	addr, err := n.ListeningAddr()
	require.NoError(t, err)
	tcpAddr := addr.(*net.TCPAddr)

	loopback := (&net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: tcpAddr.Port}).String()
	err = n.Connect(loopback)
	assert.ErrorIs(t, err, ErrAddrInUse)
}

func TestConnectDuplicateRejected(t *testing.T) {
	server := newListeningNode(t, 10)
	client := newListeningNode(t, 10)

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)

	require.NoError(t, client.Connect(serverAddr.String()))
	waitFor(t, time.Second, func() bool { return client.NumConnected() == 1 })

	err = client.Connect(serverAddr.String())
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestConnectAdmissionLimit(t *testing.T) {
	serverA := newListeningNode(t, 10)
	serverB := newListeningNode(t, 10)
	client := newListeningNode(t, 1)

	addrA, err := serverA.ListeningAddr()
	require.NoError(t, err)
	addrB, err := serverB.ListeningAddr()
	require.NoError(t, err)

	require.NoError(t, client.Connect(addrA.String()))
	waitFor(t, time.Second, func() bool { return client.NumConnected() == 1 })

	err = client.Connect(addrB.String())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestDisconnectAndEvents(t *testing.T) {
	server := newListeningNode(t, 10)
	client := newListeningNode(t, 10)

	events := make(chan ConnectionEvent, 8)
	sub := server.SubscribeEvents(events)
	defer sub.Unsubscribe()

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)
	require.NoError(t, client.Connect(serverAddr.String()))

	waitFor(t, time.Second, func() bool { return server.NumConnected() == 1 })

	var addEvent ConnectionEvent
	select {
	case addEvent = <-events:
	case <-time.After(time.Second):
		require.Fail(t, "did not observe an Add event")
	}
	assert.Equal(t, ConnectionEventAdd, addEvent.Type)

	var clientAddr net.Addr
	for _, a := range server.ConnectedAddrs() {
		clientAddr = a
	}
	require.NotNil(t, clientAddr)

	assert.True(t, server.disconnect(clientAddr))

	var dropEvent ConnectionEvent
	select {
	case dropEvent = <-events:
	case <-time.After(time.Second):
		require.Fail(t, "did not observe a Drop event")
	}
	assert.Equal(t, ConnectionEventDrop, dropEvent.Type)
	assert.Equal(t, addEvent.Addr.String(), dropEvent.Addr.String())
	assert.Equal(t, 0, server.NumConnected())
}

func TestShutdownIsIdempotentAndDisconnectsEveryone(t *testing.T) {
	server := newListeningNode(t, 10)
	client := newListeningNode(t, 10)

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)
	require.NoError(t, client.Connect(serverAddr.String()))
	waitFor(t, time.Second, func() bool { return server.NumConnected() == 1 })

	server.ShutDown()
	assert.Equal(t, 0, server.NumConnected())

	assert.NotPanics(t, server.ShutDown)
}

func TestPipelineWithRegisteredHandlers(t *testing.T) {
	server := newListeningNode(t, 10)
	client := newListeningNode(t, 10)

	// Each node gets its own handler actors: an actor handles one
	// message at a time, so a single EchoHandshake shared by both ends
	// would block on one side's read while the other side's request
	// waits in its mailbox.
	for _, n := range []*Node{server, client} {
		handshake, err := tcptest.SpawnEchoHandshake()
		require.NoError(t, err)
		reading, err := tcptest.SpawnCountingReading()
		require.NoError(t, err)
		writing, err := tcptest.SpawnNoopWriting()
		require.NoError(t, err)
		disconnect, err := tcptest.SpawnCountingDisconnect()
		require.NoError(t, err)

		require.NoError(t, n.Protocols.SetHandshake(handshake))
		require.NoError(t, n.Protocols.SetReading(reading))
		require.NoError(t, n.Protocols.SetWriting(writing))
		require.NoError(t, n.Protocols.SetDisconnect(disconnect))
	}

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)

	require.NoError(t, client.Connect(serverAddr.String()))

	waitFor(t, time.Second, func() bool { return server.NumConnected() == 1 })
	assert.Equal(t, 1, client.NumConnected())

	// EchoHandshake reports through the Stats and KnownPeers handed to
	// it on the HandshakeRequest, so both must reflect the exchange.
	assert.Equal(t, uint64(1), client.Stats().MsgsSent())
	assert.Equal(t, uint64(1), client.Stats().MsgsReceived())
	peerStats, ok := client.KnownPeers().Get(serverAddr)
	require.True(t, ok)
	assert.Equal(t, uint64(8), peerStats.BytesSent)
	assert.Equal(t, uint64(8), peerStats.BytesReceived)

	assert.True(t, client.Disconnect(serverAddr.String()))
	assert.Equal(t, 0, client.NumConnected())
}

func TestHandlerTimeoutBecomesBrokenPipe(t *testing.T) {
	server := newListeningNode(t, 10)

	// client's own outbound pipeline runs the handshake handler it
	// registers on itself, so a handler that never replies must make
	// client.Connect fail with ErrBrokenPipe once HandlerTimeout elapses.
	client, err := New(Config{
		MaxConnections: 10,
		HandlerTimeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(client.ShutDown)

	silent, err := tcptest.SpawnSilentHandshake()
	require.NoError(t, err)
	require.NoError(t, client.Protocols.SetHandshake(silent))

	serverAddr, err := server.ListeningAddr()
	require.NoError(t, err)

	start := time.Now()
	err = client.Connect(serverAddr.String())
	elapsed := time.Since(start)

	assert.ErrorIs(t, err, ErrBrokenPipe)
	assert.Less(t, elapsed, 2*time.Second, "handler timeout must bound the wait, not hang indefinitely")
	assert.Equal(t, 0, client.NumConnected())
	assert.Equal(t, 0, client.NumConnecting())
}

func TestSetHandlerTwiceFails(t *testing.T) {
	h, err := tcptest.SpawnCountingDisconnect()
	require.NoError(t, err)

	var p Protocols
	require.NoError(t, p.SetDisconnect(h))
	assert.ErrorIs(t, p.SetDisconnect(h), ErrHandlerAlreadySet)
}
