package tcp

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, s string) net.Addr {
	t.Helper()
	addr, err := net.ResolveTCPAddr("tcp", s)
	require.NoError(t, err)
	return addr
}

func TestConnectionsAddRemove(t *testing.T) {
	cs := NewConnections()
	addr := mustAddr(t, "127.0.0.1:4000")
	conn := NewConnection(addr, nil, Initiator)

	assert.False(t, cs.IsConnected(addr))
	cs.Add(conn)
	assert.True(t, cs.IsConnected(addr))
	assert.Equal(t, 1, cs.Count())
	assert.Equal(t, []net.Addr{addr}, cs.Addrs())

	removed := cs.Remove(addr)
	assert.Same(t, conn, removed)
	assert.False(t, cs.IsConnected(addr))
	assert.Nil(t, cs.Remove(addr))
}

func TestConnectingSetInsertIsRace(t *testing.T) {
	s := newConnectingSet()
	addr := mustAddr(t, "127.0.0.1:4001")

	assert.True(t, s.Insert(addr))
	assert.False(t, s.Insert(addr), "second Insert for the same address must lose the race")
	assert.True(t, s.Contains(addr))
	assert.Equal(t, 1, s.Len())

	s.Remove(addr)
	assert.False(t, s.Contains(addr))
	assert.Equal(t, 0, s.Len())
}

func TestConnectionSplitIsIdempotent(t *testing.T) {
	addr := mustAddr(t, "127.0.0.1:4002")
	server, client := net.Pipe()
	defer client.Close()
	conn := NewConnection(addr, server, Initiator)
	defer conn.Close()

	assert.NotNil(t, conn.Stream())
	assert.Nil(t, conn.Reader())
	assert.Nil(t, conn.Writer())

	conn.split()
	assert.Nil(t, conn.Stream())
	assert.NotNil(t, conn.Reader())
	assert.NotNil(t, conn.Writer())
	assert.Same(t, conn.Reader(), conn.Writer())

	conn.split() // no-op
	assert.NotNil(t, conn.Reader())
}

func TestConnectionTasksAbortLIFO(t *testing.T) {
	addr := mustAddr(t, "127.0.0.1:4003")
	conn := NewConnection(addr, nil, Initiator)

	var order []string
	mk := func(name string) *Task {
		return NewTask(name, func() { order = append(order, name) })
	}
	conn.AddTask(mk("a"))
	conn.AddTask(mk("b"))
	conn.AddTask(mk("c"))

	conn.abortTasks()
	assert.Equal(t, []string{"c", "b", "a"}, order)

	// aborting again is a no-op: tasks were cleared.
	order = nil
	conn.abortTasks()
	assert.Empty(t, order)
}

func TestConnectionReadinessNotifier(t *testing.T) {
	addr := mustAddr(t, "127.0.0.1:4004")
	conn := NewConnection(addr, nil, Initiator)

	assert.Nil(t, conn.takeReadinessNotifier())

	ch := make(chan struct{})
	conn.SetReadinessNotifier(ch)
	got := conn.takeReadinessNotifier()
	assert.Equal(t, (chan struct{})(ch), got)
	assert.Nil(t, conn.takeReadinessNotifier())
}
