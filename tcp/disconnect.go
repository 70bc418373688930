package tcp

import (
	"net"

	"github.com/drep-project/tcpnode/common"
)

// Disconnect tears down the connection at addr, if any: it awaits the
// disconnect handler's ack, removes the Connection from the active
// set, aborts its tasks in LIFO order, and publishes a Drop event.
// It returns false if addr was not connected.
//
// The peer's KnownPeers entry is removed only when the peer dialed us
// (its recorded side is Initiator): an inbound peer's observed address
// is an ephemeral source port, not its listening address, so keeping
// stats keyed on it would be useless on a future reconnect attempt.
// When we dialed the peer ourselves (Responder), addr is its real
// listening address and the stats are worth keeping.
func (n *Node) Disconnect(addr string) bool {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return false
	}
	return n.disconnect(tcpAddr)
}

func (n *Node) disconnect(addr net.Addr) bool {
	if !n.connections.IsConnected(addr) {
		return false
	}

	runDisconnect(n.Protocols.disconnectHandler(), n.config.handlerTimeout(), addr, n.stats, n.knownPeers)

	conn := n.connections.Remove(addr)
	if conn == nil {
		return false
	}
	conn.abortTasks()
	_ = conn.Close()

	if conn.Side() == Initiator {
		n.knownPeers.Remove(addr)
	}

	n.events.Send(ConnectionEvent{Type: ConnectionEventDrop, Addr: addr, Side: conn.Side()})
	n.log.WithField("addr", addr).
		WithField("side", conn.Side()).
		WithField("duration", common.PrettyDuration(conn.Uptime())).
		Debug("disconnected")
	return true
}
