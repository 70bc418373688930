package tcp

import "net"

// runPipeline drives a newly dialed or accepted stream through
// handshake, split, reading and writing in order, then installs the
// resulting Connection in the active set. ourSide is Initiator for an
// outbound dial and Responder for an inbound accept; the Connection
// records the peer's side, which is the negation of ours.
//
// Any stage failure tears the stream down, registers a KnownPeers
// failure and a Stats failure, and returns the error without ever
// installing the Connection or publishing an event — a connection
// that never finishes the pipeline never existed, from the rest of
// the core's point of view.
func (n *Node) runPipeline(ourSide ConnectionSide, addr net.Addr, stream net.Conn) error {
	n.knownPeers.Add(addr)

	conn := NewConnection(addr, stream, ourSide.Negate())
	timeout := n.config.handlerTimeout()

	conn, err := runHandshake(n.Protocols.handshakeHandler(), timeout, conn, n.stats, n.knownPeers)
	if err != nil {
		return n.failPipeline(addr, stream, err)
	}

	conn.split()

	conn, err = runReading(n.Protocols.readingHandler(), timeout, conn, n.stats, n.knownPeers)
	if err != nil {
		return n.failPipeline(addr, stream, err)
	}

	conn, err = runWriting(n.Protocols.writingHandler(), timeout, conn, n.stats, n.knownPeers)
	if err != nil {
		return n.failPipeline(addr, stream, err)
	}

	n.connections.Add(conn)
	n.connecting.Remove(addr)

	if notifier := conn.takeReadinessNotifier(); notifier != nil {
		close(notifier)
	}

	n.knownPeers.RegisterConnect(addr)
	n.events.Send(ConnectionEvent{Type: ConnectionEventAdd, Addr: addr, Side: conn.Side()})
	n.log.WithField("addr", addr).WithField("side", conn.Side()).Debug("connection established")

	return nil
}

func (n *Node) failPipeline(addr net.Addr, stream net.Conn, cause error) error {
	n.connecting.Remove(addr)
	n.knownPeers.RegisterFailure(addr)
	n.stats.AddFailure()
	_ = stream.Close()
	n.log.WithField("addr", addr).WithField("err", cause).Debug("connection failed")
	return cause
}
