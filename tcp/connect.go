package tcp

import "net"

// Connect dials addr and, on success, runs it through the full
// connection pipeline as the Initiator. It returns once the
// Connection is visible in the active set (or, if a reading handler
// installed a readiness notifier, once that notifier fires), or with
// an error if the dial or any pipeline stage failed.
//
// Connect rejects a dial to this node's own listening address with
// ErrAddrInUse — including a dial to the loopback address on our
// listening port, since a node bound to a specific non-loopback IP is
// still reachable at 127.0.0.1:port from itself — then consults
// admission (ErrPermissionDenied), then rejects a target that is
// already connected or already being connected to (ErrAlreadyExists).
func (n *Node) Connect(addr string) error {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return err
	}

	if n.isSelfDial(tcpAddr) {
		return ErrAddrInUse
	}

	if !n.canAddConnection() {
		return ErrPermissionDenied
	}

	if n.connections.IsConnected(tcpAddr) || n.connecting.Contains(tcpAddr) {
		return ErrAlreadyExists
	}

	if !n.connecting.Insert(tcpAddr) {
		return ErrAlreadyExists
	}

	stream, err := net.DialTCP("tcp", nil, tcpAddr)
	if err != nil {
		n.connecting.Remove(tcpAddr)
		return err
	}

	return n.runPipeline(Initiator, tcpAddr, stream)
}

func (n *Node) isSelfDial(addr *net.TCPAddr) bool {
	if n.listeningAddr == nil {
		return false
	}
	if sameAddr(addr, n.listeningAddr) {
		return true
	}
	listening, ok := n.listeningAddr.(*net.TCPAddr)
	return ok && addr.IP.IsLoopback() && addr.Port == listening.Port
}

func sameAddr(a, b net.Addr) bool { return a.String() == b.String() }
