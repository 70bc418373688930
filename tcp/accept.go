package tcp

import (
	"context"
	"errors"
	"net"
)

// listenLoop accepts inbound connections until ctx is canceled (by
// ShutDown aborting the listener task) or the listener is closed out
// from under it. Each accepted stream is admission-checked and, if
// admitted, run through the pipeline on its own goroutine so that one
// slow handshake never blocks the next accept.
func (n *Node) listenLoop(ctx context.Context, ln net.Listener) {
	for {
		stream, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			n.log.WithField("err", err).Warn("accept failed")
			continue
		}

		addr := stream.RemoteAddr()

		if !n.canAddConnection() {
			n.log.WithField("addr", addr).Debug("rejecting inbound connection: at capacity")
			_ = stream.Close()
			continue
		}

		// Unlike Connect, accept performs no duplicate check: two
		// simultaneous inbound dials from the same remote address are
		// both admitted and race to install in the active set, the
		// second simply overwriting the first's entry.
		n.connecting.Insert(addr)

		go func() {
			if err := n.runPipeline(Responder, addr, stream); err != nil {
				n.log.WithField("addr", addr).WithField("err", err).Debug("inbound pipeline failed")
			}
		}()
	}
}
