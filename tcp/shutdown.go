package tcp

// ShutDown stops the node: it aborts the listener task first (so no
// further inbound connections are admitted while teardown runs), then
// disconnects every active connection, then aborts any remaining
// tasks that were not attached to a specific connection. ShutDown is
// idempotent; calling it more than once is a no-op after the first.
func (n *Node) ShutDown() {
	n.shutdownOnce.Do(func() {
		n.log.Debug("shutting down")

		n.mu.Lock()
		tasks := n.tasks
		n.tasks = nil
		n.mu.Unlock()

		if len(tasks) > 0 {
			tasks[0].Abort()
		}
		if n.listener != nil {
			_ = n.listener.Close()
		}

		for _, addr := range n.connections.Addrs() {
			n.disconnect(addr)
		}

		for i := len(tasks) - 1; i >= 1; i-- {
			tasks[i].Abort()
		}

		if n.peerStore != nil {
			_ = n.peerStore.close()
		}

		n.log.Debug("shut down")
	})
}
