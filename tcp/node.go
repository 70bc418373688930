package tcp

import (
	"context"
	"net"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/drep-project/tcpnode/common/event"
	"github.com/drep-project/tcpnode/tcplog"
)

// sequentialNodeID is the process-wide counter Node draws from when
// Config.Name is empty.
var sequentialNodeID uint64

// Node is the top-level object: it owns the listener task, the
// active and connecting sets, the protocol slots, and every
// per-connection task. A Node is safe for concurrent use from
// multiple goroutines and is typically shared by cloning its pointer;
// all of its mutable state is already behind its own locks.
type Node struct {
	name   string
	config Config
	log    *logrus.Entry

	listener      net.Listener
	listeningAddr net.Addr

	Protocols Protocols

	connections *Connections
	connecting  *connectingSet
	knownPeers  *KnownPeers
	stats       *Stats

	events event.Feed

	mu          sync.Mutex
	tasks       []*Task
	peerStore   knownPeersStore
	shutdownOnce sync.Once
}

// New constructs a Node from cfg. If cfg.ListenerIP is set, New binds
// a listener per the table in the spec and blocks until the listener
// task has confirmed it is running before returning — so a
// successful return means the node is already able to accept
// connections, with no race window for a caller to observe otherwise.
func New(cfg Config) (*Node, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	name := cfg.Name
	if name == "" {
		id := atomic.AddUint64(&sequentialNodeID, 1) - 1
		name = strconv.FormatUint(id, 10)
	}

	n := &Node{
		name:        name,
		config:      cfg,
		log:         tcplog.New(name),
		connections: NewConnections(),
		connecting:  newConnectingSet(),
		knownPeers:  NewKnownPeers(),
		stats:       NewStats(),
	}

	if cfg.KnownPeersStorePath != "" {
		store, err := openKnownPeersStore(cfg.KnownPeersStorePath)
		if err != nil {
			return nil, err
		}
		if err := n.knownPeers.attachStore(store, n.log); err != nil {
			store.close()
			return nil, err
		}
		n.peerStore = store
	}

	if cfg.ListenerIP != nil {
		ln, err := bindListener(cfg)
		if err != nil {
			return nil, err
		}
		n.listener = ln
		n.listeningAddr = ln.Addr()
		n.startListening(ln)
	}

	n.log.Debug("the node is ready")
	return n, nil
}

// bindListener implements the binding policy table from the spec:
// a desired port with random-port fallback disabled propagates a
// bind error; a desired port with fallback enabled falls back to
// port 0; no desired port with fallback enabled binds port 0
// directly; no desired port with fallback disabled is rejected by
// Config.validate before this is ever called.
func bindListener(cfg Config) (net.Listener, error) {
	ip := cfg.ListenerIP
	if cfg.DesiredListeningPort != nil {
		addr := &net.TCPAddr{IP: ip, Port: int(*cfg.DesiredListeningPort)}
		ln, err := net.ListenTCP("tcp", addr)
		if err == nil {
			return ln, nil
		}
		if !cfg.AllowRandomPort {
			return nil, err
		}
		return net.ListenTCP("tcp", &net.TCPAddr{IP: ip, Port: 0})
	}
	// DesiredListeningPort is nil; validate() already guarantees
	// AllowRandomPort is true in this branch.
	return net.ListenTCP("tcp", &net.TCPAddr{IP: ip, Port: 0})
}

// startListening spawns the listener task and blocks until it has
// signaled it is running, per the one-shot ordering guarantee in the
// spec's concurrency model.
func (n *Node) startListening(ln net.Listener) {
	ready := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	n.addTask(NewTask("listener", cancel))

	go func() {
		close(ready)
		n.listenLoop(ctx, ln)
	}()

	<-ready
	n.log.WithField("addr", ln.Addr()).Debug("listening")
}

func (n *Node) addTask(t *Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tasks = append(n.tasks, t)
}

// Name returns the node's assigned name, guaranteed non-empty.
func (n *Node) Name() string { return n.name }

// Config returns the configuration the node was constructed with.
func (n *Node) Config() Config { return n.config }

// ListeningAddr returns the node's local listening address, or
// ErrAddrNotAvailable if it was constructed outbound-only.
func (n *Node) ListeningAddr() (net.Addr, error) {
	if n.listeningAddr == nil {
		return nil, ErrAddrNotAvailable
	}
	return n.listeningAddr, nil
}

// IsConnected reports whether addr is in the active set.
func (n *Node) IsConnected(addr net.Addr) bool { return n.connections.IsConnected(addr) }

// IsConnecting reports whether addr is in the connecting set.
func (n *Node) IsConnecting(addr net.Addr) bool { return n.connecting.Contains(addr) }

// NumConnected returns the number of active connections.
func (n *Node) NumConnected() int { return n.connections.Count() }

// NumConnecting returns the number of connections currently being
// established.
func (n *Node) NumConnecting() int { return n.connecting.Len() }

// ConnectedAddrs returns the addresses of every active connection.
func (n *Node) ConnectedAddrs() []net.Addr { return n.connections.Addrs() }

// ConnectingAddrs returns the addresses currently being established.
func (n *Node) ConnectingAddrs() []net.Addr { return n.connecting.Addrs() }

// KnownPeers returns the node's known-peers collection.
func (n *Node) KnownPeers() *KnownPeers { return n.knownPeers }

// Stats returns the node's process-wide counters.
func (n *Node) Stats() *Stats { return n.stats }

// SubscribeEvents subscribes ch to the node's connection lifecycle
// events (ConnectionEventAdd / ConnectionEventDrop).
func (n *Node) SubscribeEvents(ch chan ConnectionEvent) event.Subscription {
	return n.events.Subscribe(ch)
}

// canAddConnection implements admission: active < limit AND
// active+pending < limit. It is evaluated without holding a combined
// lock across both sets, so under race it may momentarily admit one
// connection more than the limit; the bound is a soft cap and the
// count converges once the race resolves.
func (n *Node) canAddConnection() bool {
	limit := int(n.config.MaxConnections)
	active := n.connections.Count()
	if active >= limit {
		return false
	}
	if active+n.connecting.Len() >= limit {
		return false
	}
	return true
}
