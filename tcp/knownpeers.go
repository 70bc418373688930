package tcp

import (
	"net"
	"sync"
	"time"
)

// PeerStats accumulates per-peer counters, independent of whether the
// peer is currently connected.
type PeerStats struct {
	Connects      uint64
	Failures      uint64
	BytesSent     uint64
	BytesReceived uint64
	MsgsSent      uint64
	MsgsReceived  uint64
	LastSeen      time.Time
}

func (p PeerStats) clone() PeerStats { return p }

// KnownPeers maps peer address to PeerStats. Entries are created on
// first sight and may be removed on disconnect for peers that dialed
// us (see Remove's doc comment). If a store is configured, every
// mutation is written through to it under the same lock.
type KnownPeers struct {
	mu    sync.Mutex
	byKey map[string]*PeerStats
	store knownPeersStore
	log   logger
}

type logger interface {
	Warnf(format string, args ...interface{})
}

// NewKnownPeers returns an empty, purely in-memory KnownPeers.
func NewKnownPeers() *KnownPeers {
	return &KnownPeers{byKey: make(map[string]*PeerStats)}
}

// Add records addr as seen, creating a zeroed entry if this is the
// first sight. Add is idempotent.
func (k *KnownPeers) Add(addr net.Addr) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getOrCreateLocked(addr.String()).LastSeen = time.Now()
	k.persistLocked(addr.String())
}

func (k *KnownPeers) getOrCreateLocked(key string) *PeerStats {
	ps, ok := k.byKey[key]
	if !ok {
		ps = &PeerStats{}
		k.byKey[key] = ps
	}
	return ps
}

// RegisterConnect increments the connect counter for addr.
func (k *KnownPeers) RegisterConnect(addr net.Addr) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ps := k.getOrCreateLocked(addr.String())
	ps.Connects++
	ps.LastSeen = time.Now()
	k.persistLocked(addr.String())
}

// RegisterFailure increments the failure counter for addr. Called for
// every pipeline failure, inbound or outbound.
func (k *KnownPeers) RegisterFailure(addr net.Addr) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ps := k.getOrCreateLocked(addr.String())
	ps.Failures++
	k.persistLocked(addr.String())
}

// AddBytesSent/AddBytesReceived/AddMsgsSent/AddMsgsReceived feed the
// same counters a reading/writing handler also reports into Stats,
// but scoped to one peer. A handler reaches this KnownPeers the same
// way it reaches Stats: by reference, on its *Request.
func (k *KnownPeers) AddBytesSent(addr net.Addr, n uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getOrCreateLocked(addr.String()).BytesSent += n
	k.persistLocked(addr.String())
}

func (k *KnownPeers) AddBytesReceived(addr net.Addr, n uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getOrCreateLocked(addr.String()).BytesReceived += n
	k.persistLocked(addr.String())
}

func (k *KnownPeers) AddMsgsSent(addr net.Addr, n uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getOrCreateLocked(addr.String()).MsgsSent += n
	k.persistLocked(addr.String())
}

func (k *KnownPeers) AddMsgsReceived(addr net.Addr, n uint64) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.getOrCreateLocked(addr.String()).MsgsReceived += n
	k.persistLocked(addr.String())
}

// Remove deletes addr's entry entirely. The pipeline calls this on
// disconnect only when the peer's recorded side was Initiator (i.e.
// the peer dialed us): the ephemeral port we observed for a peer that
// dialed us is not that peer's listening port, so stats keyed on it
// would mislead any future reconnect.
func (k *KnownPeers) Remove(addr net.Addr) {
	key := addr.String()
	k.mu.Lock()
	defer k.mu.Unlock()
	delete(k.byKey, key)
	if k.store != nil {
		if err := k.store.delete(key); err != nil && k.log != nil {
			k.log.Warnf("knownpeers: failed to delete %s from store: %v", key, err)
		}
	}
}

// Get returns a copy of addr's stats and whether an entry exists.
func (k *KnownPeers) Get(addr net.Addr) (PeerStats, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	ps, ok := k.byKey[addr.String()]
	if !ok {
		return PeerStats{}, false
	}
	return ps.clone(), true
}

// Snapshot returns a copy of every known peer's stats, keyed by
// address string.
func (k *KnownPeers) Snapshot() map[string]PeerStats {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]PeerStats, len(k.byKey))
	for key, ps := range k.byKey {
		out[key] = ps.clone()
	}
	return out
}

func (k *KnownPeers) persistLocked(key string) {
	if k.store == nil {
		return
	}
	ps := *k.byKey[key]
	if err := k.store.put(key, ps); err != nil && k.log != nil {
		k.log.Warnf("knownpeers: failed to persist %s: %v", key, err)
	}
}

// attachStore wires a persistence layer into an already-constructed
// KnownPeers and loads any rows it already holds. Used by Node
// construction only; not part of the public API.
func (k *KnownPeers) attachStore(store knownPeersStore, log logger) error {
	rows, err := store.loadAll()
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	k.store = store
	k.log = log
	for key, ps := range rows {
		v := ps
		k.byKey[key] = &v
	}
	return nil
}
