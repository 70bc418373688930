package tcp

import (
	"errors"
	"net"
	"time"
)

// defaultHandlerTimeout bounds a single protocol-slot round trip
// (handshake/reading/writing/disconnect). It does not bound whatever
// the handler itself goes on to do after replying.
const defaultHandlerTimeout = 10 * time.Second

// Config holds the immutable parameters a Node is constructed with.
// Config fields must not be mutated once passed to New.
type Config struct {
	// Name identifies the node in logs. If empty, New assigns a
	// sequential numeric name drawn from a process-wide counter.
	Name string

	// ListenerIP is the address to bind for inbound connections. A
	// nil ListenerIP means the node is outbound-only.
	ListenerIP net.IP

	// DesiredListeningPort is the preferred bind port. Nil means "no
	// preference" (only legal alongside AllowRandomPort).
	DesiredListeningPort *uint16

	// AllowRandomPort lets the OS pick a port when the desired one is
	// unavailable or unset.
	AllowRandomPort bool

	// MaxConnections caps active + pending connections.
	MaxConnections uint16

	// KnownPeersStorePath, if non-empty, backs KnownPeers with a
	// leveldb database at this path so peer statistics survive
	// restarts. Empty means purely in-memory.
	KnownPeersStorePath string

	// HandlerTimeout bounds each protocol-slot round trip. Zero means
	// defaultHandlerTimeout.
	HandlerTimeout time.Duration
}

// validate checks the invariant from the spec: if ListenerIP is set,
// either a desired port or random-port fallback must be specified.
func (c *Config) validate() error {
	if c.ListenerIP != nil && c.DesiredListeningPort == nil && !c.AllowRandomPort {
		return errors.New("tcp: listener_ip is set but neither desired_listening_port nor allow_random_port is")
	}
	return nil
}

func (c *Config) handlerTimeout() time.Duration {
	if c.HandlerTimeout > 0 {
		return c.HandlerTimeout
	}
	return defaultHandlerTimeout
}
