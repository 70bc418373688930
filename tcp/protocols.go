package tcp

import (
	"net"
	"sync"
	"time"

	"github.com/AsynkronIT/protoactor-go/actor"
)

// The four protocol-slot message shapes. The core only ever sends
// the *Request and expects the matching *Reply (or, for disconnect,
// no particular payload back at all). A handler is free to mutate
// and return the Connection — most commonly, a handshake handler
// wraps its stream, and a reading handler installs a readiness
// notifier via Connection.SetReadinessNotifier before replying.

// Every *Request carries Stats and KnownPeers by reference alongside
// the Connection, so a handler can report bytes/messages as it reads
// or writes without closing over the Node that dispatched it.

// HandshakeRequest is sent to the handshake slot.
type HandshakeRequest struct {
	Conn       *Connection
	Stats      *Stats
	KnownPeers *KnownPeers
}

// HandshakeReply is the handshake slot's response.
type HandshakeReply struct {
	Conn *Connection
	Err  error
}

// ReadingRequest is sent to the reading slot.
type ReadingRequest struct {
	Conn       *Connection
	Stats      *Stats
	KnownPeers *KnownPeers
}

// ReadingReply is the reading slot's response.
type ReadingReply struct {
	Conn *Connection
	Err  error
}

// WritingRequest is sent to the writing slot.
type WritingRequest struct {
	Conn       *Connection
	Stats      *Stats
	KnownPeers *KnownPeers
}

// WritingReply is the writing slot's response.
type WritingReply struct {
	Conn *Connection
	Err  error
}

// DisconnectRequest is sent to the disconnect slot. The core waits
// for any reply at all (its payload is ignored) before tearing the
// Connection down.
type DisconnectRequest struct {
	Addr       net.Addr
	Stats      *Stats
	KnownPeers *KnownPeers
}

// DisconnectAck is the conventional (but not required) reply payload
// a disconnect handler may send back.
type DisconnectAck struct{}

// Handler wraps the *actor.PID backing one protocol slot. Messages
// are delivered to it with a request/future round trip, which is how
// this core models the spec's "send endpoint + one-shot reply":
// protoactor's Future is exactly that, and because an actor.PID can
// itself spawn child actors or goroutines, a handler is free to
// attach long-running work of its own before replying.
type Handler struct {
	pid *actor.PID
}

// NewHandler wraps an already-spawned PID as a protocol handler.
func NewHandler(pid *actor.PID) *Handler {
	return &Handler{pid: pid}
}

// Protocols holds the four optional handler slots. Each slot may be
// set at most once, before any connection is attempted; setting it a
// second time is an embedder error (ErrHandlerAlreadySet). A nil slot
// is a pass-through no-op in the pipeline.
type Protocols struct {
	mu         sync.Mutex
	handshake  *Handler
	reading    *Handler
	writing    *Handler
	disconnect *Handler
}

func (p *Protocols) setOnce(slot **Handler, h *Handler) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if *slot != nil {
		return ErrHandlerAlreadySet
	}
	*slot = h
	return nil
}

// SetHandshake registers the handshake handler.
func (p *Protocols) SetHandshake(h *Handler) error { return p.setOnce(&p.handshake, h) }

// SetReading registers the reading handler.
func (p *Protocols) SetReading(h *Handler) error { return p.setOnce(&p.reading, h) }

// SetWriting registers the writing handler.
func (p *Protocols) SetWriting(h *Handler) error { return p.setOnce(&p.writing, h) }

// SetDisconnect registers the disconnect handler.
func (p *Protocols) SetDisconnect(h *Handler) error { return p.setOnce(&p.disconnect, h) }

func (p *Protocols) slot(which **Handler) *Handler {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *which
}

func (p *Protocols) handshakeHandler() *Handler  { return p.slot(&p.handshake) }
func (p *Protocols) readingHandler() *Handler    { return p.slot(&p.reading) }
func (p *Protocols) writingHandler() *Handler    { return p.slot(&p.writing) }
func (p *Protocols) disconnectHandler() *Handler { return p.slot(&p.disconnect) }

// runHandshake dispatches conn to the handshake handler, if any, and
// returns the (possibly mutated) Connection. A nil handler is a
// pass-through. A dropped or timed-out reply becomes ErrBrokenPipe.
func runHandshake(h *Handler, timeout time.Duration, conn *Connection, stats *Stats, knownPeers *KnownPeers) (*Connection, error) {
	if h == nil {
		return conn, nil
	}
	res, err := h.pid.RequestFuture(&HandshakeRequest{Conn: conn, Stats: stats, KnownPeers: knownPeers}, timeout).Result()
	if err != nil {
		return nil, ErrBrokenPipe
	}
	reply, ok := res.(*HandshakeReply)
	if !ok {
		return nil, ErrBrokenPipe
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Conn, nil
}

func runReading(h *Handler, timeout time.Duration, conn *Connection, stats *Stats, knownPeers *KnownPeers) (*Connection, error) {
	if h == nil {
		return conn, nil
	}
	res, err := h.pid.RequestFuture(&ReadingRequest{Conn: conn, Stats: stats, KnownPeers: knownPeers}, timeout).Result()
	if err != nil {
		return nil, ErrBrokenPipe
	}
	reply, ok := res.(*ReadingReply)
	if !ok {
		return nil, ErrBrokenPipe
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Conn, nil
}

func runWriting(h *Handler, timeout time.Duration, conn *Connection, stats *Stats, knownPeers *KnownPeers) (*Connection, error) {
	if h == nil {
		return conn, nil
	}
	res, err := h.pid.RequestFuture(&WritingRequest{Conn: conn, Stats: stats, KnownPeers: knownPeers}, timeout).Result()
	if err != nil {
		return nil, ErrBrokenPipe
	}
	reply, ok := res.(*WritingReply)
	if !ok {
		return nil, ErrBrokenPipe
	}
	if reply.Err != nil {
		return nil, reply.Err
	}
	return reply.Conn, nil
}

// runDisconnect triggers the disconnect handler, if any, and waits
// for its reply, ignoring both the payload and any timeout/error: the
// spec only asks that the core await the ack before tearing the
// Connection down, not that disconnection can itself fail.
func runDisconnect(h *Handler, timeout time.Duration, addr net.Addr, stats *Stats, knownPeers *KnownPeers) {
	if h == nil {
		return
	}
	_, _ = h.pid.RequestFuture(&DisconnectRequest{Addr: addr, Stats: stats, KnownPeers: knownPeers}, timeout).Result()
}
