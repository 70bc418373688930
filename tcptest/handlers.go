package tcptest

import (
	"strconv"
	"sync/atomic"

	"github.com/AsynkronIT/protoactor-go/actor"

	"github.com/drep-project/tcpnode/tcp"
)

// spawnCounter keeps every actor this package spawns uniquely named,
// the way chain.ChainService names its own message actor, but
// appending a counter since a test process may construct many nodes.
var spawnCounter uint64

func spawnNamed(producer actor.Producer, prefix string) (*actor.PID, error) {
	id := atomic.AddUint64(&spawnCounter, 1)
	name := prefix + "-" + strconv.FormatUint(id, 10)
	return actor.SpawnNamed(actor.FromProducer(producer), name)
}

// EchoHandshake is a handshake handler that exchanges a single
// PingMessage in each direction over the unsplit stream, then replies
// with the Connection unchanged. It demonstrates the common case of a
// handshake that only needs the combined stream and never touches
// split/reading/writing itself.
type EchoHandshake struct{}

func (EchoHandshake) Receive(ctx actor.Context) {
	req, ok := ctx.Message().(*tcp.HandshakeRequest)
	if !ok {
		return
	}

	stream := req.Conn.Stream()
	out := &PingMessage{Nonce: 1}
	payload, _ := out.Marshal()
	if _, err := stream.Write(payload); err != nil {
		ctx.Respond(&tcp.HandshakeReply{Err: err})
		return
	}
	if req.Stats != nil {
		req.Stats.AddBytesSent(uint64(len(payload)))
		req.Stats.AddMsgsSent(1)
	}

	in := make([]byte, 8)
	if _, err := stream.Read(in); err != nil {
		ctx.Respond(&tcp.HandshakeReply{Err: err})
		return
	}
	if req.Stats != nil {
		req.Stats.AddBytesReceived(uint64(len(in)))
		req.Stats.AddMsgsReceived(1)
	}
	if req.KnownPeers != nil {
		req.KnownPeers.AddBytesSent(req.Conn.Addr(), uint64(len(payload)))
		req.KnownPeers.AddBytesReceived(req.Conn.Addr(), uint64(len(in)))
	}

	ctx.Respond(&tcp.HandshakeReply{Conn: req.Conn})
}

// SpawnEchoHandshake spawns an EchoHandshake actor and wraps its PID
// as a tcp.Handler.
func SpawnEchoHandshake() (*tcp.Handler, error) {
	pid, err := spawnNamed(func() actor.Actor { return EchoHandshake{} }, "tcptest-handshake")
	if err != nil {
		return nil, err
	}
	return tcp.NewHandler(pid), nil
}

// CountingReading is a reading handler that installs a readiness
// notifier (closed the instant the Connection is visible in the
// active set) and then replies immediately, without reading anything
// itself — a stand-in for a handler that spawns its own long-running
// read loop as a Connection task before replying.
type CountingReading struct{}

func (CountingReading) Receive(ctx actor.Context) {
	req, ok := ctx.Message().(*tcp.ReadingRequest)
	if !ok {
		return
	}
	ready := make(chan struct{})
	req.Conn.SetReadinessNotifier(ready)
	ctx.Respond(&tcp.ReadingReply{Conn: req.Conn})
}

// SpawnCountingReading spawns a CountingReading actor and wraps its
// PID as a tcp.Handler.
func SpawnCountingReading() (*tcp.Handler, error) {
	pid, err := spawnNamed(func() actor.Actor { return CountingReading{} }, "tcptest-reading")
	if err != nil {
		return nil, err
	}
	return tcp.NewHandler(pid), nil
}

// NoopWriting is a writing handler that does nothing but reply; it
// exists so tests can wire a full four-slot Protocols without writing
// a fourth non-trivial handler.
type NoopWriting struct{}

func (NoopWriting) Receive(ctx actor.Context) {
	req, ok := ctx.Message().(*tcp.WritingRequest)
	if !ok {
		return
	}
	ctx.Respond(&tcp.WritingReply{Conn: req.Conn})
}

// SpawnNoopWriting spawns a NoopWriting actor and wraps its PID as a
// tcp.Handler.
func SpawnNoopWriting() (*tcp.Handler, error) {
	pid, err := spawnNamed(func() actor.Actor { return NoopWriting{} }, "tcptest-writing")
	if err != nil {
		return nil, err
	}
	return tcp.NewHandler(pid), nil
}

// SilentHandshake never replies, used to exercise the handler-timeout
// path: the core's RequestFuture must give up after Config.HandlerTimeout
// and surface tcp.ErrBrokenPipe rather than hang forever.
type SilentHandshake struct{}

func (SilentHandshake) Receive(ctx actor.Context) {
	if _, ok := ctx.Message().(*tcp.HandshakeRequest); !ok {
		return
	}
	// Deliberately does not call ctx.Respond.
}

// SpawnSilentHandshake spawns a SilentHandshake actor and wraps its
// PID as a tcp.Handler.
func SpawnSilentHandshake() (*tcp.Handler, error) {
	pid, err := spawnNamed(func() actor.Actor { return SilentHandshake{} }, "tcptest-silent-handshake")
	if err != nil {
		return nil, err
	}
	return tcp.NewHandler(pid), nil
}

// CountingDisconnect is a disconnect handler that simply acks.
type CountingDisconnect struct{}

func (CountingDisconnect) Receive(ctx actor.Context) {
	if _, ok := ctx.Message().(*tcp.DisconnectRequest); !ok {
		return
	}
	ctx.Respond(&tcp.DisconnectAck{})
}

// SpawnCountingDisconnect spawns a CountingDisconnect actor and wraps
// its PID as a tcp.Handler.
func SpawnCountingDisconnect() (*tcp.Handler, error) {
	pid, err := spawnNamed(func() actor.Actor { return CountingDisconnect{} }, "tcptest-disconnect")
	if err != nil {
		return nil, err
	}
	return tcp.NewHandler(pid), nil
}
