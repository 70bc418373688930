package tcp

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/drep-project/tcpnode/common/mclock"
)

// Task is a handle to a background goroutine attached to a
// Connection (typically spawned by a reading or writing handler).
// Aborting a Task cancels its context; the task itself is expected to
// observe ctx.Done() at its next suspension point and return. Abort
// is best-effort and does not wait for the goroutine to exit.
type Task struct {
	name   string
	cancel context.CancelFunc
}

// NewTask wraps cancel (typically obtained from context.WithCancel)
// as an abortable handle named for logging.
func NewTask(name string, cancel context.CancelFunc) *Task {
	return &Task{name: name, cancel: cancel}
}

// Abort cancels the task. Calling Abort more than once is safe.
func (t *Task) Abort() {
	if t != nil && t.cancel != nil {
		t.cancel()
	}
}

func (t *Task) String() string {
	if t == nil {
		return "<nil task>"
	}
	return t.name
}

// Connection is a single peer: its remote address, which side of the
// handshake it is on, its owned stream (or split reader/writer halves
// after the split step), and the background tasks attached to it by
// the reading/writing handlers.
//
// stream, reader and writer are mutually exclusive: before the split
// step only stream is set; afterwards only reader and writer are.
type Connection struct {
	addr net.Addr
	side ConnectionSide

	mu     sync.Mutex
	stream net.Conn
	reader net.Conn // same underlying net.Conn; kept distinct to mirror the spec's three-field model
	writer net.Conn

	tasks []*Task

	readinessNotifier chan struct{}

	created mclock.AbsTime
}

// NewConnection wraps stream for addr, recording the peer's side.
// Callers pass the peer's side (the negation of their own), per the
// pipeline's single point of side negation.
func NewConnection(addr net.Addr, stream net.Conn, side ConnectionSide) *Connection {
	return &Connection{addr: addr, side: side, stream: stream, created: mclock.Now()}
}

// Uptime returns how long ago this Connection was constructed,
// regardless of whether it ever made it into the active set.
func (c *Connection) Uptime() time.Duration {
	return time.Duration(mclock.Now() - c.created)
}

// Addr returns the peer's remote address.
func (c *Connection) Addr() net.Addr { return c.addr }

// Side returns the peer's side, as recorded at pipeline entry.
func (c *Connection) Side() ConnectionSide { return c.side }

// Stream returns the unsplit stream, or nil once split has run.
func (c *Connection) Stream() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stream
}

// Reader returns the read half after split, or nil before it.
func (c *Connection) Reader() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reader
}

// Writer returns the write half after split, or nil before it.
func (c *Connection) Writer() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.writer
}

// split separates the combined stream into reader/writer halves. It
// is a no-op if the stream has already been split (e.g. a handshake
// handler did it itself), matching the spec's "only if the Connection
// still holds an unsplit stream" rule. net.Conn already supports
// concurrent Read/Write from different goroutines, so both halves
// simply alias the same net.Conn.
func (c *Connection) split() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream == nil {
		return
	}
	c.reader = c.stream
	c.writer = c.stream
	c.stream = nil
}

// AddTask attaches a background task, in insertion order. Tasks are
// aborted in reverse (LIFO) order on disconnect, so that a consumer
// (e.g. a reading loop built atop a lower-level task) stops before
// whatever it depends on.
func (c *Connection) AddTask(t *Task) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = append(c.tasks, t)
}

// abortTasks aborts every attached task, last-added first.
func (c *Connection) abortTasks() {
	c.mu.Lock()
	tasks := c.tasks
	c.tasks = nil
	c.mu.Unlock()

	for i := len(tasks) - 1; i >= 0; i-- {
		tasks[i].Abort()
	}
}

// SetReadinessNotifier installs the one-shot channel a reading
// handler wants closed once the Connection is visible in the active
// set. Only the reading handler should call this.
func (c *Connection) SetReadinessNotifier(ch chan struct{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readinessNotifier = ch
}

// takeReadinessNotifier removes and returns the installed notifier,
// or nil if none was installed.
func (c *Connection) takeReadinessNotifier() chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := c.readinessNotifier
	c.readinessNotifier = nil
	return ch
}

func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	var err error
	if c.stream != nil {
		err = c.stream.Close()
	} else if c.writer != nil {
		err = c.writer.Close()
	}
	return err
}

func (c *Connection) String() string {
	return fmt.Sprintf("%s (%s)", c.addr, c.side)
}
