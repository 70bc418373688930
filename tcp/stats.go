package tcp

import "sync/atomic"

// Stats collects process-wide counters. It is handed to every
// protocol handler by reference on its *Request (see protocols.go),
// so a reading or writing handler reports bytes/messages as it goes
// without needing to close over the Node that dispatched it;
// embedders read it back via Node.Stats for observability. All fields
// are accessed atomically so Stats needs no external locking.
type Stats struct {
	bytesSent     uint64
	bytesReceived uint64
	msgsSent      uint64
	msgsReceived  uint64
	failures      uint64
}

// NewStats returns a zeroed Stats.
func NewStats() *Stats {
	return &Stats{}
}

func (s *Stats) AddBytesSent(n uint64)     { atomic.AddUint64(&s.bytesSent, n) }
func (s *Stats) AddBytesReceived(n uint64) { atomic.AddUint64(&s.bytesReceived, n) }
func (s *Stats) AddMsgsSent(n uint64)      { atomic.AddUint64(&s.msgsSent, n) }
func (s *Stats) AddMsgsReceived(n uint64)  { atomic.AddUint64(&s.msgsReceived, n) }
func (s *Stats) AddFailure()               { atomic.AddUint64(&s.failures, 1) }

func (s *Stats) BytesSent() uint64     { return atomic.LoadUint64(&s.bytesSent) }
func (s *Stats) BytesReceived() uint64 { return atomic.LoadUint64(&s.bytesReceived) }
func (s *Stats) MsgsSent() uint64      { return atomic.LoadUint64(&s.msgsSent) }
func (s *Stats) MsgsReceived() uint64  { return atomic.LoadUint64(&s.msgsReceived) }
func (s *Stats) Failures() uint64      { return atomic.LoadUint64(&s.failures) }
