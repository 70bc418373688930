// Package tcptest provides a minimal ping protocol used to exercise
// the tcp package's handler slots end to end, both in tcp's own tests
// and as a worked example for embedders.
package tcptest

import "github.com/golang/protobuf/proto"

// PingMessage is the sole message of the sample protocol. It
// implements proto.Message through the legacy Marshaler/Unmarshaler
// escape hatch rather than generated code: proto.Marshal/Unmarshal
// call Marshal/Unmarshal directly when a message implements them,
// skipping reflection over struct tags entirely.
type PingMessage struct {
	Nonce uint64
}

// Reset, String and ProtoMessage satisfy proto.Message.
func (m *PingMessage) Reset()         { *m = PingMessage{} }
func (m *PingMessage) String() string { return "ping" }
func (*PingMessage) ProtoMessage()    {}

// Marshal encodes the nonce as 8 big-endian bytes.
func (m *PingMessage) Marshal() ([]byte, error) {
	buf := make([]byte, 8)
	putUint64(buf, m.Nonce)
	return buf, nil
}

// Unmarshal decodes the nonce from 8 big-endian bytes.
func (m *PingMessage) Unmarshal(data []byte) error {
	if len(data) < 8 {
		return errShortPing
	}
	m.Nonce = getUint64(data)
	return nil
}

var errShortPing = protoShortError("tcptest: short ping payload")

type protoShortError string

func (e protoShortError) Error() string { return string(e) }

func putUint64(b []byte, v uint64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

func getUint64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8; i++ {
		v = v<<8 | uint64(b[i])
	}
	return v
}

var _ proto.Message = (*PingMessage)(nil)
