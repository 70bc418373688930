package tcp

import "net"

// ConnectionEventType distinguishes the two lifecycle events a Node
// publishes on its event feed.
type ConnectionEventType int

const (
	// ConnectionEventAdd fires once a Connection has been installed
	// in the active set and its readiness notifier (if any) fired.
	ConnectionEventAdd ConnectionEventType = iota
	// ConnectionEventDrop fires once disconnect has removed a
	// Connection from the active set and aborted its tasks.
	ConnectionEventDrop
)

func (t ConnectionEventType) String() string {
	if t == ConnectionEventAdd {
		return "add"
	}
	return "drop"
}

// ConnectionEvent is published on a Node's event feed. It is purely
// observational: the core never reads its own feed back.
type ConnectionEvent struct {
	Type ConnectionEventType
	Addr net.Addr
	Side ConnectionSide
	// Err is nil in every event the core publishes: a pipeline
	// failure publishes no event, and the Drop event published by
	// disconnect leaves Err unset.
	Err error
}
