package tcp

import "errors"

// Error kinds surfaced by the core. Embedders should compare against
// these with errors.Is; they are the only connection-management
// errors this package ever returns to a caller.
var (
	// ErrAddrNotAvailable is returned by Node.ListeningAddr when the
	// node was constructed without a ListenerIP (outbound-only).
	ErrAddrNotAvailable = errors.New("tcp: address not available")

	// ErrAddrInUse is returned by Connect when the target is this
	// node's own listening address.
	ErrAddrInUse = errors.New("tcp: address in use")

	// ErrPermissionDenied is returned by Connect when admission
	// refuses the connection for capacity reasons.
	ErrPermissionDenied = errors.New("tcp: permission denied")

	// ErrAlreadyExists is returned by Connect when the target is
	// already connected or already being connected to.
	ErrAlreadyExists = errors.New("tcp: already exists")

	// ErrBrokenPipe is returned by the pipeline when a registered
	// handler's reply never arrives (a dropped or timed-out reply).
	ErrBrokenPipe = errors.New("tcp: broken pipe")

	// ErrHandlerAlreadySet is returned by the Protocols setters when
	// a slot has already been assigned a handler.
	ErrHandlerAlreadySet = errors.New("tcp: handler already set")
)
