// Package transport owns the physical byte stream to the rig
// controller. It has no protocol knowledge; framing and decoding happen
// above it.
package transport

import "errors"

var (
	// ErrUnavailable means the identifier does not exist or is already
	// claimed by another process.
	ErrUnavailable = errors.New("transport: port unavailable")

	// ErrIO means the stream failed mid-session (cable pulled, device
	// reset). The channel treats it as fatal for the session.
	ErrIO = errors.New("transport: i/o failure")
)

// Transport opens connections and enumerates candidate devices.
type Transport interface {
	// Open claims the identified port exclusively. Fails with
	// ErrUnavailable when the port is missing or busy.
	Open(identifier string) (Conn, error)

	// Enumerate returns the currently visible candidate identifiers.
	// Best effort: it may race with physical attach/detach.
	Enumerate() ([]string, error)
}

// Conn is one open byte stream.
type Conn interface {
	// Read fills p with whatever is available, returning (0, nil) when
	// nothing arrives within the polling quantum. It never blocks
	// longer than that quantum.
	Read(p []byte) (int, error)

	// Write sends p, failing with an ErrIO-wrapped error on disconnect.
	Write(p []byte) (int, error)

	// Close releases the port. Idempotent.
	Close() error
}
