package channel

import "errors"

var (
	// ErrNotConnected means Send was called outside the Connected state.
	ErrNotConnected = errors.New("channel: not connected")

	// ErrAlreadyConnected means Connect was called on a channel that is
	// not Disconnected.
	ErrAlreadyConnected = errors.New("channel: already connected")

	// ErrBusy means a request is already in flight. The wire protocol
	// has no correlation id, so only one command may be pending.
	ErrBusy = errors.New("channel: request already pending")

	// ErrTimeout means the deadline elapsed with no matching response.
	ErrTimeout = errors.New("channel: response timeout")

	// ErrCancelled means the channel was torn down while a request was
	// waiting.
	ErrCancelled = errors.New("channel: request cancelled")

	// ErrProtocol means the record that should have answered a pending
	// request could not be decoded.
	ErrProtocol = errors.New("channel: protocol error")
)
