package chatclient

import "errors"

var (
	// ErrUnauthenticated is returned by SendLocal when no user
	// identity is attached to the store
	ErrUnauthenticated = errors.New("chatclient: not authenticated")

	// ErrSendFailed wraps transport or server failures of the durable
	// send
	ErrSendFailed = errors.New("chatclient: send failed")

	// ErrChannelClosed is reported by a live channel after its
	// connection ends
	ErrChannelClosed = errors.New("chatclient: live channel closed")
)
