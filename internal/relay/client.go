package relay

import (
	"sync"

	"github.com/coder/websocket"
)

// Client represents one connected websocket session.
//
// Send is never closed by the server: broadcasters may hold a reference
// while the connection is being torn down, and sending on a closed channel
// would panic. Shutdown is signalled through done instead.
type Client struct {
	ConnID string
	Send   chan []byte

	done      chan struct{}
	closeOnce sync.Once

	// Close status handed to the writer, valid once done is closed
	status websocket.StatusCode
	reason string
}

func newClient(connID string, sendQueueSize int) *Client {
	if sendQueueSize <= 0 {
		sendQueueSize = 64
	}
	return &Client{
		ConnID: connID,
		Send:   make(chan []byte, sendQueueSize),
		done:   make(chan struct{}),
	}
}

// Done returns a channel that is closed when the client is shutting down
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close signals the client goroutines to stop (idempotent).
// The writer flushes pending frames and closes the connection with the
// given status
func (c *Client) Close(status websocket.StatusCode, reason string) {
	c.closeOnce.Do(func() {
		c.status = status
		c.reason = reason
		close(c.done)
	})
}
