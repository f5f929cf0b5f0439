package gateway

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// clientSendBuffer bounds the outbound queue per client. A full queue
// triggers backpressure on the producing session rather than dropping
// output.
const clientSendBuffer = 256

// Transport is the write side of a viewer connection. Implementations
// exist for WebSocket connections and tunnel streams.
type Transport interface {
	// WriteMessage sends one complete message to the viewer.
	WriteMessage(payload []byte) error
	// Close shuts the connection down.
	Close() error
}

// Client is one connected viewer. Its lifecycle is connected → owns N
// sessions → disconnected; on disconnect the ownership set is discarded
// and the sessions are deliberately left running.
type Client struct {
	ID string

	transport Transport
	send      chan []byte
	gw        *Gateway

	closeOnce sync.Once
	closed    chan struct{}

	mu sync.Mutex
	// blocking holds sessions paused because this client's queue was
	// full; they are resumed when the queue drains.
	blocking map[int]struct{}
}

func newClient(gw *Gateway, t Transport) *Client {
	return &Client{
		ID:        uuid.New().String(),
		transport: t,
		send:      make(chan []byte, clientSendBuffer),
		gw:        gw,
		closed:    make(chan struct{}),
		blocking:  make(map[int]struct{}),
	}
}

// writeLoop relays queued payloads to the transport. When the queue
// empties it reports the drain so any session paused on this client's
// behalf resumes.
func (c *Client) writeLoop() {
	for {
		select {
		case payload := <-c.send:
			if err := c.transport.WriteMessage(payload); err != nil {
				c.close()
				return
			}
			if len(c.send) == 0 {
				c.gw.clientDrained(c)
			}
		case <-c.closed:
			return
		}
	}
}

// deliver queues a broadcast payload. A full queue pauses the producing
// session first, then blocks until there is room, so no output bytes are
// dropped and the PTY stops producing until this subscriber catches up.
func (c *Client) deliver(sessionID int, payload []byte) {
	select {
	case c.send <- payload:
		return
	case <-c.closed:
		return
	default:
	}

	c.mu.Lock()
	_, alreadyBlocking := c.blocking[sessionID]
	c.blocking[sessionID] = struct{}{}
	c.mu.Unlock()
	if !alreadyBlocking {
		log.Printf("[gateway] client %s backed up, pausing session %d", c.ID, sessionID)
		c.gw.mgr.Pause(sessionID)
	}

	select {
	case c.send <- payload:
	case <-c.closed:
	}
}

// reply queues a request response. Responses block rather than drop.
func (c *Client) reply(payload []byte) {
	select {
	case c.send <- payload:
	case <-c.closed:
	}
}

// takeBlocking returns and clears the sessions paused on this client's
// behalf.
func (c *Client) takeBlocking() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.blocking) == 0 {
		return nil
	}
	ids := make([]int, 0, len(c.blocking))
	for id := range c.blocking {
		ids = append(ids, id)
	}
	c.blocking = make(map[int]struct{})
	return ids
}

func (c *Client) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		c.transport.Close()
	})
}
