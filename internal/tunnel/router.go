package tunnel

import (
	"errors"
	"io"
	"log"
	"net"
	"sync"
	"time"

	"github.com/hashicorp/yamux"
)

// ChannelHandler handles a yamux stream for a specific channel. The
// stream's channel header has already been consumed; the handler
// receives the stream positioned at the first byte after the newline.
type ChannelHandler func(conn net.Conn)

// Router dispatches yamux streams to channel handlers by their header
// line. It is constructed per server instance and injected, never
// global.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]ChannelHandler
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{handlers: make(map[string]ChannelHandler)}
}

// Register installs a handler for the given channel name. Safe to call
// from multiple goroutines.
func (r *Router) Register(name string, handler ChannelHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// routeStream reads the channel header from a yamux stream and
// dispatches it to the registered handler.
func (r *Router) routeStream(stream *yamux.Stream) {
	// Give the client 5 seconds to send the channel header.
	stream.SetReadDeadline(time.Now().Add(5 * time.Second))

	channel, err := readChannelHeader(stream)
	if err != nil {
		log.Printf("[tunnel] failed to read channel header from stream %d: %v", stream.StreamID(), err)
		stream.Close()
		return
	}

	// Clear the deadline for the actual handler.
	stream.SetReadDeadline(time.Time{})

	r.mu.RLock()
	handler, ok := r.handlers[channel]
	r.mu.RUnlock()

	if !ok {
		log.Printf("[tunnel] unknown channel %q on stream %d, closing", channel, stream.StreamID())
		stream.Close()
		return
	}

	handler(stream)
}

// readChannelHeader reads a newline-terminated channel name from r. It
// reads one byte at a time to avoid buffering past the header.
func readChannelHeader(r io.Reader) (string, error) {
	var buf []byte
	b := make([]byte, 1)
	for {
		if _, err := r.Read(b); err != nil {
			return "", err
		}
		if b[0] == '\n' {
			return string(buf), nil
		}
		buf = append(buf, b[0])
		if len(buf) > 64 {
			return "", errors.New("channel header exceeds 64 bytes")
		}
	}
}

// PingHandler returns a ChannelHandler that responds to health-check
// pings. It writes "pong\n" and closes the stream.
func PingHandler() ChannelHandler {
	return func(conn net.Conn) {
		defer conn.Close()
		conn.Write([]byte("pong\n"))
	}
}
