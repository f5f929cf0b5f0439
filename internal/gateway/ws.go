package gateway

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/coder/websocket"
)

const (
	// wsReadLimit caps a single inbound WebSocket message. Input
	// payloads are separately capped at MaxInputBytes; the envelope
	// needs a little headroom for JSON escaping.
	wsReadLimit = 4 * 1024 * 1024

	// wsRateLimit and wsRateBurst bound control messages per connection.
	// The burst absorbs paste storms before throttling kicks in.
	wsRateLimit = 200
	wsRateBurst = 200
)

// wsWriteTimeout bounds one outbound frame so a wedged client that keeps
// its TCP half open cannot stall its writer goroutine forever. Var so
// tests can shorten it.
var wsWriteTimeout = 10 * time.Second

// ServeWS upgrades an HTTP request to a WebSocket viewer connection and
// pumps its control messages through the gateway until it closes.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		log.Printf("[gateway] websocket accept failed: %v", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	conn.SetReadLimit(wsReadLimit)

	c := g.Attach(&wsTransport{conn: conn, ctx: ctx})
	defer g.Disconnect(c)

	limiter := newTokenBucket(wsRateBurst, wsRateLimit)
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		// Drop messages beyond the allowed rate.
		if !limiter.allow() {
			continue
		}
		g.Dispatch(c, data)
	}
}

// wsTransport adapts a coder/websocket connection to the Transport
// interface. Messages go out as text frames carrying JSON.
type wsTransport struct {
	conn *websocket.Conn
	ctx  context.Context
}

func (t *wsTransport) WriteMessage(payload []byte) error {
	ctx, cancel := context.WithTimeout(t.ctx, wsWriteTimeout)
	defer cancel()
	return t.conn.Write(ctx, websocket.MessageText, payload)
}

func (t *wsTransport) Close() error {
	return t.conn.Close(websocket.StatusNormalClosure, "")
}

// tokenBucket is a simple token bucket rate limiter for control
// messages.
type tokenBucket struct {
	tokens     int
	maxTokens  int
	refillRate int // tokens added per second
	lastRefill time.Time
}

func newTokenBucket(maxTokens, refillRate int) *tokenBucket {
	return &tokenBucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// allow checks if a message is allowed and consumes a token.
func (tb *tokenBucket) allow() bool {
	now := time.Now()
	elapsed := now.Sub(tb.lastRefill)
	tb.lastRefill = now

	tb.tokens += int(elapsed.Seconds() * float64(tb.refillRate))
	if tb.tokens > tb.maxTokens {
		tb.tokens = tb.maxTokens
	}

	if tb.tokens <= 0 {
		return false
	}
	tb.tokens--
	return true
}
