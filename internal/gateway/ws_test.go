package gateway

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/coder/websocket"
)

func TestTokenBucket_ExhaustsBurst(t *testing.T) {
	tb := newTokenBucket(3, 0)
	for i := 0; i < 3; i++ {
		if !tb.allow() {
			t.Fatalf("allow() = false on call %d within burst", i+1)
		}
	}
	if tb.allow() {
		t.Error("allow() = true after burst exhausted")
	}
}

func TestTokenBucket_Refills(t *testing.T) {
	tb := newTokenBucket(1, 1000)
	if !tb.allow() {
		t.Fatal("first allow() = false")
	}
	if tb.allow() {
		t.Fatal("allow() = true with empty bucket")
	}

	time.Sleep(10 * time.Millisecond)
	if !tb.allow() {
		t.Error("allow() = false after refill window")
	}
}

func TestWSTransport_WriteBoundedAgainstWedgedPeer(t *testing.T) {
	orig := wsWriteTimeout
	wsWriteTimeout = 50 * time.Millisecond
	t.Cleanup(func() { wsWriteTimeout = orig })

	accepted := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.CloseNow()
		close(accepted)
		// Keep the connection open without ever reading from it.
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx := context.Background()
	conn, _, err := websocket.Dial(ctx, srv.URL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()
	<-accepted

	tr := &wsTransport{conn: conn, ctx: ctx}
	payload := bytes.Repeat([]byte("x"), 1<<20)

	// The peer never reads, so once the TCP buffers fill a write must
	// fail within the timeout instead of hanging the writer goroutine.
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		if err := tr.WriteMessage(payload); err != nil {
			return
		}
	}
	t.Fatal("writes kept succeeding against a peer that never reads")
}

func TestTokenBucket_CapsAtMax(t *testing.T) {
	tb := newTokenBucket(2, 1000)
	time.Sleep(20 * time.Millisecond)

	allowed := 0
	for i := 0; i < 10; i++ {
		if tb.allow() {
			allowed++
		}
	}
	if allowed != 2 {
		t.Errorf("allowed %d messages, want burst cap 2", allowed)
	}
}
