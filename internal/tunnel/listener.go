package tunnel

import (
	"context"
	"log"
	"net/http"

	"github.com/coder/websocket"
	"github.com/hashicorp/yamux"
)

// Handler returns an http.HandlerFunc that accepts an inbound WebSocket
// connection, wraps it in a yamux server session, and routes each stream
// through the router. One tunnel connection can carry any number of
// concurrent terminal streams.
func Handler(router *Router) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			log.Printf("[tunnel] websocket accept error: %v", err)
			return
		}

		remoteAddr := r.RemoteAddr
		log.Printf("[tunnel] connection accepted from %s", remoteAddr)

		// Wrap the WebSocket as a net.Conn for yamux.
		netConn := websocket.NetConn(context.Background(), wsConn, websocket.MessageBinary)

		session, err := yamux.Server(netConn, nil)
		if err != nil {
			log.Printf("[tunnel] yamux server error: %v", err)
			wsConn.CloseNow()
			return
		}
		defer session.Close()

		// Accept streams until the session closes.
		for {
			stream, err := session.AcceptStream()
			if err != nil {
				if err != yamux.ErrSessionShutdown {
					log.Printf("[tunnel] accept stream error from %s: %v", remoteAddr, err)
				}
				return
			}
			go router.routeStream(stream)
		}
	}
}
