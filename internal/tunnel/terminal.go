package tunnel

import (
	"bufio"
	"net"

	"github.com/gluk-w/termmux/internal/gateway"
)

// terminalReadLimit caps one line-delimited control message on a tunnel
// stream. Matches the gateway's WebSocket read limit.
const terminalReadLimit = 4 * 1024 * 1024

// TerminalHandler returns a ChannelHandler that speaks the gateway
// control protocol over a yamux stream as line-delimited JSON. Tunnel
// streams have no room primitive, so a gateway constructed with the
// direct broadcast strategy serves them.
func TerminalHandler(gw *gateway.Gateway) ChannelHandler {
	return func(conn net.Conn) {
		defer conn.Close()

		c := gw.Attach(&streamTransport{conn: conn})
		defer gw.Disconnect(c)

		scanner := bufio.NewScanner(conn)
		scanner.Buffer(make([]byte, 0, 64*1024), terminalReadLimit)
		for scanner.Scan() {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}
			gw.Dispatch(c, line)
		}
	}
}

// streamTransport frames gateway messages as JSON lines on a net.Conn.
type streamTransport struct {
	conn net.Conn
}

func (t *streamTransport) WriteMessage(payload []byte) error {
	framed := make([]byte, 0, len(payload)+1)
	framed = append(framed, payload...)
	framed = append(framed, '\n')
	_, err := t.conn.Write(framed)
	return err
}

func (t *streamTransport) Close() error {
	return t.conn.Close()
}
