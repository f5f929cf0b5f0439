package tunnel

// Channel names for yamux stream multiplexing. Each stream begins with a
// one-line header declaring the channel name followed by a newline (e.g.
// "terminal\n"); the router reads the header and dispatches the stream to
// the registered handler.
const (
	ChannelTerminal = "terminal"
	ChannelPing     = "ping"
)
