package terminal

// EventType distinguishes the two kinds of session events the manager
// publishes to the gateway.
type EventType int

const (
	// EventOutput carries a batched slice of PTY output.
	EventOutput EventType = iota
	// EventClosed signals that a session's process has exited and the
	// session has been removed from the registry.
	EventClosed
)

// Event is a session event delivered over the manager's bounded event
// channel. Data is set for EventOutput; ExitCode and Signal for
// EventClosed.
type Event struct {
	Type      EventType
	SessionID int
	Data      []byte
	ExitCode  int
	Signal    string
}
