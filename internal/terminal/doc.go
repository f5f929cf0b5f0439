// Package terminal manages interactive PTY sessions for the termmux daemon.
//
// It spawns shell processes behind pseudo-terminals (via github.com/creack/pty)
// and tracks them in a [Manager]. Each session owns a coalescing output buffer,
// a bounded scrollback history for reconnecting viewers, a serialized write
// queue, and a pause/resume gate for flow control. Output and exit events are
// published to the gateway over a bounded event channel.
//
// # Core Components
//
//   - [Manager]: The session registry. Spawn, write, resize, kill, pause,
//     resume, and shutdown all go through it.
//   - [Session]: One live PTY process plus its buffers and write queue.
//   - [ScrollbackBuffer]: Bounded retained output for replay on join.
//   - [EnvPolicy]: Allow/deny filtering applied to spawned process
//     environments.
//   - [Recording]: Optional timestamped output capture for later export.
//
// # Session Lifecycle
//
//  1. Created via [Manager.Spawn] with a monotonically increasing id.
//     A read goroutine relays PTY output into the buffers; a write
//     goroutine drains the session's input queue in submission order.
//
//  2. PTY data arrives → appended to the output buffer and scrollback,
//     both front-trimmed at their caps. A flush fires after a short
//     throttle interval and emits at most [FlushBatchSize] bytes per
//     event, re-arming itself until the buffer drains.
//
//  3. The process exits (naturally or via [Manager.Kill]) → remaining
//     buffered output is flushed, a closed event is published, and the
//     session is removed from the registry. Session ids are never reused.
//
// Viewer disconnects do not touch sessions at all: a session with no
// subscribers keeps running and buffering scrollback so a later join can
// repaint it.
//
// # Flow Control
//
// [Manager.Pause] gates the PTY read loop. While paused the kernel tty
// buffer fills up and the child process blocks on write, which throttles
// the producer at the OS level rather than dropping data. Sessions are
// always resumed before destruction.
//
// # Log Prefixes
//
// Manager operations log at the [session-mgr] prefix.
package terminal
