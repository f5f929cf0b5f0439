// Package gateway routes terminal control traffic between remote viewer
// connections and the session manager.
//
// Each viewer connection becomes a [Client] with its own ownership set:
// the session ids it spawned or explicitly joined. Input, resize, and
// kill requests are authorized against that set. Disconnecting a client
// discards its ownership but deliberately leaves the underlying sessions
// running, so a viewer can reconnect and join them later.
//
// Session output and closure events arrive from the manager over its
// event channel and are fanned out by a [BroadcastStrategy]. The group
// strategy emits to a named room ("terminal:" + session id) so the
// transport handles fan-out; the direct strategy iterates every client
// and emits to those whose ownership set contains the session. The direct
// strategy serves transports with no native grouping primitive, such as
// tunnel streams.
//
// When a subscriber's outbound queue fills, the gateway pauses the
// session at the manager (which stops draining the PTY, blocking the
// producer in the kernel) and resumes it when the subscriber drains.
//
// Gateway operations log at the [gateway] prefix.
package gateway
