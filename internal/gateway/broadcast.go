package gateway

import (
	"strconv"
	"sync"
)

// RoomName returns the broadcast group for a session. The same literal
// is used for transport-level grouping and for direct-fallback
// filtering.
func RoomName(sessionID int) string {
	return "terminal:" + strconv.Itoa(sessionID)
}

// BroadcastStrategy fans session events out to subscribed clients. The
// strategy is chosen at construction time: group broadcast when the
// transport supports named rooms, direct broadcast when it does not.
type BroadcastStrategy interface {
	// Subscribe adds the client to the session's broadcast set.
	Subscribe(c *Client, sessionID int)
	// Emit delivers a payload to every subscriber of the session.
	Emit(sessionID int, payload []byte)
	// Release discards all state for a session that no longer exists.
	Release(sessionID int)
	// Drop discards all state for a disconnected client.
	Drop(c *Client)
}

// GroupBroadcast tracks room membership keyed by RoomName and emits to
// every member, so no per-client bookkeeping is needed at emit time.
type GroupBroadcast struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]struct{}
}

// NewGroupBroadcast creates an empty GroupBroadcast.
func NewGroupBroadcast() *GroupBroadcast {
	return &GroupBroadcast{rooms: make(map[string]map[*Client]struct{})}
}

func (g *GroupBroadcast) Subscribe(c *Client, sessionID int) {
	room := RoomName(sessionID)
	g.mu.Lock()
	defer g.mu.Unlock()
	members, ok := g.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		g.rooms[room] = members
	}
	members[c] = struct{}{}
}

func (g *GroupBroadcast) Emit(sessionID int, payload []byte) {
	g.mu.RLock()
	members := make([]*Client, 0, len(g.rooms[RoomName(sessionID)]))
	for c := range g.rooms[RoomName(sessionID)] {
		members = append(members, c)
	}
	g.mu.RUnlock()

	for _, c := range members {
		c.deliver(sessionID, payload)
	}
}

func (g *GroupBroadcast) Release(sessionID int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, RoomName(sessionID))
}

func (g *GroupBroadcast) Drop(c *Client) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for room, members := range g.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(g.rooms, room)
		}
	}
}

// DirectBroadcast is the fallback for transports without a grouping
// primitive: at emit time it walks every connected client and delivers
// to those whose ownership set contains the session. Membership is the
// ownership relation itself, so Subscribe, Release, and Drop carry no
// extra state.
type DirectBroadcast struct {
	reg *Registry
}

// NewDirectBroadcast creates a DirectBroadcast over the given registry.
func NewDirectBroadcast(reg *Registry) *DirectBroadcast {
	return &DirectBroadcast{reg: reg}
}

func (d *DirectBroadcast) Subscribe(c *Client, sessionID int) {
	// Ownership, recorded by the gateway, is the subscription.
}

func (d *DirectBroadcast) Emit(sessionID int, payload []byte) {
	for _, c := range d.reg.Clients() {
		if d.reg.Owns(c.ID, sessionID) {
			c.deliver(sessionID, payload)
		}
	}
}

func (d *DirectBroadcast) Release(sessionID int) {}

func (d *DirectBroadcast) Drop(c *Client) {}
