package gateway

import (
	"encoding/json"
	"log"

	"github.com/gluk-w/termmux/internal/terminal"
)

// MaxInputBytes is the largest accepted input payload per message.
// Anything bigger is dropped without a response.
const MaxInputBytes = 1 << 20 // 1 MiB

// request is the control message envelope sent by viewers. Type selects
// the operation; the remaining fields are per-operation.
type request struct {
	Type       string            `json:"type"`
	Command    string            `json:"command,omitempty"`
	Args       []string          `json:"args,omitempty"`
	Cwd        string            `json:"cwd,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
	ExternalID string            `json:"externalId,omitempty"`
	SessionID  int               `json:"sessionId,omitempty"`
	// Data is kept raw so non-string payloads can be rejected rather
	// than coerced.
	Data json.RawMessage `json:"data,omitempty"`
	Cols float64         `json:"cols,omitempty"`
	Rows float64         `json:"rows,omitempty"`
}

type spawnedMsg struct {
	Type      string `json:"type"`
	SessionID int    `json:"sessionId"`
	Error     string `json:"error,omitempty"`
}

type resultMsg struct {
	Type       string `json:"type"`
	SessionID  int    `json:"sessionId"`
	Success    bool   `json:"success"`
	Scrollback string `json:"scrollback,omitempty"`
	Error      string `json:"error,omitempty"`
}

type outputMsg struct {
	Type      string `json:"type"`
	SessionID int    `json:"sessionId"`
	Data      string `json:"data"`
}

type closedMsg struct {
	Type      string `json:"type"`
	SessionID int    `json:"sessionId"`
	ExitCode  int    `json:"exitCode"`
	Signal    string `json:"signal,omitempty"`
}

// Gateway validates viewer requests, delegates to the session manager,
// and fans manager events out to subscribers via the configured
// broadcast strategy.
type Gateway struct {
	mgr   *terminal.Manager
	reg   *Registry
	bcast BroadcastStrategy
}

// New creates a Gateway. The broadcast strategy is fixed for the life of
// the gateway.
func New(mgr *terminal.Manager, reg *Registry, bcast BroadcastStrategy) *Gateway {
	return &Gateway{mgr: mgr, reg: reg, bcast: bcast}
}

// Registry exposes the client registry, for collaborators such as the
// idle-cleanup job that needs ownership information.
func (g *Gateway) Registry() *Registry {
	return g.reg
}

// Run pumps manager events to subscribers until shutdown begins. Call it
// in its own goroutine.
func (g *Gateway) Run() {
	for {
		select {
		case ev := <-g.mgr.Events():
			g.handleEvent(ev)
		case <-g.mgr.Done():
			return
		}
	}
}

func (g *Gateway) handleEvent(ev terminal.Event) {
	switch ev.Type {
	case terminal.EventOutput:
		payload, err := json.Marshal(outputMsg{Type: "output", SessionID: ev.SessionID, Data: string(ev.Data)})
		if err != nil {
			return
		}
		g.bcast.Emit(ev.SessionID, payload)

	case terminal.EventClosed:
		payload, err := json.Marshal(closedMsg{Type: "closed", SessionID: ev.SessionID, ExitCode: ev.ExitCode, Signal: ev.Signal})
		if err != nil {
			return
		}
		g.bcast.Emit(ev.SessionID, payload)
		g.reg.ReleaseSession(ev.SessionID)
		g.bcast.Release(ev.SessionID)
	}
}

// Attach registers a new viewer connection and starts its writer.
func (g *Gateway) Attach(t Transport) *Client {
	c := newClient(g, t)
	g.reg.Add(c)
	go c.writeLoop()
	log.Printf("[gateway] client %s connected", c.ID)
	return c
}

// Disconnect tears down a viewer connection. Ownership is discarded;
// the owned sessions keep running so the viewer can reconnect and join
// them again.
func (g *Gateway) Disconnect(c *Client) {
	c.close()
	g.clientDrained(c)
	g.reg.Remove(c.ID)
	g.bcast.Drop(c)
	log.Printf("[gateway] client %s disconnected", c.ID)
}

// clientDrained resumes every session paused on the client's behalf.
func (g *Gateway) clientDrained(c *Client) {
	for _, id := range c.takeBlocking() {
		g.mgr.Resume(id)
	}
}

// Dispatch handles one raw control message from a client. Malformed and
// unauthorized requests are dropped without a response: the viewer UI
// routinely fires operations at sessions that just exited, and those
// races are not errors.
func (g *Gateway) Dispatch(c *Client, raw []byte) {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		log.Printf("[gateway] client %s sent malformed request: %v", c.ID, err)
		return
	}

	switch req.Type {
	case "spawn":
		g.handleSpawn(c, req)
	case "input":
		g.handleInput(c, req)
	case "resize":
		g.handleResize(c, req)
	case "kill":
		g.handleKill(c, req)
	case "join":
		g.handleJoin(c, req)
	default:
		log.Printf("[gateway] client %s sent unknown request type %q", c.ID, req.Type)
	}
}

func (g *Gateway) handleSpawn(c *Client, req request) {
	id, err := g.mgr.Spawn(terminal.SpawnRequest{
		Command:    req.Command,
		Args:       req.Args,
		Cwd:        req.Cwd,
		Env:        req.Env,
		ExternalID: req.ExternalID,
		Cols:       spawnDimension(req.Cols),
		Rows:       spawnDimension(req.Rows),
	})
	if err != nil {
		log.Printf("[gateway] client %s spawn failed: %v", c.ID, err)
		payload, _ := json.Marshal(spawnedMsg{Type: "spawned", Error: err.Error()})
		c.reply(payload)
		return
	}

	g.reg.Own(c.ID, id)
	g.bcast.Subscribe(c, id)

	payload, _ := json.Marshal(spawnedMsg{Type: "spawned", SessionID: id})
	c.reply(payload)
}

// spawnDimension converts an optional initial size. Invalid values fall
// back to the PTY default rather than failing the spawn.
func spawnDimension(v float64) uint16 {
	if v <= 0 || v != float64(int(v)) || v > 65535 {
		return 0
	}
	return uint16(v)
}

func (g *Gateway) handleInput(c *Client, req request) {
	if !g.reg.Owns(c.ID, req.SessionID) {
		return
	}

	var data string
	if err := json.Unmarshal(req.Data, &data); err != nil {
		log.Printf("[gateway] client %s dropped non-string input for session %d", c.ID, req.SessionID)
		return
	}
	if len(data) > MaxInputBytes {
		log.Printf("[gateway] client %s dropped oversized input for session %d (%d bytes)", c.ID, req.SessionID, len(data))
		return
	}

	g.mgr.Write(req.SessionID, []byte(data))
}

func (g *Gateway) handleResize(c *Client, req request) {
	if !g.reg.Owns(c.ID, req.SessionID) {
		return
	}
	g.mgr.Resize(req.SessionID, req.Cols, req.Rows)
}

func (g *Gateway) handleKill(c *Client, req request) {
	if !g.reg.Owns(c.ID, req.SessionID) {
		payload, _ := json.Marshal(resultMsg{Type: "kill_result", SessionID: req.SessionID, Success: false, Error: "unknown session"})
		c.reply(payload)
		return
	}

	err := g.mgr.Kill(req.SessionID)

	// Ownership and room teardown ride the closed event in handleEvent,
	// after the broadcast; releasing here would race the event pump and
	// could strip the room before the other viewers hear about the exit.

	msg := resultMsg{Type: "kill_result", SessionID: req.SessionID, Success: err == nil}
	if err != nil {
		msg.Error = err.Error()
	}
	payload, _ := json.Marshal(msg)
	c.reply(payload)
}

func (g *Gateway) handleJoin(c *Client, req request) {
	scrollback, ok := g.mgr.Scrollback(req.SessionID)
	if !ok {
		payload, _ := json.Marshal(resultMsg{Type: "join_result", SessionID: req.SessionID, Success: false, Error: "session not found"})
		c.reply(payload)
		return
	}

	g.reg.Own(c.ID, req.SessionID)
	g.bcast.Subscribe(c, req.SessionID)

	payload, _ := json.Marshal(resultMsg{
		Type:       "join_result",
		SessionID:  req.SessionID,
		Success:    true,
		Scrollback: string(scrollback),
	})
	c.reply(payload)
}
