package gateway

import "sync"

// Registry tracks connected clients and which sessions each one owns.
// It is constructed once per server instance and injected into the
// gateway, never global, so connections and tests cannot observe each
// other's state.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	owned   map[string]map[int]struct{} // client id → owned session ids
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		owned:   make(map[string]map[int]struct{}),
	}
}

// Add registers a connected client with an empty ownership set.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[c.ID] = c
	r.owned[c.ID] = make(map[int]struct{})
}

// Remove discards a client and its entire ownership set. The sessions
// themselves are untouched.
func (r *Registry) Remove(clientID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.clients, clientID)
	delete(r.owned, clientID)
}

// Own records that the client owns the session.
func (r *Registry) Own(clientID string, sessionID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.owned[clientID]
	if !ok {
		return // client already gone
	}
	set[sessionID] = struct{}{}
}

// Owns reports whether the client's ownership set contains the session.
func (r *Registry) Owns(clientID string, sessionID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set, ok := r.owned[clientID]
	if !ok {
		return false
	}
	_, ok = set[sessionID]
	return ok
}

// ReleaseSession removes the session from every client's ownership set.
// Used when a session is killed or closes: ownership of a dead session
// means nothing.
func (r *Registry) ReleaseSession(sessionID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, set := range r.owned {
		delete(set, sessionID)
	}
}

// HasOwners reports whether any connected client owns the session.
func (r *Registry) HasOwners(sessionID int) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, set := range r.owned {
		if _, ok := set[sessionID]; ok {
			return true
		}
	}
	return false
}

// Clients returns a snapshot of all connected clients.
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		result = append(result, c)
	}
	return result
}

// Count returns the number of connected clients.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}
