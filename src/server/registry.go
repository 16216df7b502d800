package server

import "sync"

// -----------------------------------------------------------------------------
// Connection Registry
// -----------------------------------------------------------------------------

// Registry is the bookkeeping of connected dashboard clients. It is the only
// shared mutable state besides the stats cache; the hub iterates over copies
// so concurrent add/remove never corrupts a broadcast pass.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

// -----------------------------------------------------------------------------

func NewRegistry() *Registry {
	return &Registry{clients: make(map[string]*Client)}
}

// -----------------------------------------------------------------------------

// Add registers a connection, replacing any previous entry with the same id.
func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clients[c.ID] = c
}

// -----------------------------------------------------------------------------

// Remove deregisters a connection. Removing an unknown id is a no-op;
// the return value reports whether anything was actually removed.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[id]; !ok {
		return false
	}
	delete(r.clients, id)
	return true
}

// -----------------------------------------------------------------------------

// Snapshot returns a copy of the current connection set.
func (r *Registry) Snapshot() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out
}

// -----------------------------------------------------------------------------

// Count reports the number of registered connections.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.clients)
}
