package server

import "sync"

// Registry maps logged-in usernames to their live connection handle. It is
// the single authority for "who is currently reachable by push" and is owned
// by the server for its whole lifetime; nothing touches the map except
// through this mutex-guarded API.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Handle
}

func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Handle)}
}

// Register makes username reachable through h, replacing any prior handle:
// last login wins. The superseded session is not notified and stays
// connected, it is simply no longer reachable by broadcast.
func (r *Registry) Register(username string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[username] = h
}

// Unregister removes the entry only if h is still the current handle for
// username. A session that was superseded by a newer login must not evict
// its replacement when it finally disconnects.
func (r *Registry) Unregister(username string, h *Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.sessions[username]; ok && current == h {
		delete(r.sessions, username)
	}
}

// Snapshot returns the live entries keyed by username, consistent at a
// single point in time. Broadcast iterates the snapshot outside the lock, so
// a slow peer never blocks register/unregister on other sessions. Callers
// evicting a failed handle must use the snapshotted username: a handle's own
// username may have moved on (re-login under a new name) while the old entry
// still points at it.
func (r *Registry) Snapshot() map[string]*Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make(map[string]*Handle, len(r.sessions))
	for username, h := range r.sessions {
		sessions[username] = h
	}
	return sessions
}

// Lookup reports the current handle for username, if any.
func (r *Registry) Lookup(username string) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.sessions[username]
	return h, ok
}
