package game

import "sync"

// Registry is the authoritative table of active players. The RWMutex only
// guards map membership; per-player mutation goes through each entry's own
// lock so operations on different identities never block each other.
type Registry struct {
	mu      sync.RWMutex
	players map[string]*PlayerState
}

func NewRegistry() *Registry {
	return &Registry{players: make(map[string]*PlayerState)}
}

// Join registers a player. A second join for an identity that is already
// active is a no-op: the existing state is returned and joined is false.
func (r *Registry) Join(id, sessionID, skinID string, pos Position, size float64) (p *PlayerState, joined bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.players[id]; ok {
		return existing, false
	}
	p = newPlayerState(id, sessionID, skinID, pos, size)
	r.players[id] = p
	return p, true
}

// Leave removes and returns the entry, if present. Used by both explicit
// end-game and disconnect, so absence is not an error here.
func (r *Registry) Leave(id string) (*PlayerState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	if ok {
		delete(r.players, id)
	}
	return p, ok
}

// LeaveIf removes id only while it still maps to p. Guards callers holding
// a pointer from an earlier lookup against a concurrent leave-and-rejoin,
// which Leave's ok return cannot distinguish from the pointer they hold.
func (r *Registry) LeaveIf(id string, p *PlayerState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.players[id] != p {
		return false
	}
	delete(r.players, id)
	return true
}

func (r *Registry) Get(id string) (*PlayerState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.players[id]
	return p, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.players)
}

// Views snapshots the full roster for a game_state message.
func (r *Registry) Views() []PlayerView {
	r.mu.RLock()
	players := make([]*PlayerState, 0, len(r.players))
	for _, p := range r.players {
		players = append(players, p)
	}
	r.mu.RUnlock()

	views := make([]PlayerView, 0, len(players))
	for _, p := range players {
		views = append(views, p.View())
	}
	return views
}
