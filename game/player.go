package game

import (
	"sync"
	"time"
)

// PlayerState is the authoritative record for one connected player. The
// registry owns the map entry; the embedded mutex serializes operations on
// this identity without blocking unrelated players.
type PlayerState struct {
	mu sync.Mutex

	ID        string
	SessionID string

	pos      Position
	size     float64
	skinID   string
	lastMove time.Time
	joinedAt time.Time
}

// PlayerView is the wire representation of a player.
type PlayerView struct {
	ID       string   `json:"id" msgpack:"id"`
	Position Position `json:"position" msgpack:"position"`
	Size     float64  `json:"size" msgpack:"size"`
	SkinID   string   `json:"skinId,omitempty" msgpack:"skinId,omitempty"`
}

func newPlayerState(id, sessionID, skinID string, pos Position, size float64) *PlayerState {
	return &PlayerState{
		ID:        id,
		SessionID: sessionID,
		pos:       pos,
		size:      size,
		skinID:    skinID,
		joinedAt:  time.Now(),
	}
}

func (p *PlayerState) View() PlayerView {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PlayerView{ID: p.ID, Position: p.pos, Size: p.size, SkinID: p.skinID}
}

func (p *PlayerState) Position() Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pos
}

func (p *PlayerState) Size() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.size
}

func (p *PlayerState) TimeAlive() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Since(p.joinedAt).Seconds()
}

// tryMove applies a position update unless one was already accepted within
// the rate-limit window. The first move after join is always accepted.
func (p *PlayerState) tryMove(pos Position, limit time.Duration) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	if !p.lastMove.IsZero() && now.Sub(p.lastMove) < limit {
		return false
	}
	p.pos = pos
	p.lastMove = now
	return true
}

// grow increases size by delta and returns the new size. Size only ever
// increases while the session is active.
func (p *PlayerState) grow(delta float64) float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.size += delta
	return p.size
}

func (p *PlayerState) setSkin(skinID string) {
	p.mu.Lock()
	p.skinID = skinID
	p.mu.Unlock()
}
