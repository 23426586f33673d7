package game

// Move validates and applies a position update. Bounds are checked because
// the client is untrusted; the rate gate exists because input frequency is
// client-controlled. A rate-limited move is dropped without an error so the
// sender cannot distinguish it from a slow network.
func (e *Engine) Move(identity string, pos Position) error {
	p, ok := e.reg.Get(identity)
	if !ok {
		return ErrPlayerNotFound
	}
	if !pos.InBounds(e.cfg.MapWidth, e.cfg.MapHeight) {
		return ErrOutOfBounds
	}
	if !p.tryMove(pos, e.cfg.MoveRateLimit) {
		return nil
	}
	// Everyone hears the accepted move, the mover included, so its client
	// renders the authoritative echo instead of its local prediction.
	e.bc.ToAll(EventPlayerMoved, PlayerMoved{ID: identity, Position: pos})
	return nil
}
