package game

import (
	"fmt"
	"log"
	"time"

	"gobble/server/ledger"
)

// Join registers a session for identity. Joining while already active is a
// no-op for shared state; the caller is just resynced with the roster.
func (e *Engine) Join(identity string) error {
	if _, ok := e.reg.Get(identity); ok {
		e.bc.ToOne(identity, EventGameState, GameState{Players: e.reg.Views(), SelfID: identity})
		return nil
	}

	sessionID, err := e.store.CreateSession(identity)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	inv, err := e.store.FindInventory(identity)
	if err != nil {
		return fmt.Errorf("load inventory: %w", err)
	}

	p, joined := e.reg.Join(identity, sessionID, inv.EquippedSkin(),
		RandomPosition(e.cfg.MapWidth, e.cfg.MapHeight), e.cfg.InitialSize)
	if !joined {
		// Lost a join race. Close the session record we just opened and
		// resync; the winner's registration stands.
		e.async(func() {
			if err := e.store.CloseSession(sessionID, ledger.SessionClose{EndTime: time.Now()}); err != nil {
				log.Printf("LEDGER: close duplicate session %s: %v", sessionID, err)
			}
		})
		e.bc.ToOne(identity, EventGameState, GameState{Players: e.reg.Views(), SelfID: identity})
		return nil
	}

	e.bc.ToAll(EventPlayerJoined, p.View())
	e.bc.ToOne(identity, EventGameState, GameState{Players: e.reg.Views(), SelfID: identity})
	return nil
}

// EndGame closes the session with terminal stats and credits the completion
// reward, plus the level-up bonus when accumulated experience has crossed
// the threshold. The award is a single atomic increment.
func (e *Engine) EndGame(identity string) error {
	p, ok := e.reg.Leave(identity)
	if !ok {
		return ErrPlayerNotFound
	}
	size := p.Size()
	alive := p.TimeAlive()
	sessionID := p.SessionID

	e.async(func() {
		if err := e.store.CloseSession(sessionID, ledger.SessionClose{
			EndTime:   time.Now(),
			Score:     size,
			MaxSize:   size,
			TimeAlive: alive,
		}); err != nil {
			log.Printf("LEDGER: close session %s: %v", sessionID, err)
		}
		inv, err := e.store.FindInventory(identity)
		if err != nil {
			log.Printf("LEDGER: load inventory %s: %v", identity, err)
			return
		}
		delta := ledger.InventoryDelta{Coins: int64(e.cfg.EndGameCoins)}
		if inv.Experience >= e.cfg.LevelUpExperienceThreshold {
			delta.Level = 1
			delta.Experience = e.cfg.LevelUpBonus
		}
		if err := e.store.IncrementInventory(identity, delta); err != nil {
			log.Printf("LEDGER: end-game award %s: %v", identity, err)
		}
	})

	e.bc.ToAll(EventPlayerLeft, identity)
	return nil
}

// Disconnect tears the session down after an abrupt close. Unlike EndGame
// it records the end time only and awards nothing. Idempotent: a session
// that was never joined, or already closed, disconnects cleanly.
func (e *Engine) Disconnect(identity string) {
	p, ok := e.reg.Leave(identity)
	if !ok {
		return
	}
	sessionID := p.SessionID
	e.async(func() {
		if err := e.store.CloseSession(sessionID, ledger.SessionClose{EndTime: time.Now()}); err != nil {
			log.Printf("LEDGER: close session %s on disconnect: %v", sessionID, err)
		}
	})
	e.bc.ToAll(EventPlayerLeft, identity)
}
