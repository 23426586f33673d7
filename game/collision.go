package game

import (
	"log"
	"math"
	"time"

	"gobble/server/ledger"
)

// CheckFood scans live food in spawn order and consumes the first item
// whose center lies within the player's size. Removal from the field is the
// arbiter between racing consumers: whoever removes the item eats it, the
// other moves on to the next candidate.
func (e *Engine) CheckFood(identity string) error {
	p, ok := e.reg.Get(identity)
	if !ok {
		return ErrPlayerNotFound
	}
	view := p.View()
	for _, item := range e.food.Snapshot() {
		if Distance(view.Position, item.Position) >= view.Size {
			continue
		}
		if !e.food.Remove(item.ID) {
			continue
		}
		newSize := p.grow(e.cfg.FoodGrowthIncrement)
		e.credit(identity, ledger.InventoryDelta{Experience: e.cfg.FoodExperienceReward})
		e.bc.ToAll(EventFoodEaten, FoodEaten{FoodID: item.ID, PlayerID: identity, Size: newSize})
		return nil
	}
	return nil
}

// EatPlayer resolves a client-suggested eat attempt against authoritative
// state. Eat succeeds iff eater.size >= eaten.size * MinSizeToEatRatio; an
// eater that is too small is a silent no-op, not an error.
func (e *Engine) EatPlayer(eaterID, targetID string) error {
	if eaterID == targetID {
		return nil
	}
	eater, ok := e.reg.Get(eaterID)
	if !ok {
		return ErrPlayerNotFound
	}
	target, ok := e.reg.Get(targetID)
	if !ok {
		return ErrPlayerNotFound
	}
	e.resolveEat(eater, target)
	return nil
}

// resolveEat decides and applies an eat under both entry locks. Locks are
// taken in stable ID order so two crossing attempts cannot deadlock. The
// registry is re-checked inside the locks: either side may have been eaten,
// or eaten and replaced by a rejoin, since the caller's lookup, and a stale
// pointer must neither grow nor evict a live entry.
func (e *Engine) resolveEat(eater, target *PlayerState) {
	first, second := eater, target
	if first.ID > second.ID {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()

	if cur, ok := e.reg.Get(eater.ID); !ok || cur != eater {
		second.mu.Unlock()
		first.mu.Unlock()
		return
	}
	if eater.size < target.size*e.cfg.MinSizeToEatRatio {
		second.mu.Unlock()
		first.mu.Unlock()
		return
	}
	if !e.reg.LeaveIf(target.ID, target) {
		second.mu.Unlock()
		first.mu.Unlock()
		return
	}
	eatenSize := target.size
	eater.size += eatenSize * e.cfg.EatSizeMultiplier
	eatenSession := target.SessionID
	eatenAlive := time.Since(target.joinedAt).Seconds()
	second.mu.Unlock()
	first.mu.Unlock()

	sizeBonus := int(math.Floor(eatenSize))
	e.credit(eater.ID, ledger.InventoryDelta{
		Experience: sizeBonus * e.cfg.ExperienceMultiplier,
		Coins:      int64(sizeBonus * e.cfg.CoinMultiplier),
	})
	// The eaten player's run is over; close their session record the same
	// way a disconnect would, with final stats but no completion coins.
	e.async(func() {
		if err := e.store.CloseSession(eatenSession, ledger.SessionClose{
			EndTime:   time.Now(),
			Score:     eatenSize,
			MaxSize:   eatenSize,
			TimeAlive: eatenAlive,
		}); err != nil {
			log.Printf("LEDGER: close eaten session %s: %v", eatenSession, err)
		}
	})

	e.bc.ToOne(target.ID, EventGameOver, nil)
	e.bc.ToAll(EventPlayerEaten, PlayerEaten{EaterID: eater.ID, EatenID: target.ID})
}
