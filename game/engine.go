package game

import (
	"log"
	"sync"
	"time"

	"gobble/server/config"
	"gobble/server/ledger"
)

// Engine is the authoritative state-synchronization core: it owns the
// session registry and food field, validates every client-suggested action
// against its own state, and emits a broadcast on every state change.
// Ledger settlement happens off the real-time path: the in-memory effect is
// applied first and the persistence call follows without rollback on
// failure.
type Engine struct {
	cfg   config.Game
	bc    Broadcaster
	store ledger.Store

	reg  *Registry
	food *FoodField

	settleWG sync.WaitGroup
	stopOnce sync.Once
	stop     chan struct{}
}

func NewEngine(cfg config.Game, bc Broadcaster, store ledger.Store) *Engine {
	return &Engine{
		cfg:   cfg,
		bc:    bc,
		store: store,
		reg:   NewRegistry(),
		food:  NewFoodField(),
		stop:  make(chan struct{}),
	}
}

// Start launches the food spawner. The spawner is process-wide state: it
// survives individual connects and disconnects and stops only with the
// engine.
func (e *Engine) Start() {
	go e.spawnLoop()
}

// Stop cancels the spawner and drains in-flight ledger settlements.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() { close(e.stop) })
	e.settleWG.Wait()
}

func (e *Engine) spawnLoop() {
	ticker := time.NewTicker(e.cfg.FoodSpawnInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if e.food.Len() >= e.cfg.FoodCountTarget {
				continue
			}
			item := e.food.SpawnOne(e.cfg.MapWidth, e.cfg.MapHeight, e.cfg.FoodSize)
			e.bc.ToAll(EventFoodSpawned, item)
		case <-e.stop:
			return
		}
	}
}

// async runs a settlement call off the real-time path. Failures are logged;
// in-memory state is never rolled back.
func (e *Engine) async(fn func()) {
	e.settleWG.Add(1)
	go func() {
		defer e.settleWG.Done()
		fn()
	}()
}

func (e *Engine) credit(accountID string, delta ledger.InventoryDelta) {
	e.async(func() {
		if err := e.store.IncrementInventory(accountID, delta); err != nil {
			log.Printf("LEDGER: credit %s failed: %v", accountID, err)
		}
	})
}
