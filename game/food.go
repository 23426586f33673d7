package game

import (
	"fmt"
	"sync"
)

// FoodItem is an edible entity. Created by the spawner, destroyed the
// instant it is consumed.
type FoodItem struct {
	ID       string   `json:"id" msgpack:"id"`
	Position Position `json:"position" msgpack:"position"`
	Size     float64  `json:"size" msgpack:"size"`
}

// FoodField is the authoritative table of live food. Iteration order is
// spawn order, which fixes first-match behavior for food checks.
type FoodField struct {
	mu    sync.Mutex
	items map[string]FoodItem
	order []string
	seq   uint64
}

func NewFoodField() *FoodField {
	return &FoodField{items: make(map[string]FoodItem)}
}

// SpawnOne creates a food item at a uniform random position in map bounds.
func (f *FoodField) SpawnOne(width, height, size float64) FoodItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	item := FoodItem{
		ID:       foodID(f.seq),
		Position: RandomPosition(width, height),
		Size:     size,
	}
	f.items[item.ID] = item
	f.order = append(f.order, item.ID)
	return item
}

// Remove deletes an item and reports whether it existed. The boolean is the
// at-most-one-consumer guarantee: of two racing consumers, only one sees true.
func (f *FoodField) Remove(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[id]; !ok {
		return false
	}
	delete(f.items, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return true
}

func (f *FoodField) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// Snapshot returns the live items in spawn order.
func (f *FoodField) Snapshot() []FoodItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]FoodItem, 0, len(f.items))
	for _, id := range f.order {
		out = append(out, f.items[id])
	}
	return out
}

func foodID(seq uint64) string {
	return fmt.Sprintf("food-%d", seq)
}
