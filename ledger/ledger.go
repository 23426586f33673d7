// Package ledger is the persistent store of account currency, experience,
// level, owned cosmetics and game sessions. The engine treats it as an
// external collaborator: real-time state is applied first and settlement is
// requested afterwards, so every write here must be atomic on its own.
package ledger

import (
	"fmt"
	"time"
)

// Inventory is the per-account progression record.
type Inventory struct {
	AccountID  string      `json:"accountId"`
	Experience int         `json:"experience"`
	Level      int         `json:"level"`
	Coins      int64       `json:"coins"`
	Skins      []OwnedSkin `json:"skins"`
}

type OwnedSkin struct {
	SkinID   string    `json:"skinId"`
	Acquired time.Time `json:"acquired"`
	Equipped bool      `json:"equipped"`
}

// EquippedSkin returns the id of the equipped skin, or "" when none is.
func (inv *Inventory) EquippedSkin() string {
	for _, s := range inv.Skins {
		if s.Equipped {
			return s.SkinID
		}
	}
	return ""
}

// Skin is a catalog entry.
type Skin struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ImageURL string   `json:"imageUrl"`
	Price    int64    `json:"price"`
	Rarity   string   `json:"rarity"`
	Effects  []string `json:"effects,omitempty"`
}

// Session records one join-to-leave span of play.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime,omitempty"`
	Score     float64   `json:"score,omitempty"`
	MaxSize   float64   `json:"maxSize,omitempty"`
	TimeAlive float64   `json:"timeAlive,omitempty"`
}

// SessionClose carries the terminal fields for CloseSession. A disconnect
// close records the end time only and leaves the rest zero.
type SessionClose struct {
	EndTime   time.Time
	Score     float64
	MaxSize   float64
	TimeAlive float64
}

// InventoryDelta is a set of atomic increments. Zero fields are untouched.
type InventoryDelta struct {
	Experience int
	Coins      int64
	Level      int
}

// Store is the ledger interface consumed by the engine and by signup.
// Increments are applied store-side; callers never read-modify-write.
type Store interface {
	CreateInventory(accountID, starterSkinID string) error
	FindInventory(accountID string) (*Inventory, error)
	IncrementInventory(accountID string, delta InventoryDelta) error

	FindSkin(skinID string) (*Skin, error)
	// AppendOwnedSkin adds a skin to the account and deducts its price in
	// the same guarded operation.
	AppendOwnedSkin(accountID, skinID string) error
	// SetEquippedSkin equips one owned skin and unequips every other in a
	// single update.
	SetEquippedSkin(accountID, skinID string) error

	CreateSession(accountID string) (string, error)
	CloseSession(sessionID string, c SessionClose) error
}

// Typed errors so callers can turn store rejections into descriptive
// per-connection messages.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

var (
	ErrNoInventory       = &Error{Code: "NO_INVENTORY", Message: "inventory not found"}
	ErrNoSkin            = &Error{Code: "NO_SKIN", Message: "skin not found"}
	ErrNoSession         = &Error{Code: "NO_SESSION", Message: "session not found"}
	ErrSkinNotOwned      = &Error{Code: "SKIN_NOT_OWNED", Message: "skin not owned"}
	ErrInsufficientCoins = &Error{Code: "INSUFFICIENT_COINS", Message: "not enough coins"}
)
