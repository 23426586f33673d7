package game

// Outbound event names. These are the wire names observers subscribe to.
const (
	EventPlayerJoined      = "player_joined"
	EventGameState         = "game_state"
	EventPlayerMoved       = "player_moved"
	EventFoodSpawned       = "food_spawned"
	EventFoodEaten         = "food_eaten"
	EventPlayerEaten       = "player_eaten"
	EventGameOver          = "game_over"
	EventPlayerLeft        = "player_left"
	EventPlayerSkinChanged = "player_skin_changed"
	EventSkinPurchased     = "skin_purchased"
	EventError             = "error"
)

// GameState is sent to a joining connection only: the full roster plus the
// caller's own identity so the client can tell "self" apart.
type GameState struct {
	Players []PlayerView `json:"players" msgpack:"players"`
	SelfID  string       `json:"selfId" msgpack:"selfId"`
}

type PlayerMoved struct {
	ID       string   `json:"id" msgpack:"id"`
	Position Position `json:"position" msgpack:"position"`
}

// FoodEaten carries enough for observers to drop one food entity and bump
// one player's size without re-fetching state.
type FoodEaten struct {
	FoodID   string  `json:"foodId" msgpack:"foodId"`
	PlayerID string  `json:"playerId" msgpack:"playerId"`
	Size     float64 `json:"size" msgpack:"size"`
}

type PlayerEaten struct {
	EaterID string `json:"eaterId" msgpack:"eaterId"`
	EatenID string `json:"eatenId" msgpack:"eatenId"`
}

type SkinPurchased struct {
	SkinID string `json:"skinId" msgpack:"skinId"`
	Price  int64  `json:"price" msgpack:"price"`
}

type SkinChanged struct {
	PlayerID string `json:"playerId" msgpack:"playerId"`
	SkinID   string `json:"skinId" msgpack:"skinId"`
}
