package protocol

// Inbound message names. Outbound names live with the engine that emits
// them (package game).
const (
	MsgJoin         = "join"
	MsgMove         = "move"
	MsgFoodCheck    = "request_food_check"
	MsgEatAttempt   = "eat_attempt"
	MsgPurchaseSkin = "purchase_skin"
	MsgEquipSkin    = "equip_skin"
	MsgEndGame      = "end_game"
)

// ================= C -> S payloads =================

// Move carries the client-proposed position directly as {x, y}; the engine
// treats it as untrusted input.

type EatAttempt struct {
	TargetID string `json:"targetId" msgpack:"targetId"`
}

type PurchaseSkin struct {
	SkinID string `json:"skinId" msgpack:"skinId"`
}

type EquipSkin struct {
	SkinID string `json:"skinId" msgpack:"skinId"`
}
