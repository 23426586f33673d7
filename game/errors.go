package game

import "errors"

// Per-operation rejections. None of these is fatal to the engine; they are
// surfaced to the originating connection only. Rate-limited moves are
// dropped silently and have no error value at all.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrOutOfBounds    = errors.New("position out of bounds")
)
