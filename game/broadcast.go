package game

// Broadcaster fans state-change events out to connected observers. Delivery
// is best-effort at-most-once; implementations must preserve the order in
// which events for a given identity were produced, and nothing more.
type Broadcaster interface {
	ToAll(event string, payload interface{})
	ToOne(identity string, event string, payload interface{})
}
