package srv

import (
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"

	"gobble/server/game"
	"gobble/server/ledger"
	"gobble/server/protocol"
)

// Conn is the transport surface the hub needs from a connection;
// *websocket.Conn satisfies it.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type client struct {
	conn  Conn
	send  chan []byte
	id    string // authenticated account identity
	codec protocol.Codec
}

// Hub is the connection gateway: it routes authenticated message streams
// into the engine and implements the engine's Broadcaster. One live
// connection per identity; a newer connection for the same identity takes
// over the event route.
type Hub struct {
	mu      sync.Mutex
	clients map[string]*client
	engine  *game.Engine
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

// SetEngine wires the engine after construction; the engine needs the hub
// as its broadcaster first.
func (h *Hub) SetEngine(e *game.Engine) { h.engine = e }

// HandleConn serves one authenticated connection until it closes. Callers
// run it on the connection's goroutine.
func (h *Hub) HandleConn(conn Conn, identity string, codec protocol.Codec) {
	c := &client{conn: conn, send: make(chan []byte, 64), id: identity, codec: codec}

	h.mu.Lock()
	if old, ok := h.clients[identity]; ok {
		// Latest connection wins the event route. Game state is untouched;
		// join stays a no-op for an already-active identity.
		close(old.send)
		old.conn.Close()
	}
	h.clients[identity] = c
	h.mu.Unlock()

	go c.writer()
	h.reader(c)
}

func (h *Hub) reader(c *client) {
	defer func() {
		c.conn.Close()
		h.mu.Lock()
		current := h.clients[c.id] == c
		if current {
			delete(h.clients, c.id)
			close(c.send)
		}
		h.mu.Unlock()
		// A replaced connection must not tear down the session the newer
		// connection is still playing.
		if current {
			h.engine.Disconnect(c.id)
		}
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		env, err := protocol.DecodeEnvelope(c.codec, data)
		if err != nil {
			log.Printf("WS %s: unreadable frame: %v", c.id, err)
			continue
		}
		h.dispatch(c, env)
	}
}

func (h *Hub) dispatch(c *client, env protocol.Envelope) {
	var err error
	switch env.Type {
	case protocol.MsgJoin:
		err = h.engine.Join(c.id)

	case protocol.MsgMove:
		var pos game.Position
		if err := c.codec.Unmarshal(env.Data, &pos); err != nil {
			h.sendError(c, "invalid position")
			return
		}
		err = h.engine.Move(c.id, pos)

	case protocol.MsgFoodCheck:
		err = h.engine.CheckFood(c.id)

	case protocol.MsgEatAttempt:
		var req protocol.EatAttempt
		if err := c.codec.Unmarshal(env.Data, &req); err != nil {
			h.sendError(c, "invalid eat attempt")
			return
		}
		err = h.engine.EatPlayer(c.id, req.TargetID)

	case protocol.MsgPurchaseSkin:
		var req protocol.PurchaseSkin
		if err := c.codec.Unmarshal(env.Data, &req); err != nil {
			h.sendError(c, "invalid skin id")
			return
		}
		err = h.engine.PurchaseSkin(c.id, req.SkinID)

	case protocol.MsgEquipSkin:
		var req protocol.EquipSkin
		if err := c.codec.Unmarshal(env.Data, &req); err != nil {
			h.sendError(c, "invalid skin id")
			return
		}
		err = h.engine.EquipSkin(c.id, req.SkinID)

	case protocol.MsgEndGame:
		err = h.engine.EndGame(c.id)

	default:
		log.Printf("WS %s: unknown message type %q", c.id, env.Type)
		return
	}

	if err != nil {
		log.Printf("WS %s: %s rejected: %v", c.id, env.Type, err)
		h.sendError(c, rejectionMessage(env.Type, err))
	}
}

// rejectionMessage keeps client-facing text descriptive for expected
// rejections and generic for everything else.
func rejectionMessage(msgType string, err error) string {
	var lerr *ledger.Error
	switch {
	case errors.Is(err, game.ErrPlayerNotFound), errors.Is(err, game.ErrOutOfBounds):
		return err.Error()
	case errors.As(err, &lerr):
		return lerr.Message
	default:
		return "failed to process " + msgType
	}
}

func (h *Hub) sendError(c *client, message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Route through the identity's current connection; if this client was
	// replaced mid-dispatch the newer connection gets the message.
	if cur, ok := h.clients[c.id]; ok {
		cur.push(game.EventError, message)
	}
}

// ToAll implements game.Broadcaster. Observers see events for a given
// identity in production order; a full send buffer drops the frame rather
// than stalling the engine.
func (h *Hub) ToAll(event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.push(event, payload)
	}
}

// ToOne implements game.Broadcaster for targeted delivery. A disconnected
// observer simply misses the event.
func (h *Hub) ToOne(identity string, event string, payload interface{}) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[identity]; ok {
		c.push(event, payload)
	}
}

// push encodes with the client's negotiated codec. Must be called with the
// hub lock held so a send never races the channel close.
func (c *client) push(event string, payload interface{}) {
	b, err := protocol.Encode(c.codec, event, payload)
	if err != nil {
		log.Printf("WS %s: encode %s: %v", c.id, event, err)
		return
	}
	select {
	case c.send <- b:
	default:
	}
}

func (c *client) writer() {
	defer c.conn.Close()
	msgType := websocket.TextMessage
	if c.codec.Binary() {
		msgType = websocket.BinaryMessage
	}
	for msg := range c.send {
		if err := c.conn.WriteMessage(msgType, msg); err != nil {
			return
		}
	}
}
