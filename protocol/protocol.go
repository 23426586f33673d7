// Package protocol defines the wire envelope and codecs shared by the
// gateway and its clients. Every frame is an Envelope whose Data holds the
// payload encoded with the same codec as the envelope itself.
package protocol

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

type Envelope struct {
	Type string          `json:"type" msgpack:"type"`
	Data json.RawMessage `json:"data,omitempty" msgpack:"data,omitempty"`
}

// Codec encodes and decodes frames for one connection. JSON text frames are
// the default; a client may negotiate msgpack binary frames at connect time.
type Codec interface {
	Name() string
	// Binary reports whether frames travel as binary websocket messages.
	Binary() bool
	Marshal(v interface{}) ([]byte, error)
	Unmarshal(b []byte, v interface{}) error
}

var (
	JSON    Codec = jsonCodec{}
	Msgpack Codec = msgpackCodec{}
)

// CodecByName resolves a negotiated codec name, defaulting to JSON.
func CodecByName(name string) Codec {
	if name == Msgpack.Name() {
		return Msgpack
	}
	return JSON
}

// Encode builds a complete frame for an event and its payload. A nil
// payload produces an envelope with no data.
func Encode(c Codec, typ string, payload interface{}) ([]byte, error) {
	env := Envelope{Type: typ}
	if payload != nil {
		data, err := c.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return c.Marshal(env)
}

// DecodeEnvelope splits a frame into its type and raw payload.
func DecodeEnvelope(c Codec, b []byte) (Envelope, error) {
	var env Envelope
	err := c.Unmarshal(b, &env)
	return env, err
}

type jsonCodec struct{}

func (jsonCodec) Name() string                              { return "json" }
func (jsonCodec) Binary() bool                              { return false }
func (jsonCodec) Marshal(v interface{}) ([]byte, error)     { return json.Marshal(v) }
func (jsonCodec) Unmarshal(b []byte, v interface{}) error   { return json.Unmarshal(b, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string                            { return "msgpack" }
func (msgpackCodec) Binary() bool                            { return true }
func (msgpackCodec) Marshal(v interface{}) ([]byte, error)   { return msgpack.Marshal(v) }
func (msgpackCodec) Unmarshal(b []byte, v interface{}) error { return msgpack.Unmarshal(b, v) }
