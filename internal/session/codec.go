package session

import (
	"bytes"
	"encoding/json"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// Codec frames messages on the match socket. Both codecs share the json
// struct tags so clients see the same field names either way.
type Codec interface {
	Name() string
	FrameType() int
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// CodecFor picks a codec by name; anything unknown gets JSON.
func CodecFor(name string) Codec {
	if name == "msgpack" {
		return msgpackCodec{}
	}
	return jsonCodec{}
}

type jsonCodec struct{}

func (jsonCodec) Name() string                    { return "json" }
func (jsonCodec) FrameType() int                  { return websocket.TextMessage }
func (jsonCodec) Encode(v any) ([]byte, error)    { return json.Marshal(v) }
func (jsonCodec) Decode(data []byte, v any) error { return json.Unmarshal(data, v) }

type msgpackCodec struct{}

func (msgpackCodec) Name() string   { return "msgpack" }
func (msgpackCodec) FrameType() int { return websocket.BinaryMessage }

func (msgpackCodec) Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetCustomStructTag("json")
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (msgpackCodec) Decode(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.SetCustomStructTag("json")
	return dec.Decode(v)
}
