package gateway

import (
	stdjson "encoding/json"

	jsoniter "github.com/json-iterator/go"
	"github.com/vmihailenco/msgpack/v5"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RawMessage is the stdlib's deferred-decode byte slice. Named here
// rather than referenced as json.RawMessage since the package-level
// json identifier above is the jsoniter API value, not a package.
type RawMessage = stdjson.RawMessage

// envelope is the wire shape for every event in both directions: a
// string event name plus an opaque payload, so the dispatch table can
// key on event type rather than inferring shape from content.
type envelope struct {
	Event   string     `json:"event"`
	Payload RawMessage `json:"payload"`
}

// Codec encodes/decodes envelopes. Two implementations exist, plain JSON
// and msgpack; the server picks one at startup and uses it for every
// connection. Decode always returns the payload as JSON, which is what
// the dispatch handlers decode.
type Codec interface {
	Encode(event string, payload interface{}) ([]byte, error)
	Decode(data []byte) (event string, payload RawMessage, err error)
}

// JSONCodec is the default codec.
type JSONCodec struct{}

func (JSONCodec) Encode(event string, payload interface{}) ([]byte, error) {
	p, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Event: event, Payload: p})
}

func (JSONCodec) Decode(data []byte) (string, RawMessage, error) {
	var e envelope
	if err := json.Unmarshal(data, &e); err != nil {
		return "", nil, err
	}
	return e.Event, e.Payload, nil
}

// MsgpackEnvelope mirrors envelope but with msgpack tags; kept distinct
// from envelope since jsoniter and msgpack disagree on RawMessage
// handling.
type msgpackEnvelope struct {
	Event   string `msgpack:"event"`
	Payload []byte `msgpack:"payload"`
}

// MsgpackCodec is the binary wire codec option, for bandwidth-sensitive
// deployments.
type MsgpackCodec struct{}

func (MsgpackCodec) Encode(event string, payload interface{}) ([]byte, error) {
	p, err := msgpack.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return msgpack.Marshal(msgpackEnvelope{Event: event, Payload: p})
}

func (MsgpackCodec) Decode(data []byte) (string, RawMessage, error) {
	var e msgpackEnvelope
	if err := msgpack.Unmarshal(data, &e); err != nil {
		return "", nil, err
	}
	if len(e.Payload) == 0 {
		return e.Event, nil, nil
	}
	var v interface{}
	if err := msgpack.Unmarshal(e.Payload, &v); err != nil {
		return "", nil, err
	}
	p, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return e.Event, RawMessage(p), nil
}
