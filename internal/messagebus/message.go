// Package messagebus is a client for the OVOS/Mycroft websocket message bus.
package messagebus

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Message is one bus frame.
type Message struct {
	Type    string         `json:"type"`
	Data    map[string]any `json:"data"`
	Context map[string]any `json:"context"`
}

func New(typ string, data map[string]any) Message {
	if data == nil {
		data = map[string]any{}
	}
	return Message{Type: typ, Data: data, Context: map[string]any{}}
}

// Reply builds a response to m: the context is copied and source and
// destination are swapped.
func (m Message) Reply(typ string, data map[string]any) Message {
	r := New(typ, data)
	for k, v := range m.Context {
		r.Context[k] = v
	}
	src, hasSrc := m.Context["source"]
	dst, hasDst := m.Context["destination"]
	delete(r.Context, "source")
	delete(r.Context, "destination")
	if hasDst {
		r.Context["source"] = dst
	}
	if hasSrc {
		r.Context["destination"] = src
	}
	return r
}

// Int reads an integer parameter. JSON numbers and numeric strings are
// accepted; anything else yields def.
func (m Message) Int(key string, def int) int {
	v, ok := m.Data[key]
	if !ok || v == nil {
		return def
	}
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i
		}
	}
	return def
}

// Str reads a string parameter.
func (m Message) Str(key, def string) string {
	if s, ok := m.Data[key].(string); ok {
		return s
	}
	return def
}

func (m Message) Marshal() ([]byte, error) {
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	if m.Context == nil {
		m.Context = map[string]any{}
	}
	return json.Marshal(m)
}

func Unmarshal(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, err
	}
	if m.Data == nil {
		m.Data = map[string]any{}
	}
	if m.Context == nil {
		m.Context = map[string]any{}
	}
	return m, nil
}
