package messagebus

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplySwapsSourceAndDestination(t *testing.T) {
	req := New("enclosure.eyes.rgb.get", nil)
	req.Context["source"] = "skills"
	req.Context["destination"] = "PHAL"
	req.Context["session"] = "abc"

	r := req.Reply("enclosure.eyes.rgb", map[string]any{"pixels": 1})

	assert.Equal(t, "enclosure.eyes.rgb", r.Type)
	assert.Equal(t, "PHAL", r.Context["source"])
	assert.Equal(t, "skills", r.Context["destination"])
	assert.Equal(t, "abc", r.Context["session"])
	// request untouched
	assert.Equal(t, "skills", req.Context["source"])
}

func TestReplyWithoutRouting(t *testing.T) {
	r := New("a", nil).Reply("b", nil)
	assert.NotContains(t, r.Context, "source")
	assert.NotContains(t, r.Context, "destination")
	assert.NotNil(t, r.Data)
}

func TestIntAccessor(t *testing.T) {
	m, err := Unmarshal([]byte(`{"type":"x","data":{"a":3,"b":"7","c":2.9,"d":"x","e":null,"f":true}}`))
	require.NoError(t, err)

	assert.Equal(t, 3, m.Int("a", 0))
	assert.Equal(t, 7, m.Int("b", 0))
	assert.Equal(t, 2, m.Int("c", 0))
	assert.Equal(t, 1, m.Int("d", 1))
	assert.Equal(t, 10, m.Int("e", 10))
	assert.Equal(t, 4, m.Int("f", 4))
	assert.Equal(t, 5, m.Int("missing", 5))
	assert.Equal(t, 9, Message{Data: map[string]any{"n": json.Number("9")}}.Int("n", 0))
}

func TestUnmarshalFillsMaps(t *testing.T) {
	m, err := Unmarshal([]byte(`{"type":"mycroft.stop"}`))
	require.NoError(t, err)
	assert.NotNil(t, m.Data)
	assert.NotNil(t, m.Context)
	assert.Equal(t, "def", m.Str("k", "def"))

	_, err = Unmarshal([]byte(`{`))
	assert.Error(t, err)
}

// busServer is a minimal message bus: it sends each of out to a connecting
// client and forwards whatever the client writes to in.
func busServer(t *testing.T, out []string, in chan<- Message) *httptest.Server {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, s := range out {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(s)); err != nil {
				return
			}
		}
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				return
			}
			m, err := Unmarshal(b)
			if err == nil {
				in <- m
			}
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestClientDispatchesInOrderAndEmits(t *testing.T) {
	in := make(chan Message, 4)
	srv := busServer(t, []string{
		`{"type":"enclosure.eyes.volume","data":{"volume":4}}`,
		`not json`,
		`{"type":"unrelated"}`,
		`{"type":"enclosure.eyes.volume","data":{"volume":8}}`,
	}, in)

	c := NewClient(wsURL(srv), WithReconnect(10*time.Millisecond))
	got := make(chan int, 2)
	c.On("enclosure.eyes.volume", func(m Message) {
		got <- m.Int("volume", -1)
		if m.Int("volume", -1) == 8 {
			assert.NoError(t, c.Emit(m.Reply("ack", map[string]any{"ok": true})))
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	assert.Equal(t, 4, <-got)
	assert.Equal(t, 8, <-got)
	select {
	case m := <-in:
		assert.Equal(t, "ack", m.Type)
		assert.Equal(t, true, m.Data["ok"])
	case <-time.After(2 * time.Second):
		t.Fatal("no ack received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestEmitWithoutConnection(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/core")
	assert.ErrorIs(t, c.Emit(New("x", nil)), ErrNotConnected)
}
