package messagebus

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// ErrNotConnected is returned by Emit while no connection is up.
var ErrNotConnected = errors.New("messagebus: not connected")

// Handler is invoked for a subscribed message type. Handlers run on the
// connection's read goroutine, one at a time, in arrival order.
type Handler func(Message)

// Client subscribes to message types and emits messages.
type Client struct {
	url       string
	dialer    *websocket.Dialer
	logger    zerolog.Logger
	reconnect time.Duration

	hmu      sync.RWMutex
	handlers map[string][]Handler

	wmu  sync.Mutex
	conn *websocket.Conn
}

type Option func(*Client)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithReconnect sets the delay between connection attempts.
func WithReconnect(d time.Duration) Option {
	return func(c *Client) { c.reconnect = d }
}

func NewClient(url string, opts ...Option) *Client {
	c := &Client{
		url:       url,
		dialer:    websocket.DefaultDialer,
		logger:    zerolog.Nop(),
		reconnect: 5 * time.Second,
		handlers:  map[string][]Handler{},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// On subscribes h to messages of type typ.
func (c *Client) On(typ string, h Handler) {
	c.hmu.Lock()
	defer c.hmu.Unlock()
	c.handlers[typ] = append(c.handlers[typ], h)
}

// Emit sends m on the current connection.
func (c *Client) Emit(m Message) error {
	b, err := m.Marshal()
	if err != nil {
		return err
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if c.conn == nil {
		return ErrNotConnected
	}
	c.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return c.conn.WriteMessage(websocket.TextMessage, b)
}

// Run connects and dispatches incoming messages until ctx is done,
// reconnecting after the connection drops.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.serve(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Warn().Err(err).Str("url", c.url).Dur("retry", c.reconnect).Msg("message bus disconnected")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.reconnect):
		}
	}
}

func (c *Client) serve(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	c.wmu.Lock()
	c.conn = conn
	c.wmu.Unlock()
	c.logger.Info().Str("url", c.url).Msg("message bus connected")

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer func() {
		stop()
		c.wmu.Lock()
		c.conn = nil
		c.wmu.Unlock()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		m, err := Unmarshal(data)
		if err != nil {
			c.logger.Debug().Err(err).Msg("dropping malformed message")
			continue
		}
		c.dispatch(m)
	}
}

func (c *Client) dispatch(m Message) {
	c.hmu.RLock()
	hs := c.handlers[m.Type]
	c.hmu.RUnlock()
	for _, h := range hs {
		h(m)
	}
}
