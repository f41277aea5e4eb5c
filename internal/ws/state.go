package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	diag "github.com/example/sj201-leds/internal/diagnostics"
	"github.com/example/sj201-leds/internal/enclosure"
	"github.com/example/sj201-leds/internal/led"
	"github.com/example/sj201-leds/internal/messagebus"
)

// Source is what the server reports on.
type Source interface {
	CurrentColors() led.PixelState
	Speaking() bool
	Listening() bool
}

// Server exposes ring state over HTTP and websockets.
type Server struct {
	mu     sync.RWMutex
	src    Source
	Driver string
	FPS    int
	logger zerolog.Logger

	// inject hands control messages to the event dispatcher.
	inject func(messagebus.Message)

	last        led.PixelState
	frameID     uint64
	startTime   time.Time
	unreachable bool
	clients     map[*websocket.Conn]bool
	diagClients map[*websocket.Conn]bool
}

func NewServer(driver string, fps int, inject func(messagebus.Message), logger zerolog.Logger) *Server {
	return &Server{
		Driver:      driver,
		FPS:         fps,
		inject:      inject,
		logger:      logger,
		startTime:   time.Now(),
		clients:     map[*websocket.Conn]bool{},
		diagClients: map[*websocket.Conn]bool{},
	}
}

// SetSource attaches the animator once it exists.
func (s *Server) SetSource(src Source) {
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
}

// Routes returns the server's handlers.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.HandleFramesWS)
	mux.HandleFunc("/diag", s.HandleDiagWS)
	mux.HandleFunc("/control", s.HandleControlWS)
	mux.HandleFunc("/health", s.HandleHealth)
	mux.HandleFunc("/pixels", s.HandlePixels)
	return mux
}

// ObserveStatus is a led.Observe hook: it pushes a diagnostic whenever the
// transport flips between reachable and unreachable.
func (s *Server) ObserveStatus(index int, c led.Color, st led.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case st == led.Unreachable && !s.unreachable:
		s.unreachable = true
		s.pushDiag(diag.Unreachable(s.Driver, index))
	case st == led.Committed && s.unreachable:
		s.unreachable = false
		s.pushDiag(diag.Recovered(s.Driver))
	}
}

// RunBroadcastLoop sends a frame to /ws clients whenever the ring changed.
func (s *Server) RunBroadcastLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Second / time.Duration(max(1, s.FPS)))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick broadcasts the current frame if it differs from the last one sent.
func (s *Server) Tick() {
	s.mu.Lock()
	if s.src == nil {
		s.mu.Unlock()
		return
	}
	cur := s.src.CurrentColors()
	if cur == s.last && s.frameID > 0 {
		s.mu.Unlock()
		return
	}
	s.last = cur
	s.frameID++
	s.mu.Unlock()

	s.broadcastFrame(cur)
}

func (s *Server) HandleFramesWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.sendStatus(conn)
	s.mu.Lock()
	s.clients[conn] = true
	s.mu.Unlock()

	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.clients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) HandleDiagWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.mu.Lock()
	s.diagClients[conn] = true
	s.mu.Unlock()
	go func() {
		defer func() {
			s.mu.Lock()
			delete(s.diagClients, conn)
			s.mu.Unlock()
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// HandleControlWS accepts bus messages and queues them for dispatch, the same
// as if they had arrived on the message bus.
func (s *Server) HandleControlWS(w http.ResponseWriter, r *http.Request) {
	up := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		m, err := messagebus.Unmarshal(data)
		if err != nil || m.Type == "" {
			b, _ := json.Marshal(diag.Diagnostic{Severity: diag.Warn, Code: diag.ControlRejected, Summary: "expected a bus message"})
			_ = conn.WriteMessage(websocket.TextMessage, b)
			continue
		}
		s.logger.Debug().Str("event", m.Type).Msg("control message")
		if s.inject != nil {
			s.inject(m)
		}
		s.sendStatus(conn)
	}
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(s.status())
}

// HandlePixels answers the same query as enclosure.eyes.rgb.get.
func (s *Server) HandlePixels(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	src := s.src
	s.mu.RUnlock()
	var st led.PixelState
	if src != nil {
		st = src.CurrentColors()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(enclosure.PixelsPayload(st))
}

func (s *Server) status() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	resp := map[string]any{
		"frame_id":  s.frameID,
		"uptime_s":  time.Since(s.startTime).Seconds(),
		"count":     led.NumPixels,
		"driver":    s.Driver,
		"reachable": !s.unreachable,
		"speaking":  false,
		"listening": false,
		"fps":       s.FPS,
	}
	if s.src != nil {
		resp["speaking"] = s.src.Speaking()
		resp["listening"] = s.src.Listening()
	}
	return resp
}

func (s *Server) sendStatus(conn *websocket.Conn) {
	b, _ := json.Marshal(s.status())
	conn.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
	_ = conn.WriteMessage(websocket.TextMessage, b)
}

func (s *Server) broadcastFrame(st led.PixelState) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type frame struct {
		T       int64   `json:"t"`
		FrameID uint64  `json:"frame_id"`
		Pixels  [][]int `json:"pixels"`
	}
	b, _ := json.Marshal(frame{
		T:       time.Now().UnixNano(),
		FrameID: s.frameID,
		Pixels:  enclosure.PixelsPayload(st)["pixels"].([][]int),
	})
	for c := range s.clients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		if err := c.WriteMessage(websocket.TextMessage, b); err != nil {
			s.logger.Debug().Err(err).Msg("write frame")
		}
	}
}

// pushDiag must be called with s.mu held.
func (s *Server) pushDiag(d diag.Diagnostic) {
	lvl := zerolog.WarnLevel
	if d.Severity == diag.Info {
		lvl = zerolog.InfoLevel
	}
	s.logger.WithLevel(lvl).Str("code", d.Code).Msg(d.Summary)
	b, _ := json.Marshal(d)
	for c := range s.diagClients {
		c.SetWriteDeadline(time.Now().Add(200 * time.Millisecond))
		_ = c.WriteMessage(websocket.TextMessage, b)
	}
}
