package web

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/guidoenr/brainwave/internal/params"
	"github.com/guidoenr/brainwave/internal/render"
	"go.uber.org/zap"
)

//go:embed index.html
var indexHTML []byte

// Status is the JSON body of /api/status and of every websocket push.
type Status struct {
	Snapshot  render.Snapshot `json:"snapshot"`
	FPS       float64         `json:"fps"`
	Source    string          `json:"source"`
	Backend   string          `json:"backend"`
	Smoothing bool            `json:"smoothing"`
}

// Update is a partial change of the running visuals. Nil fields are left
// alone.
type Update struct {
	Mode         *string  `json:"mode,omitempty"`
	ElementCount *int     `json:"elementCount,omitempty"`
	TrailAlpha   *float64 `json:"trailAlpha,omitempty"`
	ShowOverlays *bool    `json:"showOverlays,omitempty"`
}

// Apply merges u into p.
func (u Update) Apply(p params.Parameters) params.Parameters {
	if u.Mode != nil {
		p.Mode = *u.Mode
	}
	if u.ElementCount != nil {
		p.ElementCount = *u.ElementCount
	}
	if u.TrailAlpha != nil {
		p.TrailAlpha = *u.TrailAlpha
	}
	if u.ShowOverlays != nil {
		p.ShowOverlays = *u.ShowOverlays
	}
	return p
}

// Controller is the running visualizer as the server sees it.
type Controller interface {
	Status() Status
	Params() params.Parameters
	// Modify applies edit to the parameters in effect and validates the
	// result in one step, returning what is now in effect. An invalid
	// result leaves the parameters unchanged.
	Modify(edit func(params.Parameters) params.Parameters) (params.Parameters, error)
	// Frame copies the current pixels; ok is false when the backend has none.
	Frame() (img *image.RGBA, ok bool, err error)
}

// Config controls a Server.
type Config struct {
	// SavePath is where /api/save writes the parameters as YAML.
	SavePath string
	// Interval between websocket status pushes.
	Interval time.Duration
	Log      *zap.Logger
}

// Server exposes status and controls over HTTP and a websocket feed.
type Server struct {
	ctrl     Controller
	cfg      Config
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewServer wires a Server to ctrl.
func NewServer(ctrl Controller, cfg Config) *Server {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.SavePath == "" {
		cfg.SavePath = "brainwave.yaml"
	}
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	return &Server{
		ctrl:    ctrl,
		cfg:     cfg,
		log:     cfg.Log,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/modes", s.handleModes)
	mux.HandleFunc("/api/params", s.handleParams)
	mux.HandleFunc("/api/update", s.handleUpdate)
	mux.HandleFunc("/api/save", s.handleSave)
	mux.HandleFunc("/api/frame.png", s.handleFrame)
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.log.Info("web server listening", zap.String("addr", ln.Addr().String()))

	go s.statusLoop(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexHTML)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Status())
}

func (s *Server) handleModes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, render.ModeNames())
}

func (s *Server) handleParams(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Params())
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req Update
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	applied, err := s.ctrl.Modify(req.Apply)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, params.ErrInvalid) {
			status = http.StatusBadRequest
		}
		http.Error(w, err.Error(), status)
		return
	}
	s.log.Info("parameters updated via web",
		zap.String("mode", applied.Mode),
		zap.Int("elements", applied.ElementCount),
		zap.Float64("trail_alpha", applied.TrailAlpha),
	)
	writeJSON(w, applied)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := params.Save(s.cfg.SavePath, s.ctrl.Params()); err != nil {
		http.Error(w, fmt.Sprintf("failed to save config: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]string{"status": "saved", "path": s.cfg.SavePath})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	img, ok, err := s.ctrl.Frame()
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if !ok {
		http.Error(w, "backend has no frame buffer", http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writePump(c)
	go s.readPump(c)
}

// Clients returns the number of connected websocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) statusLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.Clients() == 0 {
				continue
			}
			data, err := json.Marshal(s.ctrl.Status())
			if err != nil {
				s.log.Warn("encode status", zap.Error(err))
				continue
			}
			s.broadcast(data)
		}
	}
}

// broadcast queues data for every client, dropping clients that fell
// behind.
func (s *Server) broadcast(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(s.clients, c)
		}
	}
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		close(c.send)
		delete(s.clients, c)
	}
}

func (s *Server) closeClients() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		close(c.send)
		delete(s.clients, c)
	}
}

func (s *Server) readPump(c *client) {
	defer func() {
		s.remove(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(c *client) {
	ping := time.NewTicker(54 * time.Second)
	defer func() {
		ping.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ping.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
