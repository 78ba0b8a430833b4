// Package server runs the websocket dungeon generation service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lawnchairsociety/dungeongen/internal/config"
	"github.com/lawnchairsociety/dungeongen/internal/dungeon"
	"github.com/lawnchairsociety/dungeongen/internal/layout"
	"github.com/lawnchairsociety/dungeongen/internal/logger"
)

// Store persists generated dungeons. *database.Database satisfies it.
type Store interface {
	SaveDungeon(ctx context.Context, d *dungeon.Dungeon) (int64, error)
}

// Response is the JSON reply to a generate command.
type Response struct {
	ID      int64         `json:"id,omitempty"`
	Stats   dungeon.Stats `json:"stats"`
	Dungeon *layout.Data  `json:"dungeon"`
}

// ErrorResponse is the JSON reply to a failed command.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server accepts websocket sessions and generates dungeons on request.
type Server struct {
	cfg         *config.Config
	store       Store
	connLimiter *ConnLimiter
	startTime   time.Time
	generated   atomic.Int64

	mu         sync.Mutex
	clients    map[*WebSocketClient]struct{}
	httpServer *http.Server
	sessions   sync.WaitGroup

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

// NewServer creates a server for cfg. Storage is off until SetStore is called.
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:         cfg,
		connLimiter: NewConnLimiter(cfg.Server.Connections),
		startTime:   time.Now(),
		clients:     make(map[*WebSocketClient]struct{}),
		shutdown:    make(chan struct{}),
	}
}

// SetStore attaches the store every generated dungeon is saved to.
func (s *Server) SetStore(store Store) {
	s.mu.Lock()
	s.store = store
	s.mu.Unlock()
}

// Handler returns the HTTP routes: /ws and /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocketUpgrade)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on cfg.Server.Listen until Shutdown is called.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.cfg.Server.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.mu.Lock()
	s.httpServer = srv
	s.mu.Unlock()

	logger.Info("WebSocket server listening", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections, closes open sessions and waits for
// their handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		close(s.shutdown)

		s.mu.Lock()
		srv := s.httpServer
		clients := make([]*WebSocketClient, 0, len(s.clients))
		for c := range s.clients {
			clients = append(clients, c)
		}
		s.mu.Unlock()

		if srv != nil {
			err = srv.Shutdown(ctx)
		}
		for _, c := range clients {
			c.Close("server shutting down")
		}

		done := make(chan struct{})
		go func() {
			s.sessions.Wait()
			close(done)
		}()
		select {
		case <-done:
		case <-ctx.Done():
			if err == nil {
				err = ctx.Err()
			}
		}
		logger.Info("Server shutdown complete", "generated", s.generated.Load())
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	total, _ := s.connLimiter.Stats()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
		"connections": total,
		"generated":   s.generated.Load(),
	})
}

// handleWebSocketUpgrade upgrades an HTTP connection to WebSocket.
func (s *Server) handleWebSocketUpgrade(w http.ResponseWriter, r *http.Request) {
	select {
	case <-s.shutdown:
		http.Error(w, "Server is shutting down.", http.StatusServiceUnavailable)
		return
	default:
	}

	ip := clientIP(r)
	if !s.connLimiter.TryAcquire(ip) {
		logger.Warning("WebSocket connection rejected - limit exceeded",
			"remote_addr", r.RemoteAddr,
			"client_ip", ip)
		http.Error(w, "Too many connections. Please try again later.", http.StatusTooManyRequests)
		return
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			allowed := s.cfg.Server.WebSocket.IsOriginAllowed(origin, r.Host)
			if !allowed {
				logger.Warning("WebSocket connection rejected - origin not allowed",
					"origin", origin,
					"host", r.Host,
					"remote_addr", r.RemoteAddr)
			}
			return allowed
		},
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		s.connLimiter.Release(ip)
		return
	}
	if limit := s.cfg.Server.WebSocket.MaxMessageSize; limit > 0 {
		wsConn.SetReadLimit(limit)
	}

	client := NewWebSocketClient(wsConn)
	s.mu.Lock()
	select {
	case <-s.shutdown:
		s.mu.Unlock()
		client.Close("server shutting down")
		s.connLimiter.Release(ip)
		return
	default:
	}
	s.clients[client] = struct{}{}
	s.sessions.Add(1)
	s.mu.Unlock()

	go s.handleSession(client, ip)
}

// handleSession answers commands until the client disconnects.
func (s *Server) handleSession(client *WebSocketClient, ip string) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, client)
		s.mu.Unlock()
		client.Close("")
		s.connLimiter.Release(ip)
		s.sessions.Done()
	}()

	logger.Debug("Session started", "remote_addr", client.RemoteAddr())
	for {
		line, err := client.ReadLine()
		if err != nil {
			logger.Debug("Session ended", "remote_addr", client.RemoteAddr(), "reason", err)
			return
		}
		if err := s.handleCommand(client, line); err != nil {
			logger.Debug("Reply failed", "remote_addr", client.RemoteAddr(), "error", err)
			return
		}
	}
}

func (s *Server) handleCommand(client *WebSocketClient, line string) error {
	fields := strings.Fields(line)
	switch strings.ToLower(fields[0]) {
	case "ping":
		return client.WriteLine("pong")
	case "generate":
		resp, err := s.generate(fields[1:])
		if err != nil {
			return client.WriteJSON(ErrorResponse{Error: err.Error()})
		}
		return client.WriteJSON(resp)
	default:
		return client.WriteJSON(ErrorResponse{Error: fmt.Sprintf("unknown command %q", fields[0])})
	}
}

// requestParams applies the optional generate argument, a seed or "random",
// to the configured parameters.
func (s *Server) requestParams(args []string) (dungeon.Params, error) {
	p := s.cfg.Generation
	if len(args) == 0 {
		return p, nil
	}
	if len(args) > 1 {
		return p, fmt.Errorf("usage: generate [seed|random]")
	}
	if strings.EqualFold(args[0], "random") {
		p.RandomSeed = true
		return p, nil
	}
	seed, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return p, fmt.Errorf("invalid seed %q", args[0])
	}
	p.Seed = seed
	p.RandomSeed = false
	return p, nil
}

func (s *Server) generate(args []string) (*Response, error) {
	p, err := s.requestParams(args)
	if err != nil {
		return nil, err
	}

	d, err := dungeon.GenerateSeeded(p)
	if err != nil {
		return nil, err
	}
	s.generated.Add(1)

	resp := &Response{Stats: d.Stats(), Dungeon: layout.FromDungeon(d)}

	s.mu.Lock()
	store := s.store
	s.mu.Unlock()
	if store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := store.SaveDungeon(ctx, d)
		if err != nil {
			logger.Error("Failed to save dungeon", "seed", d.Seed, "error", err)
		} else {
			resp.ID = id
		}
	}
	return resp, nil
}
