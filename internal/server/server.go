// Package server streams live generations over websockets and serves
// stored run history as JSON.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/citygen/internal/config"
	"github.com/lawnchairsociety/citygen/internal/database"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/lawnchairsociety/citygen/internal/tileset"
)

// RunStore persists finished generations. *database.Database satisfies it.
type RunStore interface {
	SaveRun(r *database.Run) (int64, error)
	GetRunWithPlacements(id int64) (*database.Run, error)
	ListRuns(limit int) ([]*database.Run, error)
}

// Server serves the generation stream and run history.
type Server struct {
	cfg       config.ServerConfig
	generator config.GeneratorConfig
	tiles     *tileset.Tileset
	store     RunStore
	limiter   *GenerationLimiter
	upgrader  websocket.Upgrader

	httpServer *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	active     sync.WaitGroup
}

// New creates a server. store may be nil, which disables run history.
func New(cfg *config.Config, tiles *tileset.Tileset, store RunStore) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		cfg:       cfg.Server,
		generator: cfg.Generator,
		tiles:     tiles,
		store:     store,
		limiter:   NewGenerationLimiter(cfg.Server.MaxConcurrentGenerations, cfg.Server.MaxGenerationsPerIP),
		ctx:       ctx,
		cancel:    cancel,
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws", s.handleGenerate)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	logger.Info("Generation server listening", "address", ln.Addr().String())

	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, cancels running generations and
// waits for their streams to close.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()

	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		s.active.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	allowed := s.cfg.WebSocket.IsOriginAllowed(origin, r.Host)
	if !allowed {
		logger.Warning("WebSocket connection rejected - origin not allowed",
			"origin", origin,
			"host", r.Host,
			"remote_addr", r.RemoteAddr)
	}
	return allowed
}

// getRealIP prefers proxy headers over the socket address
func getRealIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if ip := strings.TrimSpace(strings.Split(xff, ",")[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	return extractIP(r.RemoteAddr)
}
