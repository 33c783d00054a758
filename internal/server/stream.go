package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/citygen/internal/citymap"
	"github.com/lawnchairsociety/citygen/internal/database"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/lawnchairsociety/citygen/internal/pacer"
	"github.com/lawnchairsociety/citygen/internal/wfc"
)

const writeWait = 10 * time.Second

// StartEvent opens every stream.
type StartEvent struct {
	Type       string `json:"type"`
	Seed       int64  `json:"seed"`
	Dimensions int    `json:"dimensions"`
	Policy     string `json:"policy"`
	Tileset    string `json:"tileset"`
	MaxSteps   int    `json:"max_steps"`
}

// PlacedEvent is sent once per collapsed cell.
type PlacedEvent struct {
	Type          string `json:"type"`
	Step          int    `json:"step"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Tile          string `json:"tile"`
	Symbol        string `json:"symbol"`
	Contradiction bool   `json:"contradiction"`
}

// DoneEvent closes a stream that ran to a terminal status.
type DoneEvent struct {
	Type           string `json:"type"`
	Status         string `json:"status"`
	Steps          int    `json:"steps"`
	Contradictions int    `json:"contradictions"`
	Digest         string `json:"digest"`
	RunID          int64  `json:"run_id,omitempty"`
}

// generationRequest holds the validated query parameters of /ws
type generationRequest struct {
	seed       int64
	dimensions int
	interval   time.Duration
	policy     wfc.Policy
}

func (s *Server) parseRequest(r *http.Request) (generationRequest, error) {
	q := r.URL.Query()
	req := generationRequest{
		seed:       s.generator.Seed,
		dimensions: s.generator.Dimensions,
		interval:   s.generator.StepInterval(),
	}

	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return req, fmt.Errorf("invalid seed %q", v)
		}
		req.seed = seed
	}
	if req.seed == 0 {
		req.seed = time.Now().UnixNano()
	}

	if v := q.Get("dimensions"); v != "" {
		d, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("invalid dimensions %q", v)
		}
		req.dimensions = d
	}
	if req.dimensions < 1 || req.dimensions > s.cfg.MaxDimensions {
		return req, fmt.Errorf("dimensions must be between 1 and %d", s.cfg.MaxDimensions)
	}

	if v := q.Get("interval_ms"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return req, fmt.Errorf("invalid interval_ms %q", v)
		}
		req.interval = time.Duration(ms) * time.Millisecond
	}

	policy := s.generator.Propagation
	if v := q.Get("policy"); v != "" {
		policy = v
	}
	p, err := wfc.ParsePolicy(policy)
	if err != nil {
		return req, err
	}
	req.policy = p

	return req, nil
}

// handleGenerate validates the request, takes a generation slot and
// upgrades to a websocket stream.
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	clientIP := getRealIP(r)
	if err := s.limiter.TryAcquire(clientIP); err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, ErrTooManyForAddr) {
			status = http.StatusTooManyRequests
		}
		logger.Warning("Generation rejected", "client_ip", clientIP, "reason", err)
		http.Error(w, err.Error(), status)
		return
	}
	defer s.limiter.Release(clientIP)

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.active.Add(1)
	defer s.active.Done()

	log := logger.With("client_ip", clientIP, "seed", req.seed, "dimensions", req.dimensions)
	if err := s.stream(conn, req); err != nil {
		log.Info("Generation stream ended early", "error", err)
		return
	}
	log.Debug("Generation stream finished")
}

// stream runs one generation and writes its events to conn
func (s *Server) stream(conn *websocket.Conn, req generationRequest) error {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	// Control frames are only processed while reading; a read error
	// means the client went away.
	conn.SetReadLimit(s.cfg.WebSocket.MaxMessageSize)
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	grid, err := wfc.Initialize(req.dimensions, s.tiles.Catalog, s.tiles.Fallback)
	if err != nil {
		return err
	}
	solver := wfc.NewSolver(grid, wfc.Options{
		Seed:     req.seed,
		Policy:   req.policy,
		MaxSteps: s.generator.MaxSteps,
	})

	if err := writeEvent(conn, StartEvent{
		Type:       "start",
		Seed:       req.seed,
		Dimensions: req.dimensions,
		Policy:     req.policy.String(),
		Tileset:    s.tiles.Name,
		MaxSteps:   solver.MaxSteps(),
	}); err != nil {
		return err
	}

	var placements []database.Placement
	_, err = pacer.Pacer{Interval: req.interval}.Run(ctx, solver, func(res wfc.StepResult) error {
		placements = append(placements, database.PlacementFromStep(res))
		if res.Contradiction {
			logger.Warning("Contradiction resolved with fallback",
				"seed", req.seed,
				"position", res.Position.String(),
				"tile", res.Tile)
		}
		return writeEvent(conn, PlacedEvent{
			Type:          "placed",
			Step:          res.Step,
			X:             res.Position.X,
			Y:             res.Position.Y,
			Tile:          string(res.Tile),
			Symbol:        s.tiles.Symbol(res.Tile),
			Contradiction: res.Contradiction,
		})
	})
	if err != nil {
		return err
	}

	m := citymap.FromSolver(solver, s.tiles.Name)
	done := DoneEvent{
		Type:           "done",
		Status:         m.Status,
		Steps:          m.Steps,
		Contradictions: m.Contradictions,
		Digest:         m.Digest,
	}
	if s.store != nil {
		id, err := s.store.SaveRun(database.RunFromMap(m, placements))
		if err != nil {
			logger.Error("Failed to save run", "seed", m.Seed, "error", err)
		} else {
			done.RunID = id
		}
	}
	logger.Always("Generation finished",
		"seed", m.Seed,
		"dimensions", m.Dimensions,
		"status", m.Status,
		"contradictions", m.Contradictions,
		"run_id", done.RunID)

	if err := writeEvent(conn, done); err != nil {
		return err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, m.Status))
}

func writeEvent(conn *websocket.Conn, event any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(event)
}
