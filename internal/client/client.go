// Package client connects to a generation server and replays its stream.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/lawnchairsociety/citygen/internal/citymap"
	"github.com/lawnchairsociety/citygen/internal/wfc"
)

var (
	// ErrRejected is returned when the server refuses the generation request.
	ErrRejected = errors.New("generation rejected")
	// ErrStreamEnded is returned when the stream closes before a done event.
	ErrStreamEnded = errors.New("stream ended before generation finished")
	// ErrUnexpectedEvent is returned when the stream does not open with a start event.
	ErrUnexpectedEvent = errors.New("unexpected event")
)

// Event is any message of the generation stream. Only the fields of its
// Type are set.
type Event struct {
	Type string `json:"type"`

	// start
	Seed       int64  `json:"seed"`
	Dimensions int    `json:"dimensions"`
	Policy     string `json:"policy"`
	Tileset    string `json:"tileset"`
	MaxSteps   int    `json:"max_steps"`

	// placed
	Step          int    `json:"step"`
	X             int    `json:"x"`
	Y             int    `json:"y"`
	Tile          string `json:"tile"`
	Symbol        string `json:"symbol"`
	Contradiction bool   `json:"contradiction"`

	// done
	Status         string `json:"status"`
	Steps          int    `json:"steps"`
	Contradictions int    `json:"contradictions"`
	Digest         string `json:"digest"`
	RunID          int64  `json:"run_id"`
}

// Params are the query parameters of a generation request. Zero values
// leave the server defaults in place.
type Params struct {
	Seed       int64
	Dimensions int
	IntervalMS int
	Policy     string
}

func (p Params) encode() string {
	q := url.Values{}
	if p.Seed != 0 {
		q.Set("seed", strconv.FormatInt(p.Seed, 10))
	}
	if p.Dimensions != 0 {
		q.Set("dimensions", strconv.Itoa(p.Dimensions))
	}
	if p.IntervalMS != 0 {
		q.Set("interval_ms", strconv.Itoa(p.IntervalMS))
	}
	if p.Policy != "" {
		q.Set("policy", p.Policy)
	}
	return q.Encode()
}

// Client follows one generation stream. Placed events are applied to a
// local layout as they arrive.
type Client struct {
	conn    *websocket.Conn
	start   Event
	updates chan Event

	mu      sync.Mutex
	rows    [][]wfc.TileID
	symbols map[wfc.TileID]string
	history []Event
	done    *Event
	err     error
}

// Dial requests a generation from the stream endpoint at rawURL
// (for example ws://localhost:4080/ws) and waits for its start event.
func Dial(ctx context.Context, rawURL string, params Params) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server url: %w", err)
	}
	u.RawQuery = params.encode()

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		if resp != nil {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			return nil, fmt.Errorf("%w (%d): %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	var start Event
	if err := conn.ReadJSON(&start); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read start event: %w", err)
	}
	if start.Type != "start" || start.Dimensions < 1 {
		conn.Close()
		return nil, fmt.Errorf("%w: %q", ErrUnexpectedEvent, start.Type)
	}

	c := &Client{
		conn:    conn,
		start:   start,
		updates: make(chan Event, start.Dimensions*start.Dimensions+1),
		rows:    make([][]wfc.TileID, start.Dimensions),
		symbols: make(map[wfc.TileID]string),
	}
	for y := range c.rows {
		c.rows[y] = make([]wfc.TileID, start.Dimensions)
	}

	go c.readEvents()
	return c, nil
}

// readEvents applies every event until the connection closes
func (c *Client) readEvents() {
	defer close(c.updates)

	for {
		var event Event
		err := c.conn.ReadJSON(&event)
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				c.mu.Lock()
				c.err = err
				c.mu.Unlock()
			}
			return
		}

		c.mu.Lock()
		switch event.Type {
		case "placed":
			if event.Y >= 0 && event.Y < len(c.rows) && event.X >= 0 && event.X < len(c.rows) {
				c.rows[event.Y][event.X] = wfc.TileID(event.Tile)
			}
			c.symbols[wfc.TileID(event.Tile)] = event.Symbol
		case "done":
			done := event
			c.done = &done
		}
		c.history = append(c.history, event)
		c.mu.Unlock()

		// The buffer holds every event a run can produce.
		select {
		case c.updates <- event:
		default:
		}
	}
}

// Start returns the event that opened the stream.
func (c *Client) Start() Event {
	return c.start
}

// Updates delivers placed and done events as they arrive. It is closed
// when the stream ends.
func (c *Client) Updates() <-chan Event {
	return c.updates
}

// History returns a copy of every event received after the start event.
func (c *Client) History() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.history...)
}

// Wait blocks until the stream ends and returns its done event.
func (c *Client) Wait(ctx context.Context) (Event, error) {
	for {
		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case _, ok := <-c.updates:
			if ok {
				continue
			}
			c.mu.Lock()
			defer c.mu.Unlock()
			if c.done != nil {
				return *c.done, nil
			}
			if c.err != nil {
				return Event{}, fmt.Errorf("%w: %v", ErrStreamEnded, c.err)
			}
			return Event{}, ErrStreamEnded
		}
	}
}

// Map builds the replayed layout. Once the done event has arrived the map
// carries its status and digest and is verified against it.
func (c *Client) Map() (*citymap.Map, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows := make([][]wfc.TileID, len(c.rows))
	for y := range c.rows {
		rows[y] = append([]wfc.TileID(nil), c.rows[y]...)
	}
	m := &citymap.Map{
		Seed:       c.start.Seed,
		Dimensions: c.start.Dimensions,
		Tileset:    c.start.Tileset,
		Policy:     c.start.Policy,
		Status:     wfc.StateRunning.String(),
		Rows:       rows,
	}
	for _, e := range c.history {
		if e.Type == "placed" {
			m.Steps = e.Step
			if e.Contradiction {
				m.Contradictions++
			}
		}
	}

	if c.done == nil {
		m.Digest = citymap.Digest(rows)
		return m, nil
	}
	m.Status = c.done.Status
	m.Steps = c.done.Steps
	m.Contradictions = c.done.Contradictions
	m.Digest = c.done.Digest
	if err := m.Verify(); err != nil {
		return nil, err
	}
	return m, nil
}

// Symbol returns the symbol the server sent for id, or "?" when id has
// not been placed yet.
func (c *Client) Symbol(id wfc.TileID) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.symbols[id]; ok && s != "" {
		return s
	}
	return "?"
}

// Close closes the connection. The server cancels the generation.
func (c *Client) Close() error {
	return c.conn.Close()
}
