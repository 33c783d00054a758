package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/citygen/internal/config"
	"github.com/lawnchairsociety/citygen/internal/server"
	"github.com/lawnchairsociety/citygen/internal/tileset"
)

func newTestServer(t *testing.T, modify func(*config.Config)) string {
	t.Helper()

	cfg := config.DefaultConfig()
	cfg.Server.MaxDimensions = 12
	if modify != nil {
		modify(cfg)
	}
	tiles, err := tileset.Default()
	if err != nil {
		t.Fatal(err)
	}

	srv := server.New(cfg, tiles, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestClientReplaysGeneration(t *testing.T) {
	url := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Params{Seed: 99, Dimensions: 6, Policy: "intersect"})
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()

	start := c.Start()
	if start.Seed != 99 || start.Dimensions != 6 || start.Tileset != "city" {
		t.Errorf("start event = %+v", start)
	}

	done, err := c.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait() failed: %v", err)
	}
	if done.Type != "done" || done.Status != "complete" || done.Steps != 36 {
		t.Errorf("done event = %+v", done)
	}
	if done.RunID != 0 {
		t.Errorf("RunID = %d without run history", done.RunID)
	}

	// The replayed layout must reproduce the server's digest.
	m, err := c.Map()
	if err != nil {
		t.Fatalf("Map() failed: %v", err)
	}
	if m.Digest != done.Digest || m.Seed != 99 {
		t.Errorf("map = seed %d digest %s, want digest %s", m.Seed, m.Digest, done.Digest)
	}

	history := c.History()
	if len(history) != 37 || history[len(history)-1].Type != "done" {
		t.Errorf("history has %d events", len(history))
	}
	if sym := c.Symbol(m.Tile(0, 0)); sym == "?" || len(sym) != 1 {
		t.Errorf("Symbol() = %q", sym)
	}
	if c.Symbol("nowhere") != "?" {
		t.Error("unknown tile should render as ?")
	}
}

func TestClientUpdates(t *testing.T) {
	url := newTestServer(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Params{Seed: 4, Dimensions: 3, IntervalMS: 1})
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	defer c.Close()

	steps := 0
	var last Event
	for e := range c.Updates() {
		if e.Type == "placed" {
			steps++
			if e.Step != steps {
				t.Errorf("placed event step = %d, want %d", e.Step, steps)
			}
		}
		last = e
	}
	if steps != 9 || last.Type != "done" {
		t.Errorf("received %d placements, last event %q", steps, last.Type)
	}

	if _, err := c.Wait(ctx); err != nil {
		t.Errorf("Wait() after drain = %v", err)
	}
}

func TestClientRejected(t *testing.T) {
	url := newTestServer(t, nil)

	_, err := Dial(context.Background(), url, Params{Dimensions: 50})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Dial() error = %v, want ErrRejected", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestClientPartialMap(t *testing.T) {
	url := newTestServer(t, func(c *config.Config) { c.Generator.StepIntervalMS = 200 })
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, Params{Seed: 8, Dimensions: 4})
	if err != nil {
		t.Fatalf("Dial() failed: %v", err)
	}
	<-c.Updates()
	c.Close()

	m, err := c.Map()
	if err != nil {
		t.Fatalf("Map() of an unfinished stream failed: %v", err)
	}
	if m.Status != "running" || m.Steps < 1 {
		t.Errorf("partial map status %s steps %d", m.Status, m.Steps)
	}

	if _, err := c.Wait(ctx); !errors.Is(err, ErrStreamEnded) {
		t.Errorf("Wait() after close = %v, want ErrStreamEnded", err)
	}
}

func TestParamsEncode(t *testing.T) {
	if got := (Params{}).encode(); got != "" {
		t.Errorf("empty params = %q", got)
	}
	got := Params{Seed: -3, Dimensions: 5, IntervalMS: 20, Policy: "recompute"}.encode()
	want := "dimensions=5&interval_ms=20&policy=recompute&seed=-3"
	if got != want {
		t.Errorf("encode() = %q, want %q", got, want)
	}
}
