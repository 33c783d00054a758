// Package citymap exports finished grids as portable, verifiable maps.
package citymap

import (
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/lawnchairsociety/citygen/internal/wfc"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrDigestMismatch = errors.New("citymap: digest does not match layout")
	ErrMalformedMap   = errors.New("citymap: malformed map")
)

// Map is a generated layout together with the settings that produced it.
// Rows are indexed [y][x]; cells that never collapsed hold "".
type Map struct {
	Seed           int64          `yaml:"seed"`
	Dimensions     int            `yaml:"dimensions"`
	Tileset        string         `yaml:"tileset"`
	Policy         string         `yaml:"policy"`
	Status         string         `yaml:"status"`
	Steps          int            `yaml:"steps"`
	Contradictions int            `yaml:"contradictions"`
	Digest         string         `yaml:"digest"`
	GeneratedAt    time.Time      `yaml:"generated_at"`
	Rows           [][]wfc.TileID `yaml:"rows"`
}

// Meta describes the run a grid came from.
type Meta struct {
	Seed           int64
	Tileset        string
	Policy         wfc.Policy
	Status         wfc.State
	Steps          int
	Contradictions int
	GeneratedAt    time.Time
}

// FromGrid snapshots grid into a Map and computes its digest.
func FromGrid(grid *wfc.Grid, meta Meta) *Map {
	generatedAt := meta.GeneratedAt
	if generatedAt.IsZero() {
		generatedAt = time.Now().UTC()
	}

	m := &Map{
		Seed:           meta.Seed,
		Dimensions:     grid.Dimensions,
		Tileset:        meta.Tileset,
		Policy:         meta.Policy.String(),
		Status:         meta.Status.String(),
		Steps:          meta.Steps,
		Contradictions: meta.Contradictions,
		GeneratedAt:    generatedAt,
		Rows:           grid.Layout(),
	}
	m.Digest = Digest(m.Rows)
	return m
}

// FromSolver snapshots the solver's grid using its own counters.
func FromSolver(s *wfc.Solver, tileset string) *Map {
	return FromGrid(s.Grid(), Meta{
		Seed:           s.Seed(),
		Tileset:        tileset,
		Policy:         s.Policy(),
		Status:         s.State(),
		Steps:          s.Steps(),
		Contradictions: s.Contradictions(),
	})
}

// Digest returns the hex BLAKE2b-256 of a layout. Each tile ID is
// terminated by a NUL byte and each row by a newline.
func Digest(rows [][]wfc.TileID) string {
	h, _ := blake2b.New256(nil)
	for _, row := range rows {
		for _, id := range row {
			h.Write([]byte(id))
			h.Write([]byte{0})
		}
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Tile returns the tile at (x, y), or "" when out of bounds or unresolved.
func (m *Map) Tile(x, y int) wfc.TileID {
	if y < 0 || y >= len(m.Rows) || x < 0 || x >= len(m.Rows[y]) {
		return ""
	}
	return m.Rows[y][x]
}

// Counts returns how many cells hold each tile.
func (m *Map) Counts() map[wfc.TileID]int {
	counts := make(map[wfc.TileID]int)
	for _, row := range m.Rows {
		for _, id := range row {
			if id != "" {
				counts[id]++
			}
		}
	}
	return counts
}

// Verify checks the layout shape and recomputes the digest.
func (m *Map) Verify() error {
	if m.Dimensions < 1 || len(m.Rows) != m.Dimensions {
		return fmt.Errorf("%w: %d rows for dimensions %d", ErrMalformedMap, len(m.Rows), m.Dimensions)
	}
	for y, row := range m.Rows {
		if len(row) != m.Dimensions {
			return fmt.Errorf("%w: row %d has %d cells, want %d", ErrMalformedMap, y, len(row), m.Dimensions)
		}
	}
	if got := Digest(m.Rows); got != m.Digest {
		return fmt.Errorf("%w: stored %s, computed %s", ErrDigestMismatch, m.Digest, got)
	}
	return nil
}
