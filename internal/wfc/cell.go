package wfc

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Position is a grid coordinate
type Position struct {
	X, Y int
}

// String returns the position as "x,y"
func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.X, p.Y)
}

// Cell holds the solving state of a single grid position
type Cell struct {
	Position
	options   []TileID
	collapsed bool

	// permits[d] caches the union of the d lists of every open option
	permits   [4]mapset.Set[TileID]
	permitsOK [4]bool
}

func newCell(x, y int, options []TileID) *Cell {
	return &Cell{
		Position: Position{X: x, Y: y},
		options:  append([]TileID(nil), options...),
	}
}

// Entropy returns the number of tiles still possible for this cell
func (c *Cell) Entropy() int {
	return len(c.options)
}

// Options returns a copy of the remaining options in catalog order
func (c *Cell) Options() []TileID {
	return append([]TileID(nil), c.options...)
}

// Collapsed reports whether the cell has been fixed to a single tile
func (c *Cell) Collapsed() bool {
	return c.collapsed
}

// Tile returns the chosen tile of a collapsed cell
func (c *Cell) Tile() (TileID, bool) {
	if !c.collapsed || len(c.options) != 1 {
		return "", false
	}
	return c.options[0], true
}

// Has reports whether id is still among the cell's options
func (c *Cell) Has(id TileID) bool {
	for _, o := range c.options {
		if o == id {
			return true
		}
	}
	return false
}

// collapseTo fixes the cell to a single tile. It must only be called once.
func (c *Cell) collapseTo(id TileID) {
	c.collapsed = true
	c.options = []TileID{id}
	c.permitsOK = [4]bool{}
}

// setOptions replaces the options of an uncollapsed cell and reports
// whether anything changed.
func (c *Cell) setOptions(options []TileID) bool {
	if c.collapsed {
		return false
	}
	if equalOptions(c.options, options) {
		return false
	}
	c.options = options
	c.permitsOK = [4]bool{}
	return true
}

func equalOptions(a, b []TileID) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
