package wfc

import "fmt"

// TileID identifies a tile definition in a catalog
type TileID string

// Direction is one of the four compatibility lists a tile declares.
// The offsets follow the lists, not screen geometry: a tile's Left list
// constrains the cell at x+1 and its Right list the cell at x-1.
type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// String returns the string representation of a Direction
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "unknown"
	}
}

// Opposite returns the opposite direction
func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	case Right:
		return Left
	default:
		return d
	}
}

// Offset returns the grid delta of the neighbour in this direction
func (d Direction) Offset() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return 1, 0
	case Right:
		return -1, 0
	}
	return 0, 0
}

// ParseDirection converts a string to a Direction
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "up":
		return Up, nil
	case "down":
		return Down, nil
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return 0, fmt.Errorf("wfc: unknown direction %q", s)
	}
}

// AllDirections returns all four directions
func AllDirections() []Direction {
	return []Direction{Up, Down, Left, Right}
}

// Tile is an immutable tile definition shared by every cell that references it
type Tile struct {
	ID         TileID
	Name       string
	Symbol     string
	neighbours map[Direction][]TileID
}

// NewTile creates a tile. The neighbour lists are copied so later changes
// to the caller's slices do not leak into the definition.
func NewTile(id TileID, neighbours map[Direction][]TileID) *Tile {
	t := &Tile{
		ID:         id,
		Name:       string(id),
		neighbours: make(map[Direction][]TileID, len(neighbours)),
	}
	for dir, ids := range neighbours {
		t.neighbours[dir] = append([]TileID(nil), ids...)
	}
	return t
}

// Neighbours returns the tiles permitted in the given direction
func (t *Tile) Neighbours(dir Direction) []TileID {
	return append([]TileID(nil), t.neighbours[dir]...)
}

// Allows reports whether other may appear in direction dir of this tile
func (t *Tile) Allows(dir Direction, other TileID) bool {
	for _, id := range t.neighbours[dir] {
		if id == other {
			return true
		}
	}
	return false
}

// Catalog is an ordered, immutable set of tile definitions
type Catalog struct {
	tiles []*Tile
	byID  map[TileID]*Tile
}

// NewCatalog builds a catalog preserving the given order
func NewCatalog(tiles ...*Tile) (*Catalog, error) {
	c := &Catalog{
		tiles: make([]*Tile, 0, len(tiles)),
		byID:  make(map[TileID]*Tile, len(tiles)),
	}
	for _, t := range tiles {
		if t == nil {
			continue
		}
		if _, exists := c.byID[t.ID]; exists {
			return nil, &ConfigurationError{Field: "catalog", Err: fmt.Errorf("%w: %s", ErrDuplicateTile, t.ID)}
		}
		c.tiles = append(c.tiles, t)
		c.byID[t.ID] = t
	}
	return c, nil
}

// Len returns the number of tiles in the catalog
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.tiles)
}

// Tiles returns the tiles in catalog order
func (c *Catalog) Tiles() []*Tile {
	return append([]*Tile(nil), c.tiles...)
}

// IDs returns the tile identities in catalog order
func (c *Catalog) IDs() []TileID {
	ids := make([]TileID, len(c.tiles))
	for i, t := range c.tiles {
		ids[i] = t.ID
	}
	return ids
}

// Get looks up a tile by identity
func (c *Catalog) Get(id TileID) (*Tile, bool) {
	t, ok := c.byID[id]
	return t, ok
}
