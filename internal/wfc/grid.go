package wfc

// Grid is the dimensions x dimensions array of cells for one generation run
type Grid struct {
	Dimensions int

	cells    [][]*Cell // indexed [y][x]
	catalog  *Catalog
	fallback []*Tile
	lookup   map[TileID]*Tile
}

// Initialize builds a grid where every cell holds the full catalog.
// Each cell gets its own copy of the option list.
func Initialize(dimensions int, catalog *Catalog, fallback []*Tile) (*Grid, error) {
	if dimensions <= 0 {
		return nil, &ConfigurationError{Field: "dimensions", Err: ErrInvalidDimensions}
	}
	if catalog.Len() == 0 {
		return nil, &ConfigurationError{Field: "catalog", Err: ErrEmptyCatalog}
	}

	var fb []*Tile
	for _, t := range fallback {
		if t != nil {
			fb = append(fb, t)
		}
	}
	if len(fb) == 0 {
		return nil, &ConfigurationError{Field: "fallback", Err: ErrEmptyFallback}
	}

	g := &Grid{
		Dimensions: dimensions,
		cells:      make([][]*Cell, dimensions),
		catalog:    catalog,
		fallback:   fb,
		lookup:     make(map[TileID]*Tile, catalog.Len()+len(fb)),
	}

	for _, t := range fb {
		g.lookup[t.ID] = t
	}
	// Catalog definitions win over fallback tiles sharing an ID.
	for _, t := range catalog.tiles {
		g.lookup[t.ID] = t
	}

	all := catalog.IDs()
	for y := 0; y < dimensions; y++ {
		g.cells[y] = make([]*Cell, dimensions)
		for x := 0; x < dimensions; x++ {
			g.cells[y][x] = newCell(x, y, all)
		}
	}

	return g, nil
}

// Catalog returns the tile catalog the grid was built from
func (g *Grid) Catalog() *Catalog {
	return g.catalog
}

// Fallback returns the tiles used to resolve contradictions
func (g *Grid) Fallback() []*Tile {
	return append([]*Tile(nil), g.fallback...)
}

// Tile resolves a tile identity against the catalog and fallback set
func (g *Grid) Tile(id TileID) (*Tile, bool) {
	t, ok := g.lookup[id]
	return t, ok
}

// Cell returns the cell at (x, y), or nil when out of bounds
func (g *Grid) Cell(x, y int) *Cell {
	if !g.inBounds(x, y) {
		return nil
	}
	return g.cells[y][x]
}

// Neighbor returns the neighbouring cell in the given direction, or nil at the edge
func (g *Grid) Neighbor(x, y int, dir Direction) *Cell {
	dx, dy := dir.Offset()
	return g.Cell(x+dx, y+dy)
}

// Cells returns every cell in row-major order
func (g *Grid) Cells() []*Cell {
	cells := make([]*Cell, 0, g.Dimensions*g.Dimensions)
	for y := range g.cells {
		cells = append(cells, g.cells[y]...)
	}
	return cells
}

// Uncollapsed returns the number of cells not yet fixed to a tile
func (g *Grid) Uncollapsed() int {
	count := 0
	for y := range g.cells {
		for _, c := range g.cells[y] {
			if !c.collapsed {
				count++
			}
		}
	}
	return count
}

// IsComplete reports whether every cell is collapsed
func (g *Grid) IsComplete() bool {
	return g.Uncollapsed() == 0
}

// Layout returns the chosen tile per cell as rows of identities.
// Uncollapsed cells are reported as the empty TileID.
func (g *Grid) Layout() [][]TileID {
	rows := make([][]TileID, g.Dimensions)
	for y := range g.cells {
		rows[y] = make([]TileID, g.Dimensions)
		for x, c := range g.cells[y] {
			if id, ok := c.Tile(); ok {
				rows[y][x] = id
			}
		}
	}
	return rows
}

func (g *Grid) inBounds(x, y int) bool {
	return x >= 0 && x < g.Dimensions && y >= 0 && y < g.Dimensions
}
