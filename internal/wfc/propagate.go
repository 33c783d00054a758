package wfc

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"
)

// Policy selects how propagation treats a cell's previous options
type Policy int

const (
	// PolicyIntersect narrows each cell from its current options and repeats
	// full sweeps until nothing changes. Options never grow.
	PolicyIntersect Policy = iota
	// PolicyRecompute rebuilds each cell from the full catalog in a single
	// sweep. A cell narrowed earlier can regain options when a neighbour
	// collapses to a more permissive tile.
	PolicyRecompute
)

// String returns the string representation of a Policy
func (p Policy) String() string {
	switch p {
	case PolicyIntersect:
		return "intersect"
	case PolicyRecompute:
		return "recompute"
	default:
		return "unknown"
	}
}

// ParsePolicy converts a string to a Policy. The empty string selects the default.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "intersect":
		return PolicyIntersect, nil
	case "recompute":
		return PolicyRecompute, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Propagate recomputes the options of every uncollapsed cell from its
// neighbours' current options. Collapsed cells are left untouched.
// It returns the number of uncollapsed cells left without any option.
func (g *Grid) Propagate(policy Policy) int {
	if policy == PolicyRecompute {
		g.sweep(policy)
	} else {
		for g.sweep(policy) {
		}
	}
	return g.emptyCells()
}

// sweep visits every cell once in row-major order and reports whether any
// option set changed. Updates are visible to cells later in the same sweep.
func (g *Grid) sweep(policy Policy) bool {
	changed := false
	for y := range g.cells {
		for _, c := range g.cells[y] {
			if c.collapsed {
				continue
			}
			candidates := c.options
			if policy == PolicyRecompute {
				candidates = g.catalog.IDs()
			}
			if c.setOptions(g.constrain(c, candidates)) {
				changed = true
			}
		}
	}
	return changed
}

// constrain filters candidates down to the tiles every existing neighbour permits
func (g *Grid) constrain(c *Cell, candidates []TileID) []TileID {
	allowed := make([]mapset.Set[TileID], 0, 4)
	for _, dir := range AllDirections() {
		n := g.Neighbor(c.X, c.Y, dir)
		if n == nil {
			continue
		}
		allowed = append(allowed, g.allowedFrom(n, dir.Opposite()))
	}

	options := make([]TileID, 0, len(candidates))
	for _, id := range candidates {
		ok := true
		for _, set := range allowed {
			if !set.Has(id) {
				ok = false
				break
			}
		}
		if ok {
			options = append(options, id)
		}
	}
	return options
}

// allowedFrom unions the toward lists of every tile still open at n.
// Identities that resolve to no known tile contribute nothing.
func (g *Grid) allowedFrom(n *Cell, toward Direction) mapset.Set[TileID] {
	if n.permitsOK[toward] {
		return n.permits[toward]
	}

	set := mapset.New[TileID]()
	for _, id := range n.options {
		t, ok := g.lookup[id]
		if !ok {
			continue
		}
		for _, a := range t.neighbours[toward] {
			set.Put(a)
		}
	}
	n.permits[toward] = set
	n.permitsOK[toward] = true
	return set
}

func (g *Grid) emptyCells() int {
	count := 0
	for y := range g.cells {
		for _, c := range g.cells[y] {
			if !c.collapsed && len(c.options) == 0 {
				count++
			}
		}
	}
	return count
}
