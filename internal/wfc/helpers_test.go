package wfc

import "testing"

func all(ids ...TileID) map[Direction][]TileID {
	return map[Direction][]TileID{Up: ids, Down: ids, Left: ids, Right: ids}
}

// openCatalog permits every tile next to every other tile
func openCatalog(t *testing.T) *Catalog {
	t.Helper()
	ids := []TileID{"grass", "road", "house"}
	c, err := NewCatalog(
		NewTile("grass", all(ids...)),
		NewTile("road", all(ids...)),
		NewTile("house", all(ids...)),
	)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return c
}

// shoreCatalog: sea borders sea or coast, land borders coast or land
func shoreCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(
		NewTile("sea", all("sea", "coast")),
		NewTile("coast", all("sea", "coast", "land")),
		NewTile("land", all("coast", "land")),
	)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return c
}

func fallbackTiles() []*Tile {
	return []*Tile{NewTile("rubble", nil)}
}

func newGrid(t *testing.T, dimensions int, catalog *Catalog) *Grid {
	t.Helper()
	g, err := Initialize(dimensions, catalog, fallbackTiles())
	if err != nil {
		t.Fatalf("Initialize(%d) failed: %v", dimensions, err)
	}
	return g
}

func optionsOf(g *Grid) map[Position][]TileID {
	m := make(map[Position][]TileID)
	for _, c := range g.Cells() {
		m[c.Position] = c.Options()
	}
	return m
}

func sameOptions(a, b []TileID) bool {
	return equalOptions(a, b)
}

func isSubset(sub, super []TileID) bool {
	for _, s := range sub {
		found := false
		for _, o := range super {
			if s == o {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
