package wfc

import (
	"errors"
	"testing"
)

func TestDirectionOpposite(t *testing.T) {
	tests := []struct {
		dir  Direction
		want Direction
	}{
		{Up, Down},
		{Down, Up},
		{Left, Right},
		{Right, Left},
	}

	for _, tc := range tests {
		if got := tc.dir.Opposite(); got != tc.want {
			t.Errorf("%s.Opposite() = %s, want %s", tc.dir, got, tc.want)
		}
	}
}

func TestDirectionOffset(t *testing.T) {
	tests := []struct {
		dir    Direction
		dx, dy int
	}{
		{Up, 0, -1},
		{Down, 0, 1},
		{Left, 1, 0},
		{Right, -1, 0},
	}

	for _, tc := range tests {
		dx, dy := tc.dir.Offset()
		if dx != tc.dx || dy != tc.dy {
			t.Errorf("%s.Offset() = (%d, %d), want (%d, %d)", tc.dir, dx, dy, tc.dx, tc.dy)
		}
	}
}

func TestParseDirection(t *testing.T) {
	for _, dir := range AllDirections() {
		got, err := ParseDirection(dir.String())
		if err != nil {
			t.Fatalf("ParseDirection(%q) failed: %v", dir.String(), err)
		}
		if got != dir {
			t.Errorf("ParseDirection(%q) = %s, want %s", dir.String(), got, dir)
		}
	}

	if _, err := ParseDirection("north"); err == nil {
		t.Error("ParseDirection(north) should fail")
	}
}

func TestNewTileCopiesNeighbours(t *testing.T) {
	ups := []TileID{"a", "b"}
	tile := NewTile("a", map[Direction][]TileID{Up: ups})
	ups[0] = "z"

	if !tile.Allows(Up, "a") {
		t.Error("tile should still allow a upward after caller mutates its slice")
	}
	if tile.Allows(Up, "z") {
		t.Error("tile should not see caller mutation")
	}
	if tile.Allows(Down, "a") {
		t.Error("tile declares nothing downward")
	}

	got := tile.Neighbours(Up)
	got[0] = "q"
	if tile.Allows(Up, "q") {
		t.Error("Neighbours() should return a copy")
	}
}

func TestNewCatalogPreservesOrder(t *testing.T) {
	c := openCatalog(t)
	want := []TileID{"grass", "road", "house"}

	if !sameOptions(c.IDs(), want) {
		t.Errorf("IDs() = %v, want %v", c.IDs(), want)
	}
	if c.Len() != 3 {
		t.Errorf("Len() = %d, want 3", c.Len())
	}
	if _, ok := c.Get("road"); !ok {
		t.Error("Get(road) should find the tile")
	}
	if _, ok := c.Get("lava"); ok {
		t.Error("Get(lava) should not find anything")
	}
}

func TestNewCatalogDuplicate(t *testing.T) {
	_, err := NewCatalog(NewTile("grass", nil), NewTile("grass", nil))
	if !errors.Is(err, ErrDuplicateTile) {
		t.Fatalf("NewCatalog() error = %v, want ErrDuplicateTile", err)
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error should be a *ConfigurationError, got %T", err)
	}
}
