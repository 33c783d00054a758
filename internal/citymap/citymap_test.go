package citymap

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lawnchairsociety/citygen/internal/wfc"
)

type symbolTable map[wfc.TileID]string

func (s symbolTable) Symbol(id wfc.TileID) string {
	if sym, ok := s[id]; ok {
		return sym
	}
	return "?"
}

func testCatalog(t *testing.T) (*wfc.Catalog, []*wfc.Tile) {
	t.Helper()
	ids := []wfc.TileID{"field", "lane"}
	open := map[wfc.Direction][]wfc.TileID{wfc.Up: ids, wfc.Down: ids, wfc.Left: ids, wfc.Right: ids}
	field := wfc.NewTile("field", open)
	field.Name = "Field"
	lane := wfc.NewTile("lane", open)
	lane.Name = "Lane"
	catalog, err := wfc.NewCatalog(field, lane)
	if err != nil {
		t.Fatalf("NewCatalog() failed: %v", err)
	}
	return catalog, []*wfc.Tile{field}
}

func solvedMap(t *testing.T, dimensions int, seed int64) *Map {
	t.Helper()
	catalog, fallback := testCatalog(t)
	s, _, err := wfc.Generate(context.Background(), dimensions, catalog, fallback, wfc.Options{Seed: seed})
	if err != nil {
		t.Fatalf("Generate() failed: %v", err)
	}
	return FromSolver(s, "test")
}

func TestFromSolver(t *testing.T) {
	m := solvedMap(t, 4, 21)

	if m.Seed != 21 || m.Dimensions != 4 || m.Tileset != "test" {
		t.Errorf("header = %d %d %q", m.Seed, m.Dimensions, m.Tileset)
	}
	if m.Status != "complete" || m.Policy != "intersect" {
		t.Errorf("status %q policy %q", m.Status, m.Policy)
	}
	if m.Steps != 16 {
		t.Errorf("Steps = %d, want 16", m.Steps)
	}
	if m.GeneratedAt.IsZero() {
		t.Error("GeneratedAt should default to now")
	}
	if len(m.Digest) != 64 {
		t.Errorf("Digest = %q, want 64 hex chars", m.Digest)
	}
	if err := m.Verify(); err != nil {
		t.Errorf("Verify() failed: %v", err)
	}

	total := 0
	for _, n := range m.Counts() {
		total += n
	}
	if total != 16 {
		t.Errorf("Counts() total = %d, want 16", total)
	}
}

func TestDigestDeterministic(t *testing.T) {
	a := solvedMap(t, 5, 8)
	b := solvedMap(t, 5, 8)
	if a.Digest != b.Digest {
		t.Errorf("same seed produced digests %s and %s", a.Digest, b.Digest)
	}

	rows := [][]wfc.TileID{{"ab", "c"}}
	other := [][]wfc.TileID{{"a", "bc"}}
	if Digest(rows) == Digest(other) {
		t.Error("digest should separate tile boundaries")
	}
}

func TestTile(t *testing.T) {
	m := &Map{Dimensions: 2, Rows: [][]wfc.TileID{{"a", "b"}, {"c", ""}}}

	if m.Tile(1, 0) != "b" || m.Tile(0, 1) != "c" {
		t.Errorf("Tile() read wrong cell")
	}
	if m.Tile(1, 1) != "" || m.Tile(-1, 0) != "" || m.Tile(0, 2) != "" {
		t.Error("unresolved and out-of-bounds cells should be empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	m := solvedMap(t, 6, 99)
	m.GeneratedAt = time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "maps", "city.yaml")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.HasPrefix(text, "# 6x6 test map\n# Generated with seed: 99\n") {
		t.Errorf("missing header comment:\n%s", text)
	}
	if !strings.Contains(text, "- [") {
		t.Errorf("rows should be written in flow style:\n%s", text)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Digest != m.Digest || loaded.Seed != m.Seed || loaded.Steps != m.Steps {
		t.Errorf("loaded = %+v", loaded)
	}
	if !loaded.GeneratedAt.Equal(m.GeneratedAt) {
		t.Errorf("GeneratedAt = %v, want %v", loaded.GeneratedAt, m.GeneratedAt)
	}
	for y := range m.Rows {
		for x := range m.Rows[y] {
			if loaded.Rows[y][x] != m.Rows[y][x] {
				t.Fatalf("cell (%d,%d) = %s, want %s", x, y, loaded.Rows[y][x], m.Rows[y][x])
			}
		}
	}
}

func TestSaveLoadUnresolvedCells(t *testing.T) {
	rows := [][]wfc.TileID{{"a", ""}, {"", "yes"}}
	m := &Map{Dimensions: 2, Status: "exhausted", Rows: rows, Digest: Digest(rows)}
	path := filepath.Join(t.TempDir(), "partial.yaml")

	if err := m.Save(path); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Tile(1, 0) != "" || loaded.Tile(1, 1) != "yes" {
		t.Errorf("rows = %v", loaded.Rows)
	}
}

func TestLoadDetectsTampering(t *testing.T) {
	m := solvedMap(t, 3, 4)
	path := filepath.Join(t.TempDir(), "map.yaml")
	if err := m.Save(path); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	tampered := strings.Replace(string(data), "digest: "+m.Digest, "digest: "+strings.Repeat("0", 64), 1)
	if err := os.WriteFile(path, []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); !errors.Is(err, ErrDigestMismatch) {
		t.Errorf("Load() error = %v, want ErrDigestMismatch", err)
	}
}

func TestVerifyShape(t *testing.T) {
	tests := []struct {
		name string
		m    Map
	}{
		{"no rows", Map{Dimensions: 2}},
		{"short row", Map{Dimensions: 2, Rows: [][]wfc.TileID{{"a", "b"}, {"a"}}}},
		{"zero dimensions", Map{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.m.Verify(); !errors.Is(err, ErrMalformedMap) {
				t.Errorf("Verify() = %v, want ErrMalformedMap", err)
			}
		})
	}
}

func TestRender(t *testing.T) {
	rows := [][]wfc.TileID{{"field", "lane"}, {"lane", ""}}
	m := &Map{Seed: 5, Dimensions: 2, Tileset: "test", Status: "exhausted", Steps: 3, Rows: rows}
	catalog, _ := testCatalog(t)

	var buf bytes.Buffer
	if err := m.Render(&buf, symbolTable{"field": ".", "lane": "="}, catalog.Tiles()); err != nil {
		t.Fatalf("Render() failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"test map (Seed: 5, 2x2, exhausted)",
		"+--+\n|.=|\n|= |\n+--+\n",
		"[.] Field",
		"[=] Lane",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Generated:") {
		t.Error("zero GeneratedAt should not be printed")
	}

	buf.Reset()
	if err := m.Render(&buf, symbolTable{}, nil); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "Legend") {
		t.Error("legend printed without tiles")
	}
	if !strings.Contains(buf.String(), "|??|") {
		t.Errorf("unknown tiles should render as ?:\n%s", buf.String())
	}
}
