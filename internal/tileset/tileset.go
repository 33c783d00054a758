// Package tileset loads tile catalogs and their fallback sets from YAML.
package tileset

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"
	"unicode/utf8"

	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/lawnchairsociety/citygen/internal/wfc"
	"gopkg.in/yaml.v3"
)

//go:embed city.yaml
var cityYAML []byte

var (
	ErrNoTiles          = errors.New("tileset: no tiles defined")
	ErrNoFallback       = errors.New("tileset: no fallback tiles defined")
	ErrMissingID        = errors.New("tileset: tile without id")
	ErrUnknownTile      = errors.New("tileset: unknown tile")
	ErrUnknownDirection = errors.New("tileset: unknown direction")
	ErrInvalidSymbol    = errors.New("tileset: symbol must be a single character")
)

// UnknownSymbol is rendered for tiles without a symbol of their own.
const UnknownSymbol = "?"

// TileDefinition is the on-disk form of a tile.
type TileDefinition struct {
	ID         string              `yaml:"id"`
	Name       string              `yaml:"name,omitempty"`
	Symbol     string              `yaml:"symbol,omitempty"`
	Neighbours map[string][]string `yaml:"neighbours"`
}

// File is the on-disk form of a tileset.
type File struct {
	Name     string           `yaml:"name"`
	Tiles    []TileDefinition `yaml:"tiles"`
	Fallback []string         `yaml:"fallback"`
}

// Tileset is a validated catalog plus its fallback tiles.
type Tileset struct {
	Name     string
	Catalog  *wfc.Catalog
	Fallback []*wfc.Tile

	symbols     map[wfc.TileID]string
	asymmetries []Asymmetry
}

// Asymmetry records a rule that is not mirrored by its counterpart:
// From permits To in Direction, but To does not permit From in the opposite one.
type Asymmetry struct {
	From      wfc.TileID
	To        wfc.TileID
	Direction wfc.Direction
}

func (a Asymmetry) String() string {
	return fmt.Sprintf("%s allows %s %s, but %s does not allow %s %s",
		a.From, a.To, a.Direction, a.To, a.From, a.Direction.Opposite())
}

// Default returns the built-in city tileset.
func Default() (*Tileset, error) {
	return Parse(cityYAML)
}

// Load reads and builds a tileset from a YAML file. An empty path selects
// the built-in city tileset.
func Load(path string) (*Tileset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tileset: %w", err)
	}
	ts, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

// Parse builds a tileset from YAML data.
func Parse(data []byte) (*Tileset, error) {
	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse tileset: %w", err)
	}
	return Build(&file)
}

// Build validates a decoded tileset file and turns it into a catalog.
// Fallback IDs must name tiles of the catalog.
func Build(file *File) (*Tileset, error) {
	if len(file.Tiles) == 0 {
		return nil, ErrNoTiles
	}
	if len(file.Fallback) == 0 {
		return nil, ErrNoFallback
	}

	known := make(map[string]bool, len(file.Tiles))
	for i, def := range file.Tiles {
		if def.ID == "" {
			return nil, fmt.Errorf("%w (entry %d)", ErrMissingID, i)
		}
		known[def.ID] = true
	}

	ts := &Tileset{
		Name:    file.Name,
		symbols: make(map[wfc.TileID]string, len(file.Tiles)),
	}

	tiles := make([]*wfc.Tile, 0, len(file.Tiles))
	for _, def := range file.Tiles {
		tile, err := buildTile(def, known)
		if err != nil {
			return nil, err
		}
		tiles = append(tiles, tile)
		if tile.Symbol != "" {
			ts.symbols[tile.ID] = tile.Symbol
		}
	}

	catalog, err := wfc.NewCatalog(tiles...)
	if err != nil {
		return nil, err
	}
	ts.Catalog = catalog

	for _, id := range file.Fallback {
		tile, ok := catalog.Get(wfc.TileID(id))
		if !ok {
			return nil, fmt.Errorf("%w: fallback %q", ErrUnknownTile, id)
		}
		ts.Fallback = append(ts.Fallback, tile)
	}

	ts.asymmetries = findAsymmetries(catalog)
	for _, a := range ts.asymmetries {
		logger.Warning("Non-reciprocal tile rule", "tileset", ts.Name, "rule", a.String())
	}

	return ts, nil
}

func buildTile(def TileDefinition, known map[string]bool) (*wfc.Tile, error) {
	neighbours := make(map[wfc.Direction][]wfc.TileID, len(def.Neighbours))
	for key, ids := range def.Neighbours {
		dir, err := wfc.ParseDirection(key)
		if err != nil {
			return nil, fmt.Errorf("%w: %q on tile %s", ErrUnknownDirection, key, def.ID)
		}
		for _, id := range ids {
			if !known[id] {
				return nil, fmt.Errorf("%w: %s %s references %q", ErrUnknownTile, def.ID, key, id)
			}
			neighbours[dir] = append(neighbours[dir], wfc.TileID(id))
		}
	}

	if def.Symbol != "" && utf8.RuneCountInString(def.Symbol) != 1 {
		return nil, fmt.Errorf("%w: tile %s has %q", ErrInvalidSymbol, def.ID, def.Symbol)
	}

	tile := wfc.NewTile(wfc.TileID(def.ID), neighbours)
	if def.Name != "" {
		tile.Name = def.Name
	}
	tile.Symbol = def.Symbol
	return tile, nil
}

// findAsymmetries lists every rule whose counterpart is missing, ordered
// by tile, direction and target.
func findAsymmetries(catalog *wfc.Catalog) []Asymmetry {
	var out []Asymmetry
	for _, tile := range catalog.Tiles() {
		for _, dir := range wfc.AllDirections() {
			targets := tile.Neighbours(dir)
			sort.Slice(targets, func(i, j int) bool { return targets[i] < targets[j] })
			for _, id := range targets {
				other, ok := catalog.Get(id)
				if !ok || other.Allows(dir.Opposite(), tile.ID) {
					continue
				}
				out = append(out, Asymmetry{From: tile.ID, To: id, Direction: dir})
			}
		}
	}
	return out
}

// Asymmetries returns the non-reciprocal rules found while building.
func (ts *Tileset) Asymmetries() []Asymmetry {
	return append([]Asymmetry(nil), ts.asymmetries...)
}

// Symbol returns the map symbol for id, or UnknownSymbol.
func (ts *Tileset) Symbol(id wfc.TileID) string {
	if s, ok := ts.symbols[id]; ok {
		return s
	}
	return UnknownSymbol
}

// Symbols returns a copy of the id to symbol table.
func (ts *Tileset) Symbols() map[wfc.TileID]string {
	out := make(map[wfc.TileID]string, len(ts.symbols))
	for id, s := range ts.symbols {
		out[id] = s
	}
	return out
}
