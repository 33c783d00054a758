package citymap

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/lawnchairsociety/citygen/internal/wfc"
)

// Symbolizer maps tile IDs to single-character map symbols.
type Symbolizer interface {
	Symbol(id wfc.TileID) string
}

const unresolved = " "

// Render writes an ASCII drawing of the map. When legend is non-empty a
// key listing each tile's symbol, name and count follows the grid.
func (m *Map) Render(w io.Writer, symbols Symbolizer, legend []*wfc.Tile) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "%s map (Seed: %d, %dx%d, %s)\n", m.Tileset, m.Seed, m.Dimensions, m.Dimensions, m.Status)
	fmt.Fprintf(bw, "Steps: %d, contradictions: %d\n", m.Steps, m.Contradictions)
	if !m.GeneratedAt.IsZero() {
		fmt.Fprintf(bw, "Generated: %s\n", m.GeneratedAt.Format("2006-01-02 15:04:05"))
	}

	border := "+" + strings.Repeat("-", m.Dimensions) + "+\n"
	bw.WriteString(border)
	for _, row := range m.Rows {
		bw.WriteByte('|')
		for _, id := range row {
			if id == "" {
				bw.WriteString(unresolved)
				continue
			}
			bw.WriteString(symbols.Symbol(id))
		}
		bw.WriteString("|\n")
	}
	bw.WriteString(border)

	if len(legend) > 0 {
		counts := m.Counts()
		bw.WriteString("\nLegend:\n")
		for _, tile := range legend {
			fmt.Fprintf(bw, "  [%s] %-20s %d\n", symbols.Symbol(tile.ID), tile.Name, counts[tile.ID])
		}
	}

	return bw.Flush()
}
