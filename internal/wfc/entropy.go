package wfc

// MinEntropyCells returns the uncollapsed cells whose option count equals
// the minimum over all uncollapsed cells, in row-major order. A nil result
// means every cell is collapsed. Cells with zero options are eligible.
func (g *Grid) MinEntropyCells() []*Cell {
	minEntropy := -1
	var candidates []*Cell

	for y := range g.cells {
		for _, c := range g.cells[y] {
			if c.collapsed {
				continue
			}
			e := c.Entropy()
			switch {
			case minEntropy < 0 || e < minEntropy:
				minEntropy = e
				candidates = []*Cell{c}
			case e == minEntropy:
				candidates = append(candidates, c)
			}
		}
	}

	return candidates
}
