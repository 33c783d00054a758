package wfc

import (
	"context"
	"fmt"
)

// Generate initializes a grid and runs a solver over it until it completes,
// exhausts its step budget or ctx is cancelled.
func Generate(ctx context.Context, dimensions int, catalog *Catalog, fallback []*Tile, opts Options) (*Solver, StepResult, error) {
	grid, err := Initialize(dimensions, catalog, fallback)
	if err != nil {
		return nil, StepResult{}, err
	}

	solver := NewSolver(grid, opts)
	res, err := solver.Run(ctx)
	if err != nil {
		return solver, res, fmt.Errorf("generation interrupted after %d steps: %w", solver.Steps(), err)
	}
	return solver, res, nil
}
