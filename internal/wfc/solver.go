package wfc

import (
	"context"
	"math/rand"
)

// State is the lifecycle of a solver
type State int

const (
	StateIdle State = iota
	StateRunning
	StateComplete
	StateExhausted
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateComplete:
		return "complete"
	case StateExhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// Outcome is the result kind of a single Step
type Outcome int

const (
	Progressed Outcome = iota // one cell was collapsed
	Complete                  // no uncollapsed cells remain
	Exhausted                 // step budget spent with cells still open
)

// String returns the string representation of an Outcome
func (o Outcome) String() string {
	switch o {
	case Progressed:
		return "progressed"
	case Complete:
		return "complete"
	case Exhausted:
		return "exhausted"
	default:
		return "unknown"
	}
}

// StepResult describes what a call to Step did
type StepResult struct {
	Outcome Outcome
	Step    int // steps taken so far, including this one

	// Set when Outcome is Progressed
	Position      Position
	Tile          TileID
	Contradiction bool // the cell had no options and took a fallback tile
}

// Placer is notified once per collapsed cell
type Placer interface {
	PlaceTile(pos Position, tile *Tile)
}

// PlacerFunc adapts a function to the Placer interface
type PlacerFunc func(pos Position, tile *Tile)

// PlaceTile calls f(pos, tile)
func (f PlacerFunc) PlaceTile(pos Position, tile *Tile) {
	f(pos, tile)
}

// Options configures a Solver
type Options struct {
	Seed     int64
	Policy   Policy
	MaxSteps int // 0 means dimensions²
	Placer   Placer
}

// Solver drives a grid from fully open to fully collapsed
type Solver struct {
	grid     *Grid
	seed     int64
	rng      *rand.Rand
	policy   Policy
	placer   Placer
	maxSteps int

	state          State
	steps          int
	contradictions int
}

// NewSolver creates a solver over an initialized grid
func NewSolver(grid *Grid, opts Options) *Solver {
	limit := grid.Dimensions * grid.Dimensions
	maxSteps := opts.MaxSteps
	if maxSteps <= 0 || maxSteps > limit {
		maxSteps = limit
	}

	return &Solver{
		grid:     grid,
		seed:     opts.Seed,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		policy:   opts.Policy,
		placer:   opts.Placer,
		maxSteps: maxSteps,
		state:    StateIdle,
	}
}

// Grid returns the grid being solved
func (s *Solver) Grid() *Grid {
	return s.grid
}

// Seed returns the seed the random source was created with
func (s *Solver) Seed() int64 {
	return s.seed
}

// State returns the solver's lifecycle state
func (s *Solver) State() State {
	return s.state
}

// Steps returns the number of cells collapsed so far
func (s *Solver) Steps() int {
	return s.steps
}

// MaxSteps returns the step budget
func (s *Solver) MaxSteps() int {
	return s.maxSteps
}

// Contradictions returns how many collapses fell back to the fallback set
func (s *Solver) Contradictions() int {
	return s.contradictions
}

// Policy returns the propagation policy
func (s *Solver) Policy() Policy {
	return s.policy
}

// Step performs one round: pick a minimal-entropy cell, collapse it,
// notify the placer and propagate. Once a terminal outcome is reached
// every further call returns it again.
func (s *Solver) Step() StepResult {
	switch s.state {
	case StateComplete:
		return StepResult{Outcome: Complete, Step: s.steps}
	case StateExhausted:
		return StepResult{Outcome: Exhausted, Step: s.steps}
	}
	s.state = StateRunning

	candidates := s.grid.MinEntropyCells()
	if len(candidates) == 0 {
		s.state = StateComplete
		return StepResult{Outcome: Complete, Step: s.steps}
	}
	if s.steps >= s.maxSteps {
		s.state = StateExhausted
		return StepResult{Outcome: Exhausted, Step: s.steps}
	}

	cell := candidates[s.rng.Intn(len(candidates))]
	tile, contradiction := s.choose(cell)
	cell.collapseTo(tile.ID)
	s.steps++
	if contradiction {
		s.contradictions++
	}

	if s.placer != nil {
		s.placer.PlaceTile(cell.Position, tile)
	}

	s.grid.Propagate(s.policy)

	return StepResult{
		Outcome:       Progressed,
		Step:          s.steps,
		Position:      cell.Position,
		Tile:          tile.ID,
		Contradiction: contradiction,
	}
}

// Run steps until a terminal outcome. The context is checked between
// steps only; a step in progress always finishes.
func (s *Solver) Run(ctx context.Context) (StepResult, error) {
	for {
		if err := ctx.Err(); err != nil {
			return StepResult{Outcome: Progressed, Step: s.steps}, err
		}
		res := s.Step()
		if res.Outcome != Progressed {
			return res, nil
		}
	}
}

// choose draws the final tile for a cell, using the fallback set when
// the cell has no options left.
func (s *Solver) choose(c *Cell) (*Tile, bool) {
	if len(c.options) > 0 {
		id := c.options[s.rng.Intn(len(c.options))]
		if t, ok := s.grid.lookup[id]; ok {
			return t, false
		}
	}
	return s.grid.fallback[s.rng.Intn(len(s.grid.fallback))], true
}
