// Package pacer drives a solver one collapse per tick.
package pacer

import (
	"context"
	"time"

	"github.com/lawnchairsociety/citygen/internal/wfc"
)

// Stepper performs one unit of work per call. *wfc.Solver satisfies it.
type Stepper interface {
	Step() wfc.StepResult
}

// Pacer calls Step once per Interval. A zero Interval steps back to back.
type Pacer struct {
	Interval time.Duration
}

// Run steps s until it reports a terminal outcome, onStep fails or ctx is
// done. onStep sees every progressed step and may be nil. The terminal
// result is returned without being passed to onStep.
func (p Pacer) Run(ctx context.Context, s Stepper, onStep func(wfc.StepResult) error) (wfc.StepResult, error) {
	var tick <-chan time.Time
	if p.Interval > 0 {
		ticker := time.NewTicker(p.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	last := wfc.StepResult{Outcome: wfc.Progressed}
	for {
		if err := ctx.Err(); err != nil {
			return last, err
		}
		if tick != nil {
			select {
			case <-ctx.Done():
				return last, ctx.Err()
			case <-tick:
			}
		}

		res := s.Step()
		if res.Outcome != wfc.Progressed {
			return res, nil
		}
		last = res
		if onStep != nil {
			if err := onStep(res); err != nil {
				return res, err
			}
		}
	}
}
