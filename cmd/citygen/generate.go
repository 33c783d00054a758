package main

import (
	"fmt"
	"time"

	"github.com/lawnchairsociety/citygen/internal/citymap"
	"github.com/lawnchairsociety/citygen/internal/database"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/lawnchairsociety/citygen/internal/pacer"
	"github.com/lawnchairsociety/citygen/internal/tileset"
	"github.com/lawnchairsociety/citygen/internal/wfc"
	"github.com/spf13/cobra"
)

var (
	genTileset    string
	genDimensions int
	genSeed       int64
	genPolicy     string
	genMaxSteps   int
	genInterval   time.Duration
	genOut        string
	genSave       bool
	genQuiet      bool
)

func init() {
	genCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a city map",
		Long: `Generate one city map and print it as ASCII.

Flags override the generator section of the config file.

Examples:
  citygen generate --dimensions 16 --seed 7
  citygen generate --policy recompute --out maps/town.yaml
  citygen generate --interval 50ms --save`,
		RunE: runGenerate,
	}

	genCmd.Flags().StringVarP(&genTileset, "tileset", "t", "", "Tileset YAML file (default: built-in city set)")
	genCmd.Flags().IntVarP(&genDimensions, "dimensions", "d", 0, "Grid side length")
	genCmd.Flags().Int64VarP(&genSeed, "seed", "s", 0, "Random seed (0: time-based)")
	genCmd.Flags().StringVar(&genPolicy, "policy", "", "Propagation policy: intersect or recompute")
	genCmd.Flags().IntVar(&genMaxSteps, "max-steps", 0, "Collapse step budget (0: dimensions²)")
	genCmd.Flags().DurationVar(&genInterval, "interval", 0, "Delay between collapse steps")
	genCmd.Flags().StringVarP(&genOut, "out", "o", "", "Write the map to this YAML file")
	genCmd.Flags().BoolVar(&genSave, "save", false, "Store the run in the run history database")
	genCmd.Flags().BoolVarP(&genQuiet, "quiet", "q", false, "Do not print the rendered map")

	rootCmd.AddCommand(genCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	gen := cfg.Generator
	flags := cmd.Flags()
	if flags.Changed("tileset") {
		gen.Tileset = genTileset
	}
	if flags.Changed("dimensions") {
		gen.Dimensions = genDimensions
	}
	if flags.Changed("seed") {
		gen.Seed = genSeed
	}
	if flags.Changed("policy") {
		gen.Propagation = genPolicy
	}
	if flags.Changed("max-steps") {
		gen.MaxSteps = genMaxSteps
	}
	if flags.Changed("interval") {
		gen.StepIntervalMS = int(genInterval.Milliseconds())
	}

	tiles, err := tileset.Load(gen.Tileset)
	if err != nil {
		return fmt.Errorf("failed to load tileset: %w", err)
	}
	policy, err := gen.PropagationPolicy()
	if err != nil {
		return err
	}

	seed := gen.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
		logger.Info("Generation seed selected", "seed", seed, "random", true)
	} else {
		logger.Info("Generation seed selected", "seed", seed, "random", false)
	}

	grid, err := wfc.Initialize(gen.Dimensions, tiles.Catalog, tiles.Fallback)
	if err != nil {
		return err
	}
	solver := wfc.NewSolver(grid, wfc.Options{
		Seed:     seed,
		Policy:   policy,
		MaxSteps: gen.MaxSteps,
	})

	start := time.Now()
	var placements []database.Placement
	res, err := pacer.Pacer{Interval: gen.StepInterval()}.Run(cmd.Context(), solver, func(r wfc.StepResult) error {
		placements = append(placements, database.PlacementFromStep(r))
		if r.Contradiction {
			logger.Warning("Contradiction resolved with fallback", "position", r.Position.String(), "tile", r.Tile)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("generation interrupted after %d steps: %w", solver.Steps(), err)
	}

	m := citymap.FromSolver(solver, tiles.Name)
	logger.Info("Generation finished",
		"status", res.Outcome.String(),
		"steps", m.Steps,
		"contradictions", m.Contradictions,
		"duration", time.Since(start).String())

	out := cmd.OutOrStdout()
	if !genQuiet {
		if err := m.Render(out, tiles, tiles.Catalog.Tiles()); err != nil {
			return err
		}
	}

	if genOut != "" {
		if err := m.Save(genOut); err != nil {
			return fmt.Errorf("failed to write map: %w", err)
		}
		fmt.Fprintf(out, "Map written to %s\n", genOut)
	}

	if genSave {
		db, err := openDatabase(cfg.Database)
		if err != nil {
			return fmt.Errorf("failed to open run history: %w", err)
		}
		defer db.Close()

		id, err := db.SaveRun(database.RunFromMap(m, placements))
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		fmt.Fprintf(out, "Run saved with id %d\n", id)
	}

	return nil
}
