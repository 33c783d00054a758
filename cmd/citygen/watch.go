package main

import (
	"fmt"

	"github.com/lawnchairsociety/citygen/internal/client"
	"github.com/lawnchairsociety/citygen/internal/logger"
	"github.com/spf13/cobra"
)

const clearScreen = "\033[H\033[2J"

var (
	watchURL        string
	watchSeed       int64
	watchDimensions int
	watchInterval   int
	watchPolicy     string
	watchLive       bool
)

func init() {
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a live generation on a running server",
		Long: `Request a generation from a citygen server and follow its stream.

The replayed map is checked against the digest the server reports.

Examples:
  citygen watch --seed 42 --dimensions 20 --interval 30 --live
  citygen watch --url ws://cities.example.com/ws`,
		RunE: runWatch,
	}

	watchCmd.Flags().StringVar(&watchURL, "url", "ws://localhost:4080/ws", "Generation stream endpoint")
	watchCmd.Flags().Int64VarP(&watchSeed, "seed", "s", 0, "Random seed (0: chosen by the server)")
	watchCmd.Flags().IntVarP(&watchDimensions, "dimensions", "d", 0, "Grid side length (0: server default)")
	watchCmd.Flags().IntVar(&watchInterval, "interval", 0, "Milliseconds between steps (0: server default)")
	watchCmd.Flags().StringVar(&watchPolicy, "policy", "", "Propagation policy (empty: server default)")
	watchCmd.Flags().BoolVar(&watchLive, "live", false, "Redraw the map after every step")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	c, err := client.Dial(ctx, watchURL, client.Params{
		Seed:       watchSeed,
		Dimensions: watchDimensions,
		IntervalMS: watchInterval,
		Policy:     watchPolicy,
	})
	if err != nil {
		return err
	}
	defer c.Close()

	start := c.Start()
	logger.Info("Watching generation",
		"seed", start.Seed,
		"dimensions", start.Dimensions,
		"policy", start.Policy,
		"tileset", start.Tileset)

	out := cmd.OutOrStdout()
	if watchLive {
		for e := range c.Updates() {
			if e.Type != "placed" {
				continue
			}
			m, err := c.Map()
			if err != nil {
				return err
			}
			fmt.Fprint(out, clearScreen)
			if err := m.Render(out, c, nil); err != nil {
				return err
			}
		}
	}

	done, err := c.Wait(ctx)
	if err != nil {
		return err
	}
	m, err := c.Map()
	if err != nil {
		return fmt.Errorf("replayed map does not match server: %w", err)
	}

	if watchLive {
		fmt.Fprint(out, clearScreen)
	}
	if err := m.Render(out, c, nil); err != nil {
		return err
	}
	if done.RunID != 0 {
		fmt.Fprintf(out, "Stored as run %d\n", done.RunID)
	}
	return nil
}
