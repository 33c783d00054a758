package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/lawnchairsociety/citygen/internal/tileset"
	"github.com/spf13/cobra"
)

var (
	runsLimit      int
	runsPlacements bool
)

func init() {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "List stored generation runs",
		Long: `List, show and delete runs stored with "citygen generate --save" or by
the generation server.

Examples:
  citygen runs --limit 5
  citygen runs show 12
  citygen runs delete 12`,
		Args: cobra.NoArgs,
		RunE: runRunsList,
	}
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsShow,
	}
	showCmd.Flags().BoolVar(&runsPlacements, "placements", false, "Also print every placement in order")

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run and its placements",
		Args:  cobra.ExactArgs(1),
		RunE:  runRunsDelete,
	}

	runsCmd.AddCommand(showCmd, deleteCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsList(cmd *cobra.Command, args []string) error {
	if runsLimit < 1 {
		return fmt.Errorf("limit must be positive, got %d", runsLimit)
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	runs, err := db.ListRuns(runsLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tSEED\tSIZE\tTILESET\tPOLICY\tSTATUS\tSTEPS\tCONTRADICTIONS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%dx%d\t%s\t%s\t%s\t%d\t%d\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Seed,
			r.Dimensions, r.Dimensions, r.Tileset, r.Policy, r.Status, r.Steps, r.Contradictions)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	run, err := db.GetRunWithPlacements(id)
	if err != nil {
		return err
	}
	m, err := run.Map()
	if err != nil {
		return err
	}
	tiles, err := tileset.Load(cfg.Generator.Tileset)
	if err != nil {
		return fmt.Errorf("failed to load tileset: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := m.Render(out, tiles, tiles.Catalog.Tiles()); err != nil {
		return err
	}
	if runsPlacements {
		fmt.Fprintln(out)
		for _, p := range run.Placements {
			mark := ""
			if p.Contradiction {
				mark = " (fallback)"
			}
			fmt.Fprintf(out, "%4d  (%d,%d)  %s%s\n", p.Step, p.X, p.Y, p.Tile, mark)
		}
	}
	return nil
}

func runRunsDelete(cmd *cobra.Command, args []string) error {
	id, err := parseRunID(args[0])
	if err != nil {
		return err
	}

	db, err := openDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open run history: %w", err)
	}
	defer db.Close()

	if err := db.DeleteRun(id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %d\n", id)
	return nil
}

func parseRunID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid run id %q", s)
	}
	return id, nil
}
