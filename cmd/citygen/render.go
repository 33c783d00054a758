package main

import (
	"fmt"

	"github.com/lawnchairsociety/citygen/internal/citymap"
	"github.com/lawnchairsociety/citygen/internal/tileset"
	"github.com/lawnchairsociety/citygen/internal/wfc"
	"github.com/spf13/cobra"
)

var (
	renderInput   string
	renderTileset string
	renderLegend  bool
)

func init() {
	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render a saved map as ASCII",
		Long: `Render a map file written by "citygen generate --out".

The map digest is verified before rendering.

Examples:
  citygen render --input maps/town.yaml
  citygen render -i maps/shore.yaml --tileset data/tilesets/shore.yaml`,
		RunE: runRender,
	}

	renderCmd.Flags().StringVarP(&renderInput, "input", "i", "", "Map YAML file to render")
	renderCmd.Flags().StringVarP(&renderTileset, "tileset", "t", "", "Tileset YAML file for symbols (default: generator tileset)")
	renderCmd.Flags().BoolVar(&renderLegend, "legend", true, "Print a legend below the map")
	renderCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	m, err := citymap.Load(renderInput)
	if err != nil {
		return fmt.Errorf("failed to load map: %w", err)
	}

	path := cfg.Generator.Tileset
	if cmd.Flags().Changed("tileset") {
		path = renderTileset
	}
	tiles, err := tileset.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load tileset: %w", err)
	}

	var legend []*wfc.Tile
	if renderLegend {
		legend = tiles.Catalog.Tiles()
	}
	return m.Render(cmd.OutOrStdout(), tiles, legend)
}
