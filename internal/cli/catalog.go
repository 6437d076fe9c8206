package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
)

func (c *CLI) catalogCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Print the archetype door layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("catalog") {
				c.cfg.Generation.CatalogPath = path
			}
			catalog, err := c.cfg.Catalog()
			if err != nil {
				return err
			}

			var rows [][]string
			for _, a := range archetype.Known() {
				doors, err := catalog.Doors(a)
				if err != nil {
					return err
				}
				names := make([]string, len(doors))
				for i, d := range doors {
					names[i] = d.String()
				}
				rows = append(rows, []string{a.String(), strconv.Itoa(len(doors)), strings.Join(names, ",")})
			}

			out := cmd.OutOrStdout()
			if c.cfg.Generation.CatalogPath != "" {
				printInfo(out, "Catalog %s", StyleValue.Render(c.cfg.Generation.CatalogPath))
			}
			printTable(out, []string{"Archetype", "Doors", "Layout"}, rows, nil)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "catalog", "", "archetype catalog file (YAML or TOML)")
	return cmd
}
