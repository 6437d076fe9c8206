package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output path; empty writes next to the input
	format   string // "dot", "svg" or "png"
	detailed bool   // door labels in the DOT source
}

func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{format: "svg"}

	cmd := &cobra.Command{
		Use:   "render [topology.yaml]",
		Short: "Render a saved topology to DOT, SVG or PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: input name with the format extension)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: svg (default), png, dot")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", true, "label rooms and doors")

	return cmd
}

func runRender(cmd *cobra.Command, input string, opts *renderOpts) error {
	result, err := topology.LoadYAML(input)
	if err != nil {
		return err
	}

	format := strings.ToLower(opts.format)
	output := opts.output
	if output == "" {
		output = strings.TrimSuffix(input, filepath.Ext(input)) + "." + format
	}

	dot := result.DOT()
	if opts.detailed {
		dot = result.DetailedDOT()
	}

	var data []byte
	if format == "dot" {
		data = []byte(dot)
	} else {
		gvFormat, err := topology.ParseFormat(format)
		if err != nil {
			return err
		}
		if data, err = topology.Render(cmd.Context(), dot, gvFormat); err != nil {
			return err
		}
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}

	out := cmd.OutOrStdout()
	printSuccess(out, "Rendered %s rooms", StyleNumber.Render(fmt.Sprint(result.Rooms())))
	printFile(out, output)
	return nil
}
