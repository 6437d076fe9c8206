package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/database"
	"github.com/lawnchairsociety/dungeontopo/internal/logger"
	"github.com/lawnchairsociety/dungeontopo/internal/topology"
)

// generateOpts holds the command-line flags for the generate command.
// Generation flags override the configuration file only when set.
type generateOpts struct {
	rooms         int
	boss          bool
	seed          int64
	degreeRule    string
	uniformDegree int
	degrees       []int
	maxAttempts   int
	catalogPath   string

	yamlPath string // YAML export
	dotPath  string // DOT export
	svgPath  string // rendered SVG
	detailed bool   // door labels in DOT/SVG
	edges    bool   // print the edge list
	save     bool   // record in the run history
	quiet    bool   // skip the room table
}

func (c *CLI) generateCommand() *cobra.Command {
	var opts generateOpts

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dungeon topology",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runGenerate(cmd, &opts)
		},
	}

	cmd.Flags().IntVarP(&opts.rooms, "rooms", "n", 0, "number of regular rooms")
	cmd.Flags().BoolVar(&opts.boss, "boss", false, "attach a boss room")
	cmd.Flags().Int64VarP(&opts.seed, "seed", "s", 0, "random seed (defaults to generation.seed, else the clock)")
	cmd.Flags().StringVar(&opts.degreeRule, "degree-rule", "", "degree caps: cycle, uniform, explicit")
	cmd.Flags().IntVar(&opts.uniformDegree, "uniform-degree", 0, "cap for every room with --degree-rule=uniform")
	cmd.Flags().IntSliceVar(&opts.degrees, "degrees", nil, "explicit per-room caps (implies --degree-rule=explicit)")
	cmd.Flags().IntVar(&opts.maxAttempts, "max-attempts", 0, "whole-pipeline retries before giving up")
	cmd.Flags().StringVar(&opts.catalogPath, "catalog", "", "archetype catalog file (YAML or TOML)")
	cmd.Flags().StringVar(&opts.yamlPath, "yaml", "", "write the topology as YAML")
	cmd.Flags().StringVar(&opts.dotPath, "dot", "", "write the topology as Graphviz DOT")
	cmd.Flags().StringVar(&opts.svgPath, "svg", "", "render the topology to SVG")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "label rooms and doors in DOT output")
	cmd.Flags().BoolVar(&opts.edges, "edges", false, "print the edge list")
	cmd.Flags().BoolVar(&opts.save, "save", false, "record the topology in the run history")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the summary")

	return cmd
}

// applyGenerateFlags overlays the flags the user set onto the generation config.
func (c *CLI) applyGenerateFlags(cmd *cobra.Command, opts *generateOpts) {
	g := &c.cfg.Generation
	flags := cmd.Flags()
	if flags.Changed("rooms") {
		g.Rooms = opts.rooms
	}
	if flags.Changed("boss") {
		g.Boss = opts.boss
	}
	if flags.Changed("seed") {
		seed := opts.seed
		g.Seed = &seed
	}
	if flags.Changed("degree-rule") {
		g.DegreeRule = opts.degreeRule
	}
	if flags.Changed("uniform-degree") {
		g.UniformDegree = opts.uniformDegree
	}
	if flags.Changed("degrees") {
		g.Degrees = opts.degrees
		if !flags.Changed("degree-rule") {
			g.DegreeRule = string(topology.DegreeExplicit)
		}
	}
	if flags.Changed("max-attempts") {
		g.MaxAttempts = opts.maxAttempts
	}
	if flags.Changed("catalog") {
		g.CatalogPath = opts.catalogPath
	}
}

func (c *CLI) runGenerate(cmd *cobra.Command, opts *generateOpts) error {
	c.applyGenerateFlags(cmd, opts)

	catalog, err := c.cfg.Catalog()
	if err != nil {
		return err
	}
	topts, err := c.cfg.ToOptions(catalog)
	if err != nil {
		return err
	}

	result, err := topology.NewGenerator(topts).GenerateContext(cmd.Context())
	if err != nil {
		if topology.IsExhausted(err) {
			return fmt.Errorf("no valid topology for these options: %w", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	printSummary(out, result)
	if !opts.quiet {
		printRooms(out, result, catalog)
	}
	if opts.edges {
		fmt.Fprint(out, result.EdgeList())
	}

	if err := writeExports(cmd.Context(), out, result, opts); err != nil {
		return err
	}

	if opts.save {
		return c.saveResult(out, result)
	}
	return nil
}

func (c *CLI) saveResult(out io.Writer, result *topology.Result) error {
	db, err := c.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	rec, err := db.SaveTopology(result)
	if errors.Is(err, database.ErrDuplicateTopology) {
		printWarning(out, "identical topology already recorded")
		return nil
	}
	if err != nil {
		return err
	}
	printSuccess(out, "Recorded as %s", StyleNumber.Render(rec.ID))
	return nil
}

func writeExports(ctx context.Context, out io.Writer, result *topology.Result, opts *generateOpts) error {
	dot := result.DOT()
	if opts.detailed {
		dot = result.DetailedDOT()
	}

	if opts.yamlPath != "" {
		if err := topology.SaveYAML(result, opts.yamlPath); err != nil {
			return err
		}
		printFile(out, opts.yamlPath)
	}
	if opts.dotPath != "" {
		if err := os.WriteFile(opts.dotPath, []byte(dot), 0644); err != nil {
			return fmt.Errorf("failed to write DOT file: %w", err)
		}
		printFile(out, opts.dotPath)
	}
	if opts.svgPath != "" {
		svg, err := topology.RenderSVG(ctx, result.DetailedDOT())
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.svgPath, svg, 0644); err != nil {
			return fmt.Errorf("failed to write SVG file: %w", err)
		}
		printFile(out, opts.svgPath)
	}
	return nil
}

// printSummary prints the headline numbers of a result.
func printSummary(out io.Writer, r *topology.Result) {
	printSuccess(out, "Generated %s rooms in %s attempt(s)",
		StyleNumber.Render(strconv.Itoa(r.Rooms())),
		StyleNumber.Render(strconv.Itoa(r.Attempts)))
	printKeyValue(out, "seed", strconv.FormatInt(r.Seed, 10))
	printKeyValue(out, "start", strconv.Itoa(r.StartRoom))
	if r.HasBoss() {
		printKeyValue(out, "boss", fmt.Sprintf("%d (via room %d)", *r.BossRoom, r.BossAnchor))
	}
	printKeyValue(out, "backtracks", strconv.Itoa(r.Backtracks))
	printKeyValue(out, "fingerprint", r.Fingerprint())
}

// printRooms prints one table row per room with its rotated doors and exits.
func printRooms(out io.Writer, r *topology.Result, catalog *archetype.Catalog) {
	rows := make([][]string, 0, r.Rooms())
	for i, a := range r.RoomTypes {
		var doors []string
		if ds, err := catalog.RotatedDoors(a, r.Rotations[i]); err == nil {
			for _, d := range ds {
				doors = append(doors, d.String())
			}
		}

		var exits []string
		for _, n := range r.Neighbors(i) {
			exits = append(exits, fmt.Sprintf("%s %s %d", r.ConnectingDoor(i, n), iconArrow, n))
		}
		sort.Strings(exits)

		rows = append(rows, []string{
			strconv.Itoa(i),
			a.String(),
			strconv.Itoa(r.Rotations[i]),
			strings.Join(doors, ","),
			strings.Join(exits, ", "),
		})
	}

	printTable(out, []string{"Room", "Type", "Rot", "Doors", "Exits"}, rows, func(row int) *lipgloss.Style {
		switch {
		case row == r.StartRoom:
			return &styleStart
		case r.BossRoom != nil && row == *r.BossRoom:
			return &styleBoss
		}
		return nil
	})
	logger.Trace("Printed room table", "rooms", len(rows))
}
