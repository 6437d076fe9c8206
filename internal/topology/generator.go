// Package topology drives dungeon generation end to end: a degree-capped
// spanning tree, room typing, the optional boss corridor, rotation solving and
// a final audit. Any retryable failure throws the whole attempt away and starts
// again from a fresh shuffle.
package topology

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/lawnchairsociety/dungeontopo/internal/archetype"
	"github.com/lawnchairsociety/dungeontopo/internal/graph"
	"github.com/lawnchairsociety/dungeontopo/internal/logger"
	"github.com/lawnchairsociety/dungeontopo/internal/solver"
)

// Generator runs the generation pipeline for one set of options.
type Generator struct {
	opts        Options
	catalog     *archetype.Catalog
	rng         *rand.Rand
	maxAttempts int
	solverOpts  []solver.Option
}

// NewGenerator creates a generator seeded from opts.Seed.
func NewGenerator(opts Options) *Generator {
	return NewGeneratorWithRand(opts, rand.New(rand.NewSource(opts.Seed)))
}

// NewGeneratorWithRand creates a generator drawing from rng. The generator
// owns rng for its lifetime.
func NewGeneratorWithRand(opts Options, rng *rand.Rand) *Generator {
	return &Generator{
		opts:        opts,
		catalog:     opts.catalog(),
		rng:         rng,
		maxAttempts: opts.maxAttempts(),
	}
}

// WithSolverOptions passes options such as a trace hook to the rotation solver.
func (g *Generator) WithSolverOptions(opts ...solver.Option) *Generator {
	g.solverOpts = append(g.solverOpts, opts...)
	return g
}

// Generate runs the pipeline until an attempt succeeds, a fatal error occurs
// or the attempt limit is reached.
func (g *Generator) Generate() (*Result, error) {
	return g.GenerateContext(context.Background())
}

// GenerateContext is Generate with a context checked between attempts and
// between spanning-tree shuffles.
func (g *Generator) GenerateContext(ctx context.Context) (*Result, error) {
	if err := g.opts.Validate(); err != nil {
		return nil, err
	}

	degrees, err := g.opts.degrees()
	if err != nil {
		return nil, err
	}
	vertices, boss := g.opts.vertices()

	gr, err := graph.New(vertices, degrees)
	if err != nil {
		return nil, err
	}
	s := solver.New(g.catalog, g.solverOpts...)

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		result, err := g.attempt(ctx, gr, s, boss)
		if err == nil {
			result.Seed = g.opts.Seed
			result.Attempts = attempt
			logger.Info("Topology generated",
				"rooms", result.Rooms(),
				"seed", result.Seed,
				"attempts", attempt,
				"backtracks", result.Backtracks)
			if g.opts.OnPublish != nil {
				g.opts.OnPublish(result)
			}
			return result, nil
		}

		if IsFatal(err) {
			return nil, fmt.Errorf("attempt %d: %w", attempt, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		logger.Debug("Generation attempt failed", "attempt", attempt, "error", err)
		lastErr = err
	}

	logger.Warning("Generation gave up", "rooms", g.opts.Rooms, "attempts", g.maxAttempts)
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, g.maxAttempts, lastErr)
}

// attempt runs one pass of the pipeline over gr, which it resets first.
func (g *Generator) attempt(ctx context.Context, gr *graph.Graph, s *solver.Solver, boss int) (*Result, error) {
	gr.Reset()

	if err := gr.GenerateConnectedGraphContext(ctx, g.rng, g.opts.Rooms); err != nil {
		return nil, err
	}
	if err := gr.AssignRoomTypes(g.catalog, boss); err != nil {
		return nil, err
	}

	anchor := -1
	if boss >= 0 {
		var err error
		anchor, err = gr.AttachBossRoom(boss)
		if err != nil {
			return nil, err
		}
		if err := gr.AssignRoomTypes(g.catalog, boss); err != nil {
			return nil, err
		}
	}

	sol, err := s.Solve(gr, 0)
	if err != nil {
		return nil, err
	}
	if err := solver.Audit(gr, g.catalog, sol); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}

	result := &Result{
		Edges:      gr.Edges(),
		RoomTypes:  gr.Types(),
		Rotations:  sol.Rotations,
		Doors:      sol.Doors,
		StartRoom:  0,
		BossAnchor: anchor,
		Steps:      sol.Steps,
		Backtracks: sol.Backtracks,
	}
	if boss >= 0 {
		b := boss
		result.BossRoom = &b
		result.StartRoom = gr.FindNodeFurthestFrom(boss)
	}
	return result, nil
}

// Generate is a convenience wrapper around NewGenerator(opts).Generate().
func Generate(opts Options) (*Result, error) {
	return NewGenerator(opts).Generate()
}
