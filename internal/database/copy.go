package database

import (
	"errors"
	"fmt"

	"github.com/lawnchairsociety/dungeontopo/internal/logger"
)

// CopyStats summarizes a CopyTopologies run.
type CopyStats struct {
	Copied  int
	Skipped int // already present in the target
}

// CopyTopologies copies every topology from src to dst, oldest first,
// keeping IDs and creation times. Rows already in dst are skipped, so an
// interrupted copy can be rerun. With dryRun nothing is written.
func CopyTopologies(src, dst *Database, dryRun bool) (CopyStats, error) {
	var stats CopyStats

	ids, err := src.TopologyIDs()
	if err != nil {
		return stats, fmt.Errorf("list source topologies: %w", err)
	}

	for _, id := range ids {
		rec, err := src.GetTopology(id)
		if err != nil {
			return stats, fmt.Errorf("read topology %s: %w", id, err)
		}
		if dryRun {
			stats.Copied++
			continue
		}

		err = dst.ImportTopology(rec)
		switch {
		case errors.Is(err, ErrDuplicateTopology):
			stats.Skipped++
			logger.Debug("Topology already in target", "id", id)
		case err != nil:
			return stats, fmt.Errorf("write topology %s: %w", id, err)
		default:
			stats.Copied++
		}
	}
	return stats, nil
}
