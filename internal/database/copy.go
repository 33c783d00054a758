package database

import (
	"fmt"

	"github.com/lawnchairsociety/citygen/internal/logger"
)

// CopyResult counts the runs handled by CopyRuns.
type CopyResult struct {
	Copied  int
	Skipped int
}

// CopyRuns copies every run of src into dst, oldest first, with its
// placements. A run whose seed and digest already exist in dst is skipped,
// so a copy can be repeated after a partial failure. With dryRun set
// nothing is written.
func CopyRuns(src, dst *Database, dryRun bool) (CopyResult, error) {
	var result CopyResult

	ids, err := src.runIDs()
	if err != nil {
		return result, err
	}

	for _, id := range ids {
		run, err := src.GetRunWithPlacements(id)
		if err != nil {
			return result, fmt.Errorf("failed to read run %d: %w", id, err)
		}

		exists, err := dst.hasRun(run.Seed, run.Digest)
		if err != nil {
			return result, err
		}
		if exists {
			result.Skipped++
			continue
		}

		if !dryRun {
			newID, err := dst.SaveRun(run)
			if err != nil {
				return result, fmt.Errorf("failed to copy run %d: %w", id, err)
			}
			logger.Debug("Run copied", "source_id", id, "target_id", newID, "placements", len(run.Placements))
		}
		result.Copied++
	}

	return result, nil
}

// runIDs lists every run ID in insertion order
func (d *Database) runIDs() ([]int64, error) {
	rows, err := d.db.Query("SELECT id FROM runs ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list run ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (d *Database) hasRun(seed int64, digest string) (bool, error) {
	var count int
	err := d.db.QueryRow(d.qb.Build("SELECT COUNT(*) FROM runs WHERE seed = ? AND digest = ?"), seed, digest).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check run: %w", err)
	}
	return count > 0, nil
}
