// Package grading resolves points to grade levels and aggregates correction
// statistics. Everything here is a pure function over caller-supplied
// snapshots and is safe for concurrent use.
package grading

import (
	"fmt"
	"sort"

	"github.com/stemsi/exstem-essay/internal/model"
)

// SortLadder returns a copy of levels ordered by MinPoints descending.
// Equal thresholds are ordered by ascending id.
func SortLadder(levels []model.GradeLevel) []model.GradeLevel {
	ladder := make([]model.GradeLevel, len(levels))
	copy(ladder, levels)
	sort.SliceStable(ladder, func(i, j int) bool {
		if ladder[i].MinPoints != ladder[j].MinPoints {
			return ladder[i].MinPoints > ladder[j].MinPoints
		}
		return ladder[i].ID < ladder[j].ID
	})
	return ladder
}

// Resolve returns the level with the greatest MinPoints not above points,
// or nil when points are below every threshold. Duplicate thresholds resolve
// to the smallest id; ValidateLevels reports them.
func Resolve(points float64, levels []model.GradeLevel) *model.GradeLevel {
	return resolveSorted(points, SortLadder(levels))
}

func resolveSorted(points float64, ladder []model.GradeLevel) *model.GradeLevel {
	for i := range ladder {
		if ladder[i].MinPoints <= points {
			lvl := ladder[i]
			return &lvl
		}
	}
	return nil
}

// ValidateLevels reports duplicate and negative thresholds and passed flags
// that do not rise with the threshold. The result is ordered by ladder position.
func ValidateLevels(levels []model.GradeLevel) []model.Conflict {
	ladder := SortLadder(levels)
	var conflicts []model.Conflict

	for _, lvl := range ladder {
		if lvl.MinPoints < 0 {
			conflicts = append(conflicts, model.Conflict{
				Kind:     model.ConflictNegativeThreshold,
				Field:    "min_points",
				Message:  fmt.Sprintf("grade level %q has negative minimum points %g", lvl.Grade, lvl.MinPoints),
				LevelIDs: []int64{lvl.ID},
			})
		}
	}

	for i := 0; i < len(ladder); {
		j := i + 1
		for j < len(ladder) && ladder[j].MinPoints == ladder[i].MinPoints {
			j++
		}
		if j-i > 1 {
			ids := make([]int64, 0, j-i)
			for _, lvl := range ladder[i:j] {
				ids = append(ids, lvl.ID)
			}
			conflicts = append(conflicts, model.Conflict{
				Kind:     model.ConflictDuplicateThreshold,
				Field:    "min_points",
				Message:  fmt.Sprintf("%d grade levels share minimum points %g", j-i, ladder[i].MinPoints),
				LevelIDs: ids,
			})
		}
		i = j
	}

	// Walking down the ladder, once a level is passed every lower one must
	// not be: a passed level below a failed one is inconsistent.
	var highestFailed *model.GradeLevel
	for i := range ladder {
		lvl := ladder[i]
		if !lvl.Passed {
			if highestFailed == nil {
				highestFailed = &ladder[i]
			}
			continue
		}
		if highestFailed != nil && lvl.MinPoints < highestFailed.MinPoints {
			conflicts = append(conflicts, model.Conflict{
				Kind:  model.ConflictPassedOrdering,
				Field: "passed",
				Message: fmt.Sprintf("grade level %q (%g) is passed but higher level %q (%g) is not",
					lvl.Grade, lvl.MinPoints, highestFailed.Grade, highestFailed.MinPoints),
				LevelIDs: []int64{lvl.ID, highestFailed.ID},
			})
		}
	}

	return conflicts
}
