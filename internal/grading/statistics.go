package grading

import (
	"fmt"
	"math"

	"github.com/stemsi/exstem-essay/internal/model"
)

// StatisticsResult summarises a collection of essays.
type StatisticsResult struct {
	Count               int              `json:"count"`
	FinalCount          int              `json:"final_count"`
	NotAttendedCount    *int             `json:"not_attended_count"`
	PassedCount         int              `json:"passed_count"`
	NotPassedCount      int              `json:"not_passed_count"`
	NotPassedQuota      *float64         `json:"not_passed_quota"`
	AveragePoints       *float64         `json:"average_points"`
	CountByGradeLevelID map[int64]int    `json:"count_by_grade_level_id"`
	Warnings            []model.Conflict `json:"warnings,omitempty"`
}

// Aggregator computes StatisticsResult values. TrackAttendance controls
// whether non-attendance is counted or reported as not tracked (nil).
type Aggregator struct {
	TrackAttendance bool
}

// Aggregate computes statistics with attendance tracked.
func Aggregate(essays []model.Essay, levels []model.GradeLevel) StatisticsResult {
	return Aggregator{TrackAttendance: true}.Aggregate(essays, levels)
}

// Aggregate computes statistics over essays. Levels may belong to several
// objects; each essay is resolved against the ladder of its own task.
func (a Aggregator) Aggregate(essays []model.Essay, levels []model.GradeLevel) StatisticsResult {
	res := StatisticsResult{
		Count:               len(essays),
		CountByGradeLevelID: make(map[int64]int, len(levels)),
	}
	for _, lvl := range levels {
		res.CountByGradeLevelID[lvl.ID] = 0
	}

	ladders := laddersByObject(levels)

	notAttended := 0
	var pointsSum float64
	pointsCount := 0

	for _, e := range essays {
		if !e.Finalized {
			continue
		}
		res.FinalCount++

		if a.TrackAttendance && !e.Attended {
			notAttended++
		}

		if e.Points == nil || math.IsNaN(*e.Points) || math.IsInf(*e.Points, 0) {
			continue
		}
		pointsSum += *e.Points
		pointsCount++

		lvl := resolveSorted(*e.Points, ladders[e.TaskID])
		if lvl == nil {
			continue
		}
		res.CountByGradeLevelID[lvl.ID]++
		if lvl.Passed {
			res.PassedCount++
		}
	}

	if a.TrackAttendance {
		res.NotAttendedCount = &notAttended
	}

	notPassed := res.FinalCount - res.PassedCount - notAttended
	if notPassed < 0 {
		res.Warnings = append(res.Warnings, model.Conflict{
			Kind: model.ConflictInconsistentCounts,
			Message: fmt.Sprintf("final %d minus passed %d minus not attended %d is negative",
				res.FinalCount, res.PassedCount, notAttended),
		})
		notPassed = 0
	}
	res.NotPassedCount = notPassed

	if res.FinalCount > 0 {
		q := float64(res.NotPassedCount) / float64(res.FinalCount)
		res.NotPassedQuota = &q
	}
	if pointsCount > 0 {
		avg := pointsSum / float64(pointsCount)
		res.AveragePoints = &avg
	}

	return res
}

func laddersByObject(levels []model.GradeLevel) map[int64][]model.GradeLevel {
	grouped := make(map[int64][]model.GradeLevel)
	for _, lvl := range levels {
		grouped[lvl.ObjectID] = append(grouped[lvl.ObjectID], lvl)
	}
	for obj, lvls := range grouped {
		grouped[obj] = SortLadder(lvls)
	}
	return grouped
}
