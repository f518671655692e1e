package grading

import (
	"sort"

	"github.com/stemsi/exstem-essay/internal/model"
)

// FilterByTasks keeps essays whose task is in taskIDs.
func FilterByTasks(essays []model.Essay, taskIDs []int64) []model.Essay {
	allowed := make(map[int64]struct{}, len(taskIDs))
	for _, id := range taskIDs {
		allowed[id] = struct{}{}
	}
	out := make([]model.Essay, 0, len(essays))
	for _, e := range essays {
		if _, ok := allowed[e.TaskID]; ok {
			out = append(out, e)
		}
	}
	return out
}

// UserEssays is the set of essays written by one participant across tasks.
type UserEssays struct {
	UserID     int64
	Pseudonyms []string
	Essays     []model.Essay
}

// GroupByUser partitions essays by the participant behind each writer.
// Essays whose writer is unknown are dropped. Groups are ordered by user id.
func GroupByUser(essays []model.Essay, writers []model.Writer) []UserEssays {
	userOf := make(map[int64]int64, len(writers))
	groups := make(map[int64]*UserEssays)
	for _, w := range writers {
		userOf[w.ID] = w.UserID
		g, ok := groups[w.UserID]
		if !ok {
			g = &UserEssays{UserID: w.UserID}
			groups[w.UserID] = g
		}
		if w.Pseudonym != "" {
			g.Pseudonyms = append(g.Pseudonyms, w.Pseudonym)
		}
	}
	for _, e := range essays {
		uid, ok := userOf[e.WriterID]
		if !ok {
			continue
		}
		groups[uid].Essays = append(groups[uid].Essays, e)
	}

	out := make([]UserEssays, 0, len(groups))
	for _, g := range groups {
		out = append(out, *g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// GradeCount is the number of essays that reached one grade label.
type GradeCount struct {
	Grade string `json:"grade"`
	Count int    `json:"count"`
}

// GradeLabels returns the distinct grade labels of levels, highest threshold
// first. Levels of different objects sharing a label collapse into one.
func GradeLabels(levels []model.GradeLevel) []string {
	seen := make(map[string]struct{}, len(levels))
	var labels []string
	for _, lvl := range SortLadder(levels) {
		if _, ok := seen[lvl.Grade]; ok {
			continue
		}
		seen[lvl.Grade] = struct{}{}
		labels = append(labels, lvl.Grade)
	}
	return labels
}

// GradeDistribution sums CountByGradeLevelID per grade label, in GradeLabels
// order. Labels with no essays are present with zero.
func GradeDistribution(res StatisticsResult, levels []model.GradeLevel) []GradeCount {
	byLabel := make(map[string]int, len(levels))
	for _, lvl := range levels {
		byLabel[lvl.Grade] += res.CountByGradeLevelID[lvl.ID]
	}
	labels := GradeLabels(levels)
	out := make([]GradeCount, 0, len(labels))
	for _, l := range labels {
		out = append(out, GradeCount{Grade: l, Count: byLabel[l]})
	}
	return out
}
