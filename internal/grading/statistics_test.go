package grading

import (
	"math"
	"testing"

	"github.com/stemsi/exstem-essay/internal/model"
)

func pts(v float64) *float64 { return &v }

func TestAggregate_Scenario(t *testing.T) {
	essays := []model.Essay{
		{ID: 1, TaskID: 10, Finalized: true, Attended: true, Points: pts(40)},
		{ID: 2, TaskID: 10, Finalized: true, Attended: true, Points: pts(60)},
		{ID: 3, TaskID: 10, Finalized: true, Attended: true},
		{ID: 4, TaskID: 10, Finalized: false, Attended: true, Points: pts(100)},
	}

	got := Aggregate(essays, ladderABC())

	if got.Count != 4 {
		t.Errorf("Count = %d, want 4", got.Count)
	}
	if got.FinalCount != 3 {
		t.Errorf("FinalCount = %d, want 3", got.FinalCount)
	}
	if got.AveragePoints == nil || *got.AveragePoints != 50 {
		t.Errorf("AveragePoints = %v, want 50", got.AveragePoints)
	}
	// 60 resolves to C, 40 is below every threshold.
	if got.PassedCount != 1 {
		t.Errorf("PassedCount = %d, want 1", got.PassedCount)
	}
	if got.NotPassedCount != 2 {
		t.Errorf("NotPassedCount = %d, want 2", got.NotPassedCount)
	}
	if got.CountByGradeLevelID[1] != 1 {
		t.Errorf("CountByGradeLevelID[C] = %d, want 1", got.CountByGradeLevelID[1])
	}
}

func TestAggregate_Empty(t *testing.T) {
	got := Aggregate(nil, ladderABC())

	if got.NotPassedQuota != nil {
		t.Errorf("NotPassedQuota = %v, want nil", *got.NotPassedQuota)
	}
	if got.AveragePoints != nil {
		t.Errorf("AveragePoints = %v, want nil", *got.AveragePoints)
	}
	if got.NotAttendedCount == nil || *got.NotAttendedCount != 0 {
		t.Errorf("NotAttendedCount = %v, want 0", got.NotAttendedCount)
	}
	if len(got.CountByGradeLevelID) != 3 {
		t.Errorf("CountByGradeLevelID has %d keys, want 3", len(got.CountByGradeLevelID))
	}
	for id, n := range got.CountByGradeLevelID {
		if n != 0 {
			t.Errorf("CountByGradeLevelID[%d] = %d, want 0", id, n)
		}
	}
}

func TestAggregate_AttendanceNotTracked(t *testing.T) {
	essays := []model.Essay{
		{TaskID: 10, Finalized: true, Attended: false, Points: pts(95)},
	}
	got := Aggregator{TrackAttendance: false}.Aggregate(essays, ladderABC())

	if got.NotAttendedCount != nil {
		t.Errorf("NotAttendedCount = %d, want nil", *got.NotAttendedCount)
	}
	if got.PassedCount != 1 {
		t.Errorf("PassedCount = %d, want 1", got.PassedCount)
	}
	if got.NotPassedCount != 0 {
		t.Errorf("NotPassedCount = %d, want 0", got.NotPassedCount)
	}
}

func TestAggregate_NotAttended(t *testing.T) {
	essays := []model.Essay{
		{TaskID: 10, Finalized: true, Attended: false, Points: pts(20)},
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(95)},
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(20)},
	}
	got := Aggregate(essays, ladderABC())

	if *got.NotAttendedCount != 1 {
		t.Errorf("NotAttendedCount = %d, want 1", *got.NotAttendedCount)
	}
	if got.PassedCount != 1 {
		t.Errorf("PassedCount = %d, want 1", got.PassedCount)
	}
	if got.NotPassedCount != 1 {
		t.Errorf("NotPassedCount = %d, want 1", got.NotPassedCount)
	}
	if got.NotPassedQuota == nil || math.Abs(*got.NotPassedQuota-1.0/3.0) > 1e-9 {
		t.Errorf("NotPassedQuota = %v, want 1/3", got.NotPassedQuota)
	}
	if len(got.Warnings) != 0 {
		t.Errorf("unexpected warnings: %+v", got.Warnings)
	}
}

func TestAggregate_NotAttendedButPassed(t *testing.T) {
	tests := []struct {
		name          string
		essays        []model.Essay
		wantPassed    int
		wantNotPassed int
		wantWarnings  int
	}{
		{
			name: "absent essay with passing points",
			essays: []model.Essay{
				{TaskID: 10, Finalized: true, Attended: false, Points: pts(95)},
			},
			wantPassed:    1,
			wantNotPassed: 0,
			wantWarnings:  1,
		},
		{
			name: "absent passing essay beside a failing one",
			essays: []model.Essay{
				{TaskID: 10, Finalized: true, Attended: false, Points: pts(95)},
				{TaskID: 10, Finalized: true, Attended: true, Points: pts(95)},
				{TaskID: 10, Finalized: true, Attended: true, Points: pts(20)},
			},
			wantPassed:    2,
			wantNotPassed: 0,
			wantWarnings:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(tt.essays, ladderABC())
			if got.PassedCount != tt.wantPassed {
				t.Errorf("PassedCount = %d, want %d", got.PassedCount, tt.wantPassed)
			}
			if got.NotPassedCount != tt.wantNotPassed {
				t.Errorf("NotPassedCount = %d, want %d", got.NotPassedCount, tt.wantNotPassed)
			}
			if got.NotPassedQuota == nil || *got.NotPassedQuota != 0 {
				t.Errorf("NotPassedQuota = %v, want 0", got.NotPassedQuota)
			}
			if len(got.Warnings) != tt.wantWarnings {
				t.Fatalf("warnings = %+v, want %d", got.Warnings, tt.wantWarnings)
			}
			for _, w := range got.Warnings {
				if w.Kind != model.ConflictInconsistentCounts {
					t.Errorf("warning kind = %s, want inconsistent_counts", w.Kind)
				}
			}
		})
	}
}

func TestAggregate_SkipsNonFinitePoints(t *testing.T) {
	essays := []model.Essay{
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(math.NaN())},
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(math.Inf(1))},
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(80)},
	}
	got := Aggregate(essays, ladderABC())

	if got.AveragePoints == nil || *got.AveragePoints != 80 {
		t.Errorf("AveragePoints = %v, want 80", got.AveragePoints)
	}
	if got.FinalCount != 3 {
		t.Errorf("FinalCount = %d, want 3", got.FinalCount)
	}
}

func TestAggregate_LaddersPerObject(t *testing.T) {
	levels := []model.GradeLevel{
		{ID: 1, ObjectID: 10, Grade: "pass", MinPoints: 50, Passed: true},
		{ID: 2, ObjectID: 20, Grade: "pass", MinPoints: 80, Passed: true},
	}
	essays := []model.Essay{
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(60)},
		{TaskID: 20, Finalized: true, Attended: true, Points: pts(60)},
	}
	got := Aggregate(essays, levels)

	if got.CountByGradeLevelID[1] != 1 || got.CountByGradeLevelID[2] != 0 {
		t.Errorf("CountByGradeLevelID = %v, want map[1:1 2:0]", got.CountByGradeLevelID)
	}
	if got.PassedCount != 1 {
		t.Errorf("PassedCount = %d, want 1", got.PassedCount)
	}
}

func TestAggregate_Additivity(t *testing.T) {
	levels := ladderABC()
	all := []model.Essay{
		{ID: 1, TaskID: 10, Finalized: true, Attended: true, Points: pts(95)},
		{ID: 2, TaskID: 10, Finalized: true, Attended: false},
		{ID: 3, TaskID: 10, Finalized: false, Attended: true},
		{ID: 4, TaskID: 10, Finalized: true, Attended: true, Points: pts(10)},
		{ID: 5, TaskID: 10, Finalized: true, Attended: true},
		{ID: 6, TaskID: 10, Finalized: true, Attended: true, Points: pts(55)},
		{ID: 7, TaskID: 10, Finalized: false, Attended: false, Points: pts(88)},
	}
	partitions := [][]model.Essay{all[:2], all[2:5], all[5:]}

	whole := Aggregate(all, levels)

	var count, final, passed, notPassed int
	for _, p := range partitions {
		r := Aggregate(p, levels)
		count += r.Count
		final += r.FinalCount
		passed += r.PassedCount
		notPassed += r.NotPassedCount
	}

	if count != whole.Count {
		t.Errorf("sum Count = %d, whole = %d", count, whole.Count)
	}
	if final != whole.FinalCount {
		t.Errorf("sum FinalCount = %d, whole = %d", final, whole.FinalCount)
	}
	if passed != whole.PassedCount {
		t.Errorf("sum PassedCount = %d, whole = %d", passed, whole.PassedCount)
	}
	if notPassed != whole.NotPassedCount {
		t.Errorf("sum NotPassedCount = %d, whole = %d", notPassed, whole.NotPassedCount)
	}
}

func TestGradeDistribution(t *testing.T) {
	levels := []model.GradeLevel{
		{ID: 1, ObjectID: 10, Grade: "B", MinPoints: 50, Passed: true},
		{ID: 2, ObjectID: 10, Grade: "A", MinPoints: 80, Passed: true},
		{ID: 3, ObjectID: 20, Grade: "A", MinPoints: 90, Passed: true},
	}
	essays := []model.Essay{
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(85)},
		{TaskID: 20, Finalized: true, Attended: true, Points: pts(95)},
		{TaskID: 20, Finalized: true, Attended: true, Points: pts(60)},
		{TaskID: 10, Finalized: true, Attended: true, Points: pts(60)},
	}

	got := GradeDistribution(Aggregate(essays, levels), levels)

	want := []GradeCount{{Grade: "A", Count: 2}, {Grade: "B", Count: 1}}
	if len(got) != len(want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestGroupByUser(t *testing.T) {
	writers := []model.Writer{
		{ID: 1, UserID: 200, TaskID: 10, Pseudonym: "owl"},
		{ID: 2, UserID: 100, TaskID: 10, Pseudonym: "fox"},
		{ID: 3, UserID: 200, TaskID: 20, Pseudonym: "owl-2"},
	}
	essays := []model.Essay{
		{ID: 11, WriterID: 1, TaskID: 10},
		{ID: 12, WriterID: 2, TaskID: 10},
		{ID: 13, WriterID: 3, TaskID: 20},
		{ID: 14, WriterID: 99, TaskID: 20},
	}

	got := GroupByUser(essays, writers)

	if len(got) != 2 {
		t.Fatalf("got %d groups, want 2", len(got))
	}
	if got[0].UserID != 100 || len(got[0].Essays) != 1 {
		t.Errorf("group 0 = %+v", got[0])
	}
	if got[1].UserID != 200 || len(got[1].Essays) != 2 || len(got[1].Pseudonyms) != 2 {
		t.Errorf("group 1 = %+v", got[1])
	}
}

func TestFilterByTasks(t *testing.T) {
	essays := []model.Essay{{ID: 1, TaskID: 10}, {ID: 2, TaskID: 20}, {ID: 3, TaskID: 30}}
	got := FilterByTasks(essays, []int64{10, 30})
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Errorf("FilterByTasks = %+v", got)
	}
}
