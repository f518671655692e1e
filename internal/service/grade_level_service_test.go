package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/model"
)

const testTaskID int64 = 10

func pointsPtr(v float64) *float64 { return &v }

func newTestGradeLevelService(levels []model.GradeLevel, essays []model.Essay, correctionStart model.Instant) (*GradeLevelService, *mockLevelStore, *mockRecalc, *mockCache) {
	store := &mockLevelStore{levels: levels}
	recalc := &mockRecalc{}
	cache := newMockCache()
	tasks := newMockTaskStore(model.TaskSettings{TaskID: testTaskID, CorrectionStart: correctionStart})
	svc := NewGradeLevelService(store, &mockEssayStore{essays: essays}, tasks, recalc, cache, zerolog.Nop())
	svc.now = func() time.Time { return time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC) }
	return svc, store, recalc, cache
}

func TestGradeLevelService_Create(t *testing.T) {
	svc, store, recalc, cache := newTestGradeLevelService(nil, nil, model.Unset)
	cache.data["statistics:tasks:10:min:0"] = []byte(`{}`)

	lvl, conflicts, err := svc.Create(context.Background(), testTaskID, model.GradeLevelRequest{
		Grade: "A", MinPoints: pointsPtr(90), Passed: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lvl.ID == 0 || lvl.ObjectID != testTaskID {
		t.Errorf("created level = %+v", lvl)
	}
	if len(conflicts) != 0 {
		t.Errorf("conflicts = %+v", conflicts)
	}
	if len(store.levels) != 1 {
		t.Errorf("stored %d levels, want 1", len(store.levels))
	}
	if len(recalc.tasks) != 1 || recalc.tasks[0] != testTaskID {
		t.Errorf("recalc queue = %v", recalc.tasks)
	}
	if _, ok := cache.data["statistics:tasks:10:min:0"]; ok {
		t.Error("statistics cache not invalidated")
	}
}

func TestGradeLevelService_CreateRejected(t *testing.T) {
	existing := []model.GradeLevel{{ID: 1, ObjectID: testTaskID, Grade: "C", MinPoints: 50}}

	tests := []struct {
		name    string
		essays  []model.Essay
		points  float64
		wantErr error
	}{
		{"duplicate threshold", nil, 50, ErrDuplicateThreshold},
		{"negative points", nil, -1, ErrInvalidPoints},
		{"nan points", nil, math.NaN(), ErrInvalidPoints},
		{"infinite points", nil, math.Inf(1), ErrInvalidPoints},
		{"finalized correction", []model.Essay{{ID: 1, TaskID: testTaskID, Finalized: true}}, 70, ErrGradeLevelsLocked},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, recalc, _ := newTestGradeLevelService(append([]model.GradeLevel(nil), existing...), tt.essays, model.Unset)
			_, _, err := svc.Create(context.Background(), testTaskID, model.GradeLevelRequest{Grade: "B", MinPoints: pointsPtr(tt.points)})
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if len(store.levels) != 1 {
				t.Errorf("ladder changed: %+v", store.levels)
			}
			if len(recalc.tasks) != 0 {
				t.Errorf("recalc enqueued on rejected change: %v", recalc.tasks)
			}
		})
	}
}

func TestGradeLevelService_Update(t *testing.T) {
	levels := []model.GradeLevel{
		{ID: 1, ObjectID: testTaskID, Grade: "C", MinPoints: 50, Passed: true},
		{ID: 2, ObjectID: testTaskID, Grade: "B", MinPoints: 70, Passed: true},
	}
	svc, store, _, _ := newTestGradeLevelService(levels, nil, model.Unset)
	ctx := context.Background()

	// Keeping its own threshold is not a duplicate.
	if _, _, err := svc.Update(ctx, testTaskID, 2, model.GradeLevelRequest{Grade: "B+", MinPoints: pointsPtr(70), Passed: true}); err != nil {
		t.Fatalf("update own threshold: %v", err)
	}
	if store.levels[1].Grade != "B+" {
		t.Errorf("grade = %q, want B+", store.levels[1].Grade)
	}

	if _, _, err := svc.Update(ctx, testTaskID, 2, model.GradeLevelRequest{Grade: "B", MinPoints: pointsPtr(50)}); !errors.Is(err, ErrDuplicateThreshold) {
		t.Errorf("err = %v, want duplicate threshold", err)
	}
	if _, _, err := svc.Update(ctx, testTaskID, 99, model.GradeLevelRequest{Grade: "X", MinPoints: pointsPtr(10)}); !errors.Is(err, ErrGradeLevelNotFound) {
		t.Errorf("err = %v, want not found", err)
	}

	// A failed level above a passed one is saved and reported.
	_, conflicts, err := svc.Update(ctx, testTaskID, 2, model.GradeLevelRequest{Grade: "B", MinPoints: pointsPtr(70), Passed: false})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0].Kind != model.ConflictPassedOrdering {
		t.Errorf("conflicts = %+v, want passed ordering", conflicts)
	}
}

func TestGradeLevelService_Delete(t *testing.T) {
	levels := func() []model.GradeLevel {
		return []model.GradeLevel{{ID: 1, ObjectID: testTaskID, Grade: "C", MinPoints: 50}}
	}
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		correctionStart model.Instant
		id              int64
		wantErr         error
	}{
		{"before correction", model.At(now.Add(time.Hour)), 1, nil},
		{"no correction start", model.Unset, 1, nil},
		{"correction started", model.At(now), 1, ErrGradeLevelDeleteClosed},
		{"unknown level", model.Unset, 7, ErrGradeLevelNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, store, recalc, _ := newTestGradeLevelService(levels(), nil, tt.correctionStart)
			_, err := svc.Delete(context.Background(), testTaskID, tt.id)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if tt.wantErr == nil && (len(store.levels) != 0 || len(recalc.tasks) != 1) {
				t.Errorf("levels = %+v, recalc = %v", store.levels, recalc.tasks)
			}
		})
	}
}

func TestGradeLevelService_DeleteLocked(t *testing.T) {
	levels := []model.GradeLevel{{ID: 1, ObjectID: testTaskID, Grade: "C", MinPoints: 50}}
	essays := []model.Essay{{ID: 3, TaskID: testTaskID, Finalized: true}}
	svc, _, _, _ := newTestGradeLevelService(levels, essays, model.Unset)

	if _, err := svc.Delete(context.Background(), testTaskID, 1); !errors.Is(err, ErrGradeLevelsLocked) {
		t.Errorf("err = %v, want locked", err)
	}
}

func TestGradeLevelService_ListSorted(t *testing.T) {
	levels := []model.GradeLevel{
		{ID: 1, ObjectID: testTaskID, Grade: "C", MinPoints: 50},
		{ID: 3, ObjectID: testTaskID, Grade: "A", MinPoints: 90},
		{ID: 2, ObjectID: testTaskID, Grade: "B", MinPoints: 70},
		{ID: 4, ObjectID: 11, Grade: "Z", MinPoints: 0},
	}
	svc, _, _, _ := newTestGradeLevelService(levels, nil, model.Unset)

	got, _, err := svc.List(context.Background(), testTaskID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0].Grade != "A" || got[2].Grade != "C" {
		t.Errorf("ladder = %+v", got)
	}
}
