package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-essay/internal/config"
	"github.com/stemsi/exstem-essay/internal/grading"
	"github.com/stemsi/exstem-essay/internal/model"
)

var ErrNoTasks = errors.New("no tasks selected")

// StatisticsFilter selects the essays a report covers. Writers with fewer
// than MinFinalized finalized essays get no row of their own.
type StatisticsFilter struct {
	TaskIDs      []int64
	MinFinalized int
}

// StatisticsRow is the statistics of one participant across the selected tasks.
type StatisticsRow struct {
	UserID        int64                    `json:"user_id"`
	Login         string                   `json:"login"`
	Firstname     string                   `json:"firstname"`
	Lastname      string                   `json:"lastname"`
	Matriculation string                   `json:"matriculation"`
	Pseudonyms    []string                 `json:"pseudonyms"`
	Statistics    grading.StatisticsResult `json:"statistics"`
	Grades        []grading.GradeCount     `json:"grades"`
}

// StatisticsReport is the over-all and per-participant correction statistics.
type StatisticsReport struct {
	TaskIDs      []int64                  `json:"task_ids"`
	MinFinalized int                      `json:"min_finalized"`
	GradeLabels  []string                 `json:"grade_labels"`
	Total        grading.StatisticsResult `json:"total"`
	TotalGrades  []grading.GradeCount     `json:"total_grades"`
	Rows         []StatisticsRow          `json:"rows"`
	Warnings     []model.Conflict         `json:"warnings,omitempty"`
	GeneratedAt  time.Time                `json:"generated_at"`
}

type taskLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

type levelReader interface {
	ListByObjects(ctx context.Context, objectIDs []int64) ([]model.GradeLevel, error)
}

type essayLister interface {
	ListByTasks(ctx context.Context, taskIDs []int64) ([]model.Essay, error)
}

// StatisticsService builds correction statistics reports from one consistent
// snapshot of essays and grade levels and caches them in Redis.
type StatisticsService struct {
	tasks        taskLister
	levels       levelReader
	essays       essayLister
	writers      writerStore
	participants participantStore
	cache        jsonCache
	ttl          time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

// NewStatisticsService creates a new StatisticsService.
func NewStatisticsService(
	tasks taskLister,
	levels levelReader,
	essays essayLister,
	writers writerStore,
	participants participantStore,
	cache jsonCache,
	cfg *config.Config,
	log zerolog.Logger,
) *StatisticsService {
	return &StatisticsService{
		tasks:        tasks,
		levels:       levels,
		essays:       essays,
		writers:      writers,
		participants: participants,
		cache:        cache,
		ttl:          cfg.StatisticsCacheTTL,
		now:          time.Now,
		log:          log.With().Str("component", "statistics_service").Logger(),
	}
}

// TaskReport returns the statistics of the filtered tasks. An empty task
// list selects every task.
func (s *StatisticsService) TaskReport(ctx context.Context, filter StatisticsFilter) (*StatisticsReport, error) {
	taskIDs := filter.TaskIDs
	if len(taskIDs) == 0 {
		ids, err := s.tasks.ListIDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("list tasks: %w", err)
		}
		taskIDs = ids
	}
	if len(taskIDs) == 0 {
		return nil, ErrNoTasks
	}

	key := config.CacheKey.StatisticsReportKey(taskIDs, filter.MinFinalized)
	var cached StatisticsReport
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("statistics cache read failed")
	}
	if found {
		return &cached, nil
	}

	report, err := s.build(ctx, taskIDs, filter.MinFinalized)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, key, report, s.ttl); err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("statistics cache write failed")
		}
	}
	return report, nil
}

func (s *StatisticsService) build(ctx context.Context, taskIDs []int64, minFinalized int) (*StatisticsReport, error) {
	levels, err := s.levels.ListByObjects(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list grade levels: %w", err)
	}
	essays, err := s.essays.ListByTasks(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list essays: %w", err)
	}
	writers, err := s.writers.ListByTasks(ctx, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("list writers: %w", err)
	}

	essays = grading.FilterByTasks(essays, taskIDs)
	total := grading.Aggregate(essays, levels)

	report := &StatisticsReport{
		TaskIDs:      taskIDs,
		MinFinalized: minFinalized,
		GradeLabels:  grading.GradeLabels(levels),
		Total:        total,
		TotalGrades:  grading.GradeDistribution(total, levels),
		Rows:         []StatisticsRow{},
		Warnings:     append(levelConflicts(levels), total.Warnings...),
		GeneratedAt:  s.now().UTC(),
	}

	groups := grading.GroupByUser(essays, writers)
	userIDs := make([]int64, 0, len(groups))
	for _, g := range groups {
		userIDs = append(userIDs, g.UserID)
	}
	participants, err := s.participants.ListByIDs(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	byID := make(map[int64]model.Participant, len(participants))
	for _, p := range participants {
		byID[p.ID] = p
	}

	for _, g := range groups {
		res := grading.Aggregate(g.Essays, levels)
		if res.FinalCount < minFinalized {
			continue
		}
		p := byID[g.UserID]
		report.Rows = append(report.Rows, StatisticsRow{
			UserID:        g.UserID,
			Login:         p.Login,
			Firstname:     p.Firstname,
			Lastname:      p.Lastname,
			Matriculation: p.Matriculation,
			Pseudonyms:    g.Pseudonyms,
			Statistics:    res,
			Grades:        grading.GradeDistribution(res, levels),
		})
	}

	sort.SliceStable(report.Rows, func(i, j int) bool {
		a, b := report.Rows[i], report.Rows[j]
		if a.Lastname != b.Lastname {
			return a.Lastname < b.Lastname
		}
		if a.Firstname != b.Firstname {
			return a.Firstname < b.Firstname
		}
		return a.UserID < b.UserID
	})

	s.log.Debug().
		Int("tasks", len(taskIDs)).
		Int("essays", len(essays)).
		Int("rows", len(report.Rows)).
		Msg("statistics report built")
	return report, nil
}

// levelConflicts validates each object's ladder on its own.
func levelConflicts(levels []model.GradeLevel) []model.Conflict {
	byObject := make(map[int64][]model.GradeLevel)
	var order []int64
	for _, l := range levels {
		if _, ok := byObject[l.ObjectID]; !ok {
			order = append(order, l.ObjectID)
		}
		byObject[l.ObjectID] = append(byObject[l.ObjectID], l)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	var conflicts []model.Conflict
	for _, obj := range order {
		conflicts = append(conflicts, grading.ValidateLevels(byObject[obj])...)
	}
	return conflicts
}
