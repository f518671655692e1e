package service

import (
	"context"
	"encoding/json"
	"path"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stemsi/exstem-essay/internal/model"
)

// ── Mock task store ──

type mockTaskStore struct {
	settings map[int64]*model.TaskSettings
	reads    int
}

func newMockTaskStore(settings ...model.TaskSettings) *mockTaskStore {
	m := &mockTaskStore{settings: make(map[int64]*model.TaskSettings)}
	for i := range settings {
		s := settings[i]
		m.settings[s.TaskID] = &s
	}
	return m
}

func (m *mockTaskStore) GetSettings(_ context.Context, taskID int64) (*model.TaskSettings, error) {
	m.reads++
	s, ok := m.settings[taskID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *mockTaskStore) UpdateSettings(_ context.Context, s *model.TaskSettings) error {
	if _, ok := m.settings[s.TaskID]; !ok {
		return pgx.ErrNoRows
	}
	s.UpdatedAt = time.Now()
	cp := *s
	m.settings[s.TaskID] = &cp
	return nil
}

func (m *mockTaskStore) ListIDs(_ context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(m.settings))
	for id := range m.settings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// ── Mock writer store ──

type mockWriterStore struct {
	writers []model.Writer
}

func (m *mockWriterStore) GetByUserAndTask(_ context.Context, userID, taskID int64) (*model.Writer, error) {
	for _, w := range m.writers {
		if w.UserID == userID && w.TaskID == taskID {
			cp := w
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockWriterStore) ListByTasks(_ context.Context, taskIDs []int64) ([]model.Writer, error) {
	var out []model.Writer
	for _, w := range m.writers {
		if containsID(taskIDs, w.TaskID) {
			out = append(out, w)
		}
	}
	return out, nil
}

// ── Mock essay store ──

type mockEssayStore struct {
	essays []model.Essay
}

func (m *mockEssayStore) GetByWriter(_ context.Context, writerID int64) (*model.Essay, error) {
	for _, e := range m.essays {
		if e.WriterID == writerID {
			cp := e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockEssayStore) ListByTasks(_ context.Context, taskIDs []int64) ([]model.Essay, error) {
	var out []model.Essay
	for _, e := range m.essays {
		if containsID(taskIDs, e.TaskID) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockEssayStore) FinalizedExists(_ context.Context, taskID int64) (bool, error) {
	for _, e := range m.essays {
		if e.TaskID == taskID && e.Finalized {
			return true, nil
		}
	}
	return false, nil
}

// ── Mock time extension store ──

type mockExtensionStore struct {
	exts    map[[2]int64]model.TimeExtension
	writers map[int64]int64 // writer id -> task id
	nextID  int64
}

func newMockExtensionStore(writers ...model.Writer) *mockExtensionStore {
	m := &mockExtensionStore{exts: make(map[[2]int64]model.TimeExtension), writers: make(map[int64]int64)}
	for _, w := range writers {
		m.writers[w.ID] = w.TaskID
	}
	return m
}

func (m *mockExtensionStore) Get(_ context.Context, writerID, taskID int64) (*model.TimeExtension, error) {
	e, ok := m.exts[[2]int64{writerID, taskID}]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &e, nil
}

func (m *mockExtensionStore) Upsert(_ context.Context, e *model.TimeExtension) error {
	if task, ok := m.writers[e.WriterID]; !ok || task != e.TaskID {
		return pgx.ErrNoRows
	}
	key := [2]int64{e.WriterID, e.TaskID}
	if old, ok := m.exts[key]; ok {
		e.ID = old.ID
	} else {
		m.nextID++
		e.ID = m.nextID
	}
	e.UpdatedAt = time.Now()
	m.exts[key] = *e
	return nil
}

func (m *mockExtensionStore) Delete(_ context.Context, writerID, taskID int64) error {
	key := [2]int64{writerID, taskID}
	if _, ok := m.exts[key]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.exts, key)
	return nil
}

func (m *mockExtensionStore) ListByTask(_ context.Context, taskID int64) ([]model.TimeExtension, error) {
	var out []model.TimeExtension
	for _, e := range m.exts {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].WriterID < out[j].WriterID })
	return out, nil
}

// ── Mock grade level store ──

type mockLevelStore struct {
	levels []model.GradeLevel
	nextID int64
}

func (m *mockLevelStore) ListByObjects(_ context.Context, objectIDs []int64) ([]model.GradeLevel, error) {
	var out []model.GradeLevel
	for _, l := range m.levels {
		if containsID(objectIDs, l.ObjectID) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockLevelStore) Create(_ context.Context, l *model.GradeLevel) error {
	m.nextID++
	l.ID = 100 + m.nextID
	m.levels = append(m.levels, *l)
	return nil
}

func (m *mockLevelStore) Update(_ context.Context, l *model.GradeLevel) error {
	for i := range m.levels {
		if m.levels[i].ID == l.ID && m.levels[i].ObjectID == l.ObjectID {
			m.levels[i] = *l
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (m *mockLevelStore) Delete(_ context.Context, objectID, id int64) error {
	for i := range m.levels {
		if m.levels[i].ID == id && m.levels[i].ObjectID == objectID {
			m.levels = append(m.levels[:i], m.levels[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

// ── Mock participant / admin / role stores ──

type mockParticipantStore struct {
	participants []model.Participant
}

func (m *mockParticipantStore) GetByLogin(_ context.Context, login string) (*model.Participant, error) {
	for _, p := range m.participants {
		if p.Login == login {
			cp := p
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockParticipantStore) ListByIDs(_ context.Context, ids []int64) ([]model.Participant, error) {
	var out []model.Participant
	for _, p := range m.participants {
		if containsID(ids, p.ID) {
			out = append(out, p)
		}
	}
	return out, nil
}

type mockAdminStore struct {
	admins []model.Admin
}

func (m *mockAdminStore) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockAdminStore) GetByEmail(_ context.Context, email string) (*model.Admin, error) {
	for _, a := range m.admins {
		if a.Email == email {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type mockRoleStore struct {
	permissions map[int64][]string
}

func (m *mockRoleStore) GetPermissionsByRoleID(_ context.Context, roleID int64) ([]string, error) {
	return m.permissions[roleID], nil
}

// ── Mock cache and queue ──

type mockCache struct {
	data    map[string][]byte
	deletes []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (m *mockCache) Get(_ context.Context, key string, dst any) (bool, error) {
	raw, ok := m.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dst)
}

func (m *mockCache) Set(_ context.Context, key string, val any, _ time.Duration) error {
	raw, err := json.Marshal(val)
	if err != nil {
		return err
	}
	m.data[key] = raw
	return nil
}

func (m *mockCache) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
		m.deletes = append(m.deletes, k)
	}
	return nil
}

func (m *mockCache) DeletePattern(_ context.Context, pattern string) error {
	for k := range m.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(m.data, k)
		}
	}
	m.deletes = append(m.deletes, pattern)
	return nil
}

type mockRecalc struct {
	tasks []int64
}

func (m *mockRecalc) Enqueue(_ context.Context, taskID int64) error {
	m.tasks = append(m.tasks, taskID)
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
