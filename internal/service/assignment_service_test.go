package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
	appErrors "github.com/noah-isme/sma-unit-gateway/pkg/errors"
)

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func assignmentFixture() *fakeUpstream {
	up := newFakeUpstream()
	up.assignments = []models.CourseAssignment{
		{ID: 3, TeacherID: 9, CourseName: "Química", GradeName: "5to", SectionName: "A", Year: 2024},
		{ID: 1, TeacherID: 9, CourseName: "Física", GradeName: "4to", SectionName: "B", Year: 2024},
		{ID: 2, TeacherID: 7, CourseName: "Biología", GradeName: "4to", SectionName: "A", Year: 2024},
	}
	return up
}

func TestAssignmentListScopesTeacher(t *testing.T) {
	up := assignmentFixture()
	svc := NewAssignmentService(up, nil, time.Minute, nil)

	rows, err := svc.List(context.Background(), teacherSession, models.AssignmentFilter{Year: 2024, TeacherID: 7})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 1, rows[0].ID)
	assert.Equal(t, 3, rows[1].ID)

	all, err := svc.List(context.Background(), adminSession, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int{2, 1, 3}, []int{all[0].ID, all[1].ID, all[2].ID})
}

func TestAssignmentListServesFromCache(t *testing.T) {
	up := assignmentFixture()
	cache := NewCacheService(newMemoryCacheRepo(), NewMetricsService(), time.Minute, nil, true)
	svc := NewAssignmentService(up, cache, time.Minute, nil)

	first, err := svc.List(context.Background(), teacherSession, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)
	second, err := svc.List(context.Background(), teacherSession, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, up.count("list_assignments"))

	svc.Invalidate(context.Background())
	_, err = svc.List(context.Background(), teacherSession, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 2, up.count("list_assignments"))
}

func TestAssignmentListUnscopedTeacherBypassesCache(t *testing.T) {
	up := assignmentFixture()
	cache := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	svc := NewAssignmentService(up, cache, time.Minute, nil)

	_, err := svc.List(context.Background(), adminSession, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)

	unscoped := models.Session{UserID: "teacher-2", Role: models.RoleTeacher, Token: "t"}
	_, err = svc.List(context.Background(), unscoped, models.AssignmentFilter{Year: 2024})
	require.NoError(t, err)
	assert.Equal(t, 2, up.count("list_assignments"))
}
