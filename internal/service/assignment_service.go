package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-unit-gateway/internal/models"
)

type assignmentCatalog interface {
	ListAssignments(ctx context.Context, session models.Session, filter models.AssignmentFilter) ([]models.CourseAssignment, error)
}

// AssignmentService serves the course assignment catalog used to pick a unit group.
type AssignmentService struct {
	upstream assignmentCatalog
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewAssignmentService constructs the catalog service.
func NewAssignmentService(upstream assignmentCatalog, cache *CacheService, ttl time.Duration, logger *zap.Logger) *AssignmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{upstream: upstream, cache: cache, ttl: ttl, logger: logger}
}

// List returns assignments for the filter. Teachers only ever see their own.
func (s *AssignmentService) List(ctx context.Context, session models.Session, filter models.AssignmentFilter) ([]models.CourseAssignment, error) {
	cacheable := true
	if !session.IsAdmin() {
		if session.TeacherID != nil {
			filter.TeacherID = *session.TeacherID
		} else {
			// scope unknown; let the backend decide what this user sees
			cacheable = false
		}
	}

	key := catalogKey(filter)
	var cached []models.CourseAssignment
	if cacheable && s.cache.Get(ctx, key, &cached) {
		return cached, nil
	}

	rows, err := s.upstream.ListAssignments(ctx, session, filter)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].GradeName != rows[j].GradeName {
			return rows[i].GradeName < rows[j].GradeName
		}
		if rows[i].SectionName != rows[j].SectionName {
			return rows[i].SectionName < rows[j].SectionName
		}
		return rows[i].CourseName < rows[j].CourseName
	})
	if cacheable {
		s.cache.Set(ctx, key, rows, s.ttl)
	}
	return rows, nil
}

// Invalidate drops every cached catalog page.
func (s *AssignmentService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, "catalog:assignments:*")
}

func catalogKey(filter models.AssignmentFilter) string {
	return fmt.Sprintf("catalog:assignments:year=%d:teacher=%d", filter.Year, filter.TeacherID)
}
