package access

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/CrossGen-ai/ai-in-4-sub002/internal/domain/enums"
	pgrepo "github.com/CrossGen-ai/ai-in-4-sub002/internal/repo/postgres"
)

var ErrCourseNotFound = errors.New("course not found")

type CourseStore interface {
	FindByID(ctx context.Context, courseID int64) (pgrepo.CourseRecord, error)
	List(ctx context.Context) ([]pgrepo.CourseRecord, error)
}

type EntitlementStore interface {
	HasActiveForProduct(ctx context.Context, userID int64, productID string) (bool, error)
	HasActiveForCategory(ctx context.Context, userID int64, category string) (bool, error)
}

type Service struct {
	courses      CourseStore
	entitlements EntitlementStore
	logger       *zap.Logger
}

func NewService(courses CourseStore, entitlements EntitlementStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		courses:      courses,
		entitlements: entitlements,
		logger:       logger,
	}
}

// CanAccess decides whether the user may open the course.
//
// Free courses are open to everyone. Per-item categories require an active
// entitlement to the exact product the course is linked to; a per-item
// course without a product link is a catalog defect and is denied. The
// curriculum category is a bundle: one curriculum entitlement unlocks every
// curriculum course. Unknown categories are denied.
func (s *Service) CanAccess(ctx context.Context, userID, courseID int64) (bool, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, pgrepo.ErrCourseNotFound) {
			return false, ErrCourseNotFound
		}
		return false, fmt.Errorf("load course: %w", err)
	}

	return s.CanAccessCourse(ctx, userID, course)
}

func (s *Service) CanAccessCourse(ctx context.Context, userID int64, course pgrepo.CourseRecord) (bool, error) {
	category := enums.CourseCategory(course.Category)

	switch {
	case category == enums.CourseCategoryFree:
		return true, nil

	case category.IsPerItem():
		if course.ProductID == nil || *course.ProductID == "" {
			s.logger.Warn("per-item course has no product link, denying access",
				zap.Int64("course_id", course.ID),
				zap.String("category", course.Category),
			)
			return false, nil
		}
		allowed, err := s.entitlements.HasActiveForProduct(ctx, userID, *course.ProductID)
		if err != nil {
			return false, fmt.Errorf("check product entitlement: %w", err)
		}
		return allowed, nil

	case category == enums.CourseCategoryCurriculum:
		allowed, err := s.entitlements.HasActiveForCategory(ctx, userID, string(enums.CourseCategoryCurriculum))
		if err != nil {
			return false, fmt.Errorf("check curriculum entitlement: %w", err)
		}
		return allowed, nil

	default:
		s.logger.Warn("course has unknown category, denying access",
			zap.Int64("course_id", course.ID),
			zap.String("category", course.Category),
		)
		return false, nil
	}
}

type CourseWithAccess struct {
	Course     pgrepo.CourseRecord
	Accessible bool
}

// ListWithAccess returns every course annotated with the caller's access
// decision, for the course listing page.
func (s *Service) ListWithAccess(ctx context.Context, userID int64) ([]CourseWithAccess, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}

	result := make([]CourseWithAccess, 0, len(courses))
	for _, course := range courses {
		accessible, err := s.CanAccessCourse(ctx, userID, course)
		if err != nil {
			return nil, err
		}
		result = append(result, CourseWithAccess{Course: course, Accessible: accessible})
	}

	return result, nil
}
