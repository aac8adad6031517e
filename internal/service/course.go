package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/asverdlov/edushop/internal/models"
	"github.com/asverdlov/edushop/internal/storage"
)

// CourseView is the public course detail, decorated with the viewer's
// enrollment state when a logged-in user is present.
type CourseView struct {
	models.Course
	ModulesCount int                    `json:"modules_count"`
	VideosCount  int                    `json:"videos_count"`
	Enrolled     bool                   `json:"enrolled"`
	Progress     *models.EnrollmentMeta `json:"progress"`
	CompletedAt  *time.Time             `json:"completed_at"`
}

type CourseService struct {
	catalog *CatalogService
	storage storage.CourseRepository
	log     *zap.SugaredLogger
}

func NewCourseService(catalog *CatalogService, st storage.CourseRepository, log *zap.SugaredLogger) *CourseService {
	return &CourseService{catalog: catalog, storage: st, log: log}
}

// GetCourseView loads the course through the cache; the enrollment lookup is
// per-user and always hits the store. A failed enrollment lookup degrades to
// the anonymous view rather than failing the request.
func (s *CourseService) GetCourseView(ctx context.Context, courseID int64, userID int64) (*CourseView, error) {
	course, err := s.catalog.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	view := &CourseView{
		Course:       *course,
		ModulesCount: len(course.Modules),
		VideosCount:  course.VideosCount(),
	}

	if userID > 0 {
		enrollment, err := s.storage.GetEnrollment(ctx, userID, courseID)
		if err != nil {
			s.log.Warnw("enrollment lookup failed", "course_id", courseID, "user_id", userID, "error", err)
		} else if enrollment != nil {
			view.Enrolled = true
			view.Progress = &enrollment.Meta
			view.CompletedAt = enrollment.CompletedAt
		}
	}
	return view, nil
}

func (s *CourseService) Enroll(ctx context.Context, userID, courseID int64) (*time.Time, error) {
	return s.storage.Enroll(ctx, userID, courseID)
}

func (s *CourseService) Unenroll(ctx context.Context, userID, courseID int64) error {
	return s.storage.Unenroll(ctx, userID, courseID)
}

func (s *CourseService) ListEnrollments(ctx context.Context, userID int64) ([]models.Enrollment, error) {
	return s.storage.ListEnrollments(ctx, userID)
}

func (s *CourseService) RecordProgress(ctx context.Context, userID, courseID int64, moduleIdx, videoIdx int) (*models.CourseProgress, error) {
	progress, err := s.storage.RecordProgress(ctx, userID, courseID, moduleIdx, videoIdx)
	if err != nil {
		return nil, err
	}
	if progress.Completed {
		s.log.Infow("course completed", "course_id", courseID, "user_id", userID)
	}
	return progress, nil
}
