package enrollments

import (
	"context"
	"log"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"learnhub/pkg/apperr"
	"learnhub/pkg/cache"
	"learnhub/pkg/kfka"
	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

type Service struct {
	store  storage.Store
	cache  cache.Cache
	events kfka.Publisher
	log    *log.Logger
	now    func() time.Time
}

func NewService(store storage.Store, c cache.Cache, events kfka.Publisher, logger *log.Logger) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	if events == nil {
		events = kfka.Noop{}
	}
	if logger == nil {
		logger = log.New(os.Stderr, "enrollments: ", log.LstdFlags)
	}
	return &Service{
		store:  store,
		cache:  c,
		events: events,
		log:    logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Enroll(ctx context.Context, courseID, userID string) (*models.Enrollment, error) {
	if err := apperr.CheckID("course", courseID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, lookupErr(err, "course")
	}
	if _, err := s.store.FindEnrollment(ctx, userID, courseID); err == nil {
		return nil, apperr.Conflict("already enrolled in this course")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, errors.Wrap(err, "find enrollment")
	}

	now := s.now()
	e := &models.Enrollment{
		ID:               uuid.NewString(),
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []models.CompletedLesson{},
		EnrolledAt:       now,
		LastAccessedAt:   now,
	}
	if err := s.store.CreateEnrollment(ctx, e); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, apperr.Conflict("already enrolled in this course")
		}
		return nil, lookupErr(err, "course")
	}
	// totalEnrollments is part of the cached listing.
	s.cache.DeletePattern(ctx, "courses:*")
	kfka.Notify(ctx, s.events, s.log, kfka.Event{
		Topic:    kfka.TopicEnrollments,
		Type:     "course_enrolled",
		UserID:   userID,
		CourseID: courseID,
	})
	return e, nil
}

type DashboardEntry struct {
	models.Enrollment
	Course *models.CourseSummary `json:"course"`
}

type Dashboard struct {
	Enrollments  []DashboardEntry `json:"enrollments"`
	TotalCourses int              `json:"totalCourses"`
}

// Dashboard lists the user's enrollments, newest first. An enrollment whose
// course is gone is listed with a nil course.
func (s *Service) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	es, err := s.store.ListEnrollmentsByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list enrollments")
	}
	d := &Dashboard{Enrollments: make([]DashboardEntry, 0, len(es)), TotalCourses: len(es)}
	for _, e := range es {
		entry := DashboardEntry{Enrollment: e}
		c, err := s.store.GetCourse(ctx, e.CourseID)
		switch {
		case err == nil:
			sum := c.Summary()
			entry.Course = &sum
		case !errors.Is(err, storage.ErrNotFound):
			return nil, errors.Wrap(err, "load course")
		}
		d.Enrollments = append(d.Enrollments, entry)
	}
	return d, nil
}

type Details struct {
	models.Enrollment
	Course models.CourseView `json:"course"`
}

// Details returns the caller's enrollment with its full course and records the access.
func (s *Service) Details(ctx context.Context, enrollmentID, userID string) (*Details, error) {
	e, err := s.owned(ctx, enrollmentID, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCourse(ctx, e.CourseID)
	if err != nil {
		return nil, lookupErr(err, "course")
	}
	e.LastAccessedAt = s.now()
	if err := s.store.SaveEnrollment(ctx, e); err != nil {
		return nil, lookupErr(err, "enrollment")
	}
	return &Details{Enrollment: *e, Course: c.View()}, nil
}

type Progress struct {
	Progress         int `json:"progress"`
	CompletedLessons int `json:"completedLessons"`
}

// MarkLessonComplete records the lesson once and recomputes progress against the
// course as it is now. Completions of lessons deleted since still count, so
// progress can go above 100.
func (s *Service) MarkLessonComplete(ctx context.Context, enrollmentID, moduleID, lessonID, userID string) (*Progress, error) {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return nil, err
	}
	if err := apperr.CheckID("lesson", lessonID); err != nil {
		return nil, err
	}
	e, err := s.owned(ctx, enrollmentID, userID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetCourse(ctx, e.CourseID)
	if err != nil {
		return nil, lookupErr(err, "course")
	}

	dirty := false
	if !e.HasCompleted(moduleID, lessonID) {
		mi := c.FindModule(moduleID)
		if mi < 0 || c.Modules[mi].FindLesson(lessonID) < 0 {
			return nil, apperr.NotFound("lesson not found in course")
		}
		e.CompletedLessons = append(e.CompletedLessons, models.CompletedLesson{
			ModuleID:    moduleID,
			LessonID:    lessonID,
			CompletedAt: s.now(),
		})
		dirty = true
	}
	if p := progress(len(e.CompletedLessons), c.TotalLessons()); p != e.Progress {
		e.Progress = p
		dirty = true
	}
	if dirty {
		e.LastAccessedAt = s.now()
		if err := s.store.SaveEnrollment(ctx, e); err != nil {
			return nil, lookupErr(err, "enrollment")
		}
	}
	return &Progress{Progress: e.Progress, CompletedLessons: len(e.CompletedLessons)}, nil
}

// progress is 0 for a course without lessons.
func progress(completed, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

type CourseEnrollments struct {
	Enrollments []models.Enrollment `json:"enrollments"`
	Pagination  Pagination          `json:"pagination"`
}

type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	Total       int64 `json:"total"`
}

// CourseEnrollments pages through a course's enrollments for admins, 20 per page
// by default.
func (s *Service) CourseEnrollments(ctx context.Context, courseID string, page, limit int) (*CourseEnrollments, error) {
	if err := apperr.CheckID("course", courseID); err != nil {
		return nil, err
	}
	if _, err := s.store.GetCourse(ctx, courseID); err != nil {
		return nil, lookupErr(err, "course")
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	es, total, err := s.store.ListEnrollmentsByCourse(ctx, courseID, storage.Page{Page: page, Limit: limit})
	if err != nil {
		return nil, errors.Wrap(err, "list course enrollments")
	}
	return &CourseEnrollments{
		Enrollments: es,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			Total:       total,
		},
	}, nil
}

// owned loads an enrollment of the user; someone else's is reported as missing.
func (s *Service) owned(ctx context.Context, enrollmentID, userID string) (*models.Enrollment, error) {
	if err := apperr.CheckID("enrollment", enrollmentID); err != nil {
		return nil, err
	}
	e, err := s.store.GetEnrollment(ctx, enrollmentID)
	if err != nil {
		return nil, lookupErr(err, "enrollment")
	}
	if e.UserID != userID {
		return nil, apperr.NotFound("enrollment not found")
	}
	return e, nil
}

func lookupErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return errors.Wrapf(err, "%s store", what)
}
