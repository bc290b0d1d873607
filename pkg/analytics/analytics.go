package analytics

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"learnhub/pkg/apperr"
	"learnhub/pkg/respond"
	"learnhub/pkg/storage"
)

type Overview struct {
	TotalCourses     int64 `json:"totalCourses"`
	TotalEnrollments int64 `json:"totalEnrollments"`
	TotalStudents    int64 `json:"totalStudents"`
}

type Report struct {
	Overview          Overview                `json:"overview"`
	EnrollmentTrends  []storage.MonthlyCount  `json:"enrollmentTrends"`
	CoursesByCategory []storage.CategoryStats `json:"coursesByCategory"`
}

type Service struct {
	store storage.AnalyticsStore
}

func NewService(store storage.AnalyticsStore) *Service {
	return &Service{store: store}
}

// Report runs the aggregate queries concurrently. from and to bound the trend
// series only.
func (s *Service) Report(ctx context.Context, from, to *time.Time) (*Report, error) {
	if from != nil && to != nil && to.Before(*from) {
		return nil, apperr.InvalidInput("endDate must not be before startDate")
	}
	var r Report
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		r.Overview.TotalCourses, err = s.store.CountCourses(ctx)
		return errors.Wrap(err, "count courses")
	})
	g.Go(func() (err error) {
		r.Overview.TotalEnrollments, err = s.store.CountEnrollments(ctx)
		return errors.Wrap(err, "count enrollments")
	})
	g.Go(func() (err error) {
		r.Overview.TotalStudents, err = s.store.CountStudents(ctx)
		return errors.Wrap(err, "count students")
	})
	g.Go(func() (err error) {
		r.EnrollmentTrends, err = s.store.EnrollmentTrends(ctx, from, to)
		return errors.Wrap(err, "enrollment trends")
	})
	g.Go(func() (err error) {
		r.CoursesByCategory, err = s.store.CourseCategoryStats(ctx)
		return errors.Wrap(err, "category stats")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if r.EnrollmentTrends == nil {
		r.EnrollmentTrends = []storage.MonthlyCount{}
	}
	if r.CoursesByCategory == nil {
		r.CoursesByCategory = []storage.CategoryStats{}
	}
	return &r, nil
}

type Handler struct {
	svc *Service
	log *log.Logger
}

func NewHandler(svc *Service, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	from, err := dateParam(r, "startDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	to, err := dateParam(r, "endDate")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	report, err := h.svc.Report(r.Context(), from, to)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, report)
}

// dateParam accepts RFC 3339 timestamps or plain dates.
func dateParam(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, apperr.InvalidInput("%s must be a date", name)
}
