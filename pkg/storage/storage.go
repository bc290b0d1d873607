package storage

import (
	"context"
	"errors"
	"time"

	"learnhub/pkg/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

// CourseQuery is the listing filter. Its JSON form is also the cache key, so field
// order and tags matter.
type CourseQuery struct {
	Page     int      `json:"page,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Search   string   `json:"search,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	SortBy   string   `json:"sortBy,omitempty"`
	Order    string   `json:"order,omitempty"`
	MinPrice *float64 `json:"minPrice,omitempty"`
	MaxPrice *float64 `json:"maxPrice,omitempty"`
}

type Page struct {
	Page  int
	Limit int
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

type CourseStore interface {
	CreateCourse(ctx context.Context, c *models.Course) error
	GetCourse(ctx context.Context, id string) (*models.Course, error)
	SaveCourse(ctx context.Context, c *models.Course) error
	// DeleteCourse removes the course with its enrollments, assignments and quizzes
	// in one write.
	DeleteCourse(ctx context.Context, id string) error
	ListCourses(ctx context.Context, q CourseQuery) ([]models.Course, int64, error)
}

type EnrollmentStore interface {
	// CreateEnrollment stores e and bumps the course's totalEnrollments in one write.
	// ErrNotFound when the course does not exist.
	CreateEnrollment(ctx context.Context, e *models.Enrollment) error
	GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error)
	FindEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	SaveEnrollment(ctx context.Context, e *models.Enrollment) error
	ListEnrollmentsByUser(ctx context.Context, userID string) ([]models.Enrollment, error)
	ListEnrollmentsByCourse(ctx context.Context, courseID string, p Page) ([]models.Enrollment, int64, error)
}

type AssessmentStore interface {
	CreateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id string) (*models.Assignment, error)
	SaveAssignment(ctx context.Context, a *models.Assignment) error
	CreateQuiz(ctx context.Context, q *models.Quiz) error
	GetQuiz(ctx context.Context, id string) (*models.Quiz, error)
	SaveQuiz(ctx context.Context, q *models.Quiz) error
	// CountModuleReferences counts assignments and quizzes pointing at the module.
	CountModuleReferences(ctx context.Context, courseID, moduleID string) (int64, error)
}

type MonthlyCount struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Count int64 `json:"count"`
}

type CategoryStats struct {
	Category         string  `json:"category"`
	Count            int64   `json:"count"`
	AvgPrice         float64 `json:"avgPrice"`
	TotalEnrollments int64   `json:"totalEnrollments"`
}

type AnalyticsStore interface {
	CountCourses(ctx context.Context) (int64, error)
	CountEnrollments(ctx context.Context) (int64, error)
	CountStudents(ctx context.Context) (int64, error)
	EnrollmentTrends(ctx context.Context, from, to *time.Time) ([]MonthlyCount, error)
	CourseCategoryStats(ctx context.Context) ([]CategoryStats, error)
}

// Store is implemented by both the postgres and the in-memory backends.
type Store interface {
	CourseStore
	EnrollmentStore
	AssessmentStore
	AnalyticsStore
}
