package enrollments

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/pkg/apperr"
	"learnhub/pkg/models"
	"learnhub/pkg/storage/inmem"
)

type fixture struct {
	svc *Service
	db  *inmem.DB
}

func newFixture() *fixture {
	db := inmem.Open()
	return &fixture{db: db, svc: NewService(db, nil, nil, log.New(io.Discard, "", 0))}
}

// course stores a published course with one module holding the given number of lessons.
func (f *fixture) course(t *testing.T, lessons int) *models.Course {
	t.Helper()
	m := models.Module{ID: uuid.NewString(), Title: "Basics", Order: 1}
	for i := 0; i < lessons; i++ {
		m.Lessons = append(m.Lessons, models.Lesson{ID: uuid.NewString(), Title: "L", Duration: 60, Order: i + 1})
	}
	c := &models.Course{
		ID:          uuid.NewString(),
		Title:       "Go",
		Category:    "Other",
		IsPublished: true,
		Modules:     []models.Module{m},
	}
	require.NoError(t, f.db.CreateCourse(context.Background(), c))
	return c
}

// dropLesson deletes a lesson straight in the store, the way the editor would.
func (f *fixture) dropLesson(t *testing.T, courseID, lessonID string) {
	t.Helper()
	ctx := context.Background()
	c, err := f.db.GetCourse(ctx, courseID)
	require.NoError(t, err)
	m := &c.Modules[0]
	i := m.FindLesson(lessonID)
	require.GreaterOrEqual(t, i, 0)
	m.Lessons = append(m.Lessons[:i], m.Lessons[i+1:]...)
	require.NoError(t, f.db.SaveCourse(ctx, c))
}

func TestEnroll(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 2)

	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, e.Progress)
	assert.Empty(t, e.CompletedLessons)

	_, err = f.svc.Enroll(ctx, c.ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	got, err := f.db.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalEnrollments)

	_, err = f.svc.Enroll(ctx, uuid.NewString(), "u1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestMarkLessonCompleteLiveRecompute(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 2)
	mod := c.Modules[0]
	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)

	p, err := f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[0].ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, Progress{Progress: 50, CompletedLessons: 1}, *p)

	f.dropLesson(t, c.ID, mod.Lessons[1].ID)

	p, err = f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[0].ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, Progress{Progress: 100, CompletedLessons: 1}, *p)

	stored, err := f.db.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, stored.Progress)
}

func TestMarkLessonCompleteIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 3)
	mod := c.Modules[0]
	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[1].ID, "u1")
		require.NoError(t, err)
		assert.Equal(t, Progress{Progress: 33, CompletedLessons: 1}, *p)
	}
	stored, err := f.db.GetEnrollment(ctx, e.ID)
	require.NoError(t, err)
	assert.Len(t, stored.CompletedLessons, 1)
}

func TestProgressCanExceedHundred(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 3)
	mod := c.Modules[0]
	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)

	for _, l := range mod.Lessons[:2] {
		_, err := f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, l.ID, "u1")
		require.NoError(t, err)
	}
	f.dropLesson(t, c.ID, mod.Lessons[0].ID)
	f.dropLesson(t, c.ID, mod.Lessons[1].ID)

	p, err := f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[2].ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, Progress{Progress: 300, CompletedLessons: 3}, *p)
}

func TestMarkLessonCompleteNotFound(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 1)
	mod := c.Modules[0]
	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)

	_, err = f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[0].ID, "u2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "someone else's enrollment")

	_, err = f.svc.MarkLessonComplete(ctx, uuid.NewString(), mod.ID, mod.Lessons[0].ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, uuid.NewString(), "u1")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.MarkLessonComplete(ctx, e.ID, "nope", mod.Lessons[0].ID, "u1")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestMarkLessonCompleteEmptyCourse(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 1)
	mod := c.Modules[0]
	e, err := f.svc.Enroll(ctx, c.ID, "u1")
	require.NoError(t, err)
	_, err = f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[0].ID, "u1")
	require.NoError(t, err)

	f.dropLesson(t, c.ID, mod.Lessons[0].ID)
	p, err := f.svc.MarkLessonComplete(ctx, e.ID, mod.ID, mod.Lessons[0].ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Progress)
}

func TestDashboardAndDetails(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	first := f.course(t, 1)
	second := f.course(t, 2)

	clock := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { clock = clock.Add(time.Hour); return clock }

	e1, err := f.svc.Enroll(ctx, first.ID, "u1")
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, second.ID, "u1")
	require.NoError(t, err)
	_, err = f.svc.Enroll(ctx, second.ID, "u2")
	require.NoError(t, err)

	d, err := f.svc.Dashboard(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.TotalCourses)
	require.Len(t, d.Enrollments, 2)
	assert.Equal(t, second.ID, d.Enrollments[0].CourseID)
	require.NotNil(t, d.Enrollments[0].Course)
	assert.Equal(t, 120, d.Enrollments[0].Course.TotalDuration)

	details, err := f.svc.Details(ctx, e1.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, details.Course.ID)
	assert.Equal(t, 1, details.Course.TotalLessons)
	assert.True(t, details.LastAccessedAt.After(e1.LastAccessedAt))

	_, err = f.svc.Details(ctx, e1.ID, "u2")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCourseEnrollmentsPaging(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t, 1)
	for i := 0; i < 3; i++ {
		_, err := f.svc.Enroll(ctx, c.ID, uuid.NewString())
		require.NoError(t, err)
	}

	res, err := f.svc.CourseEnrollments(ctx, c.ID, 2, 2)
	require.NoError(t, err)
	assert.Len(t, res.Enrollments, 1)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, Total: 3}, res.Pagination)

	res, err = f.svc.CourseEnrollments(ctx, c.ID, 0, 0)
	require.NoError(t, err)
	assert.Len(t, res.Enrollments, 3)
	assert.Equal(t, 1, res.Pagination.TotalPages)
}
