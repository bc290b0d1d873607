package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

// Set LEARNHUB_TEST_DSN to run these against a real database, e.g.
// "host=localhost user=postgres password=postgres dbname=learnhub_test port=5432 sslmode=disable".
func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("LEARNHUB_TEST_DSN")
	if dsn == "" {
		t.Skip("LEARNHUB_TEST_DSN not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	s := New(db)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// seedCourse stores a published course in its own category so listings stay
// isolated from other rows in the database.
func seedCourse(t *testing.T, s *Store, tags ...string) *models.Course {
	t.Helper()
	c := &models.Course{
		ID:          uuid.NewString(),
		Title:       "Go in practice",
		Category:    uuid.NewString(),
		Tags:        tags,
		Price:       20,
		IsPublished: true,
		Modules:     []models.Module{{ID: uuid.NewString(), Title: "Basics"}},
	}
	require.NoError(t, s.CreateCourse(context.Background(), c))
	t.Cleanup(func() { _ = s.DeleteCourse(context.Background(), c.ID) })
	return c
}

func enrollment(courseID string) *models.Enrollment {
	now := time.Now().UTC()
	return &models.Enrollment{
		ID:             uuid.NewString(),
		UserID:         uuid.NewString(),
		CourseID:       courseID,
		EnrolledAt:     now,
		LastAccessedAt: now,
	}
}

func TestCreateCourseDuplicate(t *testing.T) {
	s := openTestStore(t)
	c := seedCourse(t, s)

	dup := *c
	assert.ErrorIs(t, s.CreateCourse(context.Background(), &dup), storage.ErrDuplicate)
}

func TestSaveCourseKeepsCounterAndCreatedAt(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCourse(t, s)
	require.NoError(t, s.CreateEnrollment(ctx, enrollment(c.ID)))

	stored, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	createdAt := stored.CreatedAt

	stored.Title = "Go, revised"
	stored.TotalEnrollments = 0
	stored.CreatedAt = time.Time{}
	require.NoError(t, s.SaveCourse(ctx, stored))

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Go, revised", got.Title)
	assert.Equal(t, 1, got.TotalEnrollments)
	assert.True(t, createdAt.Equal(got.CreatedAt))

	missing := *got
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, s.SaveCourse(ctx, &missing), storage.ErrNotFound)
}

func TestListCoursesByTags(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	tagged := seedCourse(t, s, "go", "backend")
	other := seedCourse(t, s, "design")
	other.Category = tagged.Category
	require.NoError(t, s.SaveCourse(ctx, other))

	got, total, err := s.ListCourses(ctx, storage.CourseQuery{
		Page: 1, Limit: 10, Category: tagged.Category, Tags: []string{"backend", "ops"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, got, 1)
	assert.Equal(t, tagged.ID, got[0].ID)

	_, total, err = s.ListCourses(ctx, storage.CourseQuery{Page: 1, Limit: 10, Category: tagged.Category})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestCreateEnrollmentBumpsCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCourse(t, s)

	first := enrollment(c.ID)
	require.NoError(t, s.CreateEnrollment(ctx, first))
	require.NoError(t, s.CreateEnrollment(ctx, enrollment(c.ID)))

	again := enrollment(c.ID)
	again.UserID = first.UserID
	assert.ErrorIs(t, s.CreateEnrollment(ctx, again), storage.ErrDuplicate)

	got, err := s.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalEnrollments)
}

func TestCreateEnrollmentMissingCourseLeavesNoRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	e := enrollment(uuid.NewString())

	assert.ErrorIs(t, s.CreateEnrollment(ctx, e), storage.ErrNotFound)
	_, err := s.GetEnrollment(ctx, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteCourseRemovesDependents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	c := seedCourse(t, s)
	moduleID := c.Modules[0].ID

	e := enrollment(c.ID)
	require.NoError(t, s.CreateEnrollment(ctx, e))
	a := &models.Assignment{ID: uuid.NewString(), CourseID: c.ID, ModuleID: moduleID, Title: "Write a CLI"}
	require.NoError(t, s.CreateAssignment(ctx, a))
	q := &models.Quiz{ID: uuid.NewString(), CourseID: c.ID, ModuleID: moduleID, Title: "Basics check"}
	require.NoError(t, s.CreateQuiz(ctx, q))

	require.NoError(t, s.DeleteCourse(ctx, c.ID))

	_, err := s.GetCourse(ctx, c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetEnrollment(ctx, e.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetAssignment(ctx, a.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	_, err = s.GetQuiz(ctx, q.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, s.DeleteCourse(ctx, c.ID), storage.ErrNotFound)
}
