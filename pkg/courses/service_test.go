package courses

import (
	"bytes"
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/pkg/apperr"
	"learnhub/pkg/documents"
	"learnhub/pkg/kfka"
	"learnhub/pkg/models"
	"learnhub/pkg/storage"
	"learnhub/pkg/storage/inmem"
)

type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
}

func (c *memCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

func (c *memCache) DeletePattern(_ context.Context, pattern string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for k := range c.data {
		if strings.HasPrefix(k, prefix) {
			delete(c.data, k)
		}
	}
}

func (c *memCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

type recorder struct {
	events []kfka.Event
}

func (r *recorder) Publish(_ context.Context, e kfka.Event) error {
	r.events = append(r.events, e)
	return nil
}

type memMedia struct {
	objects map[string][]byte
}

func (m *memMedia) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.objects[key] = b
	return nil
}

func (m *memMedia) Get(_ context.Context, key string) (*documents.Object, error) {
	b, ok := m.objects[key]
	if !ok {
		return nil, documents.ErrNotFound
	}
	return &documents.Object{Body: io.NopCloser(bytes.NewReader(b)), Size: int64(len(b))}, nil
}

type fixture struct {
	svc    *Service
	db     *inmem.DB
	cache  *memCache
	events *recorder
	media  *memMedia
}

func newFixture() *fixture {
	f := &fixture{
		db:     inmem.Open(),
		cache:  newMemCache(),
		events: &recorder{},
		media:  &memMedia{objects: map[string][]byte{}},
	}
	f.svc = NewService(Deps{
		Store:  f.db,
		Cache:  f.cache,
		Events: f.events,
		Media:  f.media,
		Log:    log.New(io.Discard, "", 0),
	})
	return f
}

func price(p float64) *float64 { return &p }
func order(o int) *int         { return &o }

func courseInput(title string) CourseInput {
	return CourseInput{
		Title:       title,
		Description: "A course about " + title,
		Instructor:  "Ada",
		Category:    "Web Development",
		Tags:        []string{"go"},
		Price:       price(49),
		Modules: []ModuleInput{{
			Title: "Basics",
			Lessons: []LessonInput{
				{Title: "Intro", VideoURL: "https://example.com/a.mp4", Duration: 300},
				{Title: "Setup", VideoURL: "https://example.com/b.mp4", Duration: 600},
			},
		}},
	}
}

func (f *fixture) course(t *testing.T) *models.Course {
	t.Helper()
	c, err := f.svc.CreateCourse(context.Background(), courseInput("Go"))
	require.NoError(t, err)
	return c
}

func TestCreateCourseDefaults(t *testing.T) {
	f := newFixture()
	c := f.course(t)

	assert.True(t, c.IsPublished)
	assert.Equal(t, 1, c.BatchNumber)
	require.Len(t, c.Modules, 1)
	assert.Equal(t, 1, c.Modules[0].Order)
	assert.Equal(t, []int{1, 2}, []int{c.Modules[0].Lessons[0].Order, c.Modules[0].Lessons[1].Order})
	assert.Equal(t, 2, c.TotalLessons())
	assert.Equal(t, 900, c.TotalDuration())
}

func TestCreateCourseRejectsBadInput(t *testing.T) {
	f := newFixture()
	in := courseInput("Go")
	in.Category = "Cooking"
	_, err := f.svc.CreateCourse(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	in = courseInput("Go")
	in.Modules[0].Lessons[0].Duration = 0
	_, err = f.svc.CreateCourse(context.Background(), in)
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestAddModuleOrder(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	in := courseInput("Empty")
	in.Modules = nil
	c, err := f.svc.CreateCourse(ctx, in)
	require.NoError(t, err)

	m, err := f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "First"})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Order)

	_, err = f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "Fifth", Order: order(5)})
	require.NoError(t, err)
	m, err = f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "Next"})
	require.NoError(t, err)
	assert.Equal(t, 6, m.Order)

	got, err := f.svc.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Fifth", "Next"}, moduleTitles(got.Modules))
}

func TestUpdateModule(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	title := "Fundamentals"

	m, err := f.svc.UpdateModule(ctx, c.ID, c.Modules[0].ID, ModulePatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Fundamentals", m.Title)
	assert.Len(t, m.Lessons, 2)

	_, err = f.svc.UpdateModule(ctx, c.ID, uuid.NewString(), ModulePatch{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestReorderModulesIgnoresUnknownIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	b, err := f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "Advanced"})
	require.NoError(t, err)
	x, err := f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "Extra"})
	require.NoError(t, err)

	modules, err := f.svc.ReorderModules(ctx, c.ID, []OrderItem{
		{ID: c.Modules[0].ID, Order: 10},
		{ID: b.ID, Order: 3},
		{ID: uuid.NewString(), Order: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Advanced", "Extra", "Basics"}, moduleTitles(modules))
	assert.Equal(t, x.Order, modules[1].Order)
}

func TestReorderLessonsStable(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	mod := c.Modules[0]

	lessons, err := f.svc.ReorderLessons(ctx, c.ID, mod.ID, []OrderItem{
		{ID: mod.Lessons[0].ID, Order: 2},
		{ID: mod.Lessons[1].ID, Order: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, "Intro", lessons[0].Title)
	assert.Equal(t, "Setup", lessons[1].Title)
}

func TestDeleteModule(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)

	assert.True(t, apperr.Is(f.svc.DeleteModule(ctx, c.ID, uuid.NewString()), apperr.KindNotFound))
	assert.True(t, apperr.Is(f.svc.DeleteModule(ctx, c.ID, "bad"), apperr.KindInvalidInput))

	require.NoError(t, f.svc.DeleteModule(ctx, c.ID, c.Modules[0].ID))
	got, err := f.svc.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Modules)
	assert.Equal(t, 0, got.TotalLessons())
}

func TestDeleteReferencedModuleConflicts(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	require.NoError(t, f.db.CreateAssignment(ctx, &models.Assignment{
		ID:       uuid.NewString(),
		CourseID: c.ID,
		ModuleID: c.Modules[0].ID,
		Title:    "Homework",
	}))

	err := f.svc.DeleteModule(ctx, c.ID, c.Modules[0].ID)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	got, _ := f.svc.GetCourse(ctx, c.ID)
	assert.Len(t, got.Modules, 1)
}

func TestLessonEditing(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	modID := c.Modules[0].ID

	l, err := f.svc.AddLesson(ctx, c.ID, modID, LessonInput{Title: "Testing", VideoURL: "https://example.com/c.mp4", Duration: 120})
	require.NoError(t, err)
	assert.Equal(t, 3, l.Order)

	zero := 0
	_, err = f.svc.UpdateLesson(ctx, c.ID, modID, l.ID, LessonPatch{Duration: &zero})
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	dur := 240
	l, err = f.svc.UpdateLesson(ctx, c.ID, modID, l.ID, LessonPatch{Duration: &dur})
	require.NoError(t, err)
	assert.Equal(t, 240, l.Duration)

	require.NoError(t, f.svc.DeleteLesson(ctx, c.ID, modID, c.Modules[0].Lessons[0].ID))
	assert.True(t, apperr.Is(f.svc.DeleteLesson(ctx, c.ID, modID, c.Modules[0].Lessons[0].ID), apperr.KindNotFound))

	got, err := f.svc.GetCourse(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.TotalLessons())
	assert.Equal(t, 840, got.TotalDuration())

	require.Len(t, f.events.events, 2)
	assert.Equal(t, kfka.TopicLessonAdded, f.events.events[0].Topic)
	assert.Equal(t, kfka.TopicLessonUpdated, f.events.events[1].Topic)
}

func TestAddLessonUnknownModule(t *testing.T) {
	f := newFixture()
	c := f.course(t)
	_, err := f.svc.AddLesson(context.Background(), c.ID, uuid.NewString(), LessonInput{Title: "x", VideoURL: "v", Duration: 1})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateCourseKeepsSuppliedIDs(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)

	in := courseInput("Go, revised")
	in.Modules[0].ID = c.Modules[0].ID
	in.Modules[0].Lessons[0].ID = c.Modules[0].Lessons[0].ID
	updated, err := f.svc.UpdateCourse(ctx, c.ID, in)
	require.NoError(t, err)

	assert.Equal(t, "Go, revised", updated.Title)
	assert.Equal(t, c.Modules[0].ID, updated.Modules[0].ID)
	assert.Equal(t, c.Modules[0].Lessons[0].ID, updated.Modules[0].Lessons[0].ID)
	assert.NotEqual(t, c.Modules[0].Lessons[1].ID, updated.Modules[0].Lessons[1].ID)
	assert.Equal(t, c.CreatedAt, updated.CreatedAt)
}

func TestDeleteCourseCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	require.NoError(t, f.db.CreateEnrollment(ctx, &models.Enrollment{ID: uuid.NewString(), UserID: "u1", CourseID: c.ID}))

	require.NoError(t, f.svc.DeleteCourse(ctx, c.ID))

	_, err := f.svc.GetCourse(ctx, c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	_, err = f.db.FindEnrollment(ctx, "u1", c.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.True(t, apperr.Is(f.svc.DeleteCourse(ctx, c.ID), apperr.KindNotFound))
}

func TestListCoursesCaching(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)

	list, err := f.svc.ListCourses(ctx, storage.CourseQuery{})
	require.NoError(t, err)
	assert.False(t, list.Cached)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, 2, list.Courses[0].TotalLessons)
	assert.Equal(t, Pagination{CurrentPage: 1, TotalPages: 1, TotalCourses: 1}, list.Pagination)
	assert.Equal(t, 1, f.cache.len())

	list, err = f.svc.ListCourses(ctx, storage.CourseQuery{})
	require.NoError(t, err)
	assert.True(t, list.Cached)

	_, err = f.svc.AddModule(ctx, c.ID, ModuleInput{Title: "More"})
	require.NoError(t, err)
	assert.Equal(t, 0, f.cache.len())

	list, err = f.svc.ListCourses(ctx, storage.CourseQuery{})
	require.NoError(t, err)
	assert.False(t, list.Cached)
	assert.Len(t, list.Courses[0].Modules, 2)
}

func TestListCoursesPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		_, err := f.svc.CreateCourse(ctx, courseInput(title))
		require.NoError(t, err)
	}

	list, err := f.svc.ListCourses(ctx, storage.CourseQuery{Page: 2, Limit: 2, SortBy: "title", Order: "asc"})
	require.NoError(t, err)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "Gamma", list.Courses[0].Title)
	assert.Equal(t, Pagination{CurrentPage: 2, TotalPages: 2, TotalCourses: 3, HasPrev: true}, list.Pagination)
}

func TestMalformedCourseID(t *testing.T) {
	f := newFixture()
	_, err := f.svc.GetCourse(context.Background(), "123")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))
}

func TestAttachLessonMedia(t *testing.T) {
	ctx := context.Background()
	f := newFixture()
	c := f.course(t)
	mod := c.Modules[0]
	lesson := mod.Lessons[0]

	l, err := f.svc.AttachLessonMedia(ctx, c.ID, mod.ID, lesson.ID, "../intro.mp4", strings.NewReader("video"), 5, "video/mp4")
	require.NoError(t, err)
	key := c.ID + "/" + lesson.ID + "/intro.mp4"
	assert.Equal(t, MediaPath+key, l.VideoURL)

	obj, err := f.svc.OpenMedia(ctx, key)
	require.NoError(t, err)
	body, _ := io.ReadAll(obj.Body)
	assert.Equal(t, "video", string(body))

	_, err = f.svc.OpenMedia(ctx, "missing")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func moduleTitles(ms []models.Module) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Title)
	}
	return out
}
