package courses

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"math"
	"os"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"learnhub/pkg/apperr"
	"learnhub/pkg/cache"
	"learnhub/pkg/documents"
	"learnhub/pkg/kfka"
	"learnhub/pkg/models"
	"learnhub/pkg/search"
	"learnhub/pkg/storage"
)

const (
	DefaultCacheTTL = 5 * time.Minute
	// MediaPath prefixes the download URL stored on a lesson after an upload.
	MediaPath = "/api/media/"

	cachePrefix  = "courses:"
	cachePattern = "courses:*"
)

type Deps struct {
	Store    storage.Store
	Cache    cache.Cache
	Index    search.Indexer
	Events   kfka.Publisher
	Media    documents.MediaStore
	Log      *log.Logger
	CacheTTL time.Duration
}

// Service owns the course documents: admin CRUD, the module/lesson editor and
// the cached catalog reads. Every write invalidates courses:* and reindexes.
type Service struct {
	store  storage.Store
	cache  cache.Cache
	index  search.Indexer
	events kfka.Publisher
	media  documents.MediaStore
	log    *log.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		store:  d.Store,
		cache:  d.Cache,
		index:  d.Index,
		events: d.Events,
		media:  d.Media,
		log:    d.Log,
		ttl:    d.CacheTTL,
		now:    func() time.Time { return time.Now().UTC() },
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.index == nil {
		s.index = search.Noop{}
	}
	if s.events == nil {
		s.events = kfka.Noop{}
	}
	if s.media == nil {
		s.media = documents.Noop{}
	}
	if s.log == nil {
		s.log = log.New(os.Stderr, "courses: ", log.LstdFlags)
	}
	if s.ttl <= 0 {
		s.ttl = DefaultCacheTTL
	}
	return s
}

func (s *Service) CreateCourse(ctx context.Context, in CourseInput) (*models.Course, error) {
	if err := checkCourse(in); err != nil {
		return nil, err
	}
	modules, err := modulesFromInput(in.Modules)
	if err != nil {
		return nil, err
	}
	now := s.now()
	c := &models.Course{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	applyCourseInput(c, in, modules, now)
	if err := s.store.CreateCourse(ctx, c); err != nil {
		return nil, errors.Wrap(err, "create course")
	}
	s.changed(ctx, c)
	return c, nil
}

// UpdateCourse replaces the course content. Module and lesson ids present in the
// payload are kept so existing completion records still resolve.
func (s *Service) UpdateCourse(ctx context.Context, id string, in CourseInput) (*models.Course, error) {
	if err := checkCourse(in); err != nil {
		return nil, err
	}
	modules, err := modulesFromInput(in.Modules)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(c *models.Course) error {
		applyCourseInput(c, in, modules, s.now())
		return nil
	})
}

func applyCourseInput(c *models.Course, in CourseInput, modules []models.Module, now time.Time) {
	c.Title = strings.TrimSpace(in.Title)
	c.Description = in.Description
	c.Instructor = in.Instructor
	c.Category = in.Category
	c.Tags = append([]string{}, in.Tags...)
	c.Price = *in.Price
	c.Thumbnail = in.Thumbnail
	c.BatchNumber = in.BatchNumber
	if c.BatchNumber == 0 {
		c.BatchNumber = 1
	}
	c.BatchStartDate = now
	if in.BatchStartDate != nil {
		c.BatchStartDate = in.BatchStartDate.UTC()
	}
	c.IsPublished = true
	if in.IsPublished != nil {
		c.IsPublished = *in.IsPublished
	}
	c.Modules = modules
}

// DeleteCourse removes the course with its enrollments, assignments and quizzes.
func (s *Service) DeleteCourse(ctx context.Context, id string) error {
	if _, err := s.load(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteCourse(ctx, id); err != nil {
		return lookupErr(err, "course")
	}
	s.cache.DeletePattern(ctx, cachePattern)
	if err := s.index.DeleteCourse(ctx, id); err != nil {
		s.log.Println("search:", err)
	}
	return nil
}

func (s *Service) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	return s.load(ctx, id)
}

type Pagination struct {
	CurrentPage  int   `json:"currentPage"`
	TotalPages   int   `json:"totalPages"`
	TotalCourses int64 `json:"totalCourses"`
	HasNext      bool  `json:"hasNext"`
	HasPrev      bool  `json:"hasPrev"`
}

type CourseList struct {
	Courses    []models.CourseView `json:"courses"`
	Pagination Pagination          `json:"pagination"`
	Cached     bool                `json:"cached,omitempty"`
}

var sortFields = map[string]bool{
	"createdAt":        true,
	"price":            true,
	"title":            true,
	"totalEnrollments": true,
}

func normalizeQuery(q storage.CourseQuery) storage.CourseQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	if !sortFields[q.SortBy] {
		q.SortBy = "createdAt"
	}
	if q.Order != "asc" {
		q.Order = "desc"
	}
	return q
}

// ListCourses serves published courses, from the cache when the same query was
// answered within the TTL.
func (s *Service) ListCourses(ctx context.Context, q storage.CourseQuery) (*CourseList, error) {
	for _, p := range []*float64{q.MinPrice, q.MaxPrice} {
		if p != nil && (math.IsNaN(*p) || math.IsInf(*p, 0)) {
			return nil, apperr.InvalidInput("price bounds must be finite numbers")
		}
	}
	q = normalizeQuery(q)
	rawKey, err := json.Marshal(q)
	if err != nil {
		return nil, errors.Wrap(err, "build cache key")
	}
	key := cachePrefix + string(rawKey)

	var list CourseList
	if cache.GetJSON(ctx, s.cache, key, &list) {
		list.Cached = true
		return &list, nil
	}

	courses, total, err := s.store.ListCourses(ctx, q)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	totalPages := int(math.Ceil(float64(total) / float64(q.Limit)))
	list = CourseList{
		Courses: make([]models.CourseView, 0, len(courses)),
		Pagination: Pagination{
			CurrentPage:  q.Page,
			TotalPages:   totalPages,
			TotalCourses: total,
			HasNext:      q.Page < totalPages,
			HasPrev:      q.Page > 1,
		},
	}
	for _, c := range courses {
		list.Courses = append(list.Courses, c.View())
	}
	cache.SetJSON(ctx, s.cache, key, list, s.ttl)
	return &list, nil
}

func (s *Service) SearchCourses(ctx context.Context, query string, deep bool) ([]map[string]interface{}, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperr.InvalidInput("search query is required")
	}
	res, err := s.index.SearchCourses(ctx, query, deep)
	return res, errors.Wrap(err, "search courses")
}

func (s *Service) AddModule(ctx context.Context, courseID string, in ModuleInput) (*models.Module, error) {
	var added models.Module
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		order := nextOrder(c.Modules, func(m models.Module) int { return m.Order })
		m, err := moduleFromInput(in, order, false)
		if err != nil {
			return err
		}
		c.Modules = append(c.Modules, m)
		added = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &added, nil
}

func (s *Service) UpdateModule(ctx context.Context, courseID, moduleID string, p ModulePatch) (*models.Module, error) {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return nil, err
	}
	var updated models.Module
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		i := c.FindModule(moduleID)
		if i < 0 {
			return apperr.NotFound("module not found")
		}
		m := &c.Modules[i]
		if p.Title != nil {
			if strings.TrimSpace(*p.Title) == "" {
				return apperr.InvalidInput("module title is required")
			}
			m.Title = strings.TrimSpace(*p.Title)
		}
		if p.Description != nil {
			m.Description = *p.Description
		}
		if p.Order != nil {
			m.Order = *p.Order
		}
		updated = *m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteModule drops the module and its lessons. A module still referenced by an
// assignment or quiz is a conflict. Completion records are left alone.
func (s *Service) DeleteModule(ctx context.Context, courseID, moduleID string) error {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		i := c.FindModule(moduleID)
		if i < 0 {
			return apperr.NotFound("module not found")
		}
		refs, err := s.store.CountModuleReferences(ctx, c.ID, moduleID)
		if err != nil {
			return errors.Wrap(err, "count module references")
		}
		if refs > 0 {
			return apperr.Conflict("module is referenced by %d assignments or quizzes", refs)
		}
		c.Modules = append(c.Modules[:i], c.Modules[i+1:]...)
		return nil
	})
	return err
}

// ReorderModules applies the orders whose id matches a module, ignores the rest
// and keeps the modules sorted by order.
func (s *Service) ReorderModules(ctx context.Context, courseID string, items []OrderItem) ([]models.Module, error) {
	c, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		for _, it := range items {
			if i := c.FindModule(it.ID); i >= 0 {
				c.Modules[i].Order = it.Order
			}
		}
		sort.SliceStable(c.Modules, func(i, j int) bool { return c.Modules[i].Order < c.Modules[j].Order })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c.Modules, nil
}

func (s *Service) AddLesson(ctx context.Context, courseID, moduleID string, in LessonInput) (*models.Lesson, error) {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return nil, err
	}
	var added models.Lesson
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		mi := c.FindModule(moduleID)
		if mi < 0 {
			return apperr.NotFound("module not found")
		}
		m := &c.Modules[mi]
		order := nextOrder(m.Lessons, func(l models.Lesson) int { return l.Order })
		l, err := lessonFromInput(in, uuid.NewString(), order)
		if err != nil {
			return err
		}
		m.Lessons = append(m.Lessons, l)
		added = l
		return nil
	})
	if err != nil {
		return nil, err
	}
	kfka.Notify(ctx, s.events, s.log, kfka.Event{
		Topic:    kfka.TopicLessonAdded,
		Type:     "lesson_added",
		CourseID: courseID,
		ModuleID: moduleID,
		LessonID: added.ID,
		Title:    added.Title,
	})
	return &added, nil
}

func (s *Service) UpdateLesson(ctx context.Context, courseID, moduleID, lessonID string, p LessonPatch) (*models.Lesson, error) {
	updated, err := s.editLesson(ctx, courseID, moduleID, lessonID, func(l *models.Lesson) error {
		if p.Title != nil {
			l.Title = strings.TrimSpace(*p.Title)
		}
		if p.VideoURL != nil {
			l.VideoURL = *p.VideoURL
		}
		if p.Duration != nil {
			l.Duration = *p.Duration
		}
		if p.Order != nil {
			l.Order = *p.Order
		}
		return checkLesson(*l)
	})
	if err != nil {
		return nil, err
	}
	kfka.Notify(ctx, s.events, s.log, kfka.Event{
		Topic:    kfka.TopicLessonUpdated,
		Type:     "lesson_updated",
		CourseID: courseID,
		ModuleID: moduleID,
		LessonID: lessonID,
		Title:    updated.Title,
	})
	return updated, nil
}

func (s *Service) DeleteLesson(ctx context.Context, courseID, moduleID, lessonID string) error {
	if err := checkIDs(moduleID, lessonID); err != nil {
		return err
	}
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		mi := c.FindModule(moduleID)
		if mi < 0 {
			return apperr.NotFound("module not found")
		}
		m := &c.Modules[mi]
		li := m.FindLesson(lessonID)
		if li < 0 {
			return apperr.NotFound("lesson not found")
		}
		m.Lessons = append(m.Lessons[:li], m.Lessons[li+1:]...)
		return nil
	})
	return err
}

func (s *Service) ReorderLessons(ctx context.Context, courseID, moduleID string, items []OrderItem) ([]models.Lesson, error) {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return nil, err
	}
	var lessons []models.Lesson
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		mi := c.FindModule(moduleID)
		if mi < 0 {
			return apperr.NotFound("module not found")
		}
		m := &c.Modules[mi]
		for _, it := range items {
			if i := m.FindLesson(it.ID); i >= 0 {
				m.Lessons[i].Order = it.Order
			}
		}
		sort.SliceStable(m.Lessons, func(i, j int) bool { return m.Lessons[i].Order < m.Lessons[j].Order })
		lessons = m.Lessons
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lessons, nil
}

// AttachLessonMedia uploads a file to object storage and points the lesson's
// videoUrl at it.
func (s *Service) AttachLessonMedia(ctx context.Context, courseID, moduleID, lessonID, filename string, body io.Reader, size int64, contentType string) (*models.Lesson, error) {
	c, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := checkIDs(moduleID, lessonID); err != nil {
		return nil, err
	}
	mi := c.FindModule(moduleID)
	if mi < 0 {
		return nil, apperr.NotFound("module not found")
	}
	if c.Modules[mi].FindLesson(lessonID) < 0 {
		return nil, apperr.NotFound("lesson not found")
	}

	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" {
		return nil, apperr.InvalidInput("file name is required")
	}
	key := path.Join(courseID, lessonID, name)
	if err := s.media.Put(ctx, key, body, size, contentType); err != nil {
		return nil, errors.Wrap(err, "store lesson media")
	}
	return s.editLesson(ctx, courseID, moduleID, lessonID, func(l *models.Lesson) error {
		l.VideoURL = MediaPath + key
		return nil
	})
}

func (s *Service) OpenMedia(ctx context.Context, key string) (*documents.Object, error) {
	obj, err := s.media.Get(ctx, key)
	if errors.Is(err, documents.ErrNotFound) || errors.Is(err, documents.ErrUnavailable) {
		return nil, apperr.NotFound("media not found")
	}
	return obj, err
}

func (s *Service) editLesson(ctx context.Context, courseID, moduleID, lessonID string, fn func(l *models.Lesson) error) (*models.Lesson, error) {
	if err := checkIDs(moduleID, lessonID); err != nil {
		return nil, err
	}
	var updated models.Lesson
	_, err := s.mutate(ctx, courseID, func(c *models.Course) error {
		mi := c.FindModule(moduleID)
		if mi < 0 {
			return apperr.NotFound("module not found")
		}
		m := &c.Modules[mi]
		li := m.FindLesson(lessonID)
		if li < 0 {
			return apperr.NotFound("lesson not found")
		}
		if err := fn(&m.Lessons[li]); err != nil {
			return err
		}
		updated = m.Lessons[li]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// mutate loads a private copy of the course, applies fn and saves the whole
// document. Nothing is written when fn fails.
func (s *Service) mutate(ctx context.Context, courseID string, fn func(c *models.Course) error) (*models.Course, error) {
	c, err := s.load(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if err := fn(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = s.now()
	if err := s.store.SaveCourse(ctx, c); err != nil {
		return nil, lookupErr(err, "course")
	}
	s.changed(ctx, c)
	return c, nil
}

func (s *Service) load(ctx context.Context, id string) (*models.Course, error) {
	if err := apperr.CheckID("course", id); err != nil {
		return nil, err
	}
	c, err := s.store.GetCourse(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "course")
	}
	return c, nil
}

func (s *Service) changed(ctx context.Context, c *models.Course) {
	s.cache.DeletePattern(ctx, cachePattern)
	if err := s.index.IndexCourse(ctx, *c); err != nil {
		s.log.Println("search:", err)
	}
}

func checkIDs(moduleID, lessonID string) error {
	if err := apperr.CheckID("module", moduleID); err != nil {
		return err
	}
	return apperr.CheckID("lesson", lessonID)
}

func lookupErr(err error, what string) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound("%s not found", what)
	}
	return errors.Wrapf(err, "%s store", what)
}
