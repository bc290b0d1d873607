package inmem

import (
	"context"
	"sort"
	"strings"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

func (db *DB) CreateCourse(_ context.Context, c *models.Course) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.courses[c.ID]; ok {
		return storage.ErrDuplicate
	}
	cp := c.Clone()
	db.courses[c.ID] = &cp
	return nil
}

func (db *DB) GetCourse(_ context.Context, id string) (*models.Course, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	c, ok := db.courses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := c.Clone()
	return &cp, nil
}

func (db *DB) SaveCourse(_ context.Context, c *models.Course) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.courses[c.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := c.Clone()
	db.courses[c.ID] = &cp
	return nil
}

func (db *DB) DeleteCourse(_ context.Context, id string) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.courses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(db.courses, id)
	for eid, e := range db.enrollments {
		if e.CourseID == id {
			delete(db.enrollments, eid)
		}
	}
	for aid, a := range db.assignments {
		if a.CourseID == id {
			delete(db.assignments, aid)
		}
	}
	for qid, q := range db.quizzes {
		if q.CourseID == id {
			delete(db.quizzes, qid)
		}
	}
	return nil
}

func (db *DB) ListCourses(_ context.Context, q storage.CourseQuery) ([]models.Course, int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	matched := make([]models.Course, 0, len(db.courses))
	for _, c := range db.courses {
		if matchCourse(c, q) {
			matched = append(matched, c.Clone())
		}
	}
	sortCourses(matched, q.SortBy, q.Order)

	total := int64(len(matched))
	p := storage.Page{Page: q.Page, Limit: q.Limit}
	start := p.Offset()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + q.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func matchCourse(c *models.Course, q storage.CourseQuery) bool {
	if !c.IsPublished {
		return false
	}
	if q.Search != "" {
		s := strings.ToLower(q.Search)
		if !strings.Contains(strings.ToLower(c.Title), s) && !strings.Contains(strings.ToLower(c.Description), s) {
			return false
		}
	}
	if q.Category != "" && c.Category != q.Category {
		return false
	}
	if len(q.Tags) > 0 && !hasAnyTag(c.Tags, q.Tags) {
		return false
	}
	if q.MinPrice != nil && c.Price < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && c.Price > *q.MaxPrice {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

func sortCourses(cs []models.Course, sortBy, order string) {
	less := func(a, b models.Course) bool {
		switch sortBy {
		case "price":
			return a.Price < b.Price
		case "title":
			return a.Title < b.Title
		case "totalEnrollments":
			return a.TotalEnrollments < b.TotalEnrollments
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}
	// ties keep id order so pages do not overlap
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
	sort.SliceStable(cs, func(i, j int) bool {
		if order == "asc" {
			return less(cs[i], cs[j])
		}
		return less(cs[j], cs[i])
	})
}
