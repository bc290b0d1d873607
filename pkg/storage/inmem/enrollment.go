package inmem

import (
	"context"
	"sort"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

func (db *DB) CreateEnrollment(_ context.Context, e *models.Enrollment) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	course, ok := db.courses[e.CourseID]
	if !ok {
		return storage.ErrNotFound
	}
	for _, ex := range db.enrollments {
		if ex.UserID == e.UserID && ex.CourseID == e.CourseID {
			return storage.ErrDuplicate
		}
	}
	cp := e.Clone()
	db.enrollments[e.ID] = &cp
	course.TotalEnrollments++
	return nil
}

func (db *DB) GetEnrollment(_ context.Context, id string) (*models.Enrollment, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	e, ok := db.enrollments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := e.Clone()
	return &cp, nil
}

func (db *DB) FindEnrollment(_ context.Context, userID, courseID string) (*models.Enrollment, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, e := range db.enrollments {
		if e.UserID == userID && e.CourseID == courseID {
			cp := e.Clone()
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (db *DB) SaveEnrollment(_ context.Context, e *models.Enrollment) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.enrollments[e.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := e.Clone()
	db.enrollments[e.ID] = &cp
	return nil
}

func (db *DB) ListEnrollmentsByUser(_ context.Context, userID string) ([]models.Enrollment, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	out := make([]models.Enrollment, 0)
	for _, e := range db.enrollments {
		if e.UserID == userID {
			out = append(out, e.Clone())
		}
	}
	sortByEnrolledDesc(out)
	return out, nil
}

func (db *DB) ListEnrollmentsByCourse(_ context.Context, courseID string, p storage.Page) ([]models.Enrollment, int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	all := make([]models.Enrollment, 0)
	for _, e := range db.enrollments {
		if e.CourseID == courseID {
			all = append(all, e.Clone())
		}
	}
	sortByEnrolledDesc(all)

	start := p.Offset()
	if start > len(all) {
		start = len(all)
	}
	end := start + p.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], int64(len(all)), nil
}

func sortByEnrolledDesc(es []models.Enrollment) {
	sort.SliceStable(es, func(i, j int) bool {
		return es[i].EnrolledAt.After(es[j].EnrolledAt)
	})
}
