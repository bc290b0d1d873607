package inmem

import (
	"context"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

func (db *DB) CreateAssignment(_ context.Context, a *models.Assignment) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	cp := a.Clone()
	db.assignments[a.ID] = &cp
	return nil
}

func (db *DB) GetAssignment(_ context.Context, id string) (*models.Assignment, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	a, ok := db.assignments[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := a.Clone()
	return &cp, nil
}

func (db *DB) SaveAssignment(_ context.Context, a *models.Assignment) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.assignments[a.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := a.Clone()
	db.assignments[a.ID] = &cp
	return nil
}

func (db *DB) CreateQuiz(_ context.Context, q *models.Quiz) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	cp := q.Clone()
	db.quizzes[q.ID] = &cp
	return nil
}

func (db *DB) GetQuiz(_ context.Context, id string) (*models.Quiz, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	q, ok := db.quizzes[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := q.Clone()
	return &cp, nil
}

func (db *DB) SaveQuiz(_ context.Context, q *models.Quiz) error {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	if _, ok := db.quizzes[q.ID]; !ok {
		return storage.ErrNotFound
	}
	cp := q.Clone()
	db.quizzes[q.ID] = &cp
	return nil
}

func (db *DB) CountModuleReferences(_ context.Context, courseID, moduleID string) (int64, error) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	var n int64
	for _, a := range db.assignments {
		if a.CourseID == courseID && a.ModuleID == moduleID {
			n++
		}
	}
	for _, q := range db.quizzes {
		if q.CourseID == courseID && q.ModuleID == moduleID {
			n++
		}
	}
	return n, nil
}
