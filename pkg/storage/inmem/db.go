// Package inmem is a map-backed storage.Store. Rows are deep-copied on the way in and
// out, so a caller's unsaved mutation is never visible to other readers.
package inmem

import (
	"sync"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

type DB struct {
	mutex       sync.RWMutex
	courses     map[string]*models.Course
	enrollments map[string]*models.Enrollment
	assignments map[string]*models.Assignment
	quizzes     map[string]*models.Quiz
}

var _ storage.Store = (*DB)(nil)

func Open() *DB {
	return &DB{
		courses:     make(map[string]*models.Course),
		enrollments: make(map[string]*models.Enrollment),
		assignments: make(map[string]*models.Assignment),
		quizzes:     make(map[string]*models.Quiz),
	}
}
