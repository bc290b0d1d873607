package postgres

import (
	"context"

	"learnhub/pkg/models"
)

func (s *Store) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	return translate(s.db.WithContext(ctx).Create(a).Error)
}

func (s *Store) GetAssignment(ctx context.Context, id string) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.db.WithContext(ctx).First(&a, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &a, nil
}

func (s *Store) SaveAssignment(ctx context.Context, a *models.Assignment) error {
	res := s.db.WithContext(ctx).Model(&models.Assignment{}).Where("id = ?", a.ID).
		Select("submissions", "updated_at").Updates(a)
	return requireRow(res)
}

func (s *Store) CreateQuiz(ctx context.Context, q *models.Quiz) error {
	return translate(s.db.WithContext(ctx).Create(q).Error)
}

func (s *Store) GetQuiz(ctx context.Context, id string) (*models.Quiz, error) {
	var q models.Quiz
	if err := s.db.WithContext(ctx).First(&q, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &q, nil
}

func (s *Store) SaveQuiz(ctx context.Context, q *models.Quiz) error {
	res := s.db.WithContext(ctx).Model(&models.Quiz{}).Where("id = ?", q.ID).
		Select("attempts", "updated_at").Updates(q)
	return requireRow(res)
}

func (s *Store) CountModuleReferences(ctx context.Context, courseID, moduleID string) (int64, error) {
	var assignments, quizzes int64
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.Assignment{}).Where("course_id = ? AND module_id = ?", courseID, moduleID).Count(&assignments).Error; err != nil {
		return 0, translate(err)
	}
	if err := db.Model(&models.Quiz{}).Where("course_id = ? AND module_id = ?", courseID, moduleID).Count(&quizzes).Error; err != nil {
		return 0, translate(err)
	}
	return assignments + quizzes, nil
}
