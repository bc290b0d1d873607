package postgres

import (
	"context"

	"gorm.io/gorm"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

func (s *Store) CreateEnrollment(ctx context.Context, e *models.Enrollment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(e).Error; err != nil {
			return translate(err)
		}
		return requireRow(tx.Model(&models.Course{}).Where("id = ?", e.CourseID).
			UpdateColumn("total_enrollments", gorm.Expr("total_enrollments + 1")))
	})
}

func (s *Store) GetEnrollment(ctx context.Context, id string) (*models.Enrollment, error) {
	var e models.Enrollment
	if err := s.db.WithContext(ctx).First(&e, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) FindEnrollment(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	var e models.Enrollment
	err := s.db.WithContext(ctx).Where("user_id = ? AND course_id = ?", userID, courseID).First(&e).Error
	if err != nil {
		return nil, translate(err)
	}
	return &e, nil
}

func (s *Store) SaveEnrollment(ctx context.Context, e *models.Enrollment) error {
	res := s.db.WithContext(ctx).Model(&models.Enrollment{}).Where("id = ?", e.ID).
		Select("progress", "completed_lessons", "last_accessed_at", "updated_at").Updates(e)
	return requireRow(res)
}

func (s *Store) ListEnrollmentsByUser(ctx context.Context, userID string) ([]models.Enrollment, error) {
	var out []models.Enrollment
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("enrolled_at desc").Find(&out).Error
	return out, translate(err)
}

func (s *Store) ListEnrollmentsByCourse(ctx context.Context, courseID string, p storage.Page) ([]models.Enrollment, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Enrollment{}).Where("course_id = ?", courseID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}
	var out []models.Enrollment
	err := query.Order("enrolled_at desc").Offset(p.Offset()).Limit(p.Limit).Find(&out).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return out, total, nil
}
