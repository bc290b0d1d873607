package postgres

import (
	"context"
	"time"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

func (s *Store) CountCourses(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Course{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CountEnrollments(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Enrollment{}).Count(&n).Error
	return n, translate(err)
}

func (s *Store) CountStudents(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Enrollment{}).Distinct("user_id").Count(&n).Error
	return n, translate(err)
}

func (s *Store) EnrollmentTrends(ctx context.Context, from, to *time.Time) ([]storage.MonthlyCount, error) {
	query := s.db.WithContext(ctx).Model(&models.Enrollment{}).
		Select("EXTRACT(YEAR FROM enrolled_at)::int AS year, EXTRACT(MONTH FROM enrolled_at)::int AS month, COUNT(*) AS count")
	if from != nil {
		query = query.Where("enrolled_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("enrolled_at <= ?", *to)
	}

	var out []storage.MonthlyCount
	err := query.Group("year, month").Order("year, month").Scan(&out).Error
	return out, translate(err)
}

func (s *Store) CourseCategoryStats(ctx context.Context) ([]storage.CategoryStats, error) {
	var out []storage.CategoryStats
	err := s.db.WithContext(ctx).Model(&models.Course{}).
		Select("category, COUNT(*) AS count, AVG(price) AS avg_price, SUM(total_enrollments) AS total_enrollments").
		Group("category").Order("category").Scan(&out).Error
	return out, translate(err)
}
