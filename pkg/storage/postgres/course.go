package postgres

import (
	"context"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"learnhub/pkg/models"
	"learnhub/pkg/storage"
)

var sortColumns = map[string]string{
	"createdAt":        "created_at",
	"price":            "price",
	"title":            "title",
	"totalEnrollments": "total_enrollments",
}

func (s *Store) CreateCourse(ctx context.Context, c *models.Course) error {
	return translate(s.db.WithContext(ctx).Create(c).Error)
}

func (s *Store) GetCourse(ctx context.Context, id string) (*models.Course, error) {
	var course models.Course
	if err := s.db.WithContext(ctx).First(&course, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &course, nil
}

// SaveCourse rewrites the whole document. Concurrent writers are last-write-wins.
func (s *Store) SaveCourse(ctx context.Context, c *models.Course) error {
	res := s.db.WithContext(ctx).Model(&models.Course{}).Where("id = ?", c.ID).
		Select("*").Omit("id", "created_at", "total_enrollments").Updates(c)
	return requireRow(res)
}

func (s *Store) DeleteCourse(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, dependent := range []interface{}{&models.Enrollment{}, &models.Assignment{}, &models.Quiz{}} {
			if err := tx.Where("course_id = ?", id).Delete(dependent).Error; err != nil {
				return translate(err)
			}
		}
		return requireRow(tx.Delete(&models.Course{}, "id = ?", id))
	})
}

func (s *Store) ListCourses(ctx context.Context, q storage.CourseQuery) ([]models.Course, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Course{}).Where("is_published = ?", true)
	if q.Search != "" {
		like := "%" + q.Search + "%"
		query = query.Where("title ILIKE ? OR description ILIKE ?", like, like)
	}
	if q.Category != "" {
		query = query.Where("category = ?", q.Category)
	}
	if len(q.Tags) > 0 {
		query = query.Where("jsonb_exists_any(tags, ?)", pq.StringArray(q.Tags))
	}
	if q.MinPrice != nil {
		query = query.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		query = query.Where("price <= ?", *q.MaxPrice)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "desc"
	if q.Order == "asc" {
		direction = "asc"
	}

	var courses []models.Course
	p := storage.Page{Page: q.Page, Limit: q.Limit}
	err := query.Order(column + " " + direction).Order("id").Offset(p.Offset()).Limit(p.Limit).Find(&courses).Error
	if err != nil {
		return nil, 0, translate(err)
	}
	return courses, total, nil
}
