package models

import (
	"time"

	"gorm.io/datatypes"
)

type CompletedLesson struct {
	ModuleID    string    `json:"moduleId"`
	LessonID    string    `json:"lessonId"`
	CompletedAt time.Time `json:"completedAt"`
}

type Enrollment struct {
	ID               string                               `gorm:"type:uuid;primaryKey" json:"id"`
	UserID           string                               `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course" json:"userId"`
	CourseID         string                               `gorm:"type:uuid;not null;uniqueIndex:idx_enrollment_user_course;index" json:"courseId"`
	Progress         int                                  `gorm:"default:0" json:"progress"`
	CompletedLessons datatypes.JSONSlice[CompletedLesson] `gorm:"type:jsonb" json:"completedLessons"`
	EnrolledAt       time.Time                            `gorm:"index" json:"enrolledAt"`
	LastAccessedAt   time.Time                            `json:"lastAccessedAt"`
	CreatedAt        time.Time                            `json:"createdAt"`
	UpdatedAt        time.Time                            `json:"updatedAt"`
}

func (e *Enrollment) HasCompleted(moduleID, lessonID string) bool {
	for _, cl := range e.CompletedLessons {
		if cl.ModuleID == moduleID && cl.LessonID == lessonID {
			return true
		}
	}
	return false
}

func (e Enrollment) Clone() Enrollment {
	out := e
	if e.CompletedLessons != nil {
		out.CompletedLessons = append(datatypes.JSONSlice[CompletedLesson]{}, e.CompletedLessons...)
	}
	return out
}
