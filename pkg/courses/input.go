package courses

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"learnhub/pkg/apperr"
	"learnhub/pkg/models"
)

type LessonInput struct {
	ID       string `json:"id,omitempty"`
	Title    string `json:"title" validate:"required,max=200"`
	VideoURL string `json:"videoUrl" validate:"required"`
	Duration int    `json:"duration" validate:"required,min=1"`
	Order    *int   `json:"order"`
}

type ModuleInput struct {
	ID          string        `json:"id,omitempty"`
	Title       string        `json:"title" validate:"required,max=200"`
	Description string        `json:"description"`
	Order       *int          `json:"order"`
	Lessons     []LessonInput `json:"lessons" validate:"dive"`
}

type CourseInput struct {
	Title          string        `json:"title" validate:"required,min=3,max=100"`
	Description    string        `json:"description" validate:"required,min=10,max=2000"`
	Instructor     string        `json:"instructor" validate:"required,min=2,max=100"`
	Category       string        `json:"category" validate:"required,oneof='Web Development' 'Mobile Development' 'Data Science' 'AI/ML' DevOps Other"`
	Tags           []string      `json:"tags"`
	Price          *float64      `json:"price" validate:"required,min=0"`
	Thumbnail      string        `json:"thumbnail"`
	BatchNumber    int           `json:"batchNumber" validate:"omitempty,min=1"`
	BatchStartDate *time.Time    `json:"batchStartDate"`
	IsPublished    *bool         `json:"isPublished"`
	Modules        []ModuleInput `json:"modules" validate:"dive"`
}

type ModulePatch struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description"`
	Order       *int    `json:"order"`
}

type LessonPatch struct {
	Title    *string `json:"title" validate:"omitempty,min=1,max=200"`
	VideoURL *string `json:"videoUrl" validate:"omitempty,min=1"`
	Duration *int    `json:"duration" validate:"omitempty,min=1"`
	Order    *int    `json:"order"`
}

// OrderItem assigns a new order to the module or lesson with the given id.
type OrderItem struct {
	ID    string `json:"id" validate:"required"`
	Order int    `json:"order"`
}

func checkCourse(in CourseInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return apperr.InvalidInput("course title is required")
	}
	if in.Price == nil || *in.Price < 0 {
		return apperr.InvalidInput("price must be zero or more")
	}
	for _, c := range models.Categories {
		if c == in.Category {
			return nil
		}
	}
	return apperr.InvalidInput("unknown category %q", in.Category)
}

func checkLesson(l models.Lesson) error {
	if strings.TrimSpace(l.Title) == "" {
		return apperr.InvalidInput("lesson title is required")
	}
	if l.Duration <= 0 {
		return apperr.InvalidInput("lesson duration must be positive")
	}
	return nil
}

// resolveID keeps a supplied id and generates one when it is empty.
func resolveID(name, id string) (string, error) {
	if id == "" {
		return uuid.NewString(), nil
	}
	if err := apperr.CheckID(name, id); err != nil {
		return "", err
	}
	return id, nil
}

func lessonFromInput(in LessonInput, id string, order int) (models.Lesson, error) {
	if in.Order != nil {
		order = *in.Order
	}
	l := models.Lesson{
		ID:       id,
		Title:    strings.TrimSpace(in.Title),
		VideoURL: in.VideoURL,
		Duration: in.Duration,
		Order:    order,
	}
	return l, checkLesson(l)
}

// moduleFromInput builds a module; keepIDs decides whether ids in the payload survive.
func moduleFromInput(in ModuleInput, order int, keepIDs bool) (models.Module, error) {
	if strings.TrimSpace(in.Title) == "" {
		return models.Module{}, apperr.InvalidInput("module title is required")
	}
	id := uuid.NewString()
	if keepIDs {
		var err error
		if id, err = resolveID("module", in.ID); err != nil {
			return models.Module{}, err
		}
	}
	if in.Order != nil {
		order = *in.Order
	}
	m := models.Module{
		ID:          id,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Order:       order,
		Lessons:     make([]models.Lesson, 0, len(in.Lessons)),
	}
	for i, li := range in.Lessons {
		lid := uuid.NewString()
		if keepIDs {
			var err error
			if lid, err = resolveID("lesson", li.ID); err != nil {
				return models.Module{}, err
			}
		}
		l, err := lessonFromInput(li, lid, i+1)
		if err != nil {
			return models.Module{}, err
		}
		m.Lessons = append(m.Lessons, l)
	}
	return m, nil
}

func modulesFromInput(in []ModuleInput) ([]models.Module, error) {
	out := make([]models.Module, 0, len(in))
	for i, mi := range in {
		m, err := moduleFromInput(mi, i+1, true)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// nextOrder is one past the highest order in use, or 1 for an empty list.
func nextOrder[T any](items []T, order func(T) int) int {
	if len(items) == 0 {
		return 1
	}
	highest := order(items[0])
	for _, it := range items[1:] {
		if o := order(it); o > highest {
			highest = o
		}
	}
	return highest + 1
}
