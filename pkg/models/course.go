package models

import (
	"time"

	"gorm.io/datatypes"
)

var Categories = []string{
	"Web Development",
	"Mobile Development",
	"Data Science",
	"AI/ML",
	"DevOps",
	"Other",
}

type Lesson struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl"`
	Duration int    `json:"duration"`
	Order    int    `json:"order"`
}

type Module struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Lessons     []Lesson `json:"lessons"`
	Order       int      `json:"order"`
}

// Course is stored as a single row; the module tree lives in a jsonb column so a
// hierarchy edit is one document write.
type Course struct {
	ID               string                      `gorm:"type:uuid;primaryKey" json:"id"`
	Title            string                      `gorm:"not null" json:"title"`
	Description      string                      `json:"description"`
	Instructor       string                      `json:"instructor"`
	Category         string                      `gorm:"type:varchar(100);index" json:"category"`
	Tags             datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"tags"`
	Price            float64                     `gorm:"index" json:"price"`
	Thumbnail        string                      `json:"thumbnail,omitempty"`
	BatchNumber      int                         `gorm:"default:1" json:"batchNumber"`
	BatchStartDate   time.Time                   `json:"batchStartDate"`
	TotalEnrollments int                         `gorm:"default:0" json:"totalEnrollments"`
	IsPublished      bool                        `gorm:"default:true" json:"isPublished"`
	Modules          datatypes.JSONSlice[Module] `gorm:"type:jsonb" json:"modules"`
	CreatedAt        time.Time                   `gorm:"index" json:"createdAt"`
	UpdatedAt        time.Time                   `json:"updatedAt"`
}

func (c *Course) TotalLessons() int {
	total := 0
	for _, m := range c.Modules {
		total += len(m.Lessons)
	}
	return total
}

func (c *Course) TotalDuration() int {
	total := 0
	for _, m := range c.Modules {
		for _, l := range m.Lessons {
			total += l.Duration
		}
	}
	return total
}

// FindModule returns the index of the module with the given id, or -1.
func (c *Course) FindModule(id string) int {
	for i := range c.Modules {
		if c.Modules[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Module) FindLesson(id string) int {
	for i := range m.Lessons {
		if m.Lessons[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can mutate the tree without touching the original.
func (c Course) Clone() Course {
	out := c
	if c.Tags != nil {
		out.Tags = append(datatypes.JSONSlice[string]{}, c.Tags...)
	}
	if c.Modules != nil {
		out.Modules = make(datatypes.JSONSlice[Module], len(c.Modules))
		for i, m := range c.Modules {
			cp := m
			if m.Lessons != nil {
				cp.Lessons = append([]Lesson{}, m.Lessons...)
			}
			out.Modules[i] = cp
		}
	}
	return out
}

// CourseView adds the derived totals to the wire shape.
type CourseView struct {
	Course
	TotalLessons  int `json:"totalLessons"`
	TotalDuration int `json:"totalDuration"`
}

func (c Course) View() CourseView {
	return CourseView{Course: c, TotalLessons: c.TotalLessons(), TotalDuration: c.TotalDuration()}
}

type CourseSummary struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	Instructor    string `json:"instructor"`
	Category      string `json:"category"`
	TotalDuration int    `json:"totalDuration"`
}

func (c Course) Summary() CourseSummary {
	return CourseSummary{
		ID:            c.ID,
		Title:         c.Title,
		Thumbnail:     c.Thumbnail,
		Instructor:    c.Instructor,
		Category:      c.Category,
		TotalDuration: c.TotalDuration(),
	}
}
