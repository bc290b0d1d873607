package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

const (
	SubmissionLink = "link"
	SubmissionText = "text"

	// PassingScore is the attempt score counted as a pass in quiz stats.
	PassingScore = 70
)

type Submission struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Type        string    `json:"submissionType"`
	Content     string    `json:"content"`
	SubmittedAt time.Time `json:"submittedAt"`
	Grade       *int      `json:"grade,omitempty"`
	Feedback    string    `json:"feedback,omitempty"`
}

type Assignment struct {
	ID          string                          `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID    string                          `gorm:"type:uuid;not null;index:idx_assignment_course_module" json:"courseId"`
	ModuleID    string                          `gorm:"type:uuid;not null;index:idx_assignment_course_module" json:"moduleId"`
	Title       string                          `gorm:"not null" json:"title"`
	Description string                          `json:"description"`
	Submissions datatypes.JSONSlice[Submission] `gorm:"type:jsonb" json:"submissions"`
	CreatedAt   time.Time                       `json:"createdAt"`
	UpdatedAt   time.Time                       `json:"updatedAt"`
}

func (a *Assignment) FindSubmissionByUser(userID string) int {
	for i := range a.Submissions {
		if a.Submissions[i].UserID == userID {
			return i
		}
	}
	return -1
}

func (a *Assignment) FindSubmission(id string) int {
	for i := range a.Submissions {
		if a.Submissions[i].ID == id {
			return i
		}
	}
	return -1
}

// AverageGrade is nil until at least one submission is graded.
func (a *Assignment) AverageGrade() *int {
	sum, n := 0, 0
	for _, s := range a.Submissions {
		if s.Grade != nil {
			sum += *s.Grade
			n++
		}
	}
	if n == 0 {
		return nil
	}
	avg := int(math.Round(float64(sum) / float64(n)))
	return &avg
}

func (a Assignment) Clone() Assignment {
	out := a
	if a.Submissions != nil {
		out.Submissions = make(datatypes.JSONSlice[Submission], len(a.Submissions))
		for i, s := range a.Submissions {
			cp := s
			if s.Grade != nil {
				g := *s.Grade
				cp.Grade = &g
			}
			out.Submissions[i] = cp
		}
	}
	return out
}

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

type Attempt struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Answers     []int     `json:"answers"`
	Score       int       `json:"score"`
	AttemptedAt time.Time `json:"attemptedAt"`
}

type Quiz struct {
	ID        string                        `gorm:"type:uuid;primaryKey" json:"id"`
	CourseID  string                        `gorm:"type:uuid;not null;index:idx_quiz_course_module" json:"courseId"`
	ModuleID  string                        `gorm:"type:uuid;not null;index:idx_quiz_course_module" json:"moduleId"`
	Title     string                        `gorm:"not null" json:"title"`
	Questions datatypes.JSONSlice[Question] `gorm:"type:jsonb" json:"questions"`
	Attempts  datatypes.JSONSlice[Attempt]  `gorm:"type:jsonb" json:"attempts"`
	CreatedAt time.Time                     `json:"createdAt"`
	UpdatedAt time.Time                     `json:"updatedAt"`
}

func (q *Quiz) userAttempts(userID string) []Attempt {
	var out []Attempt
	for _, a := range q.Attempts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out
}

// BestAttempt returns the highest scoring attempt of the user; the earliest wins ties.
func (q *Quiz) BestAttempt(userID string) *Attempt {
	attempts := q.userAttempts(userID)
	if len(attempts) == 0 {
		return nil
	}
	best := attempts[0]
	for _, a := range attempts[1:] {
		if a.Score > best.Score {
			best = a
		}
	}
	return &best
}

func (q *Quiz) LatestAttempt(userID string) *Attempt {
	attempts := q.userAttempts(userID)
	if len(attempts) == 0 {
		return nil
	}
	latest := attempts[len(attempts)-1]
	return &latest
}

func (q *Quiz) AverageScore() *int {
	if len(q.Attempts) == 0 {
		return nil
	}
	sum := 0
	for _, a := range q.Attempts {
		sum += a.Score
	}
	avg := int(math.Round(float64(sum) / float64(len(q.Attempts))))
	return &avg
}

func (q *Quiz) PassRate() *int {
	if len(q.Attempts) == 0 {
		return nil
	}
	passed := 0
	for _, a := range q.Attempts {
		if a.Score >= PassingScore {
			passed++
		}
	}
	rate := int(math.Round(float64(passed) / float64(len(q.Attempts)) * 100))
	return &rate
}

func (q Quiz) Clone() Quiz {
	out := q
	if q.Questions != nil {
		out.Questions = make(datatypes.JSONSlice[Question], len(q.Questions))
		for i, qu := range q.Questions {
			cp := qu
			cp.Options = append([]string{}, qu.Options...)
			out.Questions[i] = cp
		}
	}
	if q.Attempts != nil {
		out.Attempts = make(datatypes.JSONSlice[Attempt], len(q.Attempts))
		for i, a := range q.Attempts {
			cp := a
			cp.Answers = append([]int{}, a.Answers...)
			out.Attempts[i] = cp
		}
	}
	return out
}
