package assessments

import (
	"context"
	"math"
	"strings"

	"github.com/google/uuid"

	"learnhub/pkg/apperr"
	"learnhub/pkg/kfka"
	"learnhub/pkg/models"
)

type QuestionInput struct {
	Question      string   `json:"question" validate:"required,min=5,max=500"`
	Options       []string `json:"options" validate:"len=4,dive,required,max=200"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,min=0,max=3"`
}

type QuizInput struct {
	CourseID  string          `json:"courseId" validate:"required"`
	ModuleID  string          `json:"moduleId" validate:"required"`
	Title     string          `json:"title" validate:"required,min=3,max=200"`
	Questions []QuestionInput `json:"questions" validate:"required,min=1,max=50,dive"`
}

func (s *Service) CreateQuiz(ctx context.Context, in QuizInput) (*models.Quiz, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	questions, err := buildQuestions(in.Questions)
	if err != nil {
		return nil, err
	}
	if err := s.checkTarget(ctx, in.CourseID, in.ModuleID); err != nil {
		return nil, err
	}
	now := s.now()
	q := &models.Quiz{
		ID:        uuid.NewString(),
		CourseID:  in.CourseID,
		ModuleID:  in.ModuleID,
		Title:     strings.TrimSpace(in.Title),
		Questions: questions,
		Attempts:  []models.Attempt{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateQuiz(ctx, q); err != nil {
		return nil, lookupErr(err, "quiz")
	}
	return q, nil
}

func buildQuestions(in []QuestionInput) ([]models.Question, error) {
	if len(in) < MinQuestions || len(in) > MaxQuestions {
		return nil, apperr.InvalidInput("a quiz needs between %d and %d questions", MinQuestions, MaxQuestions)
	}
	out := make([]models.Question, 0, len(in))
	for i, qi := range in {
		if strings.TrimSpace(qi.Question) == "" {
			return nil, apperr.InvalidInput("question %d is empty", i+1)
		}
		if len(qi.Options) != OptionCount {
			return nil, apperr.InvalidInput("question %d must have exactly %d options", i+1, OptionCount)
		}
		if qi.CorrectAnswer == nil || *qi.CorrectAnswer < 0 || *qi.CorrectAnswer >= OptionCount {
			return nil, apperr.InvalidInput("question %d needs a correct answer between 0 and %d", i+1, OptionCount-1)
		}
		out = append(out, models.Question{
			Question:      qi.Question,
			Options:       append([]string{}, qi.Options...),
			CorrectAnswer: *qi.CorrectAnswer,
		})
	}
	return out, nil
}

type QuizResult struct {
	Score          int `json:"score"`
	CorrectAnswers int `json:"correctAnswers"`
	TotalQuestions int `json:"totalQuestions"`
}

// score compares answers to questions by position. Missing answers count as wrong.
func score(questions []models.Question, answers []int) QuizResult {
	res := QuizResult{TotalQuestions: len(questions)}
	for i, q := range questions {
		if i < len(answers) && answers[i] == q.CorrectAnswer {
			res.CorrectAnswers++
		}
	}
	if res.TotalQuestions > 0 {
		res.Score = int(math.Round(float64(res.CorrectAnswers) / float64(res.TotalQuestions) * 100))
	}
	return res
}

// SubmitQuiz scores the answers and appends an attempt. Every call is a new attempt.
func (s *Service) SubmitQuiz(ctx context.Context, quizID string, answers []int, userID string) (*QuizResult, error) {
	q, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	res := score(q.Questions, answers)
	q.Attempts = append(q.Attempts, models.Attempt{
		ID:          uuid.NewString(),
		UserID:      userID,
		Answers:     append([]int{}, answers...),
		Score:       res.Score,
		AttemptedAt: s.now(),
	})
	q.UpdatedAt = s.now()
	if err := s.store.SaveQuiz(ctx, q); err != nil {
		return nil, lookupErr(err, "quiz")
	}

	kfka.Notify(ctx, s.events, s.log, kfka.Event{
		Topic:    kfka.TopicQuizResults,
		Type:     "quiz_submitted",
		UserID:   userID,
		CourseID: q.CourseID,
		ModuleID: q.ModuleID,
		QuizID:   q.ID,
		Title:    q.Title,
		Score:    &res.Score,
	})
	return &res, nil
}

type PublicQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// QuizView is what a student sees before answering.
type QuizView struct {
	ID             string           `json:"id"`
	CourseID       string           `json:"courseId"`
	ModuleID       string           `json:"moduleId"`
	Title          string           `json:"title"`
	Questions      []PublicQuestion `json:"questions"`
	TotalQuestions int              `json:"totalQuestions"`
}

func (s *Service) StudentQuiz(ctx context.Context, quizID string) (*QuizView, error) {
	q, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	v := &QuizView{
		ID:             q.ID,
		CourseID:       q.CourseID,
		ModuleID:       q.ModuleID,
		Title:          q.Title,
		Questions:      make([]PublicQuestion, 0, len(q.Questions)),
		TotalQuestions: len(q.Questions),
	}
	for _, qu := range q.Questions {
		v.Questions = append(v.Questions, PublicQuestion{Question: qu.Question, Options: qu.Options})
	}
	return v, nil
}

func (s *Service) BestAttempt(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	q, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	a := q.BestAttempt(userID)
	if a == nil {
		return nil, apperr.NotFound("no attempts for this quiz")
	}
	return a, nil
}

func (s *Service) LatestAttempt(ctx context.Context, quizID, userID string) (*models.Attempt, error) {
	q, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	a := q.LatestAttempt(userID)
	if a == nil {
		return nil, apperr.NotFound("no attempts for this quiz")
	}
	return a, nil
}

type QuizStats struct {
	QuizID        string `json:"quizId"`
	Title         string `json:"title"`
	TotalAttempts int    `json:"totalAttempts"`
	AverageScore  *int   `json:"averageScore"`
	PassRate      *int   `json:"passRate"`
}

func (s *Service) QuizStats(ctx context.Context, quizID string) (*QuizStats, error) {
	q, err := s.quiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return &QuizStats{
		QuizID:        q.ID,
		Title:         q.Title,
		TotalAttempts: len(q.Attempts),
		AverageScore:  q.AverageScore(),
		PassRate:      q.PassRate(),
	}, nil
}

func (s *Service) quiz(ctx context.Context, id string) (*models.Quiz, error) {
	if err := apperr.CheckID("quiz", id); err != nil {
		return nil, err
	}
	q, err := s.store.GetQuiz(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "quiz")
	}
	return q, nil
}
