package assessments

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"learnhub/pkg/apperr"
	"learnhub/pkg/kfka"
	"learnhub/pkg/models"
)

type AssignmentInput struct {
	CourseID    string `json:"courseId" validate:"required"`
	ModuleID    string `json:"moduleId" validate:"required"`
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"required,min=10,max=2000"`
}

type SubmissionInput struct {
	Type    string `json:"submissionType" validate:"required,oneof=link text"`
	Content string `json:"content" validate:"required,max=5000"`
}

func (s *Service) CreateAssignment(ctx context.Context, in AssignmentInput) (*models.Assignment, error) {
	if err := s.checkTarget(ctx, in.CourseID, in.ModuleID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, apperr.InvalidInput("title is required")
	}
	now := s.now()
	a := &models.Assignment{
		ID:          uuid.NewString(),
		CourseID:    in.CourseID,
		ModuleID:    in.ModuleID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Submissions: []models.Submission{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateAssignment(ctx, a); err != nil {
		return nil, lookupErr(err, "assignment")
	}
	return a, nil
}

// SubmitAssignment keeps one submission per user. A resubmission replaces the
// type, content and time but leaves an existing grade and feedback in place.
func (s *Service) SubmitAssignment(ctx context.Context, assignmentID, userID string, in SubmissionInput) (*models.Submission, error) {
	if in.Type != models.SubmissionLink && in.Type != models.SubmissionText {
		return nil, apperr.InvalidInput("submission type must be link or text")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.InvalidInput("content is required")
	}
	a, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	i := a.FindSubmissionByUser(userID)
	if i >= 0 {
		sub := &a.Submissions[i]
		sub.Type = in.Type
		sub.Content = in.Content
		sub.SubmittedAt = now
	} else {
		a.Submissions = append(a.Submissions, models.Submission{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        in.Type,
			Content:     in.Content,
			SubmittedAt: now,
		})
		i = len(a.Submissions) - 1
	}
	a.UpdatedAt = now
	if err := s.store.SaveAssignment(ctx, a); err != nil {
		return nil, lookupErr(err, "assignment")
	}
	sub := a.Submissions[i]
	return &sub, nil
}

// GradeAssignment sets grade and feedback on one submission. A nil grade is
// rejected; zero is a valid grade.
func (s *Service) GradeAssignment(ctx context.Context, assignmentID, submissionID string, grade *int, feedback *string) (*models.Submission, error) {
	if grade == nil {
		return nil, apperr.InvalidInput("grade is required")
	}
	if *grade < 0 || *grade > MaxGrade {
		return nil, apperr.InvalidInput("grade must be between 0 and %d", MaxGrade)
	}
	if err := apperr.CheckID("submission", submissionID); err != nil {
		return nil, err
	}
	a, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	i := a.FindSubmission(submissionID)
	if i < 0 {
		return nil, apperr.NotFound("submission not found")
	}

	g := *grade
	sub := &a.Submissions[i]
	sub.Grade = &g
	sub.Feedback = ""
	if feedback != nil {
		sub.Feedback = *feedback
	}
	a.UpdatedAt = s.now()
	if err := s.store.SaveAssignment(ctx, a); err != nil {
		return nil, lookupErr(err, "assignment")
	}

	kfka.Notify(ctx, s.events, s.log, kfka.Event{
		Topic:      kfka.TopicGrades,
		Type:       "assignment_graded",
		UserID:     sub.UserID,
		CourseID:   a.CourseID,
		ModuleID:   a.ModuleID,
		Assignment: a.ID,
		Title:      a.Title,
		Score:      &g,
	})
	out := *sub
	return &out, nil
}

type SubmissionList struct {
	AssignmentID     string              `json:"assignmentId"`
	Title            string              `json:"title"`
	Submissions      []models.Submission `json:"submissions"`
	TotalSubmissions int                 `json:"totalSubmissions"`
	AverageGrade     *int                `json:"averageGrade"`
}

func (s *Service) Submissions(ctx context.Context, assignmentID string) (*SubmissionList, error) {
	a, err := s.assignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}
	return &SubmissionList{
		AssignmentID:     a.ID,
		Title:            a.Title,
		Submissions:      a.Submissions,
		TotalSubmissions: len(a.Submissions),
		AverageGrade:     a.AverageGrade(),
	}, nil
}

func (s *Service) assignment(ctx context.Context, id string) (*models.Assignment, error) {
	if err := apperr.CheckID("assignment", id); err != nil {
		return nil, err
	}
	a, err := s.store.GetAssignment(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "assignment")
	}
	return a, nil
}
