package assessments

import (
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"

	"learnhub/pkg/apperr"
	"learnhub/pkg/middleware"
	"learnhub/pkg/models"
	"learnhub/pkg/respond"
)

var linkDomains = []string{
	"drive.google.com",
	"dropbox.com",
	"github.com",
	"gitlab.com",
	"bitbucket.org",
	"onedrive.live.com",
}

// CheckLink accepts absolute http(s) URLs hosted on one of the known file sharing sites.
func CheckLink(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return apperr.InvalidInput("invalid URL format for link submission")
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range linkDomains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return nil
		}
	}
	return apperr.InvalidInput("link must be from Google Drive, Dropbox, GitHub, GitLab, Bitbucket, or OneDrive")
}

type Handler struct {
	svc *Service
	log *log.Logger
}

func NewHandler(svc *Service, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) CreateAssignment(w http.ResponseWriter, r *http.Request) {
	var in AssignmentInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	a, err := h.svc.CreateAssignment(r.Context(), in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "assignment created", a)
}

func (h *Handler) SubmitAssignment(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var in SubmissionInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	if in.Type == models.SubmissionLink {
		if err := CheckLink(in.Content); err != nil {
			respond.Error(w, h.log, err)
			return
		}
	}
	sub, err := h.svc.SubmitAssignment(r.Context(), mux.Vars(r)["assignmentId"], user.ID, in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "assignment submitted successfully", sub)
}

func (h *Handler) Submissions(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Submissions(r.Context(), mux.Vars(r)["assignmentId"])
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

type gradeRequest struct {
	Grade    *int    `json:"grade"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	vars := mux.Vars(r)
	sub, err := h.svc.GradeAssignment(r.Context(), vars["assignmentId"], vars["submissionId"], req.Grade, req.Feedback)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "assignment graded", sub)
}

func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var in QuizInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	q, err := h.svc.CreateQuiz(r.Context(), in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "quiz created", q)
}

func (h *Handler) Quiz(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.StudentQuiz(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, v)
}

type quizSubmission struct {
	Answers []int `json:"answers" validate:"max=50,dive,min=0,max=3"`
}

func (h *Handler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req quizSubmission
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	res, err := h.svc.SubmitQuiz(r.Context(), mux.Vars(r)["quizId"], req.Answers, user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "quiz submitted successfully", res)
}

func (h *Handler) BestAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a, err := h.svc.BestAttempt(r.Context(), mux.Vars(r)["quizId"], user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) LatestAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	a, err := h.svc.LatestAttempt(r.Context(), mux.Vars(r)["quizId"], user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, a)
}

func (h *Handler) QuizStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.QuizStats(r.Context(), mux.Vars(r)["quizId"])
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}
