package enrollments

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"learnhub/pkg/apperr"
	"learnhub/pkg/middleware"
	"learnhub/pkg/respond"
)

type Handler struct {
	svc *Service
	log *log.Logger
}

func NewHandler(svc *Service, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) Enroll(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.svc.Enroll(r.Context(), mux.Vars(r)["courseId"], user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "enrolled successfully", e)
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	d, err := h.svc.Dashboard(r.Context(), user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

func (h *Handler) Details(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	d, err := h.svc.Details(r.Context(), mux.Vars(r)["enrollmentId"], user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, d)
}

type progressRequest struct {
	EnrollmentID string `json:"enrollmentId" validate:"required"`
	ModuleID     string `json:"moduleId" validate:"required"`
	LessonID     string `json:"lessonId" validate:"required"`
}

func (h *Handler) MarkLessonComplete(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		respond.Fail(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req progressRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	p, err := h.svc.MarkLessonComplete(r.Context(), req.EnrollmentID, req.ModuleID, req.LessonID, user.ID)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "lesson marked as complete", p)
}

func (h *Handler) CourseEnrollments(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	res, err := h.svc.CourseEnrollments(r.Context(), mux.Vars(r)["courseId"], page, limit)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.InvalidInput("%s must be a number", name)
	}
	return n, nil
}
