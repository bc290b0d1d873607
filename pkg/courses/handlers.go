package courses

import (
	"io"
	"log"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"learnhub/pkg/apperr"
	"learnhub/pkg/respond"
	"learnhub/pkg/storage"
)

const maxUploadMemory = 32 << 20

type Handler struct {
	svc *Service
	log *log.Logger
}

func NewHandler(svc *Service, logger *log.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, err := parseCourseQuery(r)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	list, err := h.svc.ListCourses(r.Context(), q)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, list)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	deep, _ := strconv.ParseBool(r.URL.Query().Get("deep"))
	res, err := h.svc.SearchCourses(r.Context(), r.URL.Query().Get("q"), deep)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, res)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetCourse(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.JSON(w, http.StatusOK, c.View())
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CourseInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	c, err := h.svc.CreateCourse(r.Context(), in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "course created", c.View())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var in CourseInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	c, err := h.svc.UpdateCourse(r.Context(), mux.Vars(r)["courseId"], in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "course updated", c.View())
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteCourse(r.Context(), mux.Vars(r)["courseId"]); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "course deleted", nil)
}

func (h *Handler) AddModule(w http.ResponseWriter, r *http.Request) {
	var in ModuleInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	m, err := h.svc.AddModule(r.Context(), mux.Vars(r)["courseId"], in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "module added", m)
}

func (h *Handler) UpdateModule(w http.ResponseWriter, r *http.Request) {
	var p ModulePatch
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	vars := mux.Vars(r)
	m, err := h.svc.UpdateModule(r.Context(), vars["courseId"], vars["moduleId"], p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "module updated", m)
}

func (h *Handler) DeleteModule(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteModule(r.Context(), vars["courseId"], vars["moduleId"]); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "module deleted", nil)
}

type reorderRequest struct {
	Items []OrderItem `json:"items" validate:"required,dive"`
}

func (h *Handler) ReorderModules(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	modules, err := h.svc.ReorderModules(r.Context(), mux.Vars(r)["courseId"], req.Items)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "modules reordered", modules)
}

func (h *Handler) AddLesson(w http.ResponseWriter, r *http.Request) {
	var in LessonInput
	if err := respond.Decode(r, &in); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	vars := mux.Vars(r)
	l, err := h.svc.AddLesson(r.Context(), vars["courseId"], vars["moduleId"], in)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "lesson added", l)
}

func (h *Handler) UpdateLesson(w http.ResponseWriter, r *http.Request) {
	var p LessonPatch
	if err := respond.Decode(r, &p); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	vars := mux.Vars(r)
	l, err := h.svc.UpdateLesson(r.Context(), vars["courseId"], vars["moduleId"], vars["lessonId"], p)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "lesson updated", l)
}

func (h *Handler) DeleteLesson(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := h.svc.DeleteLesson(r.Context(), vars["courseId"], vars["moduleId"], vars["lessonId"]); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "lesson deleted", nil)
}

func (h *Handler) ReorderLessons(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, h.log, err)
		return
	}
	vars := mux.Vars(r)
	lessons, err := h.svc.ReorderLessons(r.Context(), vars["courseId"], vars["moduleId"], req.Items)
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusOK, "lessons reordered", lessons)
}

func (h *Handler) UploadLessonMedia(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		respond.Fail(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Fail(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	vars := mux.Vars(r)
	l, err := h.svc.AttachLessonMedia(r.Context(), vars["courseId"], vars["moduleId"], vars["lessonId"],
		header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	respond.Message(w, http.StatusCreated, "media uploaded", l)
}

func (h *Handler) DownloadMedia(w http.ResponseWriter, r *http.Request) {
	obj, err := h.svc.OpenMedia(r.Context(), mux.Vars(r)["key"])
	if err != nil {
		respond.Error(w, h.log, err)
		return
	}
	defer obj.Body.Close()
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(obj.Size, 10))
	if _, err := io.Copy(w, obj.Body); err != nil {
		h.log.Println("media download:", err)
	}
}

func parseCourseQuery(r *http.Request) (storage.CourseQuery, error) {
	v := r.URL.Query()
	q := storage.CourseQuery{
		Search:   v.Get("search"),
		Category: v.Get("category"),
		SortBy:   v.Get("sortBy"),
		Order:    v.Get("order"),
	}
	var err error
	if q.Page, err = intParam(v.Get("page")); err != nil {
		return q, apperr.InvalidInput("page must be a number")
	}
	if q.Limit, err = intParam(v.Get("limit")); err != nil {
		return q, apperr.InvalidInput("limit must be a number")
	}
	if q.MinPrice, err = floatParam(v.Get("minPrice")); err != nil {
		return q, apperr.InvalidInput("minPrice must be a number")
	}
	if q.MaxPrice, err = floatParam(v.Get("maxPrice")); err != nil {
		return q, apperr.InvalidInput("maxPrice must be a number")
	}
	for _, raw := range v["tags"] {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				q.Tags = append(q.Tags, t)
			}
		}
	}
	return q, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func floatParam(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, strconv.ErrSyntax
	}
	return &f, nil
}
