package routes

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"learnhub/pkg/analytics"
	"learnhub/pkg/assessments"
	"learnhub/pkg/courses"
	"learnhub/pkg/enrollments"
	"learnhub/pkg/middleware"
	"learnhub/pkg/respond"
)

type Handlers struct {
	Courses     *courses.Handler
	Enrollments *enrollments.Handler
	Assessments *assessments.Handler
	Analytics   *analytics.Handler
}

// New builds the whole API: public catalogue routes, then the student and admin
// sub-routers behind token auth.
func New(hs Handlers, secret []byte, logger *log.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging(logger), middleware.Sanitize)

	SetupPublic(r.PathPrefix("/api").Subrouter(), hs)

	student := r.PathPrefix("/api/student").Subrouter()
	student.Use(middleware.Authenticate(secret), middleware.RequireRole(middleware.Student))
	SetupStudent(student, hs)

	admin := r.PathPrefix("/api/admin").Subrouter()
	admin.Use(middleware.Authenticate(secret), middleware.RequireRole(middleware.Admin))
	SetupAdmin(admin, hs)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		respond.Fail(w, http.StatusNotFound, "route not found")
	})
	return r
}

func SetupPublic(h *mux.Router, hs Handlers) {
	h.HandleFunc("/courses", hs.Courses.List).Methods("GET")
	h.HandleFunc("/courses/search", hs.Courses.Search).Methods("GET")
	h.HandleFunc("/courses/{id}", hs.Courses.Get).Methods("GET")
	h.HandleFunc("/media/{key:.+}", hs.Courses.DownloadMedia).Methods("GET")
}

func SetupStudent(h *mux.Router, hs Handlers) {
	h.HandleFunc("/dashboard", hs.Enrollments.Dashboard).Methods("GET")
	h.HandleFunc("/enroll/{courseId}", hs.Enrollments.Enroll).Methods("POST")
	h.HandleFunc("/enrollments/{enrollmentId}", hs.Enrollments.Details).Methods("GET")
	h.HandleFunc("/progress", hs.Enrollments.MarkLessonComplete).Methods("POST")

	h.HandleFunc("/assignments/{assignmentId}/submit", hs.Assessments.SubmitAssignment).Methods("POST")
	h.HandleFunc("/quizzes/{quizId}", hs.Assessments.Quiz).Methods("GET")
	h.HandleFunc("/quizzes/{quizId}/submit", hs.Assessments.SubmitQuiz).Methods("POST")
	h.HandleFunc("/quizzes/{quizId}/attempts/best", hs.Assessments.BestAttempt).Methods("GET")
	h.HandleFunc("/quizzes/{quizId}/attempts/latest", hs.Assessments.LatestAttempt).Methods("GET")
}

func SetupAdmin(h *mux.Router, hs Handlers) {
	h.HandleFunc("/courses", hs.Courses.Create).Methods("POST")
	h.HandleFunc("/courses/{courseId}", hs.Courses.Update).Methods("PUT")
	h.HandleFunc("/courses/{courseId}", hs.Courses.Delete).Methods("DELETE")
	h.HandleFunc("/courses/{courseId}/enrollments", hs.Enrollments.CourseEnrollments).Methods("GET")

	h.HandleFunc("/courses/{courseId}/modules", hs.Courses.AddModule).Methods("POST")
	h.HandleFunc("/courses/{courseId}/modules/reorder", hs.Courses.ReorderModules).Methods("PUT")
	h.HandleFunc("/courses/{courseId}/modules/{moduleId}", hs.Courses.UpdateModule).Methods("PUT")
	h.HandleFunc("/courses/{courseId}/modules/{moduleId}", hs.Courses.DeleteModule).Methods("DELETE")

	lessons := "/courses/{courseId}/modules/{moduleId}/lessons"
	h.HandleFunc(lessons, hs.Courses.AddLesson).Methods("POST")
	h.HandleFunc(lessons+"/reorder", hs.Courses.ReorderLessons).Methods("PUT")
	h.HandleFunc(lessons+"/{lessonId}", hs.Courses.UpdateLesson).Methods("PUT")
	h.HandleFunc(lessons+"/{lessonId}", hs.Courses.DeleteLesson).Methods("DELETE")
	h.HandleFunc(lessons+"/{lessonId}/media", hs.Courses.UploadLessonMedia).Methods("POST")

	h.HandleFunc("/assignments", hs.Assessments.CreateAssignment).Methods("POST")
	h.HandleFunc("/assignments/{assignmentId}/submissions", hs.Assessments.Submissions).Methods("GET")
	h.HandleFunc("/assignments/{assignmentId}/submissions/{submissionId}/grade", hs.Assessments.Grade).Methods("PUT")
	h.HandleFunc("/quizzes", hs.Assessments.CreateQuiz).Methods("POST")
	h.HandleFunc("/quizzes/{quizId}/stats", hs.Assessments.QuizStats).Methods("GET")

	h.HandleFunc("/analytics", hs.Analytics.Report).Methods("GET")
}
