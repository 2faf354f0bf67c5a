package enrollment

import (
	"errors"
	"log/slog"
	"net/http"

	"college-service/internal/course"
	"college-service/internal/httputil"
	"college-service/internal/student"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/enrollments", h.CreateEnrollment)
	router.Get("/enrollments", h.ListEnrollments)
	router.Get("/enrollments/{id}", h.GetEnrollment)
	router.Delete("/enrollments/{id}", h.DeleteEnrollment)
	router.Get("/students/{id}/enrollments", h.ListStudentEnrollments)
	router.Get("/courses/{id}/students", h.ListCourseStudents)
}

func (h *Handler) CreateEnrollment(w http.ResponseWriter, r *http.Request) {
	var req EnrollmentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating enrollment",
		"student_id", req.StudentID,
		"course_id", req.CourseID,
		"semester", req.Semester,
	)
	enrollment, err := h.service.CreateEnrollment(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusCreated, enrollment)
}

func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := ListFilter{Semester: r.URL.Query().Get("semester")}

	enrollments, err := h.service.ListEnrollments(r.Context(), filter, page)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, enrollments)
}

func (h *Handler) GetEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid enrollment ID")
		return
	}

	enrollment, err := h.service.GetEnrollmentByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, enrollment)
}

func (h *Handler) DeleteEnrollment(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid enrollment ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting enrollment", "id", id)
	if err := h.service.DeleteEnrollment(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListStudentEnrollments(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid student ID")
		return
	}

	enrollments, err := h.service.ListByStudent(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, enrollments)
}

func (h *Handler) ListCourseStudents(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	students, err := h.service.ListStudentsInCourse(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, students)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, student.ErrStudentNotFound):
		h.logger.InfoContext(r.Context(), "student not found")
		httputil.RespondWithError(w, http.StatusNotFound, "Student not found")
	case errors.Is(err, course.ErrCourseNotFound):
		h.logger.InfoContext(r.Context(), "course not found")
		httputil.RespondWithError(w, http.StatusNotFound, "Course not found")
	case errors.Is(err, ErrEnrollmentNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Enrollment not found")
	case errors.Is(err, ErrDuplicateEnrollment):
		h.logger.InfoContext(r.Context(), "duplicate enrollment rejected")
		httputil.RespondWithError(w, http.StatusBadRequest, "duplicate enrollment")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
