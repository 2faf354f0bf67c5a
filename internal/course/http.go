package course

import (
	"errors"
	"log/slog"
	"net/http"

	"college-service/internal/httputil"
	"college-service/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	service  Service
	validate *validator.Validate
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

func NewHandler(service Service, logger *slog.Logger, metrics *metrics.Metrics) *Handler {
	return &Handler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
		metrics:  metrics,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/courses", h.CreateCourse)
	router.Get("/courses", h.ListCourses)
	router.Get("/courses/{id}", h.GetCourse)
	router.Put("/courses/{id}", h.UpdateCourse)
	router.Delete("/courses/{id}", h.DeleteCourse)
}

func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CourseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "creating course", "code", req.Code)
	course, err := h.service.CreateCourse(r.Context(), req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.metrics.College.RecordCourseCreated(r.Context())

	httputil.RespondWithJSON(w, http.StatusCreated, course)
}

func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	page, err := httputil.ParsePage(r)
	if err != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	filter := ListFilter{Code: r.URL.Query().Get("code")}

	courses, err := h.service.ListCourses(r.Context(), filter, page)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, courses)
}

func (h *Handler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	course, err := h.service.GetCourseByID(r.Context(), id)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, course)
}

func (h *Handler) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	var req CourseRequest
	if err := httputil.DecodeJSON(r, &req); err != nil || h.validate.Struct(&req) != nil {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	h.logger.InfoContext(r.Context(), "updating course", "id", id, "code", req.Code)
	course, err := h.service.UpdateCourse(r.Context(), id, req)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	httputil.RespondWithJSON(w, http.StatusOK, course)
}

func (h *Handler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(chi.URLParam(r, "id"))
	if !ok {
		httputil.RespondWithError(w, http.StatusBadRequest, "Invalid course ID")
		return
	}

	h.logger.InfoContext(r.Context(), "deleting course", "id", id)
	if err := h.service.DeleteCourse(r.Context(), id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrCourseNotFound):
		httputil.RespondWithError(w, http.StatusNotFound, "Course not found")
	case errors.Is(err, ErrCodeExists):
		h.logger.InfoContext(r.Context(), "course code already exists")
		httputil.RespondWithError(w, http.StatusBadRequest, "Course code already exists")
	case errors.Is(err, ErrInvalidInput):
		httputil.RespondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.ErrorContext(r.Context(), "internal error", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}
