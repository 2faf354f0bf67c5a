package auth

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"

	"college-service/internal/httputil"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const maxLoginFormMemory = 1 << 20

type Handler struct {
	service   *Service
	logger    *slog.Logger
	validator *validator.Validate
}

func NewHandler(service *Service, logger *slog.Logger) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator.New(),
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/token", h.Token)
}

// Token authenticates a user and returns a bearer token.
// Accepts the OAuth2 password form or a JSON body.
func (h *Handler) Token(w http.ResponseWriter, r *http.Request) {
	req, err := decodeLogin(r)
	if err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode login request", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		h.logger.WarnContext(r.Context(), "validation failed", "error", err)
		httputil.RespondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	resp, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.logger.InfoContext(r.Context(), "login rejected", "username", req.Username)
			w.Header().Set("WWW-Authenticate", "Bearer")
			httputil.RespondWithError(w, http.StatusUnauthorized, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		httputil.RespondWithError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.InfoContext(r.Context(), "user logged in", "username", req.Username)
	httputil.RespondWithJSON(w, http.StatusOK, resp)
}

func decodeLogin(r *http.Request) (LoginRequest, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "application/x-www-form-urlencoded":
		if err := r.ParseForm(); err != nil {
			return LoginRequest{}, err
		}
		return formLogin(r), nil
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxLoginFormMemory); err != nil {
			return LoginRequest{}, err
		}
		return formLogin(r), nil
	default:
		var req LoginRequest
		err := httputil.DecodeJSON(r, &req)
		return req, err
	}
}

func formLogin(r *http.Request) LoginRequest {
	return LoginRequest{
		Username: r.PostForm.Get("username"),
		Password: r.PostForm.Get("password"),
	}
}
