package handler

import (
	"abclisting/internal/users/service"
	apperrors "abclisting/pkg/errors"
	httputil "abclisting/pkg/http"
	"abclisting/pkg/logger"
	"abclisting/pkg/middleware"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type UserHandler struct {
	service service.UserService
	log     *logger.Logger
}

func NewUserHandler(service service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		log:     log,
	}
}

// Viewer signs the token's subject in, creating the user on first call.
func (h *UserHandler) Viewer(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	claims, ok := middleware.GetViewerClaims(r.Context())
	if !ok {
		if writeErr := httputil.WriteError(w, apperrors.Unauthorized("Viewer cannot be found")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Viewer", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	viewer, err := h.service.SignIn(r.Context(), service.Identity{
		ID:      claims.Subject,
		Name:    claims.Name,
		Avatar:  claims.Avatar,
		Contact: claims.Contact,
	})
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Viewer", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, viewer); err != nil {
		h.log.Error("failed to write success response", "handler", "Viewer", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	profile, err := h.service.GetProfile(r.Context(), middleware.GetViewerID(r.Context()), ps.ByName("id"))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, profile); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *UserHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/viewer", h.Viewer)
	router.GET("/api/v1/users/id/:id", h.GetByID)
}
