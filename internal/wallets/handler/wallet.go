package handler

import (
	"abclisting/internal/wallets/service"
	httputil "abclisting/pkg/http"
	"abclisting/pkg/logger"
	"abclisting/pkg/middleware"
	"abclisting/pkg/model"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type WalletHandler struct {
	service service.WalletService
	log     *logger.Logger
}

func NewWalletHandler(service service.WalletService, log *logger.Logger) *WalletHandler {
	return &WalletHandler{
		service: service,
		log:     log,
	}
}

func (h *WalletHandler) Connect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.ConnectWalletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Connect", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	viewer, err := h.service.Connect(r.Context(), middleware.GetViewerID(r.Context()), req.Code)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Connect", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, viewer); err != nil {
		h.log.Error("failed to write success response", "handler", "Connect", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WalletHandler) Disconnect(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	viewer, err := h.service.Disconnect(r.Context(), middleware.GetViewerID(r.Context()))
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Disconnect", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, viewer); err != nil {
		h.log.Error("failed to write success response", "handler", "Disconnect", "operation", "WriteSuccess", "error", err)
	}
}

func (h *WalletHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/viewer/wallet", h.Connect)
	router.DELETE("/api/v1/viewer/wallet", h.Disconnect)
}
