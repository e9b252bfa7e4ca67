package handler

import (
	"encoding/json"
	"net/http"

	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type RoleRequestHandler struct {
	requestService *service.RoleRequestService
}

func NewRoleRequestHandler(requestService *service.RoleRequestService) *RoleRequestHandler {
	return &RoleRequestHandler{requestService: requestService}
}

func (h *RoleRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	result, err := h.requestService.Submit(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}

	// A fresh request is a creation; a reused denied one is a resubmission.
	code := http.StatusCreated
	if result.Resubmitted {
		code = http.StatusOK
	}
	common.RespondWithJSON(w, code, result)
}

func (h *RoleRequestHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	requests, err := h.requestService.List(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"requests": requests})
}

type resolveRequest struct {
	Status string `json:"status"`
}

func (h *RoleRequestHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req resolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	requestID := chi.URLParam(r, "requestID")
	resolved, err := h.requestService.Resolve(r.Context(), caller, requestID, model.RoleRequestStatus(req.Status))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"request": resolved})
}
