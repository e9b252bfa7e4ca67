package handler

import (
	"encoding/json"
	"net/http"

	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common"

	"github.com/go-chi/chi/v5"
)

type AdminHandler struct {
	adminService *service.AdminService
}

func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	users, err := h.adminService.ListUsers(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"users": users})
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req changeRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	targetID := chi.URLParam(r, "userID")
	user, err := h.adminService.ChangeUserRole(r.Context(), caller, targetID, req.Role)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"user": user})
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	targetID := chi.URLParam(r, "userID")
	if err := h.adminService.DeleteUser(r.Context(), caller, targetID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, common.MessageResponse{Message: "User deleted successfully"})
}

func (h *AdminHandler) UserCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	count, err := h.adminService.UserCount(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (h *AdminHandler) FileCount(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	count, err := h.adminService.SheetCount(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]int{"count": count})
}
