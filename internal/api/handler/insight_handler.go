package handler

import (
	"encoding/json"
	"net/http"

	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common"
)

type InsightHandler struct {
	insightService *service.InsightService
}

func NewInsightHandler(insightService *service.InsightService) *InsightHandler {
	return &InsightHandler{insightService: insightService}
}

func (h *InsightHandler) Insights(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	var req service.InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}

	resp, err := h.insightService.Insights(r.Context(), caller, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, resp)
}
