package handler

import (
	"net/http"

	"sheet_analytics/internal/api/middleware"
	"sheet_analytics/internal/app/service"
	"sheet_analytics/internal/common"
	"sheet_analytics/internal/platform/config"

	"github.com/go-chi/chi/v5"
)

type SheetHandler struct {
	sheetService *service.SheetService
}

func NewSheetHandler(sheetService *service.SheetService) *SheetHandler {
	return &SheetHandler{sheetService: sheetService}
}

func (h *SheetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, config.AppConfig.UploadMaxBytes)
	if err := r.ParseMultipartForm(config.AppConfig.UploadMaxBytes); err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	file, header, err := r.FormFile("excelFile")
	if err != nil {
		common.RespondWithError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	result, err := h.sheetService.Upload(r.Context(), caller, header.Filename, file)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusCreated, result)
}

func (h *SheetHandler) History(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	sheets, err := h.sheetService.History(r.Context(), caller)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"history": sheets})
}

func (h *SheetHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	sheet, err := h.sheetService.Get(r.Context(), caller, chi.URLParam(r, "sheetID"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"data": sheet})
}

func (h *SheetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.GetIdentityFromContext(r.Context())
	if !ok {
		common.RespondWithError(w, http.StatusUnauthorized, "Missing user context")
		return
	}

	sheetID := chi.URLParam(r, "sheetID")
	if err := h.sheetService.Delete(r.Context(), caller, sheetID); err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithJSON(w, http.StatusOK, map[string]any{"message": "File deleted successfully", "id": sheetID})
}
