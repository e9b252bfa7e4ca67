package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/metrics"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/xuri/excelize/v2"
)

type SheetService struct {
	sheetRepo repository.SheetRepository
}

func NewSheetService(sheetRepo repository.SheetRepository) *SheetService {
	return &SheetService{sheetRepo: sheetRepo}
}

// canAccessSheet implements the shared read/delete rule: the owner, or any
// admin/superadmin.
func canAccessSheet(caller *model.User, ownerID string) bool {
	if caller.ID == ownerID {
		return true
	}
	return caller.Role == model.RoleAdmin || caller.Role == model.RoleSuperadmin
}

type UploadResult struct {
	ID         string           `json:"id"`
	FileName   string           `json:"file_name"`
	Slug       string           `json:"slug"`
	SheetName  string           `json:"sheet_name"`
	Headers    []string         `json:"headers"`
	RowCount   int              `json:"row_count"`
	SampleRows []map[string]any `json:"sample_rows"`
}

// Upload parses the first worksheet of an Excel file and stores its rows
// flattened into header-keyed objects.
func (s *SheetService) Upload(ctx context.Context, caller *model.User, fileName string, file io.Reader) (*UploadResult, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	if ext != ".xlsx" && ext != ".xls" && ext != ".xlsm" {
		return nil, common.Errorf("only Excel files (.xls, .xlsx) are allowed: %w", common.ErrBadRequest)
	}

	workbook, err := excelize.OpenReader(file)
	if err != nil {
		return nil, common.Errorf("file is not a readable Excel workbook: %w", common.ErrBadRequest)
	}
	defer workbook.Close()

	sheetName := workbook.GetSheetName(0)
	rows, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, common.Errorf("failed to read worksheet %q: %w", sheetName, common.ErrBadRequest)
	}
	if len(rows) == 0 {
		return nil, common.Errorf("Excel file is empty or could not be parsed: %w", common.ErrBadRequest)
	}

	headers := rows[0]
	dataRows := rows[1:]

	structured := make([]map[string]any, 0, len(dataRows))
	for _, row := range dataRows {
		rowObject := make(map[string]any, len(headers))
		for i, header := range headers {
			if i < len(row) {
				rowObject[header] = row[i]
			} else {
				rowObject[header] = ""
			}
		}
		structured = append(structured, rowObject)
	}

	rowsJSON, err := json.Marshal(structured)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sheet rows: %w", err)
	}

	id := uuid.NewString()
	sheet := &model.Sheet{
		ID:        id,
		UserID:    caller.ID,
		FileName:  fileName,
		Slug:      slug.Make(strings.TrimSuffix(fileName, ext)) + "-" + id[:8],
		SheetName: sheetName,
		Headers:   headers,
		Rows:      rowsJSON,
	}
	if err := s.sheetRepo.Create(ctx, sheet); err != nil {
		return nil, fmt.Errorf("failed to store sheet data: %w", err)
	}

	metrics.SheetUploads.Inc()

	sample := structured
	if len(sample) > 5 {
		sample = sample[:5]
	}
	return &UploadResult{
		ID:         sheet.ID,
		FileName:   sheet.FileName,
		Slug:       sheet.Slug,
		SheetName:  sheet.SheetName,
		Headers:    headers,
		RowCount:   len(structured),
		SampleRows: sample,
	}, nil
}

// History lists the caller's uploads; admins and superadmins see everyone's.
func (s *SheetService) History(ctx context.Context, caller *model.User) ([]model.SheetSummary, error) {
	var (
		sheets []model.SheetSummary
		err    error
	)
	if caller.Role == model.RoleAdmin || caller.Role == model.RoleSuperadmin {
		sheets, err = s.sheetRepo.ListAll(ctx)
	} else {
		sheets, err = s.sheetRepo.ListByUserID(ctx, caller.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list upload history: %w", err)
	}
	return sheets, nil
}

func (s *SheetService) Get(ctx context.Context, caller *model.User, sheetID string) (*model.Sheet, error) {
	sheet, err := s.sheetRepo.FindByID(ctx, sheetID)
	if err != nil {
		return nil, err
	}
	if !canAccessSheet(caller, sheet.UserID) {
		return nil, common.Errorf("you do not have access to view this file: %w", common.ErrForbidden)
	}
	return sheet, nil
}

func (s *SheetService) Delete(ctx context.Context, caller *model.User, sheetID string) error {
	sheet, err := s.sheetRepo.FindByID(ctx, sheetID)
	if err != nil {
		return err
	}
	if !canAccessSheet(caller, sheet.UserID) {
		return common.Errorf("you do not have permission to delete this file: %w", common.ErrForbidden)
	}
	if err := s.sheetRepo.Delete(ctx, sheetID); err != nil {
		return fmt.Errorf("failed to delete sheet: %w", err)
	}
	return nil
}
