package service

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestUploadParsesHeadersAndRows(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)

	buf := buildWorkbook(t, [][]any{
		{"Region", "Revenue"},
		{"North", "1200"},
		{"South", "800"},
	})

	var stored *model.Sheet
	sheetRepo.On("Create", mock.Anything, mock.MatchedBy(func(s *model.Sheet) bool {
		stored = s
		return s.UserID == plainUser.ID && s.FileName == "sales report.xlsx"
	})).Return(nil)

	result, err := svc.Upload(context.Background(), plainUser, "sales report.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"Region", "Revenue"}, result.Headers)
	assert.Equal(t, 2, result.RowCount)
	assert.Equal(t, "Sheet1", result.SheetName)
	assert.True(t, strings.HasPrefix(result.Slug, "sales-report-"))

	require.NotNil(t, stored)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(stored.Rows, &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "North", rows[0]["Region"])
	assert.Equal(t, "800", rows[1]["Revenue"])
}

func TestUploadPadsShortRows(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)
	sheetRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	buf := buildWorkbook(t, [][]any{
		{"A", "B", "C"},
		{"only-a"},
	})

	result, err := svc.Upload(context.Background(), plainUser, "short.xlsx", buf)
	require.NoError(t, err)
	assert.Equal(t, "", result.SampleRows[0]["C"])
	assert.Equal(t, "only-a", result.SampleRows[0]["A"])
}

func TestUploadSampleCappedAtFiveRows(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)
	sheetRepo.On("Create", mock.Anything, mock.Anything).Return(nil)

	rows := [][]any{{"N"}}
	for i := 0; i < 8; i++ {
		rows = append(rows, []any{"v"})
	}

	result, err := svc.Upload(context.Background(), plainUser, "big.xlsx", buildWorkbook(t, rows))
	require.NoError(t, err)
	assert.Equal(t, 8, result.RowCount)
	assert.Len(t, result.SampleRows, 5)
}

func TestUploadRejectsNonExcelExtension(t *testing.T) {
	svc := NewSheetService(new(MockSheetRepository))

	_, err := svc.Upload(context.Background(), plainUser, "data.csv", strings.NewReader("a,b"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
}

func TestUploadRejectsUnreadableWorkbook(t *testing.T) {
	svc := NewSheetService(new(MockSheetRepository))

	_, err := svc.Upload(context.Background(), plainUser, "junk.xlsx", strings.NewReader("not a workbook"))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
}

func TestUploadRejectsEmptyWorkbook(t *testing.T) {
	svc := NewSheetService(new(MockSheetRepository))

	_, err := svc.Upload(context.Background(), plainUser, "empty.xlsx", buildWorkbook(t, nil))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, common.HTTPStatusFromError(err))
}

func TestHistoryScopesByRole(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)

	sheetRepo.On("ListByUserID", mock.Anything, plainUser.ID).Return([]model.SheetSummary{{ID: "s1"}}, nil)
	sheetRepo.On("ListAll", mock.Anything).Return([]model.SheetSummary{{ID: "s1"}, {ID: "s2"}}, nil)

	own, err := svc.History(context.Background(), plainUser)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	all, err := svc.History(context.Background(), admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetEnforcesOwnership(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{ID: "s1", UserID: "someone-else"}, nil)

	_, err := svc.Get(context.Background(), plainUser, "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))

	// Admins can read anyone's sheet.
	sheet, err := svc.Get(context.Background(), admin, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", sheet.ID)
}

func TestGetUnknownSheet(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)
	sheetRepo.On("FindByID", mock.Anything, "ghost").Return(nil, common.ErrNotFound)

	_, err := svc.Get(context.Background(), plainUser, "ghost")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, common.HTTPStatusFromError(err))
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	sheetRepo := new(MockSheetRepository)
	svc := NewSheetService(sheetRepo)

	sheetRepo.On("FindByID", mock.Anything, "s1").Return(&model.Sheet{ID: "s1", UserID: plainUser.ID}, nil)
	sheetRepo.On("Delete", mock.Anything, "s1").Return(nil)

	require.NoError(t, svc.Delete(context.Background(), plainUser, "s1"))

	stranger := &model.User{ID: "stranger", Role: model.RoleUser}
	err := svc.Delete(context.Background(), stranger, "s1")
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, common.HTTPStatusFromError(err))
}
