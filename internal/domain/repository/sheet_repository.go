package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"
)

type SheetRepository interface {
	Create(ctx context.Context, sheet *model.Sheet) error
	FindByID(ctx context.Context, id string) (*model.Sheet, error)
	ListByUserID(ctx context.Context, userID string) ([]model.SheetSummary, error)
	ListAll(ctx context.Context) ([]model.SheetSummary, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

type pgSheetRepository struct {
	db *sql.DB
}

func NewPgSheetRepository(db *sql.DB) SheetRepository {
	return &pgSheetRepository{db: db}
}

func (r *pgSheetRepository) Create(ctx context.Context, sheet *model.Sheet) error {
	headers, err := json.Marshal(sheet.Headers)
	if err != nil {
		return fmt.Errorf("pgSheetRepository.Create marshal headers: %w", err)
	}
	query := `INSERT INTO sheets (id, user_id, file_name, slug, sheet_name, headers, rows, uploaded_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, now())`
	_, err = r.db.ExecContext(ctx, query, sheet.ID, sheet.UserID, sheet.FileName, sheet.Slug,
		sheet.SheetName, headers, []byte(sheet.Rows))
	if err != nil {
		return fmt.Errorf("pgSheetRepository.Create: %w", err)
	}
	return nil
}

func (r *pgSheetRepository) FindByID(ctx context.Context, id string) (*model.Sheet, error) {
	query := `SELECT s.id, s.user_id, u.username, s.file_name, s.slug, s.sheet_name, s.headers, s.rows, s.uploaded_at
	          FROM sheets s
	          JOIN users u ON u.id = s.user_id
	          WHERE s.id = $1`
	sheet := &model.Sheet{}
	var headers, rowsJSON []byte
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&sheet.ID, &sheet.UserID, &sheet.Uploader, &sheet.FileName, &sheet.Slug,
		&sheet.SheetName, &headers, &rowsJSON, &sheet.UploadedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgSheetRepository.FindByID: %w", err)
	}
	if err := json.Unmarshal(headers, &sheet.Headers); err != nil {
		return nil, fmt.Errorf("pgSheetRepository.FindByID unmarshal headers: %w", err)
	}
	sheet.Rows = json.RawMessage(rowsJSON)
	return sheet, nil
}

func (r *pgSheetRepository) ListByUserID(ctx context.Context, userID string) ([]model.SheetSummary, error) {
	query := listQuery + ` WHERE s.user_id = $1 ORDER BY s.uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.ListByUserID: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (r *pgSheetRepository) ListAll(ctx context.Context) ([]model.SheetSummary, error) {
	query := listQuery + ` ORDER BY s.uploaded_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("pgSheetRepository.ListAll: %w", err)
	}
	defer rows.Close()
	return scanSummaries(rows)
}

const listQuery = `SELECT s.id, s.user_id, u.username, s.file_name, s.slug, s.sheet_name, s.headers, s.uploaded_at
	          FROM sheets s
	          JOIN users u ON u.id = s.user_id`

func scanSummaries(rows *sql.Rows) ([]model.SheetSummary, error) {
	var sheets []model.SheetSummary
	for rows.Next() {
		var s model.SheetSummary
		var headers []byte
		if err := rows.Scan(&s.ID, &s.UserID, &s.Uploader, &s.FileName, &s.Slug, &s.SheetName, &headers, &s.UploadedAt); err != nil {
			return nil, fmt.Errorf("pgSheetRepository scan: %w", err)
		}
		if err := json.Unmarshal(headers, &s.Headers); err != nil {
			return nil, fmt.Errorf("pgSheetRepository unmarshal headers: %w", err)
		}
		sheets = append(sheets, s)
	}
	return sheets, rows.Err()
}

func (r *pgSheetRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sheets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("pgSheetRepository.Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgSheetRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sheets`).Scan(&count); err != nil {
		return 0, fmt.Errorf("pgSheetRepository.Count: %w", err)
	}
	return count, nil
}
