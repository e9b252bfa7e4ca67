package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"

	"github.com/jackc/pgx/v5/pgconn"
)

type RoleRequestRepository interface {
	Create(ctx context.Context, req *model.RoleRequest) error
	FindByUserID(ctx context.Context, userID string) (*model.RoleRequest, error)
	FindByID(ctx context.Context, id string) (*model.RoleRequest, error)
	ResetToPending(ctx context.Context, id string) error
	ListPending(ctx context.Context) ([]model.RoleRequest, error)
	UpdateStatusIfPending(ctx context.Context, tx *sql.Tx, id string, status model.RoleRequestStatus) (bool, error)
}

type pgRoleRequestRepository struct {
	db *sql.DB
}

func NewPgRoleRequestRepository(db *sql.DB) RoleRequestRepository {
	return &pgRoleRequestRepository{db: db}
}

func (r *pgRoleRequestRepository) Create(ctx context.Context, req *model.RoleRequest) error {
	query := `INSERT INTO role_requests (id, user_id, status, created_at)
	          VALUES ($1, $2, $3, now())`
	_, err := r.db.ExecContext(ctx, query, req.ID, req.UserID, req.Status)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // One pending per user
			return fmt.Errorf("pending role request already exists: %w", common.ErrConflict)
		}
		return fmt.Errorf("pgRoleRequestRepository.Create: %w", err)
	}
	return nil
}

func (r *pgRoleRequestRepository) FindByUserID(ctx context.Context, userID string) (*model.RoleRequest, error) {
	query := `SELECT id, user_id, status, created_at
	          FROM role_requests WHERE user_id = $1`
	req := &model.RoleRequest{}
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&req.ID, &req.UserID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRoleRequestRepository.FindByUserID: %w", err)
	}
	return req, nil
}

func (r *pgRoleRequestRepository) FindByID(ctx context.Context, id string) (*model.RoleRequest, error) {
	query := `SELECT id, user_id, status, created_at
	          FROM role_requests WHERE id = $1`
	req := &model.RoleRequest{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&req.ID, &req.UserID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgRoleRequestRepository.FindByID: %w", err)
	}
	return req, nil
}

// ResetToPending reuses a denied request for resubmission: same record,
// refreshed timestamp.
func (r *pgRoleRequestRepository) ResetToPending(ctx context.Context, id string) error {
	query := `UPDATE role_requests SET status = $1, created_at = now() WHERE id = $2`
	res, err := r.db.ExecContext(ctx, query, model.RequestPending, id)
	if err != nil {
		return fmt.Errorf("pgRoleRequestRepository.ResetToPending: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *pgRoleRequestRepository) ListPending(ctx context.Context) ([]model.RoleRequest, error) {
	query := `SELECT rr.id, rr.user_id, u.username, rr.status, rr.created_at
	          FROM role_requests rr
	          JOIN users u ON u.id = rr.user_id
	          WHERE rr.status = $1
	          ORDER BY rr.created_at`
	rows, err := r.db.QueryContext(ctx, query, model.RequestPending)
	if err != nil {
		return nil, fmt.Errorf("pgRoleRequestRepository.ListPending: %w", err)
	}
	defer rows.Close()

	var requests []model.RoleRequest
	for rows.Next() {
		var req model.RoleRequest
		if err := rows.Scan(&req.ID, &req.UserID, &req.Username, &req.Status, &req.CreatedAt); err != nil {
			return nil, fmt.Errorf("pgRoleRequestRepository.ListPending scan: %w", err)
		}
		requests = append(requests, req)
	}
	return requests, rows.Err()
}

// UpdateStatusIfPending performs the conditional transition out of
// "pending". It reports false when the request was not pending (or gone),
// so a concurrent approve/deny cannot both win.
func (r *pgRoleRequestRepository) UpdateStatusIfPending(ctx context.Context, tx *sql.Tx, id string, status model.RoleRequestStatus) (bool, error) {
	query := `UPDATE role_requests SET status = $1 WHERE id = $2 AND status = $3`
	var res sql.Result
	var err error
	if tx != nil {
		res, err = tx.ExecContext(ctx, query, status, id, model.RequestPending)
	} else {
		res, err = r.db.ExecContext(ctx, query, status, id, model.RequestPending)
	}
	if err != nil {
		return false, fmt.Errorf("pgRoleRequestRepository.UpdateStatusIfPending: %w", err)
	}
	n, _ := res.RowsAffected()
	return n == 1, nil
}
