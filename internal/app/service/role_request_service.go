package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/metrics"

	"github.com/google/uuid"
)

// RoleRequestService governs the escalation-request side of the role state
// machine: pending -> approved | denied, with denied requests reusable.
type RoleRequestService struct {
	requestRepo repository.RoleRequestRepository
	userRepo    repository.UserRepository
	db          *sql.DB // For the approve transaction
}

func NewRoleRequestService(
	requestRepo repository.RoleRequestRepository,
	userRepo repository.UserRepository,
	db *sql.DB,
) *RoleRequestService {
	return &RoleRequestService{requestRepo: requestRepo, userRepo: userRepo, db: db}
}

type SubmitResult struct {
	Request     *model.RoleRequest `json:"request"`
	Resubmitted bool               `json:"resubmitted"`
}

// Submit creates an escalation request for the caller, or resets the
// caller's denied request back to pending. An outstanding pending or
// approved request is rejected.
func (s *RoleRequestService) Submit(ctx context.Context, caller *model.User) (*SubmitResult, error) {
	if !Allows(caller.Role, ActionRequestRole) {
		return nil, common.Errorf("only admins may request escalation: %w", common.ErrForbidden)
	}

	existing, err := s.requestRepo.FindByUserID(ctx, caller.ID)
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up role request: %w", err)
	}

	if existing == nil {
		request := &model.RoleRequest{
			ID:     uuid.NewString(),
			UserID: caller.ID,
			Status: model.RequestPending,
		}
		if err := s.requestRepo.Create(ctx, request); err != nil {
			if errors.Is(err, common.ErrConflict) {
				// The partial unique index caught a concurrent submission.
				return nil, common.Errorf("role request already pending: %w", common.ErrBadRequest)
			}
			return nil, fmt.Errorf("failed to create role request: %w", err)
		}
		return &SubmitResult{Request: request}, nil
	}

	switch existing.Status {
	case model.RequestPending:
		return nil, common.Errorf("role request already pending: %w", common.ErrBadRequest)
	case model.RequestApproved:
		return nil, common.Errorf("you are already a superadmin: %w", common.ErrBadRequest)
	case model.RequestDenied:
		// Reuse the denied record: reset in place with a fresh timestamp.
		if err := s.requestRepo.ResetToPending(ctx, existing.ID); err != nil {
			return nil, fmt.Errorf("failed to resubmit role request: %w", err)
		}
		existing.Status = model.RequestPending
		return &SubmitResult{Request: existing, Resubmitted: true}, nil
	default:
		return nil, fmt.Errorf("role request %s has unknown status %q", existing.ID, existing.Status)
	}
}

// List returns all pending requests for a superadmin, and the caller's own
// request (whatever its status) for an admin.
func (s *RoleRequestService) List(ctx context.Context, caller *model.User) ([]model.RoleRequest, error) {
	switch {
	case Allows(caller.Role, ActionListPending):
		requests, err := s.requestRepo.ListPending(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list pending requests: %w", err)
		}
		return requests, nil
	case Allows(caller.Role, ActionListOwnRequest):
		own, err := s.requestRepo.FindByUserID(ctx, caller.ID)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return []model.RoleRequest{}, nil
			}
			return nil, fmt.Errorf("failed to look up role request: %w", err)
		}
		return []model.RoleRequest{*own}, nil
	default:
		return nil, common.Errorf("not authorized to list role requests: %w", common.ErrForbidden)
	}
}

// Resolve moves a pending request to approved or denied. The transition is
// a conditional update, so a request that is no longer pending cannot be
// resolved twice; approval escalates the requesting user in the same
// transaction.
func (s *RoleRequestService) Resolve(ctx context.Context, caller *model.User, requestID string, status model.RoleRequestStatus) (*model.RoleRequest, error) {
	if !Allows(caller.Role, ActionResolveRequest) {
		return nil, common.Errorf("not authorized to resolve role requests: %w", common.ErrForbidden)
	}
	if status != model.RequestApproved && status != model.RequestDenied {
		return nil, common.Errorf("invalid status %q: %w", status, common.ErrBadRequest)
	}

	request, err := s.requestRepo.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Rollback if not committed

	ok, err := s.requestRepo.UpdateStatusIfPending(ctx, tx, requestID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update request status: %w", err)
	}
	if !ok {
		return nil, common.Errorf("no pending request with id %s: %w", requestID, common.ErrNotFound)
	}

	if status == model.RequestApproved {
		if err := s.userRepo.UpdateRole(ctx, tx, request.UserID, model.RoleSuperadmin); err != nil {
			return nil, fmt.Errorf("failed to escalate user %s: %w", request.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit resolution: %w", err)
	}

	if status == model.RequestApproved {
		metrics.RoleTransitions.WithLabelValues("request_approved").Inc()
	} else {
		metrics.RoleTransitions.WithLabelValues("request_denied").Inc()
	}

	request.Status = status
	return request, nil
}
