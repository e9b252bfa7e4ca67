package service

import (
	"context"
	"fmt"

	"sheet_analytics/internal/common"
	"sheet_analytics/internal/domain/model"
	"sheet_analytics/internal/domain/repository"
	"sheet_analytics/internal/platform/metrics"
)

// AdminService holds the direct role-transition and user-management side of
// the role state machine.
type AdminService struct {
	userRepo  repository.UserRepository
	sheetRepo repository.SheetRepository
}

func NewAdminService(userRepo repository.UserRepository, sheetRepo repository.SheetRepository) *AdminService {
	return &AdminService{userRepo: userRepo, sheetRepo: sheetRepo}
}

func (s *AdminService) ListUsers(ctx context.Context, caller *model.User) ([]model.User, error) {
	if !Allows(caller.Role, ActionListUsers) {
		return nil, common.Errorf("not authorized to view users: %w", common.ErrForbidden)
	}
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ChangeUserRole is the direct any-to-any transition. A superadmin may set
// any valid role on any user except a different superadmin: the only
// self-exempt path is a superadmin changing their own role.
func (s *AdminService) ChangeUserRole(ctx context.Context, caller *model.User, targetID, newRole string) (*model.User, error) {
	if !Allows(caller.Role, ActionSetRole) {
		return nil, common.Errorf("not authorized to change roles: %w", common.ErrForbidden)
	}
	if !model.IsValidRole(newRole) {
		return nil, common.Errorf("invalid role %q: %w", newRole, common.ErrBadRequest)
	}

	target, err := s.userRepo.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == model.RoleSuperadmin && target.ID != caller.ID {
		return nil, common.Errorf("cannot change the role of another superadmin: %w", common.ErrForbidden)
	}

	if err := s.userRepo.UpdateRole(ctx, nil, target.ID, newRole); err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	metrics.RoleTransitions.WithLabelValues("direct_set").Inc()
	target.Role = newRole
	target.HashedPassword = ""
	return target, nil
}

func (s *AdminService) DeleteUser(ctx context.Context, caller *model.User, targetID string) error {
	if !Allows(caller.Role, ActionDeleteUser) {
		return common.Errorf("not authorized to delete users: %w", common.ErrForbidden)
	}
	if targetID == caller.ID {
		return common.Errorf("you cannot delete yourself: %w", common.ErrForbidden)
	}

	if _, err := s.userRepo.FindByID(ctx, targetID); err != nil {
		return err
	}
	if err := s.userRepo.Delete(ctx, targetID); err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *AdminService) UserCount(ctx context.Context, caller *model.User) (int, error) {
	if !Allows(caller.Role, ActionViewCounts) {
		return 0, common.Errorf("not authorized to view counts: %w", common.ErrForbidden)
	}
	return s.userRepo.Count(ctx)
}

func (s *AdminService) SheetCount(ctx context.Context, caller *model.User) (int, error) {
	if !Allows(caller.Role, ActionViewCounts) {
		return 0, common.Errorf("not authorized to view counts: %w", common.ErrForbidden)
	}
	return s.sheetRepo.Count(ctx)
}
