package user

import (
	"fmt"
	"log/slog"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/auth"
	"github.com/timewise-hq/timewise/internal/rules"
	"github.com/timewise-hq/timewise/internal/settings"
)

type Repository interface {
	Create(user *User) error
	GetByID(userID int64) (*User, error)
	// GetByEmail returns (nil, nil) when no user has the address.
	GetByEmail(email string) (*User, error)
	List(includeInactive bool) ([]*User, error)
	GetPermissions(userID int64) ([]string, error)
	SetActive(userID int64, active bool) error
	ReplacePermissions(userID int64, permissionNames []string, grantedBy int64) error
}

// PasswordHasher is satisfied by the auth service.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

type Service struct {
	repo     Repository
	hasher   PasswordHasher
	settings settings.Provider
	logger   *slog.Logger
}

func NewService(repo Repository, hasher PasswordHasher, settingsProvider settings.Provider, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		hasher:   hasher,
		settings: settingsProvider,
		logger:   logger,
	}
}

// CreateUser registers a new account with the permission set of the
// requested role. Only user managers may call it.
func (s *Service) CreateUser(actor *auth.User, dto CreateUserDTO) (*User, error) {
	if err := s.requireManageUsers(actor); err != nil {
		return nil, err
	}

	if err := dto.Validate(s.settings.Timesheet().Countries); err != nil {
		return nil, err
	}

	existing, err := s.repo.GetByEmail(dto.Email)
	if err != nil {
		return nil, errors.NewInternalError("failed to check existing email", err)
	}
	if existing != nil {
		return nil, errors.NewConflictError(
			fmt.Sprintf("a user with email %s already exists", dto.Email),
			errors.ErrCodeDuplicateEmail)
	}

	hash, err := s.hasher.HashPassword(dto.Password)
	if err != nil {
		return nil, errors.NewInternalError("failed to hash password", err)
	}

	u := &User{
		Email:        dto.Email,
		Name:         dto.Name,
		PasswordHash: hash,
		Country:      dto.Country,
		IsActive:     true,
	}

	if err := s.repo.Create(u); err != nil {
		return nil, errors.NewInternalError("failed to create user", err)
	}

	perms, _ := PermissionsForRole(rules.Role(dto.Role))
	if err := s.repo.ReplacePermissions(u.ID, perms, actor.ID); err != nil {
		return nil, errors.NewInternalError("failed to grant role permissions", err)
	}
	u.Permissions = perms

	s.logger.Info("user created", "user_id", u.ID, "email", u.Email, "role", dto.Role, "created_by", actor.ID)
	return u, nil
}

func (s *Service) GetUser(userID int64) (*User, error) {
	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	perms, err := s.repo.GetPermissions(userID)
	if err != nil {
		return nil, errors.NewInternalError("failed to get user permissions", err)
	}
	u.Permissions = perms

	return u, nil
}

func (s *Service) ListUsers(actor *auth.User, includeInactive bool) ([]*User, error) {
	if err := s.requireManageUsers(actor); err != nil {
		return nil, err
	}
	return s.listWithPermissions(includeInactive)
}

// ActiveUsers backs the compliance and notification directories. It is
// not permission gated, callers are internal.
func (s *Service) ActiveUsers() ([]*User, error) {
	return s.listWithPermissions(false)
}

// SetUserActive deactivates or reactivates an account. Deactivated
// users keep their entries but can no longer log in.
func (s *Service) SetUserActive(actor *auth.User, userID int64, active bool) (*User, error) {
	if err := s.requireManageUsers(actor); err != nil {
		return nil, err
	}

	if actor.ID == userID && !active {
		return nil, errors.NewValidationError("cannot deactivate your own account", errors.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetActive(userID, active); err != nil {
		return nil, errors.NewInternalError("failed to update user status", err)
	}
	u.IsActive = active

	s.logger.Info("user status changed", "user_id", userID, "active", active, "changed_by", actor.ID)
	return u, nil
}

// AssignRole replaces the user's permission grants with the role's set.
func (s *Service) AssignRole(actor *auth.User, userID int64, dto AssignRoleDTO) (*User, error) {
	if err := s.requireManageUsers(actor); err != nil {
		return nil, err
	}

	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if actor.ID == userID && rules.Role(dto.Role) != rules.RoleAdmin {
		return nil, errors.NewValidationError("cannot remove your own admin role", errors.ErrCodeValidationFailed)
	}

	u, err := s.repo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	perms, _ := PermissionsForRole(rules.Role(dto.Role))
	if err := s.repo.ReplacePermissions(userID, perms, actor.ID); err != nil {
		return nil, errors.NewInternalError("failed to assign role", err)
	}
	u.Permissions = perms

	s.logger.Info("role assigned", "user_id", userID, "role", dto.Role, "assigned_by", actor.ID)
	return u, nil
}

func (s *Service) listWithPermissions(includeInactive bool) ([]*User, error) {
	users, err := s.repo.List(includeInactive)
	if err != nil {
		return nil, errors.NewInternalError("failed to list users", err)
	}
	for _, u := range users {
		perms, err := s.repo.GetPermissions(u.ID)
		if err != nil {
			return nil, errors.NewInternalError("failed to get user permissions", err)
		}
		u.Permissions = perms
	}
	return users, nil
}

func (s *Service) requireManageUsers(actor *auth.User) error {
	if actor == nil {
		return errors.NewUnauthorizedError("authentication required", errors.ErrCodeUnauthorizedAccess)
	}
	if !actor.HasAnyPermission([]string{auth.PermissionManageUsers, auth.PermissionAdmin}) {
		return errors.NewForbiddenError("user management requires admin access", errors.ErrCodeUnauthorizedAccess)
	}
	return nil
}
