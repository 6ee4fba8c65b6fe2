package auth

import "context"

type PermissionChecker interface {
	CanApproveEntries(userPermissions []string) bool
	CanManageUsers(userPermissions []string) bool
	CanViewCompliance(userPermissions []string) bool
	CanLogWork(userPermissions []string) bool
	HasAnyPermission(userPermissions []string, requiredPermissions []string) bool
	IsAdmin(userPermissions []string) bool
}

type DefaultPermissionChecker struct{}

func NewPermissionChecker() *DefaultPermissionChecker {
	return &DefaultPermissionChecker{}
}

func (c *DefaultPermissionChecker) HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error) {
	return c.HasAnyPermission(userPermissions, []string{permission}), nil
}

func (c *DefaultPermissionChecker) CanApproveEntriesCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanApproveEntries(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanManageUsersCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanManageUsers(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanViewComplianceCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.CanViewCompliance(userPermissions), nil
}

func (c *DefaultPermissionChecker) IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error) {
	return c.IsAdmin(userPermissions), nil
}

func (c *DefaultPermissionChecker) CanApproveEntries(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionApproveEntries, PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanManageUsers(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionManageUsers, PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanViewCompliance(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionViewCompliance, PermissionAdmin})
}

func (c *DefaultPermissionChecker) CanLogWork(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionLogWork, PermissionAdmin})
}

func (c *DefaultPermissionChecker) HasAnyPermission(userPermissions []string, requiredPermissions []string) bool {
	for _, userPerm := range userPermissions {
		for _, requiredPerm := range requiredPermissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (c *DefaultPermissionChecker) IsAdmin(userPermissions []string) bool {
	return c.HasAnyPermission(userPermissions, []string{PermissionAdmin})
}
