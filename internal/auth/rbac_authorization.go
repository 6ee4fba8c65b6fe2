package auth

import (
	"context"
	"log/slog"
	"net/http"
)

type PermissionAuthorizer interface {
	HasPermission(ctx context.Context, userPermissions []string, permission string) (bool, error)
	CanApproveEntriesCtx(ctx context.Context, userPermissions []string) (bool, error)
	CanManageUsersCtx(ctx context.Context, userPermissions []string) (bool, error)
	CanViewComplianceCtx(ctx context.Context, userPermissions []string) (bool, error)
	IsAdminCtx(ctx context.Context, userPermissions []string) (bool, error)
}

type RBACAuthorization struct {
	authorizer PermissionAuthorizer
	logger     *slog.Logger
}

func NewRBACAuthorization(authorizer PermissionAuthorizer, logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{
		authorizer: authorizer,
		logger:     logger,
	}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	mw := ra.guard(permission, func(ctx context.Context, perms []string) (bool, error) {
		return ra.authorizer.HasPermission(ctx, perms, permission)
	})
	return func(w http.ResponseWriter, r *http.Request) {
		mw(next).ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return ra.guard(permission, func(ctx context.Context, perms []string) (bool, error) {
		return ra.authorizer.HasPermission(ctx, perms, permission)
	})
}

func (ra *RBACAuthorization) RequireApproveEntries() func(http.Handler) http.Handler {
	return ra.guard("approve entries", ra.authorizer.CanApproveEntriesCtx)
}

func (ra *RBACAuthorization) RequireManageUsers() func(http.Handler) http.Handler {
	return ra.guard("manage users", ra.authorizer.CanManageUsersCtx)
}

func (ra *RBACAuthorization) RequireViewCompliance() func(http.Handler) http.Handler {
	return ra.guard("view compliance", ra.authorizer.CanViewComplianceCtx)
}

func (ra *RBACAuthorization) RequireAdmin() func(http.Handler) http.Handler {
	return ra.guard("admin", ra.authorizer.IsAdminCtx)
}

func (ra *RBACAuthorization) guard(name string, allowed func(ctx context.Context, userPermissions []string) (bool, error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok || user == nil {
				ra.logger.Warn("authorization check failed: user not found in context", "check", name)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			hasAccess, err := allowed(r.Context(), user.Permissions)
			if err != nil {
				ra.logger.ErrorContext(r.Context(), "authorization check failed",
					"error", err, "user_id", user.ID, "check", name)
				http.Error(w, "Internal server error", http.StatusInternalServerError)
				return
			}

			if !hasAccess {
				ra.logger.WarnContext(r.Context(), "access denied: insufficient permissions",
					"user_id", user.ID,
					"check", name,
					"user_permissions", user.Permissions)
				http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
