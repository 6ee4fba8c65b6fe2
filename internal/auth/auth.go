package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/timewise-hq/timewise/internal/rules"
)

// Permission names stored in the permissions table. A user's role is
// derived from the set granted to them, see RoleFromPermissions.
const (
	PermissionAdmin          = "admin"
	PermissionManageUsers    = "manage_users"
	PermissionApproveEntries = "approve_entries"
	PermissionViewCompliance = "view_compliance"
	PermissionLogWork        = "log_work"
)

type ServiceAPI interface {
	Authenticate(dto LoginDTO) (AuthTokens, error)
	RefreshTokens(refreshToken string) (AuthTokens, error)
	ValidateAccessToken(tokenString string) (*Claims, error)
	GetUserWithPermissions(userID int64) (*User, error)
	HashPassword(password string) (string, error)
}

type RepositoryAPI interface {
	GetCredentialsByEmail(email string) (*Credentials, error)
	GetUserWithPermissions(userID int64) (*User, error)
}

type TokenGeneratorAPI interface {
	GenerateAccessToken(userID string, email string) (token string, err error)
	GenerateRefreshToken(userID string, email string) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// Credentials is the minimal row the login flow needs. IsActive is
// returned rather than filtered in SQL so inactive users get a distinct
// error instead of a generic credential failure.
type Credentials struct {
	UserID       int64
	PasswordHash string
	IsActive     bool
}

type User struct {
	ID          int64    `json:"id"`
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Country     string   `json:"country,omitempty"`
	IsActive    bool     `json:"is_active"`
	Permissions []string `json:"permissions,omitempty"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func (u *User) HasAnyPermission(permissions []string) bool {
	for _, userPerm := range u.Permissions {
		for _, requiredPerm := range permissions {
			if userPerm == requiredPerm {
				return true
			}
		}
	}
	return false
}

func (u *User) IsAdmin() bool {
	return u.HasPermission(PermissionAdmin)
}

func (u *User) CanApproveEntries() bool {
	return u.HasAnyPermission([]string{PermissionApproveEntries, PermissionAdmin})
}

func (u *User) CanViewCompliance() bool {
	return u.HasAnyPermission([]string{PermissionViewCompliance, PermissionAdmin})
}

// RoleFromPermissions maps a permission set onto the coarse role the
// timesheet rules care about. Admins can approve, so the approve
// permission alone does not make someone an admin; inspection accounts
// carry view_compliance without approve rights.
func RoleFromPermissions(permissions []string) rules.Role {
	u := User{Permissions: permissions}
	if u.IsAdmin() {
		return rules.RoleAdmin
	}
	if u.HasPermission(PermissionViewCompliance) && !u.HasPermission(PermissionApproveEntries) {
		return rules.RoleInspection
	}
	return rules.RoleEmployee
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUserInactive       = errors.New("user is inactive")
)

type ctxKey string

const ContextUserKey ctxKey = "user"

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(ContextUserKey).(*User)
	return u, ok
}

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, ContextUserKey, u)
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
