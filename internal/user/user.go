package user

import (
	"time"

	userDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/user"
	"github.com/timewise-hq/timewise/internal/rules"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Country      string    `json:"country"`
	IsActive     bool      `json:"is_active"`
	Permissions  []string  `json:"permissions,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Role derives the coarse role from the granted permission set.
func (u *User) Role() rules.Role {
	if u.HasPermission("admin") {
		return rules.RoleAdmin
	}
	if u.HasPermission("view_compliance") && !u.HasPermission("approve_entries") {
		return rules.RoleInspection
	}
	return rules.RoleEmployee
}

// rolePermissions is the canonical permission set per role. Assigning a
// role replaces the user's grants with exactly this set.
var rolePermissions = map[rules.Role][]string{
	rules.RoleAdmin:      {"admin", "manage_users", "approve_entries", "view_compliance", "log_work"},
	rules.RoleEmployee:   {"log_work"},
	rules.RoleInspection: {"view_compliance"},
}

func PermissionsForRole(role rules.Role) ([]string, bool) {
	perms, ok := rolePermissions[role]
	if !ok {
		return nil, false
	}
	out := make([]string, len(perms))
	copy(out, perms)
	return out, true
}

func RoleNames() []string {
	return []string{string(rules.RoleAdmin), string(rules.RoleEmployee), string(rules.RoleInspection)}
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Country:      u.Country,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Country:      u.Country,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
		Permissions:  []string{},
	}
}

func FromDataModelWithPermissions(u *userDatamodel.User, permissions []string) *User {
	domainUser := FromDataModel(u)
	domainUser.Permissions = permissions
	return domainUser
}
