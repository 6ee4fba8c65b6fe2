package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "github.com/timewise-hq/timewise/internal"
	userDatamodel "github.com/timewise-hq/timewise/internal/core/datamodel/user"
	"github.com/timewise-hq/timewise/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(u *user.User) error {
	dm := user.ToDataModel(u)
	if err := r.db.Create(dm).Error; err != nil {
		return err
	}
	u.ID = dm.ID
	u.CreatedAt = dm.CreatedAt
	u.UpdatedAt = dm.UpdatedAt
	return nil
}

func (r *UserRepository) GetByID(userID int64) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.First(&dm, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError(
				fmt.Sprintf("user with id %d not found", userID),
				apperrors.ErrCodeUserNotFound)
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) GetByEmail(email string) (*user.User, error) {
	var dm userDatamodel.User
	if err := r.db.Where("email = ?", email).First(&dm).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user.FromDataModel(&dm), nil
}

func (r *UserRepository) List(includeInactive bool) ([]*user.User, error) {
	var dms []*userDatamodel.User
	q := r.db.Order("name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&dms).Error; err != nil {
		return nil, err
	}

	users := make([]*user.User, 0, len(dms))
	for _, dm := range dms {
		users = append(users, user.FromDataModel(dm))
	}
	return users, nil
}

func (r *UserRepository) GetPermissions(userID int64) ([]string, error) {
	query := `SELECT p.name
	          FROM permissions p
	          JOIN user_permissions up ON p.id = up.permission_id
	          WHERE up.user_id = ?`

	rows, err := r.db.Raw(query, userID).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var permissions []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		permissions = append(permissions, name)
	}
	return permissions, rows.Err()
}

func (r *UserRepository) SetActive(userID int64, active bool) error {
	result := r.db.Model(&userDatamodel.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"is_active":  active,
			"updated_at": gorm.Expr("now()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError(
			fmt.Sprintf("user with id %d not found", userID),
			apperrors.ErrCodeUserNotFound)
	}
	return nil
}

// ReplacePermissions swaps the user's grants for the given set inside a
// transaction so a failed role change never leaves partial grants.
func (r *UserRepository) ReplacePermissions(userID int64, permissionNames []string, grantedBy int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&userDatamodel.UserPermission{}).Error; err != nil {
			return err
		}

		for _, name := range permissionNames {
			var perm userDatamodel.Permission
			if err := tx.Where("name = ?", name).First(&perm).Error; err != nil {
				return fmt.Errorf("unknown permission %q: %w", name, err)
			}

			grant := &userDatamodel.UserPermission{
				UserID:       userID,
				PermissionID: perm.ID,
				GrantedBy:    &grantedBy,
			}
			if err := tx.Create(grant).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
