package user

import (
	"strings"

	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/core/common/validation"
	"github.com/timewise-hq/timewise/internal/rules"
)

type CreateUserDTO struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
	Country  string `json:"country"`
	Role     string `json:"role"`
}

type AssignRoleDTO struct {
	Role string `json:"role"`
}

type UserResponse struct {
	*User
	Role rules.Role `json:"role"`
}

func NewUserResponse(u *User) UserResponse {
	return UserResponse{User: u, Role: u.Role()}
}

func (d *CreateUserDTO) Validate(countries []string) *errors.AppError {
	validator := validation.NewValidator()

	validator.Field("email", d.Email).
		Required().
		MaxLength(254).
		Custom(func(value interface{}) *errors.AppError {
			v, _ := value.(string)
			if v != "" && !strings.Contains(v, "@") {
				return errors.NewValidationFieldError("email", "email must be a valid address", errors.ErrCodeValidationFailed)
			}
			return nil
		})

	validator.Field("name", d.Name).
		Required().
		MaxLength(120)

	validator.Field("password", d.Password).
		Required().
		Custom(func(value interface{}) *errors.AppError {
			v, _ := value.(string)
			if v != "" && len(v) < 8 {
				return errors.NewValidationFieldError("password", "password must be at least 8 characters", errors.ErrCodeValidationFailed)
			}
			return nil
		})

	validator.Field("role", d.Role).
		Required().
		OneOf(RoleNames(), errors.ErrCodeValidationFailed)

	if len(countries) > 0 {
		validator.Field("country", d.Country).
			Required().
			OneOf(countries, errors.ErrCodeValidationFailed)
	}

	return validator.Validate()
}

func (d *AssignRoleDTO) Validate() *errors.AppError {
	validator := validation.NewValidator()
	validator.Field("role", d.Role).
		Required().
		OneOf(RoleNames(), errors.ErrCodeValidationFailed)
	return validator.Validate()
}
