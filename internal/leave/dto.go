package leave

import (
	errors "github.com/timewise-hq/timewise/internal"
	"github.com/timewise-hq/timewise/internal/core/common/validation"
)

type CreateLeaveDateDTO struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (dto CreateLeaveDateDTO) Validate() *errors.AppError {
	v := validation.NewValidator()
	v.Field("date", dto.Date).Required()
	v.Field("name", dto.Name).
		Required().
		MaxLength(120)
	return v.Validate()
}
