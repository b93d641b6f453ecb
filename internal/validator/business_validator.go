package validator

import (
	validatorv10 "github.com/go-playground/validator/v10"

	"github.com/SAP-F-2025/moderation-service/internal/models"
)

// Validator wraps go-playground struct validation plus the business rules
// of the moderation workflow (role and status enums).
type Validator struct {
	validate *validatorv10.Validate
}

func New() *Validator {
	validate := validatorv10.New()

	v := &Validator{validate: validate}
	v.registerBusinessRules()

	return v
}

// Validate validates a struct; returns nil when everything passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	if err := v.validate.Struct(s); err != nil {
		return ToValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerBusinessRules() {
	v.validate.RegisterValidation("user_role", func(fl validatorv10.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})

	v.validate.RegisterValidation("moderation_status", func(fl validatorv10.FieldLevel) bool {
		return models.AssessmentStatus(fl.Field().String()).IsModerationDecision()
	})
}
