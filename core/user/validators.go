package user

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	// custom validation tags
	roleTag  = "role"
	roleText = "invalid role"
)

// InitValidators registers this package's custom validators.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// roleValidation checks that the provided value is one of AllRoles.
func roleValidation(fl validator.FieldLevel) bool {
	if role, ok := fl.Field().Interface().(Role); ok {
		return role.Valid()
	}
	if str, ok := fl.Field().Interface().(string); ok {
		return Role(str).Valid()
	}
	return false
}
