package core

import (
	"reflect"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validate and Translator are shared by all domain packages; InitValidators
// must run during application start before any request is served.
var (
	Validate   *validator.Validate
	Translator ut.Translator
)

const (
	notBlankTag  = "notblank"
	notBlankText = "this field cannot be blank"

	requiredText = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	Validate = validate
	Translator = translator
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// report errors under JSON field names, not Go struct names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(notBlankTag, notBlankValidation)
	RegisterCustomTranslation(validate, translator, notBlankTag, notBlankText)

	RegisterCustomTranslation(validate, translator, "required", requiredText, true)
	RegisterCustomTranslation(validate, translator, "required_with", requiredText, true)
}

// RegisterCustomTranslation registers the error text rendered for a validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// notBlankValidation rejects whitespace-only strings.
func notBlankValidation(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}
