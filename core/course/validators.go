package course

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

var (
	categoryTag  = "category"
	categoryText = "category must be one of HS, BS, ES, PC, PE, OE, EEC or MC"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(categoryTag, categoryValidation)
	core.RegisterCustomTranslation(validate, translator, categoryTag, categoryText)
}

func categoryValidation(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, c := range Categories {
		if c == val {
			return true
		}
	}
	return false
}
