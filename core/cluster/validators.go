package cluster

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

var (
	modeTag  = "sharemode"
	modeText = "mode must be one of add, remove or replace"

	itemKindTag  = "itemkind"
	itemKindText = "kind must be one of PEO, PO, PSO, MISSION, VISION, SEMESTER or COURSE"

	visibilityTag  = "visibility"
	visibilityText = "visibility must be one of UNIQUE or CLUSTER"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(modeTag, oneOf(Modes))
	core.RegisterCustomTranslation(validate, translator, modeTag, modeText)

	_ = validate.RegisterValidation(itemKindTag, oneOf(ItemKinds))
	core.RegisterCustomTranslation(validate, translator, itemKindTag, itemKindText)

	_ = validate.RegisterValidation(visibilityTag, oneOf(Visibilities))
	core.RegisterCustomTranslation(validate, translator, visibilityTag, visibilityText)
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		val := fl.Field().String()
		for _, v := range values {
			if v == val {
				return true
			}
		}
		return false
	}
}
