package regulation

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/syllabix/syllabix/core"
)

var (
	statusTag  = "regstatus"
	statusText = "status must be one of DRAFT, PUBLISHED or ARCHIVED"

	kindTag  = "stmtkind"
	kindText = "kind must be one of VISION, MISSION, PEO, PO or PSO"
)

func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(statusTag, oneOfValidation(Statuses))
	core.RegisterCustomTranslation(validate, translator, statusTag, statusText)

	_ = validate.RegisterValidation(kindTag, oneOfValidation(StatementKinds))
	core.RegisterCustomTranslation(validate, translator, kindTag, kindText)
}

func oneOfValidation(values []string) validator.Func {
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
