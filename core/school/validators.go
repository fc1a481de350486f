package school

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/darasa/core"
)

var (
	dateTag  = "date"
	dateText = "date must be formatted as YYYY-MM-DD or RFC 3339"

	timeTag  = "datetime"
	timeText = "time must be formatted as HH:MM"
)

// InitValidators registers the school validators and their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(dateTag, dateValidation)
	core.RegisterCustomTranslation(validate, translator, dateTag, dateText)
	core.RegisterCustomTranslation(validate, translator, timeTag, timeText, true)
}

func dateValidation(fl validator.FieldLevel) bool {
	_, ok := parseDate(fl.Field().String())
	return ok
}
