package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	validatesvc "github.com/nkiryanov/shopledger/internal/service/validate"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("amount", validateAmount)
	_ = validate.RegisterValidation("promocode", validatePromoCode)
	validate.RegisterTagNameFunc(useJSONTagNames)
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

// Money amount as string, comma accepted as decimal separator
func validateAmount(fl validator.FieldLevel) bool {
	_, err := validatesvc.Amount(fl.Field().String())
	return err == nil
}

func validatePromoCode(fl validator.FieldLevel) bool {
	_, err := validatesvc.PromoCode(fl.Field().String())
	return err == nil
}
