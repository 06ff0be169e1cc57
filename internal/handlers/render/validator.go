package render

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/nkiryanov/paysms/internal/models"
)

func configureValidator(validate *validator.Validate) {
	_ = validate.RegisterValidation("currency", validateCurrency)
	_ = validate.RegisterValidation("phone", validatePhone)
	validate.RegisterTagNameFunc(useJSONTagNames)

	// Validate decimals as floats so numeric tags like gt=0 work
	validate.RegisterCustomTypeFunc(decimalAsFloat, decimal.Decimal{})
}

func useJSONTagNames(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	// skip if tag key says it should be ignored
	if name == "-" {
		return ""
	}
	return name
}

func decimalAsFloat(v reflect.Value) any {
	d, ok := v.Interface().(decimal.Decimal)
	if !ok {
		return nil
	}
	f, _ := d.Float64()
	return f
}

func validateCurrency(fl validator.FieldLevel) bool {
	return models.IsKnownCurrency(fl.Field().String())
}

// Digits with optional leading plus, spaces and dashes
func validatePhone(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	digits := 0
	for i, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			digits++
		case r == '+' && i == 0, r == ' ', r == '-':
		default:
			return false
		}
	}
	return digits >= 8 && digits <= 15
}
