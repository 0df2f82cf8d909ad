package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	// TagDigits accepts strings made of ASCII digits only.
	TagDigits = "digits"
	// labelTag overrides the field name reported in validation errors.
	labelTag = "label"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewCustomValidator() *CustomValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if label := fld.Tag.Get(labelTag); label != "" {
			return label
		}
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation(TagDigits, func(fl validator.FieldLevel) bool {
		return IsDigits(fl.Field().String())
	})
	return &CustomValidator{validator: v}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
