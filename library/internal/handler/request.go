package handler

import (
	"bytes"
	"io"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Astemirdum/library-catalog/library/internal/errs"
	"github.com/Astemirdum/library-catalog/pkg/validate"
)

// bindBody decodes a JSON object body into req and validates it.
// req must be a pointer to a struct whose fields are all required.
func bindBody(c echo.Context, req interface{}) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		var he *echo.HTTPError
		if errors.As(err, &he) {
			return he
		}
		return errs.ErrInvalidJSON
	}
	body = bytes.TrimSpace(body)
	if len(body) <= 2 || body[0] != '{' || !jsonAPI.Valid(body) {
		return errs.ErrInvalidJSON
	}
	if err := jsonAPI.Unmarshal(body, req); err != nil {
		return errs.ErrInvalidJSON
	}
	if err := c.Validate(req); err != nil {
		return validationError(err, reflect.TypeOf(req).Elem().NumField())
	}
	return nil
}

// validationError picks the client message for a failed validation: all
// fields missing, then the first missing field, then the first malformed one.
func validationError(err error, fields int) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	var (
		missing []string
		invalid string
	)
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			missing = append(missing, fe.Field())
		case validate.TagDigits:
			if invalid == "" {
				invalid = fe.Field()
			}
		}
	}
	switch {
	case len(missing) == fields:
		return errs.ErrNoValidData
	case len(missing) > 0:
		return errs.MissingField(missing[0])
	case invalid != "":
		return errs.InvalidFormat(invalid)
	}
	return errs.ErrInvalidJSON
}
