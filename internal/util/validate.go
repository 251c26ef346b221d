package util

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type ValidationErrorResponse struct {
	FailedField string `json:"failedField"`
	Tag         string `json:"tag"`
	Value       string `json:"value"`
}

func (v *ValidationErrorResponse) String() string {
	if v.Value == "" {
		return fmt.Sprintf("%s failed on '%s'", v.FailedField, v.Tag)
	}
	return fmt.Sprintf("%s failed on '%s=%s'", v.FailedField, v.Tag, v.Value)
}

var validate = validator.New()

func ValidateStruct(data interface{}) []*ValidationErrorResponse {
	var errs []*ValidationErrorResponse
	err := validate.Struct(data)
	if err != nil {
		var validationErrs validator.ValidationErrors
		if !errors.As(err, &validationErrs) {
			return []*ValidationErrorResponse{{FailedField: "", Tag: "invalid", Value: err.Error()}}
		}

		for _, err := range validationErrs {
			var element ValidationErrorResponse
			element.FailedField = err.StructNamespace()
			element.Tag = err.Tag()
			element.Value = err.Param()
			errs = append(errs, &element)
		}
	}
	return errs
}

// ValidationError joins the result of ValidateStruct into a single error,
// or returns nil when there is nothing to report.
func ValidationError(errs []*ValidationErrorResponse) error {
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		msgs = append(msgs, e.String())
	}
	return errors.New(strings.Join(msgs, ", "))
}

func ReadAndValidate[T any](c *fiber.Ctx) (*T, []*ValidationErrorResponse) {
	req := new(T)
	// we ignore the parse error and show the user a friendly validation error
	_ = c.BodyParser(req)

	validationErrors := ValidateStruct(req)
	if validationErrors != nil {
		return nil, validationErrors
	}

	return req, nil
}
