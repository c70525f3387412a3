package api

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks a request against its validate tags. Failures wrap
// common.ErrInvalidInput and name the offending JSON fields.
func Validate(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", common.ErrInvalidInput, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := jsonName(fe)
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return name + " must be an email"
	case "min":
		return fmt.Sprintf("%s must be longer than or equal to %s characters", name, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be shorter than or equal to %s characters", name, fe.Param())
	default:
		return name + " is invalid"
	}
}

func jsonName(fe validator.FieldError) string {
	f := fe.Field()
	if f == "" {
		return "value"
	}
	return strings.ToLower(f[:1]) + f[1:]
}
