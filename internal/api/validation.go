package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/trust-insurance/quotation/internal/rating"
	"github.com/trust-insurance/quotation/pkg/model"
)

// Validator checks request payloads against their struct tags.
type Validator struct {
	v *validator.Validate
}

// NewValidator registers the quote-specific tags.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("quote_status", func(fl validator.FieldLevel) bool {
		return model.QuoteStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return &Validator{v: v}
}

// Struct validates s and converts the first failure into a
// *rating.ValidationError so every 400 has the same shape.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return &rating.ValidationError{Field: fe.Field(), Message: fieldMessage(fe)}
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "quote_status":
		return fmt.Sprintf("%s must be one of DRAFT, PREVIEWED, SENT, ACCEPTED, EXPIRED, CANCELLED", fe.Field())
	}
	return fmt.Sprintf("%s is invalid", fe.Field())
}
