// Package validate evaluates the `validate` struct tags of request types and
// turns failures into a *domain.ValidationError with one issue per field.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/IlyasAtabaev731/atm-server/internal/domain"
	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RuleChecker is implemented by requests that carry cross-field rules the tags
// can't express.
type RuleChecker interface {
	Rules() []domain.Issue
}

type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		switch d := field.Interface().(type) {
		case decimal.Decimal:
			f, _ := d.Float64()
			return f
		case models.Amount:
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{}, models.Amount{})

	// Money types reach validators as float64 through the custom type above.
	err := v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		field := fl.Field()
		if field.Kind() != reflect.Float64 {
			return false
		}
		d := decimal.NewFromFloat(field.Float())
		return d.Equal(d.Round(2))
	})
	if err != nil {
		panic("validate: register cents: " + err.Error())
	}

	return &Validator{v: v}
}

// Struct validates s and returns nil or a *domain.ValidationError.
func (val *Validator) Struct(s any) error {
	var issues []domain.Issue

	err := val.v.Struct(s)
	if err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return fmt.Errorf("validate.Struct: %w", err)
		}
		for _, fe := range fieldErrs {
			issues = append(issues, domain.Issue{Field: fe.Field(), Message: message(fe)})
		}
	}

	if rc, ok := s.(RuleChecker); ok {
		issues = append(issues, rc.Rules()...)
	}

	if len(issues) > 0 {
		return domain.NewValidationError(issues...)
	}
	return nil
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		if fe.Param() == "0" {
			return field + " must be positive"
		}
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return field + " must not be empty"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "cents":
		return field + " must have at most 2 decimal places"
	case "email":
		return field + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "numeric":
		return field + " must contain only digits"
	default:
		return field + " is invalid"
	}
}
