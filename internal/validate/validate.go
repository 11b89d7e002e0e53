// Package validate wraps go-playground/validator with the custom types and
// tags chansim's configuration structs use.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ErrInvalid is wrapped by every error Struct returns for a failed rule.
var ErrInvalid = errors.New("validation failed")

var (
	once     sync.Once
	instance *validator.Validate
)

func get() *validator.Validate {
	once.Do(func() {
		v := validator.New()

		// Report yaml names so messages match what the user wrote.
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})

		// Validate decimal.Decimal as float64 for gte/lte checks.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if val, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := val.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})

		// decimal: a string that parses as a decimal number.
		_ = v.RegisterValidation("decimal", func(fl validator.FieldLevel) bool {
			_, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil
		})

		// nonneg_decimal: a decimal string >= 0.
		_ = v.RegisterValidation("nonneg_decimal", func(fl validator.FieldLevel) bool {
			d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
			return err == nil && !d.IsNegative()
		})

		instance = v
	})
	return instance
}

// Struct validates s against its `validate` tags.
func Struct(s interface{}) error {
	err := get().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, message(e))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func message(e validator.FieldError) string {
	field := e.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	switch e.Tag() {
	case "gte":
		return fmt.Sprintf("%s must be >= %s, got %v", field, e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("%s must be <= %s, got %v", field, e.Param(), e.Value())
	case "gt":
		return fmt.Sprintf("%s must be > %s, got %v", field, e.Param(), e.Value())
	case "min":
		return fmt.Sprintf("%s must have at least %s entries", field, e.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, e.Param(), e.Value())
	case "decimal":
		return fmt.Sprintf("%s must be a decimal number, got %q", field, e.Value())
	case "nonneg_decimal":
		return fmt.Sprintf("%s must be a non-negative decimal number, got %q", field, e.Value())
	}
	return fmt.Sprintf("%s failed validation '%s'", field, e.Tag())
}
