package cart

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		d, ok := field.Interface().(decimal.Decimal)
		if !ok {
			return nil
		}
		f, _ := d.Float64()
		return f
	}, decimal.Decimal{})
	return v
}

// InvalidProductError reports which fields of a product failed the input
// contract. It matches ErrInvalidProduct with errors.Is.
type InvalidProductError struct {
	Fields map[string]string
}

func (e *InvalidProductError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, f+" "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrInvalidProduct, strings.Join(parts, "; "))
}

func (e *InvalidProductError) Unwrap() error { return ErrInvalidProduct }

func validateProduct(p Product) error {
	p.ID = strings.TrimSpace(p.ID)

	fields := map[string]string{}
	if err := validate.Struct(p); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return err
		}
		for _, fe := range ve {
			fields[fe.Field()] = msgForTag(fe)
		}
	}
	if _, bad := fields["Discount"]; !bad && p.Discount.GreaterThan(p.Price) {
		fields["Discount"] = "must not exceed price"
	}

	if len(fields) > 0 {
		return &InvalidProductError{Fields: fields}
	}
	return nil
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max":
		return "must be at most " + fe.Param() + " characters"
	default:
		return "failed on '" + fe.Tag() + "'"
	}
}
