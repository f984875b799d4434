package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"bills/internal/core"

	"github.com/go-playground/validator/v10"
)

// billForm is the create/update payload.
type billForm struct {
	Description string `json:"description" validate:"required,max=200"`
	Category    string `json:"category" validate:"required,max=100"`
	Amount      string `json:"amount" validate:"required,max=64"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
}

type budgetForm struct {
	Budget string `json:"budget" validate:"required,max=64"`
}

type themeForm struct {
	Theme string `json:"theme" validate:"omitempty,oneof=light dark toggle"`
}

// formValidator wraps go-playground/validator and reports field names the
// way clients send them.
type formValidator struct {
	validate *validator.Validate
}

func newFormValidator() *formValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &formValidator{validate: v}
}

// ValidationError carries one message per failing field.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// Struct validates s and converts validator errors into a ValidationError.
func (fv *formValidator) Struct(s any) error {
	err := fv.validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Problems = append(ve.Problems, describe(fe))
	}
	return ve
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "max":
		return fmt.Sprintf("%s is too long (max %s characters)", fe.Field(), fe.Param())
	case "datetime":
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", fe.Field())
	}
}

func parseBillForm(p *RequestBodyParser) billForm {
	return billForm{
		Description: p.Get("description"),
		Category:    p.Get("category"),
		Amount:      p.Get("amount"),
		Date:        p.Get("date"),
	}
}

// toBill converts a validated form. Date format was checked by the validator.
func (f billForm) toBill(id int64) (core.Bill, error) {
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return core.Bill{}, &ValidationError{Problems: []string{"date must be a date in YYYY-MM-DD format"}}
	}
	return core.Bill{
		ID:          id,
		Description: f.Description,
		Category:    f.Category,
		Amount:      f.Amount,
		Date:        date,
	}, nil
}
