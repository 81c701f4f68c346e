package shopping

import (
	"errors"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Costs are compared as floats; the decimal itself never leaves this check.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("nonblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})

	return v
}

// ValidateMeals checks every usage of every meal and fails on the first bad one.
func ValidateMeals(meals []Meal) error {
	for mi, meal := range meals {
		for ui, usage := range meal.Ingredients {
			if err := validateUsage(mi, ui, usage); err != nil {
				return err
			}
		}
	}
	return nil
}

// ValidateUsages checks a flat usage list.
func ValidateUsages(usages []IngredientUsage) error {
	for ui, usage := range usages {
		if err := validateUsage(-1, ui, usage); err != nil {
			return err
		}
	}
	return nil
}

func validateUsage(mealIndex, usageIndex int, usage IngredientUsage) error {
	err := validate.Struct(usage)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err
	}

	fe := fieldErrs[0]
	return &InvalidUsageError{
		MealIndex:  mealIndex,
		UsageIndex: usageIndex,
		Name:       usage.Name,
		Field:      fe.Field(),
		Reason:     reasonFor(fe.Tag()),
	}
}

func reasonFor(tag string) string {
	switch tag {
	case "nonblank":
		return "must not be empty"
	case "gt":
		return "must be positive"
	case "gte":
		return "must not be negative"
	case "finite":
		return "must be finite"
	default:
		return "failed " + tag + " check"
	}
}
