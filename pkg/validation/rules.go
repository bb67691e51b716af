package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"sales-crm/pkg/constants"
)

var (
	phoneRegex    = regexp.MustCompile(`^[0-9+\-() ]{7,20}$`)
	currencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)
)

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone":              isPhone,
		"currency":           isCurrency,
		"appointment_status": oneOf(constants.AppointmentStatuses),
		"contact_type":       oneOf(constants.ContactTypes),
		"role":               oneOf([]string{constants.RoleAdmin, constants.RoleEmployee}),
		"order_status":       oneOf(constants.OrderStatuses),
		"payment_status":     oneOf(constants.PaymentStatuses),
		"payment_method":     oneOf(constants.PaymentMethods),
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func isPhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func isCurrency(fl validator.FieldLevel) bool {
	return currencyRegex.MatchString(fl.Field().String())
}

func oneOf(allowed []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return constants.Contains(allowed, fl.Field().String())
	}
}
