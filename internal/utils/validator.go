// internal/utils/validator.go
package utils

import (
	"regexp"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("username", validateUsername)
	validate.RegisterValidation("permit_type", validatePermitType)
}

// ValidateStruct validates a struct using validator tags
func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// validateStrongPassword requires at least 8 characters with an upper-case
// letter, a lower-case letter and a digit.
func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

func validateUsername(fl validator.FieldLevel) bool {
	return usernameRegex.MatchString(fl.Field().String())
}

var permitTypeCodes = map[string]bool{
	"WFP": true, "WCP": true, "LTP": true, "CWR": true, "GP": true,
}

func validatePermitType(fl validator.FieldLevel) bool {
	return permitTypeCodes[fl.Field().String()]
}

// GetValidationErrors converts validator errors into a field -> message map
func GetValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fieldError := range validationErrors {
			field := fieldError.Field()
			switch fieldError.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = "Invalid email format"
			case "min":
				errors[field] = field + " must be at least " + fieldError.Param()
			case "max":
				errors[field] = field + " must not exceed " + fieldError.Param()
			case "strong_password":
				errors[field] = "Password must be at least 8 characters with upper, lower and numeric characters"
			case "username":
				errors[field] = "Username must be 3-50 characters, letters, numbers, hyphens and underscores only"
			case "permit_type":
				errors[field] = "Unknown permit type"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
