package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// CustomValidator - структура для валидации данных
type CustomValidator struct {
	validator *validator.Validate
}

// ValidationError представляет ошибку валидации
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors содержит список ошибок валидации
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// Error реализует интерфейс error
func (ve ValidationErrors) Error() string {
	var errMsgs []string
	for _, err := range ve.Errors {
		errMsgs = append(errMsgs, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(errMsgs, "; ")
}

// First возвращает сообщение первой ошибки в виде, пригодном для уведомления
func (ve ValidationErrors) First() string {
	if len(ve.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%s: %s", ve.Errors[0].Field, ve.Errors[0].Message)
}

// NewValidator создает новый экземпляр валидатора с зарегистрированными правилами
func NewValidator() *CustomValidator {
	v := validator.New()

	// Регистрируем функцию для получения JSON-тега вместо имени структуры
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	cv := &CustomValidator{validator: v}
	cv.registerCustomValidations()
	return cv
}

func (cv *CustomValidator) registerCustomValidations() {
	_ = cv.validator.RegisterValidation("user_status", validateUserStatus)
}

func validateUserStatus(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ACTIVE", "SUSPENDED":
		return true
	default:
		return false
	}
}

// Validate проверяет структуру на соответствие правилам валидации
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validator.Struct(i)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return err
	}

	var validationErrors ValidationErrors
	for _, fe := range fieldErrors {
		validationErrors.Errors = append(validationErrors.Errors, ValidationError{
			Field:   fe.Field(),
			Message: getErrorMessage(fe),
		})
	}
	return validationErrors
}

// getErrorMessage возвращает понятное сообщение об ошибке на основе тега валидации
func getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters long", err.Param())
		}
		return fmt.Sprintf("Must be at least %s", err.Param())
	case "max":
		if err.Type().Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters long", err.Param())
		}
		return fmt.Sprintf("Must be at most %s", err.Param())
	case "len":
		return fmt.Sprintf("Must be exactly %s characters long", err.Param())
	case "numeric":
		return "Must contain digits only"
	case "eqfield":
		return "Passwords do not match"
	case "nefield":
		return "New password must differ from the current one"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", err.Param())
	case "gt", "gte", "lt", "lte":
		return fmt.Sprintf("Value is out of range (%s %s)", err.Tag(), err.Param())
	case "user_status":
		return "Status must be ACTIVE or SUSPENDED"
	default:
		return fmt.Sprintf("Failed validation for '%s'", err.Tag())
	}
}
