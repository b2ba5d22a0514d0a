package configuration

import (
	"errors"
	"github.com/go-playground/validator/v10"
	"reflect"
	"strings"
)

var _ error = &ConfigError{}

// ConfigError reports a missing or invalid configuration value. A ConfigError is fatal: the service can't start.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return "config value '" + e.Key + "': " + e.Reason
}

func (e *ConfigError) Is(err error) bool {
	var configError *ConfigError
	return errors.As(err, &configError)
}

// toConfigError converts a validator error into one ConfigError per failing field.
func toConfigError(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return &ConfigError{Key: "unknown", Reason: err.Error()}
	}
	errs := make([]error, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		errs = append(errs, &ConfigError{Key: keyOf(fieldErr), Reason: reasonOf(fieldErr)})
	}
	return errors.Join(errs...)
}

func keyOf(fieldErr validator.FieldError) string {
	// Namespace is <struct>.<field>[.<field>...]. Drop the struct name.
	namespace := fieldErr.Namespace()
	if _, after, ok := strings.Cut(namespace, "."); ok {
		return after
	}
	return fieldErr.Field()
}

func reasonOf(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "missing"
	case "min":
		return "missing"
	default:
		if fieldErr.Param() != "" {
			return "failed '" + fieldErr.Tag() + "=" + fieldErr.Param() + "' validation"
		}
		return "failed '" + fieldErr.Tag() + "' validation"
	}
}

// fieldKey names a field by its configuration key, so validation errors refer to the name the user knows.
func fieldKey(field reflect.StructField) string {
	if key := field.Tag.Get("key"); key != "" {
		return key
	}
	if name, _, _ := strings.Cut(field.Tag.Get("yaml"), ","); name != "" && name != "-" {
		return name
	}
	return field.Name
}
