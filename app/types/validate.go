package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	ratelimitIdentifierPattern = regexp.MustCompile(`^[a-zA-Z0-9_.\-*]+$`)
	permissionNamePattern      = regexp.MustCompile(`^[a-zA-Z0-9_:.\-*]+$`)
	slugPattern                = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
		_ = v.RegisterValidation("ratelimit_identifier", matchPattern(ratelimitIdentifierPattern))
		_ = v.RegisterValidation("permission_name", matchPattern(permissionNamePattern))
		_ = v.RegisterValidation("slug", matchPattern(slugPattern))
		validate = v
	})
	return validate
}

func matchPattern(pattern *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return pattern.MatchString(fl.Field().String())
	}
}

// Bind decodes the request body into a new T.
func Bind[T any](ctx echo.Context) (*T, error) {
	var body T
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	return &body, nil
}

func validateStruct(s interface{}) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fe := validationErrors[0]
	return errors.New(describeFieldError(fe))
}

func describeFieldError(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at least %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s must contain at most %s entries", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "ratelimit_identifier":
		return fmt.Sprintf("%s may only contain letters, numbers, underscores, dots, dashes and asterisks", field)
	case "permission_name":
		return fmt.Sprintf("%s may only contain letters, numbers, colons, underscores, dots, dashes and asterisks", field)
	case "slug":
		return fmt.Sprintf("%s must be lowercase letters and numbers separated by dashes", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email address", field)
	case "ip|cidr", "cidr|ip":
		return fmt.Sprintf("%s must be a valid IP address or CIDR range", field)
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}

// validateMeta accepts an absent or null value and otherwise requires a JSON object.
func validateMeta(meta json.RawMessage) error {
	if isNullJSON(meta) {
		return nil
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(meta, &obj); err != nil {
		return errors.New("meta must be a JSON object")
	}
	return nil
}

func isNullJSON(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}
