package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Accepted date layouts for start_date and end_date.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

var paramsValidator = newParamsValidator()

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string
	Message string
	Value   string
}

func (e *FieldError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s: %s (got: %s)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ReportParams is the validated view of a report request.
type ReportParams struct {
	StartDate string      `json:"start_date" validate:"required,tune_datetime"`
	EndDate   string      `json:"end_date" validate:"required,tune_datetime"`
	Fields    []string    `json:"fields" validate:"dive,required"`
	Sort      []SortField `json:"sort" validate:"dive"`
	Limit     int         `json:"limit" validate:"gte=0"`
	Page      int         `json:"page" validate:"gte=0"`
	Format    string      `json:"format" validate:"omitempty,oneof=csv json"`
}

// SortField is one ordered sort clause.
type SortField struct {
	Field     string `json:"field" validate:"required"`
	Direction string `json:"direction" validate:"oneof=ASC DESC"`
}

func newParamsValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("tune_datetime", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return v
}

// ParseDate parses a report date in either accepted layout.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(DateLayout, s)
}

// ValidateParams validates report parameters.
//
// Returns nil if valid, or a FieldError describing the first validation failure.
func ValidateParams(p ReportParams) error {
	if err := paramsValidator.Struct(p); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
			return convertFieldError(validationErrs[0])
		}
		return &FieldError{Field: "params", Message: err.Error()}
	}

	start, _ := ParseDate(p.StartDate)
	end, _ := ParseDate(p.EndDate)
	if end.Before(start) {
		return &FieldError{
			Field:   "end_date",
			Message: "must not be before start_date",
			Value:   p.EndDate,
		}
	}
	return nil
}

// ValidateExtras checks report-specific parameters. Each required key must be present;
// when its allowed list is non-empty the value must be one of the listed values.
func ValidateExtras(extras map[string]string, required map[string][]string) error {
	keys := make([]string, 0, len(required))
	for key := range required {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value, ok := extras[key]
		if !ok || value == "" {
			return &FieldError{Field: key, Message: "is required"}
		}
		allowed := required[key]
		if len(allowed) > 0 && !contains(allowed, value) {
			return &FieldError{
				Field:   key,
				Message: "must be one of " + strings.Join(allowed, ", "),
				Value:   value,
			}
		}
	}
	return nil
}

// ValidateOptionalExtras checks extras that may be omitted but are restricted when set.
func ValidateOptionalExtras(extras map[string]string, optional map[string][]string) error {
	for key, allowed := range optional {
		value, ok := extras[key]
		if !ok || value == "" || len(allowed) == 0 {
			continue
		}
		if !contains(allowed, value) {
			return &FieldError{
				Field:   key,
				Message: "must be one of " + strings.Join(allowed, ", "),
				Value:   value,
			}
		}
	}
	return nil
}

func convertFieldError(fe validator.FieldError) *FieldError {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}
	value := fmt.Sprintf("%v", fe.Value())

	switch fe.Tag() {
	case "required":
		return &FieldError{Field: field, Message: "is required"}
	case "tune_datetime":
		return &FieldError{
			Field:   field,
			Message: "must use YYYY-MM-DD or YYYY-MM-DD HH:MM:SS",
			Value:   value,
		}
	case "oneof":
		return &FieldError{
			Field:   field,
			Message: "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", "),
			Value:   value,
		}
	case "gte":
		return &FieldError{Field: field, Message: "must be >= " + fe.Param(), Value: value}
	default:
		return &FieldError{Field: field, Message: fmt.Sprintf("failed %s validation", fe.Tag()), Value: value}
	}
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
