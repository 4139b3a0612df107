package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("trimmed", validateTrimmed)
	})
	return validate
}

// validateTrimmed rejects references with surrounding whitespace, which
// would never match a table or field name.
func validateTrimmed(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return s == strings.TrimSpace(s)
}

// ErrEmptyJob is returned for a job with no routine section.
var ErrEmptyJob = errors.New("job has neither a deltas nor a dedupe section")

// Validate checks a decoded job. Absent sections are not checked.
func Validate(job *Job) error {
	if job.Deltas == nil && job.Dedupe == nil {
		return ErrEmptyJob
	}
	return Struct(job)
}

// Struct validates any value carrying validate tags, such as a routine
// config assembled from command-line flags.
func Struct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, len(verrs))
	for i, fe := range verrs {
		msgs[i] = describe(fe)
	}
	return fmt.Errorf("%s", strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	name := fe.Namespace()
	if i := strings.Index(name, "."); i >= 0 {
		name = name[i+1:]
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", name)
	case "trimmed":
		return fmt.Sprintf("%s has leading or trailing whitespace", name)
	case "excluded_with":
		return fmt.Sprintf("%s cannot be combined with %s", name, fe.Param())
	default:
		return fmt.Sprintf("%s failed %q", name, fe.Tag())
	}
}
