package validate

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New initializes a validator that reports fields by their JSON names.
func New() *validator.Validate {
	validate := validator.New()

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return validate
}
