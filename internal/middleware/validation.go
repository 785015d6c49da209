package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/dentavia/case-api/internal/model"
)

// RegisterValidators installs domain validation tags on gin's binding engine
// and makes validation errors report json field names instead of Go ones.
// Call once before routes are registered.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// case_status accepts only canonical pipeline values.
	_ = v.RegisterValidation("case_status", func(fl validator.FieldLevel) bool {
		_, known := model.CaseStatusFromString(fl.Field().String())
		return known
	})

	// contact_channel accepts only the channels staff can log.
	_ = v.RegisterValidation("contact_channel", func(fl validator.FieldLevel) bool {
		_, known := model.ContactChannelFromString(fl.Field().String())
		return known
	})

	// review_status accepts only statuses a doctor may submit.
	_ = v.RegisterValidation("review_status", func(fl validator.FieldLevel) bool {
		return model.ReviewStatus(fl.Field().String()).Submittable()
	})
}
