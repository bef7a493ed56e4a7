// Package validation checks template, tag and QR API requests before they
// reach the store or the remote API. Struct rules are declared with
// go-playground/validator tags on the domain request types; cross-field
// rules that tags cannot express live in the Validate* functions.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/bcnelson/qr-template-studio/internal/domain"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		_ = v.RegisterValidation("journey", func(fl validator.FieldLevel) bool {
			return domain.IsValidJourney(fl.Field().String())
		})
		validate = v
	})
	return validate
}

// ValidateStruct runs the struct tag rules on s and returns ValidationErrors
// when any fail.
func ValidateStruct(s any) error {
	var errs ValidationErrors
	collect(&errs, getValidator().Struct(s))
	return errs.Err()
}

// ValidateCreateTemplate validates a create template request.
func ValidateCreateTemplate(req *domain.CreateTemplateRequest) error {
	return ValidateStruct(req)
}

// ValidateUpdateTemplate validates an update template request. At least one
// field must be set.
func ValidateUpdateTemplate(req *domain.UpdateTemplateRequest) error {
	var errs ValidationErrors
	collect(&errs, getValidator().Struct(req))
	if req.Name == nil && req.JourneyID == nil {
		errs.Add("name", "", "at least one of name or journeyId is required")
	}
	return errs.Err()
}

// ValidateCreateTag validates a create tag request. isStatic and isDynamic
// are mutually exclusive.
func ValidateCreateTag(req *domain.CreateTagRequest) error {
	var errs ValidationErrors
	collect(&errs, getValidator().Struct(req))
	if req.IsStatic && req.IsDynamic {
		errs.Add("isDynamic", req.IsDynamic.String(), "a tag cannot be both static and dynamic")
	}
	return errs.Err()
}

// ValidateCreateSubtag validates a create subtag request.
func ValidateCreateSubtag(req *domain.CreateSubtagRequest) error {
	return ValidateStruct(req)
}

// ValidateJourney validates a journey identifier.
func ValidateJourney(id string) error {
	if !domain.IsValidJourney(id) {
		return NewValidationError("journeyId", id, journeyMessage())
	}
	return nil
}

func collect(errs *ValidationErrors, err error) {
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		errs.Add("", "", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		errs.Add(fe.Field(), fmt.Sprint(fe.Value()), message(fe))
	}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "journey":
		return journeyMessage()
	case "oneof":
		return fmt.Sprintf("must be one of %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return fmt.Sprintf("cannot be less than %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("cannot be less than %s", lowerFirst(fe.Param()))
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

func journeyMessage() string {
	ids := make([]string, 0, 3)
	for _, j := range domain.JourneyTypes() {
		ids = append(ids, j.ID)
	}
	return "must be one of " + strings.Join(ids, ", ")
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
