package domain

import (
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct validation is stateless
// so a single instance is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// alphachar requires at least one unicode letter somewhere in the value.
	// Purely numeric or punctuation-only names are rejected.
	_ = v.RegisterValidation("alphachar", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if unicode.IsLetter(r) {
				return true
			}
		}
		return false
	})

	return v
}

// SignupRequest carries the user-supplied profile fields from the signup
// form. It is validated once and then consumed by the provisioner; it is
// never persisted.
type SignupRequest struct {
	FirstName   string `json:"first_name"  validate:"required,max=50,alphachar"`
	LastName    string `json:"last_name"   validate:"required,max=50,alphachar"`
	Institution string `json:"institution" validate:"required,max=100,alphachar"`
	Email       string `json:"email"       validate:"required,max=100,email"`
}

// Normalize trims surrounding whitespace from every field. Whitespace-only
// input becomes empty and fails the required rule.
func (r *SignupRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Institution = strings.TrimSpace(r.Institution)
	r.Email = strings.TrimSpace(r.Email)
}

// Validate normalizes the request and checks every field. On failure it
// returns FieldErrors keyed by form field name, suitable for redisplaying
// the form with per-field messages.
func (r *SignupRequest) Validate() error {
	r.Normalize()

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fields := FieldErrors{}
	for _, fe := range verrs {
		fields[formField(fe.Field())] = fieldMessage(fe)
	}
	return fields
}

func formField(structField string) string {
	switch structField {
	case "FirstName":
		return "firstname"
	case "LastName":
		return "lastname"
	case "Institution":
		return "institution"
	case "Email":
		return "email"
	}
	return strings.ToLower(structField)
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "Field must not be empty"
	case "alphachar":
		return "At least one alphabetical character required"
	case "email":
		return "Enter a valid email address"
	case "max":
		return "Value is too long (maximum " + fe.Param() + " characters)"
	}
	return "Invalid value"
}
