package service

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrUserExists         = errors.New("User already exists")
	ErrUserNotFound       = errors.New("User does not exist")
	ErrInvalidCredentials = errors.New("Invalid credentials")
	ErrNoteNotFound       = errors.New("Note not found")
)

// ValidationError reports a request field that is missing or malformed.
// Message is safe to show to clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ErrNoChanges is returned by an edit that names none of title, content
// or tags.
var ErrNoChanges = &ValidationError{Message: "No changes provided"}

var fieldLabels = map[string]string{
	"fullname": "Fullname",
	"email":    "Email",
	"password": "Password",
	"title":    "Title",
	"content":  "Content",
	"tags":     "Tags",
	"isPinned": "isPinned",
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func fieldLabel(field string) string {
	if label, ok := fieldLabels[field]; ok {
		return label
	}
	return field
}

// validate runs struct validation and turns the first failure into a
// ValidationError.
func validate(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ValidationError{Message: "Invalid request"}
	}

	fe := fieldErrs[0]
	label := fieldLabel(fe.Field())
	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: fe.Field(), Message: label + " is required"}
	case "max":
		return &ValidationError{Field: fe.Field(), Message: label + " is too long"}
	default:
		return &ValidationError{Field: fe.Field(), Message: label + " is invalid"}
	}
}

func requiredField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fieldLabel(field) + " is required"}
}
