package contact

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Fields are the visitor-supplied values of the contact form.
type Fields struct {
	Name    string `form:"name" json:"name" validate:"required,max=200"`
	Email   string `form:"email" json:"email" validate:"required,looseemail,max=320"`
	Message string `form:"message" json:"message" validate:"required,max=5000"`
}

// Trimmed returns a copy with surrounding whitespace removed.
func (f Fields) Trimmed() Fields {
	return Fields{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Message: strings.TrimSpace(f.Message),
	}
}

func (f Fields) IsZero() bool {
	return f == Fields{}
}

// Form holds the values currently shown in one form instance.
type Form struct {
	mu     sync.RWMutex
	fields Fields
}

func (f *Form) Set(fields Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = fields
}

func (f *Form) Fields() Fields {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.fields
}

// Clear resets every field to empty.
func (f *Form) Clear() {
	f.Set(Fields{})
}

// NewValidator returns a validator with the contact tags registered. It
// panics if a tag cannot be registered, which only happens on a programming
// error.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("looseemail", validateLooseEmail); err != nil {
		panic(fmt.Sprintf("contact: register looseemail validation: %v", err))
	}
	return v
}

// The relay does its own address checks; here an "@" is enough.
func validateLooseEmail(fl validator.FieldLevel) bool {
	return strings.Contains(fl.Field().String(), "@")
}

// FieldError names the first invalid field.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Reason
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidFields
}

// validateFields reports the first invalid field in form order.
func validateFields(v *validator.Validate, f Fields) *FieldError {
	err := v.Struct(f)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &FieldError{Field: "form", Reason: "Please check the form and try again."}
	}

	e := verrs[0]
	field := strings.ToLower(e.Field())
	switch {
	case e.Tag() == "max":
		return &FieldError{Field: field, Reason: "Your " + field + " is too long."}
	case field == "name":
		return &FieldError{Field: field, Reason: "Please enter your name."}
	case field == "email":
		return &FieldError{Field: field, Reason: "Please enter a valid email address."}
	case field == "message":
		return &FieldError{Field: field, Reason: "Please write a message."}
	}
	return &FieldError{Field: field, Reason: "Please check the " + field + " field."}
}
