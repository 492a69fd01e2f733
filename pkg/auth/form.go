package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Form is the login form.
type Form struct {
	SystemID  string `json:"systemId" validate:"required,number"`
	UserName  string `json:"userName" validate:"required"`
	Password  string `json:"password" validate:"required"`
	AutoLogin bool   `json:"autoLogin"`
}

// ForgotForm is the forgot password form. Destination is an email address
// or a phone number depending on Method.
type ForgotForm struct {
	SystemID    string `json:"systemId" validate:"required,number"`
	Method      string `json:"method" validate:"required,oneof=email mobile"`
	Destination string `json:"destination" validate:"required"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (c *Controller) validateStruct(s any) error {
	err := c.validate.Struct(s)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return errors.Join(ErrInvalidForm, err)
	}
	out := &ValidationError{Fields: make([]FieldError, 0, len(ve))}
	for _, fe := range ve {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Tag: fe.Tag(), Param: fe.Param()})
	}
	return out
}

// validateDestination checks the destination against the chosen method.
func (c *Controller) validateDestination(f ForgotForm) error {
	var err error
	switch f.Method {
	case "email":
		err = c.validate.Var(f.Destination, "email")
		if err != nil {
			return &ValidationError{Fields: []FieldError{{Field: "destination", Tag: "email"}}}
		}
	case "mobile":
		err = c.validate.Var(strings.TrimPrefix(f.Destination, "+"), "number,min=7,max=15")
		if err != nil {
			return &ValidationError{Fields: []FieldError{{Field: "destination", Tag: "number"}}}
		}
	}
	return nil
}
