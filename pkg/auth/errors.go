package auth

import (
	"errors"
	"strings"

	"github.com/otot/posdash/pkg/locale"
)

// ErrInvalidForm is wrapped by every *ValidationError.
var ErrInvalidForm = errors.New("auth.invalid_form")

// FieldError is one failed validation rule.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// Message renders the error with cat in lang.
func (fe FieldError) Message(cat *locale.Catalog, lang string) string {
	switch fe.Tag {
	case "required", "number", "email":
		return cat.T(lang, "form."+fe.Tag, "field", fe.Field)
	case "oneof":
		return cat.T(lang, "form.oneof", "field", fe.Field, "values", strings.ReplaceAll(fe.Param, " ", ", "))
	}
	return cat.T(lang, "form.invalid", "field", fe.Field)
}

// ValidationError lists the failed rules of a submitted form.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	en := locale.DefaultCatalog()
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		msgs = append(msgs, fe.Message(en, locale.Default))
	}
	return "invalid form: " + strings.Join(msgs, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidForm
}

// Messages renders every field error with cat in lang.
func (e *ValidationError) Messages(cat *locale.Catalog, lang string) []string {
	msgs := make([]string, 0, len(e.Fields))
	for _, fe := range e.Fields {
		msgs = append(msgs, fe.Message(cat, lang))
	}
	return msgs
}
