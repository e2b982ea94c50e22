// Package validation runs go-playground/validator over request payloads and
// turns the result into a field -> message map that can be sent to clients.
package validation

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a JSON field name to a human-readable violation.
type FieldErrors map[string]string

func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, f[field]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (f FieldErrors) Add(field, msg string) {
	if _, ok := f[field]; !ok {
		f[field] = msg
	}
}

// messages is keyed by "<json field>.<validator tag>".
var messages = map[string]string{
	"nome.required":              "O nome não pode ser nulo",
	"nome.min":                   "O nome deve ter pelo menos 2 caracteres",
	"preco.required":             "O preço não pode ser nulo",
	"preco.gte":                  "O preço deve ser pelo menos 0",
	"quantidadeEstoque.required": "O estoque não pode ser nulo",
	"quantidadeEstoque.gte":      "A quantidade deve ser pelo menos 0",
}

// Validator wraps a configured *validator.Validate.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports fields by their json tag name.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// Struct validates s and returns every violated field at once, or nil.
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	fieldErrors := make(FieldErrors, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors.Add(e.Field(), message(e))
	}
	return fieldErrors
}

func message(e validator.FieldError) string {
	if msg, ok := messages[e.Field()+"."+e.Tag()]; ok {
		return msg
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
}
