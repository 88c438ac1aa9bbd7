// Package validation validates request payloads with go-playground/validator.
//
// Field names in errors are the JSON names, so clients see the column names
// they sent. The custom "known" tag accepts any value whose type has a
// Valid() bool method returning true.
package validation

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

// FieldError is one failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return e.Message }

// Error collects every failed rule of one payload.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return strings.Join(msgs, "; ")
}

type validity interface {
	Valid() bool
}

func known(fl validator.FieldLevel) bool {
	f := fl.Field()
	if !f.IsValid() || !f.CanInterface() {
		return false
	}
	v, ok := f.Interface().(validity)
	return ok && v.Valid()
}

// Get returns the shared validator.
func Get() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return fld.Name
			}
			return name
		})
		if err := validate.RegisterValidation("known", known); err != nil {
			panic(fmt.Sprintf("register known validator: %v", err))
		}
	})
	return validate
}

// Struct validates s. It returns nil or an *Error.
func Struct(s any) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &Error{Fields: []FieldError{{Field: "body", Tag: "invalid", Message: err.Error()}}}
	}

	out := &Error{Fields: make([]FieldError, len(fieldErrs))}
	for i, fe := range fieldErrs {
		out.Fields[i] = FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   value(fe),
			Message: translate(fe),
		}
	}
	return out
}

// value hides nil pointers so missing fields serialise without a value.
func value(fe validator.FieldError) any {
	v := fe.Value()
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return rv.Elem().Interface()
	}
	return v
}

var messages = map[string]string{
	"required": "%s is required",
	"known":    "%s is not an accepted value",
}

var messagesWithParam = map[string]string{
	"gte": "%s must be greater than or equal to %s",
	"lte": "%s must be less than or equal to %s",
	"gt":  "%s must be greater than %s",
	"lt":  "%s must be less than %s",
}

func translate(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()
	if tpl, ok := messages[tag]; ok {
		return fmt.Sprintf(tpl, field)
	}
	if tpl, ok := messagesWithParam[tag]; ok {
		return fmt.Sprintf(tpl, field, param)
	}
	switch tag {
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	}
	return fmt.Sprintf("%s failed %s validation", field, tag)
}
