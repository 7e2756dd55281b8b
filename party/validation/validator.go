// Package validation checks inbound records with go-playground/validator and
// adds a roomid rule backed by the room identifier grammar.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/liuran001/WatchParty-Go/party/room"
)

// Validator validates structs tagged with `validate`.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the custom rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("roomid", validateRoomID)
	return &Validator{validate: v}
}

// Default is a shared instance.
var Default = New()

// Struct validates s and returns an *Error listing every failed field.
func (v *Validator) Struct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewError(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// Var validates a single value against tag, reporting it under name.
func (v *Validator) Var(name string, value any, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			ve := NewError(validationErrors)
			for i := range ve.Fields {
				// Var errors carry no field name, so messages start with a space.
				ve.Fields[i].Field = name
				ve.Fields[i].Message = name + ve.Fields[i].Message
			}
			return ve
		}
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// validateRoomID accepts empty values; pair with required when needed.
func validateRoomID(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	if val == "" {
		return true
	}
	return room.CheckSyntax(val) == nil
}

func jsonName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
