package validator

import (
	"errors"
	"reflect"
	"strings"

	"github.com/GetStream/social-interaction-engine/interaction"
	"github.com/go-playground/validator/v10"
)

// Validator validates request bodies, reporting fields by their JSON names.
type Validator struct {
	cli *validator.Validate
}

// ValidationError represents an error encountered during validation of a struct field.
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func (v *Validator) formatError(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []ValidationError{{Message: err.Error()}}
	}

	out := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: fe.Error(),
		})
	}
	return out
}

// ValidateStruct validates the provided struct and returns a slice of validation errors.
func (v *Validator) ValidateStruct(s any) []ValidationError {
	if err := v.cli.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

// Validate checks the provided value against the specified validation tags.
func (v *Validator) Validate(value any, tag string) []ValidationError {
	if err := v.cli.Var(value, tag); err != nil {
		return v.formatError(err)
	}
	return nil
}

// New returns a Validator that also knows the "kind" tag, which accepts
// interaction target kinds.
func New() *Validator {
	cli := validator.New(validator.WithRequiredStructEnabled())
	cli.RegisterTagNameFunc(jsonName)
	_ = cli.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		_, err := interaction.ParseKind(fl.Field().String())
		return err == nil
	})
	return &Validator{
		cli: cli,
	}
}

func jsonName(f reflect.StructField) string {
	name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
	switch name {
	case "-":
		return ""
	case "":
		return f.Name
	}
	return name
}
