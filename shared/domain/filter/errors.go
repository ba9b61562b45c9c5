package filter

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter agrupa todos los errores de validación local del motor.
// Todos ellos son errores del cliente y se detectan antes de tocar el almacén.
var ErrInvalidFilter = errors.New("invalid query filters")

// MalformedFilterError: el JSON no es un objeto ni una lista de objetos.
type MalformedFilterError struct {
	Reason string
}

func (e *MalformedFilterError) Error() string {
	if e.Reason == "" {
		return ErrInvalidFilter.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidFilter.Error(), e.Reason)
}

func (e *MalformedFilterError) Is(target error) bool { return target == ErrInvalidFilter }

// ValidationError describe un descriptor con forma o valor incorrectos.
type ValidationError struct {
	Field    string
	Operator string
	Reason   string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Field != "" && e.Operator != "":
		return fmt.Sprintf("filter %q %q: %s", e.Field, e.Operator, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("filter %q: %s", e.Field, e.Reason)
	}
	return "filter: " + e.Reason
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidFilter }

// UnknownFieldError: el descriptor nombra un campo que el esquema no conoce.
type UnknownFieldError struct {
	Model string
	Field string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("%s has no attribute %s", e.Model, e.Field)
}

func (e *UnknownFieldError) Is(target error) bool { return target == ErrInvalidFilter }

// UnsupportedOperatorError: el alias no está en la tabla de operadores.
type UnsupportedOperatorError struct {
	Field    string
	Operator string
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("filter %q: unsupported operator %q", e.Field, e.Operator)
}

func (e *UnsupportedOperatorError) Is(target error) bool { return target == ErrInvalidFilter }
