package utils

import (
	"context"
	"time"
)

// Retry ejecuta una función con reintentos configurables.
// stop decide qué errores no merecen reintento (p. ej. not found); puede ser nil.
func Retry(ctx context.Context, attempts int, delay time.Duration, fn func() error, stop ...func(error) bool) error {
	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil {
			return nil
		}
		for _, s := range stop {
			if s != nil && s(err) {
				return err
			}
		}
		if i == attempts-1 {
			break
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

// Ternary es un operador ternario genérico
func Ternary[T any](condition bool, ifTrue, ifFalse T) T {
	if condition {
		return ifTrue
	}
	return ifFalse
}
