// Package sizing provides shallow-size measurement strategies for single
// objects, the guess-mode selection policy between them, and the process-wide
// instrumentation registration point.
package sizing

import (
	"reflect"
	"strings"

	"github.com/deepsize/pkg/errors"
)

// Strategy measures the shallow size of a single object: the bytes occupied
// by the object's own representation, excluding anything it references.
//
// Implementations must be deterministic, side-effect free, return
// non-negative sizes, and reject invalid input. They must be safe for
// concurrent use.
type Strategy interface {
	// Name returns the unique identifier for this strategy.
	Name() string

	// MeasureValue returns the shallow size in bytes of the object v refers
	// to. For pointer-like values (pointers, maps, slices, channels,
	// strings) this is the size of the referenced allocation; for plain
	// values it is the size of the value itself.
	MeasureValue(v reflect.Value) (int64, error)
}

// Measure is a convenience wrapper that measures an interface value with s.
// It fails with an invalid-input error if obj is nil.
func Measure(s Strategy, obj interface{}) (int64, error) {
	if obj == nil {
		return 0, errors.Wrap(errors.CodeInvalidInput, "cannot measure nil object", nil)
	}
	return s.MeasureValue(reflect.ValueOf(obj))
}

// Guess represents the sizing-mode policy: which shallow-size strategy is
// resolved and what happens if the preferred mechanism is unavailable.
type Guess string

const (
	// GuessAlwaysInstrumentation requires host-installed instrumentation;
	// resolution fails if it was never registered.
	GuessAlwaysInstrumentation Guess = "require-assisted-sizing"

	// GuessFallbackUnsafe uses instrumentation if registered, otherwise the
	// low-level layout strategy.
	GuessFallbackUnsafe Guess = "assisted-with-fallback-to-low-level"

	// GuessFallbackTable uses instrumentation if registered, otherwise the
	// table-based strategy.
	GuessFallbackTable Guess = "assisted-with-fallback-to-table-based"

	// GuessFallbackBest uses instrumentation if registered, then the
	// low-level layout strategy, then the table-based strategy.
	GuessFallbackBest Guess = "assisted-with-best-available-fallback"

	// GuessAlwaysTable always uses the table-based strategy.
	GuessAlwaysTable Guess = "always-table-based"

	// GuessAlwaysUnsafe always uses the low-level layout strategy;
	// resolution fails where low-level access is unavailable.
	GuessAlwaysUnsafe Guess = "always-low-level"
)

// GuessInfo describes a guess mode for help and validation.
type GuessInfo struct {
	Guess       Guess
	Description string
}

// guessRegistry maps guess names to their metadata.
var guessRegistry = map[Guess]*GuessInfo{
	GuessAlwaysInstrumentation: {
		Guess:       GuessAlwaysInstrumentation,
		Description: "Error when measuring if instrumentation was never installed",
	},
	GuessFallbackUnsafe: {
		Guess:       GuessFallbackUnsafe,
		Description: "Instrumentation if installed, otherwise low-level memory layout",
	},
	GuessFallbackTable: {
		Guess:       GuessFallbackTable,
		Description: "Instrumentation if installed, otherwise predefined layout tables",
	},
	GuessFallbackBest: {
		Guess:       GuessFallbackBest,
		Description: "Instrumentation, then low-level layout, then predefined tables",
	},
	GuessAlwaysTable: {
		Guess:       GuessAlwaysTable,
		Description: "Always size objects using predefined layout tables",
	},
	GuessAlwaysUnsafe: {
		Guess:       GuessAlwaysUnsafe,
		Description: "Always size objects using low-level memory layout",
	},
}

// ParseGuess parses a guess-mode string into Guess.
func ParseGuess(s string) (Guess, error) {
	guess := Guess(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := guessRegistry[guess]; ok {
		return guess, nil
	}
	return "", errors.Newf(errors.CodeConfigError, "unknown sizing mode: %q (valid: %s)", s, ValidGuesses())
}

// ValidGuesses returns a comma-separated list of valid guess names.
func ValidGuesses() string {
	order := []Guess{
		GuessAlwaysInstrumentation,
		GuessFallbackUnsafe,
		GuessFallbackTable,
		GuessFallbackBest,
		GuessAlwaysTable,
		GuessAlwaysUnsafe,
	}
	names := make([]string, 0, len(order))
	for _, g := range order {
		names = append(names, string(g))
	}
	return strings.Join(names, ", ")
}

// String returns the string representation of the guess mode.
func (g Guess) String() string {
	return string(g)
}

// Info returns the metadata for this guess mode.
func (g Guess) Info() *GuessInfo {
	return guessRegistry[g]
}

// invalidValueError builds the invalid-input error for an unusable value.
func invalidValueError(v reflect.Value) error {
	if !v.IsValid() {
		return errors.Wrap(errors.CodeInvalidInput, "cannot measure nil object", nil)
	}
	return errors.Newf(errors.CodeInvalidInput, "cannot measure nil %s", v.Kind())
}

// checkMeasurable rejects invalid values and nil references.
func checkMeasurable(v reflect.Value) error {
	if !v.IsValid() {
		return invalidValueError(v)
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return invalidValueError(v)
		}
	}
	return nil
}
