package sizing

import (
	"github.com/deepsize/pkg/errors"
)

// Resolve selects the shallow-size strategy for a guess mode. Strict modes
// fail here, at configuration time, when the required mechanism is
// unavailable; fallback modes substitute the next mechanism in the fixed
// preference order instrumentation, low-level layout, predefined tables.
func Resolve(guess Guess) (Strategy, error) {
	switch guess {
	case GuessAlwaysInstrumentation:
		return newInstrumentationStrategy()

	case GuessFallbackUnsafe:
		if s, err := newInstrumentationStrategy(); err == nil {
			return s, nil
		}
		return NewUnsafeStrategy()

	case GuessFallbackTable:
		if s, err := newInstrumentationStrategy(); err == nil {
			return s, nil
		}
		return NewTableStrategy(), nil

	case GuessFallbackBest:
		if s, err := newInstrumentationStrategy(); err == nil {
			return s, nil
		}
		if s, err := NewUnsafeStrategy(); err == nil {
			return s, nil
		}
		return NewTableStrategy(), nil

	case GuessAlwaysTable:
		return NewTableStrategy(), nil

	case GuessAlwaysUnsafe:
		return NewUnsafeStrategy()

	default:
		return nil, errors.Newf(errors.CodeConfigError,
			"unknown sizing mode: %q (valid: %s)", guess, ValidGuesses())
	}
}
