//go:build purego

package sizing

import (
	"github.com/deepsize/pkg/errors"
)

// hasUnsafeSizing reports whether low-level layout sizing is compiled in.
const hasUnsafeSizing = false

// NewUnsafeStrategy fails: low-level layout sizing is excluded by the purego
// build tag.
func NewUnsafeStrategy() (Strategy, error) {
	return nil, errors.Wrap(errors.CodeStrategyUnavailable,
		"low-level sizing excluded by the purego build tag", nil)
}
