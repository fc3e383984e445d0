//go:build !purego

package sizing

import (
	"reflect"
	"unsafe"

	"github.com/deepsize/pkg/errors"
)

// hasUnsafeSizing reports whether low-level layout sizing is compiled in.
const hasUnsafeSizing = true

// runtimeWordSize is the actual pointer word size of this process.
const runtimeWordSize = int64(unsafe.Sizeof(uintptr(0)))

// unsafeStrategy sizes objects from the runtime's own layout data instead of
// predefined tables, so struct padding and field alignment match what the
// compiler actually emitted.
type unsafeStrategy struct{}

// NewUnsafeStrategy creates the low-level layout sizing strategy.
func NewUnsafeStrategy() (Strategy, error) {
	if runtimeWordSize != wordSize {
		return nil, errors.Newf(errors.CodeStrategyUnavailable,
			"low-level sizing requires %d-byte words, platform has %d", wordSize, runtimeWordSize)
	}
	return unsafeStrategy{}, nil
}

// Name returns the strategy identifier.
func (unsafeStrategy) Name() string {
	return "unsafe"
}

// MeasureValue measures the shallow size of the object v refers to.
func (unsafeStrategy) MeasureValue(v reflect.Value) (int64, error) {
	return measureCommon(v, runtimeSizeOf)
}

// runtimeSizeOf returns the compiler-reported size of t.
func runtimeSizeOf(t reflect.Type) int64 {
	return int64(t.Size())
}
