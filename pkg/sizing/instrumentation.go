package sizing

import (
	"reflect"
	"sync"

	"github.com/deepsize/pkg/errors"
	"github.com/deepsize/pkg/introspect"
)

// Instrumentation is the host-installed sizing capability. A hosting process
// that can observe real allocation sizes installs one implementation before
// building meters; until then, assisted sizing is simply unavailable.
type Instrumentation interface {
	// ObjectSize returns the shallow size in bytes of obj's allocation.
	ObjectSize(obj interface{}) int64
}

var (
	instMu       sync.RWMutex
	instrumented Instrumentation
)

// Install registers the process-wide instrumentation capability. It may be
// called from any goroutine; installing the same capability repeatedly is
// harmless, and the most recent installation wins.
func Install(inst Instrumentation) {
	instMu.Lock()
	instrumented = inst
	instMu.Unlock()
}

// installedInstrumentation returns the registered capability, if any.
func installedInstrumentation() Instrumentation {
	instMu.RLock()
	defer instMu.RUnlock()
	return instrumented
}

// HasInstrumentation reports whether assisted sizing is available. Pure
// query, no side effects.
func HasInstrumentation() bool {
	return installedInstrumentation() != nil
}

// HasUnsafe reports whether low-level layout sizing is available. Pure
// query, no side effects.
func HasUnsafe() bool {
	return hasUnsafeSizing
}

// instrumentationStrategy delegates shallow sizing to the host-installed
// capability, exposing referents read through unexported fields first.
type instrumentationStrategy struct {
	inst Instrumentation
}

// newInstrumentationStrategy wraps the currently installed capability.
func newInstrumentationStrategy() (Strategy, error) {
	inst := installedInstrumentation()
	if inst == nil {
		return nil, errors.Wrap(errors.CodeStrategyUnavailable,
			"instrumentation was never installed in this process", nil)
	}
	return &instrumentationStrategy{inst: inst}, nil
}

// Name returns the strategy identifier.
func (s *instrumentationStrategy) Name() string {
	return "instrumentation"
}

// MeasureValue measures the shallow size of the object v refers to.
func (s *instrumentationStrategy) MeasureValue(v reflect.Value) (int64, error) {
	if err := checkMeasurable(v); err != nil {
		return 0, err
	}

	obj, err := introspect.Expose(v)
	if err != nil {
		return 0, errors.Wrap(errors.CodeIntrospectionError, "cannot expose object for instrumentation", err)
	}
	if obj == nil {
		return 0, errors.Wrap(errors.CodeInvalidInput, "cannot measure nil object", nil)
	}

	size := s.inst.ObjectSize(obj)
	if size < 0 {
		return 0, errors.Newf(errors.CodeIntrospectionError,
			"instrumentation reported negative size %d", size)
	}
	return size, nil
}
