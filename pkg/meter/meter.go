// Package meter implements deep measurement of object graphs: the shallow
// size of a single object and the retained size of everything transitively
// reachable from it.
//
// The traversal walks an arbitrary, possibly cyclic, possibly shared object
// graph exactly once per distinct node. Node identity is the allocation
// address, never value equality, so types overriding comparison cannot
// corrupt the accounting. An explicit work stack replaces recursion, so
// traversal depth is bounded by heap capacity rather than the call stack.
package meter

import (
	"bytes"
	"reflect"
	"strconv"
	"unsafe"

	"github.com/deepsize/pkg/collections"
	"github.com/deepsize/pkg/errors"
	"github.com/deepsize/pkg/filter"
	"github.com/deepsize/pkg/introspect"
	"github.com/deepsize/pkg/sizing"
	"github.com/deepsize/pkg/utils"
)

// Meter measures object graphs. It is immutable after construction and safe
// for concurrent use: the visited set, work stack and accumulator are
// allocated fresh per call and never shared.
type Meter struct {
	strategy                 sizing.Strategy
	classFilter              filter.ClassFilter
	fieldFilter              filter.FieldFilter
	omitSharedBufferOverhead bool
	listenerFactory          ListenerFactory
	introspector             introspect.Introspector
	logger                   utils.Logger
}

// New creates a Meter from explicit collaborators. Callers without a reason
// to override parts of the measurement logic should use NewBuilder instead.
func New(strategy sizing.Strategy, classFilter filter.ClassFilter, fieldFilter filter.FieldFilter,
	omitSharedBufferOverhead bool, listenerFactory ListenerFactory) *Meter {

	return &Meter{
		strategy:                 strategy,
		classFilter:              classFilter,
		fieldFilter:              fieldFilter,
		omitSharedBufferOverhead: omitSharedBufferOverhead,
		listenerFactory:          listenerFactory,
		introspector:             introspect.Default,
		logger:                   &utils.NullLogger{},
	}
}

// Install registers the process-wide instrumentation capability used by
// assisted sizing. See sizing.Install.
func Install(inst sizing.Instrumentation) {
	sizing.Install(inst)
}

// HasInstrumentation reports whether assisted sizing is available.
func HasInstrumentation() bool {
	return sizing.HasInstrumentation()
}

// HasUnsafe reports whether low-level layout sizing is available.
func HasUnsafe() bool {
	return sizing.HasUnsafe()
}

// Measure returns the shallow size of obj as reported by the configured
// strategy. No traversal, no filtering. It fails if obj is nil.
func (m *Meter) Measure(obj interface{}) (int64, error) {
	return sizing.Measure(m.strategy, obj)
}

// identity is the visited-set key: the allocation address paired with the
// reference type, bypassing any value equality the measured type defines.
type identity struct {
	addr uintptr
	typ  reflect.Type
}

// identityOf returns the identity of the object v refers to. Values without
// a backing allocation (empty strings, zero-capacity slices, plain values)
// have no identity; they are leaves and carry no risk of re-visiting.
func identityOf(v reflect.Value) (identity, bool) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan:
		return identity{addr: v.Pointer(), typ: v.Type()}, true
	case reflect.Slice:
		if v.Cap() == 0 {
			return identity{}, false
		}
		return identity{addr: v.Pointer(), typ: v.Type()}, true
	case reflect.String:
		s := v.String()
		if len(s) == 0 {
			return identity{}, false
		}
		return identity{addr: uintptr(unsafe.Pointer(unsafe.StringData(s))), typ: v.Type()}, true
	default:
		return identity{}, false
	}
}

// traversal is the per-call state of one MeasureDeep invocation.
type traversal struct {
	meter    *Meter
	visited  map[identity]struct{}
	stack    []reflect.Value
	listener Listener
	total    int64
}

// stackPool recycles work stacks between measurements.
var stackPool = collections.NewSlicePool[reflect.Value](256)

// bytesBufferType identifies the shared-storage buffer view handled by the
// overhead-omission policy.
var bytesBufferType = reflect.TypeOf(bytes.Buffer{})

// MeasureDeep returns the total size of obj and everything transitively
// reachable from it, counting every distinct node exactly once. It fails if
// obj is nil and returns 0 if obj's type is excluded by the class filter.
func (m *Meter) MeasureDeep(obj interface{}) (int64, error) {
	if obj == nil {
		return 0, errors.Wrap(errors.CodeInvalidInput, "cannot measure nil object", nil)
	}

	root := reflect.ValueOf(obj)
	if isNilReference(root) {
		return 0, errors.Newf(errors.CodeInvalidInput, "cannot measure nil %s", root.Kind())
	}

	if m.classFilter.Ignore(root.Type()) {
		return 0, nil
	}

	stackPtr := stackPool.Get()

	t := &traversal{
		meter:    m,
		visited:  make(map[identity]struct{}),
		stack:    *stackPtr,
		listener: m.listenerFactory.NewListener(),
	}

	if id, ok := identityOf(root); ok {
		t.visited[id] = struct{}{}
	}
	t.listener.Started(root)
	t.stack = append(t.stack, root)

	err := t.run()

	*stackPtr = t.stack
	stackPool.Put(stackPtr)

	if err != nil {
		return 0, err
	}
	t.listener.Done(t.total)
	return t.total, nil
}

// run drains the work stack, measuring each node and scheduling its
// children.
func (t *traversal) run() error {
	for len(t.stack) > 0 {
		current := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]

		size, err := t.meter.strategy.MeasureValue(current)
		if err != nil {
			return err
		}
		t.total += size
		t.listener.ObjectMeasured(current, size)

		if err := t.addChildren(current); err != nil {
			return err
		}
	}
	return nil
}

// addChildren classifies the popped node and schedules its children.
func (t *traversal) addChildren(current reflect.Value) error {
	switch current.Kind() {
	case reflect.Ptr:
		elem := current.Elem()
		if t.meter.omitSharedBufferOverhead && elem.Type() == bytesBufferType {
			t.total += bufferRemaining(elem)
			return nil
		}
		return t.scanValue(current, "", elem)

	case reflect.Slice, reflect.Array:
		return t.addSequenceChildren(current)

	case reflect.Map:
		return t.addMapChildren(current)

	case reflect.Struct:
		// Root passed by value.
		if t.meter.omitSharedBufferOverhead && current.Type() == bytesBufferType {
			t.total += bufferRemaining(current)
			return nil
		}
		return t.scanValue(current, "", current)

	default:
		// Strings, channels and scalars are leaves.
		return nil
	}
}

// addSequenceChildren enumerates the slots of a homogeneous indexed
// sequence. Excluded elements are skipped at discovery time: they are never
// pushed and never reported.
func (t *traversal) addSequenceChildren(seq reflect.Value) error {
	if !introspect.HoldsReferences(seq.Type().Elem()) {
		return nil
	}
	for i := 0; i < seq.Len(); i++ {
		if err := t.scanValue(seq, strconv.Itoa(i), seq.Index(i)); err != nil {
			return err
		}
	}
	return nil
}

// addMapChildren enumerates the keys and values of a map node.
func (t *traversal) addMapChildren(m reflect.Value) error {
	keyRefs := introspect.HoldsReferences(m.Type().Key())
	elemRefs := introspect.HoldsReferences(m.Type().Elem())
	if !keyRefs && !elemRefs {
		return nil
	}

	i := 0
	iter := m.MapRange()
	for iter.Next() {
		if keyRefs {
			if err := t.scanValue(m, strconv.Itoa(i)+":key", iter.Key()); err != nil {
				return err
			}
		}
		if elemRefs {
			if err := t.scanValue(m, strconv.Itoa(i), iter.Value()); err != nil {
				return err
			}
		}
		i++
	}
	return nil
}

// scanValue walks the inline structure of v, pushing every reference it
// holds. parent is the node the discovery is attributed to; label carries
// the field name or sequence index path for diagnostics.
func (t *traversal) scanValue(parent reflect.Value, label string, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.String:
		t.maybePush(parent, label, v)
		return nil

	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		elem := v.Elem()
		switch elem.Kind() {
		case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.String,
			reflect.Func, reflect.UnsafePointer:
			// Pointer-shaped contents live in the data word directly; the
			// referent is a node of its own kind.
			return t.scanValue(parent, label, elem)
		default:
			t.pushBoxed(parent, label, v, elem)
			return nil
		}

	case reflect.Struct:
		declaring := v.Type()
		if t.meter.omitSharedBufferOverhead && declaring == bytesBufferType {
			t.total += bufferRemaining(v)
			return nil
		}
		for _, f := range t.meter.introspector.FieldsOf(declaring) {
			if t.meter.fieldFilter.Ignore(declaring, f) {
				continue
			}
			if t.meter.omitSharedBufferOverhead && f.Owner == bytesBufferType {
				// Buffer flattened out of an enclosing struct: charge its
				// unread extent instead of walking the backing storage.
				t.total += bufferRemaining(v.FieldByIndex(f.Index[:len(f.Index)-1]))
				continue
			}
			referent, err := t.meter.introspector.ReadReferent(v, f)
			if err != nil {
				return errors.Wrap(errors.CodeIntrospectionError, "cannot read field "+f.Name, err)
			}
			if err := t.scanValue(parent, joinLabel(label, f.Name), referent); err != nil {
				return err
			}
		}
		return nil

	case reflect.Array:
		if !introspect.HoldsReferences(v.Type().Elem()) {
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := t.scanValue(parent, joinLabel(label, strconv.Itoa(i)), v.Index(i)); err != nil {
				return err
			}
		}
		return nil

	default:
		// Primitive data: already counted in the containing object's
		// shallow size. Functions and unsafe pointers are opaque.
		return nil
	}
}

// maybePush schedules v unless it is nil, already visited, or of an
// excluded class.
func (t *traversal) maybePush(parent reflect.Value, label string, v reflect.Value) {
	if isNilReference(v) {
		return
	}
	if t.meter.classFilter.Ignore(v.Type()) {
		return
	}
	if id, ok := identityOf(v); ok {
		if _, seen := t.visited[id]; seen {
			return
		}
		t.visited[id] = struct{}{}
	}
	t.stack = append(t.stack, v)
	t.listener.FieldAdded(parent, label, v)
}

// pushBoxed schedules the boxed contents of an interface value. An
// interface holding non-pointer-shaped contents stores them in a separate
// heap allocation; that allocation is a node of its own, keyed by the
// interface's data word so a box shared between interface values is counted
// once.
func (t *traversal) pushBoxed(parent reflect.Value, label string, iface, elem reflect.Value) {
	if t.meter.classFilter.Ignore(elem.Type()) {
		return
	}
	if addr, ok := interfaceDataWord(iface); ok {
		id := identity{addr: addr, typ: elem.Type()}
		if _, seen := t.visited[id]; seen {
			return
		}
		t.visited[id] = struct{}{}
	}
	t.stack = append(t.stack, elem)
	t.listener.FieldAdded(parent, label, elem)
}

// ifaceWords mirrors the runtime representation of an interface value.
type ifaceWords struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// interfaceDataWord returns the address of the allocation an interface
// value boxes its contents in. A value that can be neither addressed nor
// re-interfaced has no reachable header; its box is charged without
// deduplication.
func interfaceDataWord(v reflect.Value) (uintptr, bool) {
	if v.CanAddr() {
		return uintptr((*ifaceWords)(unsafe.Pointer(v.UnsafeAddr())).data), true
	}
	if v.CanInterface() {
		obj := v.Interface()
		return uintptr((*ifaceWords)(unsafe.Pointer(&obj)).data), true
	}
	return 0, false
}

// isNilReference reports whether v is invalid or a nil reference.
func isNilReference(v reflect.Value) bool {
	if !v.IsValid() {
		return true
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Slice, reflect.Func,
		reflect.Interface, reflect.UnsafePointer:
		return v.IsNil()
	default:
		return false
	}
}

// bufferRemaining returns the count of unread bytes in a bytes.Buffer
// value: the logically used extent charged by the overhead-omission policy.
func bufferRemaining(buf reflect.Value) int64 {
	return int64(buf.FieldByName("buf").Len() - int(buf.FieldByName("off").Int()))
}

// joinLabel joins a parent label with a child segment.
func joinLabel(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
