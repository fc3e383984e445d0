// Package introspect provides structural introspection over arbitrary Go types.
//
// The traversal engine depends only on the Introspector interface: enumerating
// the reference-bearing fields of a struct type and reading field referents
// from a value. The default implementation is built on reflect, with an
// unsafe-based relaxation step that makes values reached through unexported
// fields usable outside the reflect API.
package introspect

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/deepsize/pkg/errors"
)

// FieldDescriptor describes one reference-bearing field of a struct type.
// Fields nested inside embedded or inline struct values are flattened into
// descriptors with dotted names and multi-step index paths.
type FieldDescriptor struct {
	// Declaring is the outermost struct type the field belongs to.
	Declaring reflect.Type

	// Owner is the struct type immediately declaring the field; it differs
	// from Declaring for fields flattened out of nested struct values.
	Owner reflect.Type

	// Name is the dotted field path, e.g. "next" or "header.payload".
	Name string

	// Index is the field index path through nested struct values.
	Index []int

	// Type is the declared type of the field.
	Type reflect.Type
}

// Introspector enumerates a type's reference-bearing fields and reads their
// referents. Implementations must be safe for concurrent use.
type Introspector interface {
	// FieldsOf returns descriptors for every field of t that can hold or
	// contain references. Fields holding only primitive data are omitted:
	// their bytes are part of the containing object's shallow size.
	FieldsOf(t reflect.Type) []FieldDescriptor

	// ReadReferent reads the value of the described field from v.
	// v must be a struct value of the descriptor's declaring type.
	ReadReferent(v reflect.Value, f FieldDescriptor) (reflect.Value, error)
}

// reflectIntrospector is the reflect-backed Introspector with a per-type
// descriptor cache.
type reflectIntrospector struct {
	mu    sync.RWMutex
	cache map[reflect.Type][]FieldDescriptor
}

// New creates a reflect-backed Introspector.
func New() Introspector {
	return &reflectIntrospector{
		cache: make(map[reflect.Type][]FieldDescriptor),
	}
}

// Default is the shared introspector instance used by the engine.
var Default = New()

// FieldsOf returns the flattened reference-bearing fields of t.
// Non-struct types have no fields.
func (r *reflectIntrospector) FieldsOf(t reflect.Type) []FieldDescriptor {
	if t == nil || t.Kind() != reflect.Struct {
		return nil
	}

	r.mu.RLock()
	cached, ok := r.cache[t]
	r.mu.RUnlock()
	if ok {
		return cached
	}

	fields := flattenFields(t, t, "", nil)

	r.mu.Lock()
	r.cache[t] = fields
	r.mu.Unlock()

	return fields
}

// flattenFields walks the fields of cur, descending into inline struct
// values, and collects descriptors rooted at declaring.
func flattenFields(declaring, cur reflect.Type, prefix string, index []int) []FieldDescriptor {
	var fields []FieldDescriptor

	for i := 0; i < cur.NumField(); i++ {
		f := cur.Field(i)
		name := f.Name
		if prefix != "" {
			name = prefix + "." + f.Name
		}
		path := make([]int, len(index)+1)
		copy(path, index)
		path[len(index)] = i

		switch {
		case f.Type.Kind() == reflect.Struct:
			fields = append(fields, flattenFields(declaring, f.Type, name, path)...)
		case HoldsReferences(f.Type):
			fields = append(fields, FieldDescriptor{
				Declaring: declaring,
				Owner:     cur,
				Name:      name,
				Index:     path,
				Type:      f.Type,
			})
		}
	}

	return fields
}

// ReadReferent reads the described field from v.
func (r *reflectIntrospector) ReadReferent(v reflect.Value, f FieldDescriptor) (reflect.Value, error) {
	if !v.IsValid() || v.Kind() != reflect.Struct {
		return reflect.Value{}, errors.Wrap(errors.CodeIntrospectionError, "referent holder is not a struct value", nil)
	}
	if v.Type() != f.Declaring {
		return reflect.Value{}, errors.Newf(errors.CodeIntrospectionError,
			"field %s declared on %s, read attempted on %s", f.Name, f.Declaring, v.Type())
	}

	cur := v
	for _, i := range f.Index {
		cur = cur.Field(i)
	}
	return cur, nil
}

// HoldsReferences reports whether values of t can hold or contain references
// to other objects. Struct and array types are inspected recursively.
func HoldsReferences(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Slice,
		reflect.Chan, reflect.Func, reflect.String, reflect.Interface:
		return true
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if HoldsReferences(t.Field(i).Type) {
				return true
			}
		}
		return false
	case reflect.Array:
		return t.Len() > 0 && HoldsReferences(t.Elem())
	default:
		return false
	}
}

var (
	relaxOnce sync.Once
	relaxErr  error
)

// Relax performs the process-wide relaxation that makes values reached
// through unexported fields readable outside the reflect API. It probes the
// mechanism once; repeated and concurrent calls are cheap and return the
// recorded result. There is no teardown.
func Relax() error {
	relaxOnce.Do(func() {
		relaxErr = probeUnexportedAccess()
	})
	return relaxErr
}

type relaxProbe struct {
	hidden *int
}

// probeUnexportedAccess verifies that a referent read from an unexported
// field can be exposed as a plain interface value.
func probeUnexportedAccess() error {
	n := 7
	p := relaxProbe{hidden: &n}

	field := reflect.ValueOf(&p).Elem().Field(0)
	exposed, err := Expose(field)
	if err != nil {
		return err
	}
	got, ok := exposed.(*int)
	if !ok || got == nil || *got != n {
		return errors.New(errors.CodeIntrospectionError, "unexported field probe returned wrong value")
	}
	return nil
}

// Expose converts v, which may have been obtained through an unexported
// field, into a plain interface value. Addressable values are rebound
// through their address; non-addressable reference values are rebuilt from
// their header words.
func Expose(v reflect.Value) (interface{}, error) {
	if !v.IsValid() {
		return nil, errors.Wrap(errors.CodeIntrospectionError, "cannot expose invalid value", nil)
	}
	if v.CanInterface() {
		return v.Interface(), nil
	}
	if v.CanAddr() {
		return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem().Interface(), nil
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		// Single-word headers: write the word into a fresh variable of the
		// same type.
		out := reflect.New(v.Type())
		*(*unsafe.Pointer)(unsafe.Pointer(out.Pointer())) = unsafe.Pointer(v.Pointer())
		return out.Elem().Interface(), nil
	case reflect.String:
		return v.String(), nil
	case reflect.Slice:
		out := reflect.New(v.Type())
		header := (*sliceHeader)(unsafe.Pointer(out.Pointer()))
		header.data = unsafe.Pointer(v.Pointer())
		header.len = v.Len()
		header.cap = v.Cap()
		return out.Elem().Interface(), nil
	case reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return Expose(v.Elem())
	default:
		return nil, errors.Newf(errors.CodeIntrospectionError,
			"cannot expose non-addressable %s value", v.Kind())
	}
}

// sliceHeader mirrors the runtime representation of a slice.
type sliceHeader struct {
	data unsafe.Pointer
	len  int
	cap  int
}
