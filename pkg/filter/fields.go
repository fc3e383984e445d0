package filter

import (
	"reflect"
	"strings"

	"github.com/deepsize/pkg/introspect"
)

// outerBackReferenceNames are the conventional field names nested composite
// types use to point back at their enclosing instance.
var outerBackReferenceNames = map[string]bool{
	"outer":     true,
	"parent":    true,
	"enclosing": true,
}

// outerReferenceFilter skips back-references from a nested composite to its
// enclosing instance, so measuring an inner object does not drag in the
// whole outer object graph.
type outerReferenceFilter struct{}

func (outerReferenceFilter) Ignore(declaring reflect.Type, f introspect.FieldDescriptor) bool {
	if f.Type.Kind() != reflect.Ptr && f.Type.Kind() != reflect.Interface {
		return false
	}
	name := f.Name
	if idx := strings.LastIndex(name, "."); idx >= 0 {
		name = name[idx+1:]
	}
	return outerBackReferenceNames[strings.ToLower(name)]
}

// nonStrongReferenceFilter skips referents reached only through non-strong
// indirections: fields of weak-pointer types do not keep their referent
// alive, so their targets are not part of the object's retained cost.
type nonStrongReferenceFilter struct{}

func (nonStrongReferenceFilter) Ignore(declaring reflect.Type, f introspect.FieldDescriptor) bool {
	if isWeakType(f.Type) {
		return true
	}
	// Fields flattened out of a weak wrapper carry the wrapper as owner.
	return f.Owner != nil && f.Owner.PkgPath() == "weak"
}

// isWeakType reports whether t is a weak-reference wrapper.
func isWeakType(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Struct:
		return t.PkgPath() == "weak"
	case reflect.Ptr:
		return isWeakType(t.Elem())
	default:
		return false
	}
}
