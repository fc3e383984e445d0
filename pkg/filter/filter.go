// Package filter provides class and field filtering for object graph
// measurement: deciding which types are excluded from a measured graph
// entirely and which fields are skipped while enumerating a node's children.
package filter

import (
	"reflect"

	"github.com/deepsize/pkg/introspect"
)

// ClassFilter decides whether instances of a type are excluded from
// measurement: excluded types contribute size 0 and are never traversed.
// Implementations must be safe for concurrent use.
type ClassFilter interface {
	// Ignore reports whether instances of t should be excluded.
	Ignore(t reflect.Type) bool
}

// FieldFilter decides whether a field's referent is excluded from traversal.
// Implementations must be safe for concurrent use.
type FieldFilter interface {
	// Ignore reports whether the referent of f, declared on the given type,
	// should be excluded.
	Ignore(declaring reflect.Type, f introspect.FieldDescriptor) bool
}

// ClassFilterFunc adapts a function to the ClassFilter interface.
type ClassFilterFunc func(t reflect.Type) bool

// Ignore implements ClassFilter.
func (f ClassFilterFunc) Ignore(t reflect.Type) bool {
	return f(t)
}

// FieldFilterFunc adapts a function to the FieldFilter interface.
type FieldFilterFunc func(declaring reflect.Type, f introspect.FieldDescriptor) bool

// Ignore implements FieldFilter.
func (fn FieldFilterFunc) Ignore(declaring reflect.Type, f introspect.FieldDescriptor) bool {
	return fn(declaring, f)
}

// classFilterChain excludes a type when any member filter excludes it.
type classFilterChain []ClassFilter

func (c classFilterChain) Ignore(t reflect.Type) bool {
	for _, f := range c {
		if f.Ignore(t) {
			return true
		}
	}
	return false
}

// fieldFilterChain excludes a field when any member filter excludes it.
type fieldFilterChain []FieldFilter

func (c fieldFilterChain) Ignore(declaring reflect.Type, f introspect.FieldDescriptor) bool {
	for _, filter := range c {
		if filter.Ignore(declaring, f) {
			return true
		}
	}
	return false
}

// noneClass ignores nothing.
var noneClass = ClassFilterFunc(func(reflect.Type) bool { return false })

// ClassFilters builds the class filter selected by the builder flags.
func ClassFilters(ignoreKnownSingletons bool) ClassFilter {
	if !ignoreKnownSingletons {
		return noneClass
	}
	return NewSingletonClassFilter()
}

// FieldFilters builds the field filter selected by the builder flags. The
// class rules are always consulted for field types so that a class excluded
// from the graph is unreachable through any field.
func FieldFilters(ignoreKnownSingletons, ignoreOuterReferences, ignoreNonStrongReferences bool) FieldFilter {
	chain := fieldFilterChain{
		fieldClassFilter{classes: ClassFilters(ignoreKnownSingletons)},
	}
	if ignoreOuterReferences {
		chain = append(chain, outerReferenceFilter{})
	}
	if ignoreNonStrongReferences {
		chain = append(chain, nonStrongReferenceFilter{})
	}
	return chain
}

// fieldClassFilter rejects fields whose declared type (or pointee type) is
// excluded by the class rules.
type fieldClassFilter struct {
	classes ClassFilter
}

func (f fieldClassFilter) Ignore(declaring reflect.Type, fd introspect.FieldDescriptor) bool {
	t := fd.Type
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return f.classes.Ignore(t)
}
