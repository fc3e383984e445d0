package sizing

import (
	"reflect"
	"sync"
)

// tableStrategy sizes objects from predefined layout tables: per-kind sizes
// and alignments for a 64-bit platform, applied recursively to struct and
// array types. It never consults the runtime's own layout data, so it is
// always available.
type tableStrategy struct {
	mu    sync.RWMutex
	sizes map[reflect.Type]int64
}

// NewTableStrategy creates the table-based sizing strategy.
func NewTableStrategy() Strategy {
	return &tableStrategy{sizes: make(map[reflect.Type]int64)}
}

// Name returns the strategy identifier.
func (s *tableStrategy) Name() string {
	return "table"
}

// MeasureValue measures the shallow size of the object v refers to.
func (s *tableStrategy) MeasureValue(v reflect.Value) (int64, error) {
	return measureCommon(v, s.sizeOf)
}

// sizeOf returns the table-computed size of t, caching struct and array
// results.
func (s *tableStrategy) sizeOf(t reflect.Type) int64 {
	if size, align := scalarLayout(t.Kind()); align != 0 {
		return size
	}

	s.mu.RLock()
	size, ok := s.sizes[t]
	s.mu.RUnlock()
	if ok {
		return size
	}

	size = s.computeSize(t)

	s.mu.Lock()
	s.sizes[t] = size
	s.mu.Unlock()

	return size
}

func (s *tableStrategy) computeSize(t reflect.Type) int64 {
	switch t.Kind() {
	case reflect.Struct:
		var offset, maxAlign int64
		for i := 0; i < t.NumField(); i++ {
			ft := t.Field(i).Type
			align := s.alignOf(ft)
			if align > maxAlign {
				maxAlign = align
			}
			offset = roundUp(offset, align)
			offset += s.sizeOf(ft)
		}
		if maxAlign == 0 {
			return 0
		}
		return roundUp(offset, maxAlign)
	case reflect.Array:
		if t.Len() == 0 {
			return 0
		}
		stride := roundUp(s.sizeOf(t.Elem()), s.alignOf(t.Elem()))
		return int64(t.Len()) * stride
	default:
		size, _ := scalarLayout(t.Kind())
		return size
	}
}

// alignOf returns the table alignment of t.
func (s *tableStrategy) alignOf(t reflect.Type) int64 {
	switch t.Kind() {
	case reflect.Struct:
		var maxAlign int64 = 1
		for i := 0; i < t.NumField(); i++ {
			if a := s.alignOf(t.Field(i).Type); a > maxAlign {
				maxAlign = a
			}
		}
		return maxAlign
	case reflect.Array:
		return s.alignOf(t.Elem())
	default:
		_, align := scalarLayout(t.Kind())
		if align == 0 {
			return 1
		}
		return align
	}
}

// scalarLayout returns the predefined (size, alignment) for non-composite
// kinds. Alignment 0 marks composite kinds the caller must compute.
func scalarLayout(k reflect.Kind) (int64, int64) {
	switch k {
	case reflect.Bool, reflect.Int8, reflect.Uint8:
		return 1, 1
	case reflect.Int16, reflect.Uint16:
		return 2, 2
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 4, 4
	case reflect.Int64, reflect.Uint64, reflect.Int, reflect.Uint,
		reflect.Uintptr, reflect.Float64:
		return 8, 8
	case reflect.Complex64:
		return 8, 4
	case reflect.Complex128:
		return 16, 8
	case reflect.Ptr, reflect.UnsafePointer, reflect.Map, reflect.Chan, reflect.Func:
		return wordSize, wordSize
	case reflect.String:
		return 2 * wordSize, wordSize
	case reflect.Interface:
		return 2 * wordSize, wordSize
	case reflect.Slice:
		return 3 * wordSize, wordSize
	default:
		return 0, 0
	}
}

func roundUp(n, align int64) int64 {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
