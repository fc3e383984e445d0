package sizing

import (
	"reflect"
)

// Allocation model constants for a 64-bit platform.
const (
	wordSize = 8

	// mapHeaderSize approximates the map header allocation.
	mapHeaderSize = 48

	// bucketEntries is the number of entries per hash bucket.
	bucketEntries = 8

	// bucketOverhead covers per-bucket bookkeeping (tophash plus the
	// overflow pointer).
	bucketOverhead = 16

	// chanOverhead approximates the channel header allocation.
	chanOverhead = 96

	// maxSmallAlloc is the largest size the size-class table covers.
	maxSmallAlloc = 32768

	// pageSize is the allocation granularity above maxSmallAlloc.
	pageSize = 8192
)

// allocSizeClasses is the allocator's small-object size class table.
// Heap objects occupy the smallest class that fits them.
var allocSizeClasses = []int64{
	0, 8, 16, 24, 32, 48, 64, 80, 96, 112, 128,
	144, 160, 176, 192, 208, 224, 240, 256, 288, 320,
	352, 384, 416, 448, 480, 512, 576, 640, 704, 768,
	896, 1024, 1152, 1280, 1408, 1536, 1792, 2048, 2304, 2688,
	3072, 3200, 3456, 4096, 4864, 5376, 6144, 6528, 6784, 6912,
	8192, 9472, 9728, 10240, 10880, 12288, 13568, 14336, 16384, 18432,
	19072, 20480, 21760, 24576, 27264, 28672, 32768,
}

// roundAllocSize rounds a requested byte count up to the size the allocator
// actually hands out.
func roundAllocSize(size int64) int64 {
	if size <= 0 {
		return 0
	}
	if size <= maxSmallAlloc {
		for _, class := range allocSizeClasses {
			if size <= class {
				return class
			}
		}
	}
	pages := (size + pageSize - 1) / pageSize
	return pages * pageSize
}

// typeSizer computes the in-memory size of one value of a type, excluding
// allocation rounding. The layout strategies differ only in this function.
type typeSizer func(t reflect.Type) int64

// measureCommon measures the shallow size of the object v refers to, using
// sizer for raw type sizes. Pointer-like kinds charge the referenced
// allocation; plain values charge their own representation.
func measureCommon(v reflect.Value, sizer typeSizer) (int64, error) {
	if err := checkMeasurable(v); err != nil {
		return 0, err
	}

	switch v.Kind() {
	case reflect.Interface:
		return measureCommon(v.Elem(), sizer)
	case reflect.Ptr:
		return roundAllocSize(sizer(v.Type().Elem())), nil
	case reflect.Slice:
		return roundAllocSize(int64(v.Cap()) * sizer(v.Type().Elem())), nil
	case reflect.String:
		return roundAllocSize(int64(v.Len())), nil
	case reflect.Map:
		return roundAllocSize(mapAllocSize(v, sizer)), nil
	case reflect.Chan:
		return roundAllocSize(chanOverhead + int64(v.Cap())*sizer(v.Type().Elem())), nil
	case reflect.Func:
		// Closures are opaque; charge the function word.
		return wordSize, nil
	default:
		return roundAllocSize(sizer(v.Type())), nil
	}
}

// mapAllocSize estimates the allocation behind a map: header plus enough
// buckets to hold the current entry count at the standard load factor.
func mapAllocSize(v reflect.Value, sizer typeSizer) int64 {
	n := int64(v.Len())
	buckets := int64(1)
	// Grow until n entries fit below the 13/16 load factor.
	for buckets*bucketEntries*13/16 < n {
		buckets *= 2
	}
	entrySize := sizer(v.Type().Key()) + sizer(v.Type().Elem())
	return mapHeaderSize + buckets*(bucketOverhead+bucketEntries*entrySize)
}
