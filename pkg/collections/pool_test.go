package collections

import (
	"testing"
)

func TestSlicePool(t *testing.T) {
	pool := NewSlicePool[int](256)

	// Get a slice
	s := pool.Get()
	if s == nil {
		t.Fatal("Get returned nil")
	}
	if cap(*s) < 256 {
		t.Errorf("Expected capacity >= 256, got %d", cap(*s))
	}

	// Use the slice
	*s = append(*s, 1, 2, 3)
	if len(*s) != 3 {
		t.Errorf("Expected length 3, got %d", len(*s))
	}

	// Put it back
	pool.Put(s)

	// Get again (should be cleared)
	s2 := pool.Get()
	if len(*s2) != 0 {
		t.Errorf("Expected length 0 after Put, got %d", len(*s2))
	}
}

func TestSlicePool_DefaultCapacity(t *testing.T) {
	pool := NewSlicePool[string](0)

	s := pool.Get()
	if cap(*s) < 256 {
		t.Errorf("Expected default capacity >= 256, got %d", cap(*s))
	}
}

func TestSlicePool_PutClearsReferences(t *testing.T) {
	type holder struct{ p *int }
	pool := NewSlicePool[holder](4)

	n := 42
	s := pool.Get()
	*s = append(*s, holder{p: &n})
	pool.Put(s)

	// The pooled backing array must not pin the released elements.
	recovered := *s
	recovered = recovered[:cap(recovered)]
	for i := range recovered {
		if recovered[i].p != nil {
			t.Errorf("Expected cleared element at %d", i)
		}
	}
}
