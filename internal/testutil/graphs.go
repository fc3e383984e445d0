// Package testutil provides object-graph fixtures shared across tests.
package testutil

import (
	"bytes"
	"time"
	"weak"
)

// Ring is a singly linked node used to build cyclic lists.
type Ring struct {
	Payload int64
	Next    *Ring
}

// NewRing builds a cyclic list of n nodes and returns the first. n must be
// positive.
func NewRing(n int) *Ring {
	first := &Ring{Payload: 0}
	cur := first
	for i := 1; i < n; i++ {
		cur.Next = &Ring{Payload: int64(i)}
		cur = cur.Next
	}
	cur.Next = first
	return first
}

// Diamond holds the same target through two paths.
type Diamond struct {
	Left  *Ring
	Right *Ring
}

// NewDiamond builds a diamond over a single shared node.
func NewDiamond() *Diamond {
	shared := &Ring{}
	return &Diamond{Left: shared, Right: shared}
}

// SharedArray is an array of pointers that all alias one target.
type SharedArray struct {
	Slots [100]*Ring
}

// NewSharedArray builds the aliased array fixture.
func NewSharedArray() *SharedArray {
	shared := &Ring{}
	a := &SharedArray{}
	for i := range a.Slots {
		a.Slots[i] = shared
	}
	return a
}

// BufferHolder wraps a buffer with spare capacity and unread content.
type BufferHolder struct {
	Buf *bytes.Buffer
}

// NewBufferHolder builds a buffer with grown backing capacity holding
// unread pending bytes.
func NewBufferHolder(grown, unread int) *BufferHolder {
	var b bytes.Buffer
	b.Grow(grown)
	b.Write(make([]byte, unread))
	return &BufferHolder{Buf: &b}
}

// WeakHolder keeps one strong and one weak reference to distinct targets.
type WeakHolder struct {
	Strong *Ring
	Weak   weak.Pointer[Ring]
}

// NewWeakHolder builds the weak-reference fixture. The weak target is kept
// alive by the returned keepAlive value.
func NewWeakHolder() (h *WeakHolder, keepAlive *Ring) {
	target := &Ring{}
	return &WeakHolder{
		Strong: &Ring{},
		Weak:   weak.Make(target),
	}, target
}

// ZoneHolder points at a process-wide time zone singleton.
type ZoneHolder struct {
	Zone *time.Location
}

// NewZoneHolder builds the singleton fixture.
func NewZoneHolder() *ZoneHolder {
	return &ZoneHolder{Zone: time.UTC}
}
