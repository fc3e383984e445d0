package meter

import (
	"reflect"
)

// Listener observes the lifecycle of one deep measurement. A fresh listener
// is created per MeasureDeep call; implementations may keep per-traversal
// state without synchronization.
//
// Listeners are diagnostic add-ons, not part of the accounting contract:
// panics from a listener propagate and abort the traversal.
type Listener interface {
	// Started is called once, with the traversal root, before any node is
	// measured.
	Started(root reflect.Value)

	// ObjectMeasured is called after a node's shallow size was added to the
	// running total.
	ObjectMeasured(node reflect.Value, size int64)

	// FieldAdded is called when a child node is discovered and scheduled,
	// labeled by the field name or sequence index it was reached through.
	FieldAdded(parent reflect.Value, label string, child reflect.Value)

	// Done is called once, with the final total, after the last node was
	// measured.
	Done(total int64)
}

// ListenerFactory creates one Listener per traversal.
type ListenerFactory interface {
	NewListener() Listener
}

// noopListener ignores all events.
type noopListener struct{}

func (noopListener) Started(reflect.Value)                           {}
func (noopListener) ObjectMeasured(reflect.Value, int64)             {}
func (noopListener) FieldAdded(reflect.Value, string, reflect.Value) {}
func (noopListener) Done(int64)                                      {}

// NoopListenerFactory hands out the shared no-op listener.
type NoopListenerFactory struct{}

// NewListener implements ListenerFactory.
func (NoopListenerFactory) NewListener() Listener {
	return noopListener{}
}
