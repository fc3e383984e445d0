package telemetry

import (
	"context"
	"reflect"
	"testing"
)

type listNode struct {
	Next *listNode
}

func TestTraceListener_CountsNodesAndEdges(t *testing.T) {
	f := NewTraceListenerFactory(context.Background())

	l := f.NewListener().(*traceListener)

	a := &listNode{Next: &listNode{}}
	root := reflect.ValueOf(a)

	l.Started(root)
	l.ObjectMeasured(root, 8)
	l.FieldAdded(root, "Next", reflect.ValueOf(a.Next))
	l.ObjectMeasured(reflect.ValueOf(a.Next), 8)
	l.Done(16)

	if l.nodes != 2 {
		t.Errorf("Expected 2 nodes, got %d", l.nodes)
	}
	if l.edges != 1 {
		t.Errorf("Expected 1 edge, got %d", l.edges)
	}
}

func TestTraceListener_FreshPerTraversal(t *testing.T) {
	f := NewTraceListenerFactory(nil)

	first := f.NewListener()
	second := f.NewListener()
	if first == second {
		t.Error("Expected a fresh listener per traversal")
	}
}

func TestTraceListener_DoneWithoutStart(t *testing.T) {
	l := &traceListener{}
	// Must not panic when the traversal never started a span.
	l.Done(0)
}
