// Package report builds serializable summaries of deep measurements: per
// traversal, one Report with node, edge and byte counts, aggregated by type.
package report

import (
	"reflect"

	"github.com/deepsize/pkg/meter"
)

// TypeStats aggregates the measured nodes of one type.
type TypeStats struct {
	Count int   `json:"count"`
	Bytes int64 `json:"bytes"`
}

// Report summarizes one deep measurement.
type Report struct {
	RootType   string               `json:"root_type"`
	TotalBytes int64                `json:"total_bytes"`
	Nodes      int                  `json:"nodes"`
	Edges      int                  `json:"edges"`
	ByType     map[string]TypeStats `json:"by_type"`
}

// ListenerFactory creates one recording listener per traversal and hands
// the finished report to the sink.
type ListenerFactory struct {
	sink func(*Report)
}

var _ meter.ListenerFactory = (*ListenerFactory)(nil)

// NewListenerFactory creates a factory delivering one Report per completed
// traversal to sink. Failed traversals deliver nothing.
func NewListenerFactory(sink func(*Report)) *ListenerFactory {
	return &ListenerFactory{sink: sink}
}

// NewListener implements meter.ListenerFactory.
func (f *ListenerFactory) NewListener() meter.Listener {
	return &recorder{
		sink: f.sink,
		report: &Report{
			ByType: make(map[string]TypeStats),
		},
	}
}

// recorder accumulates one traversal into a Report.
type recorder struct {
	sink   func(*Report)
	report *Report
}

func (r *recorder) Started(root reflect.Value) {
	r.report.RootType = root.Type().String()
}

func (r *recorder) ObjectMeasured(node reflect.Value, size int64) {
	r.report.Nodes++
	name := node.Type().String()
	stats := r.report.ByType[name]
	stats.Count++
	stats.Bytes += size
	r.report.ByType[name] = stats
}

func (r *recorder) FieldAdded(reflect.Value, string, reflect.Value) {
	r.report.Edges++
}

func (r *recorder) Done(total int64) {
	r.report.TotalBytes = total
	if r.sink != nil {
		r.sink(r.report)
	}
}
