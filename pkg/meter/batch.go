package meter

import (
	"context"

	"github.com/deepsize/pkg/parallel"
)

// BatchResult holds the outcome of measuring one root.
type BatchResult struct {
	Object interface{}
	Size   int64
	Err    error
}

// MeasureDeepAll measures many independent roots concurrently and returns
// per-root results in input order. Each traversal keeps its own visited
// set, so a node reachable from several roots is charged to each of them.
func (m *Meter) MeasureDeepAll(ctx context.Context, objs []interface{}, cfg parallel.PoolConfig) []BatchResult {
	pool := parallel.NewWorkerPool[interface{}, int64](cfg)

	results := pool.ExecuteFunc(ctx, objs, func(_ context.Context, obj interface{}) (int64, error) {
		return m.MeasureDeep(obj)
	})

	out := make([]BatchResult, len(results))
	for i, r := range results {
		out[i] = BatchResult{Object: r.Input, Size: r.Result, Err: r.Error}
	}
	return out
}
