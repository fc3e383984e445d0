package parallel

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig()
	assert.GreaterOrEqual(t, cfg.MaxWorkers, 2)
	assert.LessOrEqual(t, cfg.MaxWorkers, 8)
	assert.Equal(t, cfg.MaxWorkers*2, cfg.TaskBufferSize)
}

func TestPoolConfig_With(t *testing.T) {
	cfg := DefaultPoolConfig().WithWorkers(3).WithTimeout(time.Second)
	assert.Equal(t, 3, cfg.MaxWorkers)
	assert.Equal(t, time.Second, cfg.Timeout)
}

func TestExecuteFunc_OrderedResults(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(4))

	inputs := make([]int, 50)
	for i := range inputs {
		inputs[i] = i
	}

	results := pool.ExecuteFunc(context.Background(), inputs, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})

	require.Len(t, results, 50)
	for i, r := range results {
		assert.NoError(t, r.Error)
		assert.Equal(t, i, r.Input)
		assert.Equal(t, i*2, r.Result)
	}
}

func TestExecuteFunc_EmptyInput(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig())
	assert.Nil(t, pool.ExecuteFunc(context.Background(), nil, func(_ context.Context, n int) (int, error) {
		return n, nil
	}))
}

func TestExecuteFunc_PerTaskErrors(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(2))
	boom := errors.New("boom")

	results := pool.ExecuteFunc(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Error)
	assert.ErrorIs(t, results[1].Error, boom)
	assert.NoError(t, results[2].Error)
}

func TestExecuteFunc_Cancellation(t *testing.T) {
	pool := NewWorkerPool[int, int](DefaultPoolConfig().WithWorkers(1))

	ctx, cancel := context.WithCancel(context.Background())

	inputs := make([]int, 100)
	results := pool.ExecuteFunc(ctx, inputs, func(ctx context.Context, n int) (int, error) {
		cancel()
		<-ctx.Done()
		return 0, ctx.Err()
	})

	require.Len(t, results, 100)
	cancelled := 0
	for _, r := range results {
		if errors.Is(r.Error, context.Canceled) {
			cancelled++
		}
	}
	assert.Greater(t, cancelled, 90, "cancellation must mark tasks that never ran")
}

func TestExecuteFunc_DefaultsAppliedForZeroConfig(t *testing.T) {
	pool := NewWorkerPool[int, int](PoolConfig{})

	results := pool.ExecuteFunc(context.Background(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	require.Len(t, results, 3)
}
