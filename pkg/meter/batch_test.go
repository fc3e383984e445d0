package meter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepsize/pkg/errors"
	"github.com/deepsize/pkg/parallel"
)

func TestMeasureDeepAll(t *testing.T) {
	m := newUnitMeter()

	objs := make([]interface{}, 20)
	for i := range objs {
		a := &ringNode{}
		a.Next = &ringNode{}
		objs[i] = a
	}

	results := m.MeasureDeepAll(context.Background(), objs, parallel.DefaultPoolConfig())
	require.Len(t, results, 20)
	for i, r := range results {
		assert.NoError(t, r.Err)
		assert.Same(t, objs[i], r.Object)
		assert.Equal(t, 2*unit, r.Size)
	}
}

func TestMeasureDeepAll_PerRootErrors(t *testing.T) {
	m := newUnitMeter()

	var nilRoot *ringNode
	results := m.MeasureDeepAll(context.Background(),
		[]interface{}{&ringNode{}, nilRoot}, parallel.DefaultPoolConfig())

	require.Len(t, results, 2)
	assert.NoError(t, results[0].Err)
	assert.True(t, errors.IsInvalidInput(results[1].Err))
}

func TestMeasureDeepAll_Empty(t *testing.T) {
	m := newUnitMeter()
	assert.Empty(t, m.MeasureDeepAll(context.Background(), nil, parallel.DefaultPoolConfig()))
}
