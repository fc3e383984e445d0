package meter_test

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepsize/internal/testutil"
	"github.com/deepsize/pkg/meter"
	"github.com/deepsize/pkg/sizing"
)

func newMeter(t *testing.T, configure func(*meter.Builder) *meter.Builder) *meter.Meter {
	t.Helper()
	b := meter.NewBuilder().WithGuessing(sizing.GuessAlwaysTable)
	if configure != nil {
		b = configure(b)
	}
	m, err := b.Build()
	require.NoError(t, err)
	return m
}

func TestRingCountedOncePerNode(t *testing.T) {
	m := newMeter(t, nil)

	for _, n := range []int{1, 2, 5, 64} {
		ring := testutil.NewRing(n)
		shallow, err := m.Measure(ring)
		require.NoError(t, err)
		deep, err := m.MeasureDeep(ring)
		require.NoError(t, err)
		assert.Equal(t, int64(n)*shallow, deep, "ring of %d nodes", n)
	}
}

func TestDiamondChargesSharedNodeOnce(t *testing.T) {
	m := newMeter(t, nil)

	d := testutil.NewDiamond()
	rootShallow, err := m.Measure(d)
	require.NoError(t, err)
	sharedShallow, err := m.Measure(d.Left)
	require.NoError(t, err)

	deep, err := m.MeasureDeep(d)
	require.NoError(t, err)
	assert.Equal(t, rootShallow+sharedShallow, deep)
}

func TestSharedArrayChargesTargetOnce(t *testing.T) {
	m := newMeter(t, nil)

	a := testutil.NewSharedArray()
	rootShallow, err := m.Measure(a)
	require.NoError(t, err)
	targetShallow, err := m.Measure(a.Slots[0])
	require.NoError(t, err)

	deep, err := m.MeasureDeep(a)
	require.NoError(t, err)
	assert.Equal(t, rootShallow+targetShallow, deep)
}

func TestBufferOmissionSkipsSpareCapacity(t *testing.T) {
	full := newMeter(t, nil)
	omitting := newMeter(t, func(b *meter.Builder) *meter.Builder {
		return b.OmitSharedBufferOverhead()
	})

	fullDeep, err := full.MeasureDeep(testutil.NewBufferHolder(4096, 10))
	require.NoError(t, err)
	omittedDeep, err := omitting.MeasureDeep(testutil.NewBufferHolder(4096, 10))
	require.NoError(t, err)

	assert.Less(t, omittedDeep, fullDeep)
	assert.Greater(t, fullDeep-omittedDeep, int64(1000),
		"omission must drop the grown backing capacity, not just constants")
}

func TestSingletonZoneNotCharged(t *testing.T) {
	plain := newMeter(t, nil)
	filtered := newMeter(t, func(b *meter.Builder) *meter.Builder {
		return b.IgnoreKnownSingletons()
	})

	h := testutil.NewZoneHolder()
	shallow, err := filtered.Measure(h)
	require.NoError(t, err)

	filteredDeep, err := filtered.MeasureDeep(h)
	require.NoError(t, err)
	assert.Equal(t, shallow, filteredDeep)

	plainDeep, err := plain.MeasureDeep(h)
	require.NoError(t, err)
	assert.Greater(t, plainDeep, filteredDeep)
}

func TestWeakTargetNeverCharged(t *testing.T) {
	m := newMeter(t, func(b *meter.Builder) *meter.Builder {
		return b.IgnoreNonStrongReferences()
	})

	h, keepAlive := testutil.NewWeakHolder()
	rootShallow, err := m.Measure(h)
	require.NoError(t, err)
	strongShallow, err := m.Measure(h.Strong)
	require.NoError(t, err)

	deep, err := m.MeasureDeep(h)
	require.NoError(t, err)
	assert.Equal(t, rootShallow+strongShallow, deep)

	runtime.KeepAlive(keepAlive)
}

func TestFallbackModeBuildsWithoutInstrumentation(t *testing.T) {
	m, err := meter.NewBuilder().WithGuessing(sizing.GuessFallbackBest).Build()
	require.NoError(t, err)

	deep, err := m.MeasureDeep(testutil.NewRing(3))
	require.NoError(t, err)
	assert.Positive(t, deep)
}

func TestBoxedInterfaceContentsAreCharged(t *testing.T) {
	type payload struct{ A, B, C, D int64 }
	type holder struct{ V interface{} }

	m := newMeter(t, nil)

	h := &holder{V: payload{1, 2, 3, 4}}
	shallow, err := m.Measure(h)
	require.NoError(t, err)
	deep, err := m.MeasureDeep(h)
	require.NoError(t, err)

	assert.Equal(t, shallow+32, deep, "the boxed 32-byte payload is a node of its own")
	assert.Greater(t, deep, shallow)
}
