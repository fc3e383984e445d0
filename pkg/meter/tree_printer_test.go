package meter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deepsize/pkg/sizing"
	"github.com/deepsize/pkg/utils"
)

func TestTreePrinter_PrintsVisitedTree(t *testing.T) {
	var out bytes.Buffer
	m, err := NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		PrintVisitedTreeTo(&out).
		PrintVisitedTree().
		Build()
	require.NoError(t, err)

	a := &ringNode{}
	a.Next = &ringNode{}

	total, err := m.MeasureDeep(a)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "root: *meter.ringNode")
	assert.Contains(t, lines[1], "  Next: *meter.ringNode")
	assert.Contains(t, lines[2], "total: ")
	assert.Contains(t, out.String(), "bytes")
	assert.Positive(t, total)
}

func TestTreePrinter_DepthBound(t *testing.T) {
	var out bytes.Buffer
	m, err := NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		PrintVisitedTreeTo(&out).
		PrintVisitedTreeUpTo(1).
		Build()
	require.NoError(t, err)

	a := &ringNode{}
	a.Next = &ringNode{}

	_, err = m.MeasureDeep(a)
	require.NoError(t, err)

	assert.Contains(t, out.String(), "root: ")
	assert.NotContains(t, out.String(), "Next: ")
	assert.Contains(t, out.String(), "total: ")
}

func TestTreePrinter_CycleDoesNotRepeat(t *testing.T) {
	var out bytes.Buffer
	m, err := NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		PrintVisitedTreeTo(&out).
		PrintVisitedTree().
		Build()
	require.NoError(t, err)

	a := &ringNode{}
	a.Next = a

	_, err = m.MeasureDeep(a)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(out.String(), "root: "), "a self cycle must render one node")
	assert.Zero(t, strings.Count(out.String(), "Next: "))
}

func TestTreePrinter_FreshListenerPerTraversal(t *testing.T) {
	var out bytes.Buffer
	f := NewTreePrinterFactory(&out, 8)
	first := f.NewListener()
	second := f.NewListener()
	assert.NotSame(t, first, second)
}

func TestTreePrinter_RootSizeSurvivesEmptyAllocations(t *testing.T) {
	var out bytes.Buffer
	m, err := NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		PrintVisitedTreeTo(&out).
		PrintVisitedTree().
		Build()
	require.NoError(t, err)

	type named struct {
		Name string
		Next *ringNode
	}
	r := &named{}

	shallow, err := m.Measure(r)
	require.NoError(t, err)
	_, err = m.MeasureDeep(r)
	require.NoError(t, err)

	// The empty Name field is an identity-less node; its zero size must not
	// overwrite the root's recorded size.
	lines := strings.Split(out.String(), "\n")
	require.NotEmpty(t, lines)
	assert.Contains(t, lines[0], "root: ")
	assert.Contains(t, lines[0], utils.FormatBytes(shallow))
}

func TestTreePrinter_WriterSetAfterEnabling(t *testing.T) {
	var out bytes.Buffer
	m, err := NewBuilder().
		WithGuessing(sizing.GuessAlwaysTable).
		PrintVisitedTree().
		PrintVisitedTreeTo(&out).
		Build()
	require.NoError(t, err)

	_, err = m.MeasureDeep(&ringNode{})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "root: ")
	assert.Contains(t, out.String(), "total: ")
}
