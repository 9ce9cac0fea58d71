package span_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/span"
)

func TestMerge(t *testing.T) {
	a := span.New(3, 7)
	b := span.New(5, 12)
	require.Equal(t, span.New(3, 12), span.Merge(a, b))
	require.Equal(t, span.New(3, 12), span.Merge(b, a))
}

func TestMergeWithIgnore(t *testing.T) {
	a := span.New(3, 7)
	require.Equal(t, a, span.Merge(a, span.Ignore))
	require.Equal(t, a, span.Merge(span.Ignore, a))
	require.Equal(t, span.Ignore, span.Merge(span.Ignore, span.Ignore))
}

func TestIsEmpty(t *testing.T) {
	require.True(t, span.New(4, 4).IsEmpty())
	require.False(t, span.New(4, 5).IsEmpty())
}

func TestContains(t *testing.T) {
	outer := span.New(0, 10)
	inner := span.New(2, 5)
	require.True(t, outer.Contains(inner))
	require.False(t, inner.Contains(outer))
}

func TestLineCol(t *testing.T) {
	src := []byte("abc\ndef\nghi")
	line, col := span.LineCol(src, 5)
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = span.LineCol(src, 0)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
}
