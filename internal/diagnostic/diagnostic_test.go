package diagnostic_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/diagnostic"
	"github.com/werk-build/werk/internal/parser"
	"github.com/werk-build/werk/internal/span"
)

func TestRenderSingleAnnotation(t *testing.T) {
	source := []byte("config nonsense = \"x\"\n")
	_, err := parser.Parse(source)
	require.Error(t, err)
	perr := err.(*parser.Error)

	out := diagnostic.Render(perr, source, "werk.toml", false)
	require.Contains(t, out, "error:")
	require.Contains(t, out, "--> werk.toml:1:")
	require.Contains(t, out, "^")
}

func TestRenderDuplicate(t *testing.T) {
	source := []byte("let a = \"1\"\nlet a = \"2\"\n")
	_, err := parser.Parse(source)
	require.Error(t, err)
	perr := err.(*parser.Error)
	_, ok := perr.Expected.(parser.Duplicate)
	require.True(t, ok)

	out := diagnostic.Render(perr, source, "werk.toml", false)
	require.Contains(t, out, "first defined here")
	require.Contains(t, out, "redefined here")
	lines := strings.Split(out, "\n")
	require.GreaterOrEqual(t, len(lines), 4)
}

// TestRenderAmbiguous exercises the two-annotation rendering path for
// Ambiguous directly: this repository's own grammar never constructs one
// (AmbiguousMainExpression/AmbiguousRunExpression, per DESIGN.md, belong to
// the out-of-scope TOML table front-end), but the renderer still has to
// implement the same two-annotation layout it uses for Duplicate.
func TestRenderAmbiguous(t *testing.T) {
	source := []byte("run shell \"a\"\nrun write \"b\", \"c\"\n")
	perr := &parser.Error{
		Span: span.New(15, 18),
		Expected: parser.Ambiguous{
			Kind:   parser.ExprKindRun,
			First:  span.New(4, 9),
			Second: span.New(19, 24),
		},
	}
	out := diagnostic.Render(perr, source, "werk.toml", false)
	require.Contains(t, out, "first interpretation")
	require.Contains(t, out, "second interpretation")
	require.Contains(t, out, "ambiguous run expression")
}

func TestRenderUsesColorWhenRequested(t *testing.T) {
	source := []byte("config nonsense = \"x\"\n")
	_, err := parser.Parse(source)
	perr := err.(*parser.Error)

	plain := diagnostic.Render(perr, source, "werk.toml", false)
	colored := diagnostic.Render(perr, source, "werk.toml", true)
	require.NotEqual(t, plain, colored)
	require.Contains(t, colored, "\x1b[")
}
