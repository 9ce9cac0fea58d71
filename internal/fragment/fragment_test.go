package fragment_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/ast"
	"github.com/werk-build/werk/internal/fragment"
)

func parseAllString(t *testing.T, text string) []ast.StringFragment {
	c := fragment.NewCursor([]byte(text), 0)
	frags, err := fragment.ParseString(c)
	require.NoError(t, err)
	require.Equal(t, len(text), c.Pos)
	return frags
}

func parseAllPattern(t *testing.T, text string) []ast.StringFragment {
	c := fragment.NewCursor([]byte(text), 0)
	frags, err := fragment.ParsePattern(c)
	require.NoError(t, err)
	require.Equal(t, len(text), c.Pos)
	return frags
}

func TestLiteralOnly(t *testing.T) {
	frags := parseAllString(t, "hello world")
	require.Len(t, frags, 1)
	lit, ok := frags[0].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, "hello world", lit.Text)
}

func TestEscapeMergesIntoLiteral(t *testing.T) {
	frags := parseAllString(t, `a\nb`)
	require.Len(t, frags, 1)
	lit, ok := frags[0].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, "a\nb", lit.Text)
}

func TestIdentInterpolation(t *testing.T) {
	frags := parseAllString(t, "hello {name}")
	require.Len(t, frags, 2)
	lit, ok := frags[0].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, "hello ", lit.Text)
	interp, ok := frags[1].(ast.Interpolation)
	require.True(t, ok)
	require.False(t, interp.IsPath)
	stem, ok := interp.Stem.(ast.IdentStem)
	require.True(t, ok)
	require.Equal(t, "name", stem.Name)
}

func TestPathInterpolationWithOptions(t *testing.T) {
	frags := parseAllString(t, "<1:.ext1=.ext2>")
	require.Len(t, frags, 1)
	interp, ok := frags[0].(ast.Interpolation)
	require.True(t, ok)
	require.True(t, interp.IsPath)
	stem, ok := interp.Stem.(ast.CaptureGroupStem)
	require.True(t, ok)
	require.Equal(t, 1, stem.Index)
	require.NotNil(t, interp.Options)
	require.Len(t, interp.Options.Ops, 1)
	op, ok := interp.Options.Ops[0].(ast.ReplaceExtensionOp)
	require.True(t, ok)
	require.Equal(t, ".ext1", op.From)
	require.Equal(t, ".ext2", op.To)
}

func TestImplicitStem(t *testing.T) {
	frags := parseAllString(t, "{}")
	require.Len(t, frags, 1)
	interp, ok := frags[0].(ast.Interpolation)
	require.True(t, ok)
	_, ok = interp.Stem.(ast.ImplicitStem)
	require.True(t, ok)
}

func TestJoinSeparatorOption(t *testing.T) {
	frags := parseAllString(t, "{out|,}")
	require.Len(t, frags, 1)
	interp := frags[0].(ast.Interpolation)
	require.NotNil(t, interp.Options)
	require.NotNil(t, interp.Options.Join)
	require.Equal(t, ",", *interp.Options.Join)
}

func TestPatternStem(t *testing.T) {
	frags := parseAllPattern(t, "%.c")
	require.Len(t, frags, 2)
	_, ok := frags[0].(ast.PatternStem)
	require.True(t, ok)
	lit, ok := frags[1].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, ".c", lit.Text)
}

func TestOneOfAlternation(t *testing.T) {
	frags := parseAllPattern(t, "(a|b|c)")
	require.Len(t, frags, 1)
	oneOf, ok := frags[0].(ast.OneOf)
	require.True(t, ok)
	require.Equal(t, []string{"a", "b", "c"}, oneOf.Alternatives)
}

func TestCanonicalizationMergesAdjacentLiterals(t *testing.T) {
	frags := parseAllString(t, `a\{b`)
	require.Len(t, frags, 1)
	lit, ok := frags[0].(ast.Literal)
	require.True(t, ok)
	require.Equal(t, "a{b", lit.Text)
}

func TestUnterminatedEscapeIsError(t *testing.T) {
	c := fragment.NewCursor([]byte(`\`), 0)
	_, err := fragment.ParseString(c)
	require.Error(t, err)
}

func TestInvalidEscapeIsError(t *testing.T) {
	c := fragment.NewCursor([]byte(`\q`), 0)
	_, err := fragment.ParseString(c)
	require.Error(t, err)
}

func TestUnterminatedInterpolationIsError(t *testing.T) {
	c := fragment.NewCursor([]byte(`{name`), 0)
	_, err := fragment.ParseString(c)
	require.Error(t, err)
}
