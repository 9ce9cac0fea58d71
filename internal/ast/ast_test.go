package ast_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/werk-build/werk/internal/ast"
	"github.com/werk-build/werk/internal/span"
)

func TestBodySpanCoversBraces(t *testing.T) {
	body := ast.Body[ast.TaskRecipeStmt]{
		TokenOpen:  span.New(10, 11),
		TokenClose: span.New(20, 21),
	}
	require.Equal(t, span.New(10, 21), body.Span())
}

func TestListExprWrapSpan(t *testing.T) {
	l := &ast.ListExprWrap{ListExpr: ast.ListExpr[ast.Expr]{SpanVal: span.New(3, 9)}}
	require.Equal(t, span.New(3, 9), l.Span())
}

func TestKwExprTypesImplementExpectedInterfaces(t *testing.T) {
	var _ ast.RootStmt = &ast.ConfigStmt{}
	var _ ast.RootStmt = &ast.LetStmt{}
	var _ ast.RootStmt = &ast.CommandRecipe{}
	var _ ast.RootStmt = &ast.BuildRecipe{}

	var _ ast.TaskRecipeStmt = &ast.RunStmt{}
	var _ ast.BuildRecipeStmt = &ast.FromStmt{}
	var _ ast.Expr = &ast.ShellExpr{}
	var _ ast.RunExpr = &ast.ShellExpr{}
	var _ ast.Expr = ast.Ident{}
	var _ ast.Expr = ast.StringExpr{}
}

func TestIdentSpanAccessor(t *testing.T) {
	id := ast.Ident{SpanVal: span.New(1, 4), Name: "foo"}
	require.Equal(t, span.New(1, 4), id.Span())
}
