package parser

import (
	"fmt"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/werk-build/werk/internal/span"
)

// recognizedConfigKeys lists the `config` keys UnknownConfigKey suggests
// against; kept alongside the error rather than in internal/ast so this
// package doesn't need ast.ConfigKey's full type for a string comparison.
var recognizedConfigKeys = []string{"out-dir", "edition", "print-commands", "default"}

// Expected is the sum type describing what the parser wanted at the point
// of failure, mirroring the small set of error shapes a winnow-style
// committed parser actually produces: a plain description, a named
// expectation, a duplicate-definition conflict, or an ambiguity between two
// possible interpretations of the same text.
type Expected interface {
	error
	isExpected()
	Message() string
}

// Description is a free-form message with no secondary span, used for the
// statement/list separator errors and other "the grammar got stuck here"
// cases.
type Description struct {
	Text string
}

func (Description) isExpected()      {}
func (d Description) Message() string { return d.Text }
func (d Description) Error() string    { return d.Text }

// Named is "expected <what>", used for single-token expectations like a
// missing identifier or closing delimiter.
type Named struct {
	What string
}

func (Named) isExpected()      {}
func (n Named) Message() string { return "expected " + n.What }
func (n Named) Error() string    { return n.Message() }

// UnknownConfigKey is returned when a `config` statement's key is not one
// of the four recognized keys.
type UnknownConfigKey struct {
	Got string
}

func (UnknownConfigKey) isExpected() {}
func (u UnknownConfigKey) Message() string {
	msg := fmt.Sprintf("unknown config key %q, expected one of `out-dir`, `edition`, `print-commands`, or `default`", u.Got)
	if match := fuzzy.RankFindFold(u.Got, recognizedConfigKeys); len(match) > 0 {
		msg += fmt.Sprintf(" (did you mean `%s`?)", match[0].Target)
	}
	return msg
}
func (u UnknownConfigKey) Error() string { return u.Message() }

// DuplicateKind distinguishes the three kinds of duplicate-definition
// conflicts the grammar can detect while assembling a Document.
type DuplicateKind string

const (
	DuplicateConfigKey DuplicateKind = "config key"
	DuplicateLetName   DuplicateKind = "let binding"
	DuplicateTaskName  DuplicateKind = "task name"
)

// Duplicate reports that a name was already bound earlier in the
// document; First is the span of the earlier definition.
type Duplicate struct {
	Kind  DuplicateKind
	Name  string
	First span.Span
}

func (Duplicate) isExpected() {}
func (d Duplicate) Message() string {
	return fmt.Sprintf("duplicate %s %q", d.Kind, d.Name)
}
func (d Duplicate) Error() string { return d.Message() }

// ExprKind names a spanned expression's shape, used by Ambiguous to report
// which two interpretations are in conflict.
type ExprKind string

const (
	ExprKindMain ExprKind = "main expression"
	ExprKindRun  ExprKind = "run expression"
)

// Ambiguous reports that a body produced two candidate expressions of
// incompatible kinds (e.g. both a bare expression and a run block) with no
// rule to prefer one over the other. Both spans are rendered by the
// diagnostic renderer as a two-annotation snippet.
type Ambiguous struct {
	Kind   ExprKind
	First  span.Span
	Second span.Span
}

func (Ambiguous) isExpected() {}
func (a Ambiguous) Message() string {
	return fmt.Sprintf("ambiguous %s: matches more than one interpretation", a.Kind)
}
func (a Ambiguous) Error() string { return a.Message() }

// Error is the error type returned by Parse. It carries the span the
// failure occurred at and the Expected describing what went wrong. Stack
// holds breadcrumb entries (outermost first), mirroring winnow's
// ContextError stack, and is printed after the message when set; Parse
// records no grammar context, so the errors it returns have an empty
// Stack.
type Error struct {
	Span     span.Span
	Expected Expected
	Stack    []string
}

func (e *Error) Error() string {
	msg := e.Expected.Message()
	for i := len(e.Stack) - 1; i >= 0; i-- {
		msg += "\n    " + e.Stack[i]
	}
	return msg
}
