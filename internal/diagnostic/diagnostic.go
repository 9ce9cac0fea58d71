// Package diagnostic renders parser errors as annotated source snippets:
// an origin line, the offending source line with a caret under the
// failing span, a label, and (for ambiguity errors) a second annotation
// pointing at the competing interpretation. It is a direct, simplified
// stand-in for the annotate_snippets-based rendering the grammar parser's
// error type used upstream.
package diagnostic

import (
	"fmt"
	"strings"

	"github.com/werk-build/werk/internal/ansi"
	"github.com/werk-build/werk/internal/parser"
	"github.com/werk-build/werk/internal/span"
)

// Annotation is one caret-and-label pointing at a span within the
// rendered snippet.
type Annotation struct {
	Span  span.Span
	Label string
	Level Level
}

type Level int

const (
	LevelError Level = iota
	LevelNote
)

// Render formats err as a multi-line annotated snippet of source, with
// origin as the file name shown on the snippet's header line.
func Render(err *parser.Error, source []byte, origin string, useColor bool) string {
	var b strings.Builder

	title := err.Expected.Message()
	writeTitle(&b, title, useColor)

	annotations := []Annotation{{Span: err.Span, Label: "", Level: LevelError}}
	if amb, ok := err.Expected.(parser.Ambiguous); ok {
		annotations = []Annotation{
			{Span: amb.First, Label: "first interpretation", Level: LevelNote},
			{Span: amb.Second, Label: "second interpretation", Level: LevelError},
		}
	}
	if dup, ok := err.Expected.(parser.Duplicate); ok {
		annotations = []Annotation{
			{Span: dup.First, Label: "first defined here", Level: LevelNote},
			{Span: err.Span, Label: "redefined here", Level: LevelError},
		}
	}

	writeSnippet(&b, source, origin, annotations, useColor)

	for i := len(err.Stack) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "\n    %s", err.Stack[i])
	}
	return b.String()
}

func writeTitle(b *strings.Builder, title string, useColor bool) {
	b.WriteString(ansi.Paint(ansi.BoldRed, "error", useColor))
	b.WriteString(": ")
	b.WriteString(title)
	b.WriteByte('\n')
}

func writeSnippet(b *strings.Builder, source []byte, origin string, annotations []Annotation, useColor bool) {
	if len(annotations) == 0 {
		return
	}
	primary := annotations[0].Span
	line, col := span.LineCol(source, primary.Start)
	fmt.Fprintf(b, "  --> %s:%d:%d\n", origin, line, col)

	byLine := map[int][]Annotation{}
	lines := map[int]string{}
	for _, a := range annotations {
		l, _ := span.LineCol(source, a.Span.Start)
		byLine[l] = append(byLine[l], a)
		lines[l] = lineText(source, a.Span.Start)
	}

	lineNums := sortedKeys(byLine)
	gutterWidth := len(fmt.Sprintf("%d", lineNums[len(lineNums)-1]))

	for _, l := range lineNums {
		fmt.Fprintf(b, "%*d | %s\n", gutterWidth, l, lines[l])
		for _, a := range byLine[l] {
			_, startCol := span.LineCol(source, a.Span.Start)
			width := a.Span.Len()
			if width < 1 {
				width = 1
			}
			pad := strings.Repeat(" ", gutterWidth) + " | " + strings.Repeat(" ", startCol-1)
			caret := strings.Repeat("^", width)
			color := ansi.BoldRed
			if a.Level == LevelNote {
				color = ansi.Blue
			}
			line := pad + ansi.Paint(color, caret, useColor)
			if a.Label != "" {
				line += " " + a.Label
			}
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
}

func lineText(source []byte, offset int) string {
	start := offset
	for start > 0 && source[start-1] != '\n' {
		start--
	}
	end := offset
	for end < len(source) && source[end] != '\n' {
		end++
	}
	return string(source[start:end])
}

func sortedKeys(m map[int][]Annotation) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	for i := 1; i < len(keys); i++ {
		for j := i; j > 0 && keys[j-1] > keys[j]; j-- {
			keys[j-1], keys[j] = keys[j], keys[j-1]
		}
	}
	return keys
}
