// Package document ties a parsed AST to the source bytes and origin it was
// parsed from. It is kept separate from internal/ast deliberately: ast
// nodes know nothing about files, so the same tree could in principle be
// built from an in-memory string in a test with no Document involved at
// all.
package document

import "github.com/werk-build/werk/internal/ast"

// Document is a parsed werk file together with the source text it was
// parsed from, kept alive so that AST spans remain meaningful.
type Document struct {
	// Origin is a display name for the source, typically a file path,
	// used by the diagnostic renderer as the snippet's origin line.
	Origin string
	Source []byte
	Root   ast.Root
}

// Line returns line lineNum (1-indexed) of the source text, without its
// trailing newline, or "" if the source has no such line.
func (d *Document) Line(lineNum int) string {
	start := -1
	if lineNum == 1 {
		start = 0
	}
	line := 1
	for i, b := range d.Source {
		if start >= 0 {
			break
		}
		if b == '\n' {
			line++
			if line == lineNum {
				start = i + 1
			}
		}
	}
	if start < 0 {
		return ""
	}
	end := start
	for end < len(d.Source) && d.Source[end] != '\n' {
		end++
	}
	return string(d.Source[start:end])
}
