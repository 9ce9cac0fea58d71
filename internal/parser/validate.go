package parser

import "github.com/werk-build/werk/internal/ast"

// Validate walks a parsed Root looking for duplicate definitions that the
// grammar itself cannot reject (the grammar accepts any number of config
// statements, let bindings and task recipes; uniqueness is a semantic
// check layered on top), reporting them as Duplicate errors of kind
// DuplicateConfigKey, DuplicateLetName or DuplicateTaskName.
func Validate(root ast.Root) error {
	seenConfig := map[ast.ConfigKey]*ast.ConfigStmt{}
	seenLet := map[string]*ast.LetStmt{}
	seenTask := map[string]*ast.CommandRecipe{}

	for _, bs := range root.Statements {
		switch stmt := bs.Statement.(type) {
		case *ast.ConfigStmt:
			key := ast.ConfigKey(stmt.Ident.Name)
			if first, ok := seenConfig[key]; ok {
				return toError(cutErr(stmt.SpanVal, Duplicate{Kind: DuplicateConfigKey, Name: stmt.Ident.Name, First: first.SpanVal}))
			}
			seenConfig[key] = stmt
		case *ast.LetStmt:
			if first, ok := seenLet[stmt.Ident.Name]; ok {
				return toError(cutErr(stmt.SpanVal, Duplicate{Kind: DuplicateLetName, Name: stmt.Ident.Name, First: first.SpanVal}))
			}
			seenLet[stmt.Ident.Name] = stmt
		case *ast.CommandRecipe:
			if first, ok := seenTask[stmt.Name.Name]; ok {
				return toError(cutErr(stmt.SpanVal, Duplicate{Kind: DuplicateTaskName, Name: stmt.Name.Name, First: first.SpanVal}))
			}
			seenTask[stmt.Name.Name] = stmt
		}
	}
	return nil
}
