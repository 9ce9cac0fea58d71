package parser

import (
	"github.com/werk-build/werk/internal/ast"
	"github.com/werk-build/werk/internal/fragment"
	"github.com/werk-build/werk/internal/span"
)

// Parse parses a complete werk document from source, returning the root
// statement sequence or the first error encountered. Parsing is a single
// pass over source bytes; there is no separate lexing stage.
func Parse(source []byte) (ast.Root, error) {
	s := newState(source)
	stmts, wsTrailing, err := statementsDelimited(s, parseRootStmt, func(s *state) bool {
		return s.eof()
	}, "statements must be separated by semicolon or newlines")
	if err != nil {
		return ast.Root{}, toError(err)
	}
	if !s.eof() {
		return ast.Root{}, toError(cutErr(span.New(s.pos, s.pos), Description{Text: "unexpected trailing input"}))
	}
	root := ast.Root{Statements: stmts, WsTrailing: wsTrailing}
	if verr := Validate(root); verr != nil {
		return ast.Root{}, verr
	}
	return root, nil
}

func toError(err error) *Error {
	if pe, ok := err.(*parseErr); ok {
		return &Error{Span: pe.span, Expected: pe.expected}
	}
	return &Error{Span: span.Ignore, Expected: Description{Text: err.Error()}}
}

// requireWhitespace consumes a whitespace/comment run and fails if it is
// empty, matching the grammar's requirement of mandatory whitespace after
// a keyword before its parameter.
func requireWhitespace(s *state) (ast.Whitespace, bool, error) {
	ws, hasNL, hasComments := parseWhitespace(s)
	if ws.Span.IsEmpty() {
		return ws, false, cutErr(ws.Span, Named{What: "whitespace after keyword"})
	}
	return ws, hasNL || hasComments, nil
}

func skipAnyWhitespace(s *state) { parseWhitespace(s) }

// parseTrailingMark looks for an explicit separator byte (';' or ',')
// optionally preceded by inline whitespace, without consuming anything on
// failure.
func parseTrailingMark(s *state, mark byte) *ast.TrailingWhitespace {
	saved := s.clone()
	wsStart := s.pos
	skipInlineWhitespace(s)
	if s.eof() || s.source[s.pos] != mark {
		s.restore(saved)
		return nil
	}
	wsSpan := span.New(wsStart, s.pos)
	sepStart := s.pos
	s.pos++
	return &ast.TrailingWhitespace{
		Ws:        ast.Whitespace{Span: wsSpan},
		Separator: span.New(sepStart, s.pos),
	}
}

// parseWhitespace consumes a run of spaces, tabs, carriage returns,
// newlines and `#`-to-end-of-line comments, classifying whether the run
// contained a newline and/or a comment. Both make the run a valid
// statement separator.
func parseWhitespace(s *state) (ast.Whitespace, bool, bool) {
	start := s.pos
	hasNewlines := false
	hasComments := false
	for !s.eof() {
		r, size := s.peek()
		switch r {
		case '#':
			hasComments = true
			for !s.eof() {
				r2, size2 := s.peek()
				if r2 == '\n' {
					break
				}
				s.pos += size2
			}
			continue
		case '\n':
			hasNewlines = true
			s.pos += size
			continue
		case ' ', '\t', '\r':
			s.pos += size
			continue
		}
		break
	}
	return ast.Whitespace{Span: span.New(start, s.pos)}, hasNewlines, hasComments
}

// statementsDelimited parses a sequence of items each separated by an
// explicit ';' or by whitespace containing a newline or comment, stopping
// as soon as isTerminal reports true without consuming the terminator.
// It eagerly checks for the terminator after each leading whitespace run,
// matching the grammar's separator-must-precede-next-item discipline.
func statementsDelimited[T any](s *state, parseItem func(*state) (T, error), isTerminal func(*state) bool, sepErrMsg string) ([]ast.BodyStmt[T], ast.Whitespace, error) {
	var stmts []ast.BodyStmt[T]
	for {
		ws, hasNL, hasComments := parseWhitespace(s)
		if isTerminal(s) {
			return stmts, ws, nil
		}
		if len(stmts) > 0 {
			prevHadSep := stmts[len(stmts)-1].WsTrailing != nil
			if !prevHadSep && !hasNL && !hasComments {
				return nil, ast.Whitespace{}, cutErr(ws.Span, Description{Text: sepErrMsg})
			}
		}
		item, err := parseItem(s)
		if err != nil {
			return nil, ast.Whitespace{}, err
		}
		trailing := parseTrailingMark(s, ';')
		stmts = append(stmts, ast.BodyStmt[T]{WsPre: ws, Statement: item, WsTrailing: trailing})
	}
}

// parseBody parses a `{ ... }` body of statements of type T.
func parseBody[T any](s *state, parseItem func(*state) (T, error)) (ast.Body[T], error) {
	var zero ast.Body[T]
	openSp, err := literal(s, "{")
	if err != nil {
		return zero, err
	}
	isTerminal := func(s *state) bool {
		saved := s.clone()
		_, e := literal(s, "}")
		s.restore(saved)
		return e == nil
	}
	stmts, wsTrailing, err := statementsDelimited(s, parseItem, isTerminal, "statements must be separated by semicolon or newlines")
	if err != nil {
		return zero, err
	}
	closeSp, err := cut(func(s *state) (span.Span, error) { return literal(s, "}") })(s)
	if err != nil {
		return zero, err
	}
	return ast.Body[T]{TokenOpen: openSp, Statements: stmts, WsTrailing: wsTrailing, TokenClose: closeSp}, nil
}

// parseListOf parses a `[item, item, ...]` expression.
func parseListOf[T any](s *state, parseItem func(*state) (T, error)) (ast.ListExpr[T], error) {
	var zero ast.ListExpr[T]
	start := s.pos
	openSp, err := literal(s, "[")
	if err != nil {
		return zero, err
	}
	var items []ast.ListItem[T]
	for {
		ws, _, _ := parseWhitespace(s)
		saved := s.clone()
		closeSp, cerr := literal(s, "]")
		if cerr == nil {
			return ast.ListExpr[T]{
				SpanVal:    span.New(start, closeSp.End),
				TokenOpen:  openSp,
				Items:      items,
				WsTrailing: ws,
				TokenClose: closeSp,
			}, nil
		}
		s.restore(saved)
		if len(items) > 0 {
			prevHadSep := items[len(items)-1].WsTrailing != nil
			if !prevHadSep {
				return zero, cutErr(ws.Span, Description{Text: "list items must be separated by commas"})
			}
		}
		item, err := parseItem(s)
		if err != nil {
			return zero, err
		}
		trailing := parseTrailingMark(s, ',')
		items = append(items, ast.ListItem[T]{WsPre: ws, Item: item, WsTrailing: trailing})
	}
}

// parseIdent parses XID_Start (XID_Continue|'-')* and rejects `let`, the
// only hard keyword in the grammar (every other keyword is grammatically
// an identifier prefix, disambiguated by `keywordText`'s lookahead rule
// rather than by reservation).
func parseIdent(s *state) (ast.Ident, error) {
	start := s.pos
	r, size := s.peek()
	if r == 0 || !isIdentStart(r) {
		return ast.Ident{}, backtrackErr(span.New(start, start), Named{What: "identifier"})
	}
	s.pos += size
	takeWhile(s, isIdentContinue)
	name := string(s.source[start:s.pos])
	if name == "let" {
		s.pos = start
		return ast.Ident{}, backtrackErr(span.New(start, start), Named{What: "identifier"})
	}
	return ast.Ident{SpanVal: span.New(start, s.pos), Name: name}, nil
}

func parseStringExpr(s *state) (ast.StringExpr, error) {
	start := s.pos
	_, err := literal(s, "\"")
	if err != nil {
		return ast.StringExpr{}, err
	}
	c := fragment.NewCursor(s.source, s.pos)
	frags, ferr := fragment.ParseString(c)
	if ferr != nil {
		fe := ferr.(*fragment.Error)
		return ast.StringExpr{}, cutErr(fe.Span, Description{Text: fe.Message})
	}
	s.pos = c.Pos
	closeSp, err := cut(func(s *state) (span.Span, error) { return literal(s, "\"") })(s)
	if err != nil {
		return ast.StringExpr{}, err
	}
	return ast.StringExpr{SpanVal: span.New(start, closeSp.End), Fragments: frags}, nil
}

func parsePatternExpr(s *state) (ast.PatternExpr, error) {
	start := s.pos
	_, err := literal(s, "\"")
	if err != nil {
		return ast.PatternExpr{}, err
	}
	c := fragment.NewCursor(s.source, s.pos)
	frags, ferr := fragment.ParsePattern(c)
	if ferr != nil {
		fe := ferr.(*fragment.Error)
		return ast.PatternExpr{}, cutErr(fe.Span, Description{Text: fe.Message})
	}
	s.pos = c.Pos
	closeSp, err := cut(func(s *state) (span.Span, error) { return literal(s, "\"") })(s)
	if err != nil {
		return ast.PatternExpr{}, err
	}
	return ast.PatternExpr{SpanVal: span.New(start, closeSp.End), Fragments: frags}, nil
}

// parseEscapedString parses a config statement's string value: raw
// backslash-escaped text with no fragment interpolation at all, matching
// the grammar's deliberately simpler treatment of config values.
func parseEscapedString(s *state) (string, span.Span, error) {
	start := s.pos
	_, err := literal(s, "\"")
	if err != nil {
		return "", span.Ignore, err
	}
	var out []byte
	for {
		if s.eof() {
			return "", span.Ignore, cutErr(span.New(start, s.pos), Named{What: "closing `\"`"})
		}
		r, size := s.peek()
		if r == '"' {
			s.pos += size
			return string(out), span.New(start, s.pos), nil
		}
		if r == '\\' {
			s.pos += size
			if s.eof() {
				return "", span.Ignore, cutErr(span.New(start, s.pos), Named{What: "escape sequence"})
			}
			r2, size2 := s.peek()
			out = append(out, []byte(string(r2))...)
			s.pos += size2
			continue
		}
		out = append(out, s.source[s.pos:s.pos+size]...)
		s.pos += size
	}
}

func parseConfigValue(s *state, key ast.ConfigKey) (ast.ConfigValue, error) {
	if key == ast.ConfigPrintCommands {
		start := s.pos
		if _, err := literal(s, "true"); err == nil {
			return ast.BoolValue{SpanVal: span.New(start, s.pos), Value: true}, nil
		}
		if _, err := literal(s, "false"); err == nil {
			return ast.BoolValue{SpanVal: span.New(start, s.pos), Value: false}, nil
		}
		return nil, cutErr(span.New(start, start), Named{What: "`true` or `false`"})
	}
	text, sp, err := parseEscapedString(s)
	if err != nil {
		return nil, err
	}
	return ast.StringValue{SpanVal: sp, Value: text}, nil
}

func parseConfigStmt(s *state) (*ast.ConfigStmt, error) {
	start := s.pos
	if _, err := keywordText(s, "config"); err != nil {
		return nil, err
	}
	if _, _, err := requireWhitespace(s); err != nil {
		return nil, err
	}
	ident, err := cut(parseIdent)(s)
	if err != nil {
		return nil, err
	}
	skipInlineWhitespace(s)
	if _, err := cut(func(s *state) (span.Span, error) { return literal(s, "=") })(s); err != nil {
		return nil, err
	}
	skipInlineWhitespace(s)
	key := ast.ConfigKey(ident.Name)
	switch key {
	case ast.ConfigOutDir, ast.ConfigEdition, ast.ConfigPrintCommands, ast.ConfigDefault:
	default:
		return nil, cutErr(ident.SpanVal, UnknownConfigKey{Got: ident.Name})
	}
	value, err := cut(func(s *state) (ast.ConfigValue, error) { return parseConfigValue(s, key) })(s)
	if err != nil {
		return nil, err
	}
	return &ast.ConfigStmt{SpanVal: span.New(start, s.pos), Ident: ident, Value: value}, nil
}

func parseLetStmt(s *state) (*ast.LetStmt, error) {
	start := s.pos
	if _, err := keywordText(s, "let"); err != nil {
		return nil, err
	}
	if _, _, err := requireWhitespace(s); err != nil {
		return nil, err
	}
	ident, err := cut(parseIdent)(s)
	if err != nil {
		return nil, err
	}
	skipInlineWhitespace(s)
	if _, err := cut(func(s *state) (span.Span, error) { return literal(s, "=") })(s); err != nil {
		return nil, err
	}
	skipInlineWhitespace(s)
	value, err := cut(parseExpressionChain)(s)
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{SpanVal: span.New(start, s.pos), Ident: ident, Value: value}, nil
}

// parseKwExpr implements the shared `<keyword> <whitespace> <cut_err
// param>` shape behind every keyword expression in the grammar.
func parseKwExpr[P any](s *state, keyword string, parseParam func(*state) (P, error)) (span.Span, span.Span, P, error) {
	var zero P
	start := s.pos
	kwSp, err := keywordText(s, keyword)
	if err != nil {
		return span.Ignore, span.Ignore, zero, err
	}
	if _, _, werr := requireWhitespace(s); werr != nil {
		return span.Ignore, span.Ignore, zero, werr
	}
	param, perr := cut(parseParam)(s)
	if perr != nil {
		return span.Ignore, span.Ignore, zero, perr
	}
	return span.New(start, s.pos), kwSp, param, nil
}

func parseFromStmt(s *state) (*ast.FromStmt, error) {
	sp, kwSp, param, err := parseKwExpr(s, "from", parseExpressionChain)
	if err != nil {
		return nil, err
	}
	return &ast.FromStmt{KwExpr: ast.KwExpr[ast.Expr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseBuildStmt(s *state) (*ast.BuildStmt, error) {
	sp, kwSp, param, err := parseKwExpr(s, "build", parseExpressionChain)
	if err != nil {
		return nil, err
	}
	return &ast.BuildStmt{KwExpr: ast.KwExpr[ast.Expr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseDepfileStmt(s *state) (*ast.DepfileStmt, error) {
	sp, kwSp, param, err := parseKwExpr(s, "depfile", parseExpressionChain)
	if err != nil {
		return nil, err
	}
	return &ast.DepfileStmt{KwExpr: ast.KwExpr[ast.Expr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseRunStmt(s *state) (*ast.RunStmt, error) {
	sp, kwSp, param, err := parseKwExpr(s, "run", parseRunExpr)
	if err != nil {
		return nil, err
	}
	return &ast.RunStmt{KwExpr: ast.KwExpr[ast.RunExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseShellExpr(s *state) (*ast.ShellExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "shell", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.ShellExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseGlobExpr(s *state) (*ast.GlobExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "glob", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.GlobExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseWhichExpr(s *state) (*ast.WhichExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "which", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.WhichExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseJoinExpr(s *state) (*ast.JoinExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "join", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.JoinExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseEnvExpr(s *state) (*ast.EnvExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "env", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.EnvExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseInfoExpr(s *state) (*ast.InfoExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "info", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.InfoExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseWarnExpr(s *state) (*ast.WarnExpr, error) {
	sp, kwSp, param, err := parseKwExpr(s, "warn", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.WarnExpr{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

func parseErrorStmt(s *state) (*ast.ErrorStmt, error) {
	sp, kwSp, param, err := parseKwExpr(s, "error", parseStringExpr)
	if err != nil {
		return nil, err
	}
	return &ast.ErrorStmt{KwExpr: ast.KwExpr[ast.StringExpr]{SpanVal: sp, KeywordSpan: kwSp, Param: param}}, nil
}

// parseExpressionChain folds `leaf (=> leaf)*` left-associatively; the
// right operand of `=>` is a hard error if absent once the arrow has been
// consumed.
func parseExpressionChain(s *state) (ast.Expr, error) {
	lhs, err := parseExpressionLeaf(s)
	if err != nil {
		return nil, err
	}
	for {
		saved := s.clone()
		skipAnyWhitespace(s)
		arrowSp, aerr := literal(s, "=>")
		if aerr != nil {
			s.restore(saved)
			return lhs, nil
		}
		skipAnyWhitespace(s)
		rhs, rerr := cut(parseExpressionLeaf)(s)
		if rerr != nil {
			return nil, rerr
		}
		lhs = &ast.ThenExpr{SpanVal: span.Merge(lhs.Span(), rhs.Span()), Lhs: lhs, ArrowSpan: arrowSp, Rhs: rhs}
	}
}

func stringAsExpr(s *state) (ast.Expr, error) {
	v, err := parseStringExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func listAsExpr(s *state) (ast.Expr, error) {
	le, err := parseListOf(s, parseExpressionChain)
	if err != nil {
		return nil, err
	}
	return &ast.ListExprWrap{ListExpr: le}, nil
}

func shellAsExpr(s *state) (ast.Expr, error) {
	v, err := parseShellExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func globAsExpr(s *state) (ast.Expr, error) {
	v, err := parseGlobExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func whichAsExpr(s *state) (ast.Expr, error) {
	v, err := parseWhichExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func joinAsExpr(s *state) (ast.Expr, error) {
	v, err := parseJoinExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func envAsExpr(s *state) (ast.Expr, error) {
	v, err := parseEnvExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func matchAsExpr(s *state) (ast.Expr, error) {
	v, err := parseMatchExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func infoAsExpr(s *state) (ast.Expr, error) {
	v, err := parseInfoExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func warnAsExpr(s *state) (ast.Expr, error) {
	v, err := parseWarnExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func errorAsExpr(s *state) (ast.Expr, error) {
	v, err := parseErrorStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func identAsExpr(s *state) (ast.Expr, error) {
	v, err := parseIdent(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// parseExpressionLeaf tries every non-chained expression form in the
// grammar's fixed alternative order.
func parseExpressionLeaf(s *state) (ast.Expr, error) {
	return alt(s,
		stringAsExpr,
		listAsExpr,
		shellAsExpr,
		globAsExpr,
		whichAsExpr,
		joinAsExpr,
		envAsExpr,
		matchAsExpr,
		infoAsExpr,
		warnAsExpr,
		errorAsExpr,
		identAsExpr,
	)
}

func shellAsRunExpr(s *state) (ast.RunExpr, error) {
	v, err := parseShellExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func runListAsRunExpr(s *state) (ast.RunExpr, error) {
	le, err := parseListOf(s, parseRunExpr)
	if err != nil {
		return nil, err
	}
	return &ast.RunListWrap{ListExpr: le}, nil
}

func infoAsRunExpr(s *state) (ast.RunExpr, error) {
	v, err := parseInfoExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func warnAsRunExpr(s *state) (ast.RunExpr, error) {
	v, err := parseWarnExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func writeAsRunExpr(s *state) (ast.RunExpr, error) {
	v, err := parseWriteExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func copyAsRunExpr(s *state) (ast.RunExpr, error) {
	v, err := parseCopyExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func blockAsRunExpr(s *state) (ast.RunExpr, error) {
	b, err := parseBody(s, parseRunExpr)
	if err != nil {
		return nil, err
	}
	return &ast.RunBlock{BodyVal: b}, nil
}

// parseRunExpr tries every form valid inside a `run` keyword expression.
func parseRunExpr(s *state) (ast.RunExpr, error) {
	return alt(s,
		shellAsRunExpr,
		runListAsRunExpr,
		infoAsRunExpr,
		warnAsRunExpr,
		writeAsRunExpr,
		copyAsRunExpr,
		blockAsRunExpr,
	)
}

func parseWriteExpr(s *state) (*ast.WriteExpr, error) {
	start := s.pos
	kwSp, err := keywordText(s, "write")
	if err != nil {
		return nil, err
	}
	if _, _, werr := requireWhitespace(s); werr != nil {
		return nil, werr
	}
	path, perr := cut(parseExpressionLeaf)(s)
	if perr != nil {
		return nil, perr
	}
	skipInlineWhitespace(s)
	commaSp, cerr := cut(func(s *state) (span.Span, error) { return literal(s, ",") })(s)
	if cerr != nil {
		return nil, cerr
	}
	skipAnyWhitespace(s)
	value, verr := cut(parseExpressionLeaf)(s)
	if verr != nil {
		return nil, verr
	}
	return &ast.WriteExpr{SpanVal: span.New(start, s.pos), KeywordSpan: kwSp, Path: path, CommaSpan: commaSp, Value: value}, nil
}

func parseCopyExpr(s *state) (*ast.CopyExpr, error) {
	start := s.pos
	kwSp, err := keywordText(s, "copy")
	if err != nil {
		return nil, err
	}
	if _, _, werr := requireWhitespace(s); werr != nil {
		return nil, werr
	}
	src, serr := cut(parseStringExpr)(s)
	if serr != nil {
		return nil, serr
	}
	skipInlineWhitespace(s)
	commaSp, cerr := cut(func(s *state) (span.Span, error) { return literal(s, ",") })(s)
	if cerr != nil {
		return nil, cerr
	}
	skipAnyWhitespace(s)
	dest, derr := cut(parseStringExpr)(s)
	if derr != nil {
		return nil, derr
	}
	return &ast.CopyExpr{SpanVal: span.New(start, s.pos), KeywordSpan: kwSp, Src: src, CommaSpan: commaSp, Dest: dest}, nil
}

func parseMatchArm(s *state) (ast.MatchArm, error) {
	start := s.pos
	pattern, perr := cut(parsePatternExpr)(s)
	if perr != nil {
		return ast.MatchArm{}, perr
	}
	skipAnyWhitespace(s)
	arrowSp, aerr := cut(func(s *state) (span.Span, error) { return literal(s, "=>") })(s)
	if aerr != nil {
		return ast.MatchArm{}, aerr
	}
	skipAnyWhitespace(s)
	expr, eerr := cut(parseExpressionChain)(s)
	if eerr != nil {
		return ast.MatchArm{}, eerr
	}
	return ast.MatchArm{SpanVal: span.New(start, s.pos), Pattern: pattern, ArrowSpan: arrowSp, Expr: expr}, nil
}

func parseMatchExpr(s *state) (*ast.MatchExpr, error) {
	start := s.pos
	kwSp, err := keywordText(s, "match")
	if err != nil {
		return nil, err
	}
	skipAnyWhitespace(s)
	body, berr := cut(func(s *state) (ast.Body[ast.MatchArm], error) { return parseBody(s, parseMatchArm) })(s)
	if berr != nil {
		return nil, berr
	}
	return &ast.MatchExpr{SpanVal: span.New(start, s.pos), KeywordSpan: kwSp, Body: body}, nil
}

func letAsTaskStmt(s *state) (ast.TaskRecipeStmt, error) {
	v, err := parseLetStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func buildAsTaskStmt(s *state) (ast.TaskRecipeStmt, error) {
	v, err := parseBuildStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func runAsTaskStmt(s *state) (ast.TaskRecipeStmt, error) {
	v, err := parseRunStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func infoAsTaskStmt(s *state) (ast.TaskRecipeStmt, error) {
	v, err := parseInfoExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func warnAsTaskStmt(s *state) (ast.TaskRecipeStmt, error) {
	v, err := parseWarnExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseTaskRecipeStmt(s *state) (ast.TaskRecipeStmt, error) {
	return alt(s, letAsTaskStmt, buildAsTaskStmt, runAsTaskStmt, infoAsTaskStmt, warnAsTaskStmt)
}

func parseCommandRecipe(s *state) (*ast.CommandRecipe, error) {
	start := s.pos
	if _, err := keywordText(s, "task"); err != nil {
		return nil, err
	}
	if _, _, err := requireWhitespace(s); err != nil {
		return nil, err
	}
	name, err := cut(parseIdent)(s)
	if err != nil {
		return nil, err
	}
	skipAnyWhitespace(s)
	body, berr := cut(func(s *state) (ast.Body[ast.TaskRecipeStmt], error) { return parseBody(s, parseTaskRecipeStmt) })(s)
	if berr != nil {
		return nil, berr
	}
	return &ast.CommandRecipe{SpanVal: span.New(start, s.pos), Name: name, Body: body}, nil
}

func fromAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseFromStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func letAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseLetStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func depfileAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseDepfileStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func runAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseRunStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func infoAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseInfoExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func warnAsBuildStmt(s *state) (ast.BuildRecipeStmt, error) {
	v, err := parseWarnExpr(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func parseBuildRecipeStmt(s *state) (ast.BuildRecipeStmt, error) {
	return alt(s, fromAsBuildStmt, letAsBuildStmt, depfileAsBuildStmt, runAsBuildStmt, infoAsBuildStmt, warnAsBuildStmt)
}

func parseBuildRecipe(s *state) (*ast.BuildRecipe, error) {
	start := s.pos
	if _, err := keywordText(s, "build"); err != nil {
		return nil, err
	}
	if _, _, err := requireWhitespace(s); err != nil {
		return nil, err
	}
	pattern, perr := cut(parsePatternExpr)(s)
	if perr != nil {
		return nil, perr
	}
	skipAnyWhitespace(s)
	body, berr := cut(func(s *state) (ast.Body[ast.BuildRecipeStmt], error) { return parseBody(s, parseBuildRecipeStmt) })(s)
	if berr != nil {
		return nil, berr
	}
	return &ast.BuildRecipe{SpanVal: span.New(start, s.pos), Pattern: pattern, Body: body}, nil
}

func configAsRootStmt(s *state) (ast.RootStmt, error) {
	v, err := parseConfigStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func letAsRootStmt(s *state) (ast.RootStmt, error) {
	v, err := parseLetStmt(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func taskAsRootStmt(s *state) (ast.RootStmt, error) {
	v, err := parseCommandRecipe(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func buildAsRootStmt(s *state) (ast.RootStmt, error) {
	v, err := parseBuildRecipe(s)
	if err != nil {
		return nil, err
	}
	return v, nil
}

// parseRootStmt tries every top-level statement form, with a trailing
// cut_err(fail) equivalent: if none of the four alternatives so much as
// recognize a keyword, alt's backtrack error is replaced by a committed
// "expected a `config`, `let`, `task` or `build` statement" error at the
// same span.
func parseRootStmt(s *state) (ast.RootStmt, error) {
	v, err := alt(s, configAsRootStmt, letAsRootStmt, taskAsRootStmt, buildAsRootStmt)
	if err != nil {
		if pe, ok := err.(*parseErr); ok && pe.mode == modeBacktrack {
			return nil, cutErr(pe.span, Named{What: "a `config`, `let`, `task` or `build` statement"})
		}
		return nil, err
	}
	return v, nil
}
