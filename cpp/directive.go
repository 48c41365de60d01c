package cpp

import (
	"log/slog"
	"strconv"
	"strings"
)

// handleDirective processes the directive line starting at hash. inArgs is
// set when the directive appears inside the arguments of a macro call, in
// which case nothing is emitted for the line itself.
func (pp *Preprocessor) handleDirective(sc *scanner, hash *Token, inArgs bool) *StopError {
	line, nl, _ := pp.readLine(sc)
	var stop *StopError
	if len(line) != 0 {
		stop = pp.directive(sc, hash, line, nl, inArgs)
	}
	if nl != nil && !inArgs {
		pp.emit(nl)
	}
	return stop
}

func (pp *Preprocessor) directive(sc *scanner, hash *Token, line []*Token, nl *Token, inArgs bool) *StopError {
	name, rest := line[0], line[1:]
	if name.Kind == NUMBER {
		pp.handleLine(hash, line, true)
		return nil
	}
	if name.Kind != IDENT {
		pp.diags.Errorf(name.Pos, "invalid preprocessing directive #%s", name.Spelling())
		return nil
	}
	switch name.Val {
	case "include", "include_next":
		pp.handleInclude(name, rest)
	case "define":
		pp.handleDefine(name, rest)
	case "undef":
		pp.handleUndef(name, rest)
	case "if", "ifdef", "ifndef":
		pp.handleIf(sc, hash, name, rest, inArgs)
	case "elif", "else":
		pp.handleElse(sc, name, rest, inArgs)
	case "endif":
		pp.handleEndif(name, rest)
	case "line":
		pp.handleLine(hash, rest, false)
	case "error":
		msg := "#error"
		if len(rest) != 0 {
			msg += " " + joinSpellings(rest, false)
		}
		return &StopError{Msg: msg, Pos: hash.Pos}
	case "warning":
		msg := "#warning"
		if len(rest) != 0 {
			msg += " " + joinSpellings(rest, false)
		}
		pp.diags.Warnf(hash.Pos, "%s", msg)
	case "pragma", "ident", "sccs":
		if !inArgs {
			hash.directive = true
			pp.emit(hash)
			for _, t := range line {
				pp.emit(t)
			}
		}
	default:
		pp.diags.Errorf(name.Pos, "invalid preprocessing directive #%s", name.Val)
	}
	return nil
}

func (pp *Preprocessor) extraTokens(name *Token, rest []*Token) {
	if len(rest) != 0 {
		pp.diags.Warnf(rest[0].Pos, "extra tokens at end of #%s directive", name.Val)
	}
}

func (pp *Preprocessor) handleInclude(name *Token, rest []*Token) {
	if len(rest) == 0 {
		pp.diags.Errorf(name.Pos, "#%s expects \"FILENAME\" or <FILENAME>", name.Val)
		return
	}
	target := rest[0]
	extra := rest[1:]
	if target.Kind != STRING || target.Char || target.Wide {
		target, extra = pp.includeTarget(name, rest)
		if target == nil {
			return
		}
	}
	pp.extraTokens(name, extra)
	if pp.depth >= maxIncludeDepth {
		pp.diags.Errorf(name.Pos, "#include nested depth %d exceeds maximum of %d", pp.depth, maxIncludeDepth)
		return
	}
	var (
		path string
		src  []byte
		err  error
	)
	if target.Header {
		path, src, err = pp.is.IncludeAngled(pp.path, target.Val)
	} else {
		path, src, err = pp.is.IncludeQuote(pp.path, target.Val)
	}
	if err != nil {
		pp.diags.Errorf(target.Pos, "%s", err)
		return
	}
	pp.log.Debug("include", slog.String("path", path), slog.Int("depth", pp.depth+1))
	child := newTokens(path, pp.lexFile(path, src), pp.cfg, pp.macros, pp.diags)
	child.depth = pp.depth + 1
	pp.out = append(pp.out, child.Preprocess()...)
}

// includeTarget macro expands the operand of an #include that is neither a
// string nor a header name, and reads a file name from the result.
func (pp *Preprocessor) includeTarget(name *Token, rest []*Token) (*Token, []*Token) {
	toks := pp.expandLine(rest, false)
	if len(toks) != 0 && toks[0].Kind == STRING && !toks[0].Char && !toks[0].Wide {
		return toks[0], toks[1:]
	}
	if len(toks) != 0 && toks[0].Is("<") {
		for i := 1; i < len(toks); i++ {
			if toks[i].Is(">") {
				var sb strings.Builder
				for j := 1; j < i; j++ {
					if j > 1 && hasGap(toks[j-1], toks[j]) {
						sb.WriteByte(' ')
					}
					sb.WriteString(toks[j].Spelling())
				}
				t := &Token{Kind: STRING, Val: sb.String(), Header: true, Pos: toks[0].Pos, src: toks[0].src}
				return t, toks[i+1:]
			}
		}
		pp.diags.Errorf(toks[0].Pos, "missing terminating > character")
		return nil, nil
	}
	pp.diags.Errorf(name.Pos, "#%s expects \"FILENAME\" or <FILENAME>", name.Val)
	return nil, nil
}

// lexFile lexes an included file, through the token cache when there is one.
// Lexer diagnostics are kept with the cached tokens and replayed on a hit.
func (pp *Preprocessor) lexFile(path string, src []byte) []*Token {
	lex := func() *LexedFile {
		lf := &LexedFile{}
		lf.Tokens = Lex(path, src, pp.cfg.Standard, pp.cfg.Trigraphs, &lf.Diags)
		return lf
	}
	var lf *LexedFile
	cache := pp.cfg.Cache
	switch c := cache.(type) {
	case nil:
		lf = lex()
	case Loader:
		lf = c.Load(cacheKey(path, pp.cfg), lex)
	default:
		key := cacheKey(path, pp.cfg)
		var ok bool
		if lf, ok = cache.Get(key); ok {
			pp.log.Debug("token cache hit", slog.String("path", path))
		} else {
			pp.log.Debug("token cache miss", slog.String("path", path))
			lf = lex()
			cache.Put(key, lf)
		}
	}
	pp.diags.Merge(&lf.Diags)
	return lf.Tokens
}

func (pp *Preprocessor) handleDefine(name *Token, rest []*Token) {
	if len(rest) == 0 {
		pp.diags.Errorf(name.Pos, "no macro name given in #define directive")
		return
	}
	mname := rest[0]
	if mname.Kind != IDENT {
		pp.diags.Errorf(mname.Pos, "macro names must be identifiers")
		return
	}
	if mname.Val == "defined" {
		pp.diags.Errorf(mname.Pos, "\"defined\" cannot be used as a macro name")
		return
	}
	m := &Macro{Name: mname.Val, Pos: mname.Pos}
	body := rest[1:]
	if len(body) != 0 && body[0].Is("(") && !hasGap(mname, body[0]) {
		n, ok := pp.parseParams(m, body)
		if !ok {
			return
		}
		m.FuncLike = true
		body = body[n:]
	}
	m.Body = body
	if !pp.checkMacroBody(m) {
		return
	}
	if old, ok := pp.macros.Lookup(m.Name); ok && (old.builtin != nil || !old.sameDefinition(m)) {
		pp.diags.Warnf(mname.Pos, "\"%s\" redefined", m.Name)
	}
	pp.macros.Define(m)
	pp.log.Debug("define", slog.String("macro", m.Name))
}

// parseParams reads the parameter list of a function like macro, toks[0] is
// the '('. It returns the number of tokens used.
func (pp *Preprocessor) parseParams(m *Macro, toks []*Token) (int, bool) {
	i := 1
	if i < len(toks) && toks[i].Is(")") {
		return i + 1, true
	}
	closeAt := func(i int, after string) (int, bool) {
		if i >= len(toks) || !toks[i].Is(")") {
			pp.diags.Errorf(toks[i-1].Pos, "missing ')' after \"%s\" in macro parameter list", after)
			return 0, false
		}
		return i + 1, true
	}
	for {
		if i >= len(toks) {
			pp.diags.Errorf(toks[i-1].Pos, "missing ')' in macro parameter list")
			return 0, false
		}
		t := toks[i]
		if t.Is("...") {
			m.Variadic = true
			m.Params = append(m.Params, "__VA_ARGS__")
			return closeAt(i+1, "...")
		}
		if t.Kind != IDENT {
			pp.diags.Errorf(t.Pos, "expected parameter name, found \"%s\"", t.Spelling())
			return 0, false
		}
		for _, p := range m.Params {
			if p == t.Val {
				pp.diags.Errorf(t.Pos, "duplicate macro parameter \"%s\"", t.Val)
				return 0, false
			}
		}
		m.Params = append(m.Params, t.Val)
		i++
		if i < len(toks) && toks[i].Is("...") {
			m.Variadic = true
			return closeAt(i+1, "...")
		}
		if i < len(toks) && toks[i].Is(")") {
			return i + 1, true
		}
		if i < len(toks) && toks[i].Is(",") {
			i++
			continue
		}
		if i < len(toks) {
			pp.diags.Errorf(toks[i].Pos, "expected ',' or ')', found \"%s\"", toks[i].Spelling())
			return 0, false
		}
	}
}

func (pp *Preprocessor) handleUndef(name *Token, rest []*Token) {
	if len(rest) == 0 || rest[0].Kind != IDENT {
		pp.diags.Errorf(name.Pos, "no macro name given in #undef directive")
		return
	}
	pp.extraTokens(name, rest[1:])
	if !pp.macros.Undef(rest[0].Val) {
		pp.diags.Errorf(rest[0].Pos, "#undef of undefined macro \"%s\"", rest[0].Val)
		return
	}
	pp.log.Debug("undef", slog.String("macro", rest[0].Val))
}

func (pp *Preprocessor) handleIf(sc *scanner, hash, name *Token, rest []*Token, inArgs bool) {
	c := &condContext{directive: name.Val, pos: hash.Pos}
	pp.conds = append(pp.conds, c)
	var take bool
	switch name.Val {
	case "if":
		take = pp.evalCondition(name, rest)
	default:
		if len(rest) == 0 || rest[0].Kind != IDENT {
			pp.diags.Errorf(name.Pos, "no macro name given in #%s directive", name.Val)
		} else {
			pp.extraTokens(name, rest[1:])
			take = pp.macros.IsDefined(rest[0].Val) == (name.Val == "ifdef")
		}
	}
	if take {
		c.hasSucceeded = true
		return
	}
	pp.skipGroup(sc, inArgs)
}

func (pp *Preprocessor) handleElse(sc *scanner, name *Token, rest []*Token, inArgs bool) {
	if len(pp.conds) == 0 {
		pp.diags.Errorf(name.Pos, "#%s without #if", name.Val)
		return
	}
	c := pp.conds[len(pp.conds)-1]
	if c.sawElse {
		pp.diags.Errorf(name.Pos, "#%s after #else", name.Val)
	}
	var take bool
	if name.Val == "else" {
		pp.extraTokens(name, rest)
		c.sawElse = true
		take = !c.hasSucceeded
	} else if !c.hasSucceeded {
		take = pp.evalCondition(name, rest)
	}
	if take {
		c.hasSucceeded = true
		return
	}
	pp.skipGroup(sc, inArgs)
}

func (pp *Preprocessor) handleEndif(name *Token, rest []*Token) {
	if len(pp.conds) == 0 {
		pp.diags.Errorf(name.Pos, "#endif without #if")
		return
	}
	pp.extraTokens(name, rest)
	pp.conds = pp.conds[:len(pp.conds)-1]
}

// skipGroup discards a group that is not taken. Nested conditionals are
// followed so that the #elif, #else or #endif ending the group is found.
// That directive is then processed as usual.
func (pp *Preprocessor) skipGroup(sc *scanner, inArgs bool) {
	depth := 0
	bol := true
	for {
		t := pp.next(sc)
		if t == nil {
			return
		}
		if t.Kind == NEWLINE {
			if !inArgs {
				pp.emit(t)
			}
			bol = true
			continue
		}
		if !bol || !t.Is("#") || t.WasMacroExpanded {
			bol = false
			continue
		}
		line, nl, _ := pp.readLine(sc)
		if nl != nil && !inArgs {
			pp.emit(nl)
		}
		if len(line) == 0 || line[0].Kind != IDENT {
			continue
		}
		name, rest := line[0], line[1:]
		switch name.Val {
		case "if", "ifdef", "ifndef":
			depth++
		case "endif":
			if depth == 0 {
				pp.handleEndif(name, rest)
				return
			}
			depth--
		case "elif", "else":
			if depth == 0 {
				pp.handleElse(sc, name, rest, inArgs)
				return
			}
		}
	}
}

// evalCondition evaluates the line of an #if or #elif. defined is resolved
// before and during macro expansion of the line.
func (pp *Preprocessor) evalCondition(name *Token, rest []*Token) bool {
	toks := pp.expandLine(rest, true)
	v, err := evalIfExpr(pp.macros.IsDefined, toks, pp.diags)
	if err != nil {
		pp.diags.Errorf(name.Pos, "%s", err)
		return false
	}
	return v != 0
}

// handleLine sets the line mapping for #line and for GNU linemarkers, which
// are not macro expanded and may carry trailing flags.
func (pp *Preprocessor) handleLine(hash *Token, args []*Token, marker bool) {
	toks := args
	if !marker {
		toks = pp.expandLine(args, false)
	}
	if len(toks) == 0 {
		pp.diags.Errorf(hash.Pos, "unexpected end of file after #line")
		return
	}
	n, err := strconv.ParseUint(toks[0].Val, 10, 64)
	if toks[0].Kind != NUMBER || err != nil {
		pp.diags.Errorf(toks[0].Pos, "\"%s\" after #line is not a positive integer", toks[0].Spelling())
		return
	}
	if (n == 0 && !marker) || n > 2147483647 {
		pp.diags.Errorf(toks[0].Pos, "line number out of range")
		return
	}
	file := hash.Pos.File
	if len(toks) > 1 {
		f := toks[1]
		if f.Kind != STRING || f.Char || f.Wide || f.Header {
			pp.diags.Errorf(f.Pos, "invalid filename \"%s\"", f.Spelling())
			return
		}
		file = f.Val
		if !marker {
			pp.extraTokens(&Token{Val: "line"}, toks[2:])
		}
	}
	pp.lineMap = lineMapping{
		set:   true,
		delta: int(n) - (hash.src.Line + 1),
		file:  file,
	}
}
