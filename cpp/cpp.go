package cpp

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// Config carries everything a preprocessing session needs besides the
// source text itself. The zero value is usable.
type Config struct {
	Standard    Standard
	IncludeDirs []string
	Trigraphs   bool
	// Macros, when set, is used and updated in place. This lets a driver
	// compose several files under one macro table.
	Macros *MacroTable
	// Files supplies the bytes of included files. Defaults to OSFiles.
	Files FileSource
	// Cache memoizes lexed include files by path. Optional.
	Cache  TokenCache
	Logger *slog.Logger
	Now    func() time.Time
}

func (cfg *Config) logger() *slog.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (cfg *Config) files() FileSource {
	if cfg.Files != nil {
		return cfg.Files
	}
	return OSFiles{}
}

func (cfg *Config) now() time.Time {
	if cfg.Now != nil {
		return cfg.Now()
	}
	return time.Now()
}

const maxIncludeDepth = 200

// scanner is a token stream with pushback. Expansions are pushed back in
// front of the remaining input so they get rescanned.
type scanner struct {
	input []*Token
	idx   int
	// Pushed back tokens, the last element is the next one read.
	pending []*Token
	// Names of the macros being expanded, maintained by the expansion markers.
	guard []string
	// Apply #line remapping to tokens read from input.
	remap bool
}

func (sc *scanner) guarded(name string) bool {
	for _, g := range sc.guard {
		if g == name {
			return true
		}
	}
	return false
}

func (sc *scanner) popGuard() {
	if len(sc.guard) != 0 {
		sc.guard = sc.guard[:len(sc.guard)-1]
	}
}

// peekAt returns the token n places ahead without consuming anything.
func (sc *scanner) peekAt(n int) *Token {
	if n < len(sc.pending) {
		return sc.pending[len(sc.pending)-1-n]
	}
	n -= len(sc.pending)
	if sc.idx+n < len(sc.input) {
		return sc.input[sc.idx+n]
	}
	return nil
}

type condContext struct {
	directive    string
	pos          FilePos
	hasSucceeded bool
	sawElse      bool
}

type lineMapping struct {
	set   bool
	delta int
	file  string
}

type Preprocessor struct {
	cfg    *Config
	path   string
	src    []byte
	macros *MacroTable
	diags  *Diagnostics
	log    *slog.Logger
	is     IncludeSearcher
	depth  int

	sc      *scanner
	conds   []*condContext
	lineMap lineMapping
	out     []*Token
	stopped *StopError
	preToks []*Token
	hasToks bool
}

// New creates a preprocessor for the file at path whose contents are src.
func New(path string, src []byte, cfg *Config) *Preprocessor {
	if cfg == nil {
		cfg = &Config{}
	}
	pp := &Preprocessor{
		cfg:   cfg,
		path:  path,
		src:   src,
		diags: &Diagnostics{},
	}
	pp.macros = cfg.Macros
	if pp.macros == nil {
		pp.macros = NewMacroTable()
	}
	installBuiltins(pp.macros, cfg.Standard, cfg.now())
	pp.log = cfg.logger().With(slog.String("component", "cpp"))
	pp.is = NewStandardIncludeSearcher(cfg.IncludeDirs, cfg.files())
	return pp
}

// newTokens creates a preprocessor over an already lexed file.
func newTokens(path string, toks []*Token, cfg *Config, macros *MacroTable, diags *Diagnostics) *Preprocessor {
	pp := &Preprocessor{
		cfg:     cfg,
		path:    path,
		macros:  macros,
		diags:   diags,
		preToks: toks,
		hasToks: true,
	}
	pp.log = cfg.logger().With(slog.String("component", "cpp"))
	pp.is = NewStandardIncludeSearcher(cfg.IncludeDirs, cfg.files())
	return pp
}

func (pp *Preprocessor) Diagnostics() *Diagnostics {
	return pp.diags
}

func (pp *Preprocessor) Macros() *MacroTable {
	return pp.macros
}

// Preprocess runs the file through directive processing and macro
// expansion. The result keeps NEWLINE tokens, ForParser removes them.
// An #error stops this file and is recorded as an error diagnostic.
func (pp *Preprocessor) Preprocess() []*Token {
	toks := pp.preToks
	if !pp.hasToks {
		toks = Lex(pp.path, pp.src, pp.cfg.Standard, pp.cfg.Trigraphs, pp.diags)
	}
	pp.sc = &scanner{input: toks, remap: true}
	if stop := pp.run(); stop != nil {
		pp.log.Debug("stopped by #error", slog.String("file", pp.path), slog.String("msg", stop.Msg))
		pp.diags.Errorf(stop.Pos, "%s", stop.Msg)
	}
	return pp.out
}

func (pp *Preprocessor) emit(t *Token) {
	pp.out = append(pp.out, t)
}

// next reads one token. Input tokens are copied, cached lists are shared.
func (pp *Preprocessor) next(sc *scanner) *Token {
	if n := len(sc.pending); n > 0 {
		t := sc.pending[n-1]
		sc.pending = sc.pending[:n-1]
		return t
	}
	if sc.idx >= len(sc.input) {
		return nil
	}
	t := sc.input[sc.idx].copy()
	sc.idx++
	if sc.remap && pp.lineMap.set {
		t.Pos.Line = t.src.Line + pp.lineMap.delta
		t.Pos.File = pp.lineMap.file
	}
	return t
}

func (pp *Preprocessor) unget(sc *scanner, toks []*Token) {
	for i := len(toks) - 1; i >= 0; i-- {
		sc.pending = append(sc.pending, toks[i])
	}
}

// readLine reads the rest of a directive line. The NEWLINE is consumed
// and not returned. ok is false at the end of input.
func (pp *Preprocessor) readLine(sc *scanner) (line []*Token, nl *Token, ok bool) {
	for {
		t := pp.next(sc)
		if t == nil {
			return line, nil, len(line) != 0
		}
		if t.Kind == NEWLINE {
			return line, t, true
		}
		line = append(line, t)
	}
}

func (pp *Preprocessor) run() *StopError {
	sc := pp.sc
	bol := true
	for {
		if pp.stopped != nil {
			return pp.stopped
		}
		t := pp.next(sc)
		if t == nil {
			break
		}
		switch t.Kind {
		case EXPAND_START:
			sc.guard = append(sc.guard, t.Val)
			continue
		case EXPAND_END:
			sc.popGuard()
			continue
		case NEWLINE:
			pp.emit(t)
			bol = true
			continue
		}
		if bol && t.Is("#") && !t.WasMacroExpanded {
			if stop := pp.handleDirective(sc, t, false); stop != nil {
				return stop
			}
			continue
		}
		bol = false
		if t.Kind == IDENT && pp.expand(sc, t) {
			continue
		}
		if pp.stopped != nil {
			return pp.stopped
		}
		pp.emit(t)
	}
	for i := len(pp.conds) - 1; i >= 0; i-- {
		c := pp.conds[i]
		pp.diags.Errorf(c.pos, "unterminated #%s", c.directive)
	}
	pp.conds = nil
	return nil
}

// expand replaces t with its macro expansion if it names a macro that may
// be expanded here. It reports whether anything was replaced.
func (pp *Preprocessor) expand(sc *scanner, t *Token) bool {
	m, ok := pp.macros.Lookup(t.Val)
	if !ok || t.painted {
		return false
	}
	if sc.guarded(t.Val) {
		t.painted = true
		return false
	}
	if m.builtin != nil {
		r := m.builtin(t)
		r.Pos = t.Pos
		r.src = t.src
		r.WasMacroExpanded = true
		pp.unget(sc, []*Token{r})
		return true
	}
	var args, expanded [][]*Token
	if m.FuncLike {
		guard := append([]string(nil), sc.guard...)
		lparen := pp.consumeLParen(sc)
		if lparen == nil {
			return false
		}
		args, ok = pp.readMacroInvokeArguments(sc, m, t, lparen)
		if !ok {
			return false
		}
		expanded = make([][]*Token, len(args))
		for i, arg := range args {
			expanded[i] = pp.expandTokens(arg, guard, false)
		}
	}
	body := pp.subst(m, args, expanded, t)
	expansion := make([]*Token, 0, len(body)+2)
	expansion = append(expansion, &Token{Kind: EXPAND_START, Val: m.Name, Pos: t.Pos, src: t.src, WasMacroExpanded: true})
	expansion = append(expansion, body...)
	expansion = append(expansion, &Token{Kind: EXPAND_END, Val: m.Name, Pos: t.Pos, src: t.src, WasMacroExpanded: true})
	pp.unget(sc, expansion)
	return true
}

// consumeLParen looks past markers and newlines for the '(' of a function
// like macro invocation. If found, everything up to it is consumed.
func (pp *Preprocessor) consumeLParen(sc *scanner) *Token {
	n := 0
	for {
		t := sc.peekAt(n)
		if t == nil {
			return nil
		}
		if t.Kind == EXPAND_START || t.Kind == EXPAND_END || t.Kind == NEWLINE {
			n++
			continue
		}
		if !t.Is("(") {
			return nil
		}
		break
	}
	for i := 0; i < n; i++ {
		t := pp.next(sc)
		switch t.Kind {
		case EXPAND_START:
			sc.guard = append(sc.guard, t.Val)
		case EXPAND_END:
			sc.popGuard()
		}
	}
	return pp.next(sc)
}

// readMacroInvokeArguments collects the arguments of a function like macro
// call, the '(' has been read. Arguments are split on top level commas and
// not expanded. A trailing variadic parameter takes everything left over.
func (pp *Preprocessor) readMacroInvokeArguments(sc *scanner, m *Macro, name, lparen *Token) ([][]*Token, bool) {
	var args [][]*Token
	var cur []*Token
	consumed := []*Token{lparen}
	depth := 0
	bol := false
	nparams := len(m.Params)
loop:
	for {
		t := pp.next(sc)
		if t == nil {
			pp.diags.Errorf(name.Pos, "unterminated argument list invoking macro \"%s\"", m.Name)
			pp.unget(sc, consumed)
			return nil, false
		}
		switch t.Kind {
		case EXPAND_START:
			sc.guard = append(sc.guard, t.Val)
			continue
		case EXPAND_END:
			sc.popGuard()
			continue
		case NEWLINE:
			consumed = append(consumed, t)
			bol = true
			continue
		}
		if bol && sc == pp.sc && t.Is("#") && !t.WasMacroExpanded {
			if stop := pp.handleDirective(sc, t, true); stop != nil {
				pp.stopped = stop
				return nil, false
			}
			continue
		}
		bol = false
		consumed = append(consumed, t)
		switch {
		case t.Is("("):
			depth++
		case t.Is(")"):
			if depth == 0 {
				args = append(args, cur)
				break loop
			}
			depth--
		case t.Is(",") && depth == 0 && !(m.Variadic && len(args) == nparams-1):
			args = append(args, cur)
			cur = nil
			continue
		}
		cur = append(cur, t)
	}

	switch {
	case nparams == 0:
		if len(args) == 1 && len(args[0]) == 0 {
			args = nil
		} else {
			pp.diags.Errorf(name.Pos, "%s", m.arityError(len(args)))
			args = nil
		}
	case m.Variadic:
		if len(args) < nparams-1 {
			pp.diags.Errorf(name.Pos, "%s", m.arityError(len(args)))
		}
	case len(args) != nparams:
		pp.diags.Errorf(name.Pos, "%s", m.arityError(len(args)))
	}
	for len(args) < nparams {
		args = append(args, nil)
	}
	return args[:nparams], true
}

// expandLine fully macro expands the tokens of a directive line. With
// evalDefined, defined X and defined(X) are replaced by 0 or 1 before
// their operand can be expanded.
func (pp *Preprocessor) expandLine(line []*Token, evalDefined bool) []*Token {
	return pp.expandTokens(line, nil, evalDefined)
}

// expandTokens fully expands a self contained token list. guard holds the
// names that may not expand, as at the place the tokens came from.
func (pp *Preprocessor) expandTokens(toks []*Token, guard []string, evalDefined bool) []*Token {
	sc := &scanner{input: toks, guard: append([]string(nil), guard...)}
	var out []*Token
	for {
		t := pp.next(sc)
		if t == nil {
			return out
		}
		switch t.Kind {
		case EXPAND_START:
			sc.guard = append(sc.guard, t.Val)
			continue
		case EXPAND_END:
			sc.popGuard()
			continue
		}
		if evalDefined && t.Kind == IDENT && t.Val == "defined" {
			out = append(out, pp.readDefined(sc, t))
			continue
		}
		if t.Kind == IDENT && pp.expand(sc, t) {
			continue
		}
		out = append(out, t)
	}
}

func (pp *Preprocessor) nextNoMarker(sc *scanner) *Token {
	for {
		t := pp.next(sc)
		if t == nil || (t.Kind != EXPAND_START && t.Kind != EXPAND_END) {
			return t
		}
		if t.Kind == EXPAND_START {
			sc.guard = append(sc.guard, t.Val)
		} else {
			sc.popGuard()
		}
	}
}

func (pp *Preprocessor) readDefined(sc *scanner, defined *Token) *Token {
	result := &Token{Kind: NUMBER, Val: "0", Pos: defined.Pos, src: defined.src}
	t := pp.nextNoMarker(sc)
	paren := t.Is("(")
	if paren {
		t = pp.nextNoMarker(sc)
	}
	if t == nil || t.Kind != IDENT {
		pp.diags.Errorf(defined.Pos, "operator \"defined\" requires an identifier")
		return result
	}
	if paren {
		if rparen := pp.nextNoMarker(sc); !rparen.Is(")") {
			pp.diags.Errorf(defined.Pos, "missing ')' after \"defined\"")
			if rparen != nil {
				pp.unget(sc, []*Token{rparen})
			}
		}
	}
	if pp.macros.IsDefined(t.Val) {
		result.Val = "1"
	}
	return result
}

// ForParser prepares preprocessed tokens for parsing. Newlines, expansion
// markers and directive lines left in the stream such as #pragma are
// removed, and identifiers spelling keywords become KEYWORD tokens.
func ForParser(toks []*Token) []*Token {
	ret := make([]*Token, 0, len(toks))
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		switch t.Kind {
		case NEWLINE, EXPAND_START, EXPAND_END:
			continue
		}
		if t.directive {
			for i+1 < len(toks) && toks[i+1].Kind != NEWLINE {
				i++
			}
			continue
		}
		if t.Kind == IDENT && IsKeyword(t.Val) {
			t = t.copy()
			t.Kind = KEYWORD
		}
		ret = append(ret, t)
	}
	return ret
}

// Format writes preprocessed tokens back out as source text, one output line
// per NEWLINE token. Tokens that touched in the source are written touching.
func Format(w io.Writer, toks []*Token) error {
	var sb strings.Builder
	var prev *Token
	for _, t := range toks {
		switch t.Kind {
		case NEWLINE:
			sb.WriteByte('\n')
			prev = nil
			continue
		case EXPAND_START, EXPAND_END:
			continue
		}
		if prev != nil && (prev.WasMacroExpanded || t.WasMacroExpanded || hasGap(prev, t)) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Spelling())
		prev = t
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
