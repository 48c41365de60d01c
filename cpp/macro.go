package cpp

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

type Macro struct {
	Name     string
	FuncLike bool
	// Parameter names. A variadic macro's last parameter is __VA_ARGS__,
	// or the name given in the GNU form name...
	Params   []string
	Variadic bool
	Body     []*Token
	Pos      FilePos
	// Set for __LINE__ and __FILE__, which depend on where they are used.
	builtin func(at *Token) *Token
}

func (m *Macro) paramIndex(t *Token) int {
	if !m.FuncLike || t.Kind != IDENT {
		return -1
	}
	for i, p := range m.Params {
		if p == t.Val {
			return i
		}
	}
	return -1
}

// sameDefinition reports whether two definitions are identical in the sense
// that redefining one as the other needs no diagnostic.
func (m *Macro) sameDefinition(o *Macro) bool {
	if m.FuncLike != o.FuncLike || m.Variadic != o.Variadic || len(m.Params) != len(o.Params) || len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Params {
		if m.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range m.Body {
		if m.Body[i].Kind != o.Body[i].Kind || m.Body[i].Spelling() != o.Body[i].Spelling() {
			return false
		}
		if i > 0 && hasGap(m.Body[i-1], m.Body[i]) != hasGap(o.Body[i-1], o.Body[i]) {
			return false
		}
	}
	return true
}

func (m *Macro) String() string {
	var sb strings.Builder
	sb.WriteString("#define ")
	sb.WriteString(m.Name)
	if m.FuncLike {
		sb.WriteByte('(')
		for i, p := range m.Params {
			if i != 0 {
				sb.WriteString(", ")
			}
			if m.Variadic && i == len(m.Params)-1 {
				if p != "__VA_ARGS__" {
					sb.WriteString(p)
				}
				sb.WriteString("...")
				continue
			}
			sb.WriteString(p)
		}
		sb.WriteByte(')')
	}
	if m.builtin != nil {
		sb.WriteString(" <builtin>")
		return sb.String()
	}
	if len(m.Body) != 0 {
		sb.WriteByte(' ')
		sb.WriteString(joinSpellings(m.Body, false))
	}
	return sb.String()
}

// MacroTable maps names to definitions. One table is shared by every file
// of a session, so definitions made in a header stay visible to its includer.
// It is not safe for concurrent use.
type MacroTable struct {
	m        map[string]*Macro
	builtins bool
}

func NewMacroTable() *MacroTable {
	return &MacroTable{m: make(map[string]*Macro)}
}

func (mt *MacroTable) Lookup(name string) (*Macro, bool) {
	m, ok := mt.m[name]
	return m, ok
}

func (mt *MacroTable) IsDefined(name string) bool {
	_, ok := mt.m[name]
	return ok
}

// Define adds or replaces a definition and returns the one it replaced.
func (mt *MacroTable) Define(m *Macro) *Macro {
	old := mt.m[m.Name]
	mt.m[m.Name] = m
	return old
}

func (mt *MacroTable) Undef(name string) bool {
	_, ok := mt.m[name]
	delete(mt.m, name)
	return ok
}

// Names returns the defined names in sorted order.
func (mt *MacroTable) Names() []string {
	ret := make([]string, 0, len(mt.m))
	for k := range mt.m {
		ret = append(ret, k)
	}
	sort.Strings(ret)
	return ret
}

func (mt *MacroTable) Len() int {
	return len(mt.m)
}

var builtinPos = FilePos{File: "<built-in>", Line: 1, Col: 1}

func builtinTokens(kind TokenKind, val string) []*Token {
	return []*Token{{Kind: kind, Val: val, Pos: builtinPos, src: builtinPos}}
}

func quoteCString(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// installBuiltins adds the predefined macros once per table. Date and time
// are fixed when the table is first used, as for a real translation.
func installBuiltins(mt *MacroTable, std Standard, now time.Time) {
	if mt.builtins {
		return
	}
	mt.builtins = true
	mt.Define(&Macro{Name: "__LINE__", Pos: builtinPos, builtin: func(at *Token) *Token {
		return &Token{Kind: NUMBER, Val: strconv.Itoa(at.Pos.Line)}
	}})
	mt.Define(&Macro{Name: "__FILE__", Pos: builtinPos, builtin: func(at *Token) *Token {
		return &Token{Kind: STRING, Val: quoteCString(at.Pos.File)}
	}})
	mt.Define(&Macro{Name: "__DATE__", Pos: builtinPos, Body: builtinTokens(STRING, now.Format("Jan _2 2006"))})
	mt.Define(&Macro{Name: "__TIME__", Pos: builtinPos, Body: builtinTokens(STRING, now.Format("15:04:05"))})
	mt.Define(&Macro{Name: "__TIMESTAMP__", Pos: builtinPos, Body: builtinTokens(STRING, now.Format("Mon Jan _2 15:04:05 2006"))})
	mt.Define(&Macro{Name: "__STDC__", Pos: builtinPos, Body: builtinTokens(NUMBER, "1")})
	mt.Define(&Macro{Name: "__STDC_HOSTED__", Pos: builtinPos, Body: builtinTokens(NUMBER, "1")})
	mt.Define(&Macro{Name: "__STDC_VERSION__", Pos: builtinPos, Body: builtinTokens(NUMBER, "199901L")})
}

// hasGap reports whether whitespace separated two tokens where they were lexed.
func hasGap(prev, t *Token) bool {
	if prev.src.File != t.src.File || prev.src.Line != t.src.Line {
		return true
	}
	return prev.src.Col+utf8.RuneCountInString(prev.Spelling()) != t.src.Col
}

// joinSpellings renders tokens with one space wherever there was whitespace
// in the source.
func joinSpellings(toks []*Token, escape bool) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && hasGap(toks[i-1], t) {
			sb.WriteByte(' ')
		}
		s := t.Spelling()
		if escape && t.Kind == STRING {
			s = quoteCString(s)
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func (pp *Preprocessor) stringize(arg []*Token, call *Token) *Token {
	return &Token{
		Kind:             STRING,
		Val:              joinSpellings(arg, true),
		Pos:              call.Pos,
		src:              call.src,
		WasMacroExpanded: true,
	}
}

// paste joins two tokens for ##. An invalid pair is reported and the left
// token is kept.
func (pp *Preprocessor) paste(l, r *Token) *Token {
	ret := &Token{Pos: l.Pos, src: l.src, WasMacroExpanded: true}
	switch {
	case l.Kind == NUMBER && (r.Kind == NUMBER || r.Kind == IDENT):
		ret.Kind = NUMBER
		ret.Val = l.Val + r.Val
	case l.Kind == IDENT && (r.Kind == IDENT || r.Kind == NUMBER):
		ret.Kind = IDENT
		ret.Val = l.Val + r.Val
	case l.Kind == PUNCT && r.Kind == PUNCT && IsPunctuator(l.Val+r.Val):
		ret.Kind = PUNCT
		ret.Val = l.Val + r.Val
	case l.Kind == IDENT && l.Val == "L" && r.Kind == STRING && !r.Wide && !r.Header:
		ret.Kind = STRING
		ret.Val = r.Val
		ret.Char = r.Char
		ret.Wide = true
	default:
		pp.diags.Errorf(l.Pos, "pasting \"%s\" and \"%s\" does not give a valid preprocessing token", l.Spelling(), r.Spelling())
		return l
	}
	return ret
}

// placemarker stands in for an empty argument next to ## until pasting is done.
var placemarker = &Token{Kind: OTHER}

// subst builds the replacement list of one invocation. Operands of # and ##
// use the raw argument, other parameters use the expanded one.
func (pp *Preprocessor) subst(m *Macro, args, expanded [][]*Token, call *Token) []*Token {
	body := m.Body
	copyArg := func(arg []*Token) []*Token {
		ret := make([]*Token, len(arg))
		for i, t := range arg {
			c := t.copy()
			c.WasMacroExpanded = true
			ret[i] = c
		}
		return ret
	}
	fromBody := func(t *Token) *Token {
		c := t.copy()
		c.Pos = call.Pos
		c.WasMacroExpanded = true
		return c
	}
	var out []*Token
	for i := 0; i < len(body); i++ {
		t := body[i]
		switch {
		case m.FuncLike && t.Is("#") && i+1 < len(body) && m.paramIndex(body[i+1]) >= 0:
			out = append(out, pp.stringize(args[m.paramIndex(body[i+1])], call))
			i++
		case t.Is("##") && len(out) > 0 && i+1 < len(body):
			i++
			var rhs []*Token
			next := body[i]
			if idx := m.paramIndex(next); idx >= 0 {
				rhs = copyArg(args[idx])
			} else if m.FuncLike && next.Is("#") && i+1 < len(body) && m.paramIndex(body[i+1]) >= 0 {
				rhs = []*Token{pp.stringize(args[m.paramIndex(body[i+1])], call)}
				i++
			} else {
				rhs = []*Token{fromBody(next)}
			}
			if len(rhs) == 0 {
				continue
			}
			last := len(out) - 1
			if out[last] == placemarker {
				out[last] = rhs[0]
			} else {
				out[last] = pp.paste(out[last], rhs[0])
			}
			out = append(out, rhs[1:]...)
		case m.paramIndex(t) >= 0:
			idx := m.paramIndex(t)
			pasted := i+1 < len(body) && body[i+1].Is("##")
			arg := expanded[idx]
			if pasted {
				arg = args[idx]
			}
			if len(arg) == 0 {
				if pasted {
					out = append(out, placemarker)
				}
				continue
			}
			out = append(out, copyArg(arg)...)
		default:
			out = append(out, fromBody(t))
		}
	}
	ret := out[:0]
	for _, t := range out {
		if t != placemarker {
			ret = append(ret, t)
		}
	}
	return ret
}

// checkMacroBody validates the use of # and ## in a new definition.
func (pp *Preprocessor) checkMacroBody(m *Macro) bool {
	n := len(m.Body)
	if n > 0 && (m.Body[0].Is("##") || m.Body[n-1].Is("##")) {
		pos := m.Body[0].Pos
		if !m.Body[0].Is("##") {
			pos = m.Body[n-1].Pos
		}
		pp.diags.Errorf(pos, "'##' cannot appear at either end of a macro expansion")
		return false
	}
	if !m.FuncLike {
		return true
	}
	for i, t := range m.Body {
		if t.Is("#") && (i+1 >= n || m.paramIndex(m.Body[i+1]) < 0) {
			pp.diags.Errorf(t.Pos, "'#' is not followed by a macro parameter")
			return false
		}
	}
	return true
}

func (m *Macro) arityError(nargs int) string {
	nparams := len(m.Params)
	if m.Variadic {
		return fmt.Sprintf("macro \"%s\" requires at least %d arguments, but only %d given", m.Name, nparams-1, nargs)
	}
	if nargs < nparams {
		return fmt.Sprintf("macro \"%s\" requires %d arguments, but only %d given", m.Name, nparams, nargs)
	}
	return fmt.Sprintf("macro \"%s\" passed %d arguments, but takes just %d", m.Name, nargs, nparams)
}
