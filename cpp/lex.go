package cpp

import (
	"strings"
)

// Standard selects the dialect rules of the lexer and the predefined macros.
type Standard int

const (
	C99 Standard = iota
	// GNU accepts '$' in identifiers.
	GNU
)

func (s Standard) String() string {
	switch s {
	case C99:
		return "c99"
	case GNU:
		return "gnu"
	}
	return "unknown"
}

// ParseStandard maps a -std style name onto a Standard.
func ParseStandard(s string) (Standard, bool) {
	switch strings.ToLower(s) {
	case "c99", "c9x", "iso9899:1999", "":
		return C99, true
	case "gnu", "gnu99", "gnu9x":
		return GNU, true
	}
	return C99, false
}

type Lexer struct {
	src       []rune
	idx       int
	pos       FilePos
	markedPos FilePos
	std       Standard
	diags     *Diagnostics
	// Tokens emitted on the current line, used to spot #include.
	lineToks    int
	lastTok     *Token
	includeNext bool
}

// NewLexer prepares the text of one file for lexing. Trigraph replacement
// and line splicing happen here, before any token is read.
// fname is used for the positions of tokens and diagnostics.
func NewLexer(fname string, src []byte, std Standard, trigraphs bool, diags *Diagnostics) *Lexer {
	text := normalizeNewlines(string(src))
	if trigraphs {
		text = replaceTrigraphs(text)
	}
	text = spliceLines(fname, text, diags)
	lx := new(Lexer)
	lx.src = []rune(text)
	lx.pos.File = fname
	lx.pos.Line = 1
	lx.pos.Col = 1
	lx.markedPos = lx.pos
	lx.std = std
	lx.diags = diags
	return lx
}

// Lex reads a whole file into a token slice. The result always ends with a NEWLINE.
func Lex(fname string, src []byte, std Standard, trigraphs bool, diags *Diagnostics) []*Token {
	lx := NewLexer(fname, src, std, trigraphs, diags)
	var ret []*Token
	for {
		t := lx.Next()
		if t == nil {
			break
		}
		ret = append(ret, t)
	}
	if len(ret) == 0 || ret[len(ret)-1].Kind != NEWLINE {
		ret = append(ret, &Token{Kind: NEWLINE, Pos: lx.pos, src: lx.pos})
	}
	return ret
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

var trigraphReplacer = strings.NewReplacer(
	"??=", "#",
	"??/", "\\",
	"??'", "^",
	"??(", "[",
	"??)", "]",
	"??!", "|",
	"??<", "{",
	"??>", "}",
	"??-", "~",
)

func replaceTrigraphs(s string) string {
	if !strings.Contains(s, "??") {
		return s
	}
	return trigraphReplacer.Replace(s)
}

// spliceLines joins backslash-newline continued lines. For every line
// swallowed a blank line is appended after the joined one so later lines
// keep their numbers.
func spliceLines(fname, s string, diags *Diagnostics) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	lines := strings.Split(s, "\n")
	var out []string
	var cur strings.Builder
	joined := 0
	for i, line := range lines {
		trimmed := strings.TrimRight(line, " \t\v\f")
		if strings.HasSuffix(trimmed, "\\") {
			if len(trimmed) != len(line) {
				diags.Warnf(FilePos{fname, i + 1, len([]rune(trimmed))}, "backslash and newline separated by space")
			}
			cur.WriteString(trimmed[:len(trimmed)-1])
			if i == len(lines)-1 {
				diags.Warnf(FilePos{fname, i + 1, len([]rune(trimmed))}, "backslash-newline at end of file")
				break
			}
			joined++
			continue
		}
		cur.WriteString(line)
		out = append(out, cur.String())
		for ; joined > 0; joined-- {
			out = append(out, "")
		}
		cur.Reset()
	}
	if cur.Len() != 0 || joined != 0 {
		out = append(out, cur.String())
		for ; joined > 0; joined-- {
			out = append(out, "")
		}
	}
	return strings.Join(out, "\n")
}

func (lx *Lexer) peek(n int) rune {
	if lx.idx+n >= len(lx.src) {
		return 0
	}
	return lx.src[lx.idx+n]
}

func (lx *Lexer) eof() bool {
	return lx.idx >= len(lx.src)
}

func (lx *Lexer) readRune() rune {
	r := lx.src[lx.idx]
	lx.idx++
	if r == '\n' {
		lx.pos.Line += 1
		lx.pos.Col = 1
	} else {
		lx.pos.Col += 1
	}
	return r
}

func (lx *Lexer) markPos() {
	lx.markedPos = lx.pos
}

func (lx *Lexer) makeTok(kind TokenKind, val string) *Token {
	t := &Token{Kind: kind, Val: val, Pos: lx.markedPos, src: lx.markedPos}
	if kind == NEWLINE {
		lx.lineToks = 0
	} else {
		lx.lineToks++
	}
	lx.includeNext = false
	lx.lastTok = t
	return t
}

// Next returns the next token or nil at the end of input.
func (lx *Lexer) Next() *Token {
	for !lx.eof() {
		lx.markPos()
		c := lx.peek(0)
		switch {
		case c == '\n':
			lx.readRune()
			return lx.makeTok(NEWLINE, "")
		case isWhiteSpace(c):
			lx.readRune()
		case c == '/' && lx.peek(1) == '/':
			for !lx.eof() && lx.peek(0) != '\n' {
				lx.readRune()
			}
		case c == '/' && lx.peek(1) == '*':
			lx.skipBlockComment()
		case isNumeric(c) || (c == '.' && isNumeric(lx.peek(1))):
			return lx.readNumber()
		case c == 'L' && (lx.peek(1) == '"' || lx.peek(1) == '\''):
			if t := lx.readLiteral(); t != nil {
				return t
			}
		case c == '"' || c == '\'':
			if t := lx.readLiteral(); t != nil {
				return t
			}
		case c == '<' && lx.includeNext:
			if t := lx.readHeaderName(); t != nil {
				return t
			}
			return lx.readPunct()
		case lx.isIdentStart(c):
			return lx.readIdent()
		default:
			return lx.readPunct()
		}
	}
	return nil
}

func (lx *Lexer) skipBlockComment() {
	lx.readRune()
	lx.readRune()
	for {
		if lx.eof() {
			lx.diags.Errorf(lx.markedPos, "unterminated comment")
			return
		}
		if lx.peek(0) == '*' && lx.peek(1) == '/' {
			lx.readRune()
			lx.readRune()
			return
		}
		lx.readRune()
	}
}

func (lx *Lexer) readIdent() *Token {
	var sb strings.Builder
	for !lx.eof() && (lx.isIdentStart(lx.peek(0)) || isNumeric(lx.peek(0))) {
		sb.WriteRune(lx.readRune())
	}
	name := sb.String()
	prev := lx.lastTok
	atDirective := lx.lineToks == 1 && prev.Is("#")
	t := lx.makeTok(IDENT, name)
	if atDirective && (name == "include" || name == "include_next") {
		lx.includeNext = true
	}
	return t
}

// readNumber reads a preprocessing number. Its meaning is worked out later
// by ParseNumber.
func (lx *Lexer) readNumber() *Token {
	var sb strings.Builder
	for !lx.eof() {
		c := lx.peek(0)
		switch {
		case isNumeric(c) || c == '.' || lx.isIdentStart(c):
			sb.WriteRune(lx.readRune())
			if (c == 'e' || c == 'E' || c == 'p' || c == 'P') && (lx.peek(0) == '+' || lx.peek(0) == '-') {
				sb.WriteRune(lx.readRune())
			}
		default:
			return lx.makeTok(NUMBER, sb.String())
		}
	}
	return lx.makeTok(NUMBER, sb.String())
}

// readLiteral reads a string or character constant. Escapes are kept as
// written. An unterminated literal is dropped with a warning.
func (lx *Lexer) readLiteral() *Token {
	wide := false
	if lx.peek(0) == 'L' {
		wide = true
		lx.readRune()
	}
	quote := lx.readRune()
	var sb strings.Builder
	for {
		if lx.eof() || lx.peek(0) == '\n' {
			lx.diags.Warnf(lx.markedPos, "missing terminating %c character", quote)
			return nil
		}
		c := lx.readRune()
		if c == quote {
			break
		}
		sb.WriteRune(c)
		if c == '\\' && !lx.eof() && lx.peek(0) != '\n' {
			sb.WriteRune(lx.readRune())
		}
	}
	t := lx.makeTok(STRING, sb.String())
	t.Wide = wide
	t.Char = quote == '\''
	return t
}

// readHeaderName reads <...> after #include. Returns nil, having consumed
// nothing, when the line has no closing '>'.
func (lx *Lexer) readHeaderName() *Token {
	end := -1
	for i := lx.idx + 1; i < len(lx.src) && lx.src[i] != '\n'; i++ {
		if lx.src[i] == '>' {
			end = i
			break
		}
	}
	if end == -1 {
		return nil
	}
	lx.readRune()
	var sb strings.Builder
	for lx.idx < end {
		sb.WriteRune(lx.readRune())
	}
	lx.readRune()
	t := lx.makeTok(STRING, sb.String())
	t.Header = true
	return t
}

func (lx *Lexer) readPunct() *Token {
	for _, p := range punctuators {
		if lx.hasPrefix(p) {
			for range p {
				lx.readRune()
			}
			return lx.makeTok(PUNCT, p)
		}
	}
	return lx.makeTok(OTHER, string(lx.readRune()))
}

func (lx *Lexer) hasPrefix(p string) bool {
	i := 0
	for _, r := range p {
		if lx.peek(i) != r {
			return false
		}
		i++
	}
	return true
}

func (lx *Lexer) isIdentStart(r rune) bool {
	return isAlpha(r) || r == '_' || (r == '$' && lx.std == GNU)
}

func isAlpha(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isNumeric(r rune) bool {
	return r >= '0' && r <= '9'
}

func isWhiteSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\v' || r == '\f'
}
