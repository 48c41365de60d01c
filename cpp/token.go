package cpp

import (
	"fmt"
	"strings"
)

type TokenKind uint32

// The list of token kinds. Punctuators are not split into separate kinds,
// they are told apart by spelling.
const (
	IDENT TokenKind = iota
	KEYWORD
	PUNCT
	NUMBER
	STRING
	NEWLINE
	// Bracket the tokens produced by one macro expansion. Val is the macro name.
	EXPAND_START
	EXPAND_END
	OTHER
)

var tokenKindToStr = [...]string{
	IDENT:        "ident",
	KEYWORD:      "keyword",
	PUNCT:        "punct",
	NUMBER:       "number",
	STRING:       "string",
	NEWLINE:      "newline",
	EXPAND_START: "expandstart",
	EXPAND_END:   "expandend",
	OTHER:        "other",
}

func (tk TokenKind) String() string {
	if uint32(tk) >= uint32(len(tokenKindToStr)) {
		return "Unknown"
	}
	ret := tokenKindToStr[tk]
	if ret == "" {
		return "Unknown"
	}
	return ret
}

// Punctuators, longest spelling first so a linear scan is maximal munch.
var punctuators = []string{
	"%:%:", "...", "<<=", ">>=",
	"->", "++", "--", "<<", ">>", "<=", ">=", "==", "!=", "&&", "||",
	"*=", "/=", "%=", "+=", "-=", "&=", "^=", "|=", "##",
	"<:", ":>", "<%", "%>", "%:",
	"[", "]", "(", ")", "{", "}", ".", "&", "*", "+", "-", "~", "!",
	"/", "%", "<", ">", "^", "|", "?", ":", ";", "=", ",", "#",
}

var punctLUT = func() map[string]struct{} {
	m := make(map[string]struct{}, len(punctuators))
	for _, p := range punctuators {
		m[p] = struct{}{}
	}
	return m
}()

// Digraphs and their canonical spelling.
var digraphs = map[string]string{
	"<:":   "[",
	":>":   "]",
	"<%":   "{",
	"%>":   "}",
	"%:":   "#",
	"%:%:": "##",
}

// IsPunctuator reports whether s is the spelling of a C punctuator.
func IsPunctuator(s string) bool {
	_, ok := punctLUT[s]
	return ok
}

var keywordLUT = map[string]struct{}{
	"auto":       {},
	"break":      {},
	"case":       {},
	"char":       {},
	"const":      {},
	"continue":   {},
	"default":    {},
	"do":         {},
	"double":     {},
	"else":       {},
	"enum":       {},
	"extern":     {},
	"float":      {},
	"for":        {},
	"goto":       {},
	"if":         {},
	"inline":     {},
	"int":        {},
	"long":       {},
	"register":   {},
	"restrict":   {},
	"return":     {},
	"short":      {},
	"signed":     {},
	"sizeof":     {},
	"static":     {},
	"struct":     {},
	"switch":     {},
	"typedef":    {},
	"union":      {},
	"unsigned":   {},
	"void":       {},
	"volatile":   {},
	"while":      {},
	"_Bool":      {},
	"_Complex":   {},
	"_Imaginary": {},
}

func IsKeyword(s string) bool {
	_, ok := keywordLUT[s]
	return ok
}

type FilePos struct {
	File string
	Line int
	Col  int
}

func (pos FilePos) String() string {
	return fmt.Sprintf("%s:%d:%d", pos.File, pos.Line, pos.Col)
}

//Token represents a grouping of characters
//that provide semantic meaning in a C program.
type Token struct {
	Kind TokenKind
	// For STRING tokens this is the text between the quotes, not escape decoded.
	Val string
	Pos FilePos
	// Set on STRING tokens.
	Wide   bool
	Char   bool
	Header bool
	// Produced by a macro expansion rather than read from the source.
	WasMacroExpanded bool
	// Where the spelling was lexed. Never remapped, used to space stringized text.
	src FilePos
	// An identifier that met its own macro name during rescanning.
	// It is never expanded again.
	painted bool
	// The '#' of a directive line kept in the output, such as #pragma.
	directive bool
}

func (t *Token) copy() *Token {
	ret := *t
	return &ret
}

// Is reports whether t is the punctuator s. Digraphs match their canonical spelling.
func (t *Token) Is(s string) bool {
	if t == nil || t.Kind != PUNCT {
		return false
	}
	if t.Val == s {
		return true
	}
	canon, ok := digraphs[t.Val]
	return ok && canon == s
}

// IsKeyword reports whether t is the keyword s.
func (t *Token) IsKeyword(s string) bool {
	return t != nil && t.Kind == KEYWORD && t.Val == s
}

// Spelling returns the token as it would appear in source.
func (t *Token) Spelling() string {
	if t.Kind != STRING {
		return t.Val
	}
	var sb strings.Builder
	if t.Wide {
		sb.WriteByte('L')
	}
	switch {
	case t.Header:
		sb.WriteByte('<')
		sb.WriteString(t.Val)
		sb.WriteByte('>')
	case t.Char:
		sb.WriteByte('\'')
		sb.WriteString(t.Val)
		sb.WriteByte('\'')
	default:
		sb.WriteByte('"')
		sb.WriteString(t.Val)
		sb.WriteByte('"')
	}
	return sb.String()
}

func (t Token) String() string {
	if t.WasMacroExpanded {
		return fmt.Sprintf("%s expanded from macro at %s", t.Spelling(), t.Pos)
	}
	return fmt.Sprintf("%s at %s", t.Spelling(), t.Pos)
}
