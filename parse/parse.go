package parse

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/andrewchambers/cfront/cpp"
)

// Diagnostic categories. A diagnostic is dropped when one of the same
// category was reported within the last two consumed tokens.
type errCategory int

const (
	errNone errCategory = iota
	errUnexpectedToken
	errDeclSemicolon
	errDeclarator
	errInitializer
	errBitWidth
	errLabelColon
	errCaseValue
	errStatement
	errParen
	errCondition
	errWhile
	errStmtSemicolon
	errStorageClass
	errTypeSpecifier
	errTag
	errEnumConst
	errBrace
	errVarArg
	errParam
	errArrayBracket
	errDesignator
	errTernary
	errCastOperand
	errSizeofOperand
	errMemberName
	errCallArg
	errIndex
	errUnexpectedEOF
	errKRDecl
	errOperand
	errStrConcat
	errGoto
)

// cursor is the parser state saved and restored around speculative parses.
type cursor struct {
	idx int
	// Position of the current token, or the last one at the end.
	pos      cpp.FilePos
	sinceErr int
	lastErr  errCategory
	nerrs    int
	nwarns   int
}

type parser struct {
	toks   []*cpp.Token
	cur    cursor
	diags  *cpp.Diagnostics
	scopes *scopeStack
	log    *slog.Logger
}

// Parse parses preprocessed tokens as prepared by cpp.ForParser. The
// translation unit is always returned, holding whatever could be parsed.
func Parse(toks []*cpp.Token) (*TranslationUnit, *cpp.Diagnostics) {
	return parseTokens(toks, nil)
}

func parseTokens(toks []*cpp.Token, logger *slog.Logger) (*TranslationUnit, *cpp.Diagnostics) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &parser{
		toks:   toks,
		diags:  &cpp.Diagnostics{},
		scopes: newScopeStack(),
		log:    logger.With(slog.String("component", "parse")),
	}
	if len(toks) != 0 {
		p.cur.pos = toks[0].Pos
	}
	return p.parseTranslationUnit(), p.diags
}

func (p *parser) save() cursor {
	c := p.cur
	c.nerrs = len(p.diags.Errors)
	c.nwarns = len(p.diags.Warnings)
	return c
}

// restore rewinds to a saved cursor, dropping diagnostics reported since.
func (p *parser) restore(c cursor) {
	p.cur = c
	p.diags.Truncate(c.nerrs, c.nwarns)
}

func (p *parser) errorf(cat errCategory, m string, vals ...interface{}) {
	p.errorAt(cat, p.cur.pos, m, vals...)
}

func (p *parser) errorAt(cat errCategory, pos cpp.FilePos, m string, vals ...interface{}) {
	if cat == p.cur.lastErr && p.cur.sinceErr <= 2 {
		p.cur.sinceErr = 0
		return
	}
	msg := fmt.Sprintf(m, vals...)
	if os.Getenv("CCDEBUG") == "true" {
		msg = fmt.Sprintf("%s\n%s", msg, debug.Stack())
	}
	p.diags.Errorf(pos, "%s", msg)
	p.cur.lastErr = cat
	p.cur.sinceErr = 0
}

func (p *parser) warnf(pos cpp.FilePos, m string, vals ...interface{}) {
	p.diags.Warnf(pos, m, vals...)
}

func (p *parser) atEnd() bool {
	return p.cur.idx >= len(p.toks)
}

// tok returns the current token, nil at the end of input.
func (p *parser) tok() *cpp.Token {
	return p.peek(0)
}

func (p *parser) peek(n int) *cpp.Token {
	if p.cur.idx+n >= len(p.toks) {
		return nil
	}
	return p.toks[p.cur.idx+n]
}

func (p *parser) next() *cpp.Token {
	t := p.tok()
	if t == nil {
		return nil
	}
	p.cur.idx++
	p.cur.sinceErr++
	if nt := p.tok(); nt != nil {
		p.cur.pos = nt.Pos
	}
	return t
}

func (p *parser) is(punct string) bool {
	return p.tok().Is(punct)
}

func (p *parser) accept(punct string) bool {
	if p.is(punct) {
		p.next()
		return true
	}
	return false
}

// acceptOneOf consumes the current token if it is one of ops and returns
// its canonical spelling.
func (p *parser) acceptOneOf(ops []string) string {
	for _, op := range ops {
		if p.accept(op) {
			return op
		}
	}
	return ""
}

func (p *parser) isKeyword(kw string) bool {
	return p.tok().IsKeyword(kw)
}

func (p *parser) acceptKeyword(kw string) bool {
	if p.isKeyword(kw) {
		p.next()
		return true
	}
	return false
}

func (p *parser) isIdent() bool {
	t := p.tok()
	return t != nil && t.Kind == cpp.IDENT
}

// describe names the current token in diagnostics.
func (p *parser) describe() string {
	t := p.tok()
	if t == nil {
		return "end of input"
	}
	return fmt.Sprintf("'%s'", t.Spelling())
}

func (p *parser) parseTranslationUnit() *TranslationUnit {
	tu := &TranslationUnit{}
	for !p.atEnd() {
		if f := p.parseFunction(); f != nil {
			tu.TopLevels = append(tu.TopLevels, f)
			continue
		}
		if d := p.parseDeclaration(); d != nil {
			tu.TopLevels = append(tu.TopLevels, d)
			continue
		}
		p.errorf(errUnexpectedToken, "unexpected token %s", p.describe())
		p.next()
	}
	return tu
}

// parseFunction speculatively parses a function definition. When the text
// turns out not to be one, everything it did is undone and nil returned.
func (p *parser) parseFunction() *Function {
	start := p.save()
	depth := p.scopes.depth()
	pos := p.cur.pos
	rollback := func(why string) *Function {
		p.log.Debug("not a function definition", slog.String("pos", pos.String()), slog.String("reason", why))
		p.restore(start)
		p.scopes.truncate(depth)
		return nil
	}

	specs := p.parseTypeBaseSpecifiers(true)
	if !specs.consumed {
		p.restore(start)
		return nil
	}
	d := p.parseDeclarator(false)
	if d == nil {
		p.restore(start)
		return nil
	}
	ft, ok := toType(d, specs.baseType()).(*FunctionType)
	if !ok || p.atEnd() || p.is(",") || p.is(";") || p.is("=") {
		p.restore(start)
		return nil
	}

	p.scopes.push()
	var krDecls []*DeclList
	for !p.is("{") {
		if p.atEnd() {
			return rollback("end of input before body")
		}
		dl := p.parseDeclaration()
		if dl == nil {
			return rollback("not a parameter declaration")
		}
		krDecls = append(krDecls, dl)
	}
	for _, name := range ft.ArgNames {
		if name != "" {
			p.scopes.defineOrdinary(name)
		}
	}
	body := p.parseBlock(false)
	p.scopes.pop()

	name := declaratorName(d)
	p.fillKRParams(ft, krDecls)
	p.scopes.defineOrdinary(name)
	return &Function{
		Pos:     pos,
		Name:    name,
		Type:    ft,
		Storage: specs.storage,
		Inline:  specs.inline,
		KRDecls: krDecls,
		Body:    body,
	}
}

// fillKRParams gives the parameters of an identifier list the types of
// their declarations. Undeclared parameters are int.
func (p *parser) fillKRParams(ft *FunctionType, krDecls []*DeclList) {
	if len(krDecls) != 0 && !ft.KR && len(ft.ArgTypes) != 0 {
		p.errorAt(errKRDecl, krDecls[0].Pos, "old-style parameter declarations in prototyped function definition")
		return
	}
	declared := make(map[string]CType)
	for _, dl := range krDecls {
		for _, d := range dl.Decls {
			if d.Name == "" {
				continue
			}
			found := false
			for _, an := range ft.ArgNames {
				if an == d.Name {
					found = true
				}
			}
			if !found {
				p.errorAt(errKRDecl, d.Pos, "declaration for parameter '%s' but no such parameter", d.Name)
				continue
			}
			declared[d.Name] = d.Type
		}
	}
	for i, at := range ft.ArgTypes {
		if at != nil {
			continue
		}
		if t, ok := declared[ft.ArgNames[i]]; ok {
			ft.ArgTypes[i] = t
		} else {
			ft.ArgTypes[i] = CInt
		}
	}
}
