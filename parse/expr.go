package parse

import "github.com/andrewchambers/cfront/cpp"

// Binary operators from lowest to highest precedence, all left
// associative.
var binopLevels = [][]string{
	{"||"},
	{"&&"},
	{"|"},
	{"^"},
	{"&"},
	{"==", "!="},
	{"<=", ">=", "<", ">"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

var assignOps = []string{"=", "+=", "-=", "*=", "/=", "%=", "<<=", ">>=", "&=", "^=", "|="}

var unaryOps = []string{"++", "--", "&", "*", "+", "-", "~", "!"}

// isAssignable reports whether e has a shape that may appear left of an
// assignment operator.
func isAssignable(e Expr) bool {
	switch e.(type) {
	case *Ident, *Constant, *String, *Group, *Unop, *Call, *SizeofExpr, *SizeofType,
		*PostIncDec, *Cast, *CompoundLiteral, *Selector, *Index:
		return true
	}
	return false
}

func (p *parser) parseExpression() Expr {
	pos := p.cur.pos
	l := p.parseAssignment()
	if l == nil {
		return nil
	}
	for p.accept(",") {
		r := p.parseAssignment()
		if r == nil {
			p.errorf(errOperand, "expected expression after ',', got %s", p.describe())
			break
		}
		l = &Binop{Op: ",", Pos: pos, L: l, R: r}
	}
	return l
}

func (p *parser) parseAssignment() Expr {
	pos := p.cur.pos
	l := p.parseTernary()
	if l == nil || !isAssignable(l) {
		return l
	}
	op := p.acceptOneOf(assignOps)
	if op == "" {
		return l
	}
	r := p.parseAssignment()
	if r == nil {
		p.errorf(errOperand, "expected expression after '%s', got %s", op, p.describe())
		return l
	}
	return &Assign{Op: op, Pos: pos, L: l, R: r}
}

func (p *parser) parseTernary() Expr {
	pos := p.cur.pos
	cond := p.parseBinop(0)
	if !p.is("?") {
		return cond
	}
	if cond == nil {
		p.errorf(errUnexpectedToken, "unexpected '?'")
		p.next()
		return nil
	}
	p.next()
	t := &Ternary{Pos: pos, Cond: cond}
	t.Then = p.parseExpression()
	if t.Then == nil {
		p.errorf(errTernary, "expected expression after '?', got %s", p.describe())
	}
	if !p.accept(":") {
		p.errorf(errTernary, "expected ':' in conditional expression, got %s", p.describe())
		return t
	}
	t.Else = p.parseTernary()
	if t.Else == nil {
		p.errorf(errTernary, "expected expression after ':', got %s", p.describe())
	}
	return t
}

func (p *parser) parseBinop(level int) Expr {
	if level == len(binopLevels) {
		return p.parseCast()
	}
	pos := p.cur.pos
	l := p.parseBinop(level + 1)
	for {
		optok := p.tok()
		op := p.acceptOneOf(binopLevels[level])
		if op == "" {
			return l
		}
		if l == nil {
			p.errorAt(errUnexpectedToken, optok.Pos, "unexpected '%s'", op)
			return nil
		}
		r := p.parseBinop(level + 1)
		if r == nil {
			p.errorf(errOperand, "expected right operand of '%s', got %s", op, p.describe())
			return l
		}
		l = &Binop{Op: op, Pos: pos, L: l, R: r}
	}
}

// parseCast reads a cast or a compound literal when a parenthesized type
// name follows, and a unary expression otherwise.
func (p *parser) parseCast() Expr {
	pos := p.cur.pos
	if p.is("(") {
		start := p.save()
		p.next()
		if ty := p.parseTypeName(); ty != nil {
			if !p.accept(")") {
				p.errorf(errParen, "expected ')' after type name, got %s", p.describe())
			}
			if p.is("{") {
				return p.parsePostfixTail(&CompoundLiteral{Pos: pos, Type: ty, Init: p.parseInitializerList()})
			}
			operand := p.parseCast()
			if operand == nil {
				p.errorf(errCastOperand, "expected expression after cast to %s", ty)
				return nil
			}
			return &Cast{Pos: pos, Type: ty, Operand: operand}
		}
		p.restore(start)
	}
	return p.parseUnary()
}

func (p *parser) parseUnary() Expr {
	pos := p.cur.pos
	if p.acceptKeyword("sizeof") {
		return p.parseSizeof(pos)
	}
	op := p.acceptOneOf(unaryOps)
	if op == "" {
		return p.parsePostfix()
	}
	var operand Expr
	if op == "++" || op == "--" {
		operand = p.parseUnary()
	} else {
		operand = p.parseCast()
	}
	if operand == nil {
		p.errorf(errOperand, "expected expression after unary '%s', got %s", op, p.describe())
		return nil
	}
	return &Unop{Op: op, Pos: pos, Operand: operand}
}

// parseSizeof tries "sizeof (type-name)" first and falls back to a unary
// expression operand.
func (p *parser) parseSizeof(pos cpp.FilePos) Expr {
	if p.is("(") {
		start := p.save()
		p.next()
		if ty := p.parseTypeName(); ty != nil {
			if !p.accept(")") {
				p.errorf(errParen, "expected ')' after type name, got %s", p.describe())
			}
			if !p.is("{") {
				return &SizeofType{Pos: pos, Type: ty}
			}
			lit := &CompoundLiteral{Pos: start.pos, Type: ty, Init: p.parseInitializerList()}
			return &SizeofExpr{Pos: pos, Operand: p.parsePostfixTail(lit)}
		}
		p.restore(start)
	}
	operand := p.parseUnary()
	if operand == nil {
		p.errorf(errSizeofOperand, "expected expression after 'sizeof', got %s", p.describe())
		return nil
	}
	return &SizeofExpr{Pos: pos, Operand: operand}
}

func (p *parser) parsePostfix() Expr {
	e := p.parsePrimary()
	if e == nil {
		return nil
	}
	return p.parsePostfixTail(e)
}

func (p *parser) parsePostfixTail(e Expr) Expr {
	pos := e.GetPos()
	for {
		switch {
		case p.accept("["):
			idx := p.parseExpression()
			if idx == nil {
				p.errorf(errIndex, "expected expression after '[', got %s", p.describe())
				continue
			}
			if !p.accept("]") {
				p.errorf(errIndex, "expected ']' after index, got %s", p.describe())
			}
			e = &Index{Pos: pos, Arr: e, Idx: idx}
		case p.accept("("):
			var args []Expr
			for !p.is(")") && !p.atEnd() {
				arg := p.parseAssignment()
				if arg == nil {
					p.errorf(errCallArg, "expected argument, got %s", p.describe())
					break
				}
				args = append(args, arg)
				if !p.accept(",") {
					break
				}
			}
			if !p.accept(")") {
				p.errorf(errParen, "expected ')' after arguments, got %s", p.describe())
			}
			e = &Call{Pos: pos, Func: e, Args: args}
		case p.is(".") || p.is("->"):
			op := p.next().Val
			if !p.isIdent() {
				p.errorf(errMemberName, "expected member name after '%s', got %s", op, p.describe())
				continue
			}
			e = &Selector{Op: op, Pos: pos, Operand: e, Sel: p.next().Val}
		case p.is("++") || p.is("--"):
			e = &PostIncDec{Op: p.next().Val, Pos: pos, Operand: e}
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() Expr {
	t := p.tok()
	if t == nil {
		return nil
	}
	switch t.Kind {
	case cpp.NUMBER:
		p.next()
		return numberConstant(t, p.diags)
	case cpp.STRING:
		if t.Char {
			p.next()
			return charConstant(t, p.diags)
		}
		return p.parseString()
	case cpp.IDENT:
		if p.scopes.isTypedef(t.Val) {
			return nil
		}
		p.next()
		return &Ident{Pos: t.Pos, Name: t.Val}
	}
	if !t.Is("(") {
		return nil
	}
	start := p.save()
	p.next()
	e := p.parseExpression()
	if e == nil {
		p.restore(start)
		return nil
	}
	if !p.accept(")") {
		p.errorf(errParen, "expected ')', got %s", p.describe())
	}
	return &Group{Pos: t.Pos, Expr: e}
}

// parseString joins adjacent string literals.
func (p *parser) parseString() Expr {
	first := p.next()
	s := &String{Pos: first.Pos, Val: first.Val, Wide: first.Wide}
	for t := p.tok(); t != nil && t.Kind == cpp.STRING; t = p.tok() {
		p.next()
		if t.Char {
			p.errorAt(errStrConcat, t.Pos, "cannot concatenate character constant with string literal")
			continue
		}
		s.Val += t.Val
		s.Wide = s.Wide || t.Wide
	}
	return s
}

func numberConstant(t *cpp.Token, diags *cpp.Diagnostics) *Constant {
	c := &Constant{Pos: t.Pos, Spelling: t.Val}
	c.Lit = cpp.ParseNumber(t, diags)
	switch lit := c.Lit.(type) {
	case cpp.IntLiteral:
		spec := INT
		if lit.Unsigned {
			spec |= UNSIGNED
		}
		if lit.Long {
			spec |= LONG
		}
		if lit.LongLong {
			spec |= LONGLONG
		}
		c.Type = &Primitive{Spec: spec}
	case cpp.FloatLiteral:
		spec := DOUBLE
		switch {
		case lit.Float:
			spec = FLOAT
		case lit.LongDouble:
			spec |= LONG
		}
		c.Type = &Primitive{Spec: spec}
	}
	return c
}

// Character constants have type int.
func charConstant(t *cpp.Token, diags *cpp.Diagnostics) *Constant {
	return &Constant{
		Pos:      t.Pos,
		Spelling: t.Spelling(),
		Lit:      cpp.CharToInt(t, 4, diags),
		Type:     &Primitive{Spec: INT},
	}
}
