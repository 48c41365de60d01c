package parse

import "github.com/andrewchambers/cfront/cpp"

// parseBlock parses a brace enclosed block. Function bodies share the
// scope of their parameters and pass false.
func (p *parser) parseBlock(pushScope bool) *Block {
	b := &Block{Pos: p.cur.pos}
	if !p.accept("{") {
		p.errorf(errBrace, "expected '{', got %s", p.describe())
		return b
	}
	if pushScope {
		p.scopes.push()
		defer p.scopes.pop()
	}
	for !p.is("}") {
		if p.atEnd() {
			p.errorf(errUnexpectedEOF, "expected '}' at end of input")
			return b
		}
		if dl := p.parseDeclaration(); dl != nil {
			b.Items = append(b.Items, dl)
			continue
		}
		if s := p.parseStatement(); s != nil {
			b.Items = append(b.Items, s)
			continue
		}
		p.errorf(errUnexpectedToken, "unexpected token %s", p.describe())
		p.next()
	}
	p.next()
	return b
}

// parseStatementRequired parses the body of a control statement.
func (p *parser) parseStatementRequired(after string) Stmt {
	s := p.parseStatement()
	if s == nil {
		p.errorf(errStatement, "expected statement after %s, got %s", after, p.describe())
	}
	return s
}

// parseStatement returns nil without consuming anything when the cursor is
// not at a statement.
func (p *parser) parseStatement() Stmt {
	t := p.tok()
	if t == nil {
		return nil
	}
	if t.Kind == cpp.KEYWORD {
		switch t.Val {
		case "case", "default":
			return p.parseCaseLabel()
		case "if":
			return p.parseIf()
		case "switch":
			p.next()
			cond := p.parseCondition("switch")
			return &Switch{Pos: t.Pos, Cond: cond, Body: p.parseStatementRequired("'switch'")}
		case "while":
			p.next()
			cond := p.parseCondition("while")
			return &While{Pos: t.Pos, Cond: cond, Body: p.parseStatementRequired("'while'")}
		case "do":
			return p.parseDoWhile()
		case "for":
			return p.parseFor()
		case "goto":
			p.next()
			g := &Goto{Pos: t.Pos}
			if !p.isIdent() {
				p.errorf(errGoto, "expected label name after 'goto', got %s", p.describe())
			} else {
				g.Label = p.next().Val
			}
			p.expectSemicolon("goto")
			return g
		case "return":
			p.next()
			r := &Return{Pos: t.Pos, Ret: p.parseExpression()}
			p.expectSemicolon("return")
			return r
		case "break":
			p.next()
			p.expectSemicolon("break")
			return &Break{Pos: t.Pos}
		case "continue":
			p.next()
			p.expectSemicolon("continue")
			return &Continue{Pos: t.Pos}
		}
	}
	if t.Kind == cpp.IDENT && p.peek(1).Is(":") && !p.scopes.isTypedef(t.Val) {
		p.next()
		p.next()
		return &Labeled{Pos: t.Pos, Label: &NamedLabel{Name: t.Val}, Stmt: p.parseStatementRequired("label")}
	}
	if t.Is("{") {
		return p.parseBlock(true)
	}
	if p.accept(";") {
		return &ExprStmt{Pos: t.Pos}
	}
	e := p.parseExpression()
	if e == nil {
		return nil
	}
	if !p.accept(";") {
		p.errorf(errStmtSemicolon, "expected ';' after expression, got %s", p.describe())
	}
	return &ExprStmt{Pos: t.Pos, Expr: e}
}

func (p *parser) expectSemicolon(after string) {
	if !p.accept(";") {
		p.errorf(errStmtSemicolon, "expected ';' after '%s', got %s", after, p.describe())
	}
}

// parseCondition reads the parenthesized expression of if, switch and
// while.
func (p *parser) parseCondition(kw string) Expr {
	if !p.accept("(") {
		p.errorf(errParen, "expected '(' after '%s', got %s", kw, p.describe())
		return nil
	}
	cond := p.parseExpression()
	if cond == nil {
		p.errorf(errCondition, "expected condition after '%s (', got %s", kw, p.describe())
	}
	if !p.accept(")") {
		p.errorf(errParen, "expected ')' after condition, got %s", p.describe())
	}
	return cond
}

func (p *parser) parseCaseLabel() Stmt {
	t := p.next()
	var l Label = &DefaultLabel{}
	if t.Val == "case" {
		v := p.parseTernary()
		if v == nil {
			p.errorf(errCaseValue, "expected expression after 'case', got %s", p.describe())
		}
		l = &CaseLabel{Expr: v}
	}
	if !p.accept(":") {
		p.errorf(errLabelColon, "expected ':' after '%s' label, got %s", t.Val, p.describe())
	}
	return &Labeled{Pos: t.Pos, Label: l, Stmt: p.parseStatementRequired("'" + t.Val + "' label")}
}

func (p *parser) parseIf() Stmt {
	t := p.next()
	s := &If{Pos: t.Pos}
	s.Cond = p.parseCondition("if")
	s.Then = p.parseStatementRequired("'if'")
	if p.acceptKeyword("else") {
		s.Else = p.parseStatementRequired("'else'")
	}
	return s
}

func (p *parser) parseDoWhile() Stmt {
	t := p.next()
	s := &DoWhile{Pos: t.Pos}
	s.Body = p.parseStatementRequired("'do'")
	if !p.acceptKeyword("while") {
		p.errorf(errWhile, "expected 'while' after do body, got %s", p.describe())
		return s
	}
	s.Cond = p.parseCondition("while")
	p.expectSemicolon("do-while")
	return s
}

// parseFor opens a scope for declarations in the loop header.
func (p *parser) parseFor() Stmt {
	t := p.next()
	s := &For{Pos: t.Pos}
	if !p.accept("(") {
		p.errorf(errParen, "expected '(' after 'for', got %s", p.describe())
		return s
	}
	p.scopes.push()
	defer p.scopes.pop()
	if s.Init = p.parseDeclaration(); s.Init == nil {
		s.InitExpr = p.parseExpression()
		if !p.accept(";") {
			p.errorf(errStmtSemicolon, "expected ';' after for initializer, got %s", p.describe())
		}
	}
	s.Cond = p.parseExpression()
	if !p.accept(";") {
		p.errorf(errStmtSemicolon, "expected ';' after for condition, got %s", p.describe())
	}
	s.Step = p.parseExpression()
	if !p.accept(")") {
		p.errorf(errParen, "expected ')' after for clauses, got %s", p.describe())
	}
	s.Body = p.parseStatementRequired("'for'")
	return s
}
