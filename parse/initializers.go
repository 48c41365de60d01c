package parse

// parseInitializer reads the right side of '=' in a declaration: a brace
// list or an assignment expression.
func (p *parser) parseInitializer() Expr {
	if p.is("{") {
		return p.parseInitializerList()
	}
	return p.parseAssignment()
}

// parseInitializerList reads "{ [designators =] initializer, ... }". The
// cursor must be at the '{'.
func (p *parser) parseInitializerList() *InitializerList {
	il := &InitializerList{Pos: p.cur.pos}
	p.next()
	for !p.is("}") && !p.atEnd() {
		init := &Initializer{Pos: p.cur.pos}
		init.Designators = p.parseDesignators()
		if len(init.Designators) != 0 && !p.accept("=") {
			p.errorf(errDesignator, "expected '=' after designator, got %s", p.describe())
		}
		init.Val = p.parseInitializer()
		if init.Val == nil {
			p.errorf(errInitializer, "expected initializer, got %s", p.describe())
			break
		}
		il.Inits = append(il.Inits, init)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept("}") {
		p.errorf(errBrace, "expected '}' after initializer list, got %s", p.describe())
	}
	return il
}

func (p *parser) parseDesignators() []*Designator {
	var ds []*Designator
	for {
		pos := p.cur.pos
		switch {
		case p.accept("["):
			idx := p.parseTernary()
			if idx == nil {
				p.errorf(errDesignator, "expected index in designator, got %s", p.describe())
			}
			if !p.accept("]") {
				p.errorf(errDesignator, "expected ']' after designator index, got %s", p.describe())
			}
			ds = append(ds, &Designator{Pos: pos, Index: idx})
		case p.accept("."):
			if !p.isIdent() {
				p.errorf(errDesignator, "expected field name after '.', got %s", p.describe())
				return ds
			}
			ds = append(ds, &Designator{Pos: pos, Field: p.next().Val})
		default:
			return ds
		}
	}
}
