package parse

import "github.com/andrewchambers/cfront/cpp"

type declSpecs struct {
	storage SClass
	inline  bool
	qual    Qualifiers
	// nil when no type specifier was given.
	ty       CType
	consumed bool
}

// baseType is the specified type with its qualifiers, int when only
// qualifiers or a storage class were given.
func (s *declSpecs) baseType() CType {
	ty := s.ty
	if ty == nil {
		ty = CInt
	}
	return qualify(ty, s.qual)
}

// parseTypeBaseSpecifiers consumes qualifiers, storage classes, inline and
// type specifiers in any order until none of them applies.
func (p *parser) parseTypeBaseSpecifiers(allowStorage bool) declSpecs {
	var specs declSpecs
	for {
		progress := false
		if q := p.parseTypeQualifiers(); q != 0 {
			specs.qual |= q
			progress = true
		}
		if t := p.tok(); t != nil && t.Kind == cpp.KEYWORD {
			if sc, ok := storageClassKeywords[t.Val]; ok {
				p.next()
				progress = true
				switch {
				case !allowStorage:
					p.errorAt(errStorageClass, t.Pos, "storage class '%s' not allowed here", t.Val)
				case specs.storage != SC_NONE:
					p.errorAt(errStorageClass, t.Pos, "multiple storage classes in declaration specifiers")
				default:
					specs.storage = sc
				}
			}
		}
		if p.acceptKeyword("inline") {
			specs.inline = true
			progress = true
		}
		if p.parseTypeSpecifierInto(&specs) {
			progress = true
		}
		if !progress {
			break
		}
		specs.consumed = true
	}
	return specs
}

// parseTypeSpecifierInto adds one type specifier to specs. Primitive
// specifiers combine. Any other second specifier is left unconsumed for
// the caller to read as a declarator.
func (p *parser) parseTypeSpecifierInto(specs *declSpecs) bool {
	prev, prevIsPrim := specs.ty.(*Primitive)
	if specs.ty != nil && !prevIsPrim {
		return false
	}
	start := p.save()
	t := p.tok()
	spec := p.parseTypeSpecifier()
	if spec == nil {
		return false
	}
	if specs.ty == nil {
		specs.ty = spec
		return true
	}
	prim, ok := spec.(*Primitive)
	if !ok {
		p.restore(start)
		return false
	}
	switch {
	case prim.Spec == LONG && prev.Spec&LONGLONG != 0:
		p.errorAt(errTypeSpecifier, t.Pos, "'long long long' is too long")
	case prim.Spec == LONG && prev.Spec&LONG != 0:
		prev.Spec = prev.Spec&^LONG | LONGLONG
	default:
		prev.Spec |= prim.Spec
	}
	return true
}

func (p *parser) parseTypeSpecifier() CType {
	t := p.tok()
	if t == nil {
		return nil
	}
	switch t.Kind {
	case cpp.IDENT:
		if !p.scopes.isTypedef(t.Val) {
			return nil
		}
		p.next()
		return &Named{Name: t.Val}
	case cpp.KEYWORD:
		switch t.Val {
		case "struct", "union":
			p.next()
			return p.parseStructOrUnion(t)
		case "enum":
			p.next()
			return p.parseEnum(t)
		}
		if spec, ok := primitiveKeywords[t.Val]; ok {
			p.next()
			return &Primitive{Spec: spec}
		}
	}
	return nil
}

func (p *parser) parseTypeQualifiers() Qualifiers {
	var q Qualifiers
	for {
		switch {
		case p.acceptKeyword("const"):
			q |= CONST
		case p.acceptKeyword("volatile"):
			q |= VOLATILE
		case p.acceptKeyword("restrict"):
			q |= RESTRICT
		default:
			return q
		}
	}
}

// parseTag reads the optional tag after struct, union or enum.
func (p *parser) parseTag(kw *cpp.Token) (string, bool) {
	name := ""
	if p.isIdent() {
		name = p.next().Val
	}
	if !p.is("{") && name == "" {
		p.errorAt(errTag, kw.Pos, "expected tag name or '{' after '%s'", kw.Val)
	}
	return name, p.accept("{")
}

func (p *parser) parseStructOrUnion(kw *cpp.Token) CType {
	isUnion := kw.Val == "union"
	name, hasBody := p.parseTag(kw)
	if !hasBody {
		if t, ok := p.scopes.lookupTag(name); ok && name != "" {
			if st, ok := t.(*Struct); ok && st.IsUnion == isUnion {
				cp := *st
				return &cp
			}
		}
		return &Struct{IsUnion: isUnion, Name: name, Incomplete: true}
	}
	st := &Struct{IsUnion: isUnion, Name: name}
	for !p.is("}") && !p.atEnd() {
		if !p.parseStructDeclaration(st) {
			p.errorf(errUnexpectedToken, "unexpected token %s in %s", p.describe(), kw.Val)
			p.next()
		}
	}
	if !p.accept("}") {
		p.errorf(errBrace, "expected '}' after %s members", kw.Val)
	}
	if name != "" {
		p.scopes.defineTag(name, st)
	}
	return st
}

// parseStructDeclaration reads one member declaration into st.
func (p *parser) parseStructDeclaration(st *Struct) bool {
	specs := p.parseTypeBaseSpecifiers(false)
	if !specs.consumed {
		return false
	}
	base := specs.baseType()
	for {
		d := p.parseDeclarator(false)
		m := &Member{Type: toType(d, base), Name: declaratorName(d)}
		if p.accept(":") {
			m.BitWidth = p.parseTernary()
			if m.BitWidth == nil {
				p.errorf(errBitWidth, "expected bit-field width after ':'")
			}
		}
		st.Fields = append(st.Fields, m)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(";") {
		p.errorf(errDeclSemicolon, "expected ';' after member declaration")
	}
	return true
}

func (p *parser) parseEnum(kw *cpp.Token) CType {
	name, hasBody := p.parseTag(kw)
	if !hasBody {
		if t, ok := p.scopes.lookupTag(name); ok && name != "" {
			if et, ok := t.(*Enum); ok {
				cp := *et
				return &cp
			}
		}
		return &Enum{Name: name, Incomplete: true}
	}
	et := &Enum{Name: name}
	for {
		if !p.isIdent() {
			if !p.is("}") {
				p.errorf(errEnumConst, "expected enumeration constant name, got %s", p.describe())
			}
			break
		}
		c := &EnumConst{Name: p.next().Val}
		if p.accept("=") {
			c.Val = p.parseTernary()
			if c.Val == nil {
				p.errorf(errEnumConst, "expected value of enumeration constant '%s'", c.Name)
			}
		}
		p.scopes.defineOrdinary(c.Name)
		et.Consts = append(et.Consts, c)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept("}") {
		p.errorf(errBrace, "expected '}' after enumeration constants")
	}
	if name != "" {
		p.scopes.defineTag(name, et)
	}
	return et
}

// parseDeclarator reads a declarator. An abstract declarator has no name
// and may be empty, in which case nil is returned. A named declarator
// returns nil when no name is found.
func (p *parser) parseDeclarator(abstract bool) Declarator {
	start := p.save()
	if p.accept("*") {
		q := p.parseTypeQualifiers()
		d := p.parseDeclarator(abstract)
		if d == nil && !abstract {
			p.restore(start)
			return nil
		}
		return &PtrDeclarator{Qual: q, Parent: d}
	}
	return p.parseDirectDeclarator(abstract)
}

func (p *parser) parseDirectDeclarator(abstract bool) Declarator {
	start := p.save()
	var d Declarator
	switch t := p.tok(); {
	case t != nil && t.Kind == cpp.IDENT:
		if abstract {
			return nil
		}
		p.next()
		d = &NameDeclarator{Name: t.Val, Pos: t.Pos}
	case p.is("("):
		// In an abstract declarator this may open a parameter list instead.
		if abstract && p.startsParameterList() {
			break
		}
		p.next()
		inner := p.parseDeclarator(abstract)
		if !p.accept(")") || (inner == nil && !abstract) {
			p.restore(start)
			return nil
		}
		d = &GroupDeclarator{Inner: inner}
	}
	if d == nil && !abstract {
		return nil
	}
	for {
		switch {
		case p.is("("):
			d = p.parseFuncDeclarator(d)
		case p.is("["):
			d = p.parseArrayDeclarator(d)
		default:
			return d
		}
	}
}

// startsParameterList reports whether the '(' at the cursor begins a
// parameter list, as in "int (int)", rather than a nested declarator.
func (p *parser) startsParameterList() bool {
	t := p.peek(1)
	if t == nil {
		return false
	}
	if t.Is(")") || t.Is("...") {
		return true
	}
	switch t.Kind {
	case cpp.KEYWORD:
		return t.Val != "sizeof"
	case cpp.IDENT:
		return p.scopes.isTypedef(t.Val)
	}
	return false
}

func (p *parser) parseFuncDeclarator(parent Declarator) Declarator {
	p.next()
	fd := &FuncDeclarator{Parent: parent}
	if names, ok := p.parseIdentifierList(); ok {
		fd.ArgNames = names
		fd.ArgTypes = make([]CType, len(names))
		fd.KR = true
	} else {
		p.parseParameterList(fd)
	}
	if !p.accept(")") {
		p.errorf(errParen, "expected ')' after parameter list")
	}
	return fd
}

// parseIdentifierList reads the parameter names of a K&R declarator. The
// cursor is left in place when the list is anything else.
func (p *parser) parseIdentifierList() ([]string, bool) {
	start := p.save()
	var names []string
	for {
		t := p.tok()
		if t == nil || t.Kind != cpp.IDENT || p.scopes.isTypedef(t.Val) {
			p.restore(start)
			return nil, false
		}
		names = append(names, p.next().Val)
		if !p.accept(",") {
			break
		}
	}
	if !p.is(")") {
		p.restore(start)
		return nil, false
	}
	return names, true
}

func (p *parser) parseParameterList(fd *FuncDeclarator) {
	for !p.is(")") && !p.atEnd() {
		if ellipsis := p.tok(); p.accept("...") {
			switch {
			case len(fd.ArgTypes) == 0:
				p.errorAt(errVarArg, ellipsis.Pos, "ISO C requires a named parameter before '...'")
			case p.is(","):
				p.errorAt(errVarArg, ellipsis.Pos, "'...' must be the last parameter")
			}
			fd.IsVarArg = !p.is(",")
		} else {
			pos := p.cur.pos
			specs := p.parseTypeBaseSpecifiers(true)
			if specs.storage != SC_NONE && specs.storage != SC_REGISTER {
				p.errorAt(errStorageClass, pos, "storage class '%s' not allowed for parameter", specs.storage)
			}
			start := p.save()
			d := p.parseDeclarator(false)
			if d == nil {
				p.restore(start)
				d = p.parseDeclarator(true)
			}
			if !specs.consumed && d == nil {
				p.errorf(errParam, "expected parameter declaration, got %s", p.describe())
				return
			}
			if specs.ty == nil {
				p.warnf(pos, "type of '%s' defaults to 'int'", declaratorName(d))
			}
			fd.ArgTypes = append(fd.ArgTypes, toType(d, specs.baseType()))
			fd.ArgNames = append(fd.ArgNames, declaratorName(d))
		}
		if !p.accept(",") {
			return
		}
	}
}

func (p *parser) parseArrayDeclarator(parent Declarator) Declarator {
	p.next()
	ad := &ArrayDeclarator{Parent: parent}
	ad.Static = p.acceptKeyword("static")
	ad.Qual = p.parseTypeQualifiers()
	if !ad.Static {
		ad.Static = p.acceptKeyword("static")
	}
	switch {
	case p.is("*") && p.peek(1).Is("]"):
		p.next()
		ad.VLA = true
	case !p.is("]"):
		ad.Len = p.parseAssignment()
		if ad.Len == nil {
			p.errorf(errArrayBracket, "expected array length, got %s", p.describe())
		}
	}
	if !p.accept("]") {
		p.errorf(errArrayBracket, "expected ']' after array length")
	}
	return ad
}

// parseDeclaration parses a declaration including its ';'. nil is returned
// without consuming anything when the cursor is not at declaration
// specifiers.
func (p *parser) parseDeclaration() *DeclList {
	pos := p.cur.pos
	specs := p.parseTypeBaseSpecifiers(true)
	if !specs.consumed {
		return nil
	}
	dl := &DeclList{Pos: pos, Storage: specs.storage, Inline: specs.inline}
	base := specs.baseType()
	for {
		d := p.parseDeclarator(false)
		if d == nil {
			if len(dl.Decls) == 0 {
				// Declares only a tag, or nothing.
				dl.Decls = append(dl.Decls, &Decl{Pos: pos, Type: base})
			} else {
				p.errorf(errDeclarator, "expected declarator after ',', got %s", p.describe())
			}
			break
		}
		decl := &Decl{Pos: declaratorLeaf(d).Pos, Name: declaratorName(d), Type: toType(d, base)}
		if specs.ty == nil {
			p.warnf(decl.Pos, "type defaults to 'int' in declaration of '%s'", decl.Name)
		}
		if specs.storage == SC_TYPEDEF {
			p.scopes.defineTypedef(decl.Name)
		} else {
			p.scopes.defineOrdinary(decl.Name)
		}
		if p.accept("=") {
			decl.Init = p.parseInitializer()
			if decl.Init == nil {
				p.errorf(errInitializer, "expected expression after '='")
			}
		}
		dl.Decls = append(dl.Decls, decl)
		if !p.accept(",") {
			break
		}
	}
	if !p.accept(";") {
		p.errorf(errDeclSemicolon, "expected ';' after declaration, got %s", p.describe())
	}
	return dl
}

// parseTypeName reads a type name as in casts and sizeof. It returns nil
// when the cursor is not at one.
func (p *parser) parseTypeName() CType {
	specs := p.parseTypeBaseSpecifiers(false)
	if specs.ty == nil {
		return nil
	}
	return toType(p.parseDeclarator(true), specs.baseType())
}
