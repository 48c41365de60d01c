package parse

import "github.com/andrewchambers/cfront/cpp"

// Declarator is the chain read while scanning a declaration, before it is
// turned into a type. Each node holds the node it was built around.
type Declarator interface {
	declarator()
}

type NameDeclarator struct {
	Name string
	Pos  cpp.FilePos
}

type PtrDeclarator struct {
	Qual   Qualifiers
	Parent Declarator
}

type ArrayDeclarator struct {
	Qual   Qualifiers
	Static bool
	Len    Expr
	VLA    bool
	Parent Declarator
}

type FuncDeclarator struct {
	ArgTypes []CType
	ArgNames []string
	IsVarArg bool
	KR       bool
	Parent   Declarator
}

// Explicit parentheses.
type GroupDeclarator struct {
	Inner Declarator
}

func (*NameDeclarator) declarator()  {}
func (*PtrDeclarator) declarator()   {}
func (*ArrayDeclarator) declarator() {}
func (*FuncDeclarator) declarator()  {}
func (*GroupDeclarator) declarator() {}

// toType applies a declarator to the type given by the declaration
// specifiers. Arrays and functions bind tighter than a pointer in front of
// the name, so when their parent is an array, function or group they wrap
// the type first and hand it on. Otherwise the parent is resolved first.
func toType(d Declarator, base CType) CType {
	switch d := d.(type) {
	case nil:
		return base
	case *NameDeclarator:
		return base
	case *PtrDeclarator:
		return toType(d.Parent, &Ptr{Qual: d.Qual, PointsTo: base})
	case *ArrayDeclarator:
		if bindsFirst(d.Parent) {
			return toType(d.Parent, d.wrap(base))
		}
		return d.wrap(toType(d.Parent, base))
	case *FuncDeclarator:
		if bindsFirst(d.Parent) {
			return toType(d.Parent, d.wrap(base))
		}
		return d.wrap(toType(d.Parent, base))
	case *GroupDeclarator:
		return toType(d.Inner, base)
	}
	panic("unreachable")
}

func bindsFirst(d Declarator) bool {
	switch d.(type) {
	case *ArrayDeclarator, *FuncDeclarator, *GroupDeclarator:
		return true
	}
	return false
}

func (d *ArrayDeclarator) wrap(t CType) CType {
	return &Array{
		Qual:       d.Qual,
		MemberType: t,
		Len:        d.Len,
		VLA:        d.VLA,
		Static:     d.Static,
	}
}

func (d *FuncDeclarator) wrap(t CType) CType {
	return &FunctionType{
		RetType:  t,
		ArgTypes: append([]CType(nil), d.ArgTypes...),
		ArgNames: append([]string(nil), d.ArgNames...),
		IsVarArg: d.IsVarArg,
		KR:       d.KR,
	}
}

// declaratorName returns the declared name, "" for abstract declarators.
func declaratorName(d Declarator) string {
	if n := declaratorLeaf(d); n != nil {
		return n.Name
	}
	return ""
}

func declaratorLeaf(d Declarator) *NameDeclarator {
	for {
		switch dd := d.(type) {
		case *NameDeclarator:
			return dd
		case *PtrDeclarator:
			d = dd.Parent
		case *ArrayDeclarator:
			d = dd.Parent
		case *FuncDeclarator:
			d = dd.Parent
		case *GroupDeclarator:
			d = dd.Inner
		default:
			return nil
		}
	}
}
