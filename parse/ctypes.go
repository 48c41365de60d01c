package parse

import (
	"fmt"
	"strings"
)

// Type qualifiers, a bit set.
type Qualifiers uint8

const (
	CONST Qualifiers = 1 << iota
	VOLATILE
	RESTRICT
)

func (q Qualifiers) String() string {
	var parts []string
	if q&CONST != 0 {
		parts = append(parts, "const")
	}
	if q&VOLATILE != 0 {
		parts = append(parts, "volatile")
	}
	if q&RESTRICT != 0 {
		parts = append(parts, "restrict")
	}
	return strings.Join(parts, " ")
}

func (q Qualifiers) prefix() string {
	if q == 0 {
		return ""
	}
	return q.String() + " "
}

// Primitive type specifiers, a bit set. Two longs collapse to LONGLONG.
type PrimitiveSpec uint16

const (
	VOID PrimitiveSpec = 1 << iota
	CHAR
	SHORT
	INT
	LONG
	LONGLONG
	FLOAT
	DOUBLE
	SIGNED
	UNSIGNED
	BOOL
	COMPLEX
	IMAGINARY
)

// In the order they are printed.
var primitiveNames = []struct {
	spec PrimitiveSpec
	name string
}{
	{SIGNED, "signed"},
	{UNSIGNED, "unsigned"},
	{COMPLEX, "_Complex"},
	{IMAGINARY, "_Imaginary"},
	{VOID, "void"},
	{BOOL, "_Bool"},
	{CHAR, "char"},
	{SHORT, "short"},
	{LONG, "long"},
	{LONGLONG, "long long"},
	{INT, "int"},
	{FLOAT, "float"},
	{DOUBLE, "double"},
}

var primitiveKeywords = map[string]PrimitiveSpec{
	"void":       VOID,
	"char":       CHAR,
	"short":      SHORT,
	"int":        INT,
	"long":       LONG,
	"float":      FLOAT,
	"double":     DOUBLE,
	"signed":     SIGNED,
	"unsigned":   UNSIGNED,
	"_Bool":      BOOL,
	"_Complex":   COMPLEX,
	"_Imaginary": IMAGINARY,
}

func (s PrimitiveSpec) String() string {
	var parts []string
	for _, pn := range primitiveNames {
		if s&pn.spec != 0 {
			parts = append(parts, pn.name)
		}
	}
	return strings.Join(parts, " ")
}

// CType is the type of a declared name. Types are not checked or
// completed, they record what the declaration says.
type CType interface {
	GetQualifiers() Qualifiers
	String() string
	withQualifiers(q Qualifiers) CType
}

// A typedef name.
type Named struct {
	Qual Qualifiers
	Name string
}

type Primitive struct {
	Qual Qualifiers
	Spec PrimitiveSpec
}

type Ptr struct {
	Qual     Qualifiers
	PointsTo CType
}

type Array struct {
	Qual       Qualifiers
	MemberType CType
	// nil when the length is not given.
	Len Expr
	// Declared with [*].
	VLA    bool
	Static bool
}

type Member struct {
	Type CType
	// Empty for unnamed bitfields and anonymous members.
	Name string
	// nil unless the member is a bitfield.
	BitWidth Expr
}

type Struct struct {
	Qual    Qualifiers
	IsUnion bool
	Name    string
	Fields  []*Member
	// A reference by tag to a struct with no visible definition.
	Incomplete bool
}

type EnumConst struct {
	Name string
	// nil when no value is given.
	Val Expr
}

type Enum struct {
	Qual       Qualifiers
	Name       string
	Consts     []*EnumConst
	Incomplete bool
}

type FunctionType struct {
	Qual    Qualifiers
	RetType CType
	// Types are nil for the parameters of an identifier list that have not
	// been declared yet.
	ArgTypes []CType
	ArgNames []string
	IsVarArg bool
	// Declared with an identifier list rather than a prototype.
	KR bool
}

func (t *Named) GetQualifiers() Qualifiers        { return t.Qual }
func (t *Primitive) GetQualifiers() Qualifiers    { return t.Qual }
func (t *Ptr) GetQualifiers() Qualifiers          { return t.Qual }
func (t *Array) GetQualifiers() Qualifiers        { return t.Qual }
func (t *Struct) GetQualifiers() Qualifiers       { return t.Qual }
func (t *Enum) GetQualifiers() Qualifiers         { return t.Qual }
func (t *FunctionType) GetQualifiers() Qualifiers { return t.Qual }

func (t *Named) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *Primitive) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *Ptr) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *Array) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *Struct) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *Enum) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func (t *FunctionType) withQualifiers(q Qualifiers) CType {
	ret := *t
	ret.Qual = q
	return &ret
}

func typeString(t CType) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}

func (t *Named) String() string {
	return t.Qual.prefix() + t.Name
}

func (t *Primitive) String() string {
	return t.Qual.prefix() + t.Spec.String()
}

func (t *Ptr) String() string {
	return t.Qual.prefix() + "*" + typeString(t.PointsTo)
}

func (t *Array) String() string {
	var sb strings.Builder
	sb.WriteString(t.Qual.prefix())
	sb.WriteByte('[')
	if t.Static {
		sb.WriteString("static ")
	}
	switch {
	case t.VLA:
		sb.WriteByte('*')
	case t.Len != nil:
		sb.WriteString(ExprString(t.Len))
	}
	sb.WriteByte(']')
	sb.WriteString(typeString(t.MemberType))
	return sb.String()
}

func (t *Struct) String() string {
	kw := "struct"
	if t.IsUnion {
		kw = "union"
	}
	if t.Name != "" {
		return fmt.Sprintf("%s%s %s", t.Qual.prefix(), kw, t.Name)
	}
	var fields []string
	for _, f := range t.Fields {
		s := typeString(f.Type)
		if f.Name != "" {
			s = f.Name + " " + s
		}
		if f.BitWidth != nil {
			s += " : " + ExprString(f.BitWidth)
		}
		fields = append(fields, s)
	}
	return fmt.Sprintf("%s%s {%s}", t.Qual.prefix(), kw, strings.Join(fields, "; "))
}

func (t *Enum) String() string {
	if t.Name != "" {
		return t.Qual.prefix() + "enum " + t.Name
	}
	var consts []string
	for _, c := range t.Consts {
		s := c.Name
		if c.Val != nil {
			s += " = " + ExprString(c.Val)
		}
		consts = append(consts, s)
	}
	return fmt.Sprintf("%senum {%s}", t.Qual.prefix(), strings.Join(consts, ", "))
}

func (t *FunctionType) String() string {
	var args []string
	for _, at := range t.ArgTypes {
		args = append(args, typeString(at))
	}
	if t.IsVarArg {
		args = append(args, "...")
	}
	return fmt.Sprintf("%sfunc(%s) %s", t.Qual.prefix(), strings.Join(args, ", "), typeString(t.RetType))
}

func qualify(t CType, q Qualifiers) CType {
	if t == nil || q == 0 {
		return t
	}
	return t.withQualifiers(t.GetQualifiers() | q)
}

// CInt is the type given to undeclared K&R parameters and to
// declarations with no type specifier.
var CInt CType = &Primitive{Spec: INT}
