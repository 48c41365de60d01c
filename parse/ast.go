package parse

import "github.com/andrewchambers/cfront/cpp"

type Node interface {
	GetPos() cpp.FilePos
}

type Expr interface {
	Node
	expr()
}

type Stmt interface {
	Node
	stmt()
}

// Either a *DeclList or a *Function.
type TopLevel interface {
	Node
	topLevel()
}

type TranslationUnit struct {
	TopLevels []TopLevel
}

// Storage class
type SClass int

const (
	SC_NONE SClass = iota
	SC_AUTO
	SC_REGISTER
	SC_STATIC
	SC_EXTERN
	SC_TYPEDEF
)

var sclassToStr = [...]string{
	SC_NONE:     "",
	SC_AUTO:     "auto",
	SC_REGISTER: "register",
	SC_STATIC:   "static",
	SC_EXTERN:   "extern",
	SC_TYPEDEF:  "typedef",
}

func (sc SClass) String() string {
	if int(sc) < 0 || int(sc) >= len(sclassToStr) {
		return "Unknown"
	}
	return sclassToStr[sc]
}

var storageClassKeywords = map[string]SClass{
	"auto":     SC_AUTO,
	"register": SC_REGISTER,
	"static":   SC_STATIC,
	"extern":   SC_EXTERN,
	"typedef":  SC_TYPEDEF,
}

// Expressions

type Ident struct {
	Pos  cpp.FilePos
	Name string
}

// A numeric or character constant.
type Constant struct {
	Pos      cpp.FilePos
	Spelling string
	Lit      cpp.NumberLiteral
	Type     CType
}

// A string literal, adjacent literals already joined. Val is not escape
// decoded.
type String struct {
	Pos  cpp.FilePos
	Val  string
	Wide bool
}

// A parenthesized expression.
type Group struct {
	Pos  cpp.FilePos
	Expr Expr
}

type Unop struct {
	Op      string
	Pos     cpp.FilePos
	Operand Expr
}

type Binop struct {
	Op  string
	Pos cpp.FilePos
	L   Expr
	R   Expr
}

type Assign struct {
	Op  string
	Pos cpp.FilePos
	L   Expr
	R   Expr
}

type Ternary struct {
	Pos  cpp.FilePos
	Cond Expr
	Then Expr
	Else Expr
}

type Call struct {
	Pos  cpp.FilePos
	Func Expr
	Args []Expr
}

type Index struct {
	Pos cpp.FilePos
	Arr Expr
	Idx Expr
}

// Member access with "." or "->".
type Selector struct {
	Op      string
	Pos     cpp.FilePos
	Operand Expr
	Sel     string
}

type PostIncDec struct {
	Op      string
	Pos     cpp.FilePos
	Operand Expr
}

type Cast struct {
	Pos     cpp.FilePos
	Type    CType
	Operand Expr
}

type CompoundLiteral struct {
	Pos  cpp.FilePos
	Type CType
	Init *InitializerList
}

type SizeofExpr struct {
	Pos     cpp.FilePos
	Operand Expr
}

type SizeofType struct {
	Pos  cpp.FilePos
	Type CType
}

// A brace enclosed initializer.
type InitializerList struct {
	Pos   cpp.FilePos
	Inits []*Initializer
}

// One member of an initializer list. Val is an expression or a nested
// *InitializerList.
type Initializer struct {
	Pos         cpp.FilePos
	Designators []*Designator
	Val         Expr
}

// [Index] or .Field
type Designator struct {
	Pos   cpp.FilePos
	Index Expr
	Field string
}

func (e *Ident) GetPos() cpp.FilePos           { return e.Pos }
func (e *Constant) GetPos() cpp.FilePos        { return e.Pos }
func (e *String) GetPos() cpp.FilePos          { return e.Pos }
func (e *Group) GetPos() cpp.FilePos           { return e.Pos }
func (e *Unop) GetPos() cpp.FilePos            { return e.Pos }
func (e *Binop) GetPos() cpp.FilePos           { return e.Pos }
func (e *Assign) GetPos() cpp.FilePos          { return e.Pos }
func (e *Ternary) GetPos() cpp.FilePos         { return e.Pos }
func (e *Call) GetPos() cpp.FilePos            { return e.Pos }
func (e *Index) GetPos() cpp.FilePos           { return e.Pos }
func (e *Selector) GetPos() cpp.FilePos        { return e.Pos }
func (e *PostIncDec) GetPos() cpp.FilePos      { return e.Pos }
func (e *Cast) GetPos() cpp.FilePos            { return e.Pos }
func (e *CompoundLiteral) GetPos() cpp.FilePos { return e.Pos }
func (e *SizeofExpr) GetPos() cpp.FilePos      { return e.Pos }
func (e *SizeofType) GetPos() cpp.FilePos      { return e.Pos }
func (e *InitializerList) GetPos() cpp.FilePos { return e.Pos }

func (*Ident) expr()           {}
func (*Constant) expr()        {}
func (*String) expr()          {}
func (*Group) expr()           {}
func (*Unop) expr()            {}
func (*Binop) expr()           {}
func (*Assign) expr()          {}
func (*Ternary) expr()         {}
func (*Call) expr()            {}
func (*Index) expr()           {}
func (*Selector) expr()        {}
func (*PostIncDec) expr()      {}
func (*Cast) expr()            {}
func (*CompoundLiteral) expr() {}
func (*SizeofExpr) expr()      {}
func (*SizeofType) expr()      {}
func (*InitializerList) expr() {}

// Statements

type Block struct {
	Pos cpp.FilePos
	// Statements and *DeclList.
	Items []Stmt
}

type If struct {
	Pos  cpp.FilePos
	Cond Expr
	Then Stmt
	Else Stmt
}

type Switch struct {
	Pos  cpp.FilePos
	Cond Expr
	Body Stmt
}

type While struct {
	Pos  cpp.FilePos
	Cond Expr
	Body Stmt
}

type DoWhile struct {
	Pos  cpp.FilePos
	Body Stmt
	Cond Expr
}

// Init is set when the loop starts with a declaration, InitExpr otherwise.
type For struct {
	Pos      cpp.FilePos
	Init     *DeclList
	InitExpr Expr
	Cond     Expr
	Step     Expr
	Body     Stmt
}

type Return struct {
	Pos cpp.FilePos
	Ret Expr
}

type Break struct {
	Pos cpp.FilePos
}

type Continue struct {
	Pos cpp.FilePos
}

type Goto struct {
	Pos   cpp.FilePos
	Label string
}

type Label interface {
	label()
}

type NamedLabel struct {
	Name string
}

type CaseLabel struct {
	Expr Expr
}

type DefaultLabel struct{}

func (*NamedLabel) label()   {}
func (*CaseLabel) label()    {}
func (*DefaultLabel) label() {}

type Labeled struct {
	Pos   cpp.FilePos
	Label Label
	Stmt  Stmt
}

// Expr is nil for an empty statement.
type ExprStmt struct {
	Pos  cpp.FilePos
	Expr Expr
}

func (s *Block) GetPos() cpp.FilePos    { return s.Pos }
func (s *If) GetPos() cpp.FilePos       { return s.Pos }
func (s *Switch) GetPos() cpp.FilePos   { return s.Pos }
func (s *While) GetPos() cpp.FilePos    { return s.Pos }
func (s *DoWhile) GetPos() cpp.FilePos  { return s.Pos }
func (s *For) GetPos() cpp.FilePos      { return s.Pos }
func (s *Return) GetPos() cpp.FilePos   { return s.Pos }
func (s *Break) GetPos() cpp.FilePos    { return s.Pos }
func (s *Continue) GetPos() cpp.FilePos { return s.Pos }
func (s *Goto) GetPos() cpp.FilePos     { return s.Pos }
func (s *Labeled) GetPos() cpp.FilePos  { return s.Pos }
func (s *ExprStmt) GetPos() cpp.FilePos { return s.Pos }

func (*Block) stmt()    {}
func (*If) stmt()       {}
func (*Switch) stmt()   {}
func (*While) stmt()    {}
func (*DoWhile) stmt()  {}
func (*For) stmt()      {}
func (*Return) stmt()   {}
func (*Break) stmt()    {}
func (*Continue) stmt() {}
func (*Goto) stmt()     {}
func (*Labeled) stmt()  {}
func (*ExprStmt) stmt() {}

// Declarations

// One declared name. Name is empty when a declaration declares only a tag,
// as in "struct S { int x; };".
type Decl struct {
	Pos  cpp.FilePos
	Name string
	Type CType
	// An expression or an *InitializerList.
	Init Expr
}

type DeclList struct {
	Pos     cpp.FilePos
	Storage SClass
	Inline  bool
	Decls   []*Decl
}

// A function definition.
type Function struct {
	Pos     cpp.FilePos
	Name    string
	Type    *FunctionType
	Storage SClass
	Inline  bool
	// Parameter declarations of a K&R definition.
	KRDecls []*DeclList
	Body    *Block
}

func (d *DeclList) GetPos() cpp.FilePos { return d.Pos }
func (f *Function) GetPos() cpp.FilePos { return f.Pos }

func (*DeclList) stmt() {}

func (*DeclList) topLevel() {}
func (*Function) topLevel() {}
