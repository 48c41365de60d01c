package parse

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrewchambers/cfront/cpp"
	"gopkg.in/yaml.v3"
)

func parseString(src string) (*TranslationUnit, *cpp.Diagnostics) {
	pp := cpp.New("test.c", []byte(src), &cpp.Config{Files: cpp.MapFiles{}})
	toks := cpp.ForParser(pp.Preprocess())
	tu, diags := Parse(toks)
	pdiags := pp.Diagnostics()
	pdiags.Merge(diags)
	return tu, pdiags
}

func mustParse(t *testing.T, src string) *TranslationUnit {
	t.Helper()
	tu, diags := parseString(src)
	if err := diags.Err(); err != nil {
		t.Fatalf("parsing %q: %s", src, err)
	}
	return tu
}

// declaredTypes maps every name declared at file scope to its type.
func declaredTypes(tu *TranslationUnit) map[string]string {
	types := make(map[string]string)
	for _, tl := range tu.TopLevels {
		switch tl := tl.(type) {
		case *DeclList:
			for _, d := range tl.Decls {
				if d.Name != "" {
					types[d.Name] = d.Type.String()
				}
			}
		case *Function:
			types[tl.Name] = tl.Type.String()
		}
	}
	return types
}

func findDecl(tu *TranslationUnit, name string) *Decl {
	for _, tl := range tu.TopLevels {
		if dl, ok := tl.(*DeclList); ok {
			for _, d := range dl.Decls {
				if d.Name == name {
					return d
				}
			}
		}
	}
	return nil
}

func findFunction(tu *TranslationUnit, name string) *Function {
	for _, tl := range tu.TopLevels {
		if f, ok := tl.(*Function); ok && f.Name == name {
			return f
		}
	}
	return nil
}

func containsMsg(diags []cpp.Diagnostic, want string) bool {
	for _, d := range diags {
		if strings.Contains(d.Msg, want) {
			return true
		}
	}
	return false
}

type parseCase struct {
	Name     string            `yaml:"name"`
	Src      string            `yaml:"src"`
	Types    map[string]string `yaml:"types"`
	Errors   []string          `yaml:"errors"`
	Warnings []string          `yaml:"warnings"`
}

func loadCases(t *testing.T, path string) []parseCase {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cases []parseCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		t.Fatalf("%s: %s", path, err)
	}
	return cases
}

func TestParseCases(t *testing.T) {
	files, err := filepath.Glob("testdata/*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) == 0 {
		t.Fatal("no test cases found")
	}
	for _, file := range files {
		for _, tc := range loadCases(t, file) {
			tc := tc
			t.Run(filepath.Base(file)+"/"+tc.Name, func(t *testing.T) {
				tu, diags := parseString(tc.Src)
				if tu == nil {
					t.Fatal("nil translation unit")
				}
				if len(tc.Errors) == 0 && len(diags.Errors) != 0 {
					t.Fatalf("unexpected errors: %s", diags.Err())
				}
				for _, want := range tc.Errors {
					if !containsMsg(diags.Errors, want) {
						t.Errorf("expected an error containing %q, got %v", want, diags.Errors)
					}
				}
				for _, want := range tc.Warnings {
					if !containsMsg(diags.Warnings, want) {
						t.Errorf("expected a warning containing %q, got %v", want, diags.Warnings)
					}
				}
				types := declaredTypes(tu)
				for name, want := range tc.Types {
					got, ok := types[name]
					if !ok {
						t.Errorf("%s was not declared", name)
						continue
					}
					if got != want {
						t.Errorf("type of %s: got %q, expected %q", name, got, want)
					}
				}
			})
		}
	}
}

// Files under parsetests must parse without errors.
func TestParser(t *testing.T) {
	files, err := filepath.Glob("parsetests/*.c")
	if err != nil {
		t.Fatal(err)
	}
	for _, path := range files {
		src, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		res := TranslateFile(path, src, &cpp.Config{IncludeDirs: []string{"parsetests"}})
		if err := res.Err(); err != nil {
			t.Errorf("%s: %s", path, err)
		}
		if len(res.TU.TopLevels) == 0 {
			t.Errorf("%s: nothing parsed", path)
		}
	}
}

func TestTypedefChangesParse(t *testing.T) {
	tu := mustParse(t, "typedef int foo; void f(void) { foo * x; }")
	items := findFunction(tu, "f").Body.Items
	dl, ok := items[0].(*DeclList)
	if !ok {
		t.Fatalf("expected a declaration, got %T", items[0])
	}
	if got := dl.Decls[0].Type.String(); got != "*foo" {
		t.Fatalf("got %s", got)
	}

	tu = mustParse(t, "int foo, x; void f(void) { foo * x; }")
	items = findFunction(tu, "f").Body.Items
	es, ok := items[0].(*ExprStmt)
	if !ok {
		t.Fatalf("expected an expression statement, got %T", items[0])
	}
	if got := ExprString(es.Expr); got != "(foo * x)" {
		t.Fatalf("got %s", got)
	}
}

func TestTypedefShadowing(t *testing.T) {
	tu := mustParse(t, "typedef int T; void f(void) { int T; T * x; } T y;")
	items := findFunction(tu, "f").Body.Items
	if _, ok := items[1].(*ExprStmt); !ok {
		t.Fatalf("expected an expression statement, got %T", items[1])
	}
	if got := findDecl(tu, "y").Type.String(); got != "T" {
		t.Fatalf("typedef not visible after the block: %s", got)
	}
}

func TestUndeclaredTypedefName(t *testing.T) {
	_, diags := parseString("foo x;")
	if len(diags.Errors) != 1 {
		t.Fatalf("expected one error, got %v", diags.Errors)
	}
	if diags.Errors[0].Msg != "unexpected token 'foo'" {
		t.Fatalf("got %q", diags.Errors[0].Msg)
	}
}

var exprTestCases = []struct {
	expr     string
	expected string
}{
	{"1 + 2 * 3", "(1 + (2 * 3))"},
	{"a - b - c", "((a - b) - c)"},
	{"a = b = c", "(a = (b = c))"},
	{"x += 1", "(x += 1)"},
	{"a ? b : c ? d : e", "(a ? b : (c ? d : e))"},
	{"a || b && c", "(a || (b && c))"},
	{"x << 1 < y", "((x << 1) < y)"},
	{"a & b == c", "(a & (b == c))"},
	{"(a + b) * c", "((a + b) * c)"},
	{"a, b", "(a, b)"},
	{"*p++", "(*(p++))"},
	{"++*p", "(++(*p))"},
	{"!~x", "(!(~x))"},
	{"-x", "(-x)"},
	{"a.b++", "(a.b++)"},
	{"f(a, b)[1].c->d", "f(a, b)[1].c->d"},
	{"f()", "f()"},
	{"sizeof x", "sizeof(x)"},
	{"sizeof (x)", "sizeof(x)"},
	{"sizeof(int)", "sizeof(int)"},
	{"sizeof(char *)", "sizeof(*char)"},
	{"(int)x", "((int)x)"},
	{"(char *)p + 1", "(((*char)p) + 1)"},
	{"(unsigned long)-1", "((unsigned long)(-1))"},
	{"(struct point){1, 2}", "(struct point){1, 2}"},
	{"(int[]){[0] = 1}.x", "([]int){[0] = 1}.x"},
	{"'a'", "'a'"},
	{`"ab" "cd"`, `"abcd"`},
	{`L"a" "b"`, `L"ab"`},
	{"0x10u + 1.5f", "(0x10u + 1.5f)"},
}

func TestExpressions(t *testing.T) {
	for _, tc := range exprTestCases {
		tu := mustParse(t, "void f(void) { "+tc.expr+"; }")
		items := findFunction(tu, "f").Body.Items
		if len(items) != 1 {
			t.Errorf("%s: expected one statement, got %d", tc.expr, len(items))
			continue
		}
		es, ok := items[0].(*ExprStmt)
		if !ok {
			t.Errorf("%s: got %T", tc.expr, items[0])
			continue
		}
		if got := ExprString(es.Expr); got != tc.expected {
			t.Errorf("%s: got %s, expected %s", tc.expr, got, tc.expected)
		}
	}
}

func TestConstantTypes(t *testing.T) {
	cases := []struct {
		src      string
		expected string
	}{
		{"1", "int"},
		{"1u", "unsigned int"},
		{"1l", "long int"},
		{"1ull", "unsigned long long int"},
		{"1.0", "double"},
		{"1.0f", "float"},
		{"1.0L", "long double"},
		{"'x'", "int"},
	}
	for _, tc := range cases {
		tu := mustParse(t, "int v = "+tc.src+";")
		c, ok := findDecl(tu, "v").Init.(*Constant)
		if !ok {
			t.Errorf("%s: not a constant", tc.src)
			continue
		}
		if got := c.Type.String(); got != tc.expected {
			t.Errorf("%s: got %s, expected %s", tc.src, got, tc.expected)
		}
	}
	tu := mustParse(t, "int v = 'A';")
	if lit := findDecl(tu, "v").Init.(*Constant).Lit.(cpp.IntLiteral); lit.Val != 65 {
		t.Fatalf("got %d", lit.Val)
	}
}

func TestStatements(t *testing.T) {
	src := `
void f(int n) {
	if (n) n = 1; else n = 2;
	while (n) { break; }
	do n--; while (n);
	for (int i = 0; i < 10; i++) continue;
	switch (n) { case 1: default: ; }
	goto out;
out:
	return;
}`
	tu := mustParse(t, src)
	items := findFunction(tu, "f").Body.Items
	if len(items) != 7 {
		t.Fatalf("expected 7 statements, got %d", len(items))
	}
	if s, ok := items[0].(*If); !ok || s.Else == nil {
		t.Errorf("expected if with else, got %#v", items[0])
	}
	if _, ok := items[1].(*While); !ok {
		t.Errorf("expected while, got %T", items[1])
	}
	if _, ok := items[2].(*DoWhile); !ok {
		t.Errorf("expected do, got %T", items[2])
	}
	fs, ok := items[3].(*For)
	if !ok {
		t.Fatalf("expected for, got %T", items[3])
	}
	if fs.Init == nil || fs.Init.Decls[0].Name != "i" {
		t.Errorf("expected a declaration in the for header")
	}
	if _, ok := fs.Body.(*Continue); !ok {
		t.Errorf("expected continue, got %T", fs.Body)
	}
	sw, ok := items[4].(*Switch)
	if !ok {
		t.Fatalf("expected switch, got %T", items[4])
	}
	caseStmt := sw.Body.(*Block).Items[0].(*Labeled)
	if _, ok := caseStmt.Label.(*CaseLabel); !ok {
		t.Errorf("expected case label, got %T", caseStmt.Label)
	}
	def := caseStmt.Stmt.(*Labeled)
	if _, ok := def.Label.(*DefaultLabel); !ok {
		t.Errorf("expected default label, got %T", def.Label)
	}
	if es := def.Stmt.(*ExprStmt); es.Expr != nil {
		t.Errorf("expected empty statement")
	}
	if g := items[5].(*Goto); g.Label != "out" {
		t.Errorf("got goto %s", g.Label)
	}
	l := items[6].(*Labeled)
	if l.Label.(*NamedLabel).Name != "out" {
		t.Errorf("wrong label")
	}
	if r := l.Stmt.(*Return); r.Ret != nil {
		t.Errorf("expected bare return")
	}
}

func TestKRDefinition(t *testing.T) {
	tu := mustParse(t, "int add(a, b) int a; { return a + b; }")
	f := findFunction(tu, "add")
	if f == nil {
		t.Fatal("function not parsed")
	}
	if !f.Type.KR || len(f.KRDecls) != 1 {
		t.Fatalf("expected a K&R definition with one declaration")
	}
	if got := f.Type.String(); got != "func(int, int) int" {
		t.Fatalf("got %s", got)
	}
}

func TestFunctionRollback(t *testing.T) {
	tu := mustParse(t, "int f(int), g;")
	if len(tu.TopLevels) != 1 {
		t.Fatalf("expected a single declaration, got %d top levels", len(tu.TopLevels))
	}
	types := declaredTypes(tu)
	if types["f"] != "func(int) int" || types["g"] != "int" {
		t.Fatalf("got %v", types)
	}

	_, diags := parseString("int f(void) x")
	if len(diags.Errors) == 0 || diags.Errors[0].Msg != "expected ';' after declaration, got 'x'" {
		t.Fatalf("got %v", diags.Errors)
	}
}

func TestInitializers(t *testing.T) {
	tu := mustParse(t, `
int a[] = {1, [2] = 3, 4,};
struct s { int x, y; } v = {.y = 1, .x = 2};
int m[2][2] = {{1, 2}, {3, 4}};
char *str = "hi";
`)
	cases := map[string]string{
		"a":   "{1, [2] = 3, 4}",
		"v":   "{.y = 1, .x = 2}",
		"m":   "{{1, 2}, {3, 4}}",
		"str": `"hi"`,
	}
	for name, expected := range cases {
		if got := ExprString(findDecl(tu, name).Init); got != expected {
			t.Errorf("%s: got %s, expected %s", name, got, expected)
		}
	}
	if got := findDecl(tu, "a").Type.String(); got != "[]int" {
		t.Errorf("got %s", got)
	}
}

func TestStructTags(t *testing.T) {
	tu := mustParse(t, `
struct point { int x; int y; };
struct point p;
struct later *q;
enum color { RED, GREEN = 5, BLUE } c;
`)
	st, ok := findDecl(tu, "p").Type.(*Struct)
	if !ok {
		t.Fatalf("got %T", findDecl(tu, "p").Type)
	}
	if st.Incomplete || len(st.Fields) != 2 {
		t.Errorf("expected the definition of struct point, got %#v", st)
	}
	later := findDecl(tu, "q").Type.(*Ptr).PointsTo.(*Struct)
	if !later.Incomplete {
		t.Errorf("expected an incomplete struct")
	}
	en := findDecl(tu, "c").Type.(*Enum)
	if len(en.Consts) != 3 || ExprString(en.Consts[1].Val) != "5" {
		t.Errorf("got %#v", en)
	}
	if first := tu.TopLevels[0].(*DeclList).Decls[0]; first.Name != "" {
		t.Errorf("expected a tag only declaration, got %s", first.Name)
	}
}

func TestDump(t *testing.T) {
	tu := mustParse(t, "int (*f)(int); int main(void) { return 0; }")
	s := Dump(tu)
	for _, want := range []string{"*func(int) int", "main", "test.c:1:"} {
		if !strings.Contains(s, want) {
			t.Errorf("dump does not contain %q:\n%s", want, s)
		}
	}
}

func TestTranslateFile(t *testing.T) {
	files := cpp.MapFiles{
		"defs.h": "#define N 3\ntypedef int num;\n",
	}
	src := []byte("#include \"defs.h\"\nnum arr[N];\n#if 0\n#error no\n#endif\nint bad = ;\n")
	res := TranslateFile("main.c", src, &cpp.Config{Files: files})
	if res.TU == nil {
		t.Fatal("nil translation unit")
	}
	if got := findDecl(res.TU, "arr").Type.String(); got != "[3]num" {
		t.Errorf("got %s", got)
	}
	if _, ok := res.Macros.Lookup("N"); !ok {
		t.Errorf("macro table does not hold N")
	}
	if len(res.Errors) != 1 || res.Errors[0].Pos.Line != 6 {
		t.Fatalf("got %v", res.Errors)
	}
	if res.Err() == nil {
		t.Fatal("expected Err to report the error")
	}
}

func TestPreprocessorErrorsComeFirst(t *testing.T) {
	res := TranslateFile("main.c", []byte("int x\n#error stop\n"), &cpp.Config{Files: cpp.MapFiles{}})
	if len(res.Errors) != 2 {
		t.Fatalf("got %v", res.Errors)
	}
	if !strings.Contains(res.Errors[0].Msg, "stop") {
		t.Fatalf("expected the #error first, got %v", res.Errors)
	}
}
