package cpp

import (
	"testing"
)

var exprTestCases = []struct {
	expr      string
	expected  int64
	expectErr bool
}{
	{"1", 1, false},
	{"2", 2, false},
	{"0x1", 0x1, false},
	{"0x1", 0x1, false},
	{"-1", -1, false},
	{"-2", -2, false},
	{"(2)", 2, false},
	{"(-2)", -2, false},
	{"0x1234", 0x1234, false},
	{"foo", 0, false},
	{"undefined_name + 3", 3, false},
	{"bang", 0, false},
	{"defined foo", 1, false},
	{"defined bang", 0, false},
	{"defined(foo)", 1, false},
	{"defined(bang)", 0, false},
	{"defined", 0, true},
	{"defined(bang", 0, true},
	{"defined bang)", 0, true},
	{"0 || 0", 0, false},
	{"1 || 0", 1, false},
	{"0 || 1", 1, false},
	{"1 || 1", 1, false},
	{"0 && 0", 0, false},
	{"1 && 0", 0, false},
	{"0 && 1", 0, false},
	{"1 && 1", 1, false},
	{"0xf0 | 1", 0xf1, false},
	{"0xf0 & 1", 0, false},
	{"0xf0 & 0x1f", 0x10, false},
	{"1 ^ 1", 0, false},
	{"1 == 1", 1, false},
	{"1 == 0", 0, false},
	{"1 != 1", 0, false},
	{"0 != 1", 1, false},
	{"0 > 1", 0, false},
	{"0 < 1", 1, false},
	{"0 > -1", 1, false},
	{"0 < -1", 0, false},
	{"0 >= 1", 0, false},
	{"0 <= 1", 1, false},
	{"0 >= -1", 1, false},
	{"0 <= -1", 0, false},
	{"0 < 0", 0, false},
	{"0 <= 0", 1, false},
	{"0 > 0", 0, false},
	{"0 >= 0", 1, false},
	{"1 << 1", 2, false},
	{"2 >> 1", 1, false},
	{"2 + 1", 3, false},
	{"2 - 3", -1, false},
	{"2 * 3", 6, false},
	{"6 / 3", 2, false},
	{"7 % 3", 1, false},
	{"0,1", 1, false},
	{"1,0", 0, false},
	{"2+2*3+2", 10, false},
	{"(2+2)*(3+2)", 20, false},
	{"2 + 2 + 2 + 2 == 2 + 2 * 3", 1, false},
	{"0 ? 1 : 2", 2, false},
	{"1 ? 1 : 2", 1, false},
	{"(1 ? 1 ? 1337 : 1234 : 2) == 1337", 1, false},
	{"(1 ? 0 ? 1337 : 1234 : 2) == 1234", 1, false},
	{"(0 ? 1 ? 1337 : 1234 : 2) == 2", 1, false},
	{"(0 ? 1 ? 1337 : 1234 : 2 ? 3 : 4) == 3", 1, false},
	{"0 , 1 ? 1 , 0 : 2  ", 0, false},
	{"~0", -1, false},
	{"!0", 1, false},
	{"!7", 0, false},
	{"+5", 5, false},
	{"-1 < 0", 1, false},
	{"'a'", 97, false},
	{"'\\n' == 10", 1, false},
	{"0x7fffffffffffffff", 0x7fffffffffffffff, false},
	{"1L + 2u + 3ll", 6, false},
	{"017", 15, false},
	{"1/0", 0, false},
	{"1%0", 0, false},
	{"0 && 1/0", 0, false},
	{"1 || 1/0", 1, false},
	{"1 ? 2 : 1/0", 2, false},
	{"0 ? 1/0 : 3", 3, false},
	{"", 0, true},
	{"1 2", 0, true},
	{"(1", 0, true},
	{"1 +", 0, true},
	{"1 ? 2", 0, true},
	{"1.0", 0, true},
	{"\"str\"", 0, true},
}

var testExprPredefined = map[string]struct{}{
	"foo": {},
	"bar": {},
	"baz": {},
}

func lexExpr(t *testing.T, expr string) []*Token {
	diags := &Diagnostics{}
	var toks []*Token
	for _, tok := range Lex("testcase.c", []byte(expr), C99, false, diags) {
		if tok.Kind != NEWLINE {
			toks = append(toks, tok)
		}
	}
	if len(diags.Errors) != 0 {
		t.Fatalf("lexing %q: %v", expr, diags.Err())
	}
	return toks
}

func TestExprEval(t *testing.T) {
	isDefined := func(s string) bool {
		_, ok := testExprPredefined[s]
		return ok
	}
	for idx := range exprTestCases {
		tc := &exprTestCases[idx]
		diags := &Diagnostics{}
		result, err := evalIfExpr(isDefined, lexExpr(t, tc.expr), diags)
		if err != nil {
			if !tc.expectErr {
				t.Errorf("test %s failed - got error <%s>", tc.expr, err)
			}
		} else if tc.expectErr {
			t.Errorf("test %s failed - expected an error", tc.expr)
		} else if result != tc.expected {
			t.Errorf("test %s failed - got %d expected %d", tc.expr, result, tc.expected)
		}
	}
}

func TestExprDivisionByZero(t *testing.T) {
	for _, tc := range []struct {
		expr   string
		nerrs  int
		errCol int
	}{
		{"1/0", 1, 2},
		{"4 % (2-2)", 1, 3},
		{"0 && 1/0", 0, 0},
		{"1 || 1%0", 0, 0},
		{"0 ? 1/0 : 1", 0, 0},
		{"1 ? 1 : 1/0", 0, 0},
		{"1 ? 1/0 : 1", 1, 6},
	} {
		diags := &Diagnostics{}
		v, err := evalIfExpr(func(string) bool { return false }, lexExpr(t, tc.expr), diags)
		if err != nil {
			t.Errorf("%s: unexpected error %s", tc.expr, err)
			continue
		}
		if len(diags.Errors) != tc.nerrs {
			t.Errorf("%s: got %d diagnostics, expected %d", tc.expr, len(diags.Errors), tc.nerrs)
			continue
		}
		if tc.nerrs != 0 {
			d := diags.Errors[0]
			if d.Msg != "division by zero in #if" || d.Pos.Col != tc.errCol {
				t.Errorf("%s: got %s", tc.expr, d)
			}
			if tc.expr == "1/0" && v != 0 {
				t.Errorf("%s: got %d expected 0", tc.expr, v)
			}
		}
	}
}
