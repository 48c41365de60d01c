package cpp

import (
	"math"
	"strconv"
	"strings"
	"testing"
)

func numTok(s string) *Token {
	return &Token{Kind: NUMBER, Val: s, Pos: FilePos{File: "lit.c", Line: 1, Col: 1}}
}

var intLiteralTestCases = []struct {
	spelling string
	val      uint64
	unsigned bool
	long     bool
	longlong bool
	nerrs    int
	nwarns   int
}{
	{"0", 0, false, false, false, 0, 0},
	{"42", 42, false, false, false, 0, 0},
	{"42u", 42, true, false, false, 0, 0},
	{"42U", 42, true, false, false, 0, 0},
	{"42l", 42, false, true, false, 0, 0},
	{"42ul", 42, true, true, false, 0, 0},
	{"42LU", 42, true, true, false, 0, 0},
	{"42ll", 42, false, false, true, 0, 0},
	{"42uLL", 42, true, false, true, 0, 0},
	{"42LLu", 42, true, false, true, 0, 0},
	{"0x2A", 42, false, false, false, 0, 0},
	{"0X2a", 42, false, false, false, 0, 0},
	{"0xffffffffffffffff", math.MaxUint64, false, false, false, 0, 0},
	{"0x00000000000000000001", 1, false, false, false, 0, 0},
	{"0x1ffffffffffffffff", math.MaxUint64, false, false, false, 0, 1},
	{"052", 42, false, false, false, 0, 0},
	{"01777777777777777777777", math.MaxUint64, false, false, false, 0, 0},
	{"18446744073709551615", math.MaxUint64, false, false, false, 0, 0},
	{"18446744073709551616", 1844674407370955161, false, false, false, 0, 1},
	{"0x", 0, false, false, false, 1, 0},
	{"09", 0, false, false, false, 1, 0},
	{"42q", 42, false, false, false, 1, 0},
	{"42lul", 42, false, false, false, 1, 0},
	{"42uu", 42, false, false, false, 1, 0},
}

func TestIntLiterals(t *testing.T) {
	for _, tc := range intLiteralTestCases {
		diags := &Diagnostics{}
		lit, ok := ParseNumber(numTok(tc.spelling), diags).(IntLiteral)
		if !ok {
			t.Errorf("%s: not an integer", tc.spelling)
			continue
		}
		if lit.Val != tc.val || lit.Unsigned != tc.unsigned || lit.Long != tc.long || lit.LongLong != tc.longlong {
			t.Errorf("%s: got %+v", tc.spelling, lit)
		}
		if len(diags.Errors) != tc.nerrs || len(diags.Warnings) != tc.nwarns {
			t.Errorf("%s: got errors %v warnings %v", tc.spelling, diags.Errors, diags.Warnings)
		}
	}
}

func TestOctalOverflow(t *testing.T) {
	diags := &Diagnostics{}
	lit := ParseNumber(numTok("02000000000000000000000"), diags).(IntLiteral)
	if len(diags.Warnings) != 1 || !strings.Contains(diags.Warnings[0].Msg, "too large") {
		t.Fatalf("expected an overflow warning, got %v", diags.Warnings)
	}
	if lit.Val != 0x2000000000000000 {
		t.Fatalf("expected the last value that fit, got %#x", lit.Val)
	}
}

func TestDecimalFloatRounding(t *testing.T) {
	for _, s := range []string{
		"1.0", "0.1", ".5", "5.", "1e10", "1E-5", "3.14159265358979323846264338327950288",
		"2.2250738585072011e-308", "4.9406564584124654e-324", "1.7976931348623157e308",
		"9007199254740993.0", "0.30000000000000004", "123456789012345678901234567890e-10",
	} {
		diags := &Diagnostics{}
		lit, ok := ParseNumber(numTok(s), diags).(FloatLiteral)
		if !ok {
			t.Errorf("%s: not a float", s)
			continue
		}
		want, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatal(err)
		}
		if lit.Val != want {
			t.Errorf("%s: got %v expected %v", s, lit.Val, want)
		}
		if len(diags.Errors) != 0 || len(diags.Warnings) != 0 {
			t.Errorf("%s: unexpected diagnostics %v %v", s, diags.Errors, diags.Warnings)
		}
	}
}

func TestFloatSuffixes(t *testing.T) {
	diags := &Diagnostics{}
	lit := ParseNumber(numTok("0.1f"), diags).(FloatLiteral)
	if !lit.Float || lit.Val != float64(float32(0.1)) {
		t.Errorf("0.1f: got %+v", lit)
	}
	lit = ParseNumber(numTok("0.1L"), diags).(FloatLiteral)
	if !lit.LongDouble || lit.Val != 0.1 {
		t.Errorf("0.1L: got %+v", lit)
	}
	if len(diags.Errors) != 0 {
		t.Fatalf("unexpected errors %v", diags.Errors)
	}
	for _, bad := range []string{"1.0ff", "1.0u", "1e", "1e+"} {
		diags := &Diagnostics{}
		ParseNumber(numTok(bad), diags)
		if len(diags.Errors) == 0 {
			t.Errorf("%s: expected an error", bad)
		}
	}
	diags = &Diagnostics{}
	ParseNumber(numTok("1e999"), diags)
	if len(diags.Warnings) != 1 {
		t.Errorf("1e999: expected a range warning, got %v", diags.Warnings)
	}
}

func TestHexFloatRounding(t *testing.T) {
	for _, s := range []string{
		"0x1p0", "0x1.8p1", "0x.8p0", "0xA.Bp-3", "0x1.fffffffffffffp1023",
		"0x1.0000000000000fffp0", "0x1.00000000000008p0", "0x1.000000000000081p0",
		"0x1.00000000000018p0", "0x123456789abcdef123p-40", "0x0.0000001p-1000",
		"0x1p-1074", "0x1.8p-1074",
	} {
		diags := &Diagnostics{}
		lit, ok := ParseNumber(numTok(s), diags).(FloatLiteral)
		if !ok {
			t.Errorf("%s: not a float", s)
			continue
		}
		want, err := strconv.ParseFloat(s, 64)
		if err != nil {
			t.Fatal(err)
		}
		if lit.Val != want {
			t.Errorf("%s: got %x expected %x", s, lit.Val, want)
		}
		if len(diags.Errors) != 0 {
			t.Errorf("%s: unexpected errors %v", s, diags.Errors)
		}
	}
}

func TestHexFloatErrors(t *testing.T) {
	for _, s := range []string{"0x1.8", "0x.p1", "0x1p"} {
		diags := &Diagnostics{}
		ParseNumber(numTok(s), diags)
		if len(diags.Errors) == 0 {
			t.Errorf("%s: expected an error", s)
		}
	}
}

var charTestCases = []struct {
	spelling string
	wide     bool
	val      uint64
	nerrs    int
	nwarns   int
}{
	{`a`, false, 'a', 0, 0},
	{`\n`, false, 10, 0, 0},
	{`\\`, false, '\\', 0, 0},
	{`\'`, false, '\'', 0, 0},
	{`\?`, false, '?', 0, 0},
	{`\0`, false, 0, 0, 0},
	{`\101`, false, 'A', 0, 0},
	{`\1011`, false, 'A'<<8 | '1', 0, 1},
	{`\777`, false, 0xff, 0, 1},
	{`\x41`, false, 'A', 0, 0},
	{`\x141`, false, 0x41, 0, 1},
	{`\x`, false, 0, 1, 0},
	{`\q`, false, 'q', 0, 1},
	{`ab`, false, 'a'<<8 | 'b', 0, 1},
	{`abcd`, false, 0x61626364, 0, 1},
	{`abcde`, false, 0x61626364, 0, 2},
	{`é`, true, 0xe9, 0, 0},
	{`\u12`, true, 0x12, 1, 0},
	{`\u00e9`, false, 0xe9, 0, 0},
	{`ab`, true, 'a'<<16 | 'b', 0, 1},
	{``, false, 0, 1, 0},
}

func TestCharToInt(t *testing.T) {
	for _, tc := range charTestCases {
		diags := &Diagnostics{}
		tok := &Token{Kind: STRING, Char: true, Wide: tc.wide, Val: tc.spelling}
		lit := CharToInt(tok, 4, diags)
		if lit.Val != tc.val {
			t.Errorf("%s: got %#x expected %#x", tok.Spelling(), lit.Val, tc.val)
		}
		if len(diags.Errors) != tc.nerrs || len(diags.Warnings) != tc.nwarns {
			t.Errorf("%s: got errors %v warnings %v", tok.Spelling(), diags.Errors, diags.Warnings)
		}
	}
}

func TestCharToIntSizeMask(t *testing.T) {
	diags := &Diagnostics{}
	lit := CharToInt(&Token{Kind: STRING, Char: true, Val: "ab"}, 1, diags)
	if lit.Val != 'a' {
		t.Fatalf("got %#x", lit.Val)
	}
	if len(diags.Warnings) != 2 {
		t.Fatalf("expected too long and multi-character warnings, got %v", diags.Warnings)
	}
}
