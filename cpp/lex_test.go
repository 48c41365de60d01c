package cpp

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func sourceToExpectFile(s string) string {
	return s[0:len(s)-2] + ".exp"
}

func tokString(tok *Token) string {
	return fmt.Sprintf("%s:%s:%d:%d", tok.Kind, tok.Spelling(), tok.Pos.Line, tok.Pos.Col)
}

// checkGolden compares tokens against an expect file with one
// kind:spelling:line:col entry per line.
func checkGolden(t *testing.T, cfile, expectfile string, toks []*Token) {
	ef, err := os.Open(expectfile)
	if err != nil {
		t.Fatal(err)
	}
	defer ef.Close()
	scanner := bufio.NewScanner(ef)
	for _, tok := range toks {
		expectedTokS := ""
		if scanner.Scan() {
			expectedTokS = scanner.Text()
		}
		tokS := tokString(tok)
		if tokS != expectedTokS {
			if expectedTokS == "" {
				t.Errorf("Test failed %s - extra token %s", cfile, tokS)
			} else {
				t.Errorf("Test failed %s: got %s expected %s ", cfile, tokS, expectedTokS)
			}
			return
		}
	}
	if scanner.Scan() {
		t.Errorf("Test failed %s - missing token %s", cfile, scanner.Text())
	}
}

func goldenFiles(t *testing.T, dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*.c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) == 0 {
		t.Fatalf("no test files in %s", dir)
	}
	return matches
}

func TestLexer(t *testing.T) {
	for _, cfile := range goldenFiles(t, "lextests") {
		src, err := os.ReadFile(cfile)
		if err != nil {
			t.Fatal(err)
		}
		diags := &Diagnostics{}
		toks := Lex(cfile, src, C99, false, diags)
		if err := diags.Err(); err != nil {
			t.Errorf("Testfile %s failed because %s", cfile, err)
			continue
		}
		checkGolden(t, cfile, sourceToExpectFile(cfile), toks)
	}
}

func lexString(src string, std Standard, trigraphs bool) ([]*Token, *Diagnostics) {
	diags := &Diagnostics{}
	return Lex("lex.c", []byte(src), std, trigraphs, diags), diags
}

func spellings(toks []*Token) string {
	var parts []string
	for _, t := range toks {
		if t.Kind == NEWLINE {
			parts = append(parts, "\\n")
			continue
		}
		parts = append(parts, t.Spelling())
	}
	return strings.Join(parts, " ")
}

func TestLexerSpellings(t *testing.T) {
	for _, tc := range []struct {
		src       string
		std       Standard
		trigraphs bool
		expected  string
	}{
		{"a\r\nb\rc", C99, false, `a \n b \n c \n`},
		{"??=define X ??( ??)", C99, true, `# define X [ ] \n`},
		{"??=define X", C99, false, `? ? = define X \n`},
		{"a$b", GNU, false, `a$b \n`},
		{"a$b", C99, false, `a $ b \n`},
		{"x = y/*c*/z", C99, false, `x = y z \n`},
		{"a // comment", C99, false, `a \n`},
		{"@ `", C99, false, "@ ` \\n"},
		{"#include \"a.h\"", C99, false, `# include "a.h" \n`},
		{"x < y > z", C99, false, `x < y > z \n`},
		{"#if a < b > c", C99, false, `# if a < b > c \n`},
		{"#include <a.h", C99, false, `# include < a . h \n`},
		{"", C99, false, `\n`},
	} {
		toks, diags := lexString(tc.src, tc.std, tc.trigraphs)
		if got := spellings(toks); got != tc.expected {
			t.Errorf("%q: got %s expected %s", tc.src, got, tc.expected)
		}
		if len(diags.Errors) != 0 {
			t.Errorf("%q: unexpected errors %v", tc.src, diags.Errors)
		}
	}
}

func TestLexerDiagnostics(t *testing.T) {
	for _, tc := range []struct {
		src     string
		err     string
		warning string
		pos     FilePos
		toks    string
	}{
		{"a /* never closed", "unterminated comment", "", FilePos{"lex.c", 1, 3}, `a \n`},
		{"a \"abc\nb", "", "missing terminating \" character", FilePos{"lex.c", 1, 3}, `a \n b \n`},
		{"'x", "", "missing terminating ' character", FilePos{"lex.c", 1, 1}, `\n`},
		{"a \\  \nb", "", "backslash and newline separated by space", FilePos{"lex.c", 1, 3}, `a b \n`},
		{"a \\", "", "backslash-newline at end of file", FilePos{"lex.c", 1, 3}, `a \n`},
	} {
		toks, diags := lexString(tc.src, C99, false)
		if got := spellings(toks); got != tc.toks {
			t.Errorf("%q: got tokens %s expected %s", tc.src, got, tc.toks)
		}
		var got []Diagnostic
		want := tc.err
		if want != "" {
			got = diags.Errors
		} else {
			got, want = diags.Warnings, tc.warning
		}
		if len(got) != 1 || got[0].Msg != want || got[0].Pos != tc.pos {
			t.Errorf("%q: got diagnostics %v %v", tc.src, diags.Errors, diags.Warnings)
		}
	}
}

func TestLexerDigraphs(t *testing.T) {
	toks, _ := lexString("<: :> <% %> %: %:%:", C99, false)
	for i, canon := range []string{"[", "]", "{", "}", "#", "##"} {
		if !toks[i].Is(canon) {
			t.Errorf("%s does not match %s", toks[i].Val, canon)
		}
		if toks[i].Val == canon {
			t.Errorf("digraph %s lost its spelling", toks[i].Val)
		}
	}
}
