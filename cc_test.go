package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/andrewchambers/cfront/cpp"
)

func runMem(t *testing.T, files cpp.MapFiles, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	status := run(args, &stdout, &stderr, files)
	return status, stdout.String(), stderr.String()
}

func TestVersion(t *testing.T) {
	status, out, _ := runMem(t, nil, "-version")
	if status != 0 || !strings.HasPrefix(out, "cc version ") {
		t.Fatalf("status %d, output %q", status, out)
	}
}

func TestNoArgs(t *testing.T) {
	status, _, errOut := runMem(t, nil)
	if status != 1 || !strings.Contains(errOut, "Usage:") {
		t.Fatalf("status %d, stderr %q", status, errOut)
	}
}

func TestTokenize(t *testing.T) {
	files := cpp.MapFiles{"main.c": "int x = 'a';\n"}
	status, out, errOut := runMem(t, files, "-T", "main.c")
	if status != 0 {
		t.Fatalf("status %d: %s", status, errOut)
	}
	lines := strings.Split(out, "\n")
	if lines[0] != "ident:int:1:1" {
		t.Fatalf("got %q", lines[0])
	}
	if !strings.Contains(out, "string:'a':1:9\n") {
		t.Fatalf("got %q", out)
	}
}

func TestPreprocessTokens(t *testing.T) {
	files := cpp.MapFiles{"main.c": "#define N 3\nint x = N;\n"}
	status, out, _ := runMem(t, files, "-P", "main.c")
	if status != 0 {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(out, "keyword:int:2:1\n") || !strings.Contains(out, "number:3:2:9\n") {
		t.Fatalf("got %q", out)
	}
}

func TestPreprocessDefines(t *testing.T) {
	files := cpp.MapFiles{"main.c": "int x = N;\n#ifdef FLAG\nint flag;\n#endif\n"}
	status, out, errOut := runMem(t, files, "-E", "-D", "N=7", "-D", "FLAG", "main.c")
	if status != 0 {
		t.Fatalf("status %d: %s", status, errOut)
	}
	if !strings.Contains(out, "int x = 7") || !strings.Contains(out, "int flag;") {
		t.Fatalf("got %q", out)
	}
}

func TestDumpAST(t *testing.T) {
	files := cpp.MapFiles{"main.c": "int (*f)(int);\n"}
	status, out, _ := runMem(t, files, "-A", "main.c")
	if status != 0 {
		t.Fatalf("status %d", status)
	}
	if !strings.Contains(out, "*func(int) int") {
		t.Fatalf("got %q", out)
	}
}

func TestParallelOutputOrder(t *testing.T) {
	files := cpp.MapFiles{}
	var args []string
	names := []string{"a.c", "b.c", "c.c", "d.c"}
	for _, n := range names {
		files[n] = "int " + strings.TrimSuffix(n, ".c") + "_var;\n"
		args = append(args, n)
	}
	status, out, _ := runMem(t, files, append([]string{"-j", "3", "-E"}, args...)...)
	if status != 0 {
		t.Fatalf("status %d", status)
	}
	last := -1
	for _, n := range names {
		idx := strings.Index(out, strings.TrimSuffix(n, ".c")+"_var")
		if idx < last {
			t.Fatalf("output out of order:\n%s", out)
		}
		last = idx
	}
}

func TestSharedMacros(t *testing.T) {
	files := cpp.MapFiles{
		"a.c": "#define SHARED 5\n",
		"b.c": "int x = SHARED;\n",
	}
	_, out, _ := runMem(t, files, "-E", "a.c", "b.c")
	if !strings.Contains(out, "SHARED") {
		t.Fatalf("macro leaked between files without -shared-macros: %q", out)
	}
	_, out, _ = runMem(t, files, "-E", "-shared-macros", "a.c", "b.c")
	if !strings.Contains(out, "int x = 5") {
		t.Fatalf("got %q", out)
	}
}

func TestDiagnosticReport(t *testing.T) {
	files := cpp.MapFiles{"main.c": "int f(void)\n{\n\treturn 1 +;\n}\n"}
	status, _, errOut := runMem(t, files, "main.c")
	if status != 1 {
		t.Fatalf("status %d", status)
	}
	expected := "main.c:3:12: error: expected right operand of '+', got ';'\n" +
		"\treturn 1 +;\n" +
		"\t          ^\n"
	if errOut != expected {
		t.Fatalf("got:\n%s\nexpected:\n%s", errOut, expected)
	}
}

func TestMissingFile(t *testing.T) {
	status, _, errOut := runMem(t, cpp.MapFiles{}, "nope.c")
	if status != 1 || !strings.Contains(errOut, "reading source file nope.c") {
		t.Fatalf("status %d, stderr %q", status, errOut)
	}
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cc.yaml")
	conf := "std: gnu\ntrigraphs: true\ninclude_dirs: [inc]\ndefines: [\"A=1\", \"B=2\"]\n"
	if err := os.WriteFile(path, []byte(conf), 0o644); err != nil {
		t.Fatal(err)
	}
	opts := &options{configPath: path, includeDirs: stringList{"cli"}, defines: stringList{"B=3"}}
	st, err := resolveSettings(opts)
	if err != nil {
		t.Fatal(err)
	}
	if st.std != cpp.GNU || !st.trigraphs {
		t.Errorf("got %+v", st)
	}
	if strings.Join(st.includeDirs, ",") != "cli,inc" {
		t.Errorf("got include dirs %v", st.includeDirs)
	}
	if strings.Join(st.defines, ",") != "A=1,B=2,B=3" {
		t.Errorf("got defines %v", st.defines)
	}

	opts.std = "c89"
	if _, err := resolveSettings(opts); err == nil {
		t.Errorf("expected an error for an unknown standard")
	}
	if _, err := resolveSettings(&options{configPath: filepath.Join(dir, "missing.yaml")}); err == nil {
		t.Errorf("expected an error for a missing config file")
	}
}

func TestDefinePrelude(t *testing.T) {
	got := definePrelude([]string{"A", "B=2", "C=x=y"})
	expected := "#define A 1\n#define B 2\n#define C x=y\n"
	if got != expected {
		t.Fatalf("got %q", got)
	}
}

func TestCaretLine(t *testing.T) {
	cases := []struct {
		line     string
		col      int
		expected string
	}{
		{"abc", 1, "^"},
		{"abc", 3, "  ^"},
		{"\t\tx", 3, "\t\t^"},
		{"ab", 5, "    ^"},
		{"héllo", 3, "  ^"},
	}
	for _, tc := range cases {
		if got := caretLine(tc.line, tc.col); got != tc.expected {
			t.Errorf("caretLine(%q, %d) = %q, expected %q", tc.line, tc.col, got, tc.expected)
		}
	}
}

func TestEvalChunk(t *testing.T) {
	s, _, err := newSession(&options{interactive: true}, cpp.MapFiles{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	var out, errOut bytes.Buffer
	if s.evalChunk(&out, &errOut, "int f(void) {\n", modeAST) {
		t.Fatal("expected an unfinished body to ask for more input")
	}
	if !s.evalChunk(&out, &errOut, "#define T int\nT x;\n", modeAST) {
		t.Fatal("expected a complete declaration")
	}
	if !strings.Contains(out.String(), "int") || errOut.Len() != 0 {
		t.Fatalf("out %q, err %q", out.String(), errOut.String())
	}
	out.Reset()
	s.evalChunk(&out, &errOut, "T y;\n", modePreprocess)
	if !strings.Contains(out.String(), "int y;") {
		t.Fatalf("macro not kept between inputs: %q", out.String())
	}
	out.Reset()
	if s.replCommand(&out, ":macros", new(replMode)); !strings.Contains(out.String(), "T") {
		t.Fatalf("got %q", out.String())
	}
	if s.replCommand(&out, ":quit", new(replMode)) {
		t.Fatal("expected :quit to stop")
	}
}
