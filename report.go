package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/andrewchambers/cfront/cpp"
)

// reportDiagnostic prints "file:line:col: kind: msg" followed by the source
// line and a caret under the column, when the line can be read.
func reportDiagnostic(w io.Writer, files cpp.FileSource, kind string, d cpp.Diagnostic) {
	fmt.Fprintf(w, "%s: %s: %s\n", d.Pos, kind, d.Msg)
	line, ok := sourceLine(files, d.Pos)
	if !ok {
		return
	}
	fmt.Fprintln(w, line)
	fmt.Fprintln(w, caretLine(line, d.Pos.Col))
}

func sourceLine(files cpp.FileSource, pos cpp.FilePos) (string, bool) {
	if pos.Line < 1 || strings.HasPrefix(pos.File, "<") {
		return "", false
	}
	src, err := files.ReadFile(pos.File)
	if err != nil {
		return "", false
	}
	lines := strings.Split(string(src), "\n")
	if pos.Line > len(lines) {
		return "", false
	}
	return strings.TrimRight(lines[pos.Line-1], "\r"), true
}

// caretLine puts '^' under column col of line. Columns count runes, so
// tabs before the column are copied to keep the caret aligned.
func caretLine(line string, col int) string {
	var sb strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			sb.WriteByte('\t')
		} else {
			sb.WriteByte(' ')
		}
		i++
	}
	for ; i < col; i++ {
		sb.WriteByte(' ')
	}
	sb.WriteByte('^')
	return sb.String()
}

// reportAll prints errors before warnings and returns the error count.
func reportAll(w io.Writer, files cpp.FileSource, errs, warns []cpp.Diagnostic) int {
	for _, d := range errs {
		reportDiagnostic(w, files, "error", d)
	}
	for _, d := range warns {
		reportDiagnostic(w, files, "warning", d)
	}
	return len(errs)
}
