package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andrewchambers/cfront/cpp"
	"github.com/andrewchambers/cfront/parse"
	"github.com/peterh/liner"
	"github.com/pkg/errors"
)

const (
	historyFile = ".cfront_history"
	promptMain  = "cc> "
	promptCont  = "... "
	replInput   = "<stdin>"
)

type replMode int

const (
	modeAST replMode = iota
	modePreprocess
)

// evalChunk handles one complete piece of input. Macros defined by earlier
// input stay visible. It reports false when the input ends in the middle
// of a construct and more lines should be read.
func (s *session) evalChunk(w, errw io.Writer, src string, mode replMode) bool {
	cfg := s.fileConfig()
	if mode == modePreprocess {
		pp := cpp.New(replInput, []byte(src), cfg)
		toks := pp.Preprocess()
		if err := cpp.Format(w, toks); err != nil {
			fmt.Fprintln(errw, err)
		}
		reportAll(errw, s.files, pp.Diagnostics().Errors, pp.Diagnostics().Warnings)
		return true
	}
	res := parse.TranslateFile(replInput, []byte(src), cfg)
	for _, e := range res.Errors {
		if strings.Contains(e.Msg, "end of input") {
			return false
		}
	}
	if len(res.TU.TopLevels) != 0 {
		fmt.Fprint(w, parse.Dump(res.TU))
	}
	reportAll(errw, s.files, res.Errors, res.Warnings)
	return true
}

// replCommand runs a ':' command and reports whether to keep going.
func (s *session) replCommand(w io.Writer, cmd string, mode *replMode) bool {
	switch strings.ToLower(strings.TrimSpace(cmd)) {
	case ":quit", ":q":
		return false
	case ":macros":
		for _, name := range s.shared.Names() {
			m, _ := s.shared.Lookup(name)
			fmt.Fprintln(w, m)
		}
	case ":pp":
		*mode = modePreprocess
	case ":ast":
		*mode = modeAST
	default:
		fmt.Fprintln(w, "commands: :ast :pp :macros :quit")
	}
	return true
}

func (s *session) repl(w io.Writer) error {
	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	mode := modeAST
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() != 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if err == io.EOF || err == liner.ErrPromptAborted {
			fmt.Fprintln(w)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "reading input")
		}
		if b.Len() == 0 && strings.HasPrefix(strings.TrimSpace(line), ":") {
			if !s.replCommand(w, line, &mode) {
				return nil
			}
			continue
		}
		b.WriteString(line)
		b.WriteByte('\n')
		src := b.String()
		if strings.TrimSpace(src) == "" {
			b.Reset()
			continue
		}
		if !s.evalChunk(w, os.Stderr, src, mode) {
			continue
		}
		ln.AppendHistory(strings.TrimSpace(strings.ReplaceAll(src, "\n", " ")))
		b.Reset()
	}
}
