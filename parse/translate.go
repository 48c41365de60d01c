package parse

import (
	"log/slog"
	"time"

	"github.com/andrewchambers/cfront/cpp"
)

// Result is everything produced for one source file.
type Result struct {
	// Never nil, holds what could be parsed even when there are errors.
	TU       *TranslationUnit
	Errors   []cpp.Diagnostic
	Warnings []cpp.Diagnostic
	// The macro table after preprocessing.
	Macros *cpp.MacroTable
}

func (r *Result) Err() error {
	d := cpp.Diagnostics{Errors: r.Errors}
	return d.Err()
}

// TranslateFile preprocesses and parses src, which was read from path.
// Preprocessor diagnostics come before parser diagnostics.
func TranslateFile(path string, src []byte, cfg *cpp.Config) *Result {
	if cfg == nil {
		cfg = &cpp.Config{}
	}
	start := time.Now()
	pp := cpp.New(path, src, cfg)
	toks := cpp.ForParser(pp.Preprocess())
	tu, pdiags := parseTokens(toks, cfg.Logger)

	diags := &cpp.Diagnostics{}
	diags.Merge(pp.Diagnostics())
	diags.Merge(pdiags)
	if cfg.Logger != nil {
		cfg.Logger.Debug("translated",
			slog.String("file", path),
			slog.Int("tokens", len(toks)),
			slog.Int("errors", len(diags.Errors)),
			slog.Duration("elapsed", time.Since(start)))
	}
	return &Result{
		TU:       tu,
		Errors:   diags.Errors,
		Warnings: diags.Warnings,
		Macros:   pp.Macros(),
	}
}
