package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/andrewchambers/cfront/cpp"
	"github.com/andrewchambers/cfront/parse"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

const version = "0.2"

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "cc version %s\n", version)
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	printVersion(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cc [FLAGS] FILE.c...")
	fmt.Fprintln(w, "  cc -i [FLAGS]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment variables:")
	fmt.Fprintln(w, "  CCDEBUG=true enables extended error messages for debugging the parser.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// session holds what is shared by every file of one invocation.
type session struct {
	opts     *options
	settings *settings
	base     cpp.Config
	files    cpp.FileSource
	cache    *cpp.MemoryCache
	// Set with -shared-macros, files then run one at a time.
	shared *cpp.MacroTable
	log    *slog.Logger
}

type fileResult struct {
	path  string
	out   bytes.Buffer
	errs  []cpp.Diagnostic
	warns []cpp.Diagnostic
}

func newSession(opts *options, files cpp.FileSource, logger *slog.Logger) (*session, *cpp.Diagnostics, error) {
	st, err := resolveSettings(opts)
	if err != nil {
		return nil, nil, err
	}
	s := &session{
		opts:     opts,
		settings: st,
		files:    files,
		cache:    cpp.NewMemoryCache(),
		log:      logger.With(slog.String("component", "driver")),
	}
	s.base = cpp.Config{
		Standard:    st.std,
		IncludeDirs: st.includeDirs,
		Trigraphs:   st.trigraphs,
		Files:       files,
		Cache:       s.cache,
		Logger:      logger,
	}
	// The prelude is checked once here, files get a fresh copy each.
	table, diags := st.newMacroTable(&s.base)
	if opts.sharedMacros || opts.interactive {
		s.shared = table
	}
	return s, diags, nil
}

func (s *session) fileConfig() *cpp.Config {
	cfg := s.base
	if s.shared != nil {
		cfg.Macros = s.shared
	} else {
		cfg.Macros, _ = s.settings.newMacroTable(&s.base)
	}
	return &cfg
}

func writeTokens(w io.Writer, toks []*cpp.Token) {
	for _, t := range toks {
		fmt.Fprintf(w, "%s:%s:%d:%d\n", t.Kind, t.Spelling(), t.Pos.Line, t.Pos.Col)
	}
}

func (s *session) processFile(path string) (*fileResult, error) {
	res := &fileResult{path: path}
	src, err := s.files.ReadFile(path)
	if err != nil {
		return res, errors.Wrapf(err, "reading source file %s", path)
	}
	cfg := s.fileConfig()
	diags := &cpp.Diagnostics{}
	switch {
	case s.opts.tokenize:
		writeTokens(&res.out, cpp.Lex(path, src, cfg.Standard, cfg.Trigraphs, diags))
	case s.opts.ppTokens:
		pp := cpp.New(path, src, cfg)
		writeTokens(&res.out, cpp.ForParser(pp.Preprocess()))
		diags = pp.Diagnostics()
	case s.opts.preprocess:
		pp := cpp.New(path, src, cfg)
		if err := cpp.Format(&res.out, pp.Preprocess()); err != nil {
			return res, err
		}
		diags = pp.Diagnostics()
	default:
		r := parse.TranslateFile(path, src, cfg)
		if s.opts.dumpAST {
			res.out.WriteString(parse.Dump(r.TU))
		}
		diags.Errors, diags.Warnings = r.Errors, r.Warnings
	}
	res.errs, res.warns = diags.Errors, diags.Warnings
	s.log.Debug("processed", slog.String("file", res.path), slog.Int("errors", len(res.errs)), slog.Int("warnings", len(res.warns)))
	return res, nil
}

// processFiles runs the files with up to -j at a time. Results are in the
// order of paths whatever order they finish in.
func (s *session) processFiles(paths []string) ([]*fileResult, error) {
	results := make([]*fileResult, len(paths))
	jobs := s.opts.jobs
	if jobs < 1 || s.shared != nil {
		jobs = 1
	}
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			res, err := s.processFile(path)
			results[i] = res
			return err
		})
	}
	err := g.Wait()
	hits, misses := s.cache.Stats()
	s.log.Debug("done", slog.Int("files", len(paths)), slog.Int("cache_hits", hits), slog.Int("cache_misses", misses))
	return results, err
}

func openOutput(path string, stdout io.Writer) (io.Writer, func() error, error) {
	if path == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating output file")
	}
	return f, f.Close, nil
}

// run is main with its dependencies passed in. It returns the exit status.
func run(args []string, stdout, stderr io.Writer, files cpp.FileSource) int {
	fs := flag.NewFlagSet("cc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }
	opts := &options{}
	fs.BoolVar(&opts.tokenize, "T", false, "Print tokens after lexing (For debugging).")
	fs.BoolVar(&opts.ppTokens, "P", false, "Print tokens after preprocessing (For debugging).")
	fs.BoolVar(&opts.preprocess, "E", false, "Print preprocessed source.")
	fs.BoolVar(&opts.dumpAST, "A", false, "Print the syntax tree.")
	fs.Var(&opts.includeDirs, "I", "Add a directory to the include search path.")
	fs.Var(&opts.defines, "D", "Define a macro, NAME or NAME=VALUE.")
	fs.StringVar(&opts.std, "std", "", "Language standard, c99 or gnu.")
	fs.BoolVar(&opts.trigraphs, "trigraphs", false, "Replace trigraphs.")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file.")
	fs.BoolVar(&opts.sharedMacros, "shared-macros", false, "Keep macros defined by one file for the next.")
	fs.IntVar(&opts.jobs, "j", 1, "Number of files processed at once.")
	fs.BoolVar(&opts.interactive, "i", false, "Read C from the terminal.")
	fs.BoolVar(&opts.verbose, "v", false, "Log debugging information.")
	fs.StringVar(&opts.output, "o", "-", "File to write output to, - for stdout.")
	showVersion := fs.Bool("version", false, "Print version info and exit.")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *showVersion {
		printVersion(stdout)
		return 0
	}
	if fs.NArg() == 0 && !opts.interactive {
		printUsage(stderr, fs)
		return 1
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	s, prelude, err := newSession(opts, files, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if reportAll(stderr, files, prelude.Errors, prelude.Warnings) != 0 {
		return 1
	}

	out, closeOut, err := openOutput(opts.output, stdout)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeOut()

	if opts.interactive {
		if err := s.repl(out); err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		return 0
	}

	results, err := s.processFiles(fs.Args())
	status := 0
	for _, res := range results {
		if res == nil {
			continue
		}
		if _, werr := out.Write(res.out.Bytes()); werr != nil {
			fmt.Fprintln(stderr, errors.Wrap(werr, "writing output"))
			return 1
		}
		if reportAll(stderr, files, res.errs, res.warns) != 0 {
			status = 1
		}
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		status = 1
	}
	return status
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, cpp.OSFiles{}))
}
