package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"sync"

	"github.com/andrewchambers/cfront/cpp"
	"github.com/andrewchambers/cfront/parse"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

var (
	filter = flag.String("filter", ".*", "A regex filtering which tests to run")
	jobs   = flag.Int("j", runtime.NumCPU(), "Number of tests run at once")
	dirs   = []string{"test/testcases/ok", "test/testcases/errors"}
)

const expectPrefix = "// expect: "

// expected returns the message an error case must produce, or "" for a
// case that must translate cleanly.
func expected(src []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(src))
	if sc.Scan() {
		if msg, ok := strings.CutPrefix(sc.Text(), expectPrefix); ok {
			return msg
		}
	}
	return ""
}

func checkCase(path string, cache *cpp.MemoryCache) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading test case")
	}
	res := parse.TranslateFile(path, src, &cpp.Config{
		IncludeDirs: []string{filepath.Dir(path)},
		Cache:       cache,
	})
	want := expected(src)
	if want == "" {
		if err := res.Err(); err != nil {
			return errors.Wrap(err, "unexpected errors")
		}
		return nil
	}
	for _, d := range res.Errors {
		if strings.Contains(d.Msg, want) {
			return nil
		}
	}
	return errors.Errorf("no error containing %q, got %d errors", want, len(res.Errors))
}

type outcome struct {
	path string
	err  error
}

// RunTests translates every matching case in tdir and prints PASS or FAIL
// for each, in directory order.
func RunTests(tdir string, re *regexp.Regexp, cache *cpp.MemoryCache) error {
	fmt.Println("running tests in", tdir)
	entries, err := os.ReadDir(tdir)
	if err != nil {
		return errors.Wrapf(err, "listing %s", tdir)
	}
	var cases []string
	for _, e := range entries {
		tc := filepath.Join(tdir, e.Name())
		if strings.HasSuffix(e.Name(), ".c") && re.MatchString(tc) {
			cases = append(cases, tc)
		}
	}

	outcomes := make([]outcome, len(cases))
	var g errgroup.Group
	g.SetLimit(*jobs)
	var mu sync.Mutex
	passcount := 0
	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			err := checkCase(tc, cache)
			outcomes[i] = outcome{tc, err}
			if err == nil {
				mu.Lock()
				passcount++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	for _, o := range outcomes {
		if o.err != nil {
			fmt.Printf("FAIL: %s - %s\n", o.path, o.err)
			continue
		}
		fmt.Printf("PASS: %s\n", o.path)
	}
	if passcount != len(cases) {
		return errors.Errorf("passed %d/%d", passcount, len(cases))
	}
	return nil
}

func main() {
	flag.Parse()
	re, err := regexp.Compile(*filter)
	if err != nil {
		fmt.Fprintln(os.Stderr, errors.Wrap(err, "bad filter"))
		os.Exit(2)
	}
	cache := cpp.NewMemoryCache()
	pass := true
	for _, tdir := range dirs {
		if err := RunTests(tdir, re, cache); err != nil {
			fmt.Printf("%s FAIL: %s\n", tdir, err)
			pass = false
		}
	}
	hits, misses := cache.Stats()
	fmt.Printf("include cache: %d hits, %d misses\n", hits, misses)
	if !pass {
		os.Exit(1)
	}
}
