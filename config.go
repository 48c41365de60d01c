package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/andrewchambers/cfront/cpp"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// fileConfig is the optional YAML configuration given with -config.
type fileConfig struct {
	Std         string   `yaml:"std"`
	Trigraphs   bool     `yaml:"trigraphs"`
	IncludeDirs []string `yaml:"include_dirs"`
	Defines     []string `yaml:"defines"`
}

func loadConfig(path string) (*fileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading config")
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	return &fc, nil
}

// stringList is a repeatable flag.
type stringList []string

func (l *stringList) String() string {
	return strings.Join(*l, ",")
}

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

type options struct {
	tokenize     bool
	preprocess   bool
	ppTokens     bool
	dumpAST      bool
	includeDirs  stringList
	defines      stringList
	std          string
	trigraphs    bool
	configPath   string
	sharedMacros bool
	jobs         int
	interactive  bool
	verbose      bool
	output       string
}

// settings is the configuration file with the command line applied on top.
type settings struct {
	std         cpp.Standard
	trigraphs   bool
	includeDirs []string
	defines     []string
}

func resolveSettings(opts *options) (*settings, error) {
	fc := &fileConfig{}
	if opts.configPath != "" {
		var err error
		if fc, err = loadConfig(opts.configPath); err != nil {
			return nil, err
		}
	}
	stdName := fc.Std
	if opts.std != "" {
		stdName = opts.std
	}
	std, ok := cpp.ParseStandard(stdName)
	if !ok {
		return nil, errors.Errorf("unknown standard %q", stdName)
	}
	s := &settings{
		std:       std,
		trigraphs: fc.Trigraphs || opts.trigraphs,
	}
	s.includeDirs = append(s.includeDirs, opts.includeDirs...)
	s.includeDirs = append(s.includeDirs, fc.IncludeDirs...)
	s.defines = append(s.defines, fc.Defines...)
	s.defines = append(s.defines, opts.defines...)
	return s, nil
}

// definePrelude turns NAME[=VALUE] definitions into #define lines.
// A definition without a value defines NAME as 1.
func definePrelude(defines []string) string {
	var sb strings.Builder
	for _, d := range defines {
		name, val, ok := strings.Cut(d, "=")
		if !ok {
			val = "1"
		}
		fmt.Fprintf(&sb, "#define %s %s\n", name, val)
	}
	return sb.String()
}

// newMacroTable returns a table holding the command line definitions.
func (s *settings) newMacroTable(base *cpp.Config) (*cpp.MacroTable, *cpp.Diagnostics) {
	cfg := *base
	cfg.Macros = cpp.NewMacroTable()
	pp := cpp.New("<command-line>", []byte(definePrelude(s.defines)), &cfg)
	pp.Preprocess()
	return pp.Macros(), pp.Diagnostics()
}
