package cpp

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// FileSource supplies the contents of files named by #include.
type FileSource interface {
	ReadFile(path string) ([]byte, error)
}

// OSFiles reads from the host filesystem.
type OSFiles struct{}

func (OSFiles) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// MapFiles serves files from memory, keyed by cleaned slash separated path.
type MapFiles map[string]string

func (m MapFiles) ReadFile(p string) ([]byte, error) {
	s, ok := m[path.Clean(filepath.ToSlash(p))]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}
	return []byte(s), nil
}

// FSFiles adapts an fs.FS. Paths are made relative to its root.
type FSFiles struct {
	FS fs.FS
}

func (f FSFiles) ReadFile(p string) ([]byte, error) {
	p = strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "/")
	if p == "" {
		p = "."
	}
	return fs.ReadFile(f.FS, p)
}

type IncludeSearcher interface {
	//IncludeQuote is invoked when the preprocessor
	//encounters an include of the form #include "foo.h".
	//returns the full path of the file, its contents or an error.
	IncludeQuote(requestingFile, headerPath string) (string, []byte, error)
	//IncludeAngled is invoked when the preprocessor
	//encounters an include of the form #include <foo.h>.
	//returns the full path of the file, its contents or an error.
	IncludeAngled(requestingFile, headerPath string) (string, []byte, error)
}

type StandardIncludeSearcher struct {
	//Priority order list of paths to search for headers
	systemHeadersPath []string
	files             FileSource
}

func NewStandardIncludeSearcher(dirs []string, files FileSource) *StandardIncludeSearcher {
	if files == nil {
		files = OSFiles{}
	}
	return &StandardIncludeSearcher{systemHeadersPath: dirs, files: files}
}

// try reads candidate. found is false only if the file does not exist,
// any other read failure is returned as an error.
func (is *StandardIncludeSearcher) try(candidate string) (src []byte, found bool, err error) {
	src, err = is.files.ReadFile(candidate)
	if err == nil {
		return src, true, nil
	}
	if cause := errors.Cause(err); os.IsNotExist(cause) || errors.Is(cause, fs.ErrNotExist) {
		return nil, false, nil
	}
	return nil, false, errors.Wrapf(err, "reading %s", candidate)
}

func (is *StandardIncludeSearcher) IncludeQuote(requestingFile, headerPath string) (string, []byte, error) {
	candidate := headerPath
	if !filepath.IsAbs(headerPath) {
		candidate = filepath.Join(filepath.Dir(requestingFile), headerPath)
	}
	src, found, err := is.try(candidate)
	if err != nil {
		return "", nil, err
	}
	if found {
		return candidate, src, nil
	}
	return is.IncludeAngled(requestingFile, headerPath)
}

func (is *StandardIncludeSearcher) IncludeAngled(requestingFile, headerPath string) (string, []byte, error) {
	if filepath.IsAbs(headerPath) {
		src, found, err := is.try(headerPath)
		if err != nil {
			return "", nil, err
		}
		if found {
			return headerPath, src, nil
		}
	}
	for _, dir := range is.systemHeadersPath {
		candidate := filepath.Join(dir, headerPath)
		src, found, err := is.try(candidate)
		if err != nil {
			return "", nil, err
		}
		if found {
			return candidate, src, nil
		}
	}
	return "", nil, errors.Errorf("%s: No such file or directory", headerPath)
}
