package hosted

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	gerrors "github.com/m0smith/genia-12-2024/pkg/genia/errors"
	"github.com/m0smith/genia-12-2024/pkg/genia/evaluator"
)

func registerOS(reg *evaluator.Registry) {
	reg.Register("os.files_in_paths", FilesInPaths)
	reg.Register("os.read_lines", func(args []evaluator.Value) (evaluator.Value, error) {
		if err := argCount("os.read_lines", args, 1, 1); err != nil {
			return nil, err
		}
		path, err := textArg("os.read_lines", args[0])
		if err != nil {
			return nil, err
		}
		return ReadLines(path), nil
	})
}

// FilesInPaths lists the files under each path argument as a lazy
// sequence. Directories are walked recursively in name order. A missing path
// fails when the sequence reaches it.
func FilesInPaths(args []evaluator.Value) (evaluator.Value, error) {
	queue := make([]string, 0, len(args))
	for _, a := range args {
		p, err := textArg("os.files_in_paths", a)
		if err != nil {
			return nil, err
		}
		queue = append(queue, p)
	}

	return evaluator.NewIterator(func() (evaluator.Value, bool, error) {
		for len(queue) > 0 {
			p := queue[0]
			queue = queue[1:]

			info, err := os.Stat(p)
			if err != nil {
				return nil, false, ioError("stat", p, err)
			}
			if !info.IsDir() {
				return evaluator.NewText(p), true, nil
			}

			entries, err := os.ReadDir(p)
			if err != nil {
				return nil, false, ioError("read directory", p, err)
			}
			children := make([]string, 0, len(entries))
			for _, e := range entries {
				children = append(children, filepath.Join(p, e.Name()))
			}
			sort.Strings(children)
			queue = append(children, queue...)
		}
		return nil, false, nil
	}), nil
}

// ReadLines returns the lines of path as a lazy sequence. The file is opened
// on the first pull and closed once the last line has been read.
func ReadLines(path string) *evaluator.Iterator {
	var (
		rc      io.ReadCloser
		scanner *bufio.Scanner
	)
	return evaluator.NewIterator(func() (evaluator.Value, bool, error) {
		if scanner == nil {
			r, err := OpenInput(path)
			if err != nil {
				return nil, false, err
			}
			rc = r
			scanner = NewLineScanner(r)
		}
		if scanner.Scan() {
			return evaluator.NewText(scanner.Text()), true, nil
		}
		rc.Close()
		if err := scanner.Err(); err != nil {
			return nil, false, ioError("read", path, err)
		}
		return nil, false, nil
	})
}

// NewLineScanner is a line scanner that accepts long lines.
func NewLineScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return s
}

// OpenInput opens path for reading, decompressing .gz and .zst files.
func OpenInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, ioError("open", path, err)
	}

	switch {
	case strings.HasSuffix(path, ".gz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, ioError("decompress", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zr, f}}, nil
	case strings.HasSuffix(path, ".zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, ioError("decompress", path, err)
		}
		return &stackedCloser{Reader: zr, closers: []io.Closer{zstdCloser{zr}, f}}, nil
	}
	return f, nil
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

type zstdCloser struct{ d *zstd.Decoder }

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}

func ioError(op, path string, err error) error {
	return gerrors.Wrap("IO-0001", err, map[string]any{"Operation": op, "Path": path})
}
